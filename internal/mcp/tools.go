package mcp

import "github.com/mark3labs/mcp-go/mcp"

// summarizeTextTool defines the summarize_text MCP tool.
var summarizeTextTool = mcp.NewTool("summarize_text",
	mcp.WithDescription("Summarize a text of at least 30 words. Returns the summary and word statistics."),
	mcp.WithString("text",
		mcp.Required(),
		mcp.Description("The text to summarize"),
	),
	mcp.WithString("length",
		mcp.Description("Summary length (default medium)"),
		mcp.Enum("short", "medium", "long", "custom"),
	),
	mcp.WithString("mode",
		mcp.Description("Extractive keeps original sentences; abstractive compresses them"),
		mcp.Enum("extractive", "abstractive", "both"),
	),
	mcp.WithString("engine",
		mcp.Description("Summarization engine (default classic)"),
		mcp.Enum("classic", "neural"),
	),
	mcp.WithNumber("custom_percentage",
		mcp.Description("Share of the input to keep when length is custom, 5 to 95"),
	),
)

// countWordsTool defines the count_words MCP tool.
var countWordsTool = mcp.NewTool("count_words",
	mcp.WithDescription("Count the words and sentences of a text."),
	mcp.WithString("text",
		mcp.Required(),
		mcp.Description("The text to measure"),
	),
)
