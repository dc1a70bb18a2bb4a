package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ziadkadry99/smart-summarizer/internal/summaries"
	"github.com/ziadkadry99/smart-summarizer/internal/summarizer"
)

// handleSummarizeText summarizes the text argument with the configured
// settings.
func (s *Server) handleSummarizeText(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := request.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: text"), nil
	}

	var inputErr *summaries.InputError
	if err := summaries.Validate(text, s.settings); errors.As(err, &inputErr) {
		return mcp.NewToolResultError(inputErr.Msg), nil
	}

	mode := summarizer.Mode(request.GetString("mode", string(s.settings.Mode)))
	if !mode.Valid() {
		mode = s.settings.Mode
	}
	opts := summarizer.Options{
		Length:           summarizer.ParseLength(request.GetString("length", "medium")),
		Mode:             mode,
		CustomPercentage: request.GetInt("custom_percentage", 0),
		Percentages:      s.settings.Percentages(),
	}
	if e := request.GetString("engine", ""); e != "" {
		if opts.Engine, err = summarizer.ParseEngine(e); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("unknown engine %q", e)), nil
		}
	}

	res, err := s.summarizer.Summarize(ctx, text, opts)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("summarization failed: %v", err)), nil
	}
	return mcp.NewToolResultText(formatResult(res)), nil
}

// handleCountWords reports word and sentence counts.
func (s *Server) handleCountWords(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := request.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: text"), nil
	}

	words := summarizer.WordCount(text)
	sentences := 0
	if strings.TrimSpace(text) != "" {
		sentences = len(summarizer.SplitSentences(text))
	}
	return mcp.NewToolResultText(fmt.Sprintf(
		"Words: %d\nSentences: %d\nMaximum input words: %d\n",
		words, sentences, s.settings.MaxInputWords,
	)), nil
}

// formatResult renders a summary followed by its statistics.
func formatResult(res *summarizer.Result) string {
	var sb strings.Builder
	sb.WriteString(res.Summary)
	sb.WriteString("\n\n---\n")
	fmt.Fprintf(&sb, "Type: %s\n", res.Type)
	fmt.Fprintf(&sb, "Engine: %s\n", res.Engine)
	fmt.Fprintf(&sb, "Length: %s\n", res.LengthLabel())
	fmt.Fprintf(&sb, "Words: %d -> %d (%.1f%% of the original, %.1f%% compression)\n",
		res.InputWords, res.SummaryWords, res.ActualPercentage, res.CompressionRatio)
	return sb.String()
}
