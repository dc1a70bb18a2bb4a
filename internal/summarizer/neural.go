package summarizer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ziadkadry99/smart-summarizer/internal/llm"
)

// DefaultChunkWords is the largest piece of text sent to the model at once.
const DefaultChunkWords = 600

const chunkConcurrency = 4

var errNoOutput = errors.New("model returned no summary")

const systemPrompt = "You are a summarization engine. Reply with the summary text only: " +
	"no preamble, no headings, no bullet points. Never add facts that are not in the input."

// Neural summarizes through a language model.
type Neural struct {
	provider   llm.Provider
	model      string
	maxTokens  int
	chunkWords int
	logger     *zap.Logger
}

// NewNeural creates a model-backed engine. chunkWords <= 0 selects
// DefaultChunkWords and maxTokens <= 0 leaves the output budget unbounded.
func NewNeural(provider llm.Provider, model string, maxTokens, chunkWords int, logger *zap.Logger) *Neural {
	if chunkWords <= 0 {
		chunkWords = DefaultChunkWords
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Neural{
		provider:   provider,
		model:      model,
		maxTokens:  maxTokens,
		chunkWords: chunkWords,
		logger:     logger,
	}
}

// Summarize asks the model for a summary of about pct percent of text.
// Long inputs are split into chunks that are summarized concurrently; a
// failed chunk is dropped from the result.
func (n *Neural) Summarize(ctx context.Context, text string, pct int) (string, error) {
	words := strings.Fields(text)
	target := len(words) * pct / 100
	maxLen := max(30, target*3/2)
	minLen := max(10, target*4/5)

	if len(words) <= n.chunkWords {
		out, err := n.complete(ctx, text, minLen, maxLen)
		if err != nil {
			return "", err
		}
		if out == "" {
			return "", errNoOutput
		}
		return out, nil
	}

	var chunks []string
	for i := 0; i < len(words); i += n.chunkWords {
		end := min(i+n.chunkWords, len(words))
		chunks = append(chunks, strings.Join(words[i:end], " "))
	}
	chunkMax := max(1, maxLen/len(chunks))
	chunkMin := min(minLen/len(chunks), chunkMax)

	results := make([]string, len(chunks))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(chunkConcurrency)
	for i, chunk := range chunks {
		g.Go(func() error {
			out, err := n.complete(gctx, chunk, chunkMin, chunkMax)
			if err != nil {
				n.logger.Warn("chunk summary failed",
					zap.Int("chunk", i),
					zap.Int("chunks", len(chunks)),
					zap.Error(err))
				return nil
			}
			results[i] = out
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return "", err
	}
	var parts []string
	for _, r := range results {
		if r != "" {
			parts = append(parts, r)
		}
	}
	if len(parts) == 0 {
		return "", errNoOutput
	}
	return strings.Join(parts, " "), nil
}

func (n *Neural) complete(ctx context.Context, text string, minWords, maxWords int) (string, error) {
	maxTokens := llm.TokensForWords(maxWords)
	if n.maxTokens > 0 && maxTokens > n.maxTokens {
		maxTokens = n.maxTokens
	}

	resp, err := n.provider.Complete(ctx, llm.CompletionRequest{
		Model: n.model,
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: systemPrompt},
			{Role: llm.RoleUser, Content: fmt.Sprintf(
				"Summarize the following text in %d to %d words.\n\n%s", minWords, maxWords, text)},
		},
		MaxTokens: maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("%s completion: %w", n.provider.Name(), err)
	}
	return strings.Join(strings.Fields(resp.Content), " "), nil
}
