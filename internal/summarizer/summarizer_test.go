package summarizer

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ziadkadry99/smart-summarizer/internal/llm"
)

type fakeProvider struct {
	mu    sync.Mutex
	calls []llm.CompletionRequest
	reply func(req llm.CompletionRequest) (string, error)
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	f.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out, err := f.reply(req)
	if err != nil {
		return nil, err
	}
	return &llm.CompletionResponse{Content: out}, nil
}

func (f *fakeProvider) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeRecorder struct {
	mu        sync.Mutex
	summaries map[string]int
	fallbacks int
}

func (r *fakeRecorder) ObserveSummary(engine, summaryType string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.summaries == nil {
		r.summaries = make(map[string]int)
	}
	r.summaries[engine+"/"+summaryType]++
}

func (r *fakeRecorder) EngineFallback() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fallbacks++
}

func TestParseEngine(t *testing.T) {
	tests := []struct {
		in      string
		want    Engine
		wantErr bool
	}{
		{"", EngineClassic, false},
		{"classic", EngineClassic, false},
		{"NLTK", EngineClassic, false},
		{"neural", EngineNeural, false},
		{"transformers", EngineNeural, false},
		{"gpt", "", true},
	}

	for _, tt := range tests {
		got, err := ParseEngine(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestParseLength(t *testing.T) {
	assert.Equal(t, LengthShort, ParseLength("short"))
	assert.Equal(t, LengthCustom, ParseLength(" Custom "))
	assert.Equal(t, LengthMedium, ParseLength("huge"))
	assert.Equal(t, LengthMedium, ParseLength(""))
}

func TestSummarizeEmptyInput(t *testing.T) {
	s := New()
	_, err := s.Summarize(context.Background(), "  \n ", Options{})
	assert.ErrorIs(t, err, ErrEmptyInput)
}

func TestSummarizePercentages(t *testing.T) {
	s := New()
	pcts := Percentages{Short: 15, Medium: 35, Long: 70}

	tests := []struct {
		name   string
		length Length
		custom int
		want   int
		label  string
	}{
		{"short", LengthShort, 0, 15, "short"},
		{"medium", LengthMedium, 0, 35, "medium"},
		{"long", LengthLong, 0, 70, "long"},
		{"unknown is medium", Length("huge"), 0, 35, "medium"},
		{"custom", LengthCustom, 30, 30, "custom (30%)"},
		{"custom clamped high", LengthCustom, 200, 95, "custom (95%)"},
		{"custom clamped low", LengthCustom, 1, 5, "custom (5%)"},
		{"custom without value", LengthCustom, 0, 35, "medium"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := s.Summarize(context.Background(), solarText, Options{
				Length:           tt.length,
				Mode:             ModeExtractive,
				CustomPercentage: tt.custom,
				Percentages:      pcts,
			})
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.TargetPercentage)
			assert.Equal(t, tt.label, res.LengthLabel())
		})
	}
}

func TestSummarizeDefaultPercentages(t *testing.T) {
	res, err := New().Summarize(context.Background(), solarText, Options{Length: LengthShort})
	require.NoError(t, err)
	assert.Equal(t, 20, res.TargetPercentage)
}

func TestSummarizeModes(t *testing.T) {
	s := New()
	for _, tt := range []struct {
		mode Mode
		want string
	}{
		{ModeExtractive, "extractive"},
		{ModeAbstractive, "abstractive"},
		{ModeBoth, "extractive"},
		{"", "extractive"},
	} {
		res, err := s.Summarize(context.Background(), solarText, Options{Length: LengthMedium, Mode: tt.mode})
		require.NoError(t, err)
		assert.Equal(t, tt.want, res.Type, "mode %q", tt.mode)
		assert.Equal(t, EngineClassic, res.Engine)
	}
}

func TestSummarizeStatistics(t *testing.T) {
	res, err := New().Summarize(context.Background(), solarText, Options{Length: LengthShort, Mode: ModeExtractive})
	require.NoError(t, err)

	total := WordCount(solarText)
	assert.Equal(t, total, res.InputWords)
	assert.Equal(t, WordCount(res.Summary), res.SummaryWords)
	assert.LessOrEqual(t, float64(res.SummaryWords), float64(max(10, total*20/100))*1.3)

	ratio := float64(res.SummaryWords) / float64(total) * 100
	assert.InDelta(t, ratio, res.ActualPercentage, 0.05)
	assert.InDelta(t, 100-ratio, res.CompressionRatio, 0.05)
	assert.InDelta(t, 100, res.ActualPercentage+res.CompressionRatio, 0.11)
}

func TestSummarizeNeuralWithoutModelFallsBack(t *testing.T) {
	rec := &fakeRecorder{}
	s := New(WithRecorder(rec))
	assert.False(t, s.NeuralAvailable())

	res, err := s.Summarize(context.Background(), solarText, Options{Engine: EngineNeural, Length: LengthMedium})
	require.NoError(t, err)
	assert.Equal(t, "abstractive", res.Type)
	assert.Equal(t, EngineClassic, res.Engine)
	assert.Equal(t, 1, rec.fallbacks)
	assert.Equal(t, 1, rec.summaries["classic/abstractive"])
}

func TestSummarizeNeural(t *testing.T) {
	p := &fakeProvider{reply: func(llm.CompletionRequest) (string, error) {
		return "  Solar power is cheap\nand growing fast.  ", nil
	}}
	rec := &fakeRecorder{}
	s := New(WithNeural(NewNeural(p, "test-model", 0, 0, nil)), WithRecorder(rec))

	res, err := s.Summarize(context.Background(), solarText, Options{Engine: EngineNeural, Length: LengthShort})
	require.NoError(t, err)
	assert.Equal(t, "Solar power is cheap and growing fast.", res.Summary)
	assert.Equal(t, "neural", res.Type)
	assert.Equal(t, EngineNeural, res.Engine)
	assert.Equal(t, 1, rec.summaries["neural/neural"])
	assert.Zero(t, rec.fallbacks)

	require.Equal(t, 1, p.callCount())
	req := p.calls[0]
	assert.Equal(t, "test-model", req.Model)
	require.Len(t, req.Messages, 2)
	assert.Equal(t, llm.RoleSystem, req.Messages[0].Role)
	assert.Contains(t, req.Messages[1].Content, "Summarize the following text in 23 to 43 words.")
	assert.Contains(t, req.Messages[1].Content, solarText)
	assert.Equal(t, llm.TokensForWords(43), req.MaxTokens)
}

func TestSummarizeNeuralUsesDefaultEngine(t *testing.T) {
	p := &fakeProvider{reply: func(llm.CompletionRequest) (string, error) { return "short.", nil }}
	s := New(WithNeural(NewNeural(p, "", 0, 0, nil)), WithDefaultEngine(EngineNeural))

	res, err := s.Summarize(context.Background(), solarText, Options{})
	require.NoError(t, err)
	assert.Equal(t, "neural", res.Type)
	assert.Equal(t, 1, p.callCount())
}

func TestSummarizeNeuralErrorFallsBack(t *testing.T) {
	p := &fakeProvider{reply: func(llm.CompletionRequest) (string, error) {
		return "", errors.New("model overloaded")
	}}
	rec := &fakeRecorder{}
	s := New(WithNeural(NewNeural(p, "", 0, 0, nil)), WithRecorder(rec))

	res, err := s.Summarize(context.Background(), solarText, Options{Engine: EngineNeural})
	require.NoError(t, err)
	assert.Equal(t, "abstractive", res.Type)
	assert.NotEmpty(t, res.Summary)
	assert.Equal(t, 1, rec.fallbacks)
}

func TestSummarizeNeuralEmptyOutputFallsBack(t *testing.T) {
	p := &fakeProvider{reply: func(llm.CompletionRequest) (string, error) { return " \n ", nil }}
	s := New(WithNeural(NewNeural(p, "", 0, 0, nil)))

	res, err := s.Summarize(context.Background(), solarText, Options{Engine: EngineNeural})
	require.NoError(t, err)
	assert.Equal(t, "abstractive", res.Type)
}

func TestSummarizeNeuralCancelled(t *testing.T) {
	p := &fakeProvider{reply: func(llm.CompletionRequest) (string, error) { return "never", nil }}
	s := New(WithNeural(NewNeural(p, "", 0, 0, nil)))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Summarize(ctx, solarText, Options{Engine: EngineNeural})
	assert.ErrorIs(t, err, context.Canceled)
}

func longText(words int) string {
	vocab := []string{"alpha", "beta", "gamma", "delta", "epsilon"}
	out := make([]string, words)
	for i := range out {
		out[i] = vocab[i%len(vocab)]
	}
	return strings.Join(out, " ")
}

func TestNeuralChunksLongInput(t *testing.T) {
	p := &fakeProvider{reply: func(llm.CompletionRequest) (string, error) { return "chunk summary", nil }}
	n := NewNeural(p, "", 0, 600, nil)

	out, err := n.Summarize(context.Background(), longText(1300), 40)
	require.NoError(t, err)
	assert.Equal(t, "chunk summary chunk summary chunk summary", out)
	assert.Equal(t, 3, p.callCount())

	// target 520 words: max 780, min 416, split across three chunks.
	for _, req := range p.calls {
		assert.Contains(t, req.Messages[1].Content, "in 138 to 260 words")
	}
}

func TestNeuralDropsFailedChunk(t *testing.T) {
	var mu sync.Mutex
	failed := false
	p := &fakeProvider{reply: func(llm.CompletionRequest) (string, error) {
		mu.Lock()
		defer mu.Unlock()
		if !failed {
			failed = true
			return "", errors.New("timeout")
		}
		return "part", nil
	}}
	n := NewNeural(p, "", 0, 600, nil)

	out, err := n.Summarize(context.Background(), longText(1300), 40)
	require.NoError(t, err)
	assert.Equal(t, "part part", out)
}

func TestNeuralAllChunksFail(t *testing.T) {
	p := &fakeProvider{reply: func(llm.CompletionRequest) (string, error) {
		return "", errors.New("down")
	}}
	n := NewNeural(p, "", 0, 600, nil)

	_, err := n.Summarize(context.Background(), longText(1300), 40)
	assert.ErrorIs(t, err, errNoOutput)
}

func TestNeuralCapsMaxTokens(t *testing.T) {
	p := &fakeProvider{reply: func(llm.CompletionRequest) (string, error) { return "ok", nil }}
	n := NewNeural(p, "", 16, 0, nil)

	_, err := n.Summarize(context.Background(), solarText, 60)
	require.NoError(t, err)
	assert.Equal(t, 16, p.calls[0].MaxTokens)
}

func TestSummarizeNeuralOvershootIsRedoneExtractively(t *testing.T) {
	// The model ignores its word budget and echoes the whole input.
	p := &fakeProvider{reply: func(llm.CompletionRequest) (string, error) {
		return solarText, nil
	}}
	s := New(WithNeural(NewNeural(p, "test-model", 0, 0, nil)))

	res, err := s.Summarize(context.Background(), solarText, Options{Engine: EngineNeural, Length: LengthShort})
	require.NoError(t, err)

	target := max(10, WordCount(solarText)*DefaultPercentages.Short/100)
	want := Extractive(solarText, Target{Words: target})
	assert.Equal(t, want, res.Summary)
	assert.Equal(t, WordCount(want), res.SummaryWords)
	assert.Equal(t, "neural", res.Type)
	assert.Equal(t, EngineNeural, res.Engine)
}
