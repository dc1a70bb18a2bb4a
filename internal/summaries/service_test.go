package summaries

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ziadkadry99/smart-summarizer/internal/settings"
	"github.com/ziadkadry99/smart-summarizer/internal/summarizer"
	"github.com/ziadkadry99/smart-summarizer/internal/ui"
)

const articleText = `Rivers shape the land they flow through over thousands of years. ` +
	`Water carries sediment from mountains down to the plains and the sea. ` +
	`Floods deposit fertile soil that farmers have relied on since ancient times. ` +
	`Dams change this pattern by trapping sediment behind concrete walls. ` +
	`Engineers now design channels that let some sediment pass through the dam. ` +
	`Healthy rivers also support fish, birds and the people who live along the banks.`

var testDefaults = settings.Summarization{
	ShortPercentage:  20,
	MediumPercentage: 40,
	LongPercentage:   60,
	MaxInputWords:    10000,
	Mode:             summarizer.ModeExtractive,
}

func setupTestService(t *testing.T) (*Service, *Store, int64, *settings.Store) {
	t.Helper()
	store, database := setupTestStore(t)
	settingsStore := settings.NewStore(database)
	svc := NewService(store, settingsStore, testDefaults, summarizer.New())
	return svc, store, addUser(t, database, "ann@example.com"), settingsStore
}

func TestServiceSummarizeStoresHistory(t *testing.T) {
	svc, store, ann, _ := setupTestService(t)
	ctx := context.Background()

	sum, res, err := svc.Summarize(ctx, ann, Request{Text: articleText, Length: "short"})
	require.NoError(t, err)
	assert.Equal(t, "extractive", res.Type)
	assert.Equal(t, 20, res.TargetPercentage)
	assert.Equal(t, "short", sum.Length)

	got, err := store.GetForUser(ctx, sum.ID, ann)
	require.NoError(t, err)
	assert.Equal(t, res.Summary, got.SummaryText)
	assert.Equal(t, res.InputWords, got.InputWords)
}

func TestServiceCustomLengthLabel(t *testing.T) {
	svc, _, ann, _ := setupTestService(t)

	sum, res, err := svc.Summarize(context.Background(), ann, Request{
		Text: articleText, Length: "custom", Mode: "abstractive", CustomPercentage: 99,
	})
	require.NoError(t, err)
	assert.Equal(t, 95, res.TargetPercentage)
	assert.Equal(t, "custom (95%)", sum.Length)
	assert.Equal(t, "abstractive", sum.Type)
}

func TestServiceUsesStoredMode(t *testing.T) {
	svc, _, ann, settingsStore := setupTestService(t)
	ctx := context.Background()

	cfg := testDefaults
	cfg.Mode = summarizer.ModeAbstractive
	require.NoError(t, settingsStore.Save(ctx, cfg))

	_, res, err := svc.Summarize(ctx, ann, Request{Text: articleText, Length: "medium"})
	require.NoError(t, err)
	assert.Equal(t, "abstractive", res.Type)
}

func TestServiceValidation(t *testing.T) {
	svc, _, ann, settingsStore := setupTestService(t)
	ctx := context.Background()

	tests := []struct {
		name string
		text string
		kind ui.ToastKind
		msg  string
	}{
		{"empty", "   ", ui.ToastWarning, "Please enter some text to summarize."},
		{"too short", "Only a handful of words here.", ui.ToastWarning, "Please enter at least 30 words for effective summarization."},
		{"too long", strings.Repeat("word ", 101), ui.ToastDanger, "Text exceeds maximum word limit of 100 words."},
	}

	cfg := testDefaults
	cfg.MaxInputWords = 100
	require.NoError(t, settingsStore.Save(ctx, cfg))

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := svc.Summarize(ctx, ann, Request{Text: tt.text})
			var inputErr *InputError
			require.ErrorAs(t, err, &inputErr)
			assert.Equal(t, tt.kind, inputErr.Kind)
			assert.Equal(t, tt.msg, inputErr.Msg)
		})
	}

	_, _, err := svc.Summarize(ctx, ann, Request{Text: articleText, Engine: "gpt"})
	var inputErr *InputError
	require.ErrorAs(t, err, &inputErr)
	assert.Equal(t, "Unknown summarization engine.", inputErr.Msg)
}

func TestServiceNeuralFallsBack(t *testing.T) {
	svc, _, ann, _ := setupTestService(t)
	assert.False(t, svc.NeuralAvailable())

	_, res, err := svc.Summarize(context.Background(), ann, Request{Text: articleText, Engine: "transformers"})
	require.NoError(t, err)
	assert.Equal(t, "abstractive", res.Type)
	assert.Equal(t, summarizer.EngineClassic, res.Engine)
}
