package engine

import (
	"context"
	"testing"
	"time"

	"github.com/traffictuner/traffictuner/internal/clock"
	"github.com/traffictuner/traffictuner/internal/config"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T) *HeuristicEngine {
	t.Helper()
	holder := config.NewStaticEngineConfigHolder(config.DefaultEngineConfig())
	return NewHeuristic(holder, clock.NewFakeClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)))
}

func TestAnalyzeIsDeterministicPerURL(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	first, err := e.Analyze(ctx, "https://example.com", TypeFull)
	require.NoError(t, err)
	second, err := e.Analyze(ctx, "https://example.com", TypeFull)
	require.NoError(t, err)
	require.Equal(t, first, second)

	other, err := e.Analyze(ctx, "https://other.example.com", TypeFull)
	require.NoError(t, err)
	require.NotEqual(t, first.SEO.Factors, other.SEO.Factors)
}

func TestAnalyzeRespectsScoreFloors(t *testing.T) {
	cfg := config.DefaultEngineConfig()
	cfg.DefaultSEOScore = 99
	cfg.DefaultAEOScore = 99
	e := NewHeuristic(config.NewStaticEngineConfigHolder(cfg), clock.NewFakeClock(time.Now().UTC()))

	res, err := e.Analyze(context.Background(), "https://example.com", TypeFull)
	require.NoError(t, err)
	require.GreaterOrEqual(t, res.SEOScore, 99.0)
	require.GreaterOrEqual(t, res.AEOScore, 99.0)
	require.LessOrEqual(t, res.OverallScore, 100.0)
}

func TestAnalyzeQuickSkipsAnswerEnginePass(t *testing.T) {
	e := newTestEngine(t)

	res, err := e.Analyze(context.Background(), "https://example.com", TypeQuick)
	require.NoError(t, err)
	require.Empty(t, res.AEO.Factors)
	require.Equal(t, config.DefaultEngineConfig().DefaultAEOScore, res.AEOScore)
	require.NotEmpty(t, res.SEO.Factors)
}

func TestAnalyzeRejectsUnknownType(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.Analyze(context.Background(), "https://example.com", "deep")
	require.Error(t, err)
}

func TestAnalyzeHonorsCancelledContext(t *testing.T) {
	e := newTestEngine(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.Analyze(ctx, "https://example.com", TypeFull)
	require.ErrorIs(t, err, context.Canceled)
}

func TestLLMSFileContent(t *testing.T) {
	e := newTestEngine(t)

	res, err := e.Analyze(context.Background(), "https://example.com", TypeFull)
	require.NoError(t, err)
	require.Contains(t, res.LLMSFileContent, "# LLMs.txt for https://example.com")
	require.Contains(t, res.LLMSFileContent, "Generated: 2026-03-01T12:00:00Z")
}
