package research

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/raphaelgruber/procwise/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProvider struct {
	results []models.ResearchResult
	err     atomic.Value
	calls   atomic.Int32
}

func (s *stubProvider) setErr(err error) {
	s.err.Store(errBox{err})
}

type errBox struct{ err error }

func (s *stubProvider) Research(context.Context, string, []models.ResearchSource, int) ([]models.ResearchResult, error) {
	s.calls.Add(1)
	if box, ok := s.err.Load().(errBox); ok && box.err != nil {
		return nil, box.err
	}
	return s.results, nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig() BreakerConfig {
	cfg := DefaultBreakerConfig("test")
	cfg.Timeout = 30 * time.Millisecond
	return cfg
}

func TestBreakerPassesResults(t *testing.T) {
	stub := &stubProvider{results: []models.ResearchResult{{Title: "a"}}}
	b := NewBreaker(stub, testConfig(), quietLogger())

	got, err := b.Research(context.Background(), "q", nil, 5)
	require.NoError(t, err)
	assert.Equal(t, stub.results, got)
	assert.Equal(t, "closed", b.State())
}

func TestBreakerOpensAfterFailures(t *testing.T) {
	stub := &stubProvider{}
	stub.setErr(errors.New("upstream 500"))
	b := NewBreaker(stub, testConfig(), quietLogger())

	for i := 0; i < 3; i++ {
		_, err := b.Research(context.Background(), "q", nil, 5)
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrUnavailable)
	}
	assert.Equal(t, "open", b.State())

	_, err := b.Research(context.Background(), "q", nil, 5)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, int32(3), stub.calls.Load(), "open breaker does not call the provider")
}

func TestBreakerRecoversAfterTimeout(t *testing.T) {
	stub := &stubProvider{results: []models.ResearchResult{{Title: "back"}}}
	stub.setErr(errors.New("down"))
	b := NewBreaker(stub, testConfig(), quietLogger())

	for i := 0; i < 3; i++ {
		_, _ = b.Research(context.Background(), "q", nil, 5)
	}
	require.Equal(t, "open", b.State())

	stub.setErr(nil)
	require.Eventually(t, func() bool { return b.State() == "half-open" }, time.Second, 5*time.Millisecond)

	got, err := b.Research(context.Background(), "q", nil, 5)
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, "closed", b.State())
}

func TestBreakerIgnoresCallerCancellation(t *testing.T) {
	stub := &stubProvider{}
	stub.setErr(context.Canceled)
	b := NewBreaker(stub, testConfig(), quietLogger())

	for i := 0; i < 5; i++ {
		_, err := b.Research(context.Background(), "q", nil, 5)
		assert.ErrorIs(t, err, context.Canceled)
	}
	assert.Equal(t, "closed", b.State())
}

func TestBreakerToleratesOccasionalFailures(t *testing.T) {
	stub := &stubProvider{}
	b := NewBreaker(stub, testConfig(), quietLogger())

	for i := 0; i < 4; i++ {
		_, _ = b.Research(context.Background(), "q", nil, 5)
	}
	stub.setErr(errors.New("blip"))
	_, _ = b.Research(context.Background(), "q", nil, 5)

	assert.Equal(t, "closed", b.State())
}
