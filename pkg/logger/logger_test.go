package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWriterFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriter(&buf, zerolog.InfoLevel).Component("trainer")
	l.Info("trained",
		String("run_id", "abc"),
		Int("rows", 56),
		Float64("accuracy", 0.5),
		Bool("fallback", false),
		Uint64("seed", 42),
		Date("date", time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)),
	)
	l.Debug("hidden")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "trained", entry["message"])
	assert.Equal(t, "trainer", entry["component"])
	assert.Equal(t, "abc", entry["run_id"])
	assert.Equal(t, 56.0, entry["rows"])
	assert.Equal(t, 0.5, entry["accuracy"])
	assert.Equal(t, "2024-01-02", entry["date"])
	assert.NotContains(t, buf.String(), "hidden")
}

func TestNewRejectsBadLevel(t *testing.T) {
	_, err := New(&Config{Level: "loud", Output: "stdout"})
	assert.Error(t, err)
}

type recordingPublisher struct {
	mu      sync.Mutex
	batches [][]Digest
}

func (p *recordingPublisher) Publish(_ context.Context, _ string, _ []byte, value interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.batches = append(p.batches, value.([]Digest))
	return nil
}

func TestCollectorDeduplicates(t *testing.T) {
	pub := &recordingPublisher{}
	l := NewWriter(&bytes.Buffer{}, zerolog.InfoLevel)
	l.AddCollector(&CollectionConfig{TimeInterval: time.Hour, CountThreshold: 10, Topic: "logs", Publisher: pub})

	for i := 0; i < 3; i++ {
		l.Error("fetch failed", Error(errors.New("timeout")))
	}
	l.Warn("fallback used", String("source", "yahoo"))
	l.RemoveCollector()

	pub.mu.Lock()
	defer pub.mu.Unlock()
	require.Len(t, pub.batches, 1)
	counts := map[string]int{}
	for _, d := range pub.batches[0] {
		counts[d.Message] = d.Count
	}
	assert.Equal(t, map[string]int{"fetch failed": 3, "fallback used": 1}, counts)
}
