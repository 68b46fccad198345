package kafka

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TrendPredictor/pkg/logger"
)

type fakeReader struct {
	msgs chan kafka.Message

	mu        sync.Mutex
	committed []kafka.Message
	closed    bool
}

func newFakeReader(msgs ...kafka.Message) *fakeReader {
	r := &fakeReader{msgs: make(chan kafka.Message, len(msgs))}
	for _, m := range msgs {
		r.msgs <- m
	}
	return r
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	select {
	case m := <-r.msgs:
		return m, nil
	case <-ctx.Done():
		return kafka.Message{}, ctx.Err()
	}
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.committed = append(r.committed, msgs...)
	return nil
}

func (r *fakeReader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

func (r *fakeReader) commits() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.committed)
}

type recordingHandler struct {
	topic string
	fail  int

	mu    sync.Mutex
	calls int
	seen  []string
}

func (h *recordingHandler) Topic() string { return h.topic }

func (h *recordingHandler) Handle(_ context.Context, data []byte) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.calls++
	if h.calls <= h.fail {
		return errors.New("transient")
	}
	h.seen = append(h.seen, string(data))
	return nil
}

func (h *recordingHandler) snapshot() (int, []string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.calls, append([]string(nil), h.seen...)
}

func testConsumer(reader *fakeReader, retries int) *Consumer {
	c := newConsumer(logger.Nop(), &ConsumerConfig{
		WorkerCount: 1,
		BufferSize:  4,
		RetryMax:    retries,
		BackoffMin:  time.Millisecond,
		BackoffMax:  2 * time.Millisecond,
		Registerer:  prometheus.NewRegistry(),
	})
	c.newReader = func(string) messageReader { return reader }
	return c
}

func TestConsumerDeliversAndCommits(t *testing.T) {
	reader := newFakeReader(kafka.Message{Value: []byte("a")}, kafka.Message{Value: []byte("b")})
	h := &recordingHandler{topic: "events"}
	c := testConsumer(reader, 0)
	c.RegisterHandler(h)
	require.NoError(t, c.Start())

	require.Eventually(t, func() bool { return reader.commits() == 2 }, time.Second, 5*time.Millisecond)
	_, seen := h.snapshot()
	assert.Equal(t, []string{"a", "b"}, seen)

	require.NoError(t, c.Stop(context.Background()))
	assert.True(t, reader.closed)
}

func TestConsumerRetriesHandler(t *testing.T) {
	reader := newFakeReader(kafka.Message{Value: []byte("x")})
	h := &recordingHandler{topic: "events", fail: 2}
	c := testConsumer(reader, 3)
	c.RegisterHandler(h)
	require.NoError(t, c.Start())

	require.Eventually(t, func() bool { return reader.commits() == 1 }, time.Second, 5*time.Millisecond)
	calls, seen := h.snapshot()
	assert.Equal(t, 3, calls)
	assert.Equal(t, []string{"x"}, seen)
	require.NoError(t, c.Stop(context.Background()))
}

func TestConsumerCommitsAfterExhaustedRetries(t *testing.T) {
	reader := newFakeReader(kafka.Message{Value: []byte("poison")})
	h := &recordingHandler{topic: "events", fail: 100}
	c := testConsumer(reader, 1)
	c.RegisterHandler(h)
	require.NoError(t, c.Start())

	require.Eventually(t, func() bool { return reader.commits() == 1 }, time.Second, 5*time.Millisecond)
	calls, seen := h.snapshot()
	assert.Equal(t, 2, calls)
	assert.Empty(t, seen)
	require.NoError(t, c.Stop(context.Background()))
}

func TestConsumerStartWithoutHandlers(t *testing.T) {
	c := testConsumer(newFakeReader(), 0)
	assert.Error(t, c.Start())
}

func TestNewConsumerRequiresBrokers(t *testing.T) {
	_, err := NewConsumer(logger.Nop())
	assert.Error(t, err)
	_, err = NewProducer()
	assert.Error(t, err)
}

func TestBackoffWithJitter(t *testing.T) {
	for attempt := 1; attempt <= 10; attempt++ {
		d := backoffWithJitter(10*time.Millisecond, 80*time.Millisecond, attempt)
		assert.Greater(t, d, time.Duration(0))
		assert.LessOrEqual(t, d, 80*time.Millisecond)
	}
}

func TestEncodeValue(t *testing.T) {
	b, err := encodeValue(map[string]int{"a": 1})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1}`, string(b))

	b, err = encodeValue("raw")
	require.NoError(t, err)
	assert.Equal(t, "raw", string(b))
}

func TestInstanceGroupIDIsPerProcessInstance(t *testing.T) {
	a := InstanceGroupID("trend-predictor")
	b := InstanceGroupID("trend-predictor")

	assert.True(t, strings.HasPrefix(a, "trend-predictor-"))
	assert.True(t, strings.HasPrefix(b, "trend-predictor-"))
	assert.NotEqual(t, a, b)
}

func TestReaderConfigStartsAtLatestForNewGroups(t *testing.T) {
	cfg := &ConsumerConfig{Brokers: []string{"b:9092"}, StartOffset: kafka.FirstOffset}
	WithConsumerGroupID("g-1")(cfg)
	WithConsumerFromLatest()(cfg)

	rc := cfg.readerConfig("trend.model-events")
	assert.Equal(t, "g-1", rc.GroupID)
	assert.Equal(t, "trend.model-events", rc.Topic)
	assert.Equal(t, kafka.LastOffset, rc.StartOffset)
}
