package usecase

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"sigsync/internal/signature/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// memorySink implements both sink interfaces as keyed overwrites, the same
// semantics the real Gmail and Drive sinks provide.
type memorySink struct {
	mu     sync.Mutex
	values map[string]string
	writes int
	err    error

	// concurrency tracking
	inFlight    map[string]int
	maxInFlight int32
	delay       time.Duration
}

func newMemorySink() *memorySink {
	return &memorySink{
		values:   make(map[string]string),
		inFlight: make(map[string]int),
	}
}

func (s *memorySink) set(email, signature string) error {
	s.mu.Lock()
	if s.err != nil {
		s.mu.Unlock()
		return s.err
	}
	s.inFlight[email]++
	if int32(s.inFlight[email]) > atomic.LoadInt32(&s.maxInFlight) {
		atomic.StoreInt32(&s.maxInFlight, int32(s.inFlight[email]))
	}
	s.mu.Unlock()

	if s.delay > 0 {
		time.Sleep(s.delay)
	}

	s.mu.Lock()
	s.values[email] = signature
	s.writes++
	s.inFlight[email]--
	s.mu.Unlock()
	return nil
}

func (s *memorySink) SetSignature(ctx context.Context, email, signature string) error {
	return s.set(email, signature)
}

func (s *memorySink) Put(ctx context.Context, email, signature string) error {
	return s.set(email, signature)
}

func (s *memorySink) value(email string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.values[email]
}

func event(email, signature string) domain.UpdateEvent {
	return domain.UpdateEvent{ID: "evt-" + email, Email: email, Signature: signature, GeneratedAt: time.Now()}
}

func TestApplier_Apply(t *testing.T) {
	mail := newMemorySink()
	docs := newMemorySink()
	a := NewApplier(mail, docs, zap.NewNop(), time.Second)

	require.NoError(t, a.Apply(context.Background(), event("a@x", "<p>Alice</p>")))
	assert.Equal(t, "<p>Alice</p>", mail.value("a@x"))
	assert.Equal(t, "<p>Alice</p>", docs.value("a@x"))
}

func TestApplier_DoubleApplyIsIdempotent(t *testing.T) {
	mail := newMemorySink()
	docs := newMemorySink()
	a := NewApplier(mail, docs, zap.NewNop(), time.Second)

	e := event("a@x", "<p>Alice</p>")
	require.NoError(t, a.Apply(context.Background(), e))

	mailAfterOnce := mail.value("a@x")
	docsAfterOnce := docs.value("a@x")

	// Redelivery of the exact same event
	require.NoError(t, a.Apply(context.Background(), e))
	assert.Equal(t, mailAfterOnce, mail.value("a@x"))
	assert.Equal(t, docsAfterOnce, docs.value("a@x"))
	assert.Len(t, mail.values, 1)
	assert.Len(t, docs.values, 1)
}

func TestApplier_CrossAccountOrderIndependence(t *testing.T) {
	run := func(events []domain.UpdateEvent) (map[string]string, map[string]string) {
		mail := newMemorySink()
		docs := newMemorySink()
		a := NewApplier(mail, docs, zap.NewNop(), time.Second)
		for _, e := range events {
			require.NoError(t, a.Apply(context.Background(), e))
		}
		return mail.values, docs.values
	}

	ab := []domain.UpdateEvent{event("a@x", "A"), event("b@x", "B")}
	ba := []domain.UpdateEvent{event("b@x", "B"), event("a@x", "A")}

	mail1, docs1 := run(ab)
	mail2, docs2 := run(ba)
	assert.Equal(t, mail1, mail2)
	assert.Equal(t, docs1, docs2)
}

func TestApplier_MailSinkFailurePropagates(t *testing.T) {
	mail := newMemorySink()
	mail.err = errors.New("gmail unavailable")
	docs := newMemorySink()
	a := NewApplier(mail, docs, zap.NewNop(), time.Second)

	err := a.Apply(context.Background(), event("a@x", "A"))
	require.Error(t, err)
	assert.Empty(t, docs.values, "archival must not run after a failed set")
}

func TestApplier_ArchivalFailureStillFailsApply(t *testing.T) {
	mail := newMemorySink()
	docs := newMemorySink()
	docs.err = errors.New("drive unavailable")
	a := NewApplier(mail, docs, zap.NewNop(), time.Second)

	e := event("a@x", "A")
	err := a.Apply(context.Background(), e)
	require.Error(t, err)
	// The signature was already set; redelivery repeats both steps and
	// converges once the archive recovers.
	assert.Equal(t, "A", mail.value("a@x"))

	docs.err = nil
	require.NoError(t, a.Apply(context.Background(), e))
	assert.Equal(t, "A", docs.value("a@x"))
}

func TestApplier_InvalidEventRejected(t *testing.T) {
	a := NewApplier(newMemorySink(), newMemorySink(), zap.NewNop(), time.Second)
	assert.Error(t, a.Apply(context.Background(), domain.UpdateEvent{Email: "", Signature: "x"}))
	assert.Error(t, a.Apply(context.Background(), domain.UpdateEvent{Email: "a@x", Signature: ""}))
}

func TestApplier_SameAccountAppliesSerialized(t *testing.T) {
	mail := newMemorySink()
	mail.delay = 5 * time.Millisecond
	docs := newMemorySink()
	a := NewApplier(mail, docs, zap.NewNop(), time.Second)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = a.Apply(context.Background(), event("a@x", "A"))
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&mail.maxInFlight),
		"two applies for the same account must never overlap")
}
