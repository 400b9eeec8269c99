package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"sigsync/internal/signature/domain"

	"go.uber.org/zap"
)

// MailSink sets the signature on one mail account. Setting the same value
// twice must leave the account in the same state as setting it once.
type MailSink interface {
	SetSignature(ctx context.Context, email, signature string) error
}

// DocumentSink archives the rendered signature, keyed by account email, as
// an overwrite: re-running with the same event replaces rather than
// duplicates.
type DocumentSink interface {
	Put(ctx context.Context, email, signature string) error
}

// Applier processes one update event at a time per account: set the Gmail
// signature, then archive a copy. Both steps are idempotent overwrites, so
// redelivery of the same event (the channel is at-least-once) converges on
// the same end state. Any failure is returned to the caller so the event is
// not acknowledged and the channel redelivers.
type Applier struct {
	mail        MailSink
	docs        DocumentSink
	logger      *zap.Logger
	sinkTimeout time.Duration

	// Per-account locks: two events for the same account must never be
	// applied concurrently or the earlier one could win the race.
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewApplier(mail MailSink, docs DocumentSink, logger *zap.Logger, sinkTimeout time.Duration) *Applier {
	if sinkTimeout <= 0 {
		sinkTimeout = 30 * time.Second
	}
	return &Applier{
		mail:        mail,
		docs:        docs,
		logger:      logger,
		sinkTimeout: sinkTimeout,
		locks:       make(map[string]*sync.Mutex),
	}
}

// Apply performs the apply-and-archive sequence for one event. The account
// lock is held for the whole sequence.
func (a *Applier) Apply(ctx context.Context, event domain.UpdateEvent) error {
	if err := event.Validate(); err != nil {
		return err
	}

	lock := a.lockFor(event.Email)
	lock.Lock()
	defer lock.Unlock()

	a.logger.Info("applying signature update",
		zap.String("email", event.Email),
		zap.String("event_id", event.ID))

	setCtx, cancel := context.WithTimeout(ctx, a.sinkTimeout)
	defer cancel()
	if err := a.mail.SetSignature(setCtx, event.Email, event.Signature); err != nil {
		return fmt.Errorf("unable to set signature for %s: %w", event.Email, err)
	}

	// The signature is already set at this point, but a failed archival
	// still fails the whole apply: redelivery repeats both steps and the
	// signature set tolerates being repeated.
	putCtx, cancel := context.WithTimeout(ctx, a.sinkTimeout)
	defer cancel()
	if err := a.docs.Put(putCtx, event.Email, event.Signature); err != nil {
		return fmt.Errorf("unable to archive signature for %s: %w", event.Email, err)
	}

	return nil
}

func (a *Applier) lockFor(email string) *sync.Mutex {
	a.mu.Lock()
	defer a.mu.Unlock()
	lock, ok := a.locks[email]
	if !ok {
		lock = &sync.Mutex{}
		a.locks[email] = lock
	}
	return lock
}
