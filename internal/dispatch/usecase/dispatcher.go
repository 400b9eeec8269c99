package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"sigsync/internal/signature/domain"
	"sigsync/internal/signature/filter"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrSourceUnavailable means the roster or template set could not be
	// fetched at all; the run is aborted because there is nothing to dispatch.
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrRenderFailure means one account's signature could not be produced;
	// the account is skipped and the run continues.
	ErrRenderFailure = errors.New("render failure")

	// ErrPublishExhausted means publishing one account's event failed after
	// the configured number of attempts.
	ErrPublishExhausted = errors.New("publish attempts exhausted")
)

// DirectorySource returns the full account roster. No filtering happens at
// the source; eligibility is decided here.
type DirectorySource interface {
	ListAccounts(ctx context.Context) ([]domain.AccountRecord, error)
}

// TemplateSource returns the template snapshot for one run.
type TemplateSource interface {
	FetchTemplateSet(ctx context.Context) (domain.TemplateSet, error)
}

// Publisher puts one update event onto the channel, keyed by account email.
type Publisher interface {
	Publish(ctx context.Context, event domain.UpdateEvent) error
}

// SignatureRenderer produces the signature HTML for one account.
type SignatureRenderer interface {
	Render(tpl domain.Template, record domain.AccountRecord) string
}

// RunReport summarizes one dispatch run.
type RunReport struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time

	Total     int
	Eligible  int
	Published int

	RenderFailed  int
	PublishFailed int

	SkippedByReason map[string]int
}

// Dispatcher enumerates the directory, renders a signature per eligible
// account and emits one update event each. A failure for one account never
// aborts the run for the others.
type Dispatcher struct {
	directory DirectorySource
	templates TemplateSource
	publisher Publisher
	renderer  SignatureRenderer
	filter    *filter.Filter
	logger    *zap.Logger

	maxPublishAttempts int
	workers            int
}

func NewDispatcher(directory DirectorySource, templates TemplateSource, publisher Publisher, renderer SignatureRenderer, f *filter.Filter, logger *zap.Logger, maxPublishAttempts, workers int) *Dispatcher {
	if maxPublishAttempts < 1 {
		maxPublishAttempts = 1
	}
	if workers < 1 {
		workers = 1
	}
	return &Dispatcher{
		directory:          directory,
		templates:          templates,
		publisher:          publisher,
		renderer:           renderer,
		filter:             f,
		logger:             logger,
		maxPublishAttempts: maxPublishAttempts,
		workers:            workers,
	}
}

// Run performs one full dispatch pass. It returns a report of what happened
// and an error only when the run itself could not proceed.
func (d *Dispatcher) Run(ctx context.Context) (*RunReport, error) {
	report := &RunReport{
		RunID:           uuid.NewString(),
		StartedAt:       time.Now().UTC(),
		SkippedByReason: make(map[string]int),
	}

	accounts, err := d.directory.ListAccounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: unable to fetch roster: %v", ErrSourceUnavailable, err)
	}
	report.Total = len(accounts)
	d.logger.Info("fetched roster", zap.String("run_id", report.RunID), zap.Int("accounts", len(accounts)))

	templateSet, err := d.templates.FetchTemplateSet(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: unable to fetch templates: %v", ErrSourceUnavailable, err)
	}

	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(d.workers)

	for _, record := range accounts {
		decision := d.filter.Decide(record)
		if !decision.Eligible {
			d.logger.Debug("account excluded",
				zap.String("email", record.PrimaryEmail),
				zap.String("reason", decision.Reason))
			report.SkippedByReason[decision.Reason]++
			continue
		}
		report.Eligible++

		record := record
		g.Go(func() error {
			event, err := d.buildEvent(record, templateSet)
			if err != nil {
				d.logger.Error("skipping account", zap.String("email", record.PrimaryEmail), zap.Error(err))
				mu.Lock()
				report.RenderFailed++
				mu.Unlock()
				return nil
			}

			if err := d.publishWithRetry(ctx, event); err != nil {
				d.logger.Error("dropping update for this run", zap.String("email", record.PrimaryEmail), zap.Error(err))
				mu.Lock()
				report.PublishFailed++
				mu.Unlock()
				return nil
			}

			mu.Lock()
			report.Published++
			mu.Unlock()
			return nil
		})
	}

	// Per-account goroutines swallow their own errors, so Wait only gathers.
	_ = g.Wait()

	report.FinishedAt = time.Now().UTC()
	d.logger.Info("dispatch run finished",
		zap.String("run_id", report.RunID),
		zap.Int("total", report.Total),
		zap.Int("eligible", report.Eligible),
		zap.Int("published", report.Published),
		zap.Int("render_failed", report.RenderFailed),
		zap.Int("publish_failed", report.PublishFailed),
		zap.Any("skipped", report.SkippedByReason))
	return report, nil
}

func (d *Dispatcher) buildEvent(record domain.AccountRecord, set domain.TemplateSet) (domain.UpdateEvent, error) {
	tpl := set.Select(record)
	if strings.TrimSpace(tpl.Body) == "" {
		return domain.UpdateEvent{}, fmt.Errorf("%w: template %q has no content", ErrRenderFailure, tpl.Name)
	}

	event := domain.UpdateEvent{
		ID:          uuid.NewString(),
		Email:       record.PrimaryEmail,
		Signature:   d.renderer.Render(tpl, record),
		GeneratedAt: time.Now().UTC(),
	}
	if err := event.Validate(); err != nil {
		return domain.UpdateEvent{}, fmt.Errorf("%w: %v", ErrRenderFailure, err)
	}
	return event, nil
}

func (d *Dispatcher) publishWithRetry(ctx context.Context, event domain.UpdateEvent) error {
	var lastErr error
	for attempt := 1; attempt <= d.maxPublishAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		lastErr = d.publisher.Publish(ctx, event)
		if lastErr == nil {
			return nil
		}
		d.logger.Warn("publish attempt failed",
			zap.String("email", event.Email),
			zap.Int("attempt", attempt),
			zap.Error(lastErr))
	}
	return fmt.Errorf("%w after %d attempts: %v", ErrPublishExhausted, d.maxPublishAttempts, lastErr)
}
