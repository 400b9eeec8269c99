package usecase

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"

	"sigsync/internal/signature/domain"
	"sigsync/internal/signature/filter"
	"sigsync/internal/signature/render"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockDirectory struct {
	accounts []domain.AccountRecord
	err      error
}

func (m *mockDirectory) ListAccounts(ctx context.Context) ([]domain.AccountRecord, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.accounts, nil
}

type mockTemplates struct {
	set domain.TemplateSet
	err error
}

func (m *mockTemplates) FetchTemplateSet(ctx context.Context) (domain.TemplateSet, error) {
	if m.err != nil {
		return domain.TemplateSet{}, m.err
	}
	return m.set, nil
}

// mockPublisher records published events and can fail per email, either
// permanently or for a limited number of attempts.
type mockPublisher struct {
	mu        sync.Mutex
	published []domain.UpdateEvent
	failEmail string
	failTimes int // negative means always fail
	attempts  map[string]int
}

func (m *mockPublisher) Publish(ctx context.Context, event domain.UpdateEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.attempts == nil {
		m.attempts = make(map[string]int)
	}
	m.attempts[event.Email]++
	if event.Email == m.failEmail {
		if m.failTimes < 0 || m.attempts[event.Email] <= m.failTimes {
			return errors.New("transport error")
		}
	}
	m.published = append(m.published, event)
	return nil
}

func (m *mockPublisher) emails() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.published))
	for _, e := range m.published {
		out = append(out, e.Email)
	}
	sort.Strings(out)
	return out
}

func singleTemplateSet(body string) domain.TemplateSet {
	return domain.TemplateSet{Default: domain.Template{Name: "default", Body: body}}
}

func newTestDispatcher(dir *mockDirectory, tpl *mockTemplates, pub *mockPublisher, maxAttempts, workers int) *Dispatcher {
	return NewDispatcher(
		dir, tpl, pub,
		render.New("Kaiser X Labs", "http://www.kaiser-x.com/"),
		filter.New([]string{"/Deactivated"}, nil),
		zap.NewNop(),
		maxAttempts, workers,
	)
}

func TestDispatcher_RosterFetchFailureIsFatal(t *testing.T) {
	d := newTestDispatcher(
		&mockDirectory{err: errors.New("directory down")},
		&mockTemplates{set: singleTemplateSet("x")},
		&mockPublisher{}, 1, 1)

	report, err := d.Run(context.Background())
	assert.Nil(t, report)
	assert.ErrorIs(t, err, ErrSourceUnavailable)
}

func TestDispatcher_TemplateFetchFailureIsFatal(t *testing.T) {
	d := newTestDispatcher(
		&mockDirectory{accounts: []domain.AccountRecord{{PrimaryEmail: "a@x"}}},
		&mockTemplates{err: errors.New("drive down")},
		&mockPublisher{}, 1, 1)

	report, err := d.Run(context.Background())
	assert.Nil(t, report)
	assert.ErrorIs(t, err, ErrSourceUnavailable)
}

func TestDispatcher_SuspendedAccountExcluded(t *testing.T) {
	// Roster of an active and a suspended account: exactly one event comes
	// out, carrying the rendered signature for the active one.
	pub := &mockPublisher{}
	d := newTestDispatcher(
		&mockDirectory{accounts: []domain.AccountRecord{
			{PrimaryEmail: "a@x", GivenName: "Alice"},
			{PrimaryEmail: "b@x", Suspended: true},
		}},
		&mockTemplates{set: singleTemplateSet("Hi {{name}}")},
		pub, 1, 1)

	report, err := d.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, pub.published, 1)
	assert.Equal(t, "a@x", pub.published[0].Email)
	assert.Equal(t, "Hi Alice", pub.published[0].Signature)
	assert.NotEmpty(t, pub.published[0].ID)
	assert.False(t, pub.published[0].GeneratedAt.IsZero())

	assert.Equal(t, 2, report.Total)
	assert.Equal(t, 1, report.Eligible)
	assert.Equal(t, 1, report.Published)
	assert.Equal(t, 1, report.SkippedByReason[filter.ReasonInactive])
}

func TestDispatcher_PublishFailureIsolatedToOneAccount(t *testing.T) {
	pub := &mockPublisher{failEmail: "b@x", failTimes: -1}
	d := newTestDispatcher(
		&mockDirectory{accounts: []domain.AccountRecord{
			{PrimaryEmail: "a@x", GivenName: "A"},
			{PrimaryEmail: "b@x", GivenName: "B"},
			{PrimaryEmail: "c@x", GivenName: "C"},
		}},
		&mockTemplates{set: singleTemplateSet("Hi {{firstName}}")},
		pub, 2, 2)

	report, err := d.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"a@x", "c@x"}, pub.emails())
	assert.Equal(t, 2, report.Published)
	assert.Equal(t, 1, report.PublishFailed)
	assert.Equal(t, 2, pub.attempts["b@x"], "publish retried up to the attempt bound")
}

func TestDispatcher_RenderFailureIsolatedToOneAccount(t *testing.T) {
	// Account 2 resolves to a template with no content; accounts 1 and 3
	// still produce events.
	set := domain.TemplateSet{
		Default:   domain.Template{Name: "default", Body: "Hi {{firstName}}"},
		Templates: map[string]domain.Template{"broken": {Name: "broken", Body: "   "}},
		Rules:     []domain.TemplateRule{{OrgUnitPrefix: "/Broken", TemplateName: "broken"}},
	}
	pub := &mockPublisher{}
	d := newTestDispatcher(
		&mockDirectory{accounts: []domain.AccountRecord{
			{PrimaryEmail: "a@x", GivenName: "A"},
			{PrimaryEmail: "b@x", GivenName: "B", OrgUnitPath: "/Broken"},
			{PrimaryEmail: "c@x", GivenName: "C"},
		}},
		&mockTemplates{set: set},
		pub, 1, 1)

	report, err := d.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"a@x", "c@x"}, pub.emails())
	assert.Equal(t, 1, report.RenderFailed)
	assert.Equal(t, 2, report.Published)
}

func TestDispatcher_PublishRetrySucceedsWithinBound(t *testing.T) {
	pub := &mockPublisher{failEmail: "a@x", failTimes: 1}
	d := newTestDispatcher(
		&mockDirectory{accounts: []domain.AccountRecord{{PrimaryEmail: "a@x", GivenName: "A"}}},
		&mockTemplates{set: singleTemplateSet("Hi {{firstName}}")},
		pub, 3, 1)

	report, err := d.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, report.Published)
	assert.Equal(t, 0, report.PublishFailed)
	assert.Equal(t, 2, pub.attempts["a@x"])
}

func TestDispatcher_EmptyRoster(t *testing.T) {
	pub := &mockPublisher{}
	d := newTestDispatcher(
		&mockDirectory{},
		&mockTemplates{set: singleTemplateSet("x")},
		pub, 1, 1)

	report, err := d.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, report.Total)
	assert.Empty(t, pub.published)
}
