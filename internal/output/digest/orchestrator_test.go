package digest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lueurxax/job-digest-notifier/internal/core/domain"
	"github.com/lueurxax/job-digest-notifier/internal/core/ports"
	"github.com/lueurxax/job-digest-notifier/internal/core/ports/mocks"
	"github.com/lueurxax/job-digest-notifier/internal/output/delivery"
	"github.com/lueurxax/job-digest-notifier/internal/output/render"
	"github.com/lueurxax/job-digest-notifier/internal/output/telegram"
	"github.com/lueurxax/job-digest-notifier/internal/platform/config"
)

var errTest = errors.New("boom")

var baseTime = time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)

// fakeChannel delivers to every contact it addresses and reports success
// according to ok.
type fakeChannel struct {
	name      domain.Channel
	addresses func(domain.Contact) bool
	ok        func(domain.Contact) bool
	err       error
	block     chan struct{}

	calls atomic.Int32
	mu    sync.Mutex
	reqs  []delivery.Request
}

func (f *fakeChannel) Name() domain.Channel { return f.name }

func (f *fakeChannel) Addresses(c domain.Contact) bool {
	if f.addresses == nil {
		return true
	}

	return f.addresses(c)
}

func (f *fakeChannel) SendDigests(ctx context.Context, req delivery.Request) (domain.ChannelSummary, error) {
	f.calls.Add(1)

	f.mu.Lock()
	f.reqs = append(f.reqs, req)
	f.mu.Unlock()

	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
		}
	}

	s := domain.NewChannelSummary(f.name)
	if f.err != nil {
		return s, f.err
	}

	for _, c := range req.Contacts {
		if !f.Addresses(c) {
			s.Skipped++

			continue
		}

		jobs := req.JobsFor(c)
		outcome := domain.DeliveryOutcome{
			Channel:   f.name,
			ContactID: c.ID,
			BatchID:   req.BatchID,
			JobIDs:    domain.JobKeys(jobs),
		}

		if len(jobs) > 0 {
			outcome.Attempts = 1
			outcome.OK = f.ok == nil || f.ok(c)
		}

		s.Record(outcome)
	}

	return s, nil
}

func (f *fakeChannel) lastRequest(t *testing.T) delivery.Request {
	t.Helper()

	f.mu.Lock()
	defer f.mu.Unlock()

	require.NotEmpty(t, f.reqs)

	return f.reqs[len(f.reqs)-1]
}

func always(v bool) func(domain.Contact) bool {
	return func(domain.Contact) bool { return v }
}

func hasTelegram(c domain.Contact) bool { return c.HasTelegram() }

func testJob(src domain.Source, id int64, age time.Duration, experience string) domain.Job {
	return domain.Job{
		Source:     src,
		ID:         id,
		Title:      "Role",
		Experience: experience,
		CreatedAt:  baseTime.Add(-age),
	}
}

func testConfig() *config.Config {
	return &config.Config{
		Marketing: config.MarketingConfig{
			Enabled:    true,
			JobLimit:   100,
			DigestSize: 10,
		},
		Alert: config.AlertConfig{
			FailureWindow:        24 * time.Hour,
			FailureRateThreshold: 0.25,
			MinSample:            1,
		},
	}
}

type fixture struct {
	cfg      *config.Config
	jobs     *mocks.JobRepository
	contacts *mocks.ContactRepository
	log      *mocks.DigestLog
	channels []Channel
}

func (f *fixture) orchestrator() *Orchestrator {
	logger := zerolog.Nop()
	o := New(f.cfg, f.jobs, f.contacts, f.log, f.channels, &logger)
	o.now = func() time.Time { return baseTime }

	return o
}

func newFixture(jobs []domain.Job, contacts []domain.Contact, channels ...Channel) *fixture {
	return &fixture{
		cfg:      testConfig(),
		jobs:     mocks.NewJobRepository(jobs...),
		contacts: mocks.NewContactRepository(contacts...),
		log:      mocks.NewDigestLog(),
		channels: channels,
	}
}

func TestRun_TelegramSuccessMarksJobsWhenEmailFails(t *testing.T) {
	job := testJob(domain.SourcePrimary, 1, time.Hour, "")
	contactA := domain.Contact{ID: 1, Email: "a@example.com", TelegramChatID: "100"}

	email := &fakeChannel{name: domain.ChannelEmail, ok: always(false)}
	telegram := &fakeChannel{name: domain.ChannelTelegram, addresses: hasTelegram}

	f := newFixture([]domain.Job{job}, []domain.Contact{contactA}, email, telegram)

	summary := f.orchestrator().Run(context.Background(), RunOptions{Source: SourceManual})

	assert.True(t, summary.OK)
	assert.Equal(t, 1, summary.ContactsSucceeded)
	assert.Equal(t, 0, summary.ContactsFailed)
	assert.Equal(t, domain.JobIDsBySource{domain.SourcePrimary: {1}}, summary.JobsMarkedNotified)
	assert.Equal(t, []domain.JobKey{job.Key()}, f.jobs.NotifiedKeys())
	assert.Equal(t, 1, summary.Channels[domain.ChannelEmail].Failed)
	assert.Equal(t, 1, summary.Channels[domain.ChannelTelegram].Succeeded)
}

func TestRun_TruncatedTelegramDigestMarksOnlyShownJobs(t *testing.T) {
	jobs := make([]domain.Job, 60)
	for i := range jobs {
		jobs[i] = testJob(domain.SourcePrimary, int64(i+1), time.Duration(len(jobs)-i)*time.Hour, "")
		jobs[i].Title = strings.Repeat("Senior Backend Engineer ", 3)
		jobs[i].CompanyName = "Acme"
		jobs[i].ApplyURL = "https://jobs.example.com/jobs/" + strings.Repeat("x", 40)
	}

	contact := domain.Contact{ID: 1, FullName: "Ada", Email: "ada@example.com", TelegramChatID: "100"}

	logger := zerolog.Nop()
	sender := mocks.NewMessageSender()
	tg := telegram.New(config.TelegramConfig{Enabled: true, BotToken: "123:abc", BatchSize: 10, Concurrency: 1},
		render.NewBuilder("https://jobs.example.com", "Job Board"), sender, mocks.NewDigestLog(), &logger)
	email := &fakeChannel{name: domain.ChannelEmail, ok: always(false)}

	f := newFixture(jobs, []domain.Contact{contact}, email, tg)
	f.cfg.Marketing.DigestSize = len(jobs)

	summary := f.orchestrator().Run(context.Background(), RunOptions{})

	require.True(t, summary.OK)
	assert.Equal(t, len(jobs), summary.JobsIncluded)

	sent := sender.Sent()
	require.Len(t, sent, 1)

	shown := summary.Channels[domain.ChannelTelegram].Successes[0].JobIDs
	require.NotEmpty(t, shown)
	require.Less(t, len(shown), len(jobs))
	assert.NotContains(t, sent[0].Text, fmt.Sprintf("\n%d. ", len(shown)+1))

	assert.ElementsMatch(t, shown, f.jobs.NotifiedKeys())
	assert.Equal(t, len(shown), summary.JobsMarkedNotified.Total())

	inMessage := make(map[domain.JobKey]bool, len(shown))
	for _, k := range shown {
		inMessage[k] = true
	}

	pending := 0

	for _, j := range jobs {
		stored, ok := f.jobs.Job(j.Key())
		require.True(t, ok)
		assert.Equal(t, inMessage[j.Key()], stored.NotifySent, "job %d", j.ID)

		if !stored.NotifySent {
			pending++
		}
	}

	assert.Equal(t, len(jobs)-len(shown), pending)
}

func TestRun_AllChannelsFailLeavesJobsPending(t *testing.T) {
	job := testJob(domain.SourceSecondary, 7, time.Hour, "")
	contactA := domain.Contact{ID: 1, Email: "a@example.com", TelegramChatID: "100"}

	email := &fakeChannel{name: domain.ChannelEmail, ok: always(false)}
	telegram := &fakeChannel{name: domain.ChannelTelegram, addresses: hasTelegram, ok: always(false)}

	f := newFixture([]domain.Job{job}, []domain.Contact{contactA}, email, telegram)

	summary := f.orchestrator().Run(context.Background(), RunOptions{})

	assert.False(t, summary.OK)
	assert.Equal(t, 1, summary.ContactsFailed)
	assert.Equal(t, 0, f.jobs.MarkCalls)
	assert.Empty(t, f.jobs.NotifiedKeys())
	assert.Empty(t, summary.JobsMarkedNotified)
}

func TestRun_MarksOnlyJobsOfSuccessfulSends(t *testing.T) {
	junior := testJob(domain.SourcePrimary, 1, 2*time.Hour, "0-1 years")
	senior := testJob(domain.SourcePrimary, 2, time.Hour, "6+ years")

	juniorContact := domain.Contact{ID: 1, Email: "junior@example.com", Experience: "1"}
	seniorContact := domain.Contact{ID: 2, Email: "senior@example.com", Experience: "8"}

	email := &fakeChannel{name: domain.ChannelEmail, ok: func(c domain.Contact) bool { return c.ID == 1 }}

	f := newFixture([]domain.Job{junior, senior}, []domain.Contact{juniorContact, seniorContact}, email)

	summary := f.orchestrator().Run(context.Background(), RunOptions{})

	assert.False(t, summary.OK)
	assert.Equal(t, 1, summary.ContactsSucceeded)
	assert.Equal(t, 1, summary.ContactsFailed)
	assert.Equal(t, []domain.JobKey{junior.Key()}, f.jobs.NotifiedKeys())
}

func TestRun_DigestCapIncludesOldestJobs(t *testing.T) {
	jobs := []domain.Job{
		testJob(domain.SourcePrimary, 1, time.Hour, ""),
		testJob(domain.SourceSecondary, 2, 3*time.Hour, ""),
		testJob(domain.SourcePrimary, 3, 2*time.Hour, ""),
	}

	email := &fakeChannel{name: domain.ChannelEmail}
	f := newFixture(jobs, []domain.Contact{{ID: 1, Email: "a@example.com"}}, email)
	f.cfg.Marketing.DigestSize = 1

	summary := f.orchestrator().Run(context.Background(), RunOptions{})

	require.True(t, summary.OK)
	assert.Equal(t, 3, summary.JobsQueried)
	assert.Equal(t, 1, summary.JobsIncluded)
	assert.Equal(t, []domain.JobKey{{Source: domain.SourceSecondary, ID: 2}}, f.jobs.NotifiedKeys())

	for _, id := range []int64{1, 3} {
		j, ok := f.jobs.Job(domain.JobKey{Source: domain.SourcePrimary, ID: id})
		require.True(t, ok)
		assert.False(t, j.NotifySent, "job %d should stay pending", id)
	}
}

func TestRun_SegmentsJobsByExperience(t *testing.T) {
	mid := testJob(domain.SourcePrimary, 1, 3*time.Hour, "3-5 years")
	entry := testJob(domain.SourcePrimary, 2, 2*time.Hour, "0-1 years")
	senior := testJob(domain.SourcePrimary, 3, time.Hour, "6+ years")

	experienced := domain.Contact{ID: 1, Email: "three@example.com", Experience: "3"}
	unknown := domain.Contact{ID: 2, Email: "unknown@example.com"}

	email := &fakeChannel{name: domain.ChannelEmail}
	f := newFixture([]domain.Job{mid, entry, senior}, []domain.Contact{experienced, unknown}, email)

	f.orchestrator().Run(context.Background(), RunOptions{})

	req := email.lastRequest(t)
	assert.Equal(t, []domain.JobKey{mid.Key()}, domain.JobKeys(req.JobsFor(experienced)))
	assert.Equal(t, []domain.JobKey{mid.Key(), entry.Key(), senior.Key()}, domain.JobKeys(req.JobsFor(unknown)))
}

func TestRun_ContactWithoutMatchingJobsContributesNothing(t *testing.T) {
	senior := testJob(domain.SourcePrimary, 1, time.Hour, "6+ years")
	junior := domain.Contact{ID: 1, Email: "junior@example.com", Experience: "1 year"}

	email := &fakeChannel{name: domain.ChannelEmail}
	f := newFixture([]domain.Job{senior}, []domain.Contact{junior}, email)

	summary := f.orchestrator().Run(context.Background(), RunOptions{})

	assert.False(t, summary.OK)
	assert.Equal(t, 1, summary.ContactsFailed)
	assert.Empty(t, f.jobs.NotifiedKeys())

	req := email.lastRequest(t)
	assert.Contains(t, req.Contacts, junior)
}

func TestRun_ZeroContactsIsFailure(t *testing.T) {
	email := &fakeChannel{name: domain.ChannelEmail}
	f := newFixture([]domain.Job{testJob(domain.SourcePrimary, 1, time.Hour, "")}, nil, email)

	summary := f.orchestrator().Run(context.Background(), RunOptions{})

	assert.False(t, summary.OK)
	assert.False(t, summary.Skipped)
	assert.True(t, summary.HasErrorStage(domain.StageContacts))
	assert.Zero(t, email.calls.Load())
}

func TestRun_ZeroJobsSkips(t *testing.T) {
	email := &fakeChannel{name: domain.ChannelEmail}
	f := newFixture(nil, []domain.Contact{{ID: 1, Email: "a@example.com"}}, email)

	summary := f.orchestrator().Run(context.Background(), RunOptions{})

	assert.True(t, summary.OK)
	assert.True(t, summary.Skipped)
	assert.Equal(t, ReasonNoPendingJobs, summary.Reason)
	assert.Zero(t, f.contacts.Calls)
	assert.Zero(t, email.calls.Load())
}

func TestRun_ForceWithZeroJobsStillDelivers(t *testing.T) {
	email := &fakeChannel{name: domain.ChannelEmail}
	f := newFixture(nil, []domain.Contact{{ID: 1, Email: "a@example.com"}}, email)

	summary := f.orchestrator().Run(context.Background(), RunOptions{Force: true})

	assert.False(t, summary.Skipped)
	assert.Equal(t, 1, f.contacts.Calls)
	assert.EqualValues(t, 1, email.calls.Load())
	assert.Equal(t, 1, summary.ContactsFailed)
	assert.Zero(t, f.jobs.MarkCalls)
}

func TestRun_Disabled(t *testing.T) {
	f := newFixture([]domain.Job{testJob(domain.SourcePrimary, 1, time.Hour, "")}, nil)
	f.cfg.Marketing.Enabled = false

	summary := f.orchestrator().Run(context.Background(), RunOptions{})

	assert.False(t, summary.OK)
	assert.True(t, summary.Skipped)
	assert.Equal(t, ReasonDisabled, summary.Reason)
	assert.Zero(t, f.jobs.FetchCalls)
}

func TestRun_RejectsOverlappingRunsUnlessForced(t *testing.T) {
	block := make(chan struct{})
	email := &fakeChannel{name: domain.ChannelEmail, block: block}
	f := newFixture([]domain.Job{testJob(domain.SourcePrimary, 1, time.Hour, "")},
		[]domain.Contact{{ID: 1, Email: "a@example.com"}}, email)
	o := f.orchestrator()

	done := make(chan domain.RunSummary)

	go func() { done <- o.Run(context.Background(), RunOptions{}) }()

	require.Eventually(t, func() bool { return email.calls.Load() == 1 }, time.Second, time.Millisecond)
	assert.True(t, o.Running())

	second := o.Run(context.Background(), RunOptions{})
	assert.False(t, second.OK)
	assert.True(t, second.Skipped)
	assert.Equal(t, ReasonAlreadyRunning, second.Reason)

	go func() { done <- o.Run(context.Background(), RunOptions{Force: true}) }()

	require.Eventually(t, func() bool { return email.calls.Load() == 2 }, time.Second, time.Millisecond)

	close(block)

	first, forced := <-done, <-done
	assert.True(t, first.OK)
	assert.True(t, forced.OK)
	assert.False(t, o.Running())
}

func TestRun_FetchErrorIsRecorded(t *testing.T) {
	f := newFixture(nil, nil)
	f.jobs.FetchPendingJobsFn = func(context.Context, ports.PendingJobsQuery) ([]domain.Job, error) {
		return nil, errTest
	}

	o := f.orchestrator()
	summary := o.Run(context.Background(), RunOptions{})

	assert.False(t, summary.OK)
	assert.True(t, summary.HasErrorStage(domain.StageJobs))
	assert.False(t, summary.FinishedAt.IsZero())
	assert.False(t, o.Running())
}

func TestRun_PassesLimitAndCutoff(t *testing.T) {
	var got ports.PendingJobsQuery

	f := newFixture(nil, nil)
	f.cfg.Marketing.Lookback = 48 * time.Hour
	f.jobs.FetchPendingJobsFn = func(_ context.Context, q ports.PendingJobsQuery) ([]domain.Job, error) {
		got = q
		return nil, nil
	}

	o := f.orchestrator()

	o.Run(context.Background(), RunOptions{})
	assert.Equal(t, 100, got.Limit)
	require.NotNil(t, got.CreatedAfter)
	assert.Equal(t, baseTime.Add(-48*time.Hour), *got.CreatedAfter)

	o.Run(context.Background(), RunOptions{Limit: 5})
	assert.Equal(t, 5, got.Limit)
}

func TestRun_PanicIsRecoveredIntoSummary(t *testing.T) {
	f := newFixture([]domain.Job{testJob(domain.SourcePrimary, 1, time.Hour, "")}, nil)
	f.contacts.FetchContactsFn = func(context.Context, int) ([]domain.Contact, error) {
		panic("driver exploded")
	}

	o := f.orchestrator()
	summary := o.Run(context.Background(), RunOptions{})

	assert.False(t, summary.OK)
	assert.True(t, summary.HasErrorStage(domain.StageOrchestrator))
	assert.False(t, o.Running())

	h := o.Health(context.Background())
	require.NotNil(t, h.LastRunOK)
	assert.False(t, *h.LastRunOK)
}

func TestRun_ChannelErrorFailsAddressedContacts(t *testing.T) {
	job := testJob(domain.SourcePrimary, 1, time.Hour, "")
	linked := domain.Contact{ID: 1, Email: "a@example.com", TelegramChatID: "100"}
	unlinked := domain.Contact{ID: 2, Email: "b@example.com"}

	email := &fakeChannel{name: domain.ChannelEmail, ok: func(c domain.Contact) bool { return c.ID == 2 }}
	telegram := &fakeChannel{name: domain.ChannelTelegram, addresses: hasTelegram, err: errTest}

	f := newFixture([]domain.Job{job}, []domain.Contact{linked, unlinked}, email, telegram)

	summary := f.orchestrator().Run(context.Background(), RunOptions{})

	assert.True(t, summary.HasErrorStage(string(domain.ChannelTelegram)))

	tg := summary.Channels[domain.ChannelTelegram]
	assert.Equal(t, 1, tg.Attempted)
	assert.Equal(t, 1, tg.Failed)
	assert.Equal(t, 1, tg.Skipped)
	assert.Zero(t, tg.Failures[0].Attempts)

	assert.Equal(t, 1, summary.ContactsSucceeded)
	assert.Equal(t, 1, summary.ContactsFailed)
	assert.False(t, summary.OK)
	assert.Equal(t, []domain.JobKey{job.Key()}, f.jobs.NotifiedKeys())
}

func TestRun_ContactsWithoutChannelAreUnreachable(t *testing.T) {
	telegram := &fakeChannel{name: domain.ChannelTelegram, addresses: hasTelegram}
	f := newFixture([]domain.Job{testJob(domain.SourcePrimary, 1, time.Hour, "")},
		[]domain.Contact{{ID: 1, Email: "a@example.com"}, {ID: 2, Email: "b@example.com", TelegramChatID: "5"}}, telegram)

	summary := f.orchestrator().Run(context.Background(), RunOptions{})

	assert.True(t, summary.OK)
	assert.Equal(t, 1, summary.ContactsUnreachable)
	assert.Equal(t, 1, summary.ContactsSucceeded)
	assert.Zero(t, summary.Channels[domain.ChannelTelegram].Failed)
}

func TestRun_MarkErrorFailsRun(t *testing.T) {
	f := newFixture([]domain.Job{testJob(domain.SourcePrimary, 1, time.Hour, "")},
		[]domain.Contact{{ID: 1, Email: "a@example.com"}}, &fakeChannel{name: domain.ChannelEmail})
	f.jobs.MarkJobsNotifiedFn = func(context.Context, domain.JobIDsBySource) (map[domain.Source]int, error) {
		return nil, errTest
	}

	summary := f.orchestrator().Run(context.Background(), RunOptions{})

	assert.False(t, summary.OK)
	assert.True(t, summary.HasErrorStage(domain.StageMarkNotified))
	assert.Equal(t, 1, summary.ContactsSucceeded)
}

func TestRun_RepeatedRunsDoNotResendNotifiedJobs(t *testing.T) {
	email := &fakeChannel{name: domain.ChannelEmail}
	f := newFixture([]domain.Job{testJob(domain.SourcePrimary, 1, time.Hour, "")},
		[]domain.Contact{{ID: 1, Email: "a@example.com"}}, email)
	o := f.orchestrator()

	first := o.Run(context.Background(), RunOptions{})
	second := o.Run(context.Background(), RunOptions{})

	assert.True(t, first.OK)
	assert.True(t, second.Skipped)
	assert.EqualValues(t, 1, email.calls.Load())
}

func TestRun_AlertsDoNotAffectOK(t *testing.T) {
	sender := mocks.NewMessageSender()

	f := newFixture([]domain.Job{
		testJob(domain.SourcePrimary, 1, 2*time.Hour, ""),
		testJob(domain.SourcePrimary, 2, time.Hour, ""),
	}, []domain.Contact{{ID: 1, Email: "a@example.com"}}, &fakeChannel{name: domain.ChannelEmail})
	f.cfg.Marketing.DigestSize = 1
	f.cfg.Alert.BacklogThreshold = 1
	f.cfg.Alert.ChatID = "admin"
	f.log.FailureRateFn = func(context.Context, time.Duration) (domain.FailureRate, error) {
		return domain.NewFailureRate(10, 5), nil
	}

	o := f.orchestrator()
	o.SetAlertSender(sender)

	summary := o.Run(context.Background(), RunOptions{})

	assert.True(t, summary.OK)

	sent := sender.Sent()
	require.Len(t, sent, 2)
	assert.Equal(t, "admin", sent[0].ChatID)
	assert.Contains(t, sent[0].Text, "Backlog")
	assert.Contains(t, sent[1].Text, "failure rate")
}

func TestRun_AlertErrorsAreRecorded(t *testing.T) {
	f := newFixture([]domain.Job{testJob(domain.SourcePrimary, 1, time.Hour, "")},
		[]domain.Contact{{ID: 1, Email: "a@example.com"}}, &fakeChannel{name: domain.ChannelEmail})
	f.log.FailureRateFn = func(context.Context, time.Duration) (domain.FailureRate, error) {
		return domain.FailureRate{}, errTest
	}

	summary := f.orchestrator().Run(context.Background(), RunOptions{})

	assert.True(t, summary.OK)
	assert.True(t, summary.HasErrorStage(domain.StageAlerts))
}

func TestHealth(t *testing.T) {
	email := &fakeChannel{name: domain.ChannelEmail, ok: always(false)}
	f := newFixture([]domain.Job{testJob(domain.SourcePrimary, 1, time.Hour, "")},
		[]domain.Contact{{ID: 1, Email: "a@example.com"}}, email)
	o := f.orchestrator()

	h := o.Health(context.Background())
	assert.Nil(t, h.LastRunAt)
	assert.Zero(t, h.Runs24h)

	failed := o.Run(context.Background(), RunOptions{})
	require.False(t, failed.OK)

	h = o.Health(context.Background())
	require.NotNil(t, h.LastRunAt)
	assert.Equal(t, baseTime, *h.LastRunAt)
	assert.Equal(t, failed.BatchID, h.LastBatchID)
	assert.Equal(t, 1, h.Runs24h)
	assert.Equal(t, 1, h.Failures24h)
	require.NotNil(t, h.PendingJobsCount)
	assert.Equal(t, 1, *h.PendingJobsCount)
	require.NotNil(t, h.FailureRate24h)
	assert.False(t, h.Running)
}

func TestHealth_CollaboratorErrorsLeaveFieldsNull(t *testing.T) {
	f := newFixture(nil, nil)
	f.log.FailureRateFn = func(context.Context, time.Duration) (domain.FailureRate, error) {
		return domain.FailureRate{}, errTest
	}

	h := f.orchestrator().Health(context.Background())

	assert.Nil(t, h.FailureRate24h)
	require.NotNil(t, h.PendingJobsCount)
	assert.Zero(t, *h.PendingJobsCount)
	assert.Len(t, h.Errors, 1)
}

func TestNewBatchID(t *testing.T) {
	id := newBatchID(baseTime)

	assert.Regexp(t, `^mkt-\d+-[0-9a-f]{8}$`, id)
	assert.NotEqual(t, id, newBatchID(baseTime))
}

func TestPruneHistory(t *testing.T) {
	history := []domain.RunSummary{
		{BatchID: "old", FinishedAt: baseTime.Add(-25 * time.Hour)},
		{BatchID: "new", FinishedAt: baseTime.Add(-time.Hour)},
	}

	kept := pruneHistory(history, baseTime)

	require.Len(t, kept, 1)
	assert.Equal(t, "new", kept[0].BatchID)
}
