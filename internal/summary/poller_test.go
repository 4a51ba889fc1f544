package summary

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openprocure/tenderflow/internal/model"
	"github.com/openprocure/tenderflow/internal/service"
)

// fakeAPI serves a scripted status sequence per task id and records
// generation requests.
type fakeAPI struct {
	mu           sync.Mutex
	docs         []model.ProcurementDocument
	docsErr      error
	requests     []service.SummaryRequest
	requestErr   error
	nextTaskID   string
	statuses     map[string][]model.SummaryTask
	statusCalls  map[string]int
	statusCalled chan struct{}
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		nextTaskID:   "task-1",
		statuses:     make(map[string][]model.SummaryTask),
		statusCalls:  make(map[string]int),
		statusCalled: make(chan struct{}, 32),
	}
}

func (f *fakeAPI) GetDocuments(_ context.Context, _ string) ([]model.ProcurementDocument, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.docs, f.docsErr
}

func (f *fakeAPI) RequestSummary(_ context.Context, req service.SummaryRequest) (*model.SummaryTask, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if f.requestErr != nil {
		return nil, f.requestErr
	}
	return &model.SummaryTask{ID: f.nextTaskID, Status: model.TaskPending}, nil
}

func (f *fakeAPI) GetTaskStatus(_ context.Context, taskID string) (*model.SummaryTask, error) {
	f.mu.Lock()
	seq := f.statuses[taskID]
	n := f.statusCalls[taskID]
	f.statusCalls[taskID] = n + 1
	if n >= len(seq) {
		n = len(seq) - 1
	}
	var task model.SummaryTask
	if n >= 0 {
		task = seq[n]
	}
	f.mu.Unlock()

	f.statusCalled <- struct{}{}
	if task.ID == "" {
		return nil, errors.New("unknown task")
	}
	return &task, nil
}

func (f *fakeAPI) calls(taskID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.statusCalls[taskID]
}

func (f *fakeAPI) ListTenders(_ context.Context, _ model.QueryParams) (*model.TenderPage, error) {
	return nil, errors.New("not implemented")
}
func (f *fakeAPI) GetTender(_ context.Context, _ string) (*model.TenderDetail, error) {
	return nil, errors.New("not implemented")
}
func (f *fakeAPI) GetAIDocument(_ context.Context, _ string) (string, error) {
	return "", errors.New("not implemented")
}
func (f *fakeAPI) SaveTender(_ context.Context, _, _ string) error { return nil }
func (f *fakeAPI) UnsaveTender(_ context.Context, _ string) error  { return nil }

var _ service.TenderAPI = (*fakeAPI)(nil)

// fakeNotifier records notifications.
type fakeNotifier struct {
	mu        sync.Mutex
	successes []string
	errors    []string
}

func (f *fakeNotifier) Success(msg string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.successes = append(f.successes, msg)
}

func (f *fakeNotifier) Error(msg string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errors = append(f.errors, msg)
}

func (f *fakeNotifier) counts() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.successes), len(f.errors)
}

// steppedClock hands out a shared tick channel and signals every time
// the poller arms the interval, so tests control each poll cycle.
type steppedClock struct {
	ticks chan time.Time
	armed chan struct{}
}

func newSteppedClock() *steppedClock {
	return &steppedClock{
		ticks: make(chan time.Time),
		armed: make(chan struct{}, 32),
	}
}

func (c *steppedClock) Now() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }

func (c *steppedClock) After(_ time.Duration) <-chan time.Time {
	c.armed <- struct{}{}
	return c.ticks
}

func pending(id string, progress float64) model.SummaryTask {
	return model.SummaryTask{ID: id, Status: model.TaskPending, Progress: progress}
}

func terminal(id string, status model.TaskStatus, errMsg string) model.SummaryTask {
	return model.SummaryTask{ID: id, Status: status, Error: errMsg}
}

func newPoller(t *testing.T, api *fakeAPI, notifier *fakeNotifier, clock *steppedClock, onComplete func(string)) *Poller {
	t.Helper()
	p, err := New(Deps{API: api, Notifier: notifier, Clock: clock, OnComplete: onComplete})
	require.NoError(t, err)
	return p
}

func waitState(t *testing.T, p *Poller, want State) {
	t.Helper()
	require.Eventually(t, func() bool { return p.State() == want }, time.Second, time.Millisecond,
		"expected state %s, got %s", want, p.State())
}

func TestPollerCompletesAfterThreePolls(t *testing.T) {
	api := newFakeAPI()
	api.statuses["task-1"] = []model.SummaryTask{
		pending("task-1", 0.1),
		pending("task-1", 0.6),
		terminal("task-1", model.TaskCompleted, ""),
	}
	notifier := &fakeNotifier{}
	clock := newSteppedClock()

	var completions []string
	p := newPoller(t, api, notifier, clock, func(taskID string) { completions = append(completions, taskID) })

	require.NoError(t, p.Request(context.Background(), "h1", nil, false))
	assert.Equal(t, StatePolling, p.State())

	// Immediate first check, then one check per tick.
	<-api.statusCalled
	<-clock.armed
	clock.ticks <- clock.Now()
	<-api.statusCalled
	<-clock.armed
	clock.ticks <- clock.Now()
	<-api.statusCalled

	waitState(t, p, StateCompleted)

	assert.Equal(t, 3, api.calls("task-1"))
	assert.Empty(t, clock.armed, "the interval stops immediately on the terminal response")

	successes, errs := notifier.counts()
	assert.Equal(t, 1, successes, "exactly one completion notification")
	assert.Zero(t, errs)
	assert.Equal(t, []string{"task-1"}, completions)

	require.NotNil(t, p.Task())
	assert.Equal(t, model.TaskCompleted, p.Task().Status)
}

func TestPollerFailureNotifiesOnce(t *testing.T) {
	api := newFakeAPI()
	api.statuses["task-1"] = []model.SummaryTask{
		terminal("task-1", model.TaskFailed, "document too large"),
	}
	notifier := &fakeNotifier{}
	clock := newSteppedClock()

	completed := false
	p := newPoller(t, api, notifier, clock, func(string) { completed = true })

	require.NoError(t, p.Request(context.Background(), "h1", nil, false))
	<-api.statusCalled

	waitState(t, p, StateFailed)

	successes, errs := notifier.counts()
	assert.Zero(t, successes)
	assert.Equal(t, 1, errs)
	assert.Contains(t, notifier.errors[0], "document too large")
	assert.False(t, completed, "the completion callback only fires on success")
}

func TestRequestFallsBackToDocumentLookup(t *testing.T) {
	api := newFakeAPI()
	api.docs = []model.ProcurementDocument{{Title: "notice.pdf"}}
	api.statuses["task-1"] = []model.SummaryTask{terminal("task-1", model.TaskCompleted, "")}
	clock := newSteppedClock()
	p := newPoller(t, api, &fakeNotifier{}, clock, nil)

	require.NoError(t, p.Request(context.Background(), "h1", nil, false))
	<-api.statusCalled
	waitState(t, p, StateCompleted)

	require.Len(t, api.requests, 1)
	require.Len(t, api.requests[0].Documents, 1)
	assert.Equal(t, "notice.pdf", api.requests[0].Documents[0].Title)
	assert.NotEmpty(t, api.requests[0].OutputID)
}

func TestRequestUsesPlaceholderWhenNoDocumentsExist(t *testing.T) {
	api := newFakeAPI()
	api.statuses["task-1"] = []model.SummaryTask{terminal("task-1", model.TaskCompleted, "")}
	clock := newSteppedClock()
	p := newPoller(t, api, &fakeNotifier{}, clock, nil)

	require.NoError(t, p.Request(context.Background(), "h1", nil, false))
	<-api.statusCalled
	waitState(t, p, StateCompleted)

	require.Len(t, api.requests, 1)
	require.Len(t, api.requests[0].Documents, 1)
	assert.Equal(t, placeholderDocument, api.requests[0].Documents[0])
}

func TestRequestSuppliedDocumentsSkipLookup(t *testing.T) {
	api := newFakeAPI()
	api.docsErr = errors.New("lookup must not be called")
	api.statuses["task-1"] = []model.SummaryTask{terminal("task-1", model.TaskCompleted, "")}
	clock := newSteppedClock()
	p := newPoller(t, api, &fakeNotifier{}, clock, nil)

	docs := []model.ProcurementDocument{{Title: "annex-a.pdf"}, {Title: "annex-b.pdf"}}
	require.NoError(t, p.Request(context.Background(), "h1", docs, true))
	<-api.statusCalled
	waitState(t, p, StateCompleted)

	require.Len(t, api.requests, 1)
	assert.Len(t, api.requests[0].Documents, 2)
	assert.True(t, api.requests[0].Regenerate)
}

func TestNewTaskSupersedesPreviousPoll(t *testing.T) {
	api := newFakeAPI()
	api.statuses["task-1"] = []model.SummaryTask{pending("task-1", 0.2)}
	notifier := &fakeNotifier{}
	clock := newSteppedClock()
	p := newPoller(t, api, notifier, clock, nil)

	require.NoError(t, p.Request(context.Background(), "h1", nil, false))
	<-api.statusCalled
	<-clock.armed

	// A second request stops the first loop before starting its own.
	api.mu.Lock()
	api.nextTaskID = "task-2"
	api.statuses["task-2"] = []model.SummaryTask{terminal("task-2", model.TaskCompleted, "")}
	api.mu.Unlock()

	require.NoError(t, p.Request(context.Background(), "h2", nil, false))
	<-api.statusCalled
	waitState(t, p, StateCompleted)

	assert.Equal(t, 1, api.calls("task-1"), "the superseded loop must stop polling")
	successes, errs := notifier.counts()
	assert.Equal(t, 1, successes)
	assert.Zero(t, errs)
	require.NotNil(t, p.Task())
	assert.Equal(t, "task-2", p.Task().ID)
}

func TestRequestFailureNotifies(t *testing.T) {
	api := newFakeAPI()
	api.requestErr = errors.New("service unavailable")
	notifier := &fakeNotifier{}
	p := newPoller(t, api, notifier, newSteppedClock(), nil)

	err := p.Request(context.Background(), "h1", nil, false)
	require.Error(t, err)
	assert.Equal(t, StateFailed, p.State())
	_, errs := notifier.counts()
	assert.Equal(t, 1, errs)
}

func TestStopReturnsToIdle(t *testing.T) {
	api := newFakeAPI()
	api.statuses["task-1"] = []model.SummaryTask{pending("task-1", 0.2)}
	clock := newSteppedClock()
	p := newPoller(t, api, &fakeNotifier{}, clock, nil)

	assert.Equal(t, StateIdle, p.State())
	require.NoError(t, p.Request(context.Background(), "h1", nil, false))
	<-api.statusCalled
	<-clock.armed

	p.Stop()

	assert.Equal(t, StateIdle, p.State())
	assert.Equal(t, 1, api.calls("task-1"))
}
