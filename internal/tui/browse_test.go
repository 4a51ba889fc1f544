package tui

import (
	"context"
	"errors"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openprocure/tenderflow/internal/detail"
	"github.com/openprocure/tenderflow/internal/model"
	"github.com/openprocure/tenderflow/internal/query"
	"github.com/openprocure/tenderflow/internal/saved"
	"github.com/openprocure/tenderflow/internal/service"
	"github.com/openprocure/tenderflow/internal/summary"
)

// fakeAPI serves one fixed page and records summary requests.
type fakeAPI struct {
	page *model.TenderPage

	mu            sync.Mutex
	summaryHashes []string
}

func (f *fakeAPI) ListTenders(_ context.Context, params model.QueryParams) (*model.TenderPage, error) {
	if params.Saved {
		return &model.TenderPage{Offset: params.Offset, Limit: params.Limit}, nil
	}
	copied := *f.page
	return &copied, nil
}
func (f *fakeAPI) GetTender(_ context.Context, hash string) (*model.TenderDetail, error) {
	for _, item := range f.page.Items {
		if item.Hash == hash {
			return &model.TenderDetail{TenderPreview: item, Buyer: "City of Example"}, nil
		}
	}
	return nil, errors.New("unknown tender")
}
func (f *fakeAPI) GetDocuments(_ context.Context, _ string) ([]model.ProcurementDocument, error) {
	return nil, nil
}
func (f *fakeAPI) GetAIDocument(_ context.Context, _ string) (string, error) { return "", nil }
func (f *fakeAPI) SaveTender(_ context.Context, _, _ string) error           { return nil }
func (f *fakeAPI) UnsaveTender(_ context.Context, _ string) error            { return nil }
func (f *fakeAPI) RequestSummary(_ context.Context, req service.SummaryRequest) (*model.SummaryTask, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.summaryHashes = append(f.summaryHashes, req.TenderHash)
	return &model.SummaryTask{ID: "task-1", Status: model.TaskPending}, nil
}
func (f *fakeAPI) GetTaskStatus(_ context.Context, taskID string) (*model.SummaryTask, error) {
	return &model.SummaryTask{ID: taskID, Status: model.TaskCompleted}, nil
}

func (f *fakeAPI) requestedSummaries() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.summaryHashes...)
}

var _ service.TenderAPI = (*fakeAPI)(nil)

func testModel(t *testing.T) (Model, *query.Controller, *fakeAPI) {
	t.Helper()
	api := &fakeAPI{page: &model.TenderPage{
		Items: []model.TenderPreview{
			{Hash: "h1", TenderID: "T-1", Title: "Road maintenance", Organization: "City of Example"},
			{Hash: "h2", TenderID: "T-2", Title: "School catering", Organization: "Example District"},
		},
		Total:   2,
		HasNext: false,
	}}

	queries := query.New(api)
	saves, err := saved.New(saved.Deps{
		API:      api,
		Notifier: noopNotifier{},
		Clock:    service.RealClock{},
	})
	require.NoError(t, err)

	summaries, err := summary.New(summary.Deps{
		API:      api,
		Notifier: noopNotifier{},
		Clock:    service.RealClock{},
	})
	require.NoError(t, err)
	t.Cleanup(summaries.Stop)

	return NewModel(queries, saves, detail.NewLoader(api), summaries), queries, api
}

func TestInitialLoadFillsTable(t *testing.T) {
	m, _, _ := testModel(t)

	msg := m.loadInitial()()
	loaded, ok := msg.(listLoadedMsg)
	require.True(t, ok)
	require.NoError(t, loaded.err)

	updated, _ := m.Update(loaded)
	browse := updated.(Model)

	assert.False(t, browse.loading)
	require.Len(t, browse.tenderTable.Rows(), 2)
	assert.Equal(t, "T-1", browse.tenderTable.Rows()[0][0])
}

func TestSortCycleAdvances(t *testing.T) {
	m, queries, _ := testModel(t)
	require.NoError(t, queries.LoadTenders(context.Background(), model.DefaultQueryParams(), true))

	next := m.nextSort()
	assert.Equal(t, model.SortByBudget, next.Field)
	assert.Equal(t, model.SortDesc, next.Direction)
}

func TestOpenDetailAndBack(t *testing.T) {
	m, queries, _ := testModel(t)
	require.NoError(t, queries.LoadTenders(context.Background(), model.DefaultQueryParams(), true))
	m.refreshRows()

	msg := m.openDetail("h1")()
	loaded, ok := msg.(detailLoadedMsg)
	require.True(t, ok)
	require.NoError(t, loaded.err)

	updated, _ := m.Update(loaded)
	browse := updated.(Model)
	assert.Equal(t, StateDetail, browse.state)
	require.NotNil(t, browse.detailRecord)
	assert.Equal(t, "City of Example", browse.detailRecord.Buyer)

	back, _ := browse.handleKey(tea.KeyMsg{Type: tea.KeyEsc})
	browse = back.(Model)
	assert.Equal(t, StateList, browse.state)
	assert.Nil(t, browse.detailRecord)
}

func TestSaveToggleStartsSummaryGeneration(t *testing.T) {
	m, queries, api := testModel(t)
	require.NoError(t, queries.LoadTenders(context.Background(), model.DefaultQueryParams(), true))
	m.refreshRows()

	preview, ok := m.selected()
	require.True(t, ok)

	msg := m.toggleSave(preview)()
	toggled, ok := msg.(toggledMsg)
	require.True(t, ok)
	require.NoError(t, toggled.err)
	assert.True(t, toggled.saved)
	assert.Equal(t, "h1", toggled.hash)

	updated, cmd := m.Update(toggled)
	browse := updated.(Model)
	require.NotNil(t, cmd, "saving must kick off summary generation")

	started, ok := cmd().(summaryStartedMsg)
	require.True(t, ok)
	require.NoError(t, started.err)
	assert.Equal(t, []string{"h1"}, api.requestedSummaries())
	assert.True(t, browse.saves.IsSaved("h1"))

	// A repeated press inside the debounce window changes nothing and
	// must not request another summary.
	second := browse.toggleSave(preview)().(toggledMsg)
	require.NoError(t, second.err)
	assert.False(t, second.saved)

	_, cmd = browse.Update(second)
	assert.Nil(t, cmd)
	assert.Equal(t, []string{"h1"}, api.requestedSummaries())
}

func TestSplitCategories(t *testing.T) {
	assert.Equal(t, []string{"45000000", "48000000"}, splitCategories("45000000, 48000000"))
	assert.Nil(t, splitCategories("  ,  "))
	assert.Nil(t, splitCategories(""))
}
