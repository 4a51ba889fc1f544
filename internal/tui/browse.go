// Package tui implements the interactive tender browser.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/openprocure/tenderflow/internal/cli"
	"github.com/openprocure/tenderflow/internal/detail"
	"github.com/openprocure/tenderflow/internal/model"
	"github.com/openprocure/tenderflow/internal/query"
	"github.com/openprocure/tenderflow/internal/saved"
	"github.com/openprocure/tenderflow/internal/summary"
)

// State is the browse view's current mode.
type State int

// Browse states.
const (
	StateList State = iota
	StateDetail
	StateFilter
)

// Model is the bubbletea model for the tender browser.
type Model struct {
	queries   *query.Controller
	saves     *saved.Controller
	details   *detail.Loader
	summaries *summary.Poller

	keymap      KeyMap
	tenderTable table.Model
	spinner     spinner.Model
	filterInput textinput.Model

	state        State
	detailRecord *model.TenderDetail
	status       string
	savedOnly    bool
	loading      bool
	width        int
	height       int
}

type listLoadedMsg struct{ err error }

type detailLoadedMsg struct {
	record *model.TenderDetail
	err    error
}

type toggledMsg struct {
	hash  string
	saved bool
	err   error
}

type summaryStartedMsg struct{ err error }

// sortCycle is the order the sort key steps through.
var sortCycle = []model.SortField{
	model.SortBySubmissionDate,
	model.SortByBudget,
	model.SortByTitle,
	model.SortByOrganization,
}

// NewModel creates a browse model over the given controllers. The
// summary poller may be nil; saving then skips summary generation.
func NewModel(queries *query.Controller, saves *saved.Controller, details *detail.Loader, summaries *summary.Poller) Model {
	columns := []table.Column{
		{Title: "ID", Width: 14},
		{Title: "Title", Width: 42},
		{Title: "Organization", Width: 24},
		{Title: "Budget", Width: 14},
		{Title: "Submitted", Width: 10},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(20),
	)
	styles := table.DefaultStyles()
	styles.Header = styles.Header.Bold(true).Foreground(cli.PrimaryColor)
	styles.Selected = styles.Selected.Foreground(lipgloss.Color("229")).Background(lipgloss.Color("57"))
	t.SetStyles(styles)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(cli.PrimaryColor)

	filter := textinput.New()
	filter.Placeholder = "comma-separated CPV codes"
	filter.CharLimit = 120

	return Model{
		queries:     queries,
		saves:       saves,
		details:     details,
		summaries:   summaries,
		keymap:      DefaultKeyMap(),
		tenderTable: t,
		spinner:     sp,
		filterInput: filter,
		loading:     true,
	}
}

// Init starts the spinner and the initial list load.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.loadInitial())
}

func (m Model) loadInitial() tea.Cmd {
	return func() tea.Msg {
		if err := m.saves.Refresh(context.Background()); err != nil {
			return listLoadedMsg{err: err}
		}
		err := m.queries.LoadTenders(context.Background(), model.DefaultQueryParams(), true)
		return listLoadedMsg{err: err}
	}
}

func (m Model) loadMore() tea.Cmd {
	return func() tea.Msg {
		return listLoadedMsg{err: m.queries.LoadMore(context.Background())}
	}
}

func (m Model) applyUpdate(update model.ParamUpdate) tea.Cmd {
	return func() tea.Msg {
		return listLoadedMsg{err: m.queries.UpdateParams(context.Background(), update)}
	}
}

func (m Model) resetParams() tea.Cmd {
	return func() tea.Msg {
		return listLoadedMsg{err: m.queries.ResetParams(context.Background())}
	}
}

func (m Model) openDetail(hash string) tea.Cmd {
	return func() tea.Msg {
		record, err := m.details.FetchTenderDetail(context.Background(), hash)
		return detailLoadedMsg{record: record, err: err}
	}
}

func (m Model) toggleSave(preview model.TenderPreview) tea.Cmd {
	return func() tea.Msg {
		target := !m.saves.IsSaved(preview.Hash)
		err := m.saves.Toggle(context.Background(), preview)
		// A debounced toggle returns nil without changing state, so the
		// set itself decides whether a save actually happened.
		saved := err == nil && target && m.saves.IsSaved(preview.Hash)
		return toggledMsg{hash: preview.Hash, saved: saved, err: err}
	}
}

func (m Model) requestSummary(hash string) tea.Cmd {
	return func() tea.Msg {
		return summaryStartedMsg{err: m.summaries.Request(context.Background(), hash, nil, false)}
	}
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.tenderTable.SetHeight(msg.Height - 6)
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case listLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.status = cli.FormatError(m.queries.Error())
		} else {
			m.status = ""
		}
		m.refreshRows()
		return m, nil

	case detailLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.status = cli.FormatError(m.details.Error())
			m.state = StateList
			return m, nil
		}
		m.detailRecord = msg.record
		m.state = StateDetail
		return m, nil

	case toggledMsg:
		if msg.err != nil {
			m.status = cli.FormatError("Bookmark update failed, list resynchronized")
			m.refreshRows()
			return m, nil
		}
		m.status = ""
		m.refreshRows()
		if msg.saved && m.summaries != nil {
			m.status = cli.SubtleStyle.Render("Generating summary in the background…")
			return m, m.requestSummary(msg.hash)
		}
		return m, nil

	case summaryStartedMsg:
		if msg.err != nil {
			m.status = cli.FormatError("Could not start summary generation")
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.state == StateFilter {
		switch msg.Type {
		case tea.KeyEnter:
			m.state = StateList
			m.filterInput.Blur()
			m.loading = true
			return m, m.applyUpdate(model.ParamUpdate{Filters: &model.FilterState{
				Categories: splitCategories(m.filterInput.Value()),
			}})
		case tea.KeyEsc:
			m.state = StateList
			m.filterInput.Blur()
			return m, nil
		default:
			var cmd tea.Cmd
			m.filterInput, cmd = m.filterInput.Update(msg)
			return m, cmd
		}
	}

	switch {
	case key.Matches(msg, m.keymap.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keymap.Back):
		if m.state == StateDetail {
			m.details.ClearTenderDetail()
			m.detailRecord = nil
			m.state = StateList
		}
		return m, nil

	case key.Matches(msg, m.keymap.Open):
		if preview, ok := m.selected(); ok && m.state == StateList {
			m.loading = true
			return m, m.openDetail(preview.Hash)
		}
		return m, nil

	case key.Matches(msg, m.keymap.Save):
		if preview, ok := m.selected(); ok {
			return m, m.toggleSave(preview)
		}
		return m, nil

	case key.Matches(msg, m.keymap.Filter):
		m.state = StateFilter
		m.filterInput.Focus()
		return m, textinput.Blink

	case key.Matches(msg, m.keymap.Sort):
		next := m.nextSort()
		m.loading = true
		return m, m.applyUpdate(model.ParamUpdate{Sort: &next})

	case key.Matches(msg, m.keymap.Saved):
		m.savedOnly = !m.savedOnly
		scope := m.savedOnly
		m.loading = true
		return m, m.applyUpdate(model.ParamUpdate{Saved: &scope})

	case key.Matches(msg, m.keymap.Refresh):
		m.savedOnly = false
		m.loading = true
		return m, m.resetParams()

	case key.Matches(msg, m.keymap.PageDown):
		if m.queries.HasMore() && !m.queries.IsLoading() {
			m.loading = true
			return m, m.loadMore()
		}
		return m, nil
	}

	// Reaching the bottom of the table loads the next page.
	var cmd tea.Cmd
	m.tenderTable, cmd = m.tenderTable.Update(msg)
	if key.Matches(msg, m.keymap.Down) &&
		m.tenderTable.Cursor() == len(m.tenderTable.Rows())-1 &&
		m.queries.HasMore() && !m.queries.IsLoading() {
		m.loading = true
		return m, tea.Batch(cmd, m.loadMore())
	}
	return m, cmd
}

// nextSort advances the sort cycle, flipping direction when the cycle
// wraps back to the same field.
func (m Model) nextSort() model.SortState {
	current := m.queries.Params().Sort
	for i, field := range sortCycle {
		if field == current.Field {
			return model.SortState{
				Field:     sortCycle[(i+1)%len(sortCycle)],
				Direction: current.Direction,
			}
		}
	}
	return model.SortState{Field: model.SortBySubmissionDate, Direction: model.SortDesc}
}

// selected returns the preview under the cursor.
func (m Model) selected() (model.TenderPreview, bool) {
	items := m.queries.Items()
	cursor := m.tenderTable.Cursor()
	if cursor < 0 || cursor >= len(items) {
		return model.TenderPreview{}, false
	}
	return items[cursor], true
}

// refreshRows rebuilds the table rows from the held list.
func (m *Model) refreshRows() {
	items := m.queries.Items()
	rows := make([]table.Row, 0, len(items))
	for _, t := range items {
		id := t.TenderID
		if t.Saved || m.saves.IsSaved(t.Hash) {
			id = cli.SavedIcon + " " + id
		}
		budget := "-"
		if t.Budget.Amount > 0 {
			budget = fmt.Sprintf("%.0f %s", t.Budget.Amount, t.Budget.Currency)
		}
		rows = append(rows, table.Row{
			id,
			t.Title,
			t.Organization,
			budget,
			t.SubmissionDate.Format("2006-01-02"),
		})
	}
	m.tenderTable.SetRows(rows)
}

// View renders the current state.
func (m Model) View() string {
	switch m.state {
	case StateDetail:
		return m.detailView()
	case StateFilter:
		return m.filterView()
	default:
		return m.listView()
	}
}

func (m Model) listView() string {
	var b strings.Builder

	title := cli.FormatTitle("Tenders")
	if m.savedOnly {
		title = cli.FormatTitle("Saved tenders")
	}
	b.WriteString(title + "\n")
	b.WriteString(m.tenderTable.View() + "\n")

	footer := fmt.Sprintf("%d of %d", len(m.queries.Items()), m.queries.Total())
	if m.queries.HasMore() {
		footer += "  ·  more available"
	}
	if m.loading {
		footer = m.spinner.View() + " loading…"
	}
	if m.status != "" {
		footer = m.status
	}
	b.WriteString(cli.SubtleStyle.Render(footer) + "\n")
	b.WriteString(cli.SubtleStyle.Render("enter open · s save · / filter · o sort · b saved · r reset · q quit"))
	return b.String()
}

func (m Model) filterView() string {
	return cli.FormatTitle("Filter by category") + "\n" +
		m.filterInput.View() + "\n\n" +
		cli.SubtleStyle.Render("enter apply · esc cancel")
}

func (m Model) detailView() string {
	d := m.detailRecord
	if d == nil {
		return m.spinner.View() + " loading…"
	}

	var b strings.Builder
	row := func(label, value string) {
		if value == "" {
			return
		}
		b.WriteString(cli.SubtleStyle.Render(label+": ") + value + "\n")
	}

	row("ID", d.TenderID)
	row("Buyer", d.Buyer)
	row("Organization", d.Organization)
	row("Location", d.Location)
	row("Contract type", d.ContractType)
	row("Submitted", d.SubmissionDate.Format("2006-01-02"))
	if d.Budget.Amount > 0 {
		row("Budget", fmt.Sprintf("%.0f %s", d.Budget.Amount, d.Budget.Currency))
	}
	if len(d.Lots) > 0 {
		b.WriteString(fmt.Sprintf("\nLots: %d\n", len(d.Lots)))
	}
	if d.AISummary != "" {
		b.WriteString("\n" + cli.FormatTitle("Summary") + "\n" + d.AISummary + "\n")
	}

	return cli.RenderBox(d.Title, strings.TrimRight(b.String(), "\n")) + "\n" +
		cli.SubtleStyle.Render("esc back · s save · q quit")
}

func splitCategories(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
