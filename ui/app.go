package ui

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"

	"plotterctl/model"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sahilm/fuzzy"
)

// Backend is the control API as seen by the console.
type Backend interface {
	ListCommands(ctx context.Context, q model.PageQuery) (model.PageResult, error)
	CancelCommand(ctx context.Context, id int64) error
	QueueCommand(ctx context.Context, req model.QueueRequest) error
}

type mode int

const (
	modeNormal mode = iota
	modeConfirm
	modeFilter
	modeSearch
	modeQueue
)

const loadErrorText = "Error loading commands"

type App struct {
	ctx     context.Context
	backend Backend

	// List state
	pager   pager
	filter  int
	rows    []model.Command
	loadErr error
	loading bool

	// UI state
	mode   mode
	cursor int
	width  int
	height int
	alert  string
	status string

	// Cancel confirmation
	confirmID int64

	filterInput textinput.Model
	searchInput textinput.Model

	// Queue form
	formInputs []textinput.Model
	formFocus  int
}

func NewApp(ctx context.Context, backend Backend) *App {
	filter := textinput.New()
	filter.Placeholder = "0 all, 1 pending, 2 fetched, 3 uploaded, 4 failed, 5 cancelled"
	filter.CharLimit = 4

	search := textinput.New()
	search.Placeholder = "Key name or id..."

	return &App{
		ctx:         ctx,
		backend:     backend,
		filterInput: filter,
		searchInput: search,
	}
}

func (a *App) Init() tea.Cmd {
	return a.loadPage(0, false)
}

type pageMsg struct {
	result model.PageResult
}

type pageErrMsg struct {
	err error
}

type cancelResultMsg struct {
	id  int64
	err error
}

type queueResultMsg struct {
	err error
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width - 4   // account for app padding
		a.height = msg.Height - 2 // account for app padding
		return a, nil

	case pageMsg:
		a.showPage(msg.result)
		return a, nil

	case pageErrMsg:
		a.showLoadError(msg.err)
		return a, nil

	case cancelResultMsg:
		a.finishCancel(msg)
		return a, nil

	case queueResultMsg:
		if msg.err != nil {
			log.Printf("queue command: %v", msg.err)
			a.alert = "Issue with queuing request: " + msg.err.Error()
			return a, nil
		}
		a.status = "Queued!"
		return a, a.loadPage(0, false)

	case tea.KeyMsg:
		a.alert = ""
		a.status = ""

		switch a.mode {
		case modeNormal:
			return a.updateNormal(msg)
		case modeConfirm:
			return a.updateConfirm(msg)
		case modeFilter:
			return a.updateFilter(msg)
		case modeSearch:
			return a.updateSearch(msg)
		case modeQueue:
			return a.updateForm(msg)
		}
	}

	return a, nil
}

func (a *App) updateNormal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return a, tea.Quit

	case "up", "k":
		if a.cursor > 0 {
			a.cursor--
		}

	case "down", "j":
		if a.cursor < len(a.rows)-1 {
			a.cursor++
		}

	case "n", "right":
		if a.pager.nextEnabled {
			return a, a.loadPage(1, false)
		}

	case "p", "left":
		if a.pager.prevEnabled {
			return a, a.loadPage(-1, false)
		}

	case "g", "home":
		if a.pager.firstEnabled {
			return a, a.loadPage(1, true)
		}

	case "G", "end":
		if a.pager.lastEnabled {
			return a, a.loadPage(a.pager.pages, true)
		}

	case "r":
		return a, a.loadPage(0, false)

	case "c", "x":
		if row, ok := a.selectedRow(); ok && row.Cancellable() {
			a.confirmID = row.ID
			a.mode = modeConfirm
		}

	case "f":
		a.mode = modeFilter
		a.filterInput.SetValue(strconv.Itoa(a.filter))
		a.filterInput.CursorEnd()
		return a, a.filterInput.Focus()

	case "/":
		a.mode = modeSearch
		a.searchInput.SetValue("")
		return a, a.searchInput.Focus()

	case "a":
		a.mode = modeQueue
		return a, a.initForm()
	}

	return a, nil
}

func (a *App) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		a.mode = modeNormal
		return a, a.cancelCommand(a.confirmID)

	case "n", "N", "esc":
		a.mode = modeNormal
		return a, nil
	}

	return a, nil
}

func (a *App) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return a, tea.Quit

	case "esc":
		a.mode = modeNormal
		a.filterInput.Blur()
		return a, nil

	case "enter":
		code, err := strconv.Atoi(strings.TrimSpace(a.filterInput.Value()))
		if err != nil {
			a.alert = "Filter must be a number"
			return a, nil
		}
		a.mode = modeNormal
		a.filterInput.Blur()
		return a, a.applyFilter(code)

	default:
		var cmd tea.Cmd
		a.filterInput, cmd = a.filterInput.Update(msg)
		return a, cmd
	}
}

func (a *App) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return a, tea.Quit

	case "esc", "enter":
		a.mode = modeNormal
		a.searchInput.Blur()
		return a, nil

	default:
		var cmd tea.Cmd
		a.searchInput, cmd = a.searchInput.Update(msg)
		a.jumpToMatch(a.searchInput.Value())
		return a, cmd
	}
}

func (a *App) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return a, tea.Quit

	case "esc":
		a.mode = modeNormal
		return a, nil

	case "tab", "down":
		a.formFocus = (a.formFocus + 1) % len(a.formInputs)
		return a, a.focusFormInput()

	case "shift+tab", "up":
		a.formFocus--
		if a.formFocus < 0 {
			a.formFocus = len(a.formInputs) - 1
		}
		return a, a.focusFormInput()

	case "enter":
		return a.submitForm()

	default:
		var cmd tea.Cmd
		a.formInputs[a.formFocus], cmd = a.formInputs[a.formFocus].Update(msg)
		return a, cmd
	}
}

// loadPage requests a page. With absolute set, offset is a 1-based page
// number; otherwise it moves relative to the page currently shown.
func (a *App) loadPage(offset int, absolute bool) tea.Cmd {
	q := model.PageQuery{
		Page:       a.pager.target(offset, absolute),
		FilterType: a.filter,
	}.Normalize()
	a.loading = true

	backend, ctx := a.backend, a.ctx
	return func() tea.Msg {
		res, err := backend.ListCommands(ctx, q)
		if err != nil {
			return pageErrMsg{err: err}
		}
		return pageMsg{result: res}
	}
}

// applyFilter switches the filter code and goes back to the first page.
func (a *App) applyFilter(code int) tea.Cmd {
	if code < 0 {
		code = model.FilterNone
	}
	a.filter = code
	return a.loadPage(1, true)
}

// cancelCommand withdraws the command with the given id. The caller has
// already confirmed.
func (a *App) cancelCommand(id int64) tea.Cmd {
	backend, ctx := a.backend, a.ctx
	return func() tea.Msg {
		return cancelResultMsg{id: id, err: backend.CancelCommand(ctx, id)}
	}
}

func (a *App) showPage(res model.PageResult) {
	a.loading = false
	a.loadErr = nil
	a.pager.apply(res)

	rows := make([]model.Command, len(res.Commands))
	copy(rows, res.Commands)
	a.rows = rows
	a.cursor = 0
}

// showLoadError replaces the table with a single error row. Navigation state
// is left as it was.
func (a *App) showLoadError(err error) {
	log.Printf("load commands: %v", err)
	a.loading = false
	a.loadErr = err
	a.rows = nil
	a.cursor = 0
}

// finishCancel updates the cancelled row in place instead of refetching the
// page, so the cursor stays where it is.
func (a *App) finishCancel(msg cancelResultMsg) {
	if msg.err != nil {
		log.Printf("cancel command %d: %v", msg.id, msg.err)
		a.alert = fmt.Sprintf("Issue cancelling command %d: %v", msg.id, msg.err)
		return
	}
	for i := range a.rows {
		if a.rows[i].ID == msg.id {
			a.rows[i].Status = model.StatusCancelled
			break
		}
	}
	a.status = fmt.Sprintf("Cancelled command %d", msg.id)
}

func (a *App) selectedRow() (model.Command, bool) {
	if a.cursor < 0 || a.cursor >= len(a.rows) {
		return model.Command{}, false
	}
	return a.rows[a.cursor], true
}

// jumpToMatch moves the cursor to the row that best matches query. Rows are
// never hidden.
func (a *App) jumpToMatch(query string) {
	if query == "" || len(a.rows) == 0 {
		return
	}

	targets := make([]string, len(a.rows))
	for i, c := range a.rows {
		targets[i] = c.KeyName + " " + strconv.FormatInt(c.ID, 10)
	}

	matches := fuzzy.Find(query, targets)
	if len(matches) > 0 {
		a.cursor = matches[0].Index
	}
}

var formLabels = []string{"Target", "Position", "Key ID"}

func (a *App) initForm() tea.Cmd {
	a.formInputs = make([]textinput.Model, len(formLabels))

	targetInput := textinput.New()
	targetInput.Placeholder = "Target number"

	positionInput := textinput.New()
	positionInput.Placeholder = "1 rising, 2 zenith, 3 setting"

	keyInput := textinput.New()
	keyInput.Placeholder = "Associated key id"

	a.formInputs[0] = targetInput
	a.formInputs[1] = positionInput
	a.formInputs[2] = keyInput
	a.formFocus = 0
	return a.focusFormInput()
}

func (a *App) focusFormInput() tea.Cmd {
	for i := range a.formInputs {
		a.formInputs[i].Blur()
	}
	return a.formInputs[a.formFocus].Focus()
}

func (a *App) submitForm() (tea.Model, tea.Cmd) {
	values := make([]int64, len(a.formInputs))
	for i, input := range a.formInputs {
		v, err := strconv.ParseInt(strings.TrimSpace(input.Value()), 10, 64)
		if err != nil {
			a.alert = formLabels[i] + " must be a number"
			return a, nil
		}
		values[i] = v
	}

	req := model.QueueRequest{Target: values[0], Position: values[1], KeyID: values[2]}
	a.mode = modeNormal

	backend, ctx := a.backend, a.ctx
	return a, func() tea.Msg {
		return queueResultMsg{err: backend.QueueCommand(ctx, req)}
	}
}
