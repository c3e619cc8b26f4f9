package ui

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/bookclub/internal/async"
	"github.com/five82/bookclub/internal/browse"
	"github.com/five82/bookclub/internal/client"
	"github.com/five82/bookclub/internal/mason"
	"github.com/five82/bookclub/internal/prefs"
	"github.com/five82/bookclub/internal/state"
)

// Mode is the current interaction mode.
type Mode int

const (
	ModeList Mode = iota
	ModeDetail
	ModeForm
	ModeConfirmDelete
	ModeSetUser
)

const (
	defaultTick   = time.Second
	logFetchLimit = 2000
)

// Options configures the UI.
type Options struct {
	Context   context.Context
	Client    *client.Client
	Browser   *browse.Browser // identity changes go through it when set
	Workers   *async.Pool     // nil uses the client's pool
	Sections  []browse.Section
	Store     *state.Store
	Logger    *slog.Logger
	Prefs     prefs.Prefs
	PrefsPath string
	LogPath   string // problems view is empty without one
	Tick      time.Duration
}

// Model is the root application state for Bubble Tea.
type Model struct {
	// Configuration
	ctx       context.Context
	client    *client.Client
	browser   *browse.Browser
	workers   *async.Pool
	sections  []browse.Section
	store     *state.Store
	logger    *slog.Logger
	prefs     prefs.Prefs
	prefsPath string
	logPath   string
	tick      time.Duration
	keys      keyMap

	// UI state
	theme    Theme
	mode     Mode
	width    int
	height   int
	ready    bool
	showHelp bool
	help     viewport.Model
	showLog  bool
	problems viewport.Model
	status   string
	failed   bool // status reports a failure

	// Data state
	snapshot state.Snapshot
	active   int
	selected map[string]int
	loading  map[string]bool

	// Detail, form and prompt state
	detail    browse.Entry
	form      *form
	confirm   browse.Entry
	back      Mode
	userInput textinput.Model
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	workers := opts.Workers
	if workers == nil && opts.Client != nil {
		workers = opts.Client.Workers()
	}
	store := opts.Store
	if store == nil {
		store = &state.Store{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	tick := opts.Tick
	if tick <= 0 {
		tick = defaultTick
	}
	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}

	userInput := textinput.New()
	userInput.Prompt = "User: "
	userInput.CharLimit = 60

	return Model{
		ctx:       ctx,
		client:    opts.Client,
		browser:   opts.Browser,
		workers:   workers,
		sections:  opts.Sections,
		store:     store,
		logger:    logger,
		prefs:     opts.Prefs,
		prefsPath: prefsPath,
		logPath:   opts.LogPath,
		tick:      tick,
		keys:      defaultKeyMap(),
		theme:     GetTheme(opts.Prefs.Theme),
		snapshot:  store.Snapshot(),
		selected:  make(map[string]int),
		loading:   make(map[string]bool),
		userInput: userInput,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{tickCmd(m.tick)}
	if s := m.section(); s != nil {
		cmds = append(cmds, m.load(s))
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help = viewport.New(min(helpWidth, msg.Width), max(msg.Height-4, 1))
		m.help.SetContent(m.helpContent())
		m.problems = viewport.New(max(msg.Width-6, 1), max(msg.Height-6, 1))
		m.ready = true
		return m, nil

	case tickMsg:
		return m, tea.Batch(fetchSnapshotCmd(m.store), tickCmd(m.tick))

	case snapshotMsg:
		m.snapshot = state.Snapshot(msg)
		m.clampSelection()
		return m, nil

	case loadedMsg:
		if msg.stale {
			return m, nil
		}
		delete(m.loading, msg.rel)
		m.snapshot = m.store.Snapshot()
		m.clampSelection()
		if msg.err != nil {
			m.setError(fmt.Sprintf("Loading %s failed: %v", m.labelFor(msg.rel), msg.err))
		}
		return m, nil

	case detailMsg:
		if msg.err != nil {
			m.setError(fmt.Sprintf("Opening item failed: %v", msg.err))
			if m.mode == ModeDetail {
				m.mode = ModeList
			}
			return m, nil
		}
		m.detail = msg.entry
		if m.mode == ModeList {
			m.mode = ModeDetail
		}
		return m, nil

	case resultMsg:
		return m.handleResult(msg)

	case logMsg:
		switch {
		case msg.err != nil:
			m.problems.SetContent(msg.err.Error())
		case len(msg.lines) == 0:
			m.problems.SetContent("No problems logged.")
		default:
			m.problems.SetContent(strings.Join(msg.lines, "\n"))
		}
		m.problems.GotoBottom()
		return m, nil
	}

	if m.mode == ModeSetUser {
		var cmd tea.Cmd
		m.userInput, cmd = m.userInput.Update(msg)
		return m, cmd
	}
	if m.mode == ModeForm && m.form != nil {
		return m, m.form.update(msg)
	}
	return m, nil
}

// handleKey processes keyboard input; modal modes see keys first.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return m, tea.Quit
	}

	if m.showHelp {
		if key.Matches(msg, m.keys.Help, m.keys.Back, m.keys.Quit) {
			m.showHelp = false
			return m, nil
		}
		var cmd tea.Cmd
		m.help, cmd = m.help.Update(msg)
		return m, cmd
	}

	if m.showLog {
		if key.Matches(msg, m.keys.ShowLog, m.keys.Back, m.keys.Quit) {
			m.showLog = false
			return m, nil
		}
		var cmd tea.Cmd
		m.problems, cmd = m.problems.Update(msg)
		return m, cmd
	}

	switch m.mode {
	case ModeSetUser:
		return m.handleUserKey(msg)
	case ModeForm:
		return m.handleFormKey(msg)
	case ModeConfirmDelete:
		return m.handleConfirmKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		m.help.SetContent(m.helpContent())
		m.help.GotoTop()
		return m, nil
	case key.Matches(msg, m.keys.ShowLog):
		m.showLog = true
		m.problems.SetContent("Reading " + m.logPath + "…")
		return m, problemsCmd(m.logPath)
	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.prefs.Theme = m.theme.Name
		m.savePrefs()
		return m, nil
	case key.Matches(msg, m.keys.SetUser):
		m.mode = ModeSetUser
		m.userInput.SetValue(m.currentUser())
		m.userInput.CursorEnd()
		cmd := m.userInput.Focus()
		return m, cmd
	}

	if m.mode == ModeDetail {
		return m.handleDetailKey(msg)
	}
	return m.handleListKey(msg)
}

func (m Model) handleListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	s := m.section()
	if s == nil {
		return m, nil
	}
	rel := s.Relation()
	count := len(m.snapshot.Entries[rel])

	switch {
	case key.Matches(msg, m.keys.NextSection):
		cmd := m.switchSection(1)
		return m, cmd
	case key.Matches(msg, m.keys.PrevSection):
		cmd := m.switchSection(-1)
		return m, cmd
	case key.Matches(msg, m.keys.Reload):
		return m, m.load(s)
	case key.Matches(msg, m.keys.Down):
		if m.selected[rel] < count-1 {
			m.selected[rel]++
		}
	case key.Matches(msg, m.keys.Up):
		if m.selected[rel] > 0 {
			m.selected[rel]--
		}
	case key.Matches(msg, m.keys.Top):
		m.selected[rel] = 0
	case key.Matches(msg, m.keys.Bottom):
		m.selected[rel] = max(count-1, 0)
	case key.Matches(msg, m.keys.Open):
		if e, ok := m.selectedEntry(); ok {
			return m, detailCmd(m.ctx, m.workers, s, e)
		}
	case key.Matches(msg, m.keys.Add):
		return m.startCreate(s)
	case key.Matches(msg, m.keys.Edit):
		if e, ok := m.selectedEntry(); ok {
			return m.startEdit(s, e, ModeList)
		}
	case key.Matches(msg, m.keys.Delete):
		if e, ok := m.selectedEntry(); ok {
			return m.startDelete(e, ModeList)
		}
	}
	return m, nil
}

func (m Model) handleDetailKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	s := m.section()
	switch {
	case key.Matches(msg, m.keys.Back):
		m.mode = ModeList
		m.detail = browse.Entry{}
	case key.Matches(msg, m.keys.Reload):
		return m, detailCmd(m.ctx, m.workers, s, m.detail)
	case key.Matches(msg, m.keys.Edit):
		return m.startEdit(s, m.detail, ModeDetail)
	case key.Matches(msg, m.keys.Delete):
		return m.startDelete(m.detail, ModeDetail)
	}
	return m, nil
}

func (m Model) handleFormKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	f := m.form
	switch {
	case key.Matches(msg, m.keys.Back):
		m.form = nil
		m.mode = m.back
		return m, nil
	case key.Matches(msg, m.keys.Submit):
		return m.submit()
	case key.Matches(msg, m.keys.NextField):
		f.move(1)
		return m, nil
	case key.Matches(msg, m.keys.PrevField):
		f.move(-1)
		return m, nil
	}
	return m, f.update(msg)
}

func (m Model) handleConfirmKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Confirm):
		target := m.confirm
		m.mode = m.back
		m.confirm = browse.Entry{}
		m.setStatus("Deleting " + target.Identity() + "…")
		return m, deleteCmd(m.ctx, m.workers, m.section(), target)
	case key.Matches(msg, m.keys.Deny):
		m.mode = m.back
		m.confirm = browse.Entry{}
	}
	return m, nil
}

func (m Model) handleUserKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.userInput.Blur()
		m.mode = ModeList
		return m, nil
	case tea.KeyEnter:
		m.userInput.Blur()
		m.mode = ModeList
		cmd := m.setUser(m.userInput.Value())
		return m, cmd
	}
	var cmd tea.Cmd
	m.userInput, cmd = m.userInput.Update(msg)
	return m, cmd
}

// setUser switches the identity every request carries. Controls depend on
// who asks, so everything loaded is dropped and reloaded.
func (m *Model) setUser(name string) tea.Cmd {
	name = strings.TrimSpace(name)
	switch {
	case m.browser != nil:
		m.browser.SetUser(name)
	case m.client != nil:
		m.client.SetUser(name)
	}
	m.prefs.LastUser = name
	m.savePrefs()

	m.store.Forget()
	m.snapshot = m.store.Snapshot()
	m.detail = browse.Entry{}
	clear(m.selected)
	if name == "" {
		m.setStatus("Browsing anonymously")
	} else {
		m.setStatus("Acting as " + name)
	}
	if s := m.section(); s != nil {
		return m.load(s)
	}
	return nil
}

func (m Model) startCreate(s browse.Section) (tea.Model, tea.Cmd) {
	if _, ok := s.Add(); !ok {
		if m.snapshot.HasLoaded(s.Relation()) {
			m.setError(s.Label() + " offers no add control")
		} else {
			m.setError(s.Label() + " not loaded yet")
		}
		return m, nil
	}
	m.form = newCreateForm(s)
	m.back = ModeList
	m.mode = ModeForm
	return m, nil
}

func (m Model) startEdit(s browse.Section, e browse.Entry, back Mode) (tea.Model, tea.Cmd) {
	if !e.Can(mason.RelEdit) {
		m.setError(e.Identity() + " is not editable")
		return m, nil
	}
	m.form = newEditForm(s, e)
	m.back = back
	m.mode = ModeForm
	return m, nil
}

func (m Model) startDelete(e browse.Entry, back Mode) (tea.Model, tea.Cmd) {
	if !e.Can(mason.RelDelete) {
		m.setError(e.Identity() + " cannot be deleted")
		return m, nil
	}
	m.confirm = e
	m.back = back
	m.mode = ModeConfirmDelete
	return m, nil
}

// submit sends the form. A form that fails to parse stays open without a
// request.
func (m Model) submit() (tea.Model, tea.Cmd) {
	f := m.form
	if f.pending {
		return m, nil
	}
	rec, err := f.record()
	if err != nil {
		f.message = err.Error()
		return m, nil
	}
	f.message = ""
	f.pending = true
	if f.creating {
		return m, createCmd(m.ctx, m.workers, f.section, rec)
	}
	return m, editCmd(m.ctx, m.workers, f.section, f.entry, rec)
}

// handleResult closes the form on success and reloads the collection. A
// rejected create or edit re-presents the form with the server's message.
func (m Model) handleResult(msg resultMsg) (tea.Model, tea.Cmd) {
	s := m.sectionFor(msg.rel)
	if s == nil {
		return m, nil
	}

	var problem string
	switch {
	case msg.err != nil:
		problem = msg.err.Error()
	case !msg.result.OK():
		problem = msg.result.Message()
	}

	if problem != "" {
		if f := m.form; f != nil && m.mode == ModeForm && msg.kind != mutationDelete {
			f.pending = false
			f.message = problem
			return m, nil
		}
		m.setError(fmt.Sprintf("%s: %s", s.Label(), problem))
		return m, nil
	}

	status := msg.kind.String()
	if msg.result.Location != "" {
		status += " " + msg.result.Location
	}
	m.setStatus(status)

	cmds := []tea.Cmd{m.load(s)}
	if f := m.form; f != nil && m.mode == ModeForm {
		m.form = nil
		m.mode = m.back
		if msg.kind == mutationEdit && m.mode == ModeDetail {
			cmds = append(cmds, detailCmd(m.ctx, m.workers, s, f.entry))
		}
	}
	if msg.kind == mutationDelete && m.mode == ModeDetail {
		m.mode = ModeList
		m.detail = browse.Entry{}
	}
	return m, tea.Batch(cmds...)
}

func (m *Model) switchSection(delta int) tea.Cmd {
	n := len(m.sections)
	if n == 0 {
		return nil
	}
	m.active = (m.active + delta + n) % n
	s := m.sections[m.active]
	if m.snapshot.HasLoaded(s.Relation()) {
		return nil
	}
	return m.load(s)
}

func (m Model) load(s browse.Section) tea.Cmd {
	m.loading[s.Relation()] = true
	return loadCmd(m.ctx, m.workers, m.store, s)
}

func (m Model) section() browse.Section {
	if m.active < 0 || m.active >= len(m.sections) {
		return nil
	}
	return m.sections[m.active]
}

func (m Model) sectionFor(rel string) browse.Section {
	for _, s := range m.sections {
		if s.Relation() == rel {
			return s
		}
	}
	return nil
}

func (m Model) labelFor(rel string) string {
	if s := m.sectionFor(rel); s != nil {
		return s.Label()
	}
	return rel
}

func (m Model) entries() []browse.Entry {
	s := m.section()
	if s == nil {
		return nil
	}
	return m.snapshot.Entries[s.Relation()]
}

func (m Model) selectedEntry() (browse.Entry, bool) {
	entries := m.entries()
	idx := m.selected[m.section().Relation()]
	if idx < 0 || idx >= len(entries) {
		return browse.Entry{}, false
	}
	return entries[idx], true
}

func (m Model) clampSelection() {
	for rel, idx := range m.selected {
		n := len(m.snapshot.Entries[rel])
		if idx >= n {
			m.selected[rel] = max(n-1, 0)
		}
	}
}

func (m Model) currentUser() string {
	if m.client == nil {
		return ""
	}
	return m.client.User()
}

func (m *Model) setStatus(text string) {
	m.status = text
	m.failed = false
}

func (m *Model) setError(text string) {
	m.status = text
	m.failed = true
	m.logger.Warn("ui action failed", "detail", text)
}

func (m *Model) savePrefs() {
	if err := prefs.Save(m.prefsPath, m.prefs); err != nil {
		m.logger.Warn("save prefs failed", "path", m.prefsPath, "error", err)
	}
}

// Run starts the Bubble Tea program and blocks until the user quits or the
// context is cancelled.
func Run(opts Options) error {
	m := New(opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(m.ctx))
	_, err := p.Run()
	if err != nil && m.ctx.Err() != nil {
		return nil
	}
	return err
}
