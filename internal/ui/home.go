// Package ui is the Bubble Tea dashboard: the instance list with a live
// preview, the new-agent wizard, and the settings panel.
package ui

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/agentssh/agentssh/internal/agent"
	"github.com/agentssh/agentssh/internal/config"
	"github.com/agentssh/agentssh/internal/logging"
	"github.com/agentssh/agentssh/internal/session"
	"github.com/agentssh/agentssh/internal/spawn"
	"github.com/agentssh/agentssh/internal/statedb"
)

var uiLog = logging.ForComponent(logging.CompUI)

// Mux is the tmux surface the dashboard drives directly.
type Mux interface {
	IsAvailable() error
	KillSession(ctx context.Context, name string) error
	Attach(ctx context.Context, name string) error
}

// Refresher produces session snapshots.
type Refresher interface {
	Refresh(ctx context.Context) (session.Snapshot, error)
}

// Launcher starts agents.
type Launcher interface {
	Launch(ctx context.Context, def agent.Definition, dir string, opts spawn.Options) (spawn.Launched, error)
}

// History is the persisted spawn and completion log.
type History interface {
	Spawn(sessionName string) (statedb.SpawnRow, bool, error)
	DeleteSpawn(sessionName string) error
	LastCompletions() (map[string]time.Time, error)
	GetMeta(key string) (string, error)
}

// Deps are the collaborators Home needs. History, Cloner, ConfigChanges and
// Done may be nil.
type Deps struct {
	Mux            Mux
	Directory      Refresher
	Launcher       Launcher
	History        History
	Cloner         spawn.Cloner
	RemoveWorktree func(path string) error
	IsWorktreePath func(path string) bool
	ConfigChanges  <-chan struct{}
	Done           <-chan AgentDoneMsg
	SaveConfig     func(*config.Config) error
	LoadConfig     func() (*config.Config, error)
	// Copy puts text on the clipboard and names the method used.
	Copy func(text string) (string, error)
	// Notice is shown in the status line at startup.
	Notice string
}

// AgentDoneMsg is delivered when the activity detector decides an agent
// finished.
type AgentDoneMsg struct {
	Session string
	At      time.Time
}

type (
	tickMsg     time.Time
	snapshotMsg struct {
		snap        session.Snapshot
		err         error
		tmuxErr     error
		completions map[string]time.Time
		selectName  string
	}
	launchResultMsg struct {
		def      agent.Definition
		launched spawn.Launched
		err      error
	}
	killResultMsg struct {
		name        string
		worktree    string
		err         error
		worktreeErr error
	}
	attachDoneMsg struct {
		name string
		err  error
	}
	configChangedMsg struct{}
	themeChangedMsg  bool
)

const pageSize = 10

// Home is the root model.
type Home struct {
	ctx  context.Context
	deps Deps
	cfg  *config.Config
	keys keyMap
	now  func() time.Time

	width, height int

	snap        session.Snapshot
	visible     []int // indexes into snap.Instances, managed first
	cursor      int
	completions map[string]time.Time
	loaded      bool
	refreshing  bool
	tmuxErr     error
	refreshErr  error

	status    string
	statusErr bool

	filter    textinput.Model
	filtering bool

	wizard   *WizardDialog
	settings *SettingsPanel
	confirm  *ConfirmDialog
	themes   *ThemeWatcher
}

// NewHome builds the dashboard. cfg is copied.
func NewHome(ctx context.Context, cfg *config.Config, deps Deps) *Home {
	if deps.SaveConfig == nil {
		deps.SaveConfig = config.Save
	}
	if deps.LoadConfig == nil {
		deps.LoadConfig = config.Load
	}

	fi := textinput.New()
	fi.Placeholder = "filter agents..."
	fi.Prompt = "/ "
	fi.CharLimit = 100

	h := &Home{
		ctx:         ctx,
		deps:        deps,
		cfg:         cfg.Clone(),
		keys:        defaultKeyMap(),
		now:         time.Now,
		completions: make(map[string]time.Time),
		filter:      fi,
		confirm:     NewConfirmDialog(),
	}
	if deps.Notice != "" {
		h.setError(deps.Notice)
	}
	InitTheme(h.cfg.ResolveTheme())
	return h
}

// Init starts the refresh loop and the watchers.
func (h *Home) Init() tea.Cmd {
	cmds := []tea.Cmd{h.refreshCmd(""), h.tick()}
	if h.deps.ConfigChanges != nil {
		cmds = append(cmds, listenForConfig(h.deps.ConfigChanges))
	}
	if h.deps.Done != nil {
		cmds = append(cmds, listenForDone(h.deps.Done))
	}
	if h.cfg.GetTheme() == "system" {
		h.themes = NewThemeWatcher(h.ctx)
		cmds = append(cmds, listenForTheme(h.themes))
	}
	return tea.Batch(cmds...)
}

func (h *Home) tick() tea.Cmd {
	interval := time.Duration(h.cfg.GetRefreshInterval()) * time.Second
	return tea.Tick(interval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func listenForConfig(ch <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return configChangedMsg{}
	}
}

func listenForTheme(tw *ThemeWatcher) tea.Cmd {
	if tw == nil {
		return nil
	}
	return func() tea.Msg {
		isDark, ok := <-tw.Changes()
		if !ok {
			return nil
		}
		return themeChangedMsg(isDark)
	}
}

// refreshCmd loads a snapshot off the event loop. selectName, when set, moves
// the cursor to that session once it appears.
func (h *Home) refreshCmd(selectName string) tea.Cmd {
	h.refreshing = true
	ctx, mux, dir, hist := h.ctx, h.deps.Mux, h.deps.Directory, h.deps.History
	return func() tea.Msg {
		msg := snapshotMsg{selectName: selectName}
		if err := mux.IsAvailable(); err != nil {
			msg.tmuxErr = err
			return msg
		}
		msg.snap, msg.err = dir.Refresh(ctx)
		if hist != nil {
			if c, err := hist.LastCompletions(); err == nil {
				msg.completions = c
			} else {
				uiLog.Debug("load_completions_failed", slog.String("error", err.Error()))
			}
		}
		return msg
	}
}

func (h *Home) launchCmd(def agent.Definition, dir string) tea.Cmd {
	ctx, l := h.ctx, h.deps.Launcher
	opts := spawn.Options{
		GitWorktrees:   h.cfg.GitWorktrees,
		TitleInjection: h.cfg.GetTitleInjectionEnabled(),
		InjectionDelay: time.Duration(h.cfg.GetTitleInjectionDelay()) * time.Second,
	}
	return func() tea.Msg {
		launched, err := l.Launch(ctx, def, dir, opts)
		return launchResultMsg{def: def, launched: launched, err: err}
	}
}

func (h *Home) killCmd(name, worktree string) tea.Cmd {
	ctx, mux, hist, remove := h.ctx, h.deps.Mux, h.deps.History, h.deps.RemoveWorktree
	return func() tea.Msg {
		res := killResultMsg{name: name, worktree: worktree}
		if res.err = mux.KillSession(ctx, name); res.err != nil {
			return res
		}
		if worktree != "" && remove != nil {
			res.worktreeErr = remove(worktree)
		}
		if hist != nil {
			if err := hist.DeleteSpawn(name); err != nil {
				uiLog.Debug("delete_spawn_failed", slog.String("session", name), slog.String("error", err.Error()))
			}
		}
		return res
	}
}

// attachCmd hands the terminal to tmux through tea.Exec.
type attachCmd struct {
	ctx  context.Context
	mux  Mux
	name string
}

func (a attachCmd) Run() error { return a.mux.Attach(a.ctx, a.name) }
func (a attachCmd) SetStdin(io.Reader) {}
func (a attachCmd) SetStdout(io.Writer) {}
func (a attachCmd) SetStderr(io.Writer) {}

func (h *Home) attach(inst session.Instance) tea.Cmd {
	name := inst.Name()
	uiLog.Info("attach", slog.String("session", name))
	return tea.Exec(attachCmd{ctx: h.ctx, mux: h.deps.Mux, name: name}, func(err error) tea.Msg {
		return attachDoneMsg{name: name, err: err}
	})
}

func (h *Home) setStatus(s string) {
	h.status = s
	h.statusErr = false
}

func (h *Home) setError(s string) {
	h.status = s
	h.statusErr = true
}

// Update handles one message.
func (h *Home) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		h.width, h.height = msg.Width, msg.Height
		if h.wizard != nil {
			h.wizard.SetSize(msg.Width, msg.Height)
		}
		if h.settings != nil {
			h.settings.SetSize(msg.Width, msg.Height)
		}
		h.filter.Width = max(msg.Width/3, 20)
		return h, nil

	case tickMsg:
		cmds := []tea.Cmd{h.tick()}
		if !h.refreshing {
			cmds = append(cmds, h.refreshCmd(""))
		}
		return h, tea.Batch(cmds...)

	case snapshotMsg:
		h.applySnapshot(msg)
		return h, nil

	case launchResultMsg:
		if msg.err != nil {
			h.setError(spawn.FailedStatus(msg.def, msg.err))
			return h, nil
		}
		h.setStatus(spawn.StartedStatus(msg.def, msg.launched))
		return h, h.refreshCmd(msg.launched.SessionName)

	case killResultMsg:
		switch {
		case msg.err != nil:
			h.setError(fmt.Sprintf("Failed to stop %s: %v", msg.name, msg.err))
		case msg.worktreeErr != nil:
			h.setError(fmt.Sprintf("Stopped %s; worktree cleanup failed: %v", msg.name, msg.worktreeErr))
		case msg.worktree != "":
			h.setStatus(fmt.Sprintf("Stopped %s and removed %s", msg.name, truncatePath(msg.worktree, 40)))
		default:
			h.setStatus("Stopped " + msg.name)
		}
		delete(h.completions, msg.name)
		return h, h.refreshCmd("")

	case attachDoneMsg:
		if msg.err != nil {
			h.setError(fmt.Sprintf("Attach failed for %s: %v", msg.name, msg.err))
		} else {
			h.setStatus("Detached from " + msg.name)
		}
		return h, h.refreshCmd("")

	case AgentDoneMsg:
		h.completions[msg.Session] = msg.At
		title := msg.Session
		if i := h.snap.Index(msg.Session); i >= 0 {
			title = h.snap.Instances[i].Title()
		}
		h.setStatus(title + " finished")
		return h, listenForDone(h.deps.Done)

	case configChangedMsg:
		h.reloadConfig()
		return h, listenForConfig(h.deps.ConfigChanges)

	case themeChangedMsg:
		if h.cfg.GetTheme() == "system" {
			if msg {
				InitTheme(string(ThemeDark))
			} else {
				InitTheme(string(ThemeLight))
			}
		}
		return h, listenForTheme(h.themes)

	case tea.KeyMsg:
		return h.handleKey(msg)
	}
	return h, nil
}

func (h *Home) applySnapshot(msg snapshotMsg) {
	h.refreshing = false
	h.loaded = true
	h.tmuxErr = msg.tmuxErr
	if msg.tmuxErr != nil {
		h.snap = session.Snapshot{}
		h.applyFilter()
		return
	}

	selected := h.selectedName()
	h.snap = msg.snap
	h.refreshErr = msg.err
	if msg.err != nil {
		h.setError(session.FailedStatus(msg.err))
	} else if h.statusErr && strings.HasPrefix(h.status, "refresh failed") {
		h.setStatus("")
	}
	if msg.completions != nil {
		for name, at := range msg.completions {
			if at.After(h.completions[name]) {
				h.completions[name] = at
			}
		}
	}

	h.applyFilter()
	if msg.selectName != "" {
		selected = msg.selectName
	}
	h.selectByName(selected)
}

func (h *Home) reloadConfig() {
	cfg, err := h.deps.LoadConfig()
	if err != nil {
		h.setError("Config reload failed: " + err.Error())
		uiLog.Warn("config_reload_failed", slog.String("error", err.Error()))
	}
	if cfg == nil {
		return
	}
	h.cfg = cfg.Clone()
	InitTheme(h.cfg.ResolveTheme())
	if err == nil {
		h.setStatus("Config reloaded")
	}
}

// applyFilter rebuilds the visible rows from the snapshot and filter query.
func (h *Home) applyFilter() {
	idx := filterInstances(h.filter.Value(), h.snap.Instances)
	sort.SliceStable(idx, func(a, b int) bool {
		ma, mb := h.snap.Instances[idx[a]].Managed, h.snap.Instances[idx[b]].Managed
		if ma != mb {
			return ma
		}
		return idx[a] < idx[b]
	})
	h.visible = idx
	h.clampCursor()
}

func (h *Home) clampCursor() {
	if h.cursor >= len(h.visible) {
		h.cursor = len(h.visible) - 1
	}
	if h.cursor < 0 {
		h.cursor = 0
	}
}

func (h *Home) selectedInstance() (session.Instance, bool) {
	if h.cursor < 0 || h.cursor >= len(h.visible) {
		return session.Instance{}, false
	}
	return h.snap.Instances[h.visible[h.cursor]], true
}

func (h *Home) selectedName() string {
	if inst, ok := h.selectedInstance(); ok {
		return inst.Name()
	}
	return ""
}

func (h *Home) selectByName(name string) {
	if name == "" {
		return
	}
	for pos, i := range h.visible {
		if h.snap.Instances[i].Name() == name {
			h.cursor = pos
			return
		}
	}
}

func (h *Home) showingWarning() bool {
	return h.loaded && (h.tmuxErr != nil || (h.refreshErr == nil && len(h.snap.Available) == 0))
}

func (h *Home) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case h.wizard != nil:
		return h.handleWizardKey(msg)
	case h.confirm.IsVisible():
		return h.handleConfirmKey(msg)
	case h.settings != nil:
		return h.handleSettingsKey(msg)
	case h.filtering:
		return h.handleFilterKey(msg)
	case h.showingWarning():
		switch {
		case key.Matches(msg, h.keys.Quit), msg.String() == "esc":
			return h, tea.Quit
		case key.Matches(msg, h.keys.Refresh):
			return h, h.refreshCmd("")
		}
		return h, nil
	}

	n := len(h.visible)
	switch {
	case key.Matches(msg, h.keys.Quit):
		return h, tea.Quit
	case key.Matches(msg, h.keys.Down):
		if n > 0 {
			h.cursor = (h.cursor + 1) % n
		}
	case key.Matches(msg, h.keys.Up):
		if n > 0 {
			h.cursor = (h.cursor - 1 + n) % n
		}
	case key.Matches(msg, h.keys.PageDown):
		h.cursor = min(h.cursor+pageSize, n-1)
		h.clampCursor()
	case key.Matches(msg, h.keys.PageUp):
		h.cursor = max(h.cursor-pageSize, 0)
	case key.Matches(msg, h.keys.Attach):
		if inst, ok := h.selectedInstance(); ok {
			return h, h.attach(inst)
		}
	case key.Matches(msg, h.keys.New):
		h.openWizard()
	case key.Matches(msg, h.keys.Kill):
		if inst, ok := h.selectedInstance(); ok {
			h.confirm.ShowKill(inst.Name(), inst.Title(), h.worktreeFor(inst))
		} else {
			h.setError("Select an instance row first")
		}
	case key.Matches(msg, h.keys.Refresh):
		return h, h.refreshCmd("")
	case key.Matches(msg, h.keys.Yank):
		if inst, ok := h.selectedInstance(); ok {
			h.copyAttachCommand(inst)
		}
	case key.Matches(msg, h.keys.Settings):
		h.settings = NewSettingsPanel(h.cfg)
		h.settings.SetSize(h.width, h.height)
	case key.Matches(msg, h.keys.Filter):
		h.filtering = true
		return h, h.filter.Focus()
	case msg.String() == "esc":
		if h.filter.Value() != "" {
			h.filter.SetValue("")
			h.applyFilter()
		}
	}
	return h, nil
}

// worktreeFor returns the agentssh worktree backing inst, if any. The spawn
// record is authoritative; the pane path covers sessions started before
// history existed.
func (h *Home) worktreeFor(inst session.Instance) string {
	if !inst.Managed {
		return ""
	}
	if h.deps.History != nil {
		if row, ok, err := h.deps.History.Spawn(inst.Name()); err == nil && ok && row.WorktreePath != "" {
			return row.WorktreePath
		}
	}
	if h.deps.IsWorktreePath != nil && h.deps.IsWorktreePath(inst.Session.PaneCurrentPath) {
		return inst.Session.PaneCurrentPath
	}
	return ""
}

// AttachCommand is the shell command that attaches to name from another
// terminal.
func AttachCommand(name string) string {
	return "tmux attach -t '=" + strings.ReplaceAll(name, "'", `'\''`) + "'"
}

func (h *Home) copyAttachCommand(inst session.Instance) {
	if h.deps.Copy == nil {
		h.setError("Clipboard unavailable")
		return
	}
	method, err := h.deps.Copy(AttachCommand(inst.Name()))
	if err != nil {
		h.setError("Copy failed: " + err.Error())
		return
	}
	h.setStatus(fmt.Sprintf("Copied attach command for %s (%s)", inst.Title(), method))
}

func (h *Home) openWizard() {
	if len(h.snap.Available) == 0 {
		h.setError("No supported agent CLIs found in PATH")
		return
	}
	var preferred string
	if h.deps.History != nil {
		preferred, _ = h.deps.History.GetMeta(statedb.MetaLastAgent)
	}
	w, err := spawn.NewWizard(h.snap.Available, h.cfg.GetSpawnDir(), preferred, h.deps.Cloner)
	if err != nil {
		h.setError(err.Error())
		return
	}
	h.wizard = NewWizardDialog(w)
	h.wizard.SetSize(h.width, h.height)
}

func (h *Home) handleWizardKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	out := h.wizard.Update(msg)
	if out.Status != "" {
		if out.Err {
			h.setError(out.Status)
		} else {
			h.setStatus(out.Status)
		}
	}
	switch out.Kind {
	case spawn.Cancelled:
		h.wizard = nil
	case spawn.Launch:
		h.wizard = nil
		h.setStatus(fmt.Sprintf("Starting %s in %s...", out.Agent.Label, truncatePath(out.Dir, 40)))
		return h, h.launchCmd(out.Agent, out.Dir)
	}
	return h, nil
}

func (h *Home) handleConfirmKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		name, wt := h.confirm.Target(), h.confirm.worktree
		h.confirm.Hide()
		return h, h.killCmd(name, wt)
	case "n", "N", "esc", "q":
		h.confirm.Hide()
	}
	return h, nil
}

func (h *Home) handleSettingsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	res, cmd := h.settings.Update(msg)
	switch {
	case res.Close:
		h.settings = nil
	case res.Err != nil:
		h.setError("Invalid value: " + res.Err.Error())
	case res.Changed:
		cfg := h.settings.Config()
		if err := h.deps.SaveConfig(cfg); err != nil {
			h.setError("Save failed: " + err.Error())
			return h, cmd
		}
		h.cfg = cfg.Clone()
		InitTheme(h.cfg.ResolveTheme())
		h.setStatus("Settings saved")
		if h.cfg.GetTheme() == "system" && h.themes == nil {
			h.themes = NewThemeWatcher(h.ctx)
			return h, tea.Batch(cmd, listenForTheme(h.themes))
		}
	}
	return h, cmd
}

func (h *Home) handleFilterKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		h.filtering = false
		h.filter.Blur()
		h.filter.SetValue("")
		h.applyFilter()
		return h, nil
	case "enter":
		h.filtering = false
		h.filter.Blur()
		return h, nil
	case "up", "down":
		h.filtering = false
		h.filter.Blur()
		return h.handleKey(msg)
	}
	var cmd tea.Cmd
	h.filter, cmd = h.filter.Update(msg)
	h.applyFilter()
	return h, cmd
}

// View renders the dashboard.
func (h *Home) View() string {
	if h.width == 0 {
		return "Loading..."
	}
	switch {
	case h.showingWarning():
		return centerOverlay(h.width, h.height, h.warningView())
	case h.wizard != nil:
		return centerOverlay(h.width, h.height, h.wizard.View())
	case h.confirm.IsVisible():
		return centerOverlay(h.width, h.height, h.confirm.View())
	}

	header := h.headerView()
	footer := h.footerView()
	bodyHeight := h.height - lipgloss.Height(header) - lipgloss.Height(footer)
	if bodyHeight < 3 {
		bodyHeight = 3
	}

	var body string
	if h.settings != nil {
		body = lipgloss.NewStyle().Height(bodyHeight).Padding(0, 2).Render(h.settings.View())
	} else {
		listWidth := max(h.width*28/100, 24)
		previewWidth := h.width - listWidth - 2
		body = lipgloss.JoinHorizontal(lipgloss.Top,
			lipgloss.NewStyle().Width(listWidth).Height(bodyHeight).Render(h.listView(listWidth, bodyHeight)),
			"  ",
			lipgloss.NewStyle().Width(previewWidth).Height(bodyHeight).Render(h.previewView(previewWidth, bodyHeight)),
		)
	}
	return lipgloss.JoinVertical(lipgloss.Left, header, body, footer)
}

func (h *Home) headerView() string {
	left := TitleStyle.Render("agentssh")
	right := DimStyle.Render(h.snap.Status())
	if !h.loaded {
		right = DimStyle.Render("loading...")
	}
	gap := h.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return left + strings.Repeat(" ", gap) + right + "\n"
}

func (h *Home) footerView() string {
	var status string
	switch {
	case h.status == "":
	case h.statusErr:
		status = ErrorStyle.Render(truncate(h.status, h.width))
	default:
		status = SuccessStyle.Render(truncate(h.status, h.width))
	}

	var line string
	switch {
	case h.filtering:
		line = h.filter.View()
	case h.settings != nil:
		line = ""
	default:
		line = renderHelp(h.keys.shortHelp())
		if q := h.filter.Value(); q != "" {
			line = AccentStyle.Render("/"+q) + MenuDescStyle.Render("   esc clears   ") + line
		}
	}
	rule := DimStyle.Render(strings.Repeat("─", max(h.width, 0)))
	return "\n" + status + "\n" + rule + "\n" + line
}

func (h *Home) listView(width, height int) string {
	var b strings.Builder
	if len(h.visible) == 0 {
		switch {
		case !h.loaded:
			b.WriteString(DimStyle.Render("loading..."))
		case h.filter.Value() != "":
			b.WriteString(DimStyle.Render("no matches"))
		default:
			b.WriteString(DimStyle.Render("no agents running"))
			b.WriteString("\n\n")
			b.WriteString(MenuKeyStyle.Render("n") + MenuDescStyle.Render(" start one"))
		}
		return b.String()
	}

	hasManaged := h.snap.Instances[h.visible[0]].Managed
	hasExternal := !h.snap.Instances[h.visible[len(h.visible)-1]].Managed

	start, end := visibleWindow(len(h.visible), h.cursor, height-4)
	if hasManaged {
		b.WriteString(AccentStyle.Render("~ managed ~"))
	} else {
		b.WriteString(AccentStyle.Render("~ sessions ~"))
	}
	b.WriteString("\n")
	if start > 0 {
		b.WriteString(DimStyle.Render("..."))
		b.WriteString("\n")
	}

	shownExternal := false
	for pos := start; pos < end; pos++ {
		inst := h.snap.Instances[h.visible[pos]]
		if !inst.Managed && hasManaged && hasExternal && !shownExternal {
			b.WriteString("\n")
			b.WriteString(AccentStyle.Render("~ external ~"))
			b.WriteString("\n")
			shownExternal = true
		}

		marker := " "
		if inst.Session.Attached {
			marker = "●"
		}
		label := marker + " " + truncate(inst.Title(), width-4)
		if pos == h.cursor {
			b.WriteString(SelectedRowStyle.Width(width).Render(label))
		} else {
			b.WriteString(TextStyle.Render(label))
		}
		b.WriteString("\n")
	}
	if end < len(h.visible) {
		b.WriteString(DimStyle.Render("..."))
		b.WriteString("\n")
	}
	return b.String()
}

func (h *Home) previewView(width, height int) string {
	inst, ok := h.selectedInstance()
	if !ok {
		return ""
	}

	var b strings.Builder
	b.WriteString(PreviewHeaderStyle.Render(truncate(inst.Title(), width)))
	b.WriteString("\n")

	meta := []string{inst.Agent.Label, inst.ShortName()}
	if inst.Session.Windows > 1 {
		meta = append(meta, fmt.Sprintf("%d windows", inst.Session.Windows))
	}
	if inst.Session.Attached {
		meta = append(meta, "attached")
	}
	if done := doneLabel(h.completions[inst.Name()], h.now()); done != "" {
		meta = append(meta, done)
	}
	b.WriteString(PreviewMetaStyle.Render(truncate(strings.Join(meta, " · "), width)))
	b.WriteString("\n")
	if inst.Session.PaneCurrentPath != "" {
		b.WriteString(PreviewMetaStyle.Render(truncatePath(inst.Session.PaneCurrentPath, width)))
		b.WriteString("\n")
	}
	b.WriteString(DimStyle.Render(strings.Repeat("─", max(width, 0))))
	b.WriteString("\n")

	lines := inst.Session.Preview
	room := height - 5
	if room < 1 {
		room = 1
	}
	if len(lines) > room {
		lines = lines[len(lines)-room:]
	}
	if len(lines) == 0 {
		b.WriteString(DimStyle.Render(inst.Session.LastLine))
	}
	for _, l := range lines {
		b.WriteString(TextStyle.Render(truncate(l, width)))
		b.WriteString("\n")
	}
	return b.String()
}

func (h *Home) warningView() string {
	var title, message string
	var details []string
	if h.tmuxErr != nil {
		title = "tmux not found"
		message = "agentssh requires tmux to manage agent sessions."
		details = []string{
			"install via your package manager:",
			"  brew install tmux",
			"  apt install tmux",
			"  pacman -S tmux",
		}
	} else {
		title = "no agent CLIs found"
		message = "agentssh needs at least one supported agent CLI in PATH."
		details = []string{"supported agents:"}
		for _, def := range agent.Builtins() {
			details = append(details, fmt.Sprintf("  %-9s - %s", def.Binary, def.Label))
		}
		details = append(details, "", "or add [[agents]] entries to config.toml")
	}

	var b strings.Builder
	b.WriteString(WarningStyle.Render("! " + title))
	b.WriteString("\n\n")
	b.WriteString(TextStyle.Render(message))
	b.WriteString("\n\n")
	for _, d := range details {
		b.WriteString(DimStyle.Render(d))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(renderHint("r", "retry", "q", "quit"))
	return WarningBoxStyle.Render(b.String())
}
