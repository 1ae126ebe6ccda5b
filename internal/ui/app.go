package ui

import (
	"fmt"
	"os"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/saravenpi/e63/internal/controller"
	"github.com/saravenpi/e63/internal/models"
	"go.uber.org/zap"
)

const (
	defaultWidth  = 80
	defaultHeight = 30

	// headerLines is the tab title plus its bottom margin.
	headerLines = 2
	// footerLines is the tab bar plus the help line.
	footerLines = 2
	// listTop is the first screen line of a list: below the header and the
	// filter input.
	listTop = headerLines + 1

	composeHeight = 3
)

var (
	forceQuitKey = key.NewBinding(key.WithKeys("ctrl+c"))
	quitKey      = key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "выход"))

	filterApplyKey = key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "готово"))
	filterResetKey = key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "сбросить"))
	filterUpKey    = key.NewBinding(key.WithKeys("up"))
	filterDownKey  = key.NewBinding(key.WithKeys("down"))

	pickerCancelKey = key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "отмена"))
)

type Option func(*App)

// WithAttachDir sets the directory the file picker starts in.
func WithAttachDir(dir string) Option {
	return func(a *App) {
		if dir != "" {
			a.picker.CurrentDirectory = dir
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(a *App) { a.logger = l }
}

// App is the root Bubble Tea model. All state lives in the controller; App
// only owns the widgets that edit or display it.
type App struct {
	ctrl   *controller.Controller
	logger *zap.Logger

	filter   textinput.Model
	compose  textarea.Model
	viewport viewport.Model
	spinner  spinner.Model
	picker   filepicker.Model
	help     help.Model

	width   int
	height  int
	picking bool
	err     error

	latest    map[int64]lastMessage
	shownID   int64
	shownOpen bool
	follow    bool
}

func New(ctrl *controller.Controller, opts ...Option) *App {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = statusStyle

	ti := textinput.New()
	ti.Prompt = "/ "
	ti.Placeholder = "Поиск"
	ti.CharLimit = 64

	ta := textarea.New()
	ta.Placeholder = "Сообщение..."
	ta.CharLimit = 1000
	ta.SetHeight(composeHeight)
	ta.ShowLineNumbers = false
	// Plain enter sends; modified enter breaks the line.
	ta.KeyMap.InsertNewline = key.NewBinding(key.WithKeys("alt+enter", "ctrl+j"))

	vp := viewport.New(defaultWidth, defaultHeight)

	fp := filepicker.New()
	fp.AllowedTypes = []string{".png", ".jpg", ".jpeg", ".gif", ".bmp", ".webp"}
	if home, err := os.UserHomeDir(); err == nil {
		fp.CurrentDirectory = home
	}

	a := &App{
		ctrl:     ctrl,
		logger:   zap.NewNop(),
		filter:   ti,
		compose:  ta,
		viewport: vp,
		spinner:  s,
		picker:   fp,
		help:     help.New(),
		width:    defaultWidth,
		height:   defaultHeight,
		latest:   make(map[int64]lastMessage),
	}
	for _, opt := range opts {
		opt(a)
	}

	ctrl.OnAppend(a.onAppend)
	a.sync()
	return a
}

func (a *App) Init() tea.Cmd {
	return tea.SetWindowTitle("e63")
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.layout()
		a.refreshMessages()
		var cmd tea.Cmd
		a.picker, cmd = a.picker.Update(msg)
		return a, cmd

	case tea.KeyMsg:
		return a, a.handleKey(msg)

	case tea.MouseMsg:
		return a, a.handleMouse(msg)

	case fileReadMsg:
		return a, a.attach(msg)

	case imageDecodedMsg:
		a.ctrl.CompleteImage(msg.job, msg.ref, msg.err)
		if msg.err != nil && msg.job != nil {
			a.err = fmt.Errorf("не удалось прикрепить %s: %w", msg.job.FileName, msg.err)
		}
		a.sync()
		return a, nil

	case spinner.TickMsg:
		if a.ctrl.PendingImages() == 0 {
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd
	}

	return a, a.forward(msg)
}

func (a *App) handleKey(msg tea.KeyMsg) tea.Cmd {
	if key.Matches(msg, forceQuitKey) {
		return tea.Quit
	}
	a.err = nil

	if a.picking {
		return a.handlePickerKey(msg)
	}
	if a.filter.Focused() {
		return a.handleFilterKey(msg)
	}
	if a.ctrl.Mode() == controller.Browsing && key.Matches(msg, quitKey) {
		return tea.Quit
	}

	eff := a.ctrl.DispatchKey(msg.String())

	var cmd tea.Cmd
	switch {
	case eff.FocusFilter:
		cmd = a.filter.Focus()
	case eff.FocusDraft:
		cmd = a.compose.Focus()
	case eff.PickFile:
		cmd = a.openPicker()
	case !eff.Handled:
		cmd = a.forwardUnhandled(msg)
	}

	a.sync()
	return cmd
}

// forwardUnhandled gives a key no binding claimed to the widget that has
// focus in the current mode.
func (a *App) forwardUnhandled(msg tea.KeyMsg) tea.Cmd {
	var cmd tea.Cmd
	switch a.ctrl.Mode() {
	case controller.Composing:
		a.compose, cmd = a.compose.Update(msg)
		a.ctrl.UpdateDraft(a.compose.Value())
	case controller.ConversationOpen:
		a.viewport, cmd = a.viewport.Update(msg)
	}
	return cmd
}

func (a *App) handleFilterKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, filterApplyKey):
		a.filter.Blur()
		return nil
	case key.Matches(msg, filterResetKey):
		a.filter.Blur()
		a.ctrl.SetFilter("")
		a.sync()
		return nil
	case key.Matches(msg, filterUpKey):
		a.ctrl.MoveHighlight(-1)
		return nil
	case key.Matches(msg, filterDownKey):
		a.ctrl.MoveHighlight(1)
		return nil
	}

	var cmd tea.Cmd
	a.filter, cmd = a.filter.Update(msg)
	if v := a.filter.Value(); v != a.ctrl.Filter() {
		a.ctrl.SetFilter(v)
	}
	return cmd
}

func (a *App) handleMouse(msg tea.MouseMsg) tea.Cmd {
	if a.picking {
		return nil
	}
	if a.ctrl.Mode() != controller.Browsing {
		var cmd tea.Cmd
		a.viewport, cmd = a.viewport.Update(msg)
		return cmd
	}
	if msg.Action != tea.MouseActionPress || msg.Button != tea.MouseButtonLeft {
		return nil
	}

	if msg.Y == a.tabBarRow() {
		if tab, ok := tabAt(msg.X); ok {
			a.filter.Blur()
			a.ctrl.SetActiveTab(tab)
			a.sync()
		}
		return nil
	}

	if row, ok := a.rowAt(msg.Y); ok {
		a.filter.Blur()
		a.ctrl.SelectRow(row)
		a.sync()
	}
	return nil
}

// forward passes non-input messages, such as cursor blinks and directory
// listings, to the widgets that are active.
func (a *App) forward(msg tea.Msg) tea.Cmd {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	if a.picking {
		a.picker, cmd = a.picker.Update(msg)
		cmds = append(cmds, cmd)
	}
	if a.compose.Focused() {
		a.compose, cmd = a.compose.Update(msg)
		cmds = append(cmds, cmd)
	}
	if a.filter.Focused() {
		a.filter, cmd = a.filter.Update(msg)
		cmds = append(cmds, cmd)
	}
	return tea.Batch(cmds...)
}

func (a *App) onAppend(chatID int64, msg models.Message) {
	a.latest[chatID] = chatPreview(msg)
	if id, open := a.ctrl.OpenConversationID(); open && id == chatID {
		a.refreshMessages()
		a.follow = true
	}
}

// sync brings the widgets in line with the controller after an operation.
func (a *App) sync() {
	if a.filter.Value() != a.ctrl.Filter() {
		a.filter.SetValue(a.ctrl.Filter())
	}
	if a.filter.Focused() && (a.ctrl.Mode() != controller.Browsing || !a.ctrl.ActiveTab().HasList()) {
		a.filter.Blur()
	}

	if a.compose.Value() != a.ctrl.Draft() {
		a.compose.SetValue(a.ctrl.Draft())
	}
	if !a.ctrl.IsComposing() && a.compose.Focused() {
		a.compose.Blur()
	}

	a.layout()

	id, open := a.ctrl.OpenConversationID()
	if open != a.shownOpen || id != a.shownID {
		a.shownID, a.shownOpen = id, open
		a.refreshMessages()
		a.follow = true
	}
	if a.follow {
		a.viewport.GotoBottom()
		a.follow = false
	}
}

func (a *App) layout() {
	a.filter.Width = a.width - 4
	a.compose.SetWidth(a.width)
	a.help.Width = a.width

	h := a.height - headerLines - 1
	if a.ctrl.IsComposing() {
		h -= composeHeight + 1
	}
	if a.ctrl.PendingImages() > 0 {
		h--
	}
	if h < 1 {
		h = 1
	}
	a.viewport.Width = a.width
	a.viewport.Height = h
}

func (a *App) refreshMessages() {
	snap := a.ctrl.Snapshot()
	if snap.Open == nil {
		a.viewport.SetContent("")
		return
	}
	a.viewport.SetContent(renderMessages(*snap.Open, snap.Messages, a.viewport.Width))
}

func (a *App) bodyHeight() int {
	h := a.height - headerLines - footerLines
	if h < 1 {
		h = 1
	}
	return h
}

func (a *App) visibleRows() int {
	n := (a.bodyHeight() - 1) / rowHeight
	if n < 1 {
		n = 1
	}
	return n
}

func (a *App) tabBarRow() int {
	return headerLines + a.bodyHeight()
}

func (a *App) listLen() int {
	switch a.ctrl.ActiveTab() {
	case models.TabChats:
		return len(a.ctrl.FilteredConversations())
	case models.TabContacts:
		return len(a.ctrl.FilteredContacts())
	default:
		return 0
	}
}

// rowAt maps a screen line to an index in the active list.
func (a *App) rowAt(y int) (int, bool) {
	if !a.ctrl.ActiveTab().HasList() || y < listTop {
		return 0, false
	}
	visible := a.visibleRows()
	rel := (y - listTop) / rowHeight
	if rel >= visible {
		return 0, false
	}
	n := a.listLen()
	idx := listOffset(a.ctrl.Highlight(), n, visible) + rel
	if idx >= n {
		return 0, false
	}
	return idx, true
}

func (a *App) View() string {
	if a.picking {
		return a.pickerView()
	}
	if a.ctrl.Mode() == controller.Browsing {
		return a.browseView()
	}
	return a.chatView()
}

func (a *App) browseView() string {
	tab := a.ctrl.ActiveTab()

	var body string
	switch tab {
	case models.TabChats:
		body = a.filter.View() + "\n" + a.renderChats(a.visibleRows())
	case models.TabContacts:
		body = a.filter.View() + "\n" + a.renderContacts(a.visibleRows())
	case models.TabProfile:
		body = renderProfile(a.ctrl.Snapshot().Profile, a.width)
	case models.TabSettings:
		body = renderSettings(a.ctrl.Snapshot().Settings, a.width)
	}
	h := a.bodyHeight()
	body = lipgloss.NewStyle().Height(h).MaxHeight(h).MaxWidth(a.width).Render(body)

	s := titleStyle.Render(tab.Title()) + "\n"
	s += body + "\n"
	s += renderTabBar(tab) + "\n"
	s += a.footer()
	return s
}

func (a *App) chatView() string {
	snap := a.ctrl.Snapshot()
	if snap.Open == nil {
		return ""
	}

	s := renderChatHeader(*snap.Open) + "\n\n"
	s += a.viewport.View() + "\n"

	if snap.PendingImages > 0 {
		s += fmt.Sprintf("%s Загрузка изображения...", a.spinner.View()) + "\n"
	}
	if snap.Composing {
		s += inputStyle.Render("Сообщение:") + "\n"
		s += a.compose.View() + "\n"
	}
	s += a.footer()
	return s
}

func (a *App) pickerView() string {
	s := titleStyle.Render("Выберите изображение") + "\n"
	s += a.picker.View() + "\n"
	if a.err != nil {
		return s + errorStyle.Render(a.err.Error())
	}
	return s + a.help.ShortHelpView([]key.Binding{pickerCancelKey})
}

func (a *App) footer() string {
	if a.err != nil {
		return errorStyle.Render(a.err.Error())
	}

	if a.filter.Focused() {
		return a.help.ShortHelpView([]key.Binding{filterApplyKey, filterResetKey})
	}

	mode := a.ctrl.Mode()
	bindings := a.ctrl.KeyMap().ShortHelp(mode)
	if mode == controller.Browsing {
		bindings = append(bindings, quitKey)
	}
	return a.help.ShortHelpView(bindings)
}
