package ui

import (
	"bytes"
	"errors"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/saravenpi/e63/internal/controller"
	"github.com/saravenpi/e63/internal/models"
	"github.com/saravenpi/e63/internal/seed"
	"github.com/saravenpi/e63/internal/store"
)

var (
	enterKey = tea.KeyMsg{Type: tea.KeyEnter}
	escKey   = tea.KeyMsg{Type: tea.KeyEsc}
	tabKey   = tea.KeyMsg{Type: tea.KeyTab}
	ctrlC    = tea.KeyMsg{Type: tea.KeyCtrlC}
)

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func newTestApp(t *testing.T) (*App, *controller.Controller, *store.Store) {
	t.Helper()
	ds, err := seed.Default()
	if err != nil {
		t.Fatalf("seed.Default() error: %v", err)
	}
	s, err := store.Open()
	if err != nil {
		t.Fatalf("store.Open() error: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	if err := s.SeedFrom(ds.Messages); err != nil {
		t.Fatal(err)
	}

	now := time.Date(2024, 3, 8, 9, 5, 0, 0, time.Local)
	ctrl := controller.New(ds, s, controller.WithClock(func() time.Time { return now }))
	a := New(ctrl, WithAttachDir(t.TempDir()))
	a.Update(tea.WindowSizeMsg{Width: 80, Height: 30})
	return a, ctrl, s
}

func press(a *App, keys ...tea.KeyMsg) tea.Cmd {
	var cmd tea.Cmd
	for _, k := range keys {
		_, cmd = a.Update(k)
	}
	return cmd
}

func isQuit(cmd tea.Cmd) bool {
	if cmd == nil {
		return false
	}
	_, ok := cmd().(tea.QuitMsg)
	return ok
}

// drain runs cmd and feeds decode results and spinner ticks back into a.
func drain(a *App, cmd tea.Cmd) {
	if cmd == nil {
		return
	}
	switch msg := cmd().(type) {
	case tea.BatchMsg:
		for _, c := range msg {
			drain(a, c)
		}
	case imageDecodedMsg, spinner.TickMsg:
		a.Update(msg)
	}
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 4, 4))); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func storedMessages(t *testing.T, s *store.Store, chatID int64) []models.Message {
	t.Helper()
	msgs, err := s.Messages(chatID)
	if err != nil {
		t.Fatal(err)
	}
	return msgs
}

func TestQuit(t *testing.T) {
	a, ctrl, _ := newTestApp(t)

	if !isQuit(press(a, ctrlC)) {
		t.Error("ctrl+c should quit")
	}
	if !isQuit(press(a, runes("q"))) {
		t.Error("q should quit while browsing")
	}

	press(a, enterKey, enterKey, runes("q"))
	if ctrl.Mode() != controller.Composing {
		t.Fatalf("mode = %s, want composing", ctrl.Mode())
	}
	if ctrl.Draft() != "q" {
		t.Errorf("q while composing should be typed, draft = %q", ctrl.Draft())
	}
	if !isQuit(press(a, ctrlC)) {
		t.Error("ctrl+c should quit while composing")
	}
}

func TestSendFlow(t *testing.T) {
	a, ctrl, s := newTestApp(t)

	press(a, enterKey)
	if id, open := ctrl.OpenConversationID(); !open || id != 1 {
		t.Fatalf("opened %d (%v), want 1", id, open)
	}

	press(a, enterKey)
	if !a.compose.Focused() {
		t.Error("compose input should have focus")
	}

	press(a, runes("ok"), enterKey)

	msgs := storedMessages(t, s, 1)
	if len(msgs) != 4 {
		t.Fatalf("got %d messages, want 4", len(msgs))
	}
	last := msgs[3]
	if last.Text != "ok" || !last.Mine || last.Time != "09:05" {
		t.Errorf("last message = %+v", last)
	}
	if ctrl.Mode() != controller.ConversationOpen {
		t.Errorf("mode = %s, want conversation", ctrl.Mode())
	}
	if a.compose.Value() != "" || a.compose.Focused() {
		t.Errorf("compose not reset: value=%q focused=%v", a.compose.Value(), a.compose.Focused())
	}

	view := a.View()
	if !strings.Contains(view, "ok") || !strings.Contains(view, "Вы • 09:05") {
		t.Errorf("sent message missing from view:\n%s", view)
	}

	press(a, escKey)
	if !strings.Contains(a.View(), "ok") {
		t.Error("chat list should preview the sent message")
	}
}

func TestEscapeDiscardsDraft(t *testing.T) {
	a, ctrl, s := newTestApp(t)

	press(a, enterKey, enterKey, runes("черновик"), escKey)
	if ctrl.Mode() != controller.ConversationOpen {
		t.Errorf("mode = %s, want conversation", ctrl.Mode())
	}
	if ctrl.Draft() != "" || a.compose.Value() != "" {
		t.Errorf("draft kept: %q / %q", ctrl.Draft(), a.compose.Value())
	}

	press(a, escKey)
	if ctrl.Mode() != controller.Browsing || ctrl.ActiveTab() != models.TabChats {
		t.Errorf("mode = %s tab = %s", ctrl.Mode(), ctrl.ActiveTab())
	}
	if got := len(storedMessages(t, s, 1)); got != 3 {
		t.Errorf("got %d messages, want 3", got)
	}
}

func TestFilterInput(t *testing.T) {
	a, ctrl, _ := newTestApp(t)

	press(a, tabKey, runes("/"))
	if !a.filter.Focused() {
		t.Fatal("/ should focus the filter")
	}

	press(a, runes("бор"))
	if ctrl.Filter() != "бор" {
		t.Errorf("filter = %q", ctrl.Filter())
	}
	if got := ctrl.FilteredContacts(); len(got) != 1 || got[0].Name != "Борис" {
		t.Errorf("filtered contacts = %v", got)
	}

	press(a, enterKey)
	if a.filter.Focused() {
		t.Error("enter should leave the filter")
	}
	if ctrl.Filter() != "бор" {
		t.Error("enter should keep the filter")
	}

	press(a, enterKey)
	if _, open := ctrl.OpenConversationID(); open {
		t.Error("Борис has no conversation")
	}
	if ctrl.ActiveTab() != models.TabContacts {
		t.Errorf("tab = %s, want contacts", ctrl.ActiveTab())
	}

	press(a, runes("/"), escKey)
	if a.filter.Focused() || ctrl.Filter() != "" || a.filter.Value() != "" {
		t.Errorf("esc should clear the filter: focused=%v filter=%q", a.filter.Focused(), ctrl.Filter())
	}
}

func TestFilterSwallowsShortcuts(t *testing.T) {
	a, ctrl, _ := newTestApp(t)

	cmd := press(a, runes("/"), runes("q"))
	if isQuit(cmd) {
		t.Error("q typed into the filter must not quit")
	}
	press(a, runes("2"))
	if ctrl.Filter() != "q2" {
		t.Errorf("filter = %q, want q2", ctrl.Filter())
	}
	if ctrl.Highlight() != 0 {
		t.Errorf("highlight moved to %d", ctrl.Highlight())
	}
}

func TestTabResetsFilterInput(t *testing.T) {
	a, ctrl, _ := newTestApp(t)

	press(a, runes("/"), runes("ан"), enterKey, tabKey)
	if ctrl.ActiveTab() != models.TabContacts {
		t.Fatalf("tab = %s", ctrl.ActiveTab())
	}
	if a.filter.Value() != "" || ctrl.Filter() != "" {
		t.Errorf("filter survived tab switch: %q / %q", a.filter.Value(), ctrl.Filter())
	}
}

func TestMouseTabBar(t *testing.T) {
	a, ctrl, _ := newTestApp(t)

	for _, seg := range tabSegments() {
		a.Update(tea.MouseMsg{
			X:      seg.start,
			Y:      a.tabBarRow(),
			Action: tea.MouseActionPress,
			Button: tea.MouseButtonLeft,
		})
		if ctrl.ActiveTab() != seg.tab {
			t.Errorf("click at %d selected %s, want %s", seg.start, ctrl.ActiveTab(), seg.tab)
		}
	}
}

func TestMouseRow(t *testing.T) {
	tests := []struct {
		name     string
		tab      models.Tab
		row      int
		wantOpen bool
		wantID   int64
		wantTab  models.Tab
	}{
		{"second chat", models.TabChats, 1, true, 2, models.TabChats},
		{"below the list", models.TabChats, 8, false, 0, models.TabChats},
		{"contact with chat", models.TabContacts, 0, true, 3, models.TabChats},
		{"contact without chat", models.TabContacts, 2, false, 0, models.TabContacts},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, ctrl, _ := newTestApp(t)
			ctrl.SetActiveTab(tt.tab)

			a.Update(tea.MouseMsg{
				X:      4,
				Y:      listTop + tt.row*rowHeight + 1,
				Action: tea.MouseActionPress,
				Button: tea.MouseButtonLeft,
			})

			id, open := ctrl.OpenConversationID()
			if open != tt.wantOpen || id != tt.wantID {
				t.Errorf("open = %d (%v), want %d (%v)", id, open, tt.wantID, tt.wantOpen)
			}
			if ctrl.ActiveTab() != tt.wantTab {
				t.Errorf("tab = %s, want %s", ctrl.ActiveTab(), tt.wantTab)
			}
		})
	}
}

func TestMouseIgnoresOtherButtons(t *testing.T) {
	a, ctrl, _ := newTestApp(t)

	a.Update(tea.MouseMsg{X: 4, Y: listTop, Action: tea.MouseActionRelease, Button: tea.MouseButtonLeft})
	a.Update(tea.MouseMsg{X: 4, Y: listTop, Action: tea.MouseActionPress, Button: tea.MouseButtonRight})
	if _, open := ctrl.OpenConversationID(); open {
		t.Error("only a left press selects a row")
	}
}

func TestAttachFlow(t *testing.T) {
	a, ctrl, s := newTestApp(t)

	press(a, enterKey)
	_, cmd := a.Update(fileReadMsg{chatID: 1, name: "cat.png", data: pngBytes(t)})
	if cmd == nil {
		t.Fatal("expected a decode command")
	}
	if ctrl.PendingImages() != 1 {
		t.Errorf("pending = %d, want 1", ctrl.PendingImages())
	}
	if !strings.Contains(a.View(), "Загрузка изображения") {
		t.Error("pending image should be shown")
	}

	// Leaving the chat must not redirect the image.
	press(a, escKey)
	drain(a, cmd)

	if ctrl.PendingImages() != 0 {
		t.Errorf("pending = %d after decode", ctrl.PendingImages())
	}
	msgs := storedMessages(t, s, 1)
	if len(msgs) != 4 {
		t.Fatalf("got %d messages, want 4", len(msgs))
	}
	img := msgs[3]
	if img.Kind != models.KindImage || img.Image == nil || img.Image.MIME != "image/png" {
		t.Errorf("image message = %+v", img)
	}
	if !strings.Contains(a.View(), "Фото: cat.png") {
		t.Error("chat list should preview the attached image")
	}
}

func TestAttachKeepsChatChosenAtSelection(t *testing.T) {
	tests := []struct {
		name     string
		keys     []tea.KeyMsg
		wantOpen bool
		wantID   int64
	}{
		{"chat closed", []tea.KeyMsg{escKey}, false, 0},
		{"other chat opened", []tea.KeyMsg{escKey, {Type: tea.KeyDown}, enterKey}, true, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, ctrl, s := newTestApp(t)
			path := filepath.Join(t.TempDir(), "cat.png")
			if err := os.WriteFile(path, pngBytes(t), 0644); err != nil {
				t.Fatal(err)
			}

			press(a, enterKey)
			read := readFileCmd(1, path)

			press(a, tt.keys...)
			if id, open := ctrl.OpenConversationID(); open != tt.wantOpen || id != tt.wantID {
				t.Fatalf("open = %d (%v), want %d (%v)", id, open, tt.wantID, tt.wantOpen)
			}

			_, cmd := a.Update(read())
			drain(a, cmd)

			chat1 := storedMessages(t, s, 1)
			if len(chat1) != 4 || chat1[3].Kind != models.KindImage {
				t.Errorf("chat 1 has %d messages, want the image appended as the 4th", len(chat1))
			}
			if got := len(storedMessages(t, s, 2)); got != 2 {
				t.Errorf("chat 2 has %d messages, want 2", got)
			}
			if ctrl.PendingImages() != 0 {
				t.Errorf("pending = %d", ctrl.PendingImages())
			}
		})
	}
}

func TestAttachDecodeFailure(t *testing.T) {
	a, ctrl, s := newTestApp(t)

	press(a, enterKey)
	_, cmd := a.Update(fileReadMsg{chatID: 1, name: "notes.png", data: []byte("plain text")})
	drain(a, cmd)

	if got := len(storedMessages(t, s, 1)); got != 3 {
		t.Errorf("got %d messages, want 3", got)
	}
	if ctrl.PendingImages() != 0 {
		t.Errorf("pending = %d", ctrl.PendingImages())
	}
	if !strings.Contains(a.View(), "не удалось прикрепить notes.png") {
		t.Errorf("decode error not shown:\n%s", a.View())
	}
}

func TestAttachReadErrors(t *testing.T) {
	tests := []struct {
		name string
		msg  fileReadMsg
	}{
		{"read error", fileReadMsg{chatID: 1, name: "a.png", err: errors.New("permission denied")}},
		{"empty file", fileReadMsg{chatID: 1, name: "a.png"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, ctrl, _ := newTestApp(t)
			press(a, enterKey)

			_, cmd := a.Update(tt.msg)
			if cmd != nil {
				t.Error("no decode should start")
			}
			if a.err == nil {
				t.Error("error should be shown")
			}
			if ctrl.PendingImages() != 0 {
				t.Errorf("pending = %d", ctrl.PendingImages())
			}
		})
	}
}

func TestReadFileCmd(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "photo.png")
	data := pngBytes(t)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	msg, ok := readFileCmd(3, path)().(fileReadMsg)
	if !ok {
		t.Fatal("expected fileReadMsg")
	}
	if msg.err != nil || msg.chatID != 3 || msg.name != "photo.png" || !bytes.Equal(msg.data, data) {
		t.Errorf("msg = %+v", msg)
	}

	msg = readFileCmd(3, filepath.Join(dir, "missing.png"))().(fileReadMsg)
	if msg.err == nil {
		t.Error("missing file should fail")
	}
}

func TestPickerOpenAndCancel(t *testing.T) {
	a, ctrl, _ := newTestApp(t)

	press(a, enterKey)
	if cmd := press(a, runes("з")); cmd == nil {
		t.Error("opening the picker should list the directory")
	}
	if !a.picking {
		t.Fatal("з should open the file picker")
	}
	if !strings.Contains(a.View(), "Выберите изображение") {
		t.Error("picker view not shown")
	}

	press(a, escKey)
	if a.picking {
		t.Error("esc should close the picker")
	}
	if ctrl.Mode() != controller.ConversationOpen {
		t.Errorf("mode = %s, want conversation", ctrl.Mode())
	}
}

func TestBrowseViewLayout(t *testing.T) {
	a, ctrl, _ := newTestApp(t)

	lines := strings.Split(a.View(), "\n")
	if len(lines) != 30 {
		t.Fatalf("view has %d lines, want 30", len(lines))
	}
	if !strings.Contains(lines[listTop], "Мама") {
		t.Errorf("first row %q should show Мама", lines[listTop])
	}
	bar := lines[a.tabBarRow()]
	for _, tab := range models.Tabs {
		if !strings.Contains(bar, tab.Title()) {
			t.Errorf("tab bar %q is missing %s", bar, tab.Title())
		}
	}

	ctrl.SetActiveTab(models.TabProfile)
	if view := a.View(); !strings.Contains(view, "Иван Иванов") || !strings.Contains(view, "@ivan_ivanov") {
		t.Errorf("profile view:\n%s", view)
	}

	ctrl.SetActiveTab(models.TabSettings)
	view := a.View()
	for _, want := range []string{"Общие", "Данные", "Справка", "Русский"} {
		if !strings.Contains(view, want) {
			t.Errorf("settings view is missing %q", want)
		}
	}
}

func TestListOffset(t *testing.T) {
	tests := []struct {
		highlight, n, visible, want int
	}{
		{0, 5, 10, 0},
		{4, 5, 3, 2},
		{1, 5, 3, 0},
		{9, 10, 4, 6},
		{0, 3, 0, 0},
	}
	for _, tt := range tests {
		if got := listOffset(tt.highlight, tt.n, tt.visible); got != tt.want {
			t.Errorf("listOffset(%d, %d, %d) = %d, want %d", tt.highlight, tt.n, tt.visible, got, tt.want)
		}
	}
}
