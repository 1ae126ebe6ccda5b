package controller

import (
	"github.com/charmbracelet/bubbles/key"
)

// Action is what a key means in a given mode.
type Action int

const (
	ActionNone Action = iota
	ActionMoveUp
	ActionMoveDown
	ActionOpen
	ActionNextTab
	ActionPrevTab
	ActionSearch
	ActionClose
	ActionCompose
	ActionAttach
	ActionCancelCompose
	ActionSend
)

func (a Action) String() string {
	switch a {
	case ActionMoveUp:
		return "move-up"
	case ActionMoveDown:
		return "move-down"
	case ActionOpen:
		return "open"
	case ActionNextTab:
		return "next-tab"
	case ActionPrevTab:
		return "prev-tab"
	case ActionSearch:
		return "search"
	case ActionClose:
		return "close"
	case ActionCompose:
		return "compose"
	case ActionAttach:
		return "attach"
	case ActionCancelCompose:
		return "cancel-compose"
	case ActionSend:
		return "send"
	default:
		return "none"
	}
}

// Binding ties an action to the keys that trigger it.
type Binding struct {
	Action Action
	Key    key.Binding
}

// KeyMap is the declarative dispatch table: for each mode, the ordered
// bindings that are live in it. Locale and keypad aliases of one physical
// key are listed on the same binding.
type KeyMap map[Mode][]Binding

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Browsing: {
			{ActionMoveUp, key.NewBinding(key.WithKeys("up", "8"), key.WithHelp("↑/8", "вверх"))},
			{ActionMoveDown, key.NewBinding(key.WithKeys("down", "2"), key.WithHelp("↓/2", "вниз"))},
			{ActionOpen, key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "открыть"))},
			{ActionNextTab, key.NewBinding(key.WithKeys("tab", "6"), key.WithHelp("tab/6", "след. вкладка"))},
			{ActionPrevTab, key.NewBinding(key.WithKeys("shift+tab", "4"), key.WithHelp("⇧tab/4", "пред. вкладка"))},
			{ActionSearch, key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "поиск"))},
		},
		ConversationOpen: {
			{ActionClose, key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "выход"))},
			{ActionCompose, key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "написать"))},
			{ActionAttach, key.NewBinding(key.WithKeys("p", "P", "з", "З"), key.WithHelp("p", "фото"))},
		},
		Composing: {
			{ActionCancelCompose, key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "отменить"))},
			{ActionSend, key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "отправить"))},
			{ActionAttach, key.NewBinding(key.WithKeys("ctrl+p"), key.WithHelp("ctrl+p", "фото"))},
		},
	}
}

// Route maps a key pressed in mode to an action. It has no side effects.
func Route(mode Mode, k string, km KeyMap) Action {
	for _, b := range km[mode] {
		if !b.Key.Enabled() {
			continue
		}
		for _, candidate := range b.Key.Keys() {
			if candidate == k {
				return b.Action
			}
		}
	}
	return ActionNone
}

// ShortHelp returns the bindings of mode for a help footer.
func (km KeyMap) ShortHelp(mode Mode) []key.Binding {
	bindings := make([]key.Binding, 0, len(km[mode]))
	for _, b := range km[mode] {
		bindings = append(bindings, b.Key)
	}
	return bindings
}
