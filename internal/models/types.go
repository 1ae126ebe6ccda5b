package models

import "strings"

type Conversation struct {
	ID          int64  `yaml:"id"`
	Name        string `yaml:"name"`
	LastMessage string `yaml:"last_message"`
	Time        string `yaml:"time"`
	Unread      int    `yaml:"unread"`
	Online      bool   `yaml:"online"`
}

type Contact struct {
	ID     int64  `yaml:"id"`
	Name   string `yaml:"name"`
	Status string `yaml:"status"`
	Online bool   `yaml:"online"`
}

type MessageKind string

const (
	KindText  MessageKind = "text"
	KindImage MessageKind = "image"
)

type Message struct {
	ID    int64       `yaml:"id"`
	GUID  string      `yaml:"-"`
	Text  string      `yaml:"text"`
	Time  string      `yaml:"time"`
	Mine  bool        `yaml:"mine"`
	Kind  MessageKind `yaml:"kind,omitempty"`
	Image *ImageRef   `yaml:"-"`
}

// ImageRef is a decoded, displayable image held only in memory.
type ImageRef struct {
	URL     string
	MIME    string
	Width   int
	Height  int
	Size    int
	Preview string
}

type Profile struct {
	Name     string   `yaml:"name"`
	Phone    string   `yaml:"phone"`
	Username string   `yaml:"username"`
	About    string   `yaml:"about"`
	Actions  []string `yaml:"actions,omitempty"`
}

type SettingsItem struct {
	Label string `yaml:"label"`
	Value string `yaml:"value,omitempty"`
}

type SettingsSection struct {
	Title string         `yaml:"title"`
	Items []SettingsItem `yaml:"items"`
}

type Tab int

const (
	TabChats Tab = iota
	TabContacts
	TabProfile
	TabSettings
)

// Tabs lists every tab in cycle order.
var Tabs = []Tab{TabChats, TabContacts, TabProfile, TabSettings}

func (t Tab) String() string {
	switch t {
	case TabChats:
		return "chats"
	case TabContacts:
		return "contacts"
	case TabProfile:
		return "profile"
	case TabSettings:
		return "settings"
	default:
		return "unknown"
	}
}

// Title is the label shown in the bottom tab bar.
func (t Tab) Title() string {
	switch t {
	case TabChats:
		return "Чаты"
	case TabContacts:
		return "Контакты"
	case TabProfile:
		return "Профиль"
	case TabSettings:
		return "Настройки"
	default:
		return ""
	}
}

// Next returns the tab after t, wrapping around.
func (t Tab) Next() Tab {
	return Tab((int(t) + 1) % len(Tabs))
}

// Prev returns the tab before t, wrapping around.
func (t Tab) Prev() Tab {
	return Tab((int(t) + len(Tabs) - 1) % len(Tabs))
}

// HasList reports whether the tab shows a filterable, highlightable list.
func (t Tab) HasList() bool {
	return t == TabChats || t == TabContacts
}

// MatchName reports whether name contains filter, ignoring case.
func MatchName(name, filter string) bool {
	if filter == "" {
		return true
	}
	return strings.Contains(strings.ToLower(name), strings.ToLower(filter))
}

// Initial returns the first letter of a name, used as an avatar.
func Initial(name string) string {
	for _, r := range name {
		return string(r)
	}
	return "?"
}
