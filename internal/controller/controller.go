// Package controller owns the messenger's navigation and composition state.
//
// Every change goes through one of the Controller's operations, which are
// called from the UI event loop one at a time. Operations whose
// preconditions do not hold are no-ops and report that through their return
// value instead of an error.
package controller

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/saravenpi/e63/internal/media"
	"github.com/saravenpi/e63/internal/models"
	"github.com/saravenpi/e63/internal/seed"
	"go.uber.org/zap"
)

// Mode is the keyboard dispatch context.
type Mode int

const (
	Browsing Mode = iota
	ConversationOpen
	Composing
)

func (m Mode) String() string {
	switch m {
	case Browsing:
		return "browsing"
	case ConversationOpen:
		return "conversation"
	case Composing:
		return "composing"
	default:
		return "unknown"
	}
}

// MessageLog is the append-only store of messages per conversation.
type MessageLog interface {
	Append(chatID int64, msg models.Message) error
	Messages(chatID int64) ([]models.Message, error)
}

// lastIDer is implemented by logs that can report their largest message id,
// so new ids start above anything already stored.
type lastIDer interface {
	LastID() (int64, error)
}

// AppendFunc is called after a message has been appended to a log.
type AppendFunc func(chatID int64, msg models.Message)

// Effects describes what a key press did and what the UI still has to do.
type Effects struct {
	Action Action
	// Handled is false when no binding matched and the key belongs to
	// whichever input has focus.
	Handled     bool
	FocusDraft  bool
	FocusFilter bool
	PickFile    bool
	Sent        *models.Message
}

type Option func(*Controller)

func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

func WithKeyMap(km KeyMap) Option {
	return func(c *Controller) { c.keys = km }
}

func WithPreviewWidth(cols int) Option {
	return func(c *Controller) { c.previewWidth = cols }
}

type Controller struct {
	data         *seed.Dataset
	log          MessageLog
	keys         KeyMap
	now          func() time.Time
	logger       *zap.Logger
	previewWidth int

	tab       models.Tab
	filter    string
	highlight int
	openID    int64
	isOpen    bool
	composing bool
	draft     string

	lastID    int64
	pending   int
	listeners []AppendFunc
}

// New creates a controller in Browsing(chats).
func New(data *seed.Dataset, log MessageLog, opts ...Option) *Controller {
	c := &Controller{
		data:         data,
		log:          log,
		keys:         DefaultKeyMap(),
		now:          time.Now,
		logger:       zap.NewNop(),
		previewWidth: media.DefaultPreviewWidth,
		tab:          models.TabChats,
	}
	for _, opt := range opts {
		opt(c)
	}

	for _, msgs := range data.Messages {
		for _, msg := range msgs {
			if msg.ID > c.lastID {
				c.lastID = msg.ID
			}
		}
	}
	if l, ok := log.(lastIDer); ok {
		id, err := l.LastID()
		if err != nil {
			c.logger.Warn("failed to read last message id", zap.Error(err))
		} else if id > c.lastID {
			c.lastID = id
		}
	}

	return c
}

// OnAppend registers fn to be notified of every appended message.
func (c *Controller) OnAppend(fn AppendFunc) {
	c.listeners = append(c.listeners, fn)
}

func (c *Controller) Mode() Mode {
	switch {
	case c.isOpen && c.composing:
		return Composing
	case c.isOpen:
		return ConversationOpen
	default:
		return Browsing
	}
}

func (c *Controller) ActiveTab() models.Tab { return c.tab }
func (c *Controller) Filter() string        { return c.filter }
func (c *Controller) Highlight() int        { return c.highlight }
func (c *Controller) Draft() string         { return c.draft }
func (c *Controller) IsComposing() bool     { return c.composing }
func (c *Controller) PendingImages() int    { return c.pending }
func (c *Controller) KeyMap() KeyMap        { return c.keys }

// OpenConversationID returns the open conversation, if any.
func (c *Controller) OpenConversationID() (int64, bool) {
	return c.openID, c.isOpen
}

// SetActiveTab switches tabs and resets the filter and highlight.
func (c *Controller) SetActiveTab(tab models.Tab) {
	c.tab = tab
	c.filter = ""
	c.highlight = 0
	c.logger.Debug("tab changed", zap.Stringer("tab", tab))
}

// SetFilter replaces the filter of the active list and resets the highlight.
func (c *Controller) SetFilter(text string) {
	c.filter = text
	c.highlight = 0
}

// FilteredConversations returns the conversations whose name contains the
// filter, in seed order.
func (c *Controller) FilteredConversations() []models.Conversation {
	var out []models.Conversation
	for _, conv := range c.data.Conversations {
		if models.MatchName(conv.Name, c.filter) {
			out = append(out, conv)
		}
	}
	return out
}

// FilteredContacts returns the contacts whose name contains the filter, in
// seed order.
func (c *Controller) FilteredContacts() []models.Contact {
	var out []models.Contact
	for _, contact := range c.data.Contacts {
		if models.MatchName(contact.Name, c.filter) {
			out = append(out, contact)
		}
	}
	return out
}

func (c *Controller) listLen() int {
	switch c.tab {
	case models.TabChats:
		return len(c.FilteredConversations())
	case models.TabContacts:
		return len(c.FilteredContacts())
	default:
		return 0
	}
}

// MoveHighlight moves the highlight by delta rows, clamped to the filtered
// list. Empty lists leave it untouched.
func (c *Controller) MoveHighlight(delta int) {
	n := c.listLen()
	if n == 0 {
		return
	}
	h := c.highlight + delta
	if h < 0 {
		h = 0
	}
	if h > n-1 {
		h = n - 1
	}
	c.highlight = h
}

// OpenConversation opens id and clears any draft. Unknown ids are ignored.
func (c *Controller) OpenConversation(id int64) bool {
	if _, ok := c.data.Conversation(id); !ok {
		c.logger.Debug("open ignored: unknown conversation", zap.Int64("conversation", id))
		return false
	}
	c.openID = id
	c.isOpen = true
	c.composing = false
	c.draft = ""
	c.logger.Debug("conversation opened", zap.Int64("conversation", id))
	return true
}

// CloseConversation returns to the list of the tab that was active.
func (c *Controller) CloseConversation() {
	c.openID = 0
	c.isOpen = false
	c.composing = false
	c.draft = ""
}

// EnterCompose starts composing in the open conversation, keeping the
// current draft.
func (c *Controller) EnterCompose() bool {
	if !c.isOpen {
		return false
	}
	c.composing = true
	return true
}

// ExitCompose leaves compose mode and discards the draft.
func (c *Controller) ExitCompose() {
	c.composing = false
	c.draft = ""
}

func (c *Controller) UpdateDraft(text string) {
	c.draft = text
}

// SendMessage appends the trimmed draft to the open conversation as an own
// text message, then clears the draft and leaves compose mode.
func (c *Controller) SendMessage() (models.Message, bool) {
	text := strings.TrimSpace(c.draft)
	if text == "" || !c.isOpen {
		return models.Message{}, false
	}

	now := c.now()
	msg := models.Message{
		ID:   c.nextID(now),
		Text: text,
		Time: now.Format("15:04"),
		Mine: true,
		Kind: models.KindText,
	}
	if !c.append(c.openID, &msg) {
		return models.Message{}, false
	}

	c.draft = ""
	c.composing = false
	return msg, true
}

// ImageJob is an image attachment waiting to be decoded. It remembers the
// conversation that was open when the file was attached.
type ImageJob struct {
	ConversationID int64
	FileName       string
	Data           []byte
	PreviewWidth   int
}

// Decode does the slow part of an attachment. It touches nothing but the
// job and is safe to run off the event loop.
func (j *ImageJob) Decode() (models.ImageRef, error) {
	return media.Decode(j.Data, j.FileName, j.PreviewWidth)
}

// AttachImage starts attaching a file to the open conversation. The result
// must be passed back through CompleteImage once Decode has run.
func (c *Controller) AttachImage(data []byte, name string) (*ImageJob, bool) {
	if !c.isOpen {
		return nil, false
	}
	return c.AttachImageTo(c.openID, data, name)
}

// AttachImageTo starts attaching a file to conversation id, which the caller
// captured when the attachment was chosen. The conversation does not have to
// be open any more.
func (c *Controller) AttachImageTo(id int64, data []byte, name string) (*ImageJob, bool) {
	if len(data) == 0 {
		return nil, false
	}
	if _, ok := c.data.Conversation(id); !ok {
		return nil, false
	}
	if name == "" {
		name = "image"
	}

	c.pending++
	c.logger.Debug("image attach started",
		zap.Int64("conversation", id),
		zap.String("file", name),
		zap.Int("bytes", len(data)),
	)
	return &ImageJob{
		ConversationID: id,
		FileName:       name,
		Data:           data,
		PreviewWidth:   c.previewWidth,
	}, true
}

// CompleteImage appends the decoded image to the job's conversation, even
// if the user has since closed it or opened another one.
func (c *Controller) CompleteImage(job *ImageJob, ref models.ImageRef, err error) (models.Message, bool) {
	if c.pending > 0 {
		c.pending--
	}
	if job == nil {
		return models.Message{}, false
	}
	if err != nil {
		c.logger.Warn("image decode failed",
			zap.Int64("conversation", job.ConversationID),
			zap.String("file", job.FileName),
			zap.Error(err),
		)
		return models.Message{}, false
	}

	now := c.now()
	msg := models.Message{
		ID:    c.nextID(now),
		Text:  job.FileName,
		Time:  now.Format("15:04"),
		Mine:  true,
		Kind:  models.KindImage,
		Image: &ref,
	}
	if !c.append(job.ConversationID, &msg) {
		return models.Message{}, false
	}
	return msg, true
}

// SelectConversation handles a pointer selection of a conversation.
func (c *Controller) SelectConversation(id int64) bool {
	return c.OpenConversation(id)
}

// SelectContact opens the conversation whose name matches the contact and
// switches to the chats tab. Without a match nothing changes.
func (c *Controller) SelectContact(id int64) bool {
	contact, ok := c.data.Contact(id)
	if !ok {
		return false
	}
	return c.openContact(contact)
}

// SelectRow highlights row index of the active list and activates it.
func (c *Controller) SelectRow(index int) bool {
	if c.Mode() != Browsing || index < 0 || index >= c.listLen() {
		return false
	}
	c.highlight = index
	return c.activateHighlighted()
}

func (c *Controller) openContact(contact models.Contact) bool {
	conv, ok := c.data.ConversationByName(contact.Name)
	if !ok {
		c.logger.Debug("contact has no conversation", zap.String("contact", contact.Name))
		return false
	}
	c.SetActiveTab(models.TabChats)
	return c.OpenConversation(conv.ID)
}

func (c *Controller) activateHighlighted() bool {
	switch c.tab {
	case models.TabChats:
		convs := c.FilteredConversations()
		if c.highlight >= len(convs) {
			return false
		}
		return c.OpenConversation(convs[c.highlight].ID)
	case models.TabContacts:
		contacts := c.FilteredContacts()
		if c.highlight >= len(contacts) {
			return false
		}
		return c.openContact(contacts[c.highlight])
	default:
		return false
	}
}

// DispatchKey routes a key press according to the current mode.
func (c *Controller) DispatchKey(k string) Effects {
	mode := c.Mode()
	action := Route(mode, k, c.keys)
	eff := Effects{Action: action}
	if action == ActionNone {
		return eff
	}
	eff.Handled = true

	switch action {
	case ActionMoveUp:
		c.MoveHighlight(-1)
	case ActionMoveDown:
		c.MoveHighlight(1)
	case ActionOpen:
		c.activateHighlighted()
	case ActionNextTab:
		c.SetActiveTab(c.tab.Next())
	case ActionPrevTab:
		c.SetActiveTab(c.tab.Prev())
	case ActionSearch:
		eff.FocusFilter = c.tab.HasList()
	case ActionClose:
		c.CloseConversation()
	case ActionCompose:
		eff.FocusDraft = c.EnterCompose()
	case ActionAttach:
		eff.PickFile = c.isOpen
	case ActionCancelCompose:
		c.ExitCompose()
	case ActionSend:
		if msg, ok := c.SendMessage(); ok {
			eff.Sent = &msg
		}
	}

	c.logger.Debug("key dispatched",
		zap.String("key", k),
		zap.Stringer("mode", mode),
		zap.Stringer("action", action),
		zap.Stringer("next_mode", c.Mode()),
	)
	return eff
}

// Snapshot is a read-only copy of everything the view needs.
type Snapshot struct {
	Mode          Mode
	Tab           models.Tab
	Filter        string
	Highlight     int
	Conversations []models.Conversation
	Contacts      []models.Contact
	Open          *models.Conversation
	Messages      []models.Message
	Composing     bool
	Draft         string
	PendingImages int
	Profile       models.Profile
	Settings      []models.SettingsSection
}

func (c *Controller) Snapshot() Snapshot {
	s := Snapshot{
		Mode:          c.Mode(),
		Tab:           c.tab,
		Filter:        c.filter,
		Highlight:     c.highlight,
		Conversations: c.FilteredConversations(),
		Contacts:      c.FilteredContacts(),
		Composing:     c.composing,
		Draft:         c.draft,
		PendingImages: c.pending,
		Profile:       c.data.Profile,
		Settings:      c.data.Settings,
	}

	if c.isOpen {
		if conv, ok := c.data.Conversation(c.openID); ok {
			s.Open = &conv
			msgs, err := c.log.Messages(conv.ID)
			if err != nil {
				c.logger.Error("failed to load messages", zap.Int64("conversation", conv.ID), zap.Error(err))
			}
			s.Messages = msgs
		}
	}

	return s
}

// nextID derives a message id from t, kept strictly increasing.
func (c *Controller) nextID(t time.Time) int64 {
	id := t.UnixMilli()
	if id <= c.lastID {
		id = c.lastID + 1
	}
	c.lastID = id
	return id
}

func (c *Controller) append(chatID int64, msg *models.Message) bool {
	msg.GUID = uuid.NewString()
	if err := c.log.Append(chatID, *msg); err != nil {
		c.logger.Error("failed to append message",
			zap.Int64("conversation", chatID),
			zap.Int64("message", msg.ID),
			zap.Error(err),
		)
		return false
	}

	c.logger.Info("message appended",
		zap.Int64("conversation", chatID),
		zap.Int64("message", msg.ID),
		zap.String("kind", string(msg.Kind)),
	)
	for _, fn := range c.listeners {
		fn(chatID, *msg)
	}
	return true
}
