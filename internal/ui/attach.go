package ui

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/saravenpi/e63/internal/controller"
	"github.com/saravenpi/e63/internal/models"
	"go.uber.org/zap"
)

// maxAttachSize caps how much of a file is read into memory.
const maxAttachSize = 20 << 20

var errTooLarge = errors.New("file is too large")

// fileReadMsg carries a selected file back to the event loop, together with
// the conversation that was open when it was selected.
type fileReadMsg struct {
	chatID int64
	name   string
	data   []byte
	err    error
}

type imageDecodedMsg struct {
	job *controller.ImageJob
	ref models.ImageRef
	err error
}

func readFileCmd(chatID int64, path string) tea.Cmd {
	return func() tea.Msg {
		name := filepath.Base(path)

		info, err := os.Stat(path)
		if err != nil {
			return fileReadMsg{chatID: chatID, name: name, err: fmt.Errorf("failed to stat %s: %w", path, err)}
		}
		if info.Size() > maxAttachSize {
			return fileReadMsg{chatID: chatID, name: name, err: fmt.Errorf("%s: %w", name, errTooLarge)}
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return fileReadMsg{chatID: chatID, name: name, err: fmt.Errorf("failed to read %s: %w", path, err)}
		}
		return fileReadMsg{chatID: chatID, name: name, data: data}
	}
}

// decodeImageCmd runs the slow half of an attachment off the event loop.
func decodeImageCmd(job *controller.ImageJob) tea.Cmd {
	return func() tea.Msg {
		ref, err := job.Decode()
		return imageDecodedMsg{job: job, ref: ref, err: err}
	}
}

func (a *App) openPicker() tea.Cmd {
	a.picking = true
	// The picker sizes itself from the window; it may not have seen one yet.
	a.picker, _ = a.picker.Update(tea.WindowSizeMsg{Width: a.width, Height: a.height})
	return a.picker.Init()
}

func (a *App) handlePickerKey(msg tea.KeyMsg) tea.Cmd {
	if key.Matches(msg, pickerCancelKey) {
		a.picking = false
		return nil
	}

	var cmd tea.Cmd
	a.picker, cmd = a.picker.Update(msg)

	if ok, path := a.picker.DidSelectFile(msg); ok {
		a.picking = false
		chatID, open := a.ctrl.OpenConversationID()
		if !open {
			return nil
		}
		a.logger.Debug("file selected", zap.String("path", path), zap.Int64("conversation", chatID))
		return readFileCmd(chatID, path)
	}
	if ok, path := a.picker.DidSelectDisabledFile(msg); ok {
		a.err = fmt.Errorf("%s не является изображением", filepath.Base(path))
	}
	return cmd
}

func (a *App) attach(msg fileReadMsg) tea.Cmd {
	if msg.err != nil {
		a.logger.Warn("failed to read attachment", zap.String("file", msg.name), zap.Error(msg.err))
		a.err = msg.err
		return nil
	}
	if len(msg.data) == 0 {
		a.err = fmt.Errorf("%s: пустой файл", msg.name)
		return nil
	}

	job, ok := a.ctrl.AttachImageTo(msg.chatID, msg.data, msg.name)
	if !ok {
		return nil
	}
	a.sync()
	return tea.Batch(a.spinner.Tick, decodeImageCmd(job))
}
