// Package seed loads the static sample data the messenger starts with:
// conversations, contacts, initial message logs, the profile card and the
// settings sections.
package seed

import (
	_ "embed"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/saravenpi/e63/internal/models"
	"gopkg.in/yaml.v3"
)

//go:embed default.yml
var defaultData []byte

type Dataset struct {
	Profile       models.Profile             `yaml:"profile"`
	Conversations []models.Conversation      `yaml:"conversations"`
	Contacts      []models.Contact           `yaml:"contacts"`
	Messages      map[int64][]models.Message `yaml:"messages"`
	Settings      []models.SettingsSection   `yaml:"settings"`
}

// Default returns the dataset compiled into the binary.
func Default() (*Dataset, error) {
	return Parse(defaultData)
}

// Load reads a dataset from a YAML file.
func Load(path string) (*Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("seed file not found: %s", path)
		}
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}

	ds, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return ds, nil
}

// Parse decodes and validates a YAML dataset. Messages without a kind
// default to text.
func Parse(data []byte) (*Dataset, error) {
	var ds Dataset
	if err := yaml.Unmarshal(data, &ds); err != nil {
		return nil, fmt.Errorf("failed to parse seed data: %w", err)
	}

	if ds.Messages == nil {
		ds.Messages = make(map[int64][]models.Message)
	}
	for id, msgs := range ds.Messages {
		for i := range msgs {
			if msgs[i].Kind == "" {
				msgs[i].Kind = models.KindText
			}
		}
		ds.Messages[id] = msgs
	}

	if err := ds.Validate(); err != nil {
		return nil, err
	}
	return &ds, nil
}

// Validate checks the structural invariants of the dataset.
func (d *Dataset) Validate() error {
	chatIDs := make(map[int64]bool, len(d.Conversations))
	for _, c := range d.Conversations {
		if strings.TrimSpace(c.Name) == "" {
			return fmt.Errorf("conversation %d has an empty name", c.ID)
		}
		if chatIDs[c.ID] {
			return fmt.Errorf("duplicate conversation id %d", c.ID)
		}
		chatIDs[c.ID] = true
	}

	contactIDs := make(map[int64]bool, len(d.Contacts))
	for _, c := range d.Contacts {
		if strings.TrimSpace(c.Name) == "" {
			return fmt.Errorf("contact %d has an empty name", c.ID)
		}
		if contactIDs[c.ID] {
			return fmt.Errorf("duplicate contact id %d", c.ID)
		}
		contactIDs[c.ID] = true
	}

	for id := range d.Messages {
		if !chatIDs[id] {
			return fmt.Errorf("messages for unknown conversation %d", id)
		}
	}

	return nil
}

// Warnings lists data problems that do not prevent startup. Contacts link
// to conversations by name, so a repeated name makes the link ambiguous.
func (d *Dataset) Warnings() []string {
	var warnings []string

	contactNames := make([]string, len(d.Contacts))
	for i, c := range d.Contacts {
		contactNames[i] = c.Name
	}
	for _, dup := range duplicates(contactNames) {
		warnings = append(warnings, fmt.Sprintf("contact name %q used %d times", dup.name, dup.count))
	}

	chatNames := make([]string, len(d.Conversations))
	for i, c := range d.Conversations {
		chatNames[i] = c.Name
	}
	for _, dup := range duplicates(chatNames) {
		warnings = append(warnings, fmt.Sprintf("conversation name %q used %d times", dup.name, dup.count))
	}

	return warnings
}

type duplicate struct {
	name  string
	count int
}

// duplicates returns the names that occur more than once, sorted by name.
func duplicates(names []string) []duplicate {
	seen := make(map[string]int, len(names))
	for _, name := range names {
		seen[name]++
	}

	var out []duplicate
	for name, n := range seen {
		if n > 1 {
			out = append(out, duplicate{name: name, count: n})
		}
	}
	slices.SortFunc(out, func(a, b duplicate) int { return strings.Compare(a.name, b.name) })
	return out
}

func (d *Dataset) Conversation(id int64) (models.Conversation, bool) {
	for _, c := range d.Conversations {
		if c.ID == id {
			return c, true
		}
	}
	return models.Conversation{}, false
}

// ConversationByName returns the first conversation whose name equals name
// exactly.
func (d *Dataset) ConversationByName(name string) (models.Conversation, bool) {
	for _, c := range d.Conversations {
		if c.Name == name {
			return c, true
		}
	}
	return models.Conversation{}, false
}

func (d *Dataset) Contact(id int64) (models.Contact, bool) {
	for _, c := range d.Contacts {
		if c.ID == id {
			return c, true
		}
	}
	return models.Contact{}, false
}
