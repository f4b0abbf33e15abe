package preview

import (
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/key"

	"github.com/goatkit/querypro/internal/models"
)

// KeyMap holds the overlay bindings.
type KeyMap struct {
	Previous key.Binding
	Next     key.Binding
	Close    key.Binding
}

// DefaultKeyMap binds the arrow keys plus vim-style h/l, and esc/q to close.
var DefaultKeyMap = KeyMap{
	Previous: key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "previous")),
	Next:     key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "next")),
	Close:    key.NewBinding(key.WithKeys("esc", "q"), key.WithHelp("esc/q", "close")),
}

// ShortHelp returns the bindings shown in the overlay footer.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Previous, k.Next, k.Close}
}

// OpenResult tells the caller what Open did. When External is set the
// attachment is not an image and must be opened outside the overlay.
type OpenResult struct {
	External bool
	URL      string
}

// Controller is the attachment preview overlay.
type Controller struct {
	bus  *KeyBus
	keys KeyMap

	mu          sync.Mutex
	open        bool
	images      []models.Attachment
	current     int
	unsubscribe func()
}

// Option configures a Controller.
type Option func(*Controller)

// WithKeyMap replaces the default bindings.
func WithKeyMap(km KeyMap) Option {
	return func(c *Controller) {
		c.keys = km
	}
}

// NewController creates a closed overlay that listens on bus while open.
func NewController(bus *KeyBus, opts ...Option) *Controller {
	c := &Controller{bus: bus, keys: DefaultKeyMap}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Open shows the attachment at index attachmentIndex of the complaint's full
// attachment list. Non-image attachments are handed back as external links
// and leave the overlay closed.
func (c *Controller) Open(complaint *models.Complaint, attachmentIndex int) (OpenResult, error) {
	if complaint == nil || attachmentIndex < 0 || attachmentIndex >= len(complaint.Attachments) {
		return OpenResult{}, fmt.Errorf("attachment index %d out of range", attachmentIndex)
	}
	target := complaint.Attachments[attachmentIndex]
	if !target.IsImage() {
		return OpenResult{External: true, URL: target.FileURL}, nil
	}

	images := complaint.ImageAttachments()
	pos := 0
	for i := 0; i < attachmentIndex; i++ {
		if complaint.Attachments[i].IsImage() {
			pos++
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.images = images
	c.current = pos
	if !c.open {
		c.open = true
		if c.bus != nil {
			c.unsubscribe = c.bus.Subscribe(c.HandleKey)
		}
	}
	return OpenResult{URL: target.FileURL}, nil
}

// Next advances to the following image, wrapping to the first.
func (c *Controller) Next() {
	c.step(1)
}

// Previous goes back one image, wrapping to the last.
func (c *Controller) Previous() {
	c.step(-1)
}

func (c *Controller) step(delta int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := len(c.images)
	if !c.open || n == 0 {
		return
	}
	c.current = ((c.current+delta)%n + n) % n
}

// Close hides the overlay and releases its key bindings.
func (c *Controller) Close() {
	c.mu.Lock()
	unsubscribe := c.unsubscribe
	c.open = false
	c.images = nil
	c.current = 0
	c.unsubscribe = nil
	c.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}

// Teardown releases the bindings when the owning view goes away.
func (c *Controller) Teardown() {
	c.Close()
}

// HandleKey applies a key event; it ignores everything while closed.
func (c *Controller) HandleKey(k fmt.Stringer) bool {
	if !c.IsOpen() {
		return false
	}
	switch {
	case key.Matches(k, c.keys.Previous):
		c.Previous()
	case key.Matches(k, c.keys.Next):
		c.Next()
	case key.Matches(k, c.keys.Close):
		c.Close()
	default:
		return false
	}
	return true
}

// IsOpen reports whether the overlay is visible.
func (c *Controller) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.open
}

// Current returns the visible image and its position in the image set.
func (c *Controller) Current() (models.Attachment, int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.open || len(c.images) == 0 {
		return models.Attachment{}, 0, false
	}
	return c.images[c.current], c.current, true
}

// Len returns the size of the image set.
func (c *Controller) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.images)
}

// Help returns the footer line, e.g. "←/h previous • →/l next • esc/q close".
func (c *Controller) Help() string {
	parts := make([]string, 0, 3)
	for _, b := range c.keys.ShortHelp() {
		if !b.Enabled() {
			continue
		}
		h := b.Help()
		parts = append(parts, h.Key+" "+h.Desc)
	}
	return strings.Join(parts, " • ")
}

// Caption returns "<filename> (i/n)" for the visible image.
func (c *Controller) Caption() string {
	a, idx, ok := c.Current()
	if !ok {
		return ""
	}
	return fmt.Sprintf("%s (%d/%d)", a.OriginalFilename, idx+1, c.Len())
}
