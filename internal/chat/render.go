package chat

import (
	"bytes"
	"fmt"
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/goatkit/querypro/internal/models"
)

var (
	markdown  = goldmark.New(goldmark.WithExtensions(extension.GFM))
	ugcPolicy = bluemonday.UGCPolicy()
	stripAll  = bluemonday.StrictPolicy()
)

// RenderHTML converts a message's markdown to sanitized HTML.
func RenderHTML(msg models.ChatMessage) (string, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(msg.Text), &buf); err != nil {
		return "", fmt.Errorf("render message %s: %w", msg.ID, err)
	}
	return ugcPolicy.Sanitize(buf.String()), nil
}

// Plain returns the message text with any markup removed.
func Plain(msg models.ChatMessage) string {
	return strings.TrimSpace(html.UnescapeString(stripAll.Sanitize(msg.Text)))
}

// TranscriptHTML renders the whole transcript as an HTML fragment.
func TranscriptHTML(messages []models.ChatMessage) (string, error) {
	var b strings.Builder
	for _, m := range messages {
		body, err := RenderHTML(m)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&b, "<div class=\"message %s\" data-time=\"%s\">%s</div>\n",
			m.Sender, m.Timestamp.UTC().Format("2006-01-02T15:04:05Z"), body)
	}
	return b.String(), nil
}
