package chat

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goatkit/querypro/internal/apierrors"
	"github.com/goatkit/querypro/internal/client"
	"github.com/goatkit/querypro/internal/models"
)

type fakeBackend struct {
	requests []client.ChatRequest
	reply    *models.ChatReply
	err      error
	block    chan struct{}
	started  chan struct{}
	onCall   func()
}

func (f *fakeBackend) Chat(_ context.Context, req client.ChatRequest) (*models.ChatReply, error) {
	f.requests = append(f.requests, req)
	if f.onCall != nil {
		f.onCall()
	}
	if f.block != nil {
		close(f.started)
		<-f.block
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.reply, nil
}

type staticIdentity struct{ s *models.Session }

func (i staticIdentity) Current() *models.Session { return i.s }

func student() staticIdentity {
	return staticIdentity{s: &models.Session{User: models.User{ID: "u-1", Name: "Sam", Role: models.RoleStudent}, Token: "t"}}
}

func TestSend(t *testing.T) {
	backend := &fakeBackend{reply: &models.ChatReply{BotResponse: "Your ticket is **in progress**."}}
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	c := NewController(backend, student(), WithClock(func() time.Time { return fixed }))

	msg, err := c.Send(context.Background(), "  status of QP-2026-0001?  ")
	require.NoError(t, err)
	require.NotNil(t, msg)
	assert.Equal(t, models.SenderBot, msg.Sender)

	require.Len(t, backend.requests, 1)
	assert.Equal(t, client.ChatRequest{Message: "status of QP-2026-0001?", UserID: "u-1", UserRole: models.RoleStudent}, backend.requests[0])

	tr := c.Transcript()
	require.Len(t, tr, 2)
	assert.Equal(t, models.SenderUser, tr[0].Sender)
	assert.Equal(t, "status of QP-2026-0001?", tr[0].Text)
	assert.Equal(t, fixed, tr[0].Timestamp)
	assert.NotEmpty(t, tr[0].ID)
	assert.NotEqual(t, tr[0].ID, tr[1].ID)
	assert.False(t, c.Pending())
	assert.Empty(t, c.Notice())
}

func TestSend_BlankIgnored(t *testing.T) {
	backend := &fakeBackend{}
	c := NewController(backend, student())
	msg, err := c.Send(context.Background(), "   ")
	assert.NoError(t, err)
	assert.Nil(t, msg)
	assert.Empty(t, c.Transcript())
	assert.Empty(t, backend.requests)
}

func TestSend_FailureSetsNotice(t *testing.T) {
	backend := &fakeBackend{err: apierrors.Wrap(apierrors.CodeNetwork, errors.New("connection refused"))}
	c := NewController(backend, student(), WithGreeting("Hi! Ask me about your complaints."))

	_, err := c.Send(context.Background(), "hello")
	require.Error(t, err)
	assert.True(t, apierrors.Is(err, CodeUnavailable))
	assert.Equal(t, NoticeUnavailable, c.Notice())

	tr := c.Transcript()
	require.Len(t, tr, 2)
	assert.Equal(t, models.SenderBot, tr[0].Sender)
	assert.Equal(t, models.SenderUser, tr[1].Sender)
	assert.Len(t, backend.requests, 1)

	backend.err = nil
	backend.reply = &models.ChatReply{BotResponse: "Hello!"}
	_, err = c.Send(context.Background(), "hello again")
	require.NoError(t, err)
	assert.Empty(t, c.Notice())
	assert.Len(t, c.Transcript(), 4)
}

func TestSend_SecondWhilePendingRejected(t *testing.T) {
	backend := &fakeBackend{
		reply:   &models.ChatReply{BotResponse: "ok"},
		block:   make(chan struct{}),
		started: make(chan struct{}),
	}
	c := NewController(backend, student())

	done := make(chan error, 1)
	go func() {
		_, err := c.Send(context.Background(), "first")
		done <- err
	}()
	<-backend.started
	assert.True(t, c.Pending())

	_, err := c.Send(context.Background(), "second")
	assert.True(t, apierrors.Is(err, CodeRequestPending))

	close(backend.block)
	require.NoError(t, <-done)
	assert.Len(t, c.Transcript(), 2)
	assert.False(t, c.Pending())
}

func TestClose_DiscardsLateReply(t *testing.T) {
	backend := &fakeBackend{reply: &models.ChatReply{BotResponse: "late"}}
	c := NewController(backend, student())
	backend.onCall = c.Close

	msg, err := c.Send(context.Background(), "hello")
	assert.NoError(t, err)
	assert.Nil(t, msg)
	assert.True(t, c.Closed())
	assert.Empty(t, c.Transcript())
}

func TestErrorCodesRegistered(t *testing.T) {
	codes := apierrors.Registry.ByNamespace("chat")
	assert.Len(t, codes, 2)
	e, ok := apierrors.Registry.Get(CodeUnavailable)
	require.True(t, ok)
	assert.Equal(t, NoticeUnavailable, e.Message)
}

func TestRender(t *testing.T) {
	msg := models.ChatMessage{ID: "m1", Text: "Ticket **QP-2026-0001** is resolved <script>alert(1)</script>", Sender: models.SenderBot}

	out, err := RenderHTML(msg)
	require.NoError(t, err)
	assert.Contains(t, out, "<strong>QP-2026-0001</strong>")
	assert.NotContains(t, out, "<script>")

	plain := Plain(models.ChatMessage{Text: "<b>Done</b> &amp; dusted"})
	assert.Equal(t, "Done & dusted", plain)

	page, err := TranscriptHTML([]models.ChatMessage{msg})
	require.NoError(t, err)
	assert.Contains(t, page, `class="message bot"`)
}
