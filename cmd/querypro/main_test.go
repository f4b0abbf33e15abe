package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goatkit/querypro/internal/apierrors"
	"github.com/goatkit/querypro/internal/mockapi"
	"github.com/goatkit/querypro/internal/models"
)

type cli struct {
	t *testing.T
}

func newCLI(t *testing.T) *cli {
	t.Helper()
	gin.SetMode(gin.TestMode)
	backend := mockapi.New()
	require.NoError(t, backend.SeedDemo())
	srv := httptest.NewServer(backend.Router())
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("QUERYPRO_API_BASE_URL", srv.URL)
	t.Setenv("QUERYPRO_SESSION_STORE", "sqlite")
	t.Setenv("QUERYPRO_SESSION_SQLITE_PATH", filepath.Join(dir, "session.db"))
	t.Setenv("QUERYPRO_LOG_LEVEL", "error")
	return &cli{t: t}
}

func (c *cli) run(stdin string, args ...string) (string, error) {
	c.t.Helper()
	var out, errOut bytes.Buffer
	err := run(context.Background(), args, strings.NewReader(stdin), &out, &errOut)
	return out.String(), err
}

func (c *cli) mustRun(args ...string) string {
	c.t.Helper()
	out, err := c.run("", args...)
	require.NoError(c.t, err, "querypro %s", strings.Join(args, " "))
	return out
}

func (c *cli) loginBoth() {
	c.t.Helper()
	out := c.mustRun("login", "--email", "student@querypro.test", "--password", "student123")
	assert.Contains(c.t, out, "Logged in as Demo Student (student)")
	out = c.mustRun("login", "--admin", "--email", "admin@querypro.test", "--password", "admin123")
	assert.Contains(c.t, out, "(admin)")
}

func (c *cli) complaints(args ...string) []models.Complaint {
	c.t.Helper()
	out := c.mustRun(append(args, "-o", "json")...)
	var list []models.Complaint
	require.NoError(c.t, json.Unmarshal([]byte(out), &list))
	return list
}

func TestSessionCommands(t *testing.T) {
	c := newCLI(t)

	_, err := c.run("", "whoami")
	assert.True(t, apierrors.IsUnauthorized(err))

	_, err = c.run("", "login", "--email", "student@querypro.test", "--password", "wrong")
	require.Error(t, err)
	assert.Equal(t, "Invalid email or password", apierrors.UserMessage(err, ""))

	out, err := c.run("student@querypro.test\nstudent123\n", "login")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged in as Demo Student")

	out = c.mustRun("whoami")
	assert.Contains(t, out, "student@querypro.test")

	_, err = c.run("", "whoami", "--admin")
	assert.True(t, apierrors.IsUnauthorized(err))

	c.mustRun("logout")
	_, err = c.run("", "whoami")
	assert.True(t, apierrors.IsUnauthorized(err))
}

func TestComplaintLifecycle(t *testing.T) {
	c := newCLI(t)
	c.loginBoth()

	assert.Len(t, c.complaints("complaints", "mine"), 3)
	assert.Len(t, c.complaints("complaints", "list", "--admin"), 3)

	pending := c.complaints("complaints", "list", "--admin", "--status", "pending")
	require.Len(t, pending, 1)
	ticket := pending[0].TicketID

	out := c.mustRun("complaints", "start", ticket, "--admin")
	assert.Contains(t, out, ticket+" is now In Progress")

	_, err := c.run("", "complaints", "start", ticket, "--admin")
	assert.True(t, apierrors.Is(err, apierrors.CodeInvalidTransition))

	_, err = c.run("", "complaints", "resolve", ticket)
	assert.True(t, apierrors.Is(err, apierrors.CodeForbidden))

	out = c.mustRun("complaints", "resolve", ticket, "--admin", "--response", "Router replaced")
	assert.Contains(t, out, "is now Resolved")

	resolved := c.complaints("complaints", "list", "--status", "resolved")
	assert.Len(t, resolved, 2)

	out = c.mustRun("track", ticket)
	assert.Contains(t, out, "Router replaced")
	assert.Contains(t, out, "Resolved")

	out = c.mustRun("track", "QP-1999-0001")
	assert.Contains(t, out, "No complaint found for ticket QP-1999-0001")

	out = c.mustRun("stats", "--admin", "-o", "yaml")
	assert.Contains(t, out, "total_complaints: 3")
	assert.Contains(t, out, "resolved: 2")

	out = c.mustRun("complaints", "show", ticket, "--admin")
	assert.Contains(t, out, "Hostel WiFi Issue")
	assert.NotContains(t, out, "Start Progress")
}

func TestSubmit(t *testing.T) {
	c := newCLI(t)
	c.loginBoth()

	_, err := c.run("", "submit", "--title", "Broken chair")
	assert.True(t, apierrors.Is(err, apierrors.CodeValidationFailed))

	attachment := filepath.Join(t.TempDir(), "chair.jpg")
	require.NoError(t, os.WriteFile(attachment, []byte("jpeg"), 0o600))

	out := c.mustRun("submit", "--title", "Broken chair", "--description", "Chair in lab 3 is broken",
		"--attach", attachment, "--classify")
	assert.Contains(t, out, "Suggested category")
	assert.Contains(t, out, "Ticket: QP-")

	assert.Len(t, c.complaints("complaints", "mine"), 4)
}

func TestExport(t *testing.T) {
	c := newCLI(t)
	c.loginBoth()

	path := filepath.Join(t.TempDir(), "report.xlsx")
	out := c.mustRun("export", "--admin", "--out", path)
	assert.Contains(t, out, "Exported 3 complaints")

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestChatAndPreview(t *testing.T) {
	c := newCLI(t)
	c.loginBoth()

	var withFiles models.Complaint
	for _, cm := range c.complaints("complaints", "mine") {
		if cm.HasAttachments() {
			withFiles = cm
		}
	}
	require.NotEmpty(t, withFiles.TicketID)

	out, err := c.run("status of "+withFiles.TicketID+"\n/quit\n", "chat")
	require.NoError(t, err)
	assert.Contains(t, out, "assistant> Hi!")
	assert.Contains(t, out, "is currently")

	out, err = c.run("l\nl\nq\n", "preview", withFiles.TicketID)
	require.NoError(t, err)
	assert.Contains(t, out, "gate.jpg (1/2)")
	assert.Contains(t, out, "card.png (2/2)")
	assert.Contains(t, out, "esc/q close")

	out = c.mustRun("preview", withFiles.TicketID, "--index", "2")
	assert.Contains(t, out, "Open in browser: /uploads/demo/receipt.pdf")
}

func TestReportError(t *testing.T) {
	var buf bytes.Buffer
	code := reportError(&buf, apierrors.New(apierrors.CodeUnauthorized))
	assert.Equal(t, 2, code)
	assert.Equal(t, "Session expired, please log in again\n", buf.String())

	buf.Reset()
	code = reportError(&buf, apierrors.NewWithMessage(apierrors.CodeApplication, "Complaint not found"))
	assert.Equal(t, 1, code)
	assert.Contains(t, buf.String(), "Complaint not found")
}

func TestUnknownOutputFormat(t *testing.T) {
	c := newCLI(t)
	_, err := c.run("", "whoami", "-o", "xml")
	assert.Error(t, err)
}
