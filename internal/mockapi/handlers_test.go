package mockapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goatkit/querypro/internal/models"
)

func setupTestServer(t *testing.T) (*Server, *gin.Engine, models.User, models.User) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	s := New()
	admin, err := s.SeedUser("Admin", "admin@example.edu", "secret", models.RoleAdmin)
	require.NoError(t, err)
	student, err := s.SeedUser("Student", "student@example.edu", "secret", models.RoleStudent)
	require.NoError(t, err)
	return s, s.Router(), admin, student
}

func doJSON(t *testing.T, router *gin.Engine, method, url, token string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, url, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var response map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	return w, response
}

func TestLogin(t *testing.T) {
	_, router, _, _ := setupTestServer(t)

	w, resp := doJSON(t, router, http.MethodPost, "/api/admin/login", "", map[string]string{"email": "admin@example.edu", "password": "secret"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, resp["success"].(bool))
	assert.NotEmpty(t, resp["token"])

	// Students cannot use the admin entry point.
	_, resp = doJSON(t, router, http.MethodPost, "/api/admin/login", "", map[string]string{"email": "student@example.edu", "password": "secret"})
	assert.False(t, resp["success"].(bool))

	_, resp = doJSON(t, router, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "student@example.edu", "password": "wrong"})
	assert.False(t, resp["success"].(bool))
	assert.Equal(t, "Invalid email or password", resp["message"])
}

func TestRequireAuth(t *testing.T) {
	s, router, _, student := setupTestServer(t)

	w, resp := doJSON(t, router, http.MethodGet, "/api/complaints/my-complaints", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.False(t, resp["success"].(bool))

	token, err := s.IssueToken(student)
	require.NoError(t, err)
	w, _ = doJSON(t, router, http.MethodGet, "/api/complaints/all", token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestExpiredToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	issued := time.Now().Add(-48 * time.Hour)
	s := New(WithClock(func() time.Time { return issued }), WithTokenTTL(time.Hour))
	u, err := s.SeedUser("Admin", "a@example.edu", "pw", models.RoleAdmin)
	require.NoError(t, err)
	token, err := s.IssueToken(u)
	require.NoError(t, err)

	s.now = time.Now
	w, _ := doJSON(t, s.Router(), http.MethodGet, "/api/complaints/stats", token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestUpdateStatus_SetsResolvedAt(t *testing.T) {
	s, router, admin, student := setupTestServer(t)
	c := s.SeedComplaint(student.ID, models.Complaint{Title: "Leak", Description: "Roof", Status: models.StatusInProgress})
	token, err := s.IssueToken(admin)
	require.NoError(t, err)

	w, resp := doJSON(t, router, http.MethodPut, "/api/complaints/"+c.ID+"/update-status", token,
		map[string]string{"status": "resolved", "admin_response": "Fixed"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, resp["success"].(bool))

	stored, ok := s.Complaint(c.ID)
	require.True(t, ok)
	assert.Equal(t, models.StatusResolved, stored.Status)
	assert.NotNil(t, stored.ResolvedAt)
	assert.Equal(t, "Fixed", stored.AdminResponse)
	assert.NoError(t, stored.Validate())

	w, resp = doJSON(t, router, http.MethodPut, "/api/complaints/missing/update-status", token, map[string]string{"status": "resolved"})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Complaint not found", resp["message"])
}

func TestClassify(t *testing.T) {
	tests := []struct {
		text     string
		category string
		priority models.Priority
	}{
		{"WiFi is down in the hostel", "Infrastructure", models.PriorityHigh},
		{"Exam grades were not published", "Academics", models.PriorityMedium},
		{"There was a fire alarm nobody checked", "Safety", models.PriorityUrgent},
		{"Something else entirely", "General", models.PriorityLow},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got := classify(tt.text)
			assert.Equal(t, tt.category, got.PredictedCategory)
			assert.Equal(t, tt.priority, got.PredictedPriority)
		})
	}
}

func TestPaginate(t *testing.T) {
	list := make([]models.Complaint, 25)
	page, pag := paginate(list, 3, 10)
	assert.Len(t, page, 5)
	assert.Equal(t, models.Pagination{Page: 3, PerPage: 10, Total: 25, Pages: 3}, pag)

	page, _ = paginate(list, 9, 10)
	assert.Empty(t, page)

	page, pag = paginate(nil, 0, 0)
	assert.Empty(t, page)
	assert.Equal(t, 0, pag.Pages)
}
