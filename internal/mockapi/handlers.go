package mockapi

import (
	"mime"
	"net/http"
	"path"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/goatkit/querypro/internal/models"
)

// Router returns the gin engine serving the backend contract.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.POST("/api/auth/login", s.handleLogin(models.RoleStudent))
	r.POST("/api/admin/login", s.handleLogin(models.RoleAdmin))

	api := r.Group("/api", s.requireAuth)
	{
		api.GET("/complaints/all", requireRole(models.RoleAdmin), s.handleListAll)
		api.GET("/complaints/my-complaints", s.handleListMine)
		api.GET("/complaints/stats", requireRole(models.RoleAdmin), s.handleStats)
		api.PUT("/complaints/:id/update-status", requireRole(models.RoleAdmin), s.handleUpdateStatus)
		api.POST("/complaints/submit", s.handleSubmit)
		api.POST("/ml/classify", s.handleClassify)
		api.POST("/chatbot/chat", s.handleChat)
		api.GET("/chatbot/check-status", s.handleCheckStatus)
	}
	return r
}

func (s *Server) requireAuth(c *gin.Context) {
	header := c.GetHeader("Authorization")
	raw, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || strings.TrimSpace(raw) == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Access token required"})
		return
	}
	cl, err := s.parseToken(strings.TrimSpace(raw))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Invalid or expired token"})
		return
	}
	c.Set("user_id", cl.Subject)
	c.Set("role", cl.Role)
	c.Next()
}

func requireRole(role models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		if got, _ := c.Get("role"); got != role {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"success": false, "message": "Admin access required"})
			return
		}
		c.Next()
	}
}

func (s *Server) handleLogin(role models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body struct {
			Email    string `json:"email" binding:"required"`
			Password string `json:"password" binding:"required"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Email and password are required"})
			return
		}
		u, ok := s.authenticate(body.Email, body.Password)
		if !ok || u.Role != role {
			c.JSON(http.StatusOK, gin.H{"success": false, "message": "Invalid email or password"})
			return
		}
		token, err := s.IssueToken(u)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to issue token"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "token": token, "user": u})
	}
}

func (s *Server) snapshot(keep func(*record) bool) []models.Complaint {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Complaint, 0, len(s.records))
	for _, r := range s.records {
		if keep(r) {
			out = append(out, r.complaint)
		}
	}
	// newest first, as the dashboards list them
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func paginate(list []models.Complaint, page, perPage int) ([]models.Complaint, models.Pagination) {
	if perPage <= 0 {
		perPage = len(list)
		if perPage == 0 {
			perPage = 10
		}
	}
	if page <= 0 {
		page = 1
	}
	total := len(list)
	pages := (total + perPage - 1) / perPage
	start := (page - 1) * perPage
	if start > total {
		start = total
	}
	end := start + perPage
	if end > total {
		end = total
	}
	return list[start:end], models.Pagination{Page: page, PerPage: perPage, Total: total, Pages: pages}
}

func (s *Server) handleListAll(c *gin.Context) {
	var filter models.Status
	if raw := c.Query("status"); raw != "" {
		st, err := models.ParseStatus(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid status filter"})
			return
		}
		filter = st
	}
	list := s.snapshot(func(r *record) bool { return filter == "" || r.complaint.Status == filter })
	page, pag := paginate(list, 0, 0)
	c.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{"complaints": page, "pagination": pag}})
}

func (s *Server) handleListMine(c *gin.Context) {
	uid := c.GetString("user_id")
	p, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pp, _ := strconv.Atoi(c.DefaultQuery("per_page", "10"))
	list := s.snapshot(func(r *record) bool { return r.ownerID == uid })
	page, pag := paginate(list, p, pp)
	c.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{"complaints": page, "pagination": pag}})
}

func (s *Server) handleStats(c *gin.Context) {
	var st models.Statistics
	for _, cm := range s.snapshot(func(*record) bool { return true }) {
		st.TotalComplaints++
		switch cm.Status {
		case models.StatusPending:
			st.StatusStats.Pending++
		case models.StatusInProgress:
			st.StatusStats.InProgress++
		case models.StatusResolved:
			st.StatusStats.Resolved++
		}
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": st})
}

func (s *Server) handleUpdateStatus(c *gin.Context) {
	var body struct {
		Status        string `json:"status"`
		AdminResponse string `json:"admin_response"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid request body"})
		return
	}
	next, err := models.ParseStatus(body.Status)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid status"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.records {
		if r.complaint.ID != c.Param("id") {
			continue
		}
		// last write wins; repeating a transition is accepted
		r.complaint.Status = next
		if body.AdminResponse != "" {
			r.complaint.AdminResponse = body.AdminResponse
		}
		if next == models.StatusResolved && r.complaint.ResolvedAt == nil {
			now := s.now()
			r.complaint.ResolvedAt = &now
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "Complaint status updated", "data": r.complaint})
		return
	}
	c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Complaint not found"})
}

func (s *Server) handleSubmit(c *gin.Context) {
	title := strings.TrimSpace(c.PostForm("title"))
	description := strings.TrimSpace(c.PostForm("description"))
	if title == "" || description == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Title and description are required"})
		return
	}

	var attachments []models.Attachment
	if form, err := c.MultipartForm(); err == nil {
		for _, fh := range form.File["attachments"] {
			ct := fh.Header.Get("Content-Type")
			if ct == "" || ct == "application/octet-stream" {
				if byExt := mime.TypeByExtension(filepath.Ext(fh.Filename)); byExt != "" {
					ct = byExt
				}
			}
			attachments = append(attachments, models.Attachment{
				FileURL:          path.Join("/uploads", uuid.NewString(), fh.Filename),
				FileType:         ct,
				OriginalFilename: fh.Filename,
			})
		}
	}

	cls := classify(title + " " + description)
	created := s.SeedComplaint(c.GetString("user_id"), models.Complaint{
		Title:       title,
		Description: description,
		Priority:    cls.PredictedPriority,
		Category:    cls.PredictedCategory,
		Attachments: attachments,
	})
	s.logger.Info("complaint submitted", "ticket_id", created.TicketID, "attachments", len(attachments))
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Complaint submitted successfully",
		"data":    gin.H{"ticket_id": created.TicketID, "complaint": created},
	})
}

func (s *Server) handleClassify(c *gin.Context) {
	var body struct {
		Query string `json:"query"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || strings.TrimSpace(body.Query) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Query is required"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": classify(body.Query)})
}

var ticketPattern = regexp.MustCompile(`(?i)\bQP-\d{4}-\d{4}\b`)

func (s *Server) findTicket(ticketID string) (models.Complaint, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.records {
		if strings.EqualFold(r.complaint.TicketID, ticketID) {
			return r.complaint, true
		}
	}
	return models.Complaint{}, false
}

func (s *Server) handleChat(c *gin.Context) {
	var body struct {
		Message  string `json:"message"`
		UserID   string `json:"user_id"`
		UserRole string `json:"user_role"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || strings.TrimSpace(body.Message) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Message is required"})
		return
	}

	if id := ticketPattern.FindString(body.Message); id != "" {
		if cm, ok := s.findTicket(id); ok {
			c.JSON(http.StatusOK, gin.H{
				"success":        true,
				"bot_response":   "Ticket **" + cm.TicketID + "** is currently *" + cm.Status.Label() + "*.",
				"complaint_data": cm,
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "bot_response": "I couldn't find ticket " + strings.ToUpper(id) + "."})
		return
	}

	reply := "I can help you file a complaint or check a ticket. Send me a ticket ID like `QP-2025-0001` to see its status."
	if cls := classify(body.Message); cls.ClassificationMethod == "keyword" {
		reply = "That sounds like a **" + cls.PredictedCategory + "** issue. You can submit it from the New Complaint form."
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "bot_response": reply})
}

func (s *Server) handleCheckStatus(c *gin.Context) {
	id := strings.TrimSpace(c.Query("ticket_id"))
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "ticket_id is required"})
		return
	}
	cm, ok := s.findTicket(id)
	if !ok {
		c.JSON(http.StatusOK, gin.H{"success": true, "has_complaint_data": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "has_complaint_data": true, "complaint_data": cm})
}
