package server

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/moabank/counsel/internal/dispatch"
	"github.com/moabank/counsel/internal/identity"
	"github.com/moabank/counsel/internal/messaging"
	"github.com/moabank/counsel/internal/models"
	"gorm.io/gorm"
)

// sessionView is the wire shape of a chat session.
type sessionView struct {
	SessionID    uint       `json:"session_id"`
	Reference    string     `json:"reference"`
	CustomerID   int64      `json:"customer_id"`
	ConsultantID *int64     `json:"consultant_id,omitempty"`
	Category     string     `json:"category"`
	Priority     int        `json:"priority"`
	Status       string     `json:"status"`
	CreatedAt    time.Time  `json:"created_at"`
	ClosedAt     *time.Time `json:"closed_at,omitempty"`
}

func viewOf(s models.ChatSession) sessionView {
	return sessionView{
		SessionID:    s.ID,
		Reference:    s.Reference,
		CustomerID:   s.CustomerID,
		ConsultantID: s.ConsultantID,
		Category:     s.Category,
		Priority:     s.Priority,
		Status:       s.Status,
		CreatedAt:    s.CreatedAt,
		ClosedAt:     s.ClosedAt,
	}
}

// messageView is the wire shape of a chat message.
type messageView struct {
	MessageID          uint       `json:"message_id"`
	SessionID          uint       `json:"session_id"`
	SenderRole         string     `json:"sender_role"`
	SenderID           int64      `json:"sender_id"`
	Content            string     `json:"content"`
	SentAt             time.Time  `json:"sent_at"`
	ReadByCustomerAt   *time.Time `json:"read_by_customer_at,omitempty"`
	ReadByConsultantAt *time.Time `json:"read_by_consultant_at,omitempty"`
}

func messageViewOf(m models.ChatMessage) messageView {
	return messageView{
		MessageID:          m.ID,
		SessionID:          m.SessionID,
		SenderRole:         m.SenderRole,
		SenderID:           m.SenderID,
		Content:            m.Content,
		SentAt:             m.SentAt,
		ReadByCustomerAt:   m.ReadByCustomerAt,
		ReadByConsultantAt: m.ReadByConsultantAt,
	}
}

// registerRoutes sets up all API routes on the Gin router.
func registerRoutes(router *gin.Engine, opts StartOpts) {
	router.GET("/healthz", handleHealth(opts.DB))

	api := router.Group("/api")
	api.POST("/sessions", handleStartSession(opts.DB, opts.Directory))
	api.GET("/sessions/waiting", handleWaitingSessions(opts.DB))
	api.GET("/consultants/:id/sessions", handleActiveSessions(opts.DB))
	api.POST("/sessions/:id/claim", handleClaim(opts.DB))
	api.POST("/claim-next", handleClaimNext(opts.DB))
	api.POST("/sessions/:id/close", handleClose(opts.DB, opts.ReleaseConsultantOnClose))
	api.GET("/sessions/:id/messages", handleMessages(opts.DB))
	api.POST("/sessions/:id/messages", handleAppendMessage(opts.DB))
	api.POST("/sessions/:id/read", handleMarkRead(opts.DB))
	api.GET("/sessions/:id/unread", handleUnreadCount(opts.DB))
}

func handleHealth(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.Ping()
		}
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

func handleStartSession(db *gorm.DB, dir identity.Directory) gin.HandlerFunc {
	type request struct {
		LoginID    string `json:"login_id"`
		CustomerID int64  `json:"customer_id"`
		Category   string `json:"category"`
	}
	return func(c *gin.Context) {
		var req request
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}

		customerID := req.CustomerID
		if customerID == 0 {
			id, err := dir.ResolveNumericHandle(req.LoginID)
			if err != nil {
				if errors.Is(err, identity.ErrNotFound) {
					c.JSON(http.StatusNotFound, gin.H{"error": "unknown customer"})
					return
				}
				c.JSON(http.StatusBadRequest, gin.H{"error": "login_id or customer_id is required"})
				return
			}
			customerID = id
		}

		// A customer without a tier record queues at the default score.
		tier, err := dir.TierOf(customerID)
		if err != nil {
			tier = models.TierBasic
		}

		session, created, err := dispatch.StartOrResume(db, customerID, tier, req.Category)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		status := http.StatusOK
		if created {
			status = http.StatusCreated
		}
		c.JSON(status, viewOf(*session))
	}
}

func handleWaitingSessions(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessions, err := dispatch.ListWaiting(db)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		views := make([]sessionView, len(sessions))
		for i, s := range sessions {
			views[i] = viewOf(s)
		}
		c.JSON(http.StatusOK, views)
	}
}

func handleActiveSessions(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		consultantID, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid consultant id"})
			return
		}
		sessions, err := dispatch.ListActiveFor(db, consultantID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		views := make([]sessionView, len(sessions))
		for i, s := range sessions {
			views[i] = viewOf(s)
		}
		c.JSON(http.StatusOK, views)
	}
}

func handleClaim(db *gorm.DB) gin.HandlerFunc {
	type request struct {
		ConsultantID int64 `json:"consultant_id" binding:"required"`
	}
	return func(c *gin.Context) {
		sessionID, err := sessionParam(c)
		if err != nil {
			return
		}
		var req request
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "consultant_id is required"})
			return
		}

		result, err := dispatch.Claim(db, sessionID, req.ConsultantID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		switch result {
		case dispatch.ClaimAssigned:
			c.JSON(http.StatusOK, gin.H{"result": result})
		case dispatch.ClaimAlreadyTaken:
			// Non-fatal: the caller picks another session.
			c.JSON(http.StatusConflict, gin.H{"result": result})
		case dispatch.ClaimNotFound:
			c.JSON(http.StatusNotFound, gin.H{"result": result})
		}
	}
}

func handleClaimNext(db *gorm.DB) gin.HandlerFunc {
	type request struct {
		ConsultantID int64 `json:"consultant_id" binding:"required"`
	}
	return func(c *gin.Context) {
		var req request
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "consultant_id is required"})
			return
		}

		session, err := dispatch.ClaimNext(db, req.ConsultantID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if session == nil {
			c.JSON(http.StatusOK, gin.H{"result": "none"})
			return
		}
		c.JSON(http.StatusOK, viewOf(*session))
	}
}

func handleClose(db *gorm.DB, releaseConsultant bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID, err := sessionParam(c)
		if err != nil {
			return
		}
		result, err := dispatch.Close(db, sessionID, releaseConsultant)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		switch result {
		case dispatch.CloseClosed, dispatch.CloseAlreadyClosed:
			c.JSON(http.StatusOK, gin.H{"result": result})
		case dispatch.CloseNotFound:
			c.JSON(http.StatusNotFound, gin.H{"result": result})
		}
	}
}

func handleMessages(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID, err := sessionParam(c)
		if err != nil {
			return
		}
		msgs, err := messaging.History(db, sessionID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		views := make([]messageView, len(msgs))
		for i, m := range msgs {
			views[i] = messageViewOf(m)
		}
		c.JSON(http.StatusOK, views)
	}
}

func handleAppendMessage(db *gorm.DB) gin.HandlerFunc {
	type request struct {
		SenderRole string `json:"sender_role" binding:"required"`
		SenderID   int64  `json:"sender_id" binding:"required"`
		Content    string `json:"content" binding:"required"`
	}
	return func(c *gin.Context) {
		sessionID, err := sessionParam(c)
		if err != nil {
			return
		}
		var req request
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "sender_role, sender_id and content are required"})
			return
		}

		msg, err := messaging.Append(db, sessionID, req.SenderRole, req.SenderID, req.Content)
		if err != nil {
			switch {
			case errors.Is(err, messaging.ErrSessionNotFound):
				c.JSON(http.StatusNotFound, gin.H{"error": "unknown session"})
			case errors.Is(err, messaging.ErrSessionClosed):
				c.JSON(http.StatusConflict, gin.H{"error": "session is closed"})
			default:
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			}
			return
		}
		c.JSON(http.StatusCreated, messageViewOf(*msg))
	}
}

func handleMarkRead(db *gorm.DB) gin.HandlerFunc {
	type request struct {
		ReaderRole string `json:"reader_role" binding:"required"`
	}
	return func(c *gin.Context) {
		sessionID, err := sessionParam(c)
		if err != nil {
			return
		}
		var req request
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "reader_role is required"})
			return
		}

		updated, err := messaging.MarkRead(db, sessionID, req.ReaderRole)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"updated": updated})
	}
}

func handleUnreadCount(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID, err := sessionParam(c)
		if err != nil {
			return
		}
		role := c.Query("role")
		count, err := messaging.UnreadCount(db, sessionID, role)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"count": count})
	}
}

// sessionParam parses the :id path segment, replying 400 on garbage.
func sessionParam(c *gin.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session id"})
		return 0, err
	}
	return uint(id), nil
}
