package handler

import (
	"errors"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"onduty/internal/auth"
	"onduty/internal/cloudinary"
	"onduty/internal/metrics"
	"onduty/internal/onduty"
)

// Handler exposes the on-duty tracker over HTTP.
type Handler struct {
	svc   *onduty.Service
	cloud *cloudinary.Client // nil if Cloudinary not configured

	jwtIssuer  string
	jwtKey     string
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// New creates a handler.
func New(svc *onduty.Service, cloud *cloudinary.Client, jwtIssuer, jwtKey string, accessTTL, refreshTTL time.Duration) *Handler {
	return &Handler{
		svc:        svc,
		cloud:      cloud,
		jwtIssuer:  jwtIssuer,
		jwtKey:     jwtKey,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

// Register mounts all routes on the engine.
func (h *Handler) Register(r *gin.Engine) {
	r.POST("/v1/login", h.Login)
	r.POST("/v1/refresh", h.Refresh)

	authed := r.Group("/v1", auth.RequireAuth(h.jwtKey, h.jwtIssuer))
	authed.POST("/uploads", h.Upload)
	authed.POST("/requests", h.SubmitRequest)
	authed.GET("/requests", h.ListRequests)

	admin := authed.Group("", auth.RequireRole(onduty.RoleAdmin))
	admin.POST("/requests/:id/status", h.UpdateRequestStatus)
	admin.GET("/users", h.ListUsers)
	admin.POST("/users", h.CreateUser)
	admin.PUT("/users/:id", h.UpdateUser)
	admin.DELETE("/users/:id", h.DeleteUser)
	admin.GET("/audit", h.AuditLog)
}

// ---------- Auth ----------

type loginRequest struct {
	ID       string `json:"id" binding:"required"`
	Password string `json:"password" binding:"required"`
	Role     string `json:"role" binding:"required,oneof=student admin"`
}

// Login authenticates either principal kind and issues a token pair.
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ident, err := h.svc.Authenticate(req.ID, req.Password, onduty.Role(req.Role))
	if err != nil {
		metrics.Logins.WithLabelValues(req.Role, "failure").Inc()
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}
	metrics.Logins.WithLabelValues(req.Role, "success").Inc()

	tokens, err := auth.Issue(ident, h.jwtIssuer, h.jwtKey, h.accessTTL, h.refreshTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token issue failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"access_token":  tokens.AccessToken,
		"refresh_token": tokens.RefreshToken,
		"expires_at":    tokens.AccessExp.Unix(),
		"identity":      ident,
	})
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// Refresh exchanges a valid refresh token for a new pair.
func (h *Handler) Refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	claims, err := auth.Parse(req.RefreshToken, h.jwtKey, h.jwtIssuer)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	tokens, err := auth.Issue(claims.Identity(), h.jwtIssuer, h.jwtKey, h.accessTTL, h.refreshTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token issue failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"access_token":  tokens.AccessToken,
		"refresh_token": tokens.RefreshToken,
		"expires_at":    tokens.AccessExp.Unix(),
	})
}

// ---------- Requests ----------

// requestView decorates a request with its display duration.
type requestView struct {
	onduty.OnDutyRequest
	DurationDays int `json:"duration_days"`
}

func viewOf(req onduty.OnDutyRequest) requestView {
	return requestView{OnDutyRequest: req, DurationDays: onduty.DurationDays(req.FromDate, req.ToDate)}
}

// SubmitRequest accepts a student's draft and creates a pending request.
func (h *Handler) SubmitRequest(c *gin.Context) {
	ident, ok := auth.IdentityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing identity"})
		return
	}

	var draft onduty.RequestDraft
	if err := c.ShouldBindJSON(&draft); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	req, err := h.svc.SubmitRequest(ident, draft)
	if err != nil {
		if errors.Is(err, onduty.ErrForbidden) {
			c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	metrics.RequestsSubmitted.Inc()

	c.JSON(http.StatusCreated, viewOf(req))
}

// ListRequests returns all requests for administrators (optionally filtered
// by student_id) and always the caller's own for students.
func (h *Handler) ListRequests(c *gin.Context) {
	ident, ok := auth.IdentityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing identity"})
		return
	}

	var requests []onduty.OnDutyRequest
	if ident.Role == onduty.RoleAdmin {
		if studentID := c.Query("student_id"); studentID != "" {
			requests = h.svc.RequestsBy(studentID)
		} else {
			requests = h.svc.Requests()
		}
	} else {
		requests = h.svc.RequestsBy(ident.ID)
	}

	views := make([]requestView, len(requests))
	for i, req := range requests {
		views[i] = viewOf(req)
	}
	c.JSON(http.StatusOK, gin.H{"requests": views})
}

type statusRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateRequestStatus records an administrative decision.
func (h *Handler) UpdateRequestStatus(c *gin.Context) {
	ident, ok := auth.IdentityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing identity"})
		return
	}

	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updated, found, err := h.svc.UpdateRequestStatus(ident, c.Param("id"), onduty.RequestStatus(req.Status))
	switch {
	case errors.Is(err, onduty.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
		return
	case errors.Is(err, onduty.ErrUnknownStatus):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	case !found:
		// the service treats this as a no-op; surface it to API callers
		c.JSON(http.StatusNotFound, gin.H{"error": "request not found"})
		return
	}
	metrics.RequestDecisions.WithLabelValues(req.Status).Inc()

	c.JSON(http.StatusOK, viewOf(updated))
}

// ---------- Users ----------

// ListUsers returns the student roster.
func (h *Handler) ListUsers(c *gin.Context) {
	users := h.svc.Users()
	if users == nil {
		users = []onduty.StudentUser{}
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

type createUserRequest struct {
	ID       string `json:"id" binding:"required"`
	Password string `json:"password" binding:"required"`
	Name     string `json:"name" binding:"required"`
	RollNo   string `json:"roll_no" binding:"required"`
}

// CreateUser adds a student to the roster.
func (h *Handler) CreateUser(c *gin.Context) {
	ident, _ := auth.IdentityFrom(c)

	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.svc.CreateUser(ident, req.ID, req.Password, req.Name, req.RollNo)
	switch {
	case errors.Is(err, onduty.ErrDuplicateID):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	case errors.Is(err, onduty.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	metrics.UserMutations.WithLabelValues("create").Inc()

	c.JSON(http.StatusCreated, user)
}

type updateUserRequest struct {
	Password string `json:"password"`
	Name     string `json:"name" binding:"required"`
	RollNo   string `json:"roll_no" binding:"required"`
}

// UpdateUser replaces a roster entry. A blank password keeps the current one.
func (h *Handler) UpdateUser(c *gin.Context) {
	ident, _ := auth.IdentityFrom(c)

	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, found, err := h.svc.UpdateUser(ident, onduty.UserPatch{
		ID:     c.Param("id"),
		Secret: req.Password,
		Name:   req.Name,
		RollNo: req.RollNo,
	})
	switch {
	case errors.Is(err, onduty.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	case !found:
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	metrics.UserMutations.WithLabelValues("update").Inc()

	c.JSON(http.StatusOK, user)
}

// DeleteUser removes a student and cascades to their requests. The caller
// must pass confirm=true; deletion is destructive and the confirmation step
// belongs to the invoking surface.
func (h *Handler) DeleteUser(c *gin.Context) {
	ident, _ := auth.IdentityFrom(c)

	if c.Query("confirm") != "true" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "deletion requires confirm=true"})
		return
	}

	removed, found := h.svc.DeleteUser(ident, c.Param("id"))
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	metrics.UserMutations.WithLabelValues("delete").Inc()

	c.JSON(http.StatusOK, gin.H{"deleted": c.Param("id"), "removed_requests": removed})
}

// ---------- Audit ----------

// AuditLog returns administrative actions, newest first.
func (h *Handler) AuditLog(c *gin.Context) {
	entries := h.svc.AuditLog()
	if entries == nil {
		entries = []onduty.AuditLogEntry{}
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

// ---------- Uploads ----------

// Upload pushes an attachment to Cloudinary and returns its public URL, for
// callers that prefer referencing evidence files over inlining data URLs.
// Accepts multipart form data or a JSON body with a base64 data URL.
func (h *Handler) Upload(c *gin.Context) {
	if h.cloud == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "attachment storage not configured"})
		return
	}

	contentType := c.ContentType()
	var result *cloudinary.UploadResult
	var err error

	switch {
	case strings.Contains(contentType, "multipart/form-data"):
		file, header, ferr := c.Request.FormFile("file")
		if ferr != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "file field required"})
			return
		}
		defer file.Close()
		data, ferr := io.ReadAll(file)
		if ferr != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "read file failed"})
			return
		}
		result, err = h.cloud.UploadBytes(data, header.Filename)

	default:
		var body struct {
			Data string `json:"data" binding:"required"`
		}
		if berr := c.ShouldBindJSON(&body); berr != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "provide {\"data\": \"<base64 data URL>\"}"})
			return
		}
		result, err = h.cloud.UploadBase64(body.Data)
	}

	if err != nil {
		log.Printf("cloudinary upload failed: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "attachment upload failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"url":       result.SecureURL,
		"public_id": result.PublicID,
		"bytes":     result.Bytes,
	})
}
