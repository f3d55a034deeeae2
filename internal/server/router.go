package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/diyetkent/diyetkent/internal/alarm"
	"github.com/diyetkent/diyetkent/internal/profile"
	"github.com/diyetkent/diyetkent/internal/records"
	"github.com/diyetkent/diyetkent/internal/session"
	"github.com/diyetkent/diyetkent/internal/syncer"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const sessionContextKey = "diyetkent_session_claims"

var (
	errMissingSessionManager = errors.New("session manager dependency required")
	errMissingRecordStore    = errors.New("record store dependency required")
	errMissingSyncHub        = errors.New("sync hub dependency required")
	errMissingInbox          = errors.New("alert inbox dependency required")
	errMissingProfileService = errors.New("profile service dependency required")
)

// Dependencies wires the HTTP surface to the core services.
type Dependencies struct {
	Sessions *session.Manager
	Records  *records.Store
	Profiles *profile.Service
	Sync     *syncer.Hub
	Inbox    *alarm.Inbox
	Clock    func() time.Time
	Logger   *zap.Logger
}

// NewHTTPHandler builds the local loopback API consumed by the desktop shell.
func NewHTTPHandler(deps Dependencies) (http.Handler, error) {
	if deps.Sessions == nil {
		return nil, errMissingSessionManager
	}
	if deps.Records == nil {
		return nil, errMissingRecordStore
	}
	if deps.Sync == nil {
		return nil, errMissingSyncHub
	}
	if deps.Inbox == nil {
		return nil, errMissingInbox
	}
	if deps.Profiles == nil {
		return nil, errMissingProfileService
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}))

	handler := &httpHandler{
		sessions: deps.Sessions,
		records:  deps.Records,
		profiles: deps.Profiles,
		inbox:    deps.Inbox,
		clock:    clock,
		logger:   logger,
		resources: map[string]resource{
			"notes":        noteResource{store: deps.Records, engine: deps.Sync.Notes},
			"appointments": appointmentResource{store: deps.Records, engine: deps.Sync.Appointments},
			"recipes":      recipeResource{store: deps.Records, engine: deps.Sync.Recipes},
			"templates":    templateResource{store: deps.Records, engine: deps.Sync.Templates},
		},
	}

	router.POST("/auth/session", handler.handleOpenSession)

	api := router.Group("/")
	api.Use(handler.authenticateRequest)
	api.GET("/entities/:type", handler.handleListEntities)
	api.POST("/entities/:type", handler.handleCreateEntity)
	api.PUT("/entities/:type/:id", handler.handleUpdateEntity)
	api.DELETE("/entities/:type/:id", handler.handleDeleteEntity)
	api.POST("/entities/:type/prune", handler.handlePruneEntities)
	api.POST("/sync/:type", handler.handleReconcile)
	api.GET("/sync/status", handler.handleSyncStatus)
	api.GET("/alerts", handler.handleListAlerts)
	api.DELETE("/alerts/:id", handler.handleDismissAlert)
	api.GET("/profile", handler.handleGetProfile)
	api.PUT("/profile", handler.handleUpdateProfile)

	return router, nil
}

type httpHandler struct {
	sessions  *session.Manager
	records   *records.Store
	profiles  *profile.Service
	inbox     *alarm.Inbox
	clock     func() time.Time
	logger    *zap.Logger
	resources map[string]resource
}

type openSessionPayload struct {
	UserID      string `json:"user_id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
}

type sessionResponsePayload struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
	TokenType   string `json:"token_type"`
	TenantID    string `json:"tenant_id"`
}

// handleOpenSession binds an identity the desktop shell has already verified
// to a signed session token.
func (h *httpHandler) handleOpenSession(c *gin.Context) {
	var request openSessionPayload
	if err := c.ShouldBindJSON(&request); err != nil || strings.TrimSpace(request.UserID) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	token, expiresIn, err := h.sessions.Issue(request.UserID, request.Email, request.DisplayName)
	if err != nil {
		h.logger.Error("failed to issue session token", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token_issue_failed"})
		return
	}

	claims := session.Claims{UserID: strings.TrimSpace(request.UserID)}
	c.JSON(http.StatusOK, sessionResponsePayload{
		AccessToken: token,
		ExpiresIn:   expiresIn,
		TokenType:   "Bearer",
		TenantID:    session.ResolveTenantID(&claims).String(),
	})
}

// authenticateRequest validates a bearer token when one is supplied. An
// absent token is allowed: the request proceeds as the fallback tenant.
func (h *httpHandler) authenticateRequest(c *gin.Context) {
	header := strings.TrimSpace(c.GetHeader("Authorization"))
	if header == "" {
		c.Next()
		return
	}

	const bearerPrefix = "Bearer "
	if !strings.HasPrefix(header, bearerPrefix) {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	claims, err := h.sessions.Validate(strings.TrimPrefix(header, bearerPrefix))
	if err != nil {
		h.logger.Warn("session token rejected", zap.Error(err))
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	c.Set(sessionContextKey, claims)
	c.Next()
}

func (h *httpHandler) tenantFor(c *gin.Context) session.TenantID {
	value, exists := c.Get(sessionContextKey)
	if !exists {
		return session.ResolveTenantID(nil)
	}
	claims, ok := value.(session.Claims)
	if !ok {
		return session.ResolveTenantID(nil)
	}
	return session.ResolveTenantID(&claims)
}

func (h *httpHandler) resourceFor(c *gin.Context) (resource, bool) {
	res, ok := h.resources[c.Param("type")]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown_entity_type"})
		return nil, false
	}
	return res, true
}
