package server

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/diyetkent/diyetkent/internal/profile"
	"github.com/diyetkent/diyetkent/internal/records"
	"github.com/diyetkent/diyetkent/internal/remote"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const lastReconcileSettingPrefix = "last_reconcile_"

func (h *httpHandler) handleListEntities(c *gin.Context) {
	res, ok := h.resourceFor(c)
	if !ok {
		return
	}
	items, err := res.list(c.Request.Context())
	if err != nil {
		h.writeEntityError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (h *httpHandler) handleCreateEntity(c *gin.Context) {
	res, ok := h.resourceFor(c)
	if !ok {
		return
	}
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	created, err := res.create(c.Request.Context(), h.tenantFor(c), body)
	if err != nil {
		h.writeEntityError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *httpHandler) handleUpdateEntity(c *gin.Context) {
	res, ok := h.resourceFor(c)
	if !ok {
		return
	}
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	updated, err := res.update(c.Request.Context(), h.tenantFor(c), c.Param("id"), body)
	if err != nil {
		h.writeEntityError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *httpHandler) handleDeleteEntity(c *gin.Context) {
	res, ok := h.resourceFor(c)
	if !ok {
		return
	}
	if err := res.remove(c.Request.Context(), h.tenantFor(c), c.Param("id")); err != nil {
		h.writeEntityError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *httpHandler) handlePruneEntities(c *gin.Context) {
	res, ok := h.resourceFor(c)
	if !ok {
		return
	}
	pruned, err := res.prune(c.Request.Context())
	if err != nil {
		h.writeEntityError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"pruned": pruned})
}

// handleReconcile runs a full push-then-pull pass for one collection. An
// unreachable remote answers 502 with the zero-count result so the shell can
// show the attempt without treating it as data loss.
func (h *httpHandler) handleReconcile(c *gin.Context) {
	res, ok := h.resourceFor(c)
	if !ok {
		return
	}
	result, err := res.reconcile(c.Request.Context(), h.tenantFor(c))
	if err != nil {
		if errors.Is(err, remote.ErrUnavailable) {
			c.JSON(http.StatusBadGateway, gin.H{"error": "remote_unavailable", "result": result})
			return
		}
		h.logger.Error("reconcile failed", zap.String("entity_type", c.Param("type")), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "reconcile_failed"})
		return
	}

	stamp := h.clock().UTC().Format(time.RFC3339)
	if err := h.records.SetSetting(c.Request.Context(), lastReconcileSettingPrefix+c.Param("type"), stamp); err != nil {
		h.logger.Warn("failed to record reconcile time", zap.String("entity_type", c.Param("type")), zap.Error(err))
	}
	c.JSON(http.StatusOK, gin.H{"result": result, "reconciled_at": stamp})
}

type collectionStatus struct {
	Count         int64  `json:"count"`
	LastReconcile string `json:"last_reconcile,omitempty"`
}

func (h *httpHandler) handleSyncStatus(c *gin.Context) {
	ctx := c.Request.Context()
	status := make(map[string]collectionStatus, len(h.resources))
	for name, res := range h.resources {
		count, err := res.count(ctx)
		if err != nil {
			h.logger.Error("failed to count records", zap.String("entity_type", name), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "status_failed"})
			return
		}
		last, _, err := h.records.GetSetting(ctx, lastReconcileSettingPrefix+name)
		if err != nil {
			h.logger.Error("failed to read reconcile time", zap.String("entity_type", name), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "status_failed"})
			return
		}
		status[name] = collectionStatus{Count: count, LastReconcile: last}
	}
	c.JSON(http.StatusOK, gin.H{"collections": status})
}

func (h *httpHandler) handleListAlerts(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"alerts": h.inbox.Pending()})
}

func (h *httpHandler) handleDismissAlert(c *gin.Context) {
	if !h.inbox.Dismiss(c.Param("id")) {
		c.JSON(http.StatusNotFound, gin.H{"error": "alert_not_found"})
		return
	}
	c.Status(http.StatusNoContent)
}

type profilePayload struct {
	FullName   string `json:"full_name"`
	Title      string `json:"title"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	ClinicName string `json:"clinic_name"`
	AvatarURL  string `json:"avatar_url"`
}

func (h *httpHandler) handleGetProfile(c *gin.Context) {
	dietitian, err := h.profiles.Get(c.Request.Context(), h.tenantFor(c).String())
	if err != nil {
		h.logger.Error("failed to load profile", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "profile_failed"})
		return
	}
	c.JSON(http.StatusOK, dietitian)
}

func (h *httpHandler) handleUpdateProfile(c *gin.Context) {
	var payload profilePayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	updated, err := h.profiles.Update(c.Request.Context(), h.tenantFor(c).String(), profile.Dietitian{
		FullName:   payload.FullName,
		Title:      payload.Title,
		Email:      payload.Email,
		Phone:      payload.Phone,
		ClinicName: payload.ClinicName,
		AvatarURL:  payload.AvatarURL,
	})
	if err != nil {
		h.logger.Error("failed to update profile", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "profile_failed"})
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *httpHandler) writeEntityError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, errBadPayload), errors.Is(err, records.ErrInvalidLocalID):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, records.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
	default:
		h.logger.Error("entity operation failed", zap.String("entity_type", c.Param("type")), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
	}
}
