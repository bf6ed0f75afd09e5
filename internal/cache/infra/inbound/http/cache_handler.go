package http

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/davicafu/rediscache/internal/cache/domain"
	"github.com/davicafu/rediscache/pkg/utils"
)

// Cabecera con el instante de escritura de un registro (segundos unix).
const HeaderStoredAt = "X-Cache-Stored-At"

// Tamaño máximo de un payload aceptado por PUT.
const maxPayloadBytes = 8 << 20

// CacheHandler encapsula los endpoints HTTP del backend de caché.
// El backend tiene que ser seguro entre goroutines (ver application.SyncBackend).
type CacheHandler struct {
	backend domain.Backend
	log     *zap.Logger
}

// NewCacheHandler crea un nuevo CacheHandler
func NewCacheHandler(backend domain.Backend, log *zap.Logger) *CacheHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &CacheHandler{backend: backend, log: log}
}

// ---------------- Handlers ----------------

// Load endpoint GET /cache/:id
func (h *CacheHandler) Load(c *gin.Context) {
	id := c.Param("id")
	skip := c.Query("skip_validity") == "true"

	data, ok, err := h.backend.Load(c.Request.Context(), id, skip)
	if err != nil {
		h.sendBackendError(c, err)
		return
	}
	if !ok {
		utils.SendNotFound(c, "cache entry not found")
		return
	}
	c.Data(http.StatusOK, "application/octet-stream", data)
}

// Test endpoint HEAD /cache/:id
func (h *CacheHandler) Test(c *gin.Context) {
	storedAt, ok, err := h.backend.Test(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.log.Warn("cache test failed", zap.Error(err))
		c.Status(statusFor(err))
		return
	}
	if !ok {
		c.Status(http.StatusNotFound)
		return
	}
	c.Header(HeaderStoredAt, strconv.FormatInt(storedAt, 10))
	c.Status(http.StatusOK)
}

// Save endpoint PUT /cache/:id
// Query params: lifetime (segundos, 0 = infinito, omitido = default) y tags (separados por comas).
func (h *CacheHandler) Save(c *gin.Context) {
	lifetime := domain.UseDefaultLifetime
	if raw := c.Query("lifetime"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			utils.SendBadRequest(c, "invalid lifetime, use a non-negative number of seconds")
			return
		}
		lifetime = v
	}

	data, err := io.ReadAll(io.LimitReader(c.Request.Body, maxPayloadBytes+1))
	if err != nil {
		utils.SendBadRequest(c, err.Error())
		return
	}
	if len(data) > maxPayloadBytes {
		utils.SendError(c, http.StatusRequestEntityTooLarge, "payload too large")
		return
	}

	ok, err := h.backend.Save(c.Request.Context(), data, c.Param("id"), splitList(c.Query("tags")), lifetime)
	if err != nil {
		h.sendBackendError(c, err)
		return
	}
	utils.SendSuccess(c, http.StatusOK, gin.H{"saved": ok})
}

// Remove endpoint DELETE /cache/:id
func (h *CacheHandler) Remove(c *gin.Context) {
	removed, err := h.backend.Remove(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.sendBackendError(c, err)
		return
	}
	if !removed {
		utils.SendNotFound(c, "cache entry not found")
		return
	}
	c.Status(http.StatusNoContent)
}

// Metadata endpoint GET /cache/:id/metadata
func (h *CacheHandler) Metadata(c *gin.Context) {
	md, ok, err := h.backend.GetMetadatas(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.sendBackendError(c, err)
		return
	}
	if !ok {
		utils.SendNotFound(c, "cache entry not found")
		return
	}
	utils.SendSuccess(c, http.StatusOK, md)
}

// Touch endpoint POST /cache/:id/touch
func (h *CacheHandler) Touch(c *gin.Context) {
	var req struct {
		ExtraLifetime *int `json:"extra_lifetime" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendBadRequest(c, err.Error())
		return
	}

	ok, err := h.backend.Touch(c.Request.Context(), c.Param("id"), *req.ExtraLifetime)
	if err != nil {
		h.sendBackendError(c, err)
		return
	}
	if !ok {
		utils.SendNotFound(c, "cache entry not found or already expired")
		return
	}
	utils.SendSuccess(c, http.StatusOK, gin.H{"touched": true})
}

// ListIDs endpoint GET /cache
// Con ?tags=a,b filtra por tags según ?match=all (default), none o any.
func (h *CacheHandler) ListIDs(c *gin.Context) {
	ctx := c.Request.Context()
	tags := splitList(c.Query("tags"))

	var (
		ids []string
		err error
	)
	switch {
	case len(tags) == 0:
		ids, err = h.backend.GetIDs(ctx)
	case c.DefaultQuery("match", "all") == "all":
		ids, err = h.backend.GetIDsMatchingTags(ctx, tags)
	case c.Query("match") == "none":
		ids, err = h.backend.GetIDsNotMatchingTags(ctx, tags)
	case c.Query("match") == "any":
		ids, err = h.backend.GetIDsMatchingAnyTags(ctx, tags)
	default:
		utils.SendBadRequest(c, "invalid match, use all, none or any")
		return
	}
	if err != nil {
		h.sendBackendError(c, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	utils.SendSuccess(c, http.StatusOK, ids)
}

// Clean endpoint POST /cache/clean
func (h *CacheHandler) Clean(c *gin.Context) {
	var req struct {
		Mode domain.CleaningMode `json:"mode"`
		Tags []string            `json:"tags"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendBadRequest(c, err.Error())
		return
	}
	if req.Mode == "" {
		req.Mode = domain.ModeAll
	}

	ok, err := h.backend.Clean(c.Request.Context(), req.Mode, req.Tags)
	if err != nil {
		h.sendBackendError(c, err)
		return
	}
	utils.SendSuccess(c, http.StatusOK, gin.H{"cleaned": ok})
}

// Capabilities endpoint GET /capabilities
func (h *CacheHandler) Capabilities(c *gin.Context) {
	utils.SendSuccess(c, http.StatusOK, h.backend.GetCapabilities())
}

// FillingPercentage endpoint GET /filling-percentage
func (h *CacheHandler) FillingPercentage(c *gin.Context) {
	pct, err := h.backend.GetFillingPercentage(c.Request.Context())
	if err != nil {
		h.sendBackendError(c, err)
		return
	}
	utils.SendSuccess(c, http.StatusOK, gin.H{"filling_percentage": pct})
}

// Health endpoint GET /health
func (h *CacheHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *CacheHandler) sendBackendError(c *gin.Context, err error) {
	status := statusFor(err)
	switch status {
	case http.StatusServiceUnavailable:
		h.log.Warn("cache store unavailable", zap.String("path", c.FullPath()), zap.Error(err))
		utils.SendServiceUnavailable(c, err.Error())
	case http.StatusNotImplemented:
		utils.SendNotImplemented(c, err.Error())
	case http.StatusBadRequest:
		utils.SendBadRequest(c, err.Error())
	default:
		h.log.Error("cache operation failed", zap.String("path", c.FullPath()), zap.Error(err))
		utils.SendInternalServerError(c, err.Error())
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrConnection):
		return http.StatusServiceUnavailable
	case errors.Is(err, domain.ErrUnsupported):
		return http.StatusNotImplemented
	case errors.Is(err, domain.ErrInvalidCleaningMode):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
