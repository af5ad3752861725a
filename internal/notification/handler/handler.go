package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"hooknotify_backend/internal/notification/transport"
	"hooknotify_backend/platform/httpkit"
	"hooknotify_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidID        = "invalid id"

	maxHookBodyBytes = 64 << 10
)

// HookDispatcher routes an inbound host event.
type HookDispatcher interface {
	DispatchHook(ctx context.Context, tag string, payload map[string]any) (transport.DispatchResponse, error)
}

// AdminService is the operator surface of the module.
type AdminService interface {
	GetConfiguration(ctx context.Context) (transport.ConfigurationResponse, error)
	SaveConfiguration(ctx context.Context, req transport.SaveConfigurationRequest) (transport.ConfigurationResponse, error)
	ListTemplates(ctx context.Context) ([]transport.TemplateResponse, error)
	UpdateTemplate(ctx context.Context, id int64, req transport.UpdateTemplateRequest) (transport.TemplateResponse, error)
	UpdateTemplateRules(ctx context.Context, id int64, raw []byte) (transport.TemplateResponse, error)
	ListLogs(ctx context.Context, limit int) ([]transport.LogEntryResponse, error)
	ClearLogs(ctx context.Context) error
	SendManualMessage(ctx context.Context, req transport.ManualMessageRequest) (transport.DispatchResponse, error)
	RunInvoiceReminder(ctx context.Context, invoiceID int64) (transport.DispatchResponse, error)
	RunServiceReady(ctx context.Context, serviceID int64) (transport.DispatchResponse, error)
	ConsultMessage(ctx context.Context, messageID int64) (transport.MessageStatusResponse, error)
}

// Handler serves hook ingress and the admin routes.
type Handler struct {
	hooks HookDispatcher
	admin AdminService
	val   *validator.Validator
}

func New(hooks HookDispatcher, admin AdminService, val *validator.Validator) *Handler {
	return &Handler{hooks: hooks, admin: admin, val: val}
}

// RegisterHookRoutes mounts POST /:event on rg.
func (h *Handler) RegisterHookRoutes(rg *gin.RouterGroup) {
	rg.POST("/:event", h.ReceiveHook)
}

// RegisterAdminRoutes mounts the operator routes on rg.
func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.GET("/configuration", h.GetConfiguration)
	rg.PUT("/configuration", h.SaveConfiguration)
	rg.GET("/templates", h.ListTemplates)
	rg.PUT("/templates/:id", h.UpdateTemplate)
	rg.PUT("/templates/:id/rules", h.UpdateTemplateRules)
	rg.GET("/logs", h.ListLogs)
	rg.DELETE("/logs", h.ClearLogs)
	rg.POST("/messages", h.SendManualMessage)
	rg.GET("/messages/:id/status", h.ConsultMessage)
	rg.POST("/actions/invoice-reminder", h.RunInvoiceReminder)
	rg.POST("/actions/service-ready", h.RunServiceReady)
}

// ReceiveHook accepts one host event. The body is the payload map.
// POST /api/v1/hooks/:event
func (h *Handler) ReceiveHook(c *gin.Context) {
	req := transport.HookRequest{Event: c.Param("event")}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	payload, err := decodePayload(c.Request.Body)
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, err.Error())
		return
	}

	result, err := h.hooks.DispatchHook(c.Request.Context(), req.Event, payload)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// GET /api/v1/admin/configuration
func (h *Handler) GetConfiguration(c *gin.Context) {
	result, err := h.admin.GetConfiguration(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// PUT /api/v1/admin/configuration
func (h *Handler) SaveConfiguration(c *gin.Context) {
	var req transport.SaveConfigurationRequest
	if !h.bindJSON(c, &req) {
		return
	}

	result, err := h.admin.SaveConfiguration(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// GET /api/v1/admin/templates
func (h *Handler) ListTemplates(c *gin.Context) {
	result, err := h.admin.ListTemplates(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"items": result})
}

// PUT /api/v1/admin/templates/:id
func (h *Handler) UpdateTemplate(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req transport.UpdateTemplateRequest
	if !h.bindJSON(c, &req) {
		return
	}

	result, err := h.admin.UpdateTemplate(c.Request.Context(), id, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// UpdateTemplateRules takes the rule object as the raw body; null clears it.
// PUT /api/v1/admin/templates/:id/rules
func (h *Handler) UpdateTemplateRules(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, maxHookBodyBytes))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	result, err := h.admin.UpdateTemplateRules(c.Request.Context(), id, raw)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// GET /api/v1/admin/logs
func (h *Handler) ListLogs(c *gin.Context) {
	var req transport.ListLogsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.admin.ListLogs(c.Request.Context(), req.Limit)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"items": result})
}

// DELETE /api/v1/admin/logs
func (h *Handler) ClearLogs(c *gin.Context) {
	if httpkit.HandleError(c, h.admin.ClearLogs(c.Request.Context())) {
		return
	}
	c.Status(http.StatusNoContent)
}

// POST /api/v1/admin/messages
func (h *Handler) SendManualMessage(c *gin.Context) {
	var req transport.ManualMessageRequest
	if !h.bindJSON(c, &req) {
		return
	}

	result, err := h.admin.SendManualMessage(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// GET /api/v1/admin/messages/:id/status
func (h *Handler) ConsultMessage(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	result, err := h.admin.ConsultMessage(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// POST /api/v1/admin/actions/invoice-reminder
func (h *Handler) RunInvoiceReminder(c *gin.Context) {
	var req transport.InvoiceReminderRequest
	if !h.bindJSON(c, &req) {
		return
	}

	result, err := h.admin.RunInvoiceReminder(c.Request.Context(), req.InvoiceID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// POST /api/v1/admin/actions/service-ready
func (h *Handler) RunServiceReady(c *gin.Context) {
	var req transport.ServiceReadyRequest
	if !h.bindJSON(c, &req) {
		return
	}

	result, err := h.admin.RunServiceReady(c.Request.Context(), req.ServiceID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return false
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return false
	}
	return true
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return 0, false
	}
	return id, true
}

// decodePayload reads a JSON object body. An empty body is an empty payload.
// Numbers stay json.Number so large ids survive.
func decodePayload(body io.Reader) (map[string]any, error) {
	raw, err := io.ReadAll(io.LimitReader(body, maxHookBodyBytes))
	if err != nil {
		return nil, err
	}
	payload := map[string]any{}
	if len(bytes.TrimSpace(raw)) == 0 {
		return payload, nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&payload); err != nil {
		return nil, errors.New("payload must be a JSON object")
	}
	if payload == nil {
		payload = map[string]any{}
	}
	return payload, nil
}
