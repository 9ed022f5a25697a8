// Package api exposes the engine over HTTP with gin.
package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/smukkama/symptom-intel/internal/engine"
	"github.com/smukkama/symptom-intel/internal/logger"
	"github.com/smukkama/symptom-intel/internal/model"
)

// Service is the engine surface the HTTP layer needs
type Service interface {
	SubmitReport(ctx context.Context, in model.ReportInput) (*model.SubmitResult, error)
	GetEscalations(ctx context.Context, f model.EscalationFilter) ([]*model.EscalationRecord, error)
	RespondToEscalation(ctx context.Context, reportID string, resp model.WorkerResponse) (*model.EscalationRecord, error)
	GetOutbreaks(ctx context.Context, f model.OutbreakFilter, language string) ([]engine.OutbreakView, error)
	ResolveOutbreak(ctx context.Context, id string) (*model.OutbreakRecord, error)
	Subscribe(ctx context.Context, phone, location, language, name string) (*model.Subscriber, error)
	Unsubscribe(ctx context.Context, phone string) (bool, error)
	Stats(ctx context.Context) (*engine.Stats, error)
}

type Handler struct {
	svc Service
	log *logger.Logger
}

func NewHandler(svc Service, log *logger.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

func (h *Handler) fail(c *gin.Context, op string, err error) {
	status, code := statusFor(err)
	if status == http.StatusInternalServerError {
		h.log.Error("request failed", "op", op, "path", c.FullPath(), "error", err)
	}
	RespondError(c, status, code, err)
}

func badRequest(c *gin.Context, err error) {
	RespondError(c, http.StatusBadRequest, "invalid_request", fmt.Errorf("invalid request body: %w", err))
}

func HealthCheck(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

func (h *Handler) SubmitReport(c *gin.Context) {
	var in model.ReportInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}
	res, err := h.svc.SubmitReport(c.Request.Context(), in)
	if err != nil {
		h.fail(c, "submit_report", err)
		return
	}
	RespondOK(c, res)
}

func (h *Handler) GetEscalations(c *gin.Context) {
	var f model.EscalationFilter
	if s := c.Query("status"); s != "" {
		status, err := model.ParseEscalationStatus(s)
		if err != nil {
			h.fail(c, "get_escalations", err)
			return
		}
		f.Status = status
	}
	f.Language = c.Query("language")

	records, err := h.svc.GetEscalations(c.Request.Context(), f)
	if err != nil {
		h.fail(c, "get_escalations", err)
		return
	}
	RespondOK(c, gin.H{"escalations": records, "count": len(records)})
}

func (h *Handler) RespondToEscalation(c *gin.Context) {
	var resp model.WorkerResponse
	if err := c.ShouldBindJSON(&resp); err != nil {
		badRequest(c, err)
		return
	}
	rec, err := h.svc.RespondToEscalation(c.Request.Context(), c.Param("reportId"), resp)
	if err != nil {
		h.fail(c, "respond_escalation", err)
		return
	}
	RespondOK(c, gin.H{"escalation": rec})
}

func (h *Handler) GetOutbreaks(c *gin.Context) {
	f := model.OutbreakFilter{Location: c.Query("location")}
	if s := c.Query("severity"); s != "" {
		sev, err := model.ParseOutbreakSeverity(s)
		if err != nil {
			h.fail(c, "get_outbreaks", err)
			return
		}
		f.Severity = sev
	}
	if s := c.Query("status"); s != "" {
		status, err := model.ParseOutbreakStatus(s)
		if err != nil {
			h.fail(c, "get_outbreaks", err)
			return
		}
		f.Status = status
	}

	views, err := h.svc.GetOutbreaks(c.Request.Context(), f, c.Query("language"))
	if err != nil {
		h.fail(c, "get_outbreaks", err)
		return
	}
	RespondOK(c, gin.H{"outbreaks": views, "count": len(views)})
}

func (h *Handler) ResolveOutbreak(c *gin.Context) {
	rec, err := h.svc.ResolveOutbreak(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, "resolve_outbreak", err)
		return
	}
	RespondOK(c, gin.H{"outbreak": rec})
}

type subscribeRequest struct {
	Phone    string `json:"phone"`
	Location string `json:"location"`
	Language string `json:"language"`
	Name     string `json:"name"`
}

func (h *Handler) Subscribe(c *gin.Context) {
	var req subscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	sub, err := h.svc.Subscribe(c.Request.Context(), req.Phone, req.Location, req.Language, req.Name)
	if err != nil {
		h.fail(c, "subscribe", err)
		return
	}
	RespondOK(c, gin.H{
		"message":      "Subscribed to outbreak alerts",
		"subscription": sub,
	})
}

type unsubscribeRequest struct {
	Phone string `json:"phone"`
}

func (h *Handler) Unsubscribe(c *gin.Context) {
	var req unsubscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	was, err := h.svc.Unsubscribe(c.Request.Context(), req.Phone)
	if err != nil {
		h.fail(c, "unsubscribe", err)
		return
	}
	msg := "Unsubscribed from outbreak alerts"
	if !was {
		msg = "Phone number was not subscribed"
	}
	RespondOK(c, gin.H{"message": msg, "wasSubscribed": was})
}

func (h *Handler) Stats(c *gin.Context) {
	s, err := h.svc.Stats(c.Request.Context())
	if err != nil {
		h.fail(c, "stats", err)
		return
	}
	RespondOK(c, gin.H{"statistics": s})
}
