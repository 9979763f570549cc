// Package handler exposes the tracking API over HTTP.
package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"leadtrack_backend/internal/leads/attribution"
	"leadtrack_backend/internal/leads/engagement"
	"leadtrack_backend/internal/leads/journey"
	"leadtrack_backend/internal/leads/lifecycle"
	"leadtrack_backend/internal/leads/repository"
	"leadtrack_backend/internal/leads/scoring"
	"leadtrack_backend/internal/leads/service"
	"leadtrack_backend/internal/leads/transport"
	"leadtrack_backend/platform/apperr"
	"leadtrack_backend/platform/httpkit"
	"leadtrack_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

type Handler struct {
	leads       *service.Service
	engagements *engagement.Service
	lifecycles  *lifecycle.Service
	scores      *scoring.Service
	attribution *attribution.Service
	journeys    *journey.Service
	val         *validator.Validator
}

func New(
	leads *service.Service,
	engagements *engagement.Service,
	lifecycles *lifecycle.Service,
	scores *scoring.Service,
	attr *attribution.Service,
	journeys *journey.Service,
	val *validator.Validator,
) *Handler {
	return &Handler{
		leads:       leads,
		engagements: engagements,
		lifecycles:  lifecycles,
		scores:      scores,
		attribution: attr,
		journeys:    journeys,
		val:         val,
	}
}

// RegisterLeadRoutes mounts the lead store routes.
func (h *Handler) RegisterLeadRoutes(rg *gin.RouterGroup) {
	rg.POST("", h.CreateLead)
	rg.GET("/:id", h.GetLead)
}

// RegisterTrackingRoutes mounts the tracking routes, grouped by concern.
func (h *Handler) RegisterTrackingRoutes(rg *gin.RouterGroup) {
	rg.POST("/engagement/:id", h.RecordEngagement)
	rg.GET("/engagement/:id/history", h.EngagementHistory)

	rg.POST("/lifecycle/:id/transition", h.Transition)
	rg.GET("/lifecycle/:id/history", h.LifecycleHistory)
	rg.GET("/lifecycle/:id/current", h.CurrentStage)

	rg.POST("/scores/:id/calculate", h.RecalculateScore)
	rg.POST("/scores/:id/decay", h.DecayScore)
	rg.GET("/scores/:id", h.GetScore)

	rg.POST("/attribution/:id/calculate", h.AttributeConversion)
	rg.GET("/attribution/:id", h.ListAttributions)

	rg.GET("/journey/:id", h.GetJourney)
	rg.POST("/journey/:id/refresh", h.RefreshJourney)

	rg.POST("/summary/:id", h.Summarize)
	rg.GET("/summary/:id/history", h.ListSummaries)
}

func (h *Handler) CreateLead(c *gin.Context) {
	var req transport.CreateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	lead, err := h.leads.Create(c.Request.Context(), service.CreateParams{
		Email:        req.Email,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Phone:        req.Phone,
		Location:     req.Location,
		SportType:    req.SportType,
		CustomerType: req.CustomerType,
		Interests:    req.Interests,
		Source:       req.Source,
		EmailConsent: req.EmailConsent,
		SMSConsent:   req.SMSConsent,
	})
	if err != nil {
		h.serviceError(c, err)
		return
	}

	httpkit.JSON(c, http.StatusCreated, transport.FromLead(lead))
}

func (h *Handler) GetLead(c *gin.Context) {
	leadID, ok := h.leadID(c)
	if !ok {
		return
	}

	lead, err := h.leads.Get(c.Request.Context(), leadID)
	if err != nil {
		h.serviceError(c, err)
		return
	}

	httpkit.OK(c, transport.FromLead(lead))
}

func (h *Handler) RecordEngagement(c *gin.Context) {
	leadID, ok := h.leadID(c)
	if !ok {
		return
	}

	var req transport.RecordEngagementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	event, err := h.engagements.Record(c.Request.Context(), leadID, engagement.RecordParams{
		EngagementType:    req.EngagementType,
		Channel:           req.Channel,
		SourceType:        req.SourceType,
		SourceID:          req.SourceID,
		SourceName:        req.SourceName,
		Title:             req.Title,
		Description:       req.Description,
		Metadata:          req.Metadata,
		Value:             req.Value,
		RevenueAttributed: req.RevenueAttributed,
		IPAddress:         req.IPAddress,
		UserAgent:         req.UserAgent,
		DeviceType:        req.DeviceType,
		Location:          req.Location,
	})
	if err != nil {
		h.serviceError(c, err)
		return
	}

	httpkit.JSON(c, http.StatusCreated, transport.FromEngagement(event))
}

func (h *Handler) EngagementHistory(c *gin.Context) {
	leadID, ok := h.leadID(c)
	if !ok {
		return
	}

	days := 0
	if raw := c.Query("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, "days must be a non-negative integer")
			return
		}
		days = parsed
	}

	var types []string
	if raw := c.Query("types"); raw != "" {
		for _, t := range strings.Split(raw, ",") {
			if trimmed := strings.TrimSpace(t); trimmed != "" {
				types = append(types, trimmed)
			}
		}
	}

	history, err := h.engagements.History(c.Request.Context(), leadID, days, types)
	if err != nil {
		h.serviceError(c, err)
		return
	}

	httpkit.OK(c, gin.H{"items": transport.FromEngagements(history)})
}

func (h *Handler) Transition(c *gin.Context) {
	leadID, ok := h.leadID(c)
	if !ok {
		return
	}

	var req transport.TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	record, err := h.lifecycles.Transition(c.Request.Context(), leadID, req.Stage, req.Reason, req.TriggeredBy)
	if err != nil {
		h.serviceError(c, err)
		return
	}

	httpkit.JSON(c, http.StatusCreated, transport.FromLifecycle(record))
}

func (h *Handler) LifecycleHistory(c *gin.Context) {
	leadID, ok := h.leadID(c)
	if !ok {
		return
	}

	records, err := h.lifecycles.History(c.Request.Context(), leadID)
	if err != nil {
		h.serviceError(c, err)
		return
	}

	httpkit.OK(c, gin.H{"items": transport.FromLifecycles(records)})
}

func (h *Handler) CurrentStage(c *gin.Context) {
	leadID, ok := h.leadID(c)
	if !ok {
		return
	}

	record, err := h.lifecycles.Current(c.Request.Context(), leadID)
	if err != nil {
		h.serviceError(c, err)
		return
	}

	httpkit.OK(c, transport.FromLifecycle(record))
}

func (h *Handler) RecalculateScore(c *gin.Context) {
	leadID, ok := h.leadID(c)
	if !ok {
		return
	}

	record, err := h.scores.Recalculate(c.Request.Context(), leadID)
	if err != nil {
		h.serviceError(c, err)
		return
	}

	httpkit.OK(c, transport.FromScore(record))
}

func (h *Handler) GetScore(c *gin.Context) {
	leadID, ok := h.leadID(c)
	if !ok {
		return
	}

	record, err := h.scores.Get(c.Request.Context(), leadID)
	if err != nil {
		h.serviceError(c, err)
		return
	}

	httpkit.OK(c, transport.FromScore(record))
}

func (h *Handler) DecayScore(c *gin.Context) {
	leadID, ok := h.leadID(c)
	if !ok {
		return
	}

	record, decayed, err := h.scores.ApplyDecay(c.Request.Context(), leadID)
	if err != nil {
		h.serviceError(c, err)
		return
	}

	httpkit.OK(c, gin.H{"decayed": decayed, "score": transport.FromScore(record)})
}

func (h *Handler) AttributeConversion(c *gin.Context) {
	leadID, ok := h.leadID(c)
	if !ok {
		return
	}

	var req transport.AttributeConversionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	record, err := h.attribution.Attribute(c.Request.Context(), leadID, attribution.AttributeParams{
		ConversionType:  req.ConversionType,
		ConversionID:    req.ConversionID,
		ConversionValue: req.ConversionValue,
		Model:           req.Model,
	})
	if err != nil {
		h.serviceError(c, err)
		return
	}

	httpkit.JSON(c, http.StatusCreated, transport.FromAttribution(record))
}

func (h *Handler) ListAttributions(c *gin.Context) {
	leadID, ok := h.leadID(c)
	if !ok {
		return
	}

	records, err := h.attribution.List(c.Request.Context(), leadID)
	if err != nil {
		h.serviceError(c, err)
		return
	}

	httpkit.OK(c, gin.H{"items": transport.FromAttributions(records)})
}

func (h *Handler) GetJourney(c *gin.Context) {
	leadID, ok := h.leadID(c)
	if !ok {
		return
	}

	record, err := h.journeys.Get(c.Request.Context(), leadID)
	if err != nil {
		h.serviceError(c, err)
		return
	}

	httpkit.OK(c, transport.FromJourney(record))
}

func (h *Handler) RefreshJourney(c *gin.Context) {
	leadID, ok := h.leadID(c)
	if !ok {
		return
	}

	record, err := h.journeys.Refresh(c.Request.Context(), leadID)
	if err != nil {
		h.serviceError(c, err)
		return
	}

	httpkit.OK(c, transport.FromJourney(record))
}

func (h *Handler) Summarize(c *gin.Context) {
	leadID, ok := h.leadID(c)
	if !ok {
		return
	}

	// Body is optional; the period defaults to daily.
	var req transport.SummarizeRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
			return
		}
		if err := h.val.Struct(req); err != nil {
			httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
			return
		}
	}
	if req.Period == "" {
		req.Period = "daily"
	}

	summary, err := h.engagements.Summarize(c.Request.Context(), leadID, req.Period)
	if err != nil {
		h.serviceError(c, err)
		return
	}

	httpkit.JSON(c, http.StatusCreated, transport.FromSummary(summary))
}

func (h *Handler) ListSummaries(c *gin.Context) {
	leadID, ok := h.leadID(c)
	if !ok {
		return
	}

	summaries, err := h.engagements.ListSummaries(c.Request.Context(), leadID, c.Query("period"))
	if err != nil {
		h.serviceError(c, err)
		return
	}

	httpkit.OK(c, gin.H{"items": transport.FromSummaries(summaries)})
}

func (h *Handler) leadID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, "invalid lead id")
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) serviceError(c *gin.Context, err error) {
	httpkit.HandleError(c, appError(err))
}

// appError classifies service errors into typed kinds for the HTTP mapping.
func appError(err error) *apperr.Error {
	switch {
	case errors.Is(err, repository.ErrNotFound),
		errors.Is(err, repository.ErrNoCurrentStage),
		errors.Is(err, repository.ErrNoScore),
		errors.Is(err, repository.ErrNoJourney):
		return apperr.Wrap(apperr.KindNotFound, err.Error(), err)
	case errors.Is(err, attribution.ErrNoTouchpoints):
		return apperr.Wrap(apperr.KindUnprocessable, err.Error(), err)
	case errors.Is(err, attribution.ErrUnknownModel):
		return apperr.Wrap(apperr.KindBadRequest, err.Error(), err)
	default:
		return apperr.Wrap(apperr.KindInternal, "internal error", err)
	}
}
