package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/finflow/backend/internal/application/treasury"
	"github.com/finflow/backend/internal/application/workflow"
	"github.com/finflow/backend/internal/interfaces/http/dto"
)

// OperationsHandler exposes support ticket closing, lead qualification
// and the treasury forecast.
type OperationsHandler struct {
	BaseHandler
	tickets   *workflow.SupportTicketService
	leads     *workflow.LeadQualificationService
	forecasts *treasury.ForecastService
}

// NewOperationsHandler creates an OperationsHandler
func NewOperationsHandler(
	tickets *workflow.SupportTicketService,
	leads *workflow.LeadQualificationService,
	forecasts *treasury.ForecastService,
) *OperationsHandler {
	return &OperationsHandler{
		tickets:   tickets,
		leads:     leads,
		forecasts: forecasts,
	}
}

// CloseTicket handles POST /tickets/:id/close
func (h *OperationsHandler) CloseTicket(c *gin.Context) {
	var uri dto.IDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		h.Error(c, 400, dto.ErrCodeValidation, err.Error())
		return
	}

	result, err := h.tickets.CloseTicket(c.Request.Context(), uuid.MustParse(uri.ID))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// QualifyLead handles POST /leads/:id/qualify
func (h *OperationsHandler) QualifyLead(c *gin.Context) {
	var uri dto.IDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		h.Error(c, 400, dto.ErrCodeValidation, err.Error())
		return
	}

	lead, err := h.leads.Qualify(c.Request.Context(), uuid.MustParse(uri.ID))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, lead)
}

// Forecast handles GET /treasury/forecast
func (h *OperationsHandler) Forecast(c *gin.Context) {
	forecast, err := h.forecasts.Forecast(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, forecast)
}
