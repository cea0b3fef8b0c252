package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "circle/internal/errors"
	"circle/internal/balance"
	"circle/internal/services"
)

// ReportHandler serves derived balances.
type ReportHandler struct {
	reportService services.ReportServicer
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(reportService services.ReportServicer) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

// BalanceResponse is an account balance with its display label.
type BalanceResponse struct {
	balance.Balance
	Label string `json:"label"`
}

// SummaryResponse is the combined balance with its display label.
type SummaryResponse struct {
	balance.Summary
	Label string `json:"label"`
}

// GetBalances handles per-account balances
// @Summary     Account balances
// @Tags        reports
// @Produce     json
// @Security    BearerAuth
// @Success     200 {array} BalanceResponse "Balances ordered by account name"
// @Router      /balances [get]
func (h *ReportHandler) GetBalances(c *gin.Context) {
	balances, err := h.reportService.Balances(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}

	resp := make([]BalanceResponse, len(balances))
	for i, b := range balances {
		resp[i] = BalanceResponse{Balance: b, Label: b.Label()}
	}
	c.JSON(http.StatusOK, gin.H{"balances": resp})
}

// GetSummary handles the all-accounts balance
// @Summary     Combined balance
// @Description Every account converted into the base currency with the configured rates
// @Tags        reports
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} SummaryResponse "Summary"
// @Failure     400 {object} middleware.ErrorResponse "Missing exchange rate"
// @Router      /balances/summary [get]
func (h *ReportHandler) GetSummary(c *gin.Context) {
	summary, err := h.reportService.Summary(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"summary": SummaryResponse{Summary: *summary, Label: summary.Label()}})
}

// GetAssetHistory handles the net asset series
// @Summary     Asset history
// @Tags        reports
// @Produce     json
// @Security    BearerAuth
// @Param       gap_days query int false "Days between samples (default 15)"
// @Success     200 {array} balance.Point "Samples"
// @Failure     400 {object} middleware.ErrorResponse "Invalid input"
// @Router      /reports/assets [get]
func (h *ReportHandler) GetAssetHistory(c *gin.Context) {
	gap := balance.DefaultGap
	if raw := c.Query("gap_days"); raw != "" {
		days, err := strconv.Atoi(raw)
		if err != nil || days <= 0 {
			abortWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "gap_days must be a positive integer"))
			return
		}
		gap = time.Duration(days) * 24 * time.Hour
	}

	points, err := h.reportService.AssetHistory(c.Request.Context(), gap)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"points": points})
}
