package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"circle/internal/services"
)

// PayeeHandler serves payees and their hints.
type PayeeHandler struct {
	payeeService services.PayeeServicer
}

// NewPayeeHandler creates a new PayeeHandler.
func NewPayeeHandler(payeeService services.PayeeServicer) *PayeeHandler {
	return &PayeeHandler{payeeService: payeeService}
}

// ListPayees handles listing every payee
// @Summary     List payees
// @Tags        payees
// @Produce     json
// @Security    BearerAuth
// @Success     200 {array} models.Payee "Payees ordered by name"
// @Router      /payees [get]
func (h *PayeeHandler) ListPayees(c *gin.Context) {
	payees, err := h.payeeService.ListPayees(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"payees": payees})
}

// GetPayee handles fetching a payee with its category and account hints
// @Summary     Get a payee
// @Tags        payees
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Payee ID"
// @Success     200 {object} services.PayeeDetail "Payee with hints"
// @Failure     404 {object} middleware.ErrorResponse "Payee not found"
// @Router      /payees/{id} [get]
func (h *PayeeHandler) GetPayee(c *gin.Context) {
	payee, err := h.payeeService.GetPayee(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"payee": payee})
}
