package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"circle/internal/services"
)

// AccountHandler handles account-related requests.
type AccountHandler struct {
	accountService services.AccountServicer
	auditService   services.AuditServicer
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(accountService services.AccountServicer, auditService services.AuditServicer) *AccountHandler {
	return &AccountHandler{accountService: accountService, auditService: auditService}
}

// CreateAccountRequest represents the request payload for creating an account
type CreateAccountRequest struct {
	Name     string `json:"name" binding:"required,min=1,max=100"`
	Currency string `json:"currency" binding:"omitempty,iso4217"`
	Balance  int64  `json:"balance"`
	IsCredit bool   `json:"is_credit"`
}

// UpdateAccountRequest represents the request payload for updating an account.
// Omitted fields are left unchanged.
type UpdateAccountRequest struct {
	Name     *string `json:"name" binding:"omitempty,min=1,max=100"`
	Currency *string `json:"currency" binding:"omitempty,iso4217"`
	Balance  *int64  `json:"balance"`
	IsCredit *bool   `json:"is_credit"`
}

// CreateAccount handles the creation of a new account
// @Summary     Create an account
// @Description Create a new account with a starting balance in minor units
// @Tags        accounts
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateAccountRequest true "Account details"
// @Success     201 {object} models.Account "Account created"
// @Failure     400 {object} middleware.ErrorResponse "Invalid input"
// @Failure     409 {object} middleware.ErrorResponse "Duplicate name"
// @Failure     500 {object} middleware.ErrorResponse "Server error"
// @Router      /accounts [post]
func (h *AccountHandler) CreateAccount(c *gin.Context) {
	var req CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, bindError(err))
		return
	}

	account, err := h.accountService.CreateAccount(c.Request.Context(), services.AccountInput{
		Name:     req.Name,
		Currency: req.Currency,
		Balance:  req.Balance,
		IsCredit: req.IsCredit,
	})
	if err != nil {
		abortWithError(c, err)
		return
	}

	h.auditService.Log("CREATE_ACCOUNT", "account", account.ID, c.ClientIP(),
		map[string]interface{}{"name": account.Name, "currency": account.Currency})

	c.JSON(http.StatusCreated, gin.H{"account": account})
}

// ListAccounts handles listing every account
// @Summary     List accounts
// @Tags        accounts
// @Produce     json
// @Security    BearerAuth
// @Success     200 {array} models.Account "Accounts ordered by name"
// @Failure     500 {object} middleware.ErrorResponse "Server error"
// @Router      /accounts [get]
func (h *AccountHandler) ListAccounts(c *gin.Context) {
	accounts, err := h.accountService.ListAccounts(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"accounts": accounts})
}

// GetAccount handles fetching one account
// @Summary     Get an account
// @Tags        accounts
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Account ID"
// @Success     200 {object} models.Account "Account"
// @Failure     404 {object} middleware.ErrorResponse "Account not found"
// @Router      /accounts/{id} [get]
func (h *AccountHandler) GetAccount(c *gin.Context) {
	account, err := h.accountService.GetAccount(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"account": account})
}

// UpdateAccount handles account updates
// @Summary     Update an account
// @Tags        accounts
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string               true "Account ID"
// @Param       request body UpdateAccountRequest true "Fields to change"
// @Success     200 {object} models.Account "Account updated"
// @Failure     400 {object} middleware.ErrorResponse "Invalid input"
// @Failure     404 {object} middleware.ErrorResponse "Account not found"
// @Router      /accounts/{id} [put]
func (h *AccountHandler) UpdateAccount(c *gin.Context) {
	var req UpdateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, bindError(err))
		return
	}

	account, err := h.accountService.UpdateAccount(c.Request.Context(), c.Param("id"), services.AccountUpdateFields{
		Name:     req.Name,
		Currency: req.Currency,
		Balance:  req.Balance,
		IsCredit: req.IsCredit,
	})
	if err != nil {
		abortWithError(c, err)
		return
	}

	h.auditService.Log("UPDATE_ACCOUNT", "account", account.ID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"account": account})
}

// DeleteAccount handles account deletion
// @Summary     Delete an account
// @Description Delete an account. With cascade=true its transactions, and the other legs of its transfers, are deleted too.
// @Tags        accounts
// @Produce     json
// @Security    BearerAuth
// @Param       id      path  string true  "Account ID"
// @Param       cascade query bool   false "Delete the account's transactions"
// @Success     200 {object} map[string]string "Account deleted"
// @Failure     404 {object} middleware.ErrorResponse "Account not found"
// @Failure     409 {object} middleware.ErrorResponse "Account still has transactions"
// @Router      /accounts/{id} [delete]
func (h *AccountHandler) DeleteAccount(c *gin.Context) {
	id := c.Param("id")
	cascade := c.Query("cascade") == "true"

	if err := h.accountService.DeleteAccount(c.Request.Context(), id, cascade); err != nil {
		abortWithError(c, err)
		return
	}

	h.auditService.Log("DELETE_ACCOUNT", "account", id, c.ClientIP(),
		map[string]interface{}{"cascade": cascade})

	c.JSON(http.StatusOK, gin.H{"message": "Account deleted"})
}
