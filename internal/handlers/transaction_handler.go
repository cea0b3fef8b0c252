package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"circle/internal/ledger"
	"circle/internal/models"
	"circle/internal/pagination"
	"circle/internal/services"
)

// TransactionHandler handles transaction-related requests.
type TransactionHandler struct {
	transactionService services.TransactionServicer
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(transactionService services.TransactionServicer) *TransactionHandler {
	return &TransactionHandler{transactionService: transactionService}
}

// SaveTransactionRequest represents the payload for adding or editing a
// transaction. Transfers take from/to accounts; other types take account_id
// and category_name. Amount is in minor units; it is a pointer so an omitted
// amount fails binding while 0 stays legal.
type SaveTransactionRequest struct {
	Type          models.TransactionType   `json:"type" binding:"required,transaction_type"`
	Amount        *int64                   `json:"amount" binding:"required,min=0"`
	AccountID     string                   `json:"account_id"`
	Date          string                   `json:"date"`
	Status        models.TransactionStatus `json:"status" binding:"omitempty,transaction_status"`
	FromAccountID string                   `json:"from_account_id"`
	ToAccountID   string                   `json:"to_account_id"`
	CategoryName  string                   `json:"category_name" binding:"max=100"`
	PayeeName     string                   `json:"payee_name" binding:"max=100"`
	IsDone        bool                     `json:"is_done"`
	Note          string                   `json:"note" binding:"max=1000"`
}

// BulkDeleteRequest represents the payload for deleting several transactions.
type BulkDeleteRequest struct {
	IDs []string `json:"ids" binding:"required,min=1"`
}

func (r SaveTransactionRequest) toLedger(existingID string) (ledger.Request, error) {
	date, err := parseDate(r.Date)
	if err != nil {
		return ledger.Request{}, err
	}
	return ledger.Request{
		Type:          r.Type,
		Amount:        *r.Amount,
		AccountID:     r.AccountID,
		Date:          date,
		Status:        r.Status,
		FromAccountID: r.FromAccountID,
		ToAccountID:   r.ToAccountID,
		CategoryName:  r.CategoryName,
		PayeeName:     r.PayeeName,
		IsDone:        r.IsDone,
		Note:          r.Note,
		ExistingID:    existingID,
	}, nil
}

func (h *TransactionHandler) save(c *gin.Context, existingID string, status int) {
	var req SaveTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, bindError(err))
		return
	}
	lr, err := req.toLedger(existingID)
	if err != nil {
		abortWithError(c, err)
		return
	}

	change, err := h.transactionService.SaveTransaction(c.Request.Context(), lr)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(status, gin.H{"change": change})
}

// CreateTransaction handles the creation of a new transaction
// @Summary     Create a transaction
// @Description Add a credit, debit or transfer. A transfer is stored as two linked rows.
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body SaveTransactionRequest true "Transaction details"
// @Success     201 {object} ledger.Change "Ids created"
// @Failure     400 {object} middleware.ErrorResponse "Invalid input"
// @Failure     404 {object} middleware.ErrorResponse "Account not found"
// @Router      /transactions [post]
func (h *TransactionHandler) CreateTransaction(c *gin.Context) {
	h.save(c, "", http.StatusCreated)
}

// UpdateTransaction handles editing a transaction
// @Summary     Edit a transaction
// @Description Replace a transaction, and its transfer sibling, with new rows. The ids change.
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string                 true "Transaction ID"
// @Param       request body SaveTransactionRequest true "Transaction details"
// @Success     200 {object} ledger.Change "Ids deleted and created"
// @Failure     404 {object} middleware.ErrorResponse "Transaction not found"
// @Failure     409 {object} middleware.ErrorResponse "Transfer sibling missing"
// @Router      /transactions/{id} [put]
func (h *TransactionHandler) UpdateTransaction(c *gin.Context) {
	h.save(c, c.Param("id"), http.StatusOK)
}

func (h *TransactionHandler) list(c *gin.Context, accountID string) {
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		abortWithError(c, bindError(err))
		return
	}

	result, err := h.transactionService.ListTransactions(c.Request.Context(), accountID, page)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// ListTransactions handles listing transactions across accounts
// @Summary     List transactions
// @Description Newest first, paginated, with the page also grouped by date
// @Tags        transactions
// @Produce     json
// @Security    BearerAuth
// @Param       account_id query string false "Restrict to one account"
// @Param       page       query int    false "Page number"
// @Param       page_size  query int    false "Page size"
// @Success     200 {object} services.TransactionPage "Page of transactions"
// @Router      /transactions [get]
func (h *TransactionHandler) ListTransactions(c *gin.Context) {
	h.list(c, c.Query("account_id"))
}

// GetAccountTransactions handles listing the transactions of one account
// @Summary     List account transactions
// @Tags        accounts
// @Produce     json
// @Security    BearerAuth
// @Param       id        path  string true  "Account ID"
// @Param       page      query int    false "Page number"
// @Param       page_size query int    false "Page size"
// @Success     200 {object} services.TransactionPage "Page of transactions"
// @Failure     404 {object} middleware.ErrorResponse "Account not found"
// @Router      /accounts/{id}/transactions [get]
func (h *TransactionHandler) GetAccountTransactions(c *gin.Context) {
	h.list(c, c.Param("id"))
}

// GetTransaction handles fetching one transaction with its relations
// @Summary     Get a transaction
// @Tags        transactions
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Transaction ID"
// @Success     200 {object} models.Transaction "Transaction"
// @Failure     404 {object} middleware.ErrorResponse "Transaction not found"
// @Router      /transactions/{id} [get]
func (h *TransactionHandler) GetTransaction(c *gin.Context) {
	tx, err := h.transactionService.GetTransaction(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transaction": tx})
}

// DeleteTransaction handles deleting a transaction and its transfer sibling
// @Summary     Delete a transaction
// @Tags        transactions
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Transaction ID"
// @Success     200 {object} ledger.Change "Ids deleted"
// @Router      /transactions/{id} [delete]
func (h *TransactionHandler) DeleteTransaction(c *gin.Context) {
	change, err := h.transactionService.DeleteTransaction(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"change": change})
}

// BulkDelete handles deleting several transactions at once
// @Summary     Delete several transactions
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body BulkDeleteRequest true "Transaction ids"
// @Success     200 {object} ledger.Change "Ids deleted"
// @Failure     400 {object} middleware.ErrorResponse "Invalid input"
// @Router      /transactions/bulk-delete [post]
func (h *TransactionHandler) BulkDelete(c *gin.Context) {
	var req BulkDeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, bindError(err))
		return
	}

	change, err := h.transactionService.BulkDelete(c.Request.Context(), req.IDs)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"change": change})
}
