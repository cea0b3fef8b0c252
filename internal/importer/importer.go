// Package importer loads transactions from CSV exports. A file is imported
// all or nothing.
package importer

import (
	"context"
	"errors"
	"fmt"
	"io"

	apperrors "circle/internal/errors"
	"circle/internal/ledger"
	"circle/internal/logger"
	"circle/internal/models"
	"circle/internal/money"
	"circle/internal/store"
)

// Event reports import progress. A final event has Done set, and Err when
// the import failed.
type Event struct {
	Line      int    `json:"line,omitempty"`
	Processed int    `json:"processed"`
	Total     int    `json:"total"`
	Message   string `json:"message"`
	Done      bool   `json:"done"`
	Err       error  `json:"-"`
}

// ProgressFunc receives progress events. It may be nil.
type ProgressFunc func(Event)

// Result summarizes a committed import.
type Result struct {
	Imported int           `json:"imported"`
	Change   ledger.Change `json:"change"`
}

// Importer applies parsed rows through the ledger.
type Importer struct {
	ledger *ledger.Ledger
}

// New creates an Importer writing through l.
func New(l *ledger.Ledger) *Importer {
	return &Importer{ledger: l}
}

// Import parses r and applies every row inside one atomic scope. Any failing
// row rolls back the whole file, including categories and payees created on
// the way. Subscribers receive a single bulk change after commit.
func (im *Importer) Import(ctx context.Context, r io.Reader, progress ProgressFunc) (*Result, error) {
	report := func(e Event) {
		if progress != nil {
			progress(e)
		}
	}
	fail := func(err error) (*Result, error) {
		report(Event{Message: fmt.Sprintf("Error: %s", err.Error()), Done: true, Err: err})
		logger.Get().Errorw("Import failed", "error", err)
		return nil, err
	}

	rows, err := Parse(r)
	if err != nil {
		return fail(err)
	}
	total := len(rows)
	report(Event{Total: total, Message: fmt.Sprintf("Received %d records.", total)})

	var change ledger.Change
	err = im.ledger.Gateway().Transaction(ctx, func(gw store.Gateway) error {
		change = ledger.Change{}
		scoped := ledger.New(gw)
		for i, row := range rows {
			report(Event{Line: row.Line, Processed: i, Total: total, Message: fmt.Sprintf("Importing line %d", row.Line)})

			req, err := buildRequest(ctx, gw, row)
			if err != nil {
				return err
			}
			c, err := scoped.AddOrEditTransaction(ctx, req, ledger.WithoutNotify())
			if err != nil {
				return rowError(row.Line, err)
			}
			change.Merge(*c)
		}
		return nil
	})
	if err != nil {
		return fail(err)
	}

	change.All = true
	im.ledger.Notify(ctx, change)

	report(Event{Processed: total, Total: total, Message: fmt.Sprintf("Imported %d records.", total), Done: true})
	logger.Get().Infow("Import completed", "rows", total, "transactions", len(change.Created))
	return &Result{Imported: total, Change: change}, nil
}

// rowError turns caller-data failures of a row into ImportFormat errors that
// name the line. Storage failures pass through.
func rowError(line int, err error) error {
	switch apperrors.KindOf(err) {
	case apperrors.KindValidation, apperrors.KindNotFound:
		return formatError(line, "%s", err.Error())
	default:
		return err
	}
}

func findAccount(ctx context.Context, gw store.Gateway, line int, name string) (*models.Account, error) {
	account, err := gw.FindAccountByName(ctx, name)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, formatError(line, "account %q doesn't exist; create it and try again", name)
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return account, nil
}

// buildRequest maps a row to a ledger request. A negative amount is money
// leaving the account: a credit, or a transfer from it when a transfer
// account is named.
func buildRequest(ctx context.Context, gw store.Gateway, row Row) (ledger.Request, error) {
	account, err := findAccount(ctx, gw, row.Line, row.AccountName)
	if err != nil {
		return ledger.Request{}, err
	}

	amount, err := money.ParseAmount(row.Amount, account.Currency)
	if err != nil {
		return ledger.Request{}, formatError(row.Line, "%v", err)
	}
	outgoing := amount < 0
	if outgoing {
		amount = -amount
	}

	status := models.TransactionStatusPending
	if row.Cleared {
		status = models.TransactionStatusCleared
	}

	req := ledger.Request{
		Amount:       amount,
		AccountID:    account.ID,
		Date:         row.Date,
		Status:       status,
		CategoryName: row.CategoryName,
		PayeeName:    row.PayeeName,
		Note:         row.Note(),
	}

	if row.TransferAccountName != "" {
		other, err := findAccount(ctx, gw, row.Line, row.TransferAccountName)
		if err != nil {
			return ledger.Request{}, err
		}
		req.Type = models.TransactionTypeTransfer
		if outgoing {
			req.FromAccountID, req.ToAccountID = account.ID, other.ID
		} else {
			req.FromAccountID, req.ToAccountID = other.ID, account.ID
		}
		return req, nil
	}

	req.Type = models.TransactionTypeDebit
	if outgoing {
		req.Type = models.TransactionTypeCredit
	}
	return req, nil
}
