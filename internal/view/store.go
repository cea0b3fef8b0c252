// Package view keeps a paged, grouped window over the transaction list of one
// scope (all accounts or a single account).
package view

import (
	"context"
	"errors"
	"sync"

	apperrors "circle/internal/errors"
	"circle/internal/ledger"
	"circle/internal/logger"
	"circle/internal/models"
	"circle/internal/store"
)

// DefaultPageSize is the number of rows fetched per page.
const DefaultPageSize = 50

// State is the load state of a Store.
type State int

const (
	Idle State = iota
	Loading
)

func (s State) String() string {
	if s == Loading {
		return "loading"
	}
	return "idle"
}

// Store buffers the transactions of the current scope, newest first.
//
// At most one fetch is in flight at a time: a LoadMore or Reload issued while
// the store is Loading returns immediately. The mutex guards the fields and
// is never held across a fetch.
type Store struct {
	gw       store.Gateway
	ledger   *ledger.Ledger
	pageSize int

	mu        sync.Mutex
	state     State
	scope     string
	offset    int
	buffer    []models.Transaction
	exhausted bool
	selected  string
	// gen is bumped by clear so a fetch started before it is discarded.
	gen uint64
}

var _ ledger.Subscriber = (*Store)(nil)

// New creates a Store. l is used by Delete and BulkDelete and may be nil for
// read-only views. A non-positive pageSize selects DefaultPageSize.
func New(gw store.Gateway, l *ledger.Ledger, pageSize int) *Store {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Store{gw: gw, ledger: l, pageSize: pageSize}
}

// State returns the current load state.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Scope returns the current account filter; empty means all accounts.
func (s *Store) Scope() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scope
}

// Exhausted reports whether the last page came back short.
func (s *Store) Exhausted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exhausted
}

// Offset is the number of rows fetched so far.
func (s *Store) Offset() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.offset
}

// Selected returns the id last passed to Select.
func (s *Store) Selected() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected
}

// Transactions returns a copy of the buffer.
func (s *Store) Transactions() []models.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Transaction, len(s.buffer))
	copy(out, s.buffer)
	return out
}

// Grouped returns the buffer grouped by date.
func (s *Store) Grouped() []Entry {
	return Group(s.Transactions())
}

// SetScope switches the account filter. Changing it clears the buffer; the
// next LoadMore starts from the first page. It reports whether the scope
// changed.
func (s *Store) SetScope(accountID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.scope == accountID {
		return false
	}
	s.scope = accountID
	s.clearLocked()
	return true
}

// Clear drops the buffer and resets the offset.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearLocked()
}

func (s *Store) clearLocked() {
	s.offset = 0
	s.buffer = nil
	s.exhausted = false
	s.state = Idle
	s.gen++
}

// FreshLoad clears the buffer and loads the first page.
func (s *Store) FreshLoad(ctx context.Context) error {
	s.Clear()
	return s.LoadMore(ctx)
}

// begin moves the store to Loading and builds the query for the fetch.
// It returns false when a fetch is already in flight, or when a page load is
// asked of an exhausted list.
func (s *Store) begin(reload bool) (q store.TransactionQuery, gen uint64, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == Loading || (!reload && s.exhausted) {
		return q, 0, false
	}
	s.state = Loading

	q = store.TransactionQuery{AccountID: s.scope, Take: s.pageSize, Relations: true}
	if reload {
		if len(s.buffer) > 0 {
			q.Take = len(s.buffer)
		}
	} else {
		q.Skip = s.offset
	}
	return q, s.gen, true
}

// finishLocked returns the store to Idle and reports whether the fetch
// started under gen is still current.
func (s *Store) finishLocked(gen uint64) bool {
	if s.gen != gen {
		return false
	}
	s.state = Idle
	return true
}

// LoadMore appends the next page. It is a no-op while Loading or once the
// list is exhausted. The offset advances by the rows actually returned.
func (s *Store) LoadMore(ctx context.Context) error {
	q, gen, ok := s.begin(false)
	if !ok {
		return nil
	}

	txs, err := s.gw.FindTransactions(ctx, q)

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.finishLocked(gen) {
		return nil
	}
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	s.buffer = append(s.buffer, txs...)
	s.offset += len(txs)
	s.exhausted = len(txs) < q.Take
	return nil
}

// Reload refetches as many rows as are buffered (one page when empty) and
// replaces the buffer, keeping the caller's position in the list.
func (s *Store) Reload(ctx context.Context) error {
	q, gen, ok := s.begin(true)
	if !ok {
		return nil
	}

	txs, err := s.gw.FindTransactions(ctx, q)

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.finishLocked(gen) {
		return nil
	}
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	s.buffer = txs
	s.offset = len(txs)
	s.exhausted = len(txs) < q.Take
	return nil
}

// Select marks id as selected and returns the row with its relations.
func (s *Store) Select(ctx context.Context, id string) (*models.Transaction, error) {
	tx, err := s.gw.GetTransaction(ctx, id, true)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperrors.ErrTransactionNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	s.mu.Lock()
	s.selected = id
	s.mu.Unlock()
	return tx, nil
}

// PartialLoad refreshes one buffered row in place. A row that is gone or no
// longer matches the scope is removed; the buffer is not re-sorted.
func (s *Store) PartialLoad(ctx context.Context, id string) error {
	tx, err := s.gw.GetTransaction(ctx, id, true)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i := range s.buffer {
		if s.buffer[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil
	}

	if tx == nil || (s.scope != "" && tx.AccountID != s.scope) {
		s.buffer = append(s.buffer[:idx], s.buffer[idx+1:]...)
		s.offset--
		return nil
	}
	s.buffer[idx] = *tx
	return nil
}

// Delete removes a transaction through the ledger and reloads the view.
func (s *Store) Delete(ctx context.Context, id string) error {
	if s.ledger == nil {
		return apperrors.WithMessage(apperrors.ErrInternalServer, "View is read-only")
	}
	if _, err := s.ledger.DeleteTransaction(ctx, id); err != nil {
		return err
	}
	return s.Reload(ctx)
}

// BulkDelete removes several transactions through the ledger and reloads.
func (s *Store) BulkDelete(ctx context.Context, ids []string) error {
	if s.ledger == nil {
		return apperrors.WithMessage(apperrors.ErrInternalServer, "View is read-only")
	}
	if _, err := s.ledger.BulkDelete(ctx, ids); err != nil {
		return err
	}
	return s.Reload(ctx)
}

// HandleChange reloads the view when the change touches its scope.
func (s *Store) HandleChange(ctx context.Context, change ledger.Change) {
	if !change.Touches(s.Scope()) {
		return
	}
	if err := s.Reload(ctx); err != nil {
		logger.Get().Errorw("Failed to reload transaction view", "scope", s.Scope(), "error", err)
	}
}
