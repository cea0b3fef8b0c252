package ledger

import "context"

// Change describes what a committed ledger operation touched. Subscribers use
// it to decide what derived state to recompute.
type Change struct {
	// AccountIDs are the accounts whose transactions or balance changed.
	AccountIDs []string `json:"account_ids"`
	// Created and Deleted list transaction ids in the order they were written.
	Created []string `json:"created"`
	Deleted []string `json:"deleted"`
	// All marks a bulk change that may touch any account.
	All bool `json:"all"`
}

// Touches reports whether the change affects accountID. An empty accountID
// stands for the all-accounts scope and is touched by any non-empty change.
func (c Change) Touches(accountID string) bool {
	if c.All {
		return true
	}
	if accountID == "" {
		return !c.Empty()
	}
	for _, id := range c.AccountIDs {
		if id == accountID {
			return true
		}
	}
	return false
}

// Empty reports whether the change touched nothing.
func (c Change) Empty() bool {
	return !c.All && len(c.AccountIDs) == 0 && len(c.Created) == 0 && len(c.Deleted) == 0
}

// Merge folds other into c.
func (c *Change) Merge(other Change) {
	c.All = c.All || other.All
	for _, id := range other.AccountIDs {
		c.touch(id)
	}
	c.Created = append(c.Created, other.Created...)
	c.Deleted = append(c.Deleted, other.Deleted...)
}

func (c *Change) touch(accountID string) {
	if accountID == "" {
		return
	}
	for _, id := range c.AccountIDs {
		if id == accountID {
			return
		}
	}
	c.AccountIDs = append(c.AccountIDs, accountID)
}

// AccountChange returns a change touching the given accounts only, as
// published when an account's starting balance or sign flag is edited.
func AccountChange(accountIDs ...string) Change {
	var c Change
	for _, id := range accountIDs {
		c.touch(id)
	}
	return c
}

// Subscriber receives committed changes.
type Subscriber interface {
	HandleChange(ctx context.Context, change Change)
}

// SubscriberFunc adapts a function to Subscriber.
type SubscriberFunc func(ctx context.Context, change Change)

// HandleChange calls f.
func (f SubscriberFunc) HandleChange(ctx context.Context, change Change) {
	f(ctx, change)
}
