package progress

import (
	"context"
	"fmt"

	"github.com/i474232898/stiffy-wanderers/internal/calendar"
)

// Ledger records the last calendar day each action earned a credit.
// It is not safe for concurrent use on its own; Engine serialises access.
type Ledger struct {
	store Store
}

func NewLedger(s Store) *Ledger {
	return &Ledger{store: s}
}

// Credit is a grant that has been decided but not yet written. Records added
// with With are written in the same durable write as the credit itself.
type Credit struct {
	Action Action
	Date   calendar.Date
	// PairComplete is true when the other action already holds a credit for Date.
	PairComplete bool

	records map[string]string
}

// With attaches a dependent record to the credit's write.
func (c *Credit) With(key, value string) *Credit {
	c.records[key] = value
	return c
}

// LastCredit returns the last day a credited, if any.
func (l *Ledger) LastCredit(ctx context.Context, a Action) (calendar.Date, bool, error) {
	return readDate(ctx, l.store, a.key())
}

// CreditedOn reports whether a already holds a credit for day.
func (l *Ledger) CreditedOn(ctx context.Context, a Action, day calendar.Date) (bool, error) {
	last, ok, err := l.LastCredit(ctx, a)
	if err != nil {
		return false, err
	}
	return creditedOn(last, ok, day), nil
}

// Prepare decides whether a may be credited today. It returns nil when a
// already holds a credit for today. Nothing is written.
func (l *Ledger) Prepare(ctx context.Context, a Action, today calendar.Date) (*Credit, error) {
	if !a.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAction, a)
	}
	done, err := l.CreditedOn(ctx, a, today)
	if err != nil {
		return nil, err
	}
	if done {
		return nil, nil
	}
	other, err := l.CreditedOn(ctx, a.Other(), today)
	if err != nil {
		return nil, err
	}
	return &Credit{
		Action:       a,
		Date:         today,
		PairComplete: other,
		records:      map[string]string{a.key(): today.String()},
	}, nil
}

// Commit writes the credit and its dependent records atomically. On error
// the credit is not granted.
func (l *Ledger) Commit(ctx context.Context, c *Credit) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return l.store.PutMany(ctx, c.records)
}

// TryCredit credits a for today unless it was already credited. A failed
// write reports granted=false together with the error.
func (l *Ledger) TryCredit(ctx context.Context, a Action, today calendar.Date) (bool, error) {
	c, err := l.Prepare(ctx, a, today)
	if err != nil {
		return false, err
	}
	if c == nil {
		return false, nil
	}
	if err := l.Commit(ctx, c); err != nil {
		return false, err
	}
	return true, nil
}

// Clear removes every action credit so actions may be credited again.
func (l *Ledger) Clear(ctx context.Context) error {
	keys := make([]string, 0, len(Actions))
	for _, a := range Actions {
		keys = append(keys, a.key())
	}
	return l.store.Delete(ctx, keys...)
}
