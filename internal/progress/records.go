package progress

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"strconv"
	"strings"

	"github.com/i474232898/stiffy-wanderers/internal/calendar"
	"github.com/i474232898/stiffy-wanderers/internal/store"
)

// Durable record keys.
const (
	KeyProgress       = "progress"
	KeyLastUpdateDate = "lastUpdateDate"
	KeyWaterPressDate = "waterPressDate"
	KeyWindPressDate  = "windPressDate"
)

var (
	// ErrStore wraps any failure of the durable store. The engine's state is
	// unchanged when it is returned.
	ErrStore = errors.New("progress store unavailable")
	// ErrUnknownAction is returned for an action name other than water or wind.
	ErrUnknownAction = errors.New("unknown action")
)

// Store is the durable record store the engine and ledger persist into.
// Missing keys are reported as store.ErrNotFound.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	PutMany(ctx context.Context, records map[string]string) error
	Delete(ctx context.Context, keys ...string) error
}

// Action is a daily user action that can earn a credit.
type Action string

const (
	ActionWater Action = "water"
	ActionWind  Action = "wind"
)

// Actions lists every creditable action.
var Actions = []Action{ActionWater, ActionWind}

// ParseAction normalises a user-supplied action name.
func ParseAction(s string) (Action, error) {
	a := Action(strings.ToLower(strings.TrimSpace(s)))
	if !a.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownAction, s)
	}
	return a, nil
}

func (a Action) Valid() bool {
	return a == ActionWater || a == ActionWind
}

// Other returns the action that completes the daily pair with a.
func (a Action) Other() Action {
	if a == ActionWater {
		return ActionWind
	}
	return ActionWater
}

func (a Action) key() string {
	if a == ActionWater {
		return KeyWaterPressDate
	}
	return KeyWindPressDate
}

// readDate loads a stored calendar date. A missing key reports ok=false.
// A value that does not parse is logged and treated as missing.
func readDate(ctx context.Context, s Store, key string) (calendar.Date, bool, error) {
	raw, err := s.Get(ctx, key)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return calendar.Date{}, false, nil
		}
		return calendar.Date{}, false, err
	}
	d, err := calendar.Parse(raw)
	if err != nil {
		log.Printf("WARN: progress: ignoring malformed %s record %q: %v", key, raw, err)
		return calendar.Date{}, false, nil
	}
	return d, true, nil
}

// creditedOn reports whether a date record counts as already credited on today.
func creditedOn(last calendar.Date, ok bool, today calendar.Date) bool {
	return ok && !last.Before(today)
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// parseValue reads a stored progress value, clamped into [0, MaxValue].
func parseValue(raw string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) {
		return 0, fmt.Errorf("progress value is NaN")
	}
	return clamp(v), nil
}
