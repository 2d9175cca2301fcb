package progress

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"sync"

	"github.com/i474232898/stiffy-wanderers/internal/calendar"
	"github.com/i474232898/stiffy-wanderers/internal/event"
	"github.com/i474232898/stiffy-wanderers/internal/store"
)

const (
	// WeatherStep is added once per day on a precipitating refresh.
	WeatherStep = 0.05
	// DualActionStep is added once per day when both actions are credited.
	DualActionStep = 0.03
	// MaxValue is the completion point; progress never exceeds it.
	MaxValue = 1.0

	precision = 1e4
)

// Outcome describes the effect of one engine operation.
type Outcome struct {
	// Credited is true when a daily gate was consumed by this call.
	Credited bool          `json:"credited"`
	Delta    float64       `json:"delta"`
	Value    float64       `json:"value"`
	Events   []event.Event `json:"events,omitempty"`
}

// Status is a read-only view of progress and today's gates.
type Status struct {
	Value           float64       `json:"value"`
	Stage           Stage         `json:"stage"`
	Completed       bool          `json:"completed"`
	Today           calendar.Date `json:"-"`
	Date            string        `json:"date"`
	WaterCredited   bool          `json:"waterCredited"`
	WindCredited    bool          `json:"windCredited"`
	WeatherCredited bool          `json:"weatherCredited"`
}

// Engine owns the progress value and applies the daily advancement rules.
// All operations are serialised; the value observed by callers is always the
// last successfully persisted one.
type Engine struct {
	mu sync.Mutex

	store    Store
	ledger   *Ledger
	oracle   calendar.Oracle
	observer event.Observer

	value float64
}

// Open loads the persisted progress value (0 when absent) and returns an
// engine ready for use. observer may be nil.
func Open(ctx context.Context, s Store, oracle calendar.Oracle, observer event.Observer) (*Engine, error) {
	if s == nil || oracle == nil {
		return nil, errors.New("progress: store and oracle are required")
	}

	e := &Engine{
		store:    s,
		ledger:   NewLedger(s),
		oracle:   oracle,
		observer: observer,
	}

	v, ok, err := loadValue(ctx, s)
	if err != nil {
		return nil, fmt.Errorf("%w: load progress: %w", ErrStore, err)
	}
	if !ok {
		log.Println("INFO: progress: no stored progress; starting at 0")
	}
	e.value = v

	return e, nil
}

// Ledger exposes the action ledger for read-only inspection.
func (e *Engine) Ledger() *Ledger { return e.ledger }

// Value returns the current progress value.
func (e *Engine) Value() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.value
}

// ApplyWeather applies the weather rule for one refresh. Non-precipitating
// refreshes and refreshes on an already credited day leave everything as is.
func (e *Engine) ApplyWeather(ctx context.Context, precipitating bool) (Outcome, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !precipitating {
		return Outcome{Value: e.value}, nil
	}
	if err := ctx.Err(); err != nil {
		return Outcome{Value: e.value}, err
	}

	today := e.oracle.Today()
	last, ok, err := readDate(ctx, e.store, KeyLastUpdateDate)
	if err != nil {
		return Outcome{Value: e.value}, fmt.Errorf("%w: read weather credit: %w", ErrStore, err)
	}
	if creditedOn(last, ok, today) {
		return Outcome{Value: e.value}, nil
	}
	if err := e.sync(ctx); err != nil {
		return Outcome{Value: e.value}, fmt.Errorf("%w: reload progress: %w", ErrStore, err)
	}

	next := advance(e.value, WeatherStep)
	records := map[string]string{
		KeyProgress:       formatValue(next),
		KeyLastUpdateDate: today.String(),
	}
	if err := e.store.PutMany(ctx, records); err != nil {
		log.Printf("ERROR: progress: weather increment not persisted: %v", err)
		return Outcome{Value: e.value}, fmt.Errorf("%w: persist weather increment: %w", ErrStore, err)
	}

	return e.commit(next), nil
}

// PressAction credits a for today and, when that completes the day's
// water/wind pair, applies the dual-action increment in the same write.
func (e *Engine) PressAction(ctx context.Context, a Action) (Outcome, error) {
	if !a.Valid() {
		return Outcome{}, fmt.Errorf("%w: %q", ErrUnknownAction, a)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	today := e.oracle.Today()
	credit, err := e.ledger.Prepare(ctx, a, today)
	if err != nil {
		return Outcome{Value: e.value}, fmt.Errorf("%w: read %s credit: %w", ErrStore, a, err)
	}
	if credit == nil {
		return Outcome{Value: e.value}, nil
	}
	if err := e.sync(ctx); err != nil {
		return Outcome{Value: e.value}, fmt.Errorf("%w: reload progress: %w", ErrStore, err)
	}

	next := e.value
	if credit.PairComplete {
		next = advance(e.value, DualActionStep)
		credit.With(KeyProgress, formatValue(next))
	}
	if err := e.ledger.Commit(ctx, credit); err != nil {
		log.Printf("ERROR: progress: %s credit not persisted: %v", a, err)
		return Outcome{Value: e.value}, fmt.Errorf("%w: persist %s credit: %w", ErrStore, a, err)
	}

	return e.commit(next), nil
}

// Reset rewinds today's action gates. The progress value and the weather
// credit are left untouched.
func (e *Engine) Reset(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.ledger.Clear(ctx); err != nil {
		return fmt.Errorf("%w: clear action credits: %w", ErrStore, err)
	}
	log.Println("INFO: progress: action credits cleared")
	return nil
}

// Status reports the value, its stage and which gates are spent today.
func (e *Engine) Status(ctx context.Context) (Status, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.sync(ctx); err != nil {
		return Status{Value: e.value}, fmt.Errorf("%w: reload progress: %w", ErrStore, err)
	}

	today := e.oracle.Today()
	st := Status{
		Value:     e.value,
		Stage:     StageFor(e.value),
		Completed: e.value >= MaxValue,
		Today:     today,
		Date:      today.String(),
	}

	var err error
	if st.WaterCredited, err = e.ledger.CreditedOn(ctx, ActionWater, today); err != nil {
		return st, fmt.Errorf("%w: %w", ErrStore, err)
	}
	if st.WindCredited, err = e.ledger.CreditedOn(ctx, ActionWind, today); err != nil {
		return st, fmt.Errorf("%w: %w", ErrStore, err)
	}
	last, ok, err := readDate(ctx, e.store, KeyLastUpdateDate)
	if err != nil {
		return st, fmt.Errorf("%w: %w", ErrStore, err)
	}
	st.WeatherCredited = creditedOn(last, ok, today)
	return st, nil
}

// sync adopts the persisted value, which another process sharing the store
// may have advanced since Open. Callers hold e.mu.
func (e *Engine) sync(ctx context.Context) error {
	v, ok, err := loadValue(ctx, e.store)
	if err != nil {
		return err
	}
	if ok && v != e.value {
		log.Printf("INFO: progress: adopting stored value %.4f (had %.4f)", v, e.value)
		e.value = v
	}
	return nil
}

// loadValue reads the stored progress value. A missing or malformed record
// reports ok=false and a value of 0.
func loadValue(ctx context.Context, s Store) (float64, bool, error) {
	raw, err := s.Get(ctx, KeyProgress)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return 0, false, nil
	case err != nil:
		return 0, false, err
	}
	v, err := parseValue(raw)
	if err != nil {
		log.Printf("WARN: progress: ignoring malformed progress record %q: %v", raw, err)
		return 0, false, nil
	}
	return v, true, nil
}

// commit installs a persisted value and delivers the resulting events.
// Callers hold e.mu.
func (e *Engine) commit(next float64) Outcome {
	prev := e.value
	e.value = next

	out := Outcome{
		Credited: true,
		Delta:    round(next - prev),
		Value:    next,
		Events:   transitions(prev, next),
	}
	if e.observer != nil {
		for _, ev := range out.Events {
			e.observer.Observe(ev)
		}
	}
	return out
}

// transitions returns the one-shot events produced by moving from prev to next.
func transitions(prev, next float64) []event.Event {
	var evs []event.Event
	stage := StageFor(next)

	if prev == 0 && next > 0 {
		ev := event.New(event.Onboarded)
		ev.Value, ev.Stage = next, stage.Level
		evs = append(evs, ev)
	}

	switch {
	case prev < MaxValue && next >= MaxValue:
		ev := event.New(event.Completed)
		ev.Value, ev.Stage = next, stage.Level
		evs = append(evs, ev)
	case stage.Level > StageFor(prev).Level:
		ev := event.New(event.LeveledUp)
		ev.Value, ev.Stage = next, stage.Level
		evs = append(evs, ev)
	}
	return evs
}

func advance(v, step float64) float64 {
	return clamp(round(v + step))
}

func round(v float64) float64 {
	return math.Round(v*precision) / precision
}

func clamp(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > MaxValue:
		return MaxValue
	default:
		return v
	}
}
