package progress

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/i474232898/stiffy-wanderers/internal/calendar"
	"github.com/i474232898/stiffy-wanderers/internal/event"
	"github.com/i474232898/stiffy-wanderers/internal/store"
)

var errDiskFull = errors.New("disk full")

// flakyStore wraps a MemoryStore and fails writes or reads on demand.
type flakyStore struct {
	*store.MemoryStore

	mu       sync.Mutex
	failPut  bool
	failGet  bool
	putCalls int
}

func newFlakyStore() *flakyStore {
	return &flakyStore{MemoryStore: store.NewMemoryStore()}
}

func (s *flakyStore) setFailPut(v bool) {
	s.mu.Lock()
	s.failPut = v
	s.mu.Unlock()
}

func (s *flakyStore) setFailGet(v bool) {
	s.mu.Lock()
	s.failGet = v
	s.mu.Unlock()
}

func (s *flakyStore) Get(ctx context.Context, key string) (string, error) {
	s.mu.Lock()
	fail := s.failGet
	s.mu.Unlock()
	if fail {
		return "", errDiskFull
	}
	return s.MemoryStore.Get(ctx, key)
}

func (s *flakyStore) PutMany(ctx context.Context, records map[string]string) error {
	s.mu.Lock()
	s.putCalls++
	fail := s.failPut
	s.mu.Unlock()
	if fail {
		return errDiskFull
	}
	return s.MemoryStore.PutMany(ctx, records)
}

type recorder struct {
	mu     sync.Mutex
	events []event.Event
}

func (r *recorder) Observe(e event.Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

func (r *recorder) count(k event.Kind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.Kind == k {
			n++
		}
	}
	return n
}

type fixture struct {
	store  *flakyStore
	oracle *calendar.FixedOracle
	rec    *recorder
	engine *Engine
}

func newFixture(t *testing.T, seed map[string]string) *fixture {
	t.Helper()
	f := &fixture{
		store:  newFlakyStore(),
		oracle: calendar.NewFixedOracle(calendar.MustParse("2024-05-01")),
		rec:    &recorder{},
	}
	if len(seed) > 0 {
		if err := f.store.PutMany(context.Background(), seed); err != nil {
			t.Fatalf("seed store: %v", err)
		}
	}
	f.reopen(t)
	return f
}

// reopen simulates a process restart over the same store.
func (f *fixture) reopen(t *testing.T) {
	t.Helper()
	e, err := Open(context.Background(), f.store, f.oracle, f.rec)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	f.engine = e
}

func assertValue(t *testing.T, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("expected value %.4f, got %.4f", want, got)
	}
}

func storedValue(t *testing.T, s Store) string {
	t.Helper()
	v, err := s.Get(context.Background(), KeyProgress)
	if err != nil {
		t.Fatalf("read stored progress: %v", err)
	}
	return v
}

func TestFreshInstallStartsAtZero(t *testing.T) {
	f := newFixture(t, nil)
	assertValue(t, f.engine.Value(), 0)

	st, err := f.engine.Status(context.Background())
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if st.Stage.Level != 1 || st.Completed || st.WaterCredited || st.WindCredited || st.WeatherCredited {
		t.Fatalf("unexpected fresh status: %+v", st)
	}
}

func TestWeatherIncrementOncePerDay(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if _, err := f.engine.ApplyWeather(ctx, true); err != nil {
			t.Fatalf("ApplyWeather #%d failed: %v", i, err)
		}
	}
	assertValue(t, f.engine.Value(), 0.05)
	if got := storedValue(t, f.store); got != "0.05" {
		t.Fatalf("expected stored 0.05, got %q", got)
	}
	if got, _ := f.store.Get(ctx, KeyLastUpdateDate); got != "2024-05-01" {
		t.Fatalf("expected lastUpdateDate 2024-05-01, got %q", got)
	}

	f.oracle.Advance(1)
	out, err := f.engine.ApplyWeather(ctx, true)
	if err != nil {
		t.Fatalf("ApplyWeather next day failed: %v", err)
	}
	if !out.Credited {
		t.Fatalf("expected next-day refresh to be credited")
	}
	assertValue(t, out.Value, 0.10)
}

func TestNonPrecipitatingRefreshNeverWrites(t *testing.T) {
	f := newFixture(t, nil)

	out, err := f.engine.ApplyWeather(context.Background(), false)
	if err != nil {
		t.Fatalf("ApplyWeather failed: %v", err)
	}
	if out.Credited || f.store.putCalls != 0 {
		t.Fatalf("expected no credit and no writes, got %+v with %d writes", out, f.store.putCalls)
	}
}

func TestDualActionIncrement(t *testing.T) {
	orders := [][]Action{
		{ActionWater, ActionWind},
		{ActionWind, ActionWater},
	}
	for _, order := range orders {
		f := newFixture(t, nil)
		ctx := context.Background()

		first, err := f.engine.PressAction(ctx, order[0])
		if err != nil {
			t.Fatalf("press %s failed: %v", order[0], err)
		}
		if !first.Credited || first.Delta != 0 {
			t.Fatalf("first press should credit without increment, got %+v", first)
		}

		second, err := f.engine.PressAction(ctx, order[1])
		if err != nil {
			t.Fatalf("press %s failed: %v", order[1], err)
		}
		assertValue(t, second.Delta, 0.03)
		assertValue(t, f.engine.Value(), 0.03)

		// Repeats the same day are no-ops.
		for _, a := range order {
			out, err := f.engine.PressAction(ctx, a)
			if err != nil {
				t.Fatalf("repeat press %s failed: %v", a, err)
			}
			if out.Credited {
				t.Fatalf("repeat press %s should not be credited", a)
			}
		}
		assertValue(t, f.engine.Value(), 0.03)
	}
}

func TestSameActionTwiceDoesNotCompletePair(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := f.engine.PressAction(ctx, ActionWater); err != nil {
			t.Fatalf("press failed: %v", err)
		}
	}
	assertValue(t, f.engine.Value(), 0)
}

func TestPairMustCompleteOnSameDay(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	if _, err := f.engine.PressAction(ctx, ActionWater); err != nil {
		t.Fatalf("press failed: %v", err)
	}
	f.oracle.Advance(1)
	if _, err := f.engine.PressAction(ctx, ActionWind); err != nil {
		t.Fatalf("press failed: %v", err)
	}
	assertValue(t, f.engine.Value(), 0)

	if _, err := f.engine.PressAction(ctx, ActionWater); err != nil {
		t.Fatalf("press failed: %v", err)
	}
	assertValue(t, f.engine.Value(), 0.03)
}

func TestBothRulesSameDay(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	if _, err := f.engine.ApplyWeather(ctx, true); err != nil {
		t.Fatalf("ApplyWeather failed: %v", err)
	}
	if _, err := f.engine.PressAction(ctx, ActionWater); err != nil {
		t.Fatalf("press failed: %v", err)
	}
	if _, err := f.engine.PressAction(ctx, ActionWind); err != nil {
		t.Fatalf("press failed: %v", err)
	}
	if _, err := f.engine.ApplyWeather(ctx, true); err != nil {
		t.Fatalf("ApplyWeather failed: %v", err)
	}
	assertValue(t, f.engine.Value(), 0.08)
}

func TestRestartReplaysSameDayWeatherAsNoop(t *testing.T) {
	f := newFixture(t, map[string]string{
		KeyProgress:       "0.62",
		KeyLastUpdateDate: "2024-05-01",
	})
	assertValue(t, f.engine.Value(), 0.62)

	out, err := f.engine.ApplyWeather(context.Background(), true)
	if err != nil {
		t.Fatalf("ApplyWeather failed: %v", err)
	}
	if out.Credited {
		t.Fatalf("expected replay to be a no-op")
	}
	assertValue(t, f.engine.Value(), 0.62)

	f.reopen(t)
	assertValue(t, f.engine.Value(), 0.62)
}

func TestActionCreditsSurviveRestart(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	if _, err := f.engine.PressAction(ctx, ActionWater); err != nil {
		t.Fatalf("press failed: %v", err)
	}
	f.reopen(t)
	if _, err := f.engine.PressAction(ctx, ActionWater); err != nil {
		t.Fatalf("press failed: %v", err)
	}
	if _, err := f.engine.PressAction(ctx, ActionWind); err != nil {
		t.Fatalf("press failed: %v", err)
	}
	assertValue(t, f.engine.Value(), 0.03)
}

func TestCompletionFiresOncePerCrossing(t *testing.T) {
	f := newFixture(t, map[string]string{KeyProgress: "0.98"})
	ctx := context.Background()

	out, err := f.engine.ApplyWeather(ctx, true)
	if err != nil {
		t.Fatalf("ApplyWeather failed: %v", err)
	}
	assertValue(t, out.Value, 1.0)
	if f.rec.count(event.Completed) != 1 {
		t.Fatalf("expected exactly one Completed event, got %d", f.rec.count(event.Completed))
	}

	if _, err := f.engine.ApplyWeather(ctx, true); err != nil {
		t.Fatalf("ApplyWeather failed: %v", err)
	}
	if len(f.rec.events) != 1 {
		t.Fatalf("expected no further events, got %d total", len(f.rec.events))
	}

	// Increments after completion stay clamped and silent.
	f.oracle.Advance(1)
	if _, err := f.engine.ApplyWeather(ctx, true); err != nil {
		t.Fatalf("ApplyWeather failed: %v", err)
	}
	if _, err := f.engine.PressAction(ctx, ActionWater); err != nil {
		t.Fatalf("press failed: %v", err)
	}
	if _, err := f.engine.PressAction(ctx, ActionWind); err != nil {
		t.Fatalf("press failed: %v", err)
	}
	assertValue(t, f.engine.Value(), 1.0)
	if len(f.rec.events) != 1 {
		t.Fatalf("expected no events at 1.0, got %d total", len(f.rec.events))
	}
}

func TestDualActionClampsAtCompletion(t *testing.T) {
	f := newFixture(t, map[string]string{KeyProgress: "0.99"})
	ctx := context.Background()

	_, _ = f.engine.PressAction(ctx, ActionWind)
	out, err := f.engine.PressAction(ctx, ActionWater)
	if err != nil {
		t.Fatalf("press failed: %v", err)
	}
	assertValue(t, out.Value, 1.0)
	assertValue(t, out.Delta, 0.01)
	if len(out.Events) != 1 || out.Events[0].Kind != event.Completed {
		t.Fatalf("expected a single Completed event, got %+v", out.Events)
	}
}

func TestOnboardedAndLeveledUpEvents(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	out, err := f.engine.ApplyWeather(ctx, true)
	if err != nil {
		t.Fatalf("ApplyWeather failed: %v", err)
	}
	if len(out.Events) != 1 || out.Events[0].Kind != event.Onboarded {
		t.Fatalf("expected Onboarded on first increment, got %+v", out.Events)
	}

	f2 := newFixture(t, map[string]string{KeyProgress: "0.47"})
	out, err = f2.engine.ApplyWeather(ctx, true)
	if err != nil {
		t.Fatalf("ApplyWeather failed: %v", err)
	}
	if len(out.Events) != 1 || out.Events[0].Kind != event.LeveledUp || out.Events[0].Stage != 2 {
		t.Fatalf("expected LeveledUp to stage 2, got %+v", out.Events)
	}
}

func TestFailedWriteRollsBack(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	f.store.setFailPut(true)
	if _, err := f.engine.ApplyWeather(ctx, true); !errors.Is(err, ErrStore) {
		t.Fatalf("expected ErrStore, got %v", err)
	}
	if _, err := f.engine.PressAction(ctx, ActionWater); !errors.Is(err, ErrStore) {
		t.Fatalf("expected ErrStore, got %v", err)
	}
	assertValue(t, f.engine.Value(), 0)
	if len(f.rec.events) != 0 {
		t.Fatalf("expected no events for failed writes, got %d", len(f.rec.events))
	}

	// The failed attempts must not have consumed today's gates.
	f.store.setFailPut(false)
	out, err := f.engine.ApplyWeather(ctx, true)
	if err != nil || !out.Credited {
		t.Fatalf("expected weather credit after recovery, got %+v, %v", out, err)
	}
	if _, err := f.engine.PressAction(ctx, ActionWater); err != nil {
		t.Fatalf("press failed: %v", err)
	}

	// Failing the pair-completing write leaves both the value and the credit unapplied.
	f.store.setFailPut(true)
	if _, err := f.engine.PressAction(ctx, ActionWind); !errors.Is(err, ErrStore) {
		t.Fatalf("expected ErrStore, got %v", err)
	}
	assertValue(t, f.engine.Value(), 0.05)
	f.store.setFailPut(false)
	if done, _ := f.engine.Ledger().CreditedOn(ctx, ActionWind, f.oracle.Today()); done {
		t.Fatalf("wind must not be credited after a failed write")
	}

	out, err = f.engine.PressAction(ctx, ActionWind)
	if err != nil {
		t.Fatalf("press failed: %v", err)
	}
	assertValue(t, out.Value, 0.08)
}

func TestFailedReadLeavesValue(t *testing.T) {
	f := newFixture(t, map[string]string{KeyProgress: "0.4"})
	f.store.setFailGet(true)

	if _, err := f.engine.ApplyWeather(context.Background(), true); !errors.Is(err, ErrStore) {
		t.Fatalf("expected ErrStore, got %v", err)
	}
	assertValue(t, f.engine.Value(), 0.4)
}

func TestOpenFailsOnUnreadableStore(t *testing.T) {
	s := newFlakyStore()
	s.setFailGet(true)

	_, err := Open(context.Background(), s, calendar.NewFixedOracle(calendar.MustParse("2024-05-01")), nil)
	if !errors.Is(err, ErrStore) {
		t.Fatalf("expected ErrStore, got %v", err)
	}
}

func TestMalformedRecordsAreIgnored(t *testing.T) {
	f := newFixture(t, map[string]string{
		KeyProgress:       "lots",
		KeyLastUpdateDate: "yesterday",
	})
	assertValue(t, f.engine.Value(), 0)

	out, err := f.engine.ApplyWeather(context.Background(), true)
	if err != nil {
		t.Fatalf("ApplyWeather failed: %v", err)
	}
	assertValue(t, out.Value, 0.05)

	f2 := newFixture(t, map[string]string{KeyProgress: "1.7"})
	assertValue(t, f2.engine.Value(), 1.0)
}

func TestResetRewindsActionGatesOnly(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	_, _ = f.engine.ApplyWeather(ctx, true)
	_, _ = f.engine.PressAction(ctx, ActionWater)
	_, _ = f.engine.PressAction(ctx, ActionWind)
	assertValue(t, f.engine.Value(), 0.08)

	if err := f.engine.Reset(ctx); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}
	assertValue(t, f.engine.Value(), 0.08)

	st, err := f.engine.Status(ctx)
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if st.WaterCredited || st.WindCredited {
		t.Fatalf("expected action gates cleared, got %+v", st)
	}
	if !st.WeatherCredited {
		t.Fatalf("reset must not clear the weather credit")
	}

	_, _ = f.engine.PressAction(ctx, ActionWind)
	out, err := f.engine.PressAction(ctx, ActionWater)
	if err != nil {
		t.Fatalf("press failed: %v", err)
	}
	assertValue(t, out.Value, 0.11)
	if f.rec.count(event.Completed) != 0 {
		t.Fatalf("reset must not trigger completion")
	}
}

func TestConcurrentPressesIncrementOnce(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		a := Actions[i%2]
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.engine.PressAction(ctx, a); err != nil {
				t.Errorf("press %s failed: %v", a, err)
			}
		}()
	}
	wg.Wait()

	assertValue(t, f.engine.Value(), 0.03)
}

func TestPressRejectsUnknownAction(t *testing.T) {
	f := newFixture(t, nil)
	if _, err := f.engine.PressAction(context.Background(), Action("sun")); !errors.Is(err, ErrUnknownAction) {
		t.Fatalf("expected ErrUnknownAction, got %v", err)
	}
}

func TestCancelledRefreshDoesNotApply(t *testing.T) {
	f := newFixture(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := f.engine.ApplyWeather(ctx, true); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	assertValue(t, f.engine.Value(), 0)
}

func TestEnginesSharingStoreKeepEachOthersIncrements(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	oracle := calendar.NewFixedOracle(calendar.MustParse("2024-05-01"))

	server, err := Open(ctx, s, oracle, nil)
	if err != nil {
		t.Fatalf("Open server engine: %v", err)
	}
	cli, err := Open(ctx, s, oracle, nil)
	if err != nil {
		t.Fatalf("Open cli engine: %v", err)
	}

	if _, err := cli.PressAction(ctx, ActionWater); err != nil {
		t.Fatalf("press water: %v", err)
	}
	if _, err := cli.PressAction(ctx, ActionWind); err != nil {
		t.Fatalf("press wind: %v", err)
	}

	out, err := server.ApplyWeather(ctx, true)
	if err != nil {
		t.Fatalf("ApplyWeather: %v", err)
	}
	assertValue(t, out.Value, 0.08)
	if got := storedValue(t, s); got != "0.08" {
		t.Fatalf("expected stored progress 0.08, got %q", got)
	}

	// The other direction: the server credits rain, then a fresh day's pair
	// completes through the CLI engine.
	oracle.Advance(1)
	if _, err := server.ApplyWeather(ctx, true); err != nil {
		t.Fatalf("ApplyWeather: %v", err)
	}
	if _, err := cli.PressAction(ctx, ActionWater); err != nil {
		t.Fatalf("press water: %v", err)
	}
	out, err = cli.PressAction(ctx, ActionWind)
	if err != nil {
		t.Fatalf("press wind: %v", err)
	}
	assertValue(t, out.Value, 0.16)

	st, err := server.Status(ctx)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	assertValue(t, st.Value, 0.16)
}
