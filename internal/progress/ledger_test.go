package progress

import (
	"context"
	"errors"
	"testing"

	"github.com/i474232898/stiffy-wanderers/internal/calendar"
)

func TestTryCreditOncePerDay(t *testing.T) {
	s := newFlakyStore()
	l := NewLedger(s)
	ctx := context.Background()
	today := calendar.MustParse("2024-05-01")

	granted, err := l.TryCredit(ctx, ActionWater, today)
	if err != nil || !granted {
		t.Fatalf("expected first credit granted, got %v, %v", granted, err)
	}
	if s.putCalls != 1 {
		t.Fatalf("expected exactly one durable write, got %d", s.putCalls)
	}

	granted, err = l.TryCredit(ctx, ActionWater, today)
	if err != nil || granted {
		t.Fatalf("expected second credit refused, got %v, %v", granted, err)
	}
	if s.putCalls != 1 {
		t.Fatalf("refused credit must not write, got %d writes", s.putCalls)
	}

	granted, err = l.TryCredit(ctx, ActionWater, today.AddDays(1))
	if err != nil || !granted {
		t.Fatalf("expected next-day credit granted, got %v, %v", granted, err)
	}
}

func TestTryCreditIgnoresEarlierClockDay(t *testing.T) {
	s := newFlakyStore()
	l := NewLedger(s)
	ctx := context.Background()

	if _, err := l.TryCredit(ctx, ActionWind, calendar.MustParse("2024-05-02")); err != nil {
		t.Fatalf("TryCredit failed: %v", err)
	}
	granted, err := l.TryCredit(ctx, ActionWind, calendar.MustParse("2024-05-01"))
	if err != nil || granted {
		t.Fatalf("a stored future date must block the credit, got %v, %v", granted, err)
	}
}

func TestTryCreditFailsClosed(t *testing.T) {
	s := newFlakyStore()
	l := NewLedger(s)
	ctx := context.Background()
	today := calendar.MustParse("2024-05-01")

	s.setFailPut(true)
	granted, err := l.TryCredit(ctx, ActionWater, today)
	if granted || !errors.Is(err, errDiskFull) {
		t.Fatalf("expected refused credit with write error, got %v, %v", granted, err)
	}

	s.setFailPut(false)
	if done, _ := l.CreditedOn(ctx, ActionWater, today); done {
		t.Fatalf("failed write must not leave a credit behind")
	}
}

func TestPrepareReportsPairCompletion(t *testing.T) {
	s := newFlakyStore()
	l := NewLedger(s)
	ctx := context.Background()
	today := calendar.MustParse("2024-05-01")

	c, err := l.Prepare(ctx, ActionWater, today)
	if err != nil || c == nil {
		t.Fatalf("expected a pending credit, got %v, %v", c, err)
	}
	if c.PairComplete {
		t.Fatalf("pair cannot be complete before wind is credited")
	}
	if s.putCalls != 0 {
		t.Fatalf("Prepare must not write")
	}
	if err := l.Commit(ctx, c); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}

	c, err = l.Prepare(ctx, ActionWind, today)
	if err != nil || c == nil || !c.PairComplete {
		t.Fatalf("expected pair-completing credit, got %+v, %v", c, err)
	}
	c.With(KeyProgress, "0.03")
	if err := l.Commit(ctx, c); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}
	if got, _ := s.Get(ctx, KeyProgress); got != "0.03" {
		t.Fatalf("dependent record not written, got %q", got)
	}
}

func TestClearRemovesBothCredits(t *testing.T) {
	s := newFlakyStore()
	l := NewLedger(s)
	ctx := context.Background()
	today := calendar.MustParse("2024-05-01")

	for _, a := range Actions {
		if _, err := l.TryCredit(ctx, a, today); err != nil {
			t.Fatalf("TryCredit %s failed: %v", a, err)
		}
	}
	if err := l.Clear(ctx); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	for _, a := range Actions {
		if _, ok, _ := l.LastCredit(ctx, a); ok {
			t.Fatalf("expected %s credit cleared", a)
		}
	}
}

func TestParseAction(t *testing.T) {
	cases := map[string]Action{"water": ActionWater, " Wind ": ActionWind, "WATER": ActionWater}
	for in, want := range cases {
		got, err := ParseAction(in)
		if err != nil || got != want {
			t.Fatalf("ParseAction(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := ParseAction("sun"); !errors.Is(err, ErrUnknownAction) {
		t.Fatalf("expected ErrUnknownAction, got %v", err)
	}
}

func TestStageFor(t *testing.T) {
	cases := []struct {
		v    float64
		want int
	}{
		{0, 1}, {0.49, 1}, {0.5, 2}, {0.99, 2}, {1.0, 3},
	}
	for _, tc := range cases {
		if got := StageFor(tc.v).Level; got != tc.want {
			t.Fatalf("StageFor(%v) = %d, want %d", tc.v, got, tc.want)
		}
	}
}
