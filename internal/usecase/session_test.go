package usecase

import (
	"errors"
	"testing"
	"time"

	"MarketDash/internal/domain/models"

	"github.com/google/uuid"
)

func TestViewStateDiscardsSupersededDecision(t *testing.T) {
	now := time.Date(2024, 1, 2, 9, 15, 0, 0, time.UTC)
	st := NewSessionStore(time.Hour).Acquire("")

	first := st.Begin("TCS", now)
	second := st.Begin("INFY", now)

	if st.Complete(first, models.AnalysisView{Decision: models.DecisionSummary{Symbol: "TCS"}}, now) {
		t.Fatal("late decision for the previous symbol must be discarded")
	}
	if st.Tick(first, 9) {
		t.Fatal("stale tick must be discarded")
	}
	if !st.Complete(second, models.AnalysisView{Decision: models.DecisionSummary{Symbol: "INFY"}, Elapsed: 3}, now) {
		t.Fatal("current decision must apply")
	}
	snap := st.Snapshot()
	if snap.Symbol != "INFY" || snap.Decision.Symbol != "INFY" || snap.Loading || snap.Elapsed != 3 {
		t.Fatalf("snapshot = %+v", snap)
	}
	if snap.ElapsedLabel != "3s" {
		t.Fatalf("elapsed label = %q", snap.ElapsedLabel)
	}
}

func TestBeginClearsPreviousDecision(t *testing.T) {
	now := time.Now()
	st := NewSessionStore(time.Hour).Acquire("")
	seq := st.Begin("TCS", now)
	st.Complete(seq, models.AnalysisView{Decision: models.DecisionSummary{Symbol: "TCS"}}, now)

	st.Begin("INFY", now)
	if snap := st.Snapshot(); snap.Decision != nil || !snap.Loading {
		t.Fatalf("decision must be discarded on new symbol: %+v", snap)
	}
}

func TestSessionStoreLifecycle(t *testing.T) {
	store := NewSessionStore(time.Minute)
	now := time.Date(2024, 1, 2, 9, 15, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	s := store.Acquire("")
	if s.ID() == "" {
		t.Fatal("empty id")
	}
	if again := store.Acquire(s.ID()); again != s {
		t.Fatal("known id must return the same session")
	}
	if _, err := store.Get("missing"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("want ErrSessionNotFound, got %v", err)
	}

	chosen := store.Acquire("client-chosen-id")
	if chosen.ID() == "client-chosen-id" || chosen == s {
		t.Fatalf("unknown id must get a fresh session, got %q", chosen.ID())
	}
	if _, err := uuid.Parse(chosen.ID()); err != nil {
		t.Fatalf("minted id %q is not a uuid: %v", chosen.ID(), err)
	}
	if _, err := store.Get("client-chosen-id"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatal("client-chosen id must not be stored")
	}

	now = now.Add(2 * time.Minute)
	if n := store.Sweep(); n != 0 {
		t.Fatalf("idle session not swept, %d remain", n)
	}
}
