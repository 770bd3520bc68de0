package planstore

import (
	"testing"
	"time"

	"github.com/sandahltim/StardewAI-sub000/internal/planner"
)

func TestStore_SaveAndLoad(t *testing.T) {
	s, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	plan := &DayPlan{
		Date:      "2024-03-01",
		Raw:       []planner.TaskRaw{{ID: "t1", Kind: planner.KindWaterCrops}},
		CreatedAt: time.Date(2024, 3, 1, 6, 0, 0, 0, time.UTC),
	}
	if err := s.Save(plan); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := s.Load("2024-03-01")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got == nil || got.Date != plan.Date || len(got.Raw) != 1 || got.Raw[0].ID != "t1" {
		t.Errorf("Load() = %+v, want round-tripped plan", got)
	}
}

func TestStore_Load_MissingReturnsNilNoError(t *testing.T) {
	s, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	got, err := s.Load("2099-01-01")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Errorf("Load() = %+v, want nil for missing day", got)
	}
}

func TestStore_MarkComplete(t *testing.T) {
	s, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	plan := &DayPlan{Date: "2024-03-02"}
	if err := s.Save(plan); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := s.MarkComplete(plan, "parent-1", true); err != nil {
		t.Fatalf("MarkComplete: %v", err)
	}
	if !plan.Completions["parent-1"] {
		t.Fatal("expected in-memory plan to be updated")
	}

	reloaded, err := s.Load("2024-03-02")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if reloaded == nil || !reloaded.Completions["parent-1"] {
		t.Errorf("Load() = %+v, want persisted completion", reloaded)
	}
}

func TestStore_CarryoverRoundTrip(t *testing.T) {
	s, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	c := Carryover{Items: []planner.Completion{{TaskID: "t1", Completed: false, Priority: planner.PriorityCritical}}}
	if err := s.SaveCarryover(c); err != nil {
		t.Fatalf("SaveCarryover: %v", err)
	}
	got, err := s.LoadCarryover()
	if err != nil {
		t.Fatalf("LoadCarryover: %v", err)
	}
	if len(got.Items) != 1 || got.Items[0].TaskID != "t1" {
		t.Errorf("LoadCarryover() = %+v, want round-tripped carryover", got)
	}
}

func TestStore_LoadCarryover_MissingIsEmpty(t *testing.T) {
	s, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	got, err := s.LoadCarryover()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got.Items) != 0 {
		t.Errorf("LoadCarryover() = %+v, want empty for missing file", got)
	}
}
