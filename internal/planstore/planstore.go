// Package planstore persists the per-day plan file and carryover file
// (§6 "Persisted state layout"). It adapts the teacher's
// internal/checkpoint.Store idiom — a directory-backed, mutex-guarded
// store that flushes JSON to disk on every write — from a per-step-id
// file layout to a per-day file layout.
package planstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sandahltim/StardewAI-sub000/internal/planner"
	"github.com/sandahltim/StardewAI-sub000/internal/resolver"
)

// DayPlan is the full persisted record for one in-game day.
type DayPlan struct {
	Date        string                  `json:"date"` // YYYY-MM-DD
	Raw         []planner.TaskRaw       `json:"raw"`
	Resolved    []resolver.ResolvedTask `json:"resolved"`
	SkipReasons []resolver.SkipRecord   `json:"skip_reasons"`
	Completions map[string]bool         `json:"completions"` // parent task id -> completed
	CreatedAt   time.Time               `json:"created_at"`
}

// Store manages day-plan files under one directory.
type Store struct {
	dir string
	mu  sync.Mutex
}

// NewStore creates (if needed) the plan directory.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create plan directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) path(date string) string {
	return filepath.Join(s.dir, date+".json")
}

// Save writes (or overwrites) the day's plan file.
func (s *Store) Save(plan *DayPlan) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(plan, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal day plan: %w", err)
	}
	return os.WriteFile(s.path(plan.Date), data, 0644)
}

// Load reads a previously saved day plan, if any.
func (s *Store) Load(date string) (*DayPlan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path(date))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read day plan: %w", err)
	}
	var plan DayPlan
	if err := json.Unmarshal(data, &plan); err != nil {
		return nil, fmt.Errorf("unmarshal day plan: %w", err)
	}
	return &plan, nil
}

// MarkComplete records a resolved task's parent-task completion and flushes.
func (s *Store) MarkComplete(plan *DayPlan, parentTaskID string, completed bool) error {
	s.mu.Lock()
	if plan.Completions == nil {
		plan.Completions = make(map[string]bool)
	}
	plan.Completions[parentTaskID] = completed
	s.mu.Unlock()
	return s.Save(plan)
}

// Carryover is the small file the Daily Planner reads at day-start
// (§4.2 step 1). SaveCarryover writes it; the agent loop does not call
// SaveCarryover at day-end.
type Carryover struct {
	Items []planner.Completion `json:"items"`
}

func (s *Store) carryoverPath() string {
	return filepath.Join(s.dir, "carryover.json")
}

// SaveCarryover persists unfinished critical/high tasks for the next day.
func (s *Store) SaveCarryover(c Carryover) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.carryoverPath(), data, 0644)
}

// LoadCarryover reads the prior day's unfinished tasks, if any.
func (s *Store) LoadCarryover() (Carryover, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := os.ReadFile(s.carryoverPath())
	if err != nil {
		if os.IsNotExist(err) {
			return Carryover{}, nil
		}
		return Carryover{}, err
	}
	var c Carryover
	if err := json.Unmarshal(data, &c); err != nil {
		return Carryover{}, err
	}
	return c, nil
}
