package achievement

import (
	"fmt"
	"sync"

	"word-garden/internal/model"
)

// Registry maps condition types to their evaluation. New variants are added
// by registering them, never by editing the evaluator.
type Registry struct {
	conditions map[model.ConditionType]Condition
	mu         sync.RWMutex
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		conditions: make(map[model.ConditionType]Condition),
	}
}

// NewDefaultRegistry returns a registry holding every built-in condition.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	for _, c := range []Condition{WordsLearned{}, ReviewCount{}, ConsecutiveDays{}, WeeklyGoal{}} {
		// built-ins are non-nil with non-empty types
		_ = r.Register(c)
	}
	return r
}

// Register adds a condition. A condition with the same type is replaced.
func (r *Registry) Register(c Condition) error {
	if c == nil {
		return fmt.Errorf("cannot register nil condition")
	}
	if c.Type() == "" {
		return fmt.Errorf("condition type cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.conditions[c.Type()] = c
	return nil
}

// Get retrieves the condition for a type.
func (r *Registry) Get(t model.ConditionType) (Condition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.conditions[t]
	return c, ok
}

// Satisfied returns the achievements from candidates whose condition is met.
// Candidates with an unregistered condition type are returned in unknown.
func (r *Registry) Satisfied(candidates []*model.Achievement, a Activity) (met []*model.Achievement, unknown []*model.Achievement) {
	for _, ach := range candidates {
		c, ok := r.Get(ach.ConditionType)
		if !ok {
			unknown = append(unknown, ach)
			continue
		}
		if c.Met(a, ach.ConditionValue) {
			met = append(met, ach)
		}
	}
	return met, unknown
}
