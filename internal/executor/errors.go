package executor

import "fmt"

// BudgetExceededError is the tick-step-2 failure of spec.md §4.2.
type BudgetExceededError struct {
	GraphID  string
	Spent    float64
	MaxCost  float64
}

func (e *BudgetExceededError) Error() string {
	return fmt.Sprintf("executor: graph %s spent $%.2f exceeds budget $%.2f", e.GraphID, e.Spent, e.MaxCost)
}

// WallClockExceededError is the tick-step-3 failure of spec.md §4.2.
type WallClockExceededError struct {
	GraphID string
}

func (e *WallClockExceededError) Error() string {
	return fmt.Sprintf("executor: graph %s exceeded its wall-clock budget", e.GraphID)
}

// NotFoundError is returned by Get/Tick/Pause/... for an unknown graph id.
type NotFoundError struct {
	GraphID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("executor: unknown graph %q", e.GraphID)
}
