package cart

import (
	"strings"

	"github.com/matst80/slask-theme/pkg/money"
)

// Threshold is a free shipping goal in minor units.
type Threshold struct {
	Amount int
	// Message is shown below the goal; {amount} is replaced by the
	// formatted shortfall.
	Message string
	// Reached is shown once the goal is met.
	Reached string
}

const (
	DefaultThresholdMessage = "You're {amount} away from free shipping"
	DefaultThresholdReached = "You've unlocked free shipping!"
)

type ThresholdStatus struct {
	Hidden    bool
	Reached   bool
	Remaining int
	// Progress is a percentage in [0, 100].
	Progress int
	Message  string
}

// Status evaluates the goal for a cart total. A non-positive goal or an
// empty cart hides the bar.
func (t Threshold) Status(c *Cart, f money.Formatter) ThresholdStatus {
	if t.Amount <= 0 || c.IsEmpty() {
		return ThresholdStatus{Hidden: true}
	}
	total := c.TotalPrice
	if total >= t.Amount {
		msg := t.Reached
		if msg == "" {
			msg = DefaultThresholdReached
		}
		return ThresholdStatus{Reached: true, Progress: 100, Message: msg}
	}
	progress := total * 100 / t.Amount
	progress = max(0, min(100, progress))
	remaining := t.Amount - total
	msg := t.Message
	if msg == "" {
		msg = DefaultThresholdMessage
	}
	return ThresholdStatus{
		Remaining: remaining,
		Progress:  progress,
		Message:   strings.ReplaceAll(msg, "{amount}", f.Format(remaining)),
	}
}
