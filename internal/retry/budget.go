// Package retry provides the bounded attempt counters used by the CAPTCHA,
// timestamp and query loops. Budgets are created at the start of a logical
// operation and discarded at its end; they are never shared across
// operations or stored as long-lived object state.
package retry

// Budget is a counter pair scoped to one operation kind. used never
// exceeds max.
type Budget struct {
	used int
	max  int
}

// NewBudget creates a budget allowing max attempts. A max below one is
// clamped to one so every loop gets at least a single attempt.
func NewBudget(max int) *Budget {
	if max < 1 {
		max = 1
	}
	return &Budget{max: max}
}

// Next consumes one attempt and reports whether the caller may proceed.
// Once it returns false it returns false forever.
func (b *Budget) Next() bool {
	if b.used >= b.max {
		return false
	}
	b.used++
	return true
}

// Used returns how many attempts have been consumed.
func (b *Budget) Used() int { return b.used }

// Max returns the attempt ceiling.
func (b *Budget) Max() int { return b.max }

// Exhausted reports whether no attempts remain.
func (b *Budget) Exhausted() bool { return b.used >= b.max }

// Remaining returns how many attempts are left.
func (b *Budget) Remaining() int { return b.max - b.used }
