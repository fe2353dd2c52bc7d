package retry

import "testing"

func TestBudgetConsumesExactlyMax(t *testing.T) {
	b := NewBudget(3)

	for i := 1; i <= 3; i++ {
		if !b.Next() {
			t.Fatalf("Next() = false on attempt %d, want true", i)
		}
		if b.Used() != i {
			t.Fatalf("Used() = %d after attempt %d", b.Used(), i)
		}
	}

	// Once exhausted, Next stays false no matter how often it is asked.
	for i := 0; i < 5; i++ {
		if b.Next() {
			t.Fatalf("Next() = true after exhaustion (extra call %d)", i+1)
		}
	}
	if b.Used() != 3 {
		t.Fatalf("Used() = %d after exhaustion, want 3", b.Used())
	}
	if !b.Exhausted() {
		t.Fatal("Exhausted() = false, want true")
	}
	if b.Remaining() != 0 {
		t.Fatalf("Remaining() = %d, want 0", b.Remaining())
	}
}

func TestBudgetClampsToOneAttempt(t *testing.T) {
	for _, max := range []int{0, -1, -100} {
		b := NewBudget(max)
		if b.Max() != 1 {
			t.Fatalf("NewBudget(%d).Max() = %d, want 1", max, b.Max())
		}
		if !b.Next() {
			t.Fatalf("NewBudget(%d).Next() = false on first attempt", max)
		}
		if b.Next() {
			t.Fatalf("NewBudget(%d).Next() = true on second attempt", max)
		}
	}
}

func TestBudgetRemaining(t *testing.T) {
	b := NewBudget(5)
	if b.Remaining() != 5 {
		t.Fatalf("Remaining() = %d, want 5", b.Remaining())
	}
	b.Next()
	b.Next()
	if b.Remaining() != 3 {
		t.Fatalf("Remaining() = %d after 2 attempts, want 3", b.Remaining())
	}
	if b.Exhausted() {
		t.Fatal("Exhausted() = true with attempts remaining")
	}
}
