package auth

import (
	"testing"
	"time"
)

func newTestLimiter(t *testing.T) (*RateLimiter, *time.Time) {
	t.Helper()

	rl := NewRateLimiter(RateLimitConfig{
		MaxAttempts:     3,
		WindowDuration:  time.Minute,
		LockoutDuration: 2 * time.Minute,
	})
	t.Cleanup(rl.Stop)

	now := time.Now()
	rl.now = func() time.Time { return now }
	return rl, &now
}

func TestRateLimiter_LocksAfterMaxFailures(t *testing.T) {
	rl, _ := newTestLimiter(t)

	for i := 0; i < 2; i++ {
		if locked, _ := rl.RecordFailure("1.2.3.4", "jane@example.com"); locked {
			t.Fatalf("attempt %d should not lock", i+1)
		}
	}
	if allowed, _ := rl.Allow("1.2.3.4", "jane@example.com"); !allowed {
		t.Fatal("Should still be allowed below the limit")
	}

	locked, retryAfter := rl.RecordFailure("1.2.3.4", "JANE@example.com")
	if !locked || retryAfter != 2*time.Minute {
		t.Fatalf("Expected lockout of 2m, got locked=%v retry=%v", locked, retryAfter)
	}

	allowed, wait := rl.Allow("1.2.3.4", "jane@example.com")
	if allowed || wait <= 0 {
		t.Errorf("Expected lockout, got allowed=%v wait=%v", allowed, wait)
	}

	// Other IPs and emails are unaffected.
	if allowed, _ := rl.Allow("5.6.7.8", "jane@example.com"); !allowed {
		t.Error("Different IP should be allowed")
	}
	if allowed, _ := rl.Allow("1.2.3.4", "other@example.com"); !allowed {
		t.Error("Different email should be allowed")
	}
}

func TestRateLimiter_LockoutExpires(t *testing.T) {
	rl, now := newTestLimiter(t)

	for i := 0; i < 3; i++ {
		rl.RecordFailure("ip", "e")
	}
	if allowed, _ := rl.Allow("ip", "e"); allowed {
		t.Fatal("Expected lockout")
	}

	*now = now.Add(2*time.Minute + time.Second)
	if allowed, _ := rl.Allow("ip", "e"); !allowed {
		t.Fatal("Lockout should have expired")
	}

	// The counter starts over after an expired lockout.
	if locked, _ := rl.RecordFailure("ip", "e"); locked {
		t.Error("First failure after lockout should not lock again")
	}
}

func TestRateLimiter_WindowResets(t *testing.T) {
	rl, now := newTestLimiter(t)

	rl.RecordFailure("ip", "e")
	rl.RecordFailure("ip", "e")

	*now = now.Add(2 * time.Minute)
	if locked, _ := rl.RecordFailure("ip", "e"); locked {
		t.Error("Failures outside the window should not count")
	}
}

func TestRateLimiter_RecordSuccessClears(t *testing.T) {
	rl, _ := newTestLimiter(t)

	rl.RecordFailure("ip", "e")
	rl.RecordFailure("ip", "e")
	rl.RecordSuccess("ip", "e")

	if locked, _ := rl.RecordFailure("ip", "e"); locked {
		t.Error("Success should reset the counter")
	}
}

func TestRateLimiter_Cleanup(t *testing.T) {
	rl, now := newTestLimiter(t)

	rl.RecordFailure("ip", "e")
	*now = now.Add(10 * time.Minute)
	rl.cleanup()

	rl.mu.Lock()
	n := len(rl.attempts)
	rl.mu.Unlock()
	if n != 0 {
		t.Errorf("Expected expired records to be removed, %d left", n)
	}
}

func TestRetryAfterSeconds(t *testing.T) {
	cases := map[time.Duration]string{
		0:                       "1",
		500 * time.Millisecond:  "1",
		59*time.Second + 1:      "60",
		2 * time.Minute:         "120",
	}
	for d, want := range cases {
		if got := retryAfterSeconds(d); got != want {
			t.Errorf("retryAfterSeconds(%v) = %s, want %s", d, got, want)
		}
	}
}

func TestRateLimiter_StopTwice(t *testing.T) {
	rl := NewRateLimiter(RateLimitConfig{})
	rl.Stop()
	rl.Stop()
}
