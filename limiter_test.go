package flatblog

import (
	"testing"
	"time"
)

func TestLoginLimiterAllowsUpToMax(t *testing.T) {
	l := NewLoginLimiter(3, time.Minute)
	for i := 0; i < 3; i++ {
		if !l.Allow("10.0.0.1") {
			t.Fatalf("attempt %d should be allowed", i+1)
		}
	}
	if l.Allow("10.0.0.1") {
		t.Error("fourth attempt should be blocked")
	}
}

func TestLoginLimiterIsPerIP(t *testing.T) {
	l := NewLoginLimiter(1, time.Minute)
	if !l.Allow("10.0.0.1") {
		t.Fatal("first IP should be allowed")
	}
	if !l.Allow("10.0.0.2") {
		t.Error("different IP should have its own budget")
	}
	if l.Allow("10.0.0.1") {
		t.Error("first IP should now be blocked")
	}
}

func TestLoginLimiterWindowExpiry(t *testing.T) {
	l := NewLoginLimiter(1, 20*time.Millisecond)
	if !l.Allow("10.0.0.1") {
		t.Fatal("first attempt should be allowed")
	}
	if l.Allow("10.0.0.1") {
		t.Fatal("second attempt should be blocked")
	}
	time.Sleep(30 * time.Millisecond)
	if !l.Allow("10.0.0.1") {
		t.Error("attempt after window should be allowed")
	}
}
