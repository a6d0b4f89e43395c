package httpmiddleware

import (
	"testing"
	"time"
)

func TestLimiterFixedWindow(t *testing.T) {
	l := NewLimiter(3)
	now := time.Now()

	for i := 0; i < 3; i++ {
		if !l.allow("1.2.3.4", now) {
			t.Fatalf("request %d should be allowed", i)
		}
	}
	if l.allow("1.2.3.4", now) {
		t.Fatal("fourth request in the window should be blocked")
	}
	// Different client has its own window.
	if !l.allow("5.6.7.8", now) {
		t.Fatal("other client should be allowed")
	}
	// Window rollover resets the count.
	if !l.allow("1.2.3.4", now.Add(time.Minute)) {
		t.Fatal("new window should admit requests again")
	}
}
