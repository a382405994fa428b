package ratelimit

import (
	"net/http"
	"sync"
	"testing"
	"time"
)

// mockClock is a controllable clock for testing.
type mockClock struct {
	mu  sync.Mutex
	now time.Time
}

func newMockClock() *mockClock {
	return &mockClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *mockClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *mockClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestCheckLogin_LockoutAfterMaxFailures(t *testing.T) {
	clock := newMockClock()
	limiter := New(&Config{
		MaxFailures:  3,
		Lockout:      15 * time.Minute,
		MaxIPPerHour: 30,
		Clock:        clock,
	})
	defer limiter.Close()

	identifier := "player@example.com"
	ip := "192.168.1.4"

	for i := 0; i < 3; i++ {
		result := limiter.CheckLogin(identifier, ip)
		if !result.Allowed {
			t.Errorf("Attempt %d should be allowed, got blocked: %s", i+1, result.Reason)
		}
		lockedOut := limiter.RecordLoginFailure(identifier, ip)
		if i < 2 && lockedOut {
			t.Errorf("Attempt %d should not trigger lockout", i+1)
		}
		if i == 2 && !lockedOut {
			t.Error("3rd failure should trigger lockout")
		}
	}

	result := limiter.CheckLogin(identifier, ip)
	if result.Allowed {
		t.Error("4th attempt should be blocked (lockout)")
	}
	if result.Reason != "lockout" {
		t.Errorf("Expected reason 'lockout', got '%s'", result.Reason)
	}
	if result.RetryAfter != 15*time.Minute {
		t.Errorf("Expected RetryAfter 15m, got %v", result.RetryAfter)
	}

	clock.Advance(15*time.Minute + time.Second)
	result = limiter.CheckLogin(identifier, ip)
	if !result.Allowed {
		t.Errorf("Attempt after lockout should be allowed, got blocked: %s", result.Reason)
	}
}

func TestCheckLogin_ResetOnSuccess(t *testing.T) {
	clock := newMockClock()
	limiter := New(&Config{
		MaxFailures:  3,
		Lockout:      15 * time.Minute,
		MaxIPPerHour: 30,
		Clock:        clock,
	})
	defer limiter.Close()

	identifier := "reset@example.com"
	ip := "192.168.1.5"

	for i := 0; i < 2; i++ {
		limiter.RecordLoginFailure(identifier, ip)
	}
	limiter.ResetLoginAttempts(identifier)

	for i := 0; i < 3; i++ {
		result := limiter.CheckLogin(identifier, ip)
		if !result.Allowed {
			t.Errorf("Attempt %d after reset should be allowed, got blocked: %s", i+1, result.Reason)
		}
		limiter.RecordLoginFailure(identifier, ip)
	}

	if result := limiter.CheckLogin(identifier, ip); result.Allowed {
		t.Error("4th attempt after reset should be blocked")
	}
}

func TestCheckLogin_IPLimit(t *testing.T) {
	clock := newMockClock()
	limiter := New(&Config{
		MaxFailures:  100,
		Lockout:      15 * time.Minute,
		MaxIPPerHour: 2,
		Clock:        clock,
	})
	defer limiter.Close()

	ip := "192.168.1.6"

	for i := 0; i < 2; i++ {
		identifier := "user" + string(rune('a'+i)) + "@example.com"
		result := limiter.CheckLogin(identifier, ip)
		if !result.Allowed {
			t.Errorf("Attempt %d should be allowed, got blocked: %s", i+1, result.Reason)
		}
		limiter.RecordLoginFailure(identifier, ip)
	}

	result := limiter.CheckLogin("userc@example.com", ip)
	if result.Allowed {
		t.Error("3rd attempt from same IP should be blocked")
	}
	if result.Reason != "ip_hourly_limit" {
		t.Errorf("Expected reason 'ip_hourly_limit', got '%s'", result.Reason)
	}

	clock.Advance(time.Hour + time.Second)
	if result := limiter.CheckLogin("userc@example.com", ip); !result.Allowed {
		t.Errorf("Attempt after hour should be allowed, got blocked: %s", result.Reason)
	}
}

func TestCheckLogin_IdentifierNormalization(t *testing.T) {
	clock := newMockClock()
	limiter := New(&Config{
		MaxFailures:  1,
		Lockout:      15 * time.Minute,
		MaxIPPerHour: 30,
		Clock:        clock,
	})
	defer limiter.Close()

	ip := "192.168.1.1"
	limiter.RecordLoginFailure("user@example.com", ip)

	if result := limiter.CheckLogin("USER@EXAMPLE.COM", ip); result.Allowed {
		t.Error("Attempt with different case should be blocked (same identifier)")
	}
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name       string
		headers    map[string]string
		remoteAddr string
		trustProxy bool
		expected   string
	}{
		{
			name:       "TrustProxy=true, XFF rightmost public IP",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.50, 10.0.0.1"},
			remoteAddr: "10.0.0.1:12345",
			trustProxy: true,
			expected:   "203.0.113.50",
		},
		{
			name:       "TrustProxy=false, ignores XFF",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.50"},
			remoteAddr: "192.168.1.100:54321",
			trustProxy: false,
			expected:   "192.168.1.100",
		},
		{
			name:       "No headers, RemoteAddr only",
			headers:    map[string]string{},
			remoteAddr: "192.168.1.100:54321",
			trustProxy: true,
			expected:   "192.168.1.100",
		},
		{
			name:       "RemoteAddr without port",
			headers:    map[string]string{},
			remoteAddr: "192.168.1.100",
			trustProxy: false,
			expected:   "192.168.1.100",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _ := http.NewRequest("GET", "/", nil)
			r.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}

			got := GetClientIP(r, tt.trustProxy)
			if got != tt.expected {
				t.Errorf("GetClientIP() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestSanitizeIdentifier(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"john.doe@example.com", "jo***@example.com"},
		{"ab@example.com", "***@example.com"},
		{"5551234567", "***4567"},
		{"123", "***"},
		{"", "***"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := SanitizeIdentifier(tt.input); got != tt.expected {
				t.Errorf("SanitizeIdentifier(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestConcurrentAccess(t *testing.T) {
	clock := newMockClock()
	limiter := New(&Config{
		MaxFailures:  1000,
		Lockout:      15 * time.Minute,
		MaxIPPerHour: 100000,
		Clock:        clock,
	})
	defer limiter.Close()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				if result := limiter.CheckLogin("user@example.com", "192.168.1.1"); result.Allowed {
					limiter.RecordLoginFailure("user@example.com", "192.168.1.1")
				}
			}
		}()
	}
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				limiter.ResetLoginAttempts("user@example.com")
			}
		}()
	}
	wg.Wait()
}
