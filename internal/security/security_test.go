package security

import (
	"crypto/tls"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("geheim123")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	if hash == "" || hash == "geheim123" {
		t.Fatalf("HashPassword() returned %q", hash)
	}

	tests := []struct {
		name     string
		password string
		want     bool
	}{
		{"matching password", "geheim123", true},
		{"wrong password", "geheim124", false},
		{"empty password", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := CheckPassword(hash, tt.password)
			if err != nil {
				t.Fatalf("CheckPassword() error = %v", err)
			}
			if ok != tt.want {
				t.Errorf("CheckPassword() = %v, want %v", ok, tt.want)
			}
		})
	}

	if _, err := CheckPassword("not-a-hash", "x"); err == nil {
		t.Error("CheckPassword() with malformed hash should fail")
	}
}

func TestTokenSigner(t *testing.T) {
	signer := NewTokenSigner("secret")

	token, err := signer.Sign("session-1", 42, time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("Sign() error = %v", err)
	}

	claims, err := signer.Parse(token)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if claims.Subject != "session-1" || claims.UserID != 42 {
		t.Errorf("Parse() = %+v", claims)
	}

	t.Run("wrong secret", func(t *testing.T) {
		if _, err := NewTokenSigner("other").Parse(token); err != ErrInvalidToken {
			t.Errorf("Parse() error = %v, want ErrInvalidToken", err)
		}
	})

	t.Run("expired", func(t *testing.T) {
		old, err := signer.Sign("session-2", 42, time.Now().Add(-time.Minute))
		if err != nil {
			t.Fatalf("Sign() error = %v", err)
		}
		if _, err := signer.Parse(old); err != ErrInvalidToken {
			t.Errorf("Parse() error = %v, want ErrInvalidToken", err)
		}
	})

	t.Run("tampered", func(t *testing.T) {
		if _, err := signer.Parse(token + "x"); err != ErrInvalidToken {
			t.Errorf("Parse() error = %v, want ErrInvalidToken", err)
		}
	})
}

func TestCSRFGenerator(t *testing.T) {
	g := NewCSRFGenerator("secret")

	token := g.GenerateToken("session-1")
	if token == "" {
		t.Fatal("GenerateToken() returned empty token")
	}
	if token != g.GenerateToken("session-1") {
		t.Error("GenerateToken() is not deterministic")
	}
	if g.GenerateToken("") != "" {
		t.Error("GenerateToken(\"\") should be empty")
	}

	tests := []struct {
		name      string
		sessionID string
		token     string
		want      bool
	}{
		{"valid", "session-1", token, true},
		{"other session", "session-2", token, false},
		{"empty token", "session-1", "", false},
		{"empty session", "", token, false},
		{"other secret", "session-1", NewCSRFGenerator("x").GenerateToken("session-1"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := g.ValidateToken(tt.sessionID, tt.token); got != tt.want {
				t.Errorf("ValidateToken() = %v, want %v", got, tt.want)
			}
		})
	}

	req := httptest.NewRequest("POST", "/api/study/choose", nil)
	req.Header.Set(CSRFHeader, token)
	if !g.ValidateRequest(req, "session-1") {
		t.Error("ValidateRequest() rejected a valid header")
	}
}

func TestRateLimiter(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(3, time.Minute)
	rl.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		if !rl.Allow("1.2.3.4") {
			t.Fatalf("request %d rejected", i+1)
		}
	}
	if rl.Allow("1.2.3.4") {
		t.Error("fourth request allowed")
	}
	if !rl.Allow("5.6.7.8") {
		t.Error("other client limited")
	}

	now = now.Add(time.Minute)
	if !rl.Allow("1.2.3.4") {
		t.Error("window did not reset")
	}

	now = now.Add(3 * time.Minute)
	if removed := rl.Cleanup(); removed != 2 {
		t.Errorf("Cleanup() removed %d, want 2", removed)
	}
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{"forwarded chain", map[string]string{"X-Forwarded-For": "10.0.0.1, 172.16.0.1"}, "1.1.1.1:1234", "10.0.0.1"},
		{"real ip", map[string]string{"X-Real-IP": "10.0.0.2"}, "1.1.1.1:1234", "10.0.0.2"},
		{"remote addr", nil, "192.168.1.5:5555", "192.168.1.5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			if got := GetClientIP(req); got != tt.want {
				t.Errorf("GetClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSessionCookies(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	cookie := CreateSessionCookie(req, "value", time.Now().Add(time.Hour))
	if cookie.Secure {
		t.Error("plain HTTP request produced a Secure cookie")
	}
	if !cookie.HttpOnly || cookie.Name != SessionCookieName {
		t.Errorf("unexpected cookie %+v", cookie)
	}

	tlsReq := httptest.NewRequest("GET", "/", nil)
	tlsReq.TLS = &tls.ConnectionState{}
	if !CreateSessionCookie(tlsReq, "value", time.Now()).Secure {
		t.Error("TLS request produced an insecure cookie")
	}

	proxied := httptest.NewRequest("GET", "/", nil)
	proxied.Header.Set("X-Forwarded-Proto", "https")
	if !CreateDeleteCookie(proxied).Secure {
		t.Error("proxied HTTPS request produced an insecure delete cookie")
	}

	if id := GenerateSessionID(); len(id) != 36 || strings.Count(id, "-") != 4 {
		t.Errorf("GenerateSessionID() = %q, want a UUID", id)
	}
}
