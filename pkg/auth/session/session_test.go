package session

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var secret = []byte("test-secret")

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestIssueVerify(t *testing.T) {
	m := New(secret)
	token, err := m.Issue(Identity{UserID: "u1", Role: "provider", Name: "Asha"})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	id, ok := m.Verify(token)
	if !ok {
		t.Fatal("Verify() = false")
	}
	if id.UserID != "u1" || id.Role != "provider" || id.Name != "Asha" {
		t.Errorf("identity = %+v", id)
	}
	if d := time.Until(id.ExpiresAt); d < DefaultTTL-time.Minute || d > DefaultTTL {
		t.Errorf("expiry in %v, want about 7 days", d)
	}
}

func TestVerifyExpiresAfterSevenDays(t *testing.T) {
	issued := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	token, err := New(secret, WithClock(fixedClock(issued))).Issue(Identity{UserID: "u1"})
	if err != nil {
		t.Fatal(err)
	}

	if _, ok := New(secret, WithClock(fixedClock(issued.Add(DefaultTTL-time.Minute)))).Verify(token); !ok {
		t.Error("token should be valid just before 7 days")
	}
	if _, ok := New(secret, WithClock(fixedClock(issued.Add(DefaultTTL+time.Minute)))).Verify(token); ok {
		t.Error("token should be expired after 7 days")
	}
}

func TestVerifyRejects(t *testing.T) {
	m := New(secret, WithIssuer("dashkit"))
	good, _ := m.Issue(Identity{UserID: "u1"})

	otherKey, _ := New([]byte("other"), WithIssuer("dashkit")).Issue(Identity{UserID: "u1"})
	otherIssuer, _ := New(secret, WithIssuer("elsewhere")).Issue(Identity{UserID: "u1"})
	noExpiry, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject: "u1",
		Issuer:  "dashkit",
	}).SignedString(secret)
	wrongAlg, _ := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.RegisteredClaims{
		Subject:   "u1",
		Issuer:    "dashkit",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString(secret)

	tests := map[string]string{
		"empty":        "",
		"garbage":      "not.a.token",
		"tampered":     good[:len(good)-2] + "xx",
		"other key":    otherKey,
		"other issuer": otherIssuer,
		"no expiry":    noExpiry,
		"wrong alg":    wrongAlg,
	}
	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			id, ok := m.Verify(token)
			if ok || !id.IsZero() {
				t.Errorf("Verify() = %+v, %v; want no identity", id, ok)
			}
		})
	}
}

func TestIssueRequiresSecretAndUser(t *testing.T) {
	if _, err := New(nil).Issue(Identity{UserID: "u1"}); err != ErrNoSecret {
		t.Errorf("Issue without secret = %v", err)
	}
	if _, err := New(secret).Issue(Identity{}); err == nil {
		t.Error("Issue without user id should fail")
	}
}

func TestCookieRoundTrip(t *testing.T) {
	m := New(secret, WithCookieName("sid"))
	rec := httptest.NewRecorder()
	token, err := m.SetCookie(rec, httptest.NewRequest(http.MethodPost, "/api/session", nil), Identity{UserID: "u7"})
	if err != nil {
		t.Fatal(err)
	}

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != "sid" || cookies[0].Value != token || !cookies[0].HttpOnly {
		t.Fatalf("cookies = %+v", cookies)
	}
	if cookies[0].MaxAge != int(DefaultTTL/time.Second) {
		t.Errorf("MaxAge = %d", cookies[0].MaxAge)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookies[0])
	id, ok := m.FromRequest(req)
	if !ok || id.UserID != "u7" {
		t.Errorf("FromRequest() = %+v, %v", id, ok)
	}
}

func TestFromRequestBearer(t *testing.T) {
	m := New(secret)
	token, _ := m.Issue(Identity{UserID: "u2"})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	if id, ok := m.FromRequest(req); !ok || id.UserID != "u2" {
		t.Errorf("FromRequest() = %+v, %v", id, ok)
	}
}

func TestFromRequestStaleCookieFallsBackToBearer(t *testing.T) {
	m := New(secret)
	stale, _ := New([]byte("rotated-secret")).Issue(Identity{UserID: "old"})
	token, _ := m.Issue(Identity{UserID: "u3"})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: m.CookieName(), Value: stale})
	req.Header.Set("Authorization", "Bearer "+token)
	if id, ok := m.FromRequest(req); !ok || id.UserID != "u3" {
		t.Errorf("FromRequest() = %+v, %v, want bearer identity", id, ok)
	}

	req.Header.Del("Authorization")
	if _, ok := m.FromRequest(req); ok {
		t.Error("stale cookie accepted without a bearer header")
	}
}

func TestMiddlewareAndRequire(t *testing.T) {
	m := New(secret)
	h := m.Middleware()(Require(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, _ := FromContext(r.Context())
		w.Write([]byte(id.UserID))
	})))

	t.Run("valid", func(t *testing.T) {
		token, _ := m.Issue(Identity{UserID: "u1"})
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: DefaultCookieName, Value: token})
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK || rec.Body.String() != "u1" {
			t.Errorf("got %d %q", rec.Code, rec.Body.String())
		}
	})

	t.Run("missing", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
	})

	t.Run("invalid cookie is cleared", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: DefaultCookieName, Value: "bogus"})
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
		if !strings.Contains(rec.Header().Get("Set-Cookie"), "Max-Age=0") {
			t.Errorf("Set-Cookie = %q, want cleared cookie", rec.Header().Get("Set-Cookie"))
		}
	})
}
