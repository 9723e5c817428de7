package credentials

import (
	"regexp"
	"strings"
	"testing"
	"time"
)

func TestRandomID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		length  int
		seed    string
		wantLen int
	}{
		{name: "default length on zero", length: 0, wantLen: 7},
		{name: "default length on negative", length: -3, wantLen: 7},
		{name: "short", length: 4, wantLen: 4},
		{name: "full digest", length: 32, wantLen: 32},
		{name: "clamped to digest length", length: 64, wantLen: 32},
		{name: "seeded", length: 7, seed: "extra", wantLen: 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := RandomID(tt.length, tt.seed)
			if len(got) != tt.wantLen {
				t.Errorf("RandomID() length = %d, want %d", len(got), tt.wantLen)
			}
			if !regexp.MustCompile(`^[0-9a-f]+$`).MatchString(got) {
				t.Errorf("RandomID() = %q, want lowercase hex", got)
			}
		})
	}
}

func TestRandomID_distinct(t *testing.T) {
	t.Parallel()

	seen := make(map[string]struct{})
	for range 100 {
		id := RandomID(32, "")
		if _, ok := seen[id]; ok {
			t.Fatalf("RandomID() repeated value %q", id)
		}
		seen[id] = struct{}{}
	}
}

func TestGenerateGUID(t *testing.T) {
	t.Parallel()

	guidPattern := regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-4[0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$`)

	got := GenerateGUID(true)
	if !guidPattern.MatchString(got) {
		t.Errorf("GenerateGUID(true) = %q, want v4 GUID", got)
	}

	got = GenerateGUID(false)
	if !strings.HasPrefix(got, "{") || !strings.HasSuffix(got, "}") {
		t.Fatalf("GenerateGUID(false) = %q, want braces", got)
	}
	if !guidPattern.MatchString(strings.Trim(got, "{}")) {
		t.Errorf("GenerateGUID(false) = %q, want v4 GUID inside braces", got)
	}
}

func Test_weakGUID(t *testing.T) {
	t.Parallel()

	guidPattern := regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-4[0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$`)
	if got := weakGUID(); !guidPattern.MatchString(got) {
		t.Errorf("weakGUID() = %q, want v4-shaped GUID", got)
	}
}

func TestHasher_hashes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		algorithm Algorithm
		wantLen   int
	}{
		{name: "legacy md5", algorithm: LegacyMD5, wantLen: 32},
		{name: "hmac sha256", algorithm: HMACSHA256, wantLen: 64},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h := New(tt.algorithm, []byte("install-key"))

			cookieHash := h.CookieHash("prefix", "dbname", "school")
			if len(cookieHash) != tt.wantLen {
				t.Errorf("CookieHash() length = %d, want %d", len(cookieHash), tt.wantLen)
			}

			sessionHash := h.SessionHash("prefix", "dbname")
			if len(sessionHash) != tt.wantLen {
				t.Errorf("SessionHash() length = %d, want %d", len(sessionHash), tt.wantLen)
			}

			if cookieHash == sessionHash {
				t.Error("CookieHash() == SessionHash(), want distinct secrets")
			}
		})
	}
}

func TestHasher_GenerateAPIKey(t *testing.T) {
	t.Parallel()

	type args struct {
		accountID string
		random1   string
		random2   string
	}
	tests := []struct {
		name      string
		algorithm Algorithm
		args      args
		wantLen   int
	}{
		{
			name:      "legacy with supplied randoms",
			algorithm: LegacyMD5,
			args:      args{accountID: "42", random1: "aaaa", random2: "bbbb"},
			wantLen:   32,
		},
		{
			name:      "legacy with generated randoms",
			algorithm: LegacyMD5,
			args:      args{accountID: "42"},
			wantLen:   32,
		},
		{
			name:      "hmac with generated randoms",
			algorithm: HMACSHA256,
			args:      args{accountID: "teacher-7"},
			wantLen:   64,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h := New(tt.algorithm, []byte("install-key"))

			got := h.GenerateAPIKey(tt.args.accountID, tt.args.random1, tt.args.random2)
			if len(got) != tt.wantLen {
				t.Errorf("GenerateAPIKey() length = %d, want %d", len(got), tt.wantLen)
			}
		})
	}
}

func TestHasher_GenerateAPIKey_deterministic(t *testing.T) {
	t.Parallel()

	frozen := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	h := New(LegacyMD5, nil)
	h.now = func() time.Time { return frozen }

	first := h.GenerateAPIKey("42", "aaaa", "bbbb")
	second := h.GenerateAPIKey("42", "aaaa", "bbbb")
	if first != second {
		t.Errorf("GenerateAPIKey() not deterministic for fixed inputs: %q != %q", first, second)
	}

	if other := h.GenerateAPIKey("43", "aaaa", "bbbb"); other == first {
		t.Error("GenerateAPIKey() identical for different accounts")
	}
}

func TestSessionID(t *testing.T) {
	t.Parallel()

	got := SessionID("jsmith", "Xy9z", "cookie-secret")
	if !strings.HasPrefix(got, "jsmith|") {
		t.Fatalf("SessionID() = %q, want username prefix", got)
	}
	if len(strings.TrimPrefix(got, "jsmith|")) != 64 {
		t.Errorf("SessionID() digest length = %d, want 64", len(strings.TrimPrefix(got, "jsmith|")))
	}

	// Pure function: same inputs, same output
	if again := SessionID("jsmith", "Xy9z", "cookie-secret"); again != got {
		t.Errorf("SessionID() = %q on second call, want %q", again, got)
	}

	// Changing any one input changes the output
	for _, variant := range []string{
		SessionID("jdoe", "Xy9z", "cookie-secret"),
		SessionID("jsmith", "Ab1c", "cookie-secret"),
		SessionID("jsmith", "Xy9z", "other-secret"),
	} {
		if variant == got {
			t.Errorf("SessionID() collision with changed input: %q", variant)
		}
	}
}

func TestSplitSessionID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		sessionID    string
		wantUsername string
		wantDigest   string
		wantOK       bool
	}{
		{name: "valid", sessionID: "jsmith|abc123", wantUsername: "jsmith", wantDigest: "abc123", wantOK: true},
		{name: "no separator", sessionID: "jsmithabc123"},
		{name: "empty username", sessionID: "|abc123"},
		{name: "empty digest", sessionID: "jsmith|"},
		{name: "empty", sessionID: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			username, digest, ok := SplitSessionID(tt.sessionID)
			if ok != tt.wantOK {
				t.Fatalf("SplitSessionID() ok = %v, want %v", ok, tt.wantOK)
			}
			if username != tt.wantUsername || digest != tt.wantDigest {
				t.Errorf("SplitSessionID() = (%q, %q), want (%q, %q)", username, digest, tt.wantUsername, tt.wantDigest)
			}
		})
	}
}
