package middleware

import (
	"errors"
	"net/http"
	"testing"
	"time"
)

func TestAuthHeaderSignerAndVerifier(t *testing.T) {
	now := time.Unix(1700000000, 0)
	signer := NewAuthHeaderSigner(&AuthHeaderSignerConfig{
		Enabled: true,
		Secret:  "secret",
		Issuer:  "gateway",
		NowFunc: func() time.Time { return now },
	})
	claims := &UserClaims{
		UserID:      101,
		AccountID:   7,
		WorkspaceID: 42,
		Email:       "dev@example.com",
	}
	headers, err := signer.BuildHeaders(claims)
	if err != nil {
		t.Fatalf("BuildHeaders error: %v", err)
	}
	if headers.Signature == "" {
		t.Fatalf("signature should not be empty")
	}

	httpHeader := http.Header{}
	WriteAuthHeaders(httpHeader, headers)
	values, err := ParseAuthHeaderValuesFromHeader(httpHeader)
	if err != nil {
		t.Fatalf("ParseAuthHeaderValuesFromHeader error: %v", err)
	}

	verifier := NewAuthHeaderVerifier(&AuthHeaderVerifierConfig{
		Enabled:        true,
		Secret:         "secret",
		AllowedIssuers: []string{"gateway"},
		NowFunc:        func() time.Time { return now.Add(10 * time.Second) },
	}, nil)
	ctx, err := verifier.Verify(values)
	if err != nil {
		t.Fatalf("Verify error: %v", err)
	}
	if ctx.Claims == nil || ctx.Claims.UserID != 101 {
		t.Fatalf("unexpected claims: %+v", ctx.Claims)
	}
	if ctx.Claims.AccountID != 7 || ctx.Claims.WorkspaceID != 42 {
		t.Fatalf("tenant claims lost in round trip: %+v", ctx.Claims)
	}
}

func TestAuthHeaderVerifierInvalidSignature(t *testing.T) {
	now := time.Unix(1700000000, 0)
	signer := NewAuthHeaderSigner(&AuthHeaderSignerConfig{
		Enabled: true,
		Secret:  "secret",
		Issuer:  "gateway",
		NowFunc: func() time.Time { return now },
	})
	headers, err := signer.BuildHeaders(&UserClaims{UserID: 101})
	if err != nil {
		t.Fatalf("BuildHeaders error: %v", err)
	}

	httpHeader := http.Header{}
	WriteAuthHeaders(httpHeader, headers)
	values, err := ParseAuthHeaderValuesFromHeader(httpHeader)
	if err != nil {
		t.Fatalf("ParseAuthHeaderValuesFromHeader error: %v", err)
	}

	verifier := NewAuthHeaderVerifier(&AuthHeaderVerifierConfig{
		Enabled:        true,
		Secret:         "wrong",
		AllowedIssuers: []string{"gateway"},
		NowFunc:        func() time.Time { return now },
	}, nil)
	if _, err := verifier.Verify(values); !errors.Is(err, ErrAuthHeaderInvalidSign) {
		t.Fatalf("expected invalid signature error, got: %v", err)
	}
}

func TestAuthHeaderVerifierExpired(t *testing.T) {
	now := time.Unix(1700000000, 0)
	signer := NewAuthHeaderSigner(&AuthHeaderSignerConfig{
		Enabled: true,
		Secret:  "secret",
		Issuer:  "gateway",
		NowFunc: func() time.Time { return now },
	})
	headers, err := signer.BuildHeaders(&UserClaims{UserID: 101})
	if err != nil {
		t.Fatalf("BuildHeaders error: %v", err)
	}

	httpHeader := http.Header{}
	WriteAuthHeaders(httpHeader, headers)
	values, err := ParseAuthHeaderValuesFromHeader(httpHeader)
	if err != nil {
		t.Fatalf("ParseAuthHeaderValuesFromHeader error: %v", err)
	}

	verifier := NewAuthHeaderVerifier(&AuthHeaderVerifierConfig{
		Enabled:        true,
		Secret:         "secret",
		AllowedIssuers: []string{"gateway"},
		MaxAge:         10 * time.Second,
		NowFunc:        func() time.Time { return now.Add(11 * time.Second) },
	}, nil)
	if _, err := verifier.Verify(values); !errors.Is(err, ErrAuthHeaderExpired) {
		t.Fatalf("expected expired error, got: %v", err)
	}
}

func TestAuthHeaderVerifierRejectsMissingUser(t *testing.T) {
	now := time.Unix(1700000000, 0)
	signer := NewAuthHeaderSigner(&AuthHeaderSignerConfig{
		Enabled: true,
		Secret:  "secret",
		Issuer:  "gateway",
		NowFunc: func() time.Time { return now },
	})
	headers, err := signer.BuildHeaders(nil)
	if err != nil {
		t.Fatalf("BuildHeaders error: %v", err)
	}

	verifier := NewAuthHeaderVerifier(&AuthHeaderVerifierConfig{
		Enabled: true,
		Secret:  "secret",
		NowFunc: func() time.Time { return now },
	}, nil)
	if _, err := verifier.Verify(headers); !errors.Is(err, ErrAuthHeaderMissingUser) {
		t.Fatalf("expected missing user error, got: %v", err)
	}
}

func TestAuthHeaderVerifierIssuerNotAllowed(t *testing.T) {
	now := time.Unix(1700000000, 0)
	signer := NewAuthHeaderSigner(&AuthHeaderSignerConfig{
		Enabled: true,
		Secret:  "secret",
		Issuer:  "unknown",
		NowFunc: func() time.Time { return now },
	})
	headers, err := signer.BuildHeaders(&UserClaims{UserID: 101})
	if err != nil {
		t.Fatalf("BuildHeaders error: %v", err)
	}

	verifier := NewAuthHeaderVerifier(&AuthHeaderVerifierConfig{
		Enabled:        true,
		Secret:         "secret",
		AllowedIssuers: []string{"gateway"},
		NowFunc:        func() time.Time { return now },
	}, nil)
	if _, err := verifier.Verify(headers); !errors.Is(err, ErrAuthHeaderIssuerNotAllowed) {
		t.Fatalf("expected issuer not allowed error, got: %v", err)
	}
}

func TestAuthHeaderPerIssuerSecrets(t *testing.T) {
	now := time.Unix(1700000000, 0)
	signer := NewAuthHeaderSigner(&AuthHeaderSignerConfig{
		Enabled: true,
		Secret:  "gw-secret",
		Issuer:  "gateway",
		NowFunc: func() time.Time { return now },
	})
	headers, err := signer.BuildHeaders(&UserClaims{UserID: 101})
	if err != nil {
		t.Fatalf("BuildHeaders error: %v", err)
	}

	verifier := NewAuthHeaderVerifier(&AuthHeaderVerifierConfig{
		Enabled: true,
		Secrets: map[string]string{"gateway": "gw-secret", "jobs": "jobs-secret"},
		NowFunc: func() time.Time { return now },
	}, nil)
	if _, err := verifier.Verify(headers); err != nil {
		t.Fatalf("per-issuer secret should verify: %v", err)
	}
}
