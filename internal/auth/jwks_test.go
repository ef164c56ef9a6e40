package auth_test

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/MicahParks/jwkset"
	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/linkshelf/linkshelf/internal/auth"
)

const (
	testIssuer   = "https://securetoken.google.com/linkshelf-test"
	testAudience = "linkshelf-test"
)

func newKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	return key
}

func validClaims() jwt.MapClaims {
	now := time.Now()
	return jwt.MapClaims{
		"iss":   testIssuer,
		"aud":   testAudience,
		"sub":   "u1",
		"email": "u1@example.com",
		"iat":   now.Add(-time.Minute).Unix(),
		"exp":   now.Add(time.Hour).Unix(),
	}
}

func sign(t *testing.T, key *rsa.PrivateKey, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(key)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return s
}

func newJWKSVerifier(t *testing.T, key *rsa.PrivateKey) (*auth.JWKSVerifier, *test.Hook) {
	t.Helper()
	log, hook := test.NewNullLogger()
	kf := func(*jwt.Token) (any, error) { return &key.PublicKey, nil }
	return auth.NewJWKSVerifierWithKeyfunc(kf, testIssuer, testAudience, log), hook
}

func TestJWKSVerifier_Valid(t *testing.T) {
	key := newKey(t)
	v, hook := newJWKSVerifier(t, key)

	id, err := v.Verify(context.Background(), sign(t, key, validClaims()))
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if id.Subject != "u1" || id.Email != "u1@example.com" {
		t.Errorf("identity = %+v", id)
	}
	if e := hook.LastEntry(); e == nil || e.Level != logrus.InfoLevel {
		t.Errorf("expected info log entry, got %+v", e)
	}
}

func TestJWKSVerifier_Rejections(t *testing.T) {
	key := newKey(t)
	other := newKey(t)

	tests := []struct {
		name  string
		token func() string
		want  error
		level logrus.Level
	}{
		{
			name: "expired",
			token: func() string {
				c := validClaims()
				c["exp"] = time.Now().Add(-time.Minute).Unix()
				return sign(t, key, c)
			},
			want:  auth.ErrExpiredCredential,
			level: logrus.WarnLevel,
		},
		{
			name:  "wrong signing key",
			token: func() string { return sign(t, other, validClaims()) },
			want:  auth.ErrInvalidCredential,
			level: logrus.WarnLevel,
		},
		{
			name: "wrong issuer",
			token: func() string {
				c := validClaims()
				c["iss"] = "https://evil.example.com"
				return sign(t, key, c)
			},
			want:  auth.ErrInvalidCredential,
			level: logrus.WarnLevel,
		},
		{
			name: "wrong audience",
			token: func() string {
				c := validClaims()
				c["aud"] = "someone-else"
				return sign(t, key, c)
			},
			want:  auth.ErrInvalidCredential,
			level: logrus.WarnLevel,
		},
		{
			name: "missing subject",
			token: func() string {
				c := validClaims()
				delete(c, "sub")
				return sign(t, key, c)
			},
			want:  auth.ErrInvalidCredential,
			level: logrus.WarnLevel,
		},
		{
			name: "hmac algorithm",
			token: func() string {
				s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, validClaims()).SignedString([]byte("secret"))
				if err != nil {
					t.Fatalf("sign: %v", err)
				}
				return s
			},
			want:  auth.ErrInvalidCredential,
			level: logrus.WarnLevel,
		},
		{
			name:  "garbage",
			token: func() string { return "not-a-jwt" },
			want:  auth.ErrInvalidCredential,
			level: logrus.WarnLevel,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, hook := newJWKSVerifier(t, key)
			_, err := v.Verify(context.Background(), tt.token())
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
			if e := hook.LastEntry(); e == nil || e.Level != tt.level {
				t.Errorf("expected %s log entry, got %+v", tt.level, e)
			}
		})
	}
}

func TestNewJWKSVerifier_EmptyURL(t *testing.T) {
	log, _ := test.NewNullLogger()
	if _, err := auth.NewJWKSVerifier(context.Background(), "", testIssuer, testAudience, log); err == nil {
		t.Fatal("expected error for empty JWKS URL")
	}
}

func TestJWKSVerifier_KeyLookupFailures(t *testing.T) {
	key := newKey(t)

	tests := []struct {
		name  string
		err   error
		want  error
		level logrus.Level
	}{
		{"key source down", errors.New("dial tcp 127.0.0.1:443: connect: connection refused"), auth.ErrVerification, logrus.ErrorLevel},
		{"lookup timeout", fmt.Errorf("refresh keys: %w", context.DeadlineExceeded), auth.ErrVerification, logrus.ErrorLevel},
		{"unknown key id", fmt.Errorf("%w: could not read JWK from storage", errors.Join(jwkset.ErrKeyNotFound, keyfunc.ErrKeyfunc)), auth.ErrInvalidCredential, logrus.WarnLevel},
		{"bad header", fmt.Errorf("%w: could not find alg in JWT header", keyfunc.ErrKeyfunc), auth.ErrInvalidCredential, logrus.WarnLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log, hook := test.NewNullLogger()
			kf := func(*jwt.Token) (any, error) { return nil, tt.err }
			v := auth.NewJWKSVerifierWithKeyfunc(kf, testIssuer, testAudience, log)

			_, err := v.Verify(context.Background(), sign(t, key, validClaims()))
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
			if e := hook.LastEntry(); e == nil || e.Level != tt.level {
				t.Errorf("expected %s log entry, got %+v", tt.level, e)
			}
		})
	}
}
