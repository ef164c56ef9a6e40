package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/MicahParks/jwkset"
	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
)

// FirebaseJWKSURL publishes the keys that sign Firebase ID tokens.
const FirebaseJWKSURL = "https://www.googleapis.com/service_accounts/v1/jwk/securetoken@system.gserviceaccount.com"

// JWKSVerifier verifies RS256 JWTs against keys from a JWKS endpoint.
type JWKSVerifier struct {
	keyfunc  jwt.Keyfunc
	issuer   string
	audience string
	log      logrus.FieldLogger
}

var _ Verifier = (*JWKSVerifier)(nil)

// NewJWKSVerifier fetches the key set at jwksURL. keyfunc refreshes it in the
// background until ctx is cancelled.
func NewJWKSVerifier(ctx context.Context, jwksURL, issuer, audience string, log logrus.FieldLogger) (*JWKSVerifier, error) {
	if jwksURL == "" {
		return nil, errors.New("JWKS URL cannot be empty")
	}
	jwks, err := keyfunc.NewDefaultCtx(ctx, []string{jwksURL})
	if err != nil {
		return nil, fmt.Errorf("create JWKS client: %w", err)
	}
	log.WithField("jwks_url", jwksURL).Info("JWKS verifier initialized")
	return NewJWKSVerifierWithKeyfunc(jwks.Keyfunc, issuer, audience, log), nil
}

// NewJWKSVerifierWithKeyfunc builds a verifier around any key lookup.
func NewJWKSVerifierWithKeyfunc(kf jwt.Keyfunc, issuer, audience string, log logrus.FieldLogger) *JWKSVerifier {
	return &JWKSVerifier{
		keyfunc:  tagLookupFailures(kf),
		issuer:   issuer,
		audience: audience,
		log:      log.WithField("component", "jwks_verifier"),
	}
}

// tagLookupFailures marks keyfunc errors that are not about the token itself.
// keyfunc reports header problems and unknown key ids with ErrKeyfunc and
// jwkset.ErrKeyNotFound; anything else means the key source failed.
func tagLookupFailures(kf jwt.Keyfunc) jwt.Keyfunc {
	return func(token *jwt.Token) (any, error) {
		key, err := kf(token)
		if err == nil {
			return key, nil
		}
		if isTransient(err) || (!errors.Is(err, keyfunc.ErrKeyfunc) && !errors.Is(err, jwkset.ErrKeyNotFound)) {
			return nil, fmt.Errorf("%w: %w", errKeySource, err)
		}
		return nil, err
	}
}

type tokenClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
}

// Verify parses and validates credential.
func (v *JWKSVerifier) Verify(ctx context.Context, credential string) (Identity, error) {
	var claims tokenClaims
	_, err := jwt.ParseWithClaims(credential, &claims, v.keyfunc,
		jwt.WithValidMethods([]string{"RS256"}),
		jwt.WithIssuer(v.issuer),
		jwt.WithAudience(v.audience),
		jwt.WithExpirationRequired(),
	)
	if err == nil && claims.Subject == "" {
		err = fmt.Errorf("%w: missing subject claim", jwt.ErrTokenInvalidClaims)
	}
	if err != nil {
		kind := classifyJWTError(err)
		logOutcome(v.log, Identity{}, kind, err)
		return Identity{}, kind
	}

	id := Identity{Subject: claims.Subject, Email: claims.Email}
	logOutcome(v.log, id, nil, nil)
	return id, nil
}

func classifyJWTError(err error) error {
	switch {
	case errors.Is(err, errKeySource):
		return ErrVerification
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrExpiredCredential
	case errors.Is(err, jwt.ErrTokenMalformed),
		errors.Is(err, jwt.ErrTokenSignatureInvalid),
		errors.Is(err, jwt.ErrTokenUnverifiable),
		errors.Is(err, jwt.ErrTokenInvalidClaims),
		errors.Is(err, jwt.ErrTokenNotValidYet),
		errors.Is(err, jwt.ErrTokenRequiredClaimMissing):
		return ErrInvalidCredential
	default:
		return ErrVerification
	}
}
