package auth

import (
	"context"
	"errors"
	"fmt"

	gooidc "github.com/coreos/go-oidc/v3/oidc"
	"github.com/sirupsen/logrus"
)

// OIDCVerifier verifies ID tokens with go-oidc. For Firebase the issuer is
// https://securetoken.google.com/<project> and the audience is the project id.
type OIDCVerifier struct {
	verifier *gooidc.IDTokenVerifier
	log      logrus.FieldLogger
}

var _ Verifier = (*OIDCVerifier)(nil)

type providerMetadata struct {
	JWKSURL    string   `json:"jwks_uri"`
	SigningAlg []string `json:"id_token_signing_alg_values_supported"`
}

// NewOIDCVerifier performs OIDC discovery against issuer and returns a
// verifier that checks tokens were issued for audience.
func NewOIDCVerifier(ctx context.Context, issuer, audience string, log logrus.FieldLogger) (*OIDCVerifier, error) {
	provider, err := gooidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("OIDC provider discovery failed for %s: %w", issuer, err)
	}
	var meta providerMetadata
	if err := provider.Claims(&meta); err != nil {
		return nil, fmt.Errorf("read OIDC provider metadata: %w", err)
	}
	if meta.JWKSURL == "" {
		return nil, fmt.Errorf("OIDC provider %s publishes no jwks_uri", issuer)
	}
	log.WithFields(logrus.Fields{"issuer": issuer, "jwks_url": meta.JWKSURL}).Info("OIDC verifier initialized")

	keys := fetchTrackingKeySet{keys: gooidc.NewRemoteKeySet(ctx, meta.JWKSURL)}
	return &OIDCVerifier{
		verifier: gooidc.NewVerifier(issuer, keys, &gooidc.Config{ClientID: audience, SupportedSigningAlgs: meta.SigningAlg}),
		log:      log.WithField("component", "oidc_verifier"),
	}, nil
}

// NewOIDCVerifierWithKeySet builds a verifier without discovery, trusting keys.
func NewOIDCVerifierWithKeySet(issuer, audience string, keys gooidc.KeySet, log logrus.FieldLogger) *OIDCVerifier {
	return &OIDCVerifier{
		verifier: gooidc.NewVerifier(issuer, fetchTrackingKeySet{keys: keys}, &gooidc.Config{ClientID: audience}),
		log:      log.WithField("component", "oidc_verifier"),
	}
}

type keyFetchSlot struct{}

// fetchTrackingKeySet records key fetch failures in the request context.
// go-oidc flattens key set errors to text before returning them.
type fetchTrackingKeySet struct {
	keys gooidc.KeySet
}

func (k fetchTrackingKeySet) VerifySignature(ctx context.Context, jwt string) ([]byte, error) {
	payload, err := k.keys.VerifySignature(ctx, jwt)
	if err != nil && isKeyFetchError(err) {
		if slot, ok := ctx.Value(keyFetchSlot{}).(*error); ok {
			*slot = fmt.Errorf("%w: %w", errKeySource, err)
		}
	}
	return payload, err
}

type idTokenClaims struct {
	Email string `json:"email"`
}

// Verify checks signature, issuer, audience and expiry of an ID token.
func (v *OIDCVerifier) Verify(ctx context.Context, credential string) (Identity, error) {
	var fetchErr error
	token, err := v.verifier.Verify(context.WithValue(ctx, keyFetchSlot{}, &fetchErr), credential)
	if err != nil {
		if fetchErr != nil {
			err = fetchErr
		}
		kind := classifyOIDCError(err)
		logOutcome(v.log, Identity{}, kind, err)
		return Identity{}, kind
	}

	var claims idTokenClaims
	if err := token.Claims(&claims); err != nil {
		logOutcome(v.log, Identity{}, ErrInvalidCredential, err)
		return Identity{}, ErrInvalidCredential
	}
	if token.Subject == "" {
		logOutcome(v.log, Identity{}, ErrInvalidCredential, errors.New("missing subject claim"))
		return Identity{}, ErrInvalidCredential
	}

	id := Identity{Subject: token.Subject, Email: claims.Email}
	logOutcome(v.log, id, nil, nil)
	return id, nil
}

func classifyOIDCError(err error) error {
	var expired *gooidc.TokenExpiredError
	switch {
	case errors.As(err, &expired):
		return ErrExpiredCredential
	case errors.Is(err, errKeySource), isTransient(err):
		return ErrVerification
	default:
		return ErrInvalidCredential
	}
}
