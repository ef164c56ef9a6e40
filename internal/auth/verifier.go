// Package auth verifies bearer credentials issued by an external identity
// provider and carries the resulting Identity through the request context.
package auth

import (
	"context"
	"errors"
	"net"
	"net/url"
	"strings"

	"github.com/sirupsen/logrus"
)

var (
	// ErrExpiredCredential is returned when the credential's validity window has elapsed.
	ErrExpiredCredential = errors.New("credential expired")

	// ErrInvalidCredential is returned when signature, format or claim checks fail.
	ErrInvalidCredential = errors.New("credential invalid")

	// ErrVerification covers every other failure (key fetch, provider outage).
	// Its details are logged, never returned to the client.
	ErrVerification = errors.New("credential verification failed")

	// errKeySource marks a failure to obtain verification keys from the provider.
	errKeySource = errors.New("verification keys unavailable")
)

// Identity is the verified caller. Subject is the user id the provider issued.
type Identity struct {
	Subject string
	Email   string
}

// Verifier turns an opaque bearer credential into a verified Identity.
type Verifier interface {
	Verify(ctx context.Context, credential string) (Identity, error)
}

// isTransient reports whether err came from the network or the request
// context rather than from the credential itself.
func isTransient(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var urlErr *url.Error
	var netErr net.Error
	return errors.As(err, &urlErr) || errors.As(err, &netErr)
}

// isKeyFetchError reports whether a key set error came from fetching the
// provider's keys rather than from a key mismatch.
func isKeyFetchError(err error) bool {
	return isTransient(err) || strings.HasPrefix(err.Error(), "fetching keys")
}

// logOutcome logs a verification result at the level matching its kind.
func logOutcome(log logrus.FieldLogger, id Identity, err error, cause error) {
	switch {
	case err == nil:
		log.WithField("subject", id.Subject).Info("credential verified")
	case errors.Is(err, ErrExpiredCredential):
		log.WithError(cause).Warn("credential expired")
	case errors.Is(err, ErrInvalidCredential):
		log.WithError(cause).Warn("credential rejected")
	default:
		log.WithError(cause).Error("credential verification failed")
	}
}
