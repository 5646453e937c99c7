// Package auth verifies caller identity tokens
package auth

import (
	"context"
	"errors"

	"ask-api/internal/shared"

	firebase "firebase.google.com/go/v4"
	fbauth "firebase.google.com/go/v4/auth"
)

// Verifier turns an id token into a stable user id. Failures are
// shared.ErrUnauthenticated carrying the provider's reason.
type Verifier interface {
	Verify(ctx context.Context, token string) (string, error)
}

type tokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*fbauth.Token, error)
}

type FirebaseVerifier struct {
	client tokenVerifier
}

func NewFirebaseVerifier(ctx context.Context, app *firebase.App) (*FirebaseVerifier, error) {
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, err
	}
	return &FirebaseVerifier{client: client}, nil
}

func (f *FirebaseVerifier) Verify(ctx context.Context, token string) (string, error) {
	decoded, err := f.client.VerifyIDToken(ctx, token)
	if err != nil {
		return "", shared.ErrUnauthenticated.WithCause(err)
	}
	if decoded.UID == "" {
		return "", shared.ErrUnauthenticated.WithCause(errors.New("token has no uid"))
	}
	return decoded.UID, nil
}
