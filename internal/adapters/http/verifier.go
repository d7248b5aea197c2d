package httpapi

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
)

// firebaseVerifier validates Firebase ID tokens issued to the web client.
type firebaseVerifier struct {
	auth *auth.Client
}

// NewFirebaseVerifier initializes the Firebase Admin SDK for the given
// project and returns a TokenVerifier backed by it.
func NewFirebaseVerifier(ctx context.Context, projectID string) (TokenVerifier, error) {
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID})
	if err != nil {
		return nil, fmt.Errorf("initializing firebase app: %w", err)
	}

	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("initializing firebase auth client: %w", err)
	}

	return &firebaseVerifier{auth: client}, nil
}

func (v *firebaseVerifier) VerifyToken(ctx context.Context, idToken string) (string, error) {
	token, err := v.auth.VerifyIDToken(ctx, idToken)
	if err != nil {
		return "", fmt.Errorf("verifying id token: %w", err)
	}
	return token.UID, nil
}
