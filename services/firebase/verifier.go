package firebasesvc

import (
	"context"
	"strings"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"github.com/pkg/errors"
	"google.golang.org/api/option"

	"github.com/orbitaplataforma/orbita/core"
)

// Identity is what a verified Firebase ID token tells about its bearer.
type Identity struct {
	UID           string
	Email         string
	EmailVerified bool
	Name          string
}

type Verifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (Identity, error)
}

type verifier struct {
	client *auth.Client
}

var _ Verifier = (*verifier)(nil)

// NewVerifier initializes the Firebase Admin SDK from the configured service account file,
// or from the application default credentials when only the project ID is set.
func NewVerifier(ctx context.Context, conf *core.Config) (Verifier, error) {
	var opts []option.ClientOption
	if conf.Firebase.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(conf.Firebase.CredentialsFile))
	}

	var fbConf *firebase.Config
	if conf.Firebase.ProjectID != "" {
		fbConf = &firebase.Config{ProjectID: conf.Firebase.ProjectID}
	}

	app, err := firebase.NewApp(ctx, fbConf, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "initializing firebase app")
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "initializing firebase auth client")
	}
	return &verifier{client: client}, nil
}

func (v *verifier) VerifyIDToken(ctx context.Context, idToken string) (Identity, error) {
	token, err := v.client.VerifyIDToken(ctx, idToken)
	if err != nil {
		return Identity{}, errors.Wrap(err, "verifying firebase ID token")
	}
	return identityFromToken(token), nil
}

func identityFromToken(token *auth.Token) Identity {
	id := Identity{UID: token.UID}
	if email, ok := token.Claims["email"].(string); ok {
		id.Email = strings.ToLower(strings.TrimSpace(email))
	}
	if verified, ok := token.Claims["email_verified"].(bool); ok {
		id.EmailVerified = verified
	}
	if name, ok := token.Claims["name"].(string); ok {
		id.Name = name
	}
	return id
}
