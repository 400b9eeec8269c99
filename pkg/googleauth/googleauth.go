package googleauth

import (
	"context"
	"fmt"
	"net/http"

	"golang.org/x/oauth2/google"
)

// Delegator builds per-user HTTP clients from a domain-wide-delegation
// service account key. The key bytes never change after construction.
type Delegator struct {
	keyJSON []byte
	scopes  []string
}

func NewDelegator(keyJSON []byte, scopes []string) *Delegator {
	return &Delegator{keyJSON: keyJSON, scopes: scopes}
}

// ClientFor returns an HTTP client whose requests act as the given user.
func (d *Delegator) ClientFor(ctx context.Context, userEmail string) (*http.Client, error) {
	cfg, err := google.JWTConfigFromJSON(d.keyJSON, d.scopes...)
	if err != nil {
		return nil, fmt.Errorf("unable to parse service account key: %w", err)
	}
	cfg.Subject = userEmail
	return cfg.Client(ctx), nil
}
