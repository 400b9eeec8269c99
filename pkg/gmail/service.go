package gmail

import (
	"context"
	"fmt"

	"sigsync/pkg/googleauth"

	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

// Service sets the primary sendAs signature of a mail account. The update
// is a full overwrite of the signature value, so applying the same
// signature twice leaves the account exactly as one application would.
type Service struct {
	delegator *googleauth.Delegator
}

func NewService(delegator *googleauth.Delegator) *Service {
	return &Service{delegator: delegator}
}

// SetSignature updates the signature of the account's primary send-as
// alias, acting as the account itself (gmail.settings.basic scope).
func (s *Service) SetSignature(ctx context.Context, email, signature string) error {
	client, err := s.delegator.ClientFor(ctx, email)
	if err != nil {
		return err
	}
	srv, err := gmail.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return fmt.Errorf("unable to create gmail service: %w", err)
	}

	sendAs := &gmail.SendAs{
		SendAsEmail: email,
		Signature:   signature,
		IsDefault:   true,
	}
	if _, err := srv.Users.Settings.SendAs.Update(email, email, sendAs).Context(ctx).Do(); err != nil {
		return fmt.Errorf("unable to update signature for %s: %w", email, err)
	}
	return nil
}
