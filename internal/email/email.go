package email

import (
	"context"
	"fmt"
	"strings"
)

// Email represents an outgoing email message
type Email struct {
	From     string
	To       string
	Subject  string
	Body     string
	HTMLBody string
}

// Service defines the email service interface
type Service interface {
	Send(ctx context.Context, email Email) error
}

// Validate checks that the message can be handed to a transport
func (e Email) Validate() error {
	if !strings.Contains(e.To, "@") {
		return fmt.Errorf("invalid recipient address: %q", e.To)
	}
	if e.Subject == "" && e.Body == "" {
		return fmt.Errorf("email to %s has neither subject nor body", e.To)
	}
	return nil
}
