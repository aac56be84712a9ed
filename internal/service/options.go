package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/n1rocket/go-profile-validity/internal/email"
)

var (
	// ErrMissingFromAddress is returned when no sender address is configured
	ErrMissingFromAddress = errors.New("validity: from address is required")
	// ErrMissingSubject is returned when the verification template has no subject
	ErrMissingSubject = errors.New("validity: template subject is required")
	// ErrMissingNoticeText is returned when a success or fail message is empty
	ErrMissingNoticeText = errors.New("validity: success and fail messages are required")
)

// ValidityOptionsInput carries the raw settings for NewValidityOptions
type ValidityOptionsInput struct {
	FromAddress       string
	FromName          string
	SiteURL           string
	Template          email.Template
	SuccessMessage    string
	FailMessage       string
	SuppressedDomains []string
}

// ValidityOptions is the validated, immutable configuration of the validity flow
type ValidityOptions struct {
	from           string
	siteURL        string
	template       email.Template
	successMessage string
	failMessage    string
	suppressed     map[string]struct{}
}

// NewValidityOptions validates in and freezes it.
// An empty template body falls back to email.DefaultValidityTemplate.
func NewValidityOptions(in ValidityOptionsInput) (*ValidityOptions, error) {
	if strings.TrimSpace(in.FromAddress) == "" {
		return nil, ErrMissingFromAddress
	}
	from := email.FormatAddress(strings.TrimSpace(in.FromAddress), in.FromName)
	if err := email.ValidateAddress(from); err != nil {
		return nil, fmt.Errorf("validity: %w", err)
	}

	tmpl := in.Template
	if len(tmpl.Body) == 0 {
		if tmpl.Subject == "" {
			tmpl.Subject = email.DefaultValidityTemplate.Subject
		}
		tmpl.Body = email.DefaultValidityTemplate.Body
	}
	if strings.TrimSpace(tmpl.Subject) == "" {
		return nil, ErrMissingSubject
	}
	tmpl.Body = append([]string(nil), tmpl.Body...)

	if in.SuccessMessage == "" || in.FailMessage == "" {
		return nil, ErrMissingNoticeText
	}

	suppressed := make(map[string]struct{}, len(in.SuppressedDomains))
	for _, d := range in.SuppressedDomains {
		d = strings.ToLower(strings.TrimSpace(d))
		if d == "" {
			continue
		}
		suppressed[d] = struct{}{}
	}

	return &ValidityOptions{
		from:           from,
		siteURL:        strings.TrimSpace(in.SiteURL),
		template:       tmpl,
		successMessage: in.SuccessMessage,
		failMessage:    in.FailMessage,
		suppressed:     suppressed,
	}, nil
}

// From returns the formatted sender address
func (o *ValidityOptions) From() string { return o.from }

// SiteURL returns the configured site root, which may be empty
func (o *ValidityOptions) SiteURL() string { return o.siteURL }

// Template returns the verification message template
func (o *ValidityOptions) Template() email.Template {
	t := o.template
	t.Body = append([]string(nil), o.template.Body...)
	return t
}

// SuccessMessage is the notice text recorded after a successful confirmation
func (o *ValidityOptions) SuccessMessage() string { return o.successMessage }

// FailMessage is the notice text recorded when a confirmation cannot be saved
func (o *ValidityOptions) FailMessage() string { return o.failMessage }

// Suppressed reports whether mail to address must not be sent.
// The domain part is compared case-insensitively against the deny-list.
func (o *ValidityOptions) Suppressed(address string) bool {
	i := strings.LastIndex(address, "@")
	if i < 0 {
		return false
	}
	_, ok := o.suppressed[strings.ToLower(address[i+1:])]
	return ok
}
