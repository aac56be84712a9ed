package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/n1rocket/go-profile-validity/internal/domain"
	"github.com/n1rocket/go-profile-validity/internal/email"
	apperrors "github.com/n1rocket/go-profile-validity/internal/errors"
	"github.com/n1rocket/go-profile-validity/internal/metrics"
	"github.com/n1rocket/go-profile-validity/internal/repository"
	"github.com/n1rocket/go-profile-validity/internal/security"
)

// SecretHasher hashes verification secrets and checks them against stored hashes
type SecretHasher interface {
	Hash(secret string) (string, error)
	Matches(secret, stored string) bool
}

// Dispatcher queues a message for background delivery
type Dispatcher interface {
	Enqueue(e email.Email) error
}

// Recorder receives verification events for instrumentation
type Recorder interface {
	VerificationIssued()
	ConfirmOutcome(outcome string)
	ObserveEmail(outcome string)
}

type nopRecorder struct{}

func (nopRecorder) VerificationIssued()   {}
func (nopRecorder) ConfirmOutcome(string) {}
func (nopRecorder) ObserveEmail(string)   {}

// Links are the absolute references of the current request
type Links struct {
	// VerifyRef is the confirm endpoint base; the secret is appended as the last segment
	VerifyRef string
	// SiteURL is used when no site URL is configured
	SiteURL string
}

// IssueResult describes a completed issuance
type IssueResult struct {
	UserID string
	// Suppressed is set when the address is deny-listed and nothing was sent
	Suppressed bool
	// Queued is set when the message was handed to the dispatcher
	Queued bool
}

// ConfirmResult carries the session notice for a matched secret
type ConfirmResult struct {
	Verified bool
	Notice   domain.Notice
}

// Status is the verification state of a user
type Status struct {
	Verified    bool
	Pending     bool
	Description string
}

// ValidityService issues and confirms email verification secrets
type ValidityService struct {
	users    repository.UserRepository
	uow      repository.UnitOfWork
	secrets  security.SecretGenerator
	hasher   SecretHasher
	mailer   Dispatcher
	opts     *ValidityOptions
	recorder Recorder
	logger   *slog.Logger
}

// NewValidityService creates a new validity service
func NewValidityService(
	users repository.UserRepository,
	uow repository.UnitOfWork,
	secrets security.SecretGenerator,
	hasher SecretHasher,
	mailer Dispatcher,
	opts *ValidityOptions,
	logger *slog.Logger,
) *ValidityService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ValidityService{
		users:    users,
		uow:      uow,
		secrets:  secrets,
		hasher:   hasher,
		mailer:   mailer,
		opts:     opts,
		recorder: nopRecorder{},
		logger:   logger,
	}
}

// SetRecorder installs r as the event recorder
func (s *ValidityService) SetRecorder(r Recorder) {
	if r == nil {
		r = nopRecorder{}
	}
	s.recorder = r
}

// Issue generates a new secret for the user, stores its hash and queues the
// verification email. Issuance is complete once the hash is stored; delivery
// problems are logged and never returned.
func (s *ValidityService) Issue(ctx context.Context, userID string, links Links) (*IssueResult, error) {
	user, err := s.lookup(ctx, userID)
	if err != nil {
		return nil, err
	}

	secret := s.secrets.Generate()
	hash, err := s.hasher.Hash(secret)
	if err != nil {
		return nil, fmt.Errorf("failed to hash verification secret: %w", err)
	}

	if err := s.users.SetEmailValidationHash(ctx, user.ID, hash); err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to store verification hash: %w", err)
	}
	s.recorder.VerificationIssued()

	siteURL := s.opts.SiteURL()
	if siteURL == "" {
		siteURL = links.SiteURL
	}

	msg := s.opts.Template().Render(email.Params{
		email.ParamName:       user.DisplayName(),
		email.ParamEmail:      user.Email,
		email.ParamSecretUUID: secret,
		email.ParamSecretURL:  strings.TrimRight(links.VerifyRef, "/") + "/" + secret,
		email.ParamSiteURL:    siteURL,
	})

	result := &IssueResult{UserID: user.ID}

	if s.opts.Suppressed(user.Email) {
		s.logger.Info("verification email suppressed",
			"user_id", user.ID,
			"domain", user.EmailDomain(),
		)
		s.recorder.ObserveEmail(metrics.EmailSuppressed)
		result.Suppressed = true
		return result, nil
	}

	err = s.mailer.Enqueue(email.Email{
		From:    s.opts.From(),
		To:      user.Email,
		Subject: msg.Subject,
		Body:    msg.Body,
	})
	if err != nil {
		s.logger.Error("failed to queue verification email",
			"error", err,
			"user_id", user.ID,
		)
		return result, nil
	}

	s.logger.Info("verification email queued", "user_id", user.ID)
	result.Queued = true
	return result, nil
}

// Confirm checks secret against the user's outstanding verification.
// An unknown user, no outstanding verification and a wrong secret all
// return ErrForbidden. A matched secret whose update cannot be saved is
// reported through the result's notice, not as an error.
func (s *ValidityService) Confirm(ctx context.Context, userID, secret string) (*ConfirmResult, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, apperrors.ErrForbidden
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if !user.ValidationPending() || !s.hasher.Matches(secret, user.EmailValidationHash) {
		s.recorder.ConfirmOutcome(metrics.ConfirmMismatch)
		return nil, apperrors.ErrForbidden
	}

	err = s.uow.Within(ctx, func(repo repository.UserRepository) error {
		return repo.MarkEmailValid(ctx, user.ID)
	})
	if err != nil {
		s.logger.Error("failed to mark email valid",
			"error", err,
			"user_id", user.ID,
		)
		s.recorder.ConfirmOutcome(metrics.ConfirmPersistFailed)
		return &ConfirmResult{
			Notice: domain.Notice{Type: domain.NoticeError, Message: s.opts.FailMessage()},
		}, nil
	}

	s.logger.Info("email address verified", "user_id", user.ID)
	s.recorder.ConfirmOutcome(metrics.ConfirmVerified)
	return &ConfirmResult{
		Verified: true,
		Notice:   domain.Notice{Type: domain.NoticeInfo, Message: s.opts.SuccessMessage()},
	}, nil
}

// Status returns the user's verification state
func (s *ValidityService) Status(ctx context.Context, userID string) (*Status, error) {
	user, err := s.lookup(ctx, userID)
	if err != nil {
		return nil, err
	}
	return statusOf(user), nil
}

func statusOf(u *domain.User) *Status {
	st := &Status{Verified: u.EmailValid, Pending: u.ValidationPending()}
	switch {
	case st.Verified:
		st.Description = "Your email address has been verified."
	case st.Pending:
		st.Description = "A verification email has been sent. Follow the link in it to verify your address."
	default:
		st.Description = "Your email address has not been verified."
	}
	return st
}

func (s *ValidityService) lookup(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}
