package service

import (
	"context"
)

// ValidityServiceInterface defines the email verification service interface
type ValidityServiceInterface interface {
	Issue(ctx context.Context, userID string, links Links) (*IssueResult, error)
	Confirm(ctx context.Context, userID, secret string) (*ConfirmResult, error)
	Status(ctx context.Context, userID string) (*Status, error)
}

// ProfileServiceInterface defines the profile service interface
type ProfileServiceInterface interface {
	Get(ctx context.Context, userID string) (*Profile, error)
	Update(ctx context.Context, userID string, input UpdateProfileInput) error
}

var (
	_ ValidityServiceInterface = (*ValidityService)(nil)
	_ ProfileServiceInterface  = (*ProfileService)(nil)
)
