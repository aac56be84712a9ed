package handlers

import (
	"net/http"
	"time"

	apperrors "github.com/n1rocket/go-profile-validity/internal/errors"
	httpcontext "github.com/n1rocket/go-profile-validity/internal/http/context"
	"github.com/n1rocket/go-profile-validity/internal/http/request"
	"github.com/n1rocket/go-profile-validity/internal/http/response"
	"github.com/n1rocket/go-profile-validity/internal/service"
)

// ProfileHandler handles the caller's own profile
type ProfileHandler struct {
	profiles service.ProfileServiceInterface
	paths    Paths
	decoder  *request.Decoder
}

// NewProfileHandler creates a new profile handler
func NewProfileHandler(profiles service.ProfileServiceInterface, paths Paths) *ProfileHandler {
	return &ProfileHandler{
		profiles: profiles,
		paths:    paths,
		decoder:  request.NewDecoder(),
	}
}

// ProfileResponse is the sanitized profile
type ProfileResponse struct {
	ID       string          `json:"$id"`
	Ref      string          `json:"$ref"`
	Created  time.Time       `json:"$created"`
	Email    string          `json:"email"`
	Name     *string         `json:"name"`
	Validity ProfileValidity `json:"validity"`
}

// ProfileValidity is the validity block embedded in a profile
type ProfileValidity struct {
	Status    bool   `json:"status"`
	EmailSent bool   `json:"email_sent"`
	Ref       string `json:"$ref"`
}

// Get handles GET on the profile resource
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := httpcontext.UserID(r.Context())
	if !ok {
		response.WriteError(w, apperrors.ErrUnauthorized)
		return
	}

	p, err := h.profiles.Get(r.Context(), userID)
	if err != nil {
		response.WriteError(w, err)
		return
	}

	ref := h.paths.ProfileRef(r)
	response.NewBuilder(w).NoStore().Location(ref).JSON(ProfileResponse{
		ID:      p.ID,
		Ref:     ref,
		Created: p.CreatedAt,
		Email:   p.Email,
		Name:    p.Name,
		Validity: ProfileValidity{
			Status:    p.Validity.Verified,
			EmailSent: p.Validity.Pending,
			Ref:       h.paths.ValidityRef(r),
		},
	})
}

// Update handles POST on the profile resource
func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := httpcontext.UserID(r.Context())
	if !ok {
		response.WriteError(w, apperrors.ErrUnauthorized)
		return
	}

	var req request.UpdateProfileRequest
	if err := h.decoder.DecodeAndValidate(w, r, &req); err != nil {
		response.WriteError(w, err)
		return
	}

	err := h.profiles.Update(r.Context(), userID, service.UpdateProfileInput{
		Password:  req.Password,
		Password2: req.Password2,
		Name:      req.Name,
	})
	if err != nil {
		response.WriteError(w, err)
		return
	}

	response.SeeOther(w, r, h.paths.ProfileRef(r))
}
