package handlers

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/n1rocket/go-profile-validity/internal/domain"
	apperrors "github.com/n1rocket/go-profile-validity/internal/errors"
	httpcontext "github.com/n1rocket/go-profile-validity/internal/http/context"
	"github.com/n1rocket/go-profile-validity/internal/http/response"
	"github.com/n1rocket/go-profile-validity/internal/service"
	"github.com/n1rocket/go-profile-validity/internal/session"
)

// ValidityResponse is the verification status of the caller's email
type ValidityResponse struct {
	Status      bool   `json:"status"`
	EmailSent   bool   `json:"email_sent"`
	Description string `json:"description"`
	Ref         string `json:"$ref"`
	VerifyRef   string `json:"verify_ref"`
}

// ConfirmResponse acknowledges a confirmation when no redirect is configured
type ConfirmResponse struct {
	Success bool          `json:"success"`
	Notice  domain.Notice `json:"notice"`
}

// ValidityHandler serves the email validity resource
type ValidityHandler struct {
	validity service.ValidityServiceInterface
	sessions session.Store
	cookies  session.Cookies
	paths    Paths
	logger   *slog.Logger
}

// NewValidityHandler creates a new validity handler
func NewValidityHandler(
	validity service.ValidityServiceInterface,
	sessions session.Store,
	cookies session.Cookies,
	paths Paths,
	logger *slog.Logger,
) *ValidityHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ValidityHandler{
		validity: validity,
		sessions: sessions,
		cookies:  cookies,
		paths:    paths,
		logger:   logger,
	}
}

// Status handles GET on the validity resource
func (h *ValidityHandler) Status(w http.ResponseWriter, r *http.Request) {
	userID, ok := httpcontext.UserID(r.Context())
	if !ok {
		response.WriteError(w, apperrors.ErrUnauthorized)
		return
	}

	st, err := h.validity.Status(r.Context(), userID)
	if err != nil {
		response.WriteError(w, err)
		return
	}

	ref := h.paths.ValidityRef(r)
	response.NewBuilder(w).NoStore().Location(ref).JSON(ValidityResponse{
		Status:      st.Verified,
		EmailSent:   st.Pending,
		Description: st.Description,
		Ref:         ref,
		VerifyRef:   h.paths.VerifyRef(r),
	})
}

// Issue handles POST on the validity resource: a new secret is issued and
// the caller is sent back to the validity resource
func (h *ValidityHandler) Issue(w http.ResponseWriter, r *http.Request) {
	userID, ok := httpcontext.UserID(r.Context())
	if !ok {
		response.WriteError(w, apperrors.ErrUnauthorized)
		return
	}

	_, err := h.validity.Issue(r.Context(), userID, service.Links{
		VerifyRef: h.paths.VerifyRef(r),
		SiteURL:   h.paths.SiteRef(r),
	})
	if err != nil {
		response.WriteError(w, err)
		return
	}

	response.SeeOther(w, r, h.paths.ValidityRef(r))
}

// Confirm handles GET on a verification link
func (h *ValidityHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	userID, ok := httpcontext.UserID(r.Context())
	if !ok {
		response.WriteError(w, apperrors.ErrUnauthorized)
		return
	}

	// The secret is matched exactly as supplied
	secret := mux.Vars(r)["uuid"]
	if _, err := uuid.Parse(secret); err != nil {
		response.WriteError(w, apperrors.ErrInvalidSecret)
		return
	}

	result, err := h.validity.Confirm(r.Context(), userID, secret)
	if err != nil {
		response.WriteError(w, err)
		return
	}

	sid := h.cookies.Ensure(w, r)
	if _, err := h.sessions.Append(r.Context(), sid, result.Notice); err != nil {
		h.logger.Error("failed to record session notice",
			"request_id", httpcontext.RequestID(r.Context()),
			"user_id", userID,
			"error", err,
		)
	}

	if h.paths.ConfirmRedirect == "" {
		response.NewBuilder(w).NoStore().JSON(ConfirmResponse{
			Success: result.Verified,
			Notice:  result.Notice,
		})
		return
	}
	response.SeeOther(w, r, h.paths.ConfirmRedirect)
}
