package handlers

import (
	"net/http"

	"github.com/n1rocket/go-profile-validity/internal/http/response"
	"github.com/n1rocket/go-profile-validity/internal/session"
)

// MessagesResponse lists the notices drained from the session
type MessagesResponse struct {
	Messages []session.Message `json:"messages"`
}

// MessagesHandler hands out session notices once
type MessagesHandler struct {
	sessions session.Store
	cookies  session.Cookies
}

// NewMessagesHandler creates a new messages handler
func NewMessagesHandler(sessions session.Store, cookies session.Cookies) *MessagesHandler {
	return &MessagesHandler{sessions: sessions, cookies: cookies}
}

// Drain returns and clears the notices of the caller's session
func (h *MessagesHandler) Drain(w http.ResponseWriter, r *http.Request) {
	resp := MessagesResponse{Messages: []session.Message{}}

	if sid, ok := h.cookies.Get(r); ok {
		msgs, err := h.sessions.Drain(r.Context(), sid)
		if err != nil {
			response.WriteError(w, err)
			return
		}
		resp.Messages = msgs
	}

	response.NewBuilder(w).NoStore().JSON(resp)
}
