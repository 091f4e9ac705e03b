package controllers

import (
	"net/http"

	"github.com/sakthi-t/bookscart/api/responses"
	"github.com/sakthi-t/bookscart/api/validators"
	"github.com/sakthi-t/bookscart/internal/assistant"
	"github.com/sakthi-t/bookscart/pkg/logger"
)

// AssistantChat relays one message to the assistant. The conversation is scoped
// to the caller's login session.
func AssistantChat(svc assistant.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("assistant service"))
			return
		}
		caller, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		message, _, err := validators.FormOrJSONField(r, "message")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		reply, err := svc.Chat(r.Context(), assistant.Actor{UserID: caller.UserID, Role: caller.Role}, caller.SessionID, validators.SanitizeString(message, validators.MaxChatMessageLen))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, reply)
	}
}
