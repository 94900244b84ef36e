package httpserver

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"driftchat/internal/domain"
	"driftchat/internal/service"
	"driftchat/internal/ws"
)

type conversationCreateRequest struct {
	Type         string   `json:"type"`
	Name         *string  `json:"name"`
	Participants []string `json:"participants"`
}

func handleCreateConversation(convSvc *service.ConversationService, hub *ws.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		currentUser := CurrentUser(r)
		if currentUser == nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}
		var req conversationCreateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
			return
		}

		conv, err := convSvc.Create(r.Context(), service.ConversationCreateInput{
			Type:         domain.ConversationType(req.Type),
			Name:         req.Name,
			Participants: req.Participants,
			CreatorID:    currentUser.ID,
		})
		if err != nil {
			writeError(w, err)
			return
		}

		hub.BroadcastToUsers(conv.InvitedUsers, ws.Event{
			Type:    "group_invite",
			Payload: conv,
		})
		writeJSON(w, http.StatusCreated, conv)
	}
}

type directConversationRequest struct {
	UserID string `json:"user_id"`
}

// handleGetOrCreateDirect is the idempotent "start chat" endpoint: it
// returns the one direct conversation between the caller and the given
// user, creating it on first use.
func handleGetOrCreateDirect(convSvc *service.ConversationService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		currentUser := CurrentUser(r)
		if currentUser == nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}
		var req directConversationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
			return
		}

		conv, err := convSvc.GetOrCreateDirect(r.Context(), currentUser.ID, req.UserID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, conv)
	}
}

func handleListConversations(convSvc *service.ConversationService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		currentUser := CurrentUser(r)
		if currentUser == nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}
		convs, err := convSvc.ListForUser(r.Context(), currentUser.ID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, convs)
	}
}

func handleSearchConversations(convSvc *service.ConversationService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		currentUser := CurrentUser(r)
		if currentUser == nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}
		convs, err := convSvc.SearchConversations(r.Context(), currentUser.ID, r.URL.Query().Get("q"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, convs)
	}
}

func handleGetConversation(convSvc *service.ConversationService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		currentUser := CurrentUser(r)
		if currentUser == nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}
		convID := chi.URLParam(r, "conversationID")
		conv, err := convSvc.Get(r.Context(), convID, currentUser.ID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, conv)
	}
}

type participantRequest struct {
	UserID string `json:"user_id"`
}

func handleAddParticipant(convSvc *service.ConversationService, hub *ws.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		currentUser := CurrentUser(r)
		if currentUser == nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}
		convID := chi.URLParam(r, "conversationID")
		var req participantRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
			return
		}

		if _, err := convSvc.Get(r.Context(), convID, currentUser.ID); err != nil {
			writeError(w, err)
			return
		}
		conv, err := convSvc.AddParticipant(r.Context(), convID, req.UserID)
		if err != nil {
			writeError(w, err)
			return
		}

		hub.BroadcastToUsers(conv.Participants, ws.Event{
			Type:    "conversation_updated",
			Payload: conv,
		})
		writeJSON(w, http.StatusOK, conv)
	}
}

func handleRemoveParticipant(convSvc *service.ConversationService, hub *ws.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		currentUser := CurrentUser(r)
		if currentUser == nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}
		convID := chi.URLParam(r, "conversationID")
		userID := chi.URLParam(r, "userID")

		if _, err := convSvc.Get(r.Context(), convID, currentUser.ID); err != nil {
			writeError(w, err)
			return
		}
		conv, err := convSvc.RemoveParticipant(r.Context(), convID, userID)
		if err != nil {
			writeError(w, err)
			return
		}

		hub.BroadcastToUsers(append(conv.Participants, userID), ws.Event{
			Type:    "conversation_updated",
			Payload: conv,
		})
		writeJSON(w, http.StatusOK, conv)
	}
}

func handleAcceptInvitation(convSvc *service.ConversationService, hub *ws.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		currentUser := CurrentUser(r)
		if currentUser == nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}
		convID := chi.URLParam(r, "conversationID")

		conv, err := convSvc.AcceptInvitation(r.Context(), convID, currentUser.ID)
		if err != nil {
			writeError(w, err)
			return
		}

		hub.BroadcastToUsers(conv.Participants, ws.Event{
			Type:    "conversation_updated",
			Payload: conv,
		})
		writeJSON(w, http.StatusOK, conv)
	}
}

func handleDeclineInvitation(convSvc *service.ConversationService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		currentUser := CurrentUser(r)
		if currentUser == nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}
		convID := chi.URLParam(r, "conversationID")

		if err := convSvc.DeclineInvitation(r.Context(), convID, currentUser.ID); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "invitation declined"})
	}
}

// Typing endpoints. The WebSocket path is the usual way to signal typing;
// these exist for clients that poll.

func handleSetTyping(convSvc *service.ConversationService, typingSvc *service.TypingService, hub *ws.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		currentUser := CurrentUser(r)
		if currentUser == nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}
		convID := chi.URLParam(r, "conversationID")

		conv, err := convSvc.Get(r.Context(), convID, currentUser.ID)
		if err != nil {
			writeError(w, err)
			return
		}
		if err := typingSvc.Set(r.Context(), convID, currentUser.ID); err != nil {
			writeError(w, err)
			return
		}

		var others []string
		for _, pid := range conv.Participants {
			if pid != currentUser.ID {
				others = append(others, pid)
			}
		}
		hub.BroadcastToUsers(others, ws.Event{
			Type: "typing",
			Payload: map[string]any{
				"conversation_id": convID,
				"user_id":         currentUser.ID,
				"name":            currentUser.Name,
			},
		})
		writeJSON(w, http.StatusOK, map[string]string{"message": "ok"})
	}
}

func handleClearTyping(convSvc *service.ConversationService, typingSvc *service.TypingService, hub *ws.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		currentUser := CurrentUser(r)
		if currentUser == nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}
		convID := chi.URLParam(r, "conversationID")

		conv, err := convSvc.Get(r.Context(), convID, currentUser.ID)
		if err != nil {
			writeError(w, err)
			return
		}
		if err := typingSvc.Clear(r.Context(), convID, currentUser.ID); err != nil {
			writeError(w, err)
			return
		}

		var others []string
		for _, pid := range conv.Participants {
			if pid != currentUser.ID {
				others = append(others, pid)
			}
		}
		hub.BroadcastToUsers(others, ws.Event{
			Type: "stop_typing",
			Payload: map[string]any{
				"conversation_id": convID,
				"user_id":         currentUser.ID,
			},
		})
		writeJSON(w, http.StatusOK, map[string]string{"message": "ok"})
	}
}

func handleListTyping(convSvc *service.ConversationService, typingSvc *service.TypingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		currentUser := CurrentUser(r)
		if currentUser == nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}
		convID := chi.URLParam(r, "conversationID")

		if _, err := convSvc.Get(r.Context(), convID, currentUser.ID); err != nil {
			writeError(w, err)
			return
		}
		users, err := typingSvc.Active(r.Context(), convID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, users)
	}
}
