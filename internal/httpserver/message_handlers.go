package httpserver

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"driftchat/internal/domain"
	"driftchat/internal/service"
	"driftchat/internal/ws"
)

type messageSendRequest struct {
	Content            string  `json:"content"`
	Type               string  `json:"type"`
	RecipientID        *string `json:"recipient_id"`
	RepliedToMessageID *string `json:"replied_to_message_id"`
}

func handleSendMessage(msgSvc *service.MessageService, hub *ws.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		currentUser := CurrentUser(r)
		if currentUser == nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}
		convID := chi.URLParam(r, "conversationID")
		var req messageSendRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
			return
		}
		if req.Type == "" {
			req.Type = string(domain.MessageText)
		}

		msg, err := msgSvc.Send(r.Context(), service.MessageSendInput{
			ConversationID:     convID,
			Content:            req.Content,
			Type:               domain.MessageType(req.Type),
			RecipientID:        req.RecipientID,
			RepliedToMessageID: req.RepliedToMessageID,
		}, currentUser.ID)
		if err != nil {
			writeError(w, err)
			return
		}

		if participantIDs, err := msgSvc.ParticipantIDs(r.Context(), convID); err == nil {
			hub.BroadcastToUsers(participantIDs, ws.Event{
				Type:    "message",
				Payload: msg,
			})
		}
		writeJSON(w, http.StatusCreated, msg)
	}
}

func handleListMessages(msgSvc *service.MessageService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		currentUser := CurrentUser(r)
		if currentUser == nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}
		convID := chi.URLParam(r, "conversationID")

		msgs, err := msgSvc.List(r.Context(), convID, currentUser.ID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, msgs)
	}
}

// handlePaginateMessages serves one backward page of history. Query
// params: limit (default 20) and cursor (RFC 3339); omit cursor to start
// from the newest message.
func handlePaginateMessages(msgSvc *service.MessageService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		currentUser := CurrentUser(r)
		if currentUser == nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}
		convID := chi.URLParam(r, "conversationID")

		limit := 0
		if v := r.URL.Query().Get("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				limit = n
			}
		}
		var cursor *time.Time
		if v := r.URL.Query().Get("cursor"); v != "" {
			t, err := time.Parse(time.RFC3339Nano, v)
			if err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid cursor"})
				return
			}
			cursor = &t
		}

		page, err := msgSvc.Paginate(r.Context(), convID, currentUser.ID, limit, cursor)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, page)
	}
}

func handleSearchMessages(msgSvc *service.MessageService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		currentUser := CurrentUser(r)
		if currentUser == nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}
		convID := chi.URLParam(r, "conversationID")
		term := r.URL.Query().Get("q")

		msgs, err := msgSvc.Search(r.Context(), convID, currentUser.ID, term)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, msgs)
	}
}

type messageEditRequest struct {
	Content string `json:"content"`
}

func handleEditMessage(msgSvc *service.MessageService, hub *ws.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		currentUser := CurrentUser(r)
		if currentUser == nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}
		msgID := chi.URLParam(r, "messageID")
		var req messageEditRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
			return
		}

		msg, err := msgSvc.Edit(r.Context(), currentUser.ID, msgID, req.Content)
		if err != nil {
			writeError(w, err)
			return
		}

		if participantIDs, err := msgSvc.ParticipantIDs(r.Context(), msg.ConversationID); err == nil {
			hub.BroadcastToUsers(participantIDs, ws.Event{
				Type:    "message_edited",
				Payload: msg,
			})
		}
		writeJSON(w, http.StatusOK, msg)
	}
}

func handleDeleteMessage(msgSvc *service.MessageService, hub *ws.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		currentUser := CurrentUser(r)
		if currentUser == nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}
		msgID := chi.URLParam(r, "messageID")

		msg, err := msgSvc.Delete(r.Context(), currentUser.ID, msgID)
		if err != nil {
			writeError(w, err)
			return
		}

		if participantIDs, err := msgSvc.ParticipantIDs(r.Context(), msg.ConversationID); err == nil {
			hub.BroadcastToUsers(participantIDs, ws.Event{
				Type: "message_deleted",
				Payload: map[string]string{
					"message_id":      msg.ID,
					"conversation_id": msg.ConversationID,
				},
			})
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "deleted"})
	}
}

type reactionRequest struct {
	Emoji string `json:"emoji"`
}

// handleToggleReaction adds the caller's reaction if absent and removes it
// if present.
func handleToggleReaction(msgSvc *service.MessageService, hub *ws.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		currentUser := CurrentUser(r)
		if currentUser == nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}
		msgID := chi.URLParam(r, "messageID")
		var req reactionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
			return
		}

		msg, added, err := msgSvc.ToggleReaction(r.Context(), msgID, currentUser.ID, req.Emoji)
		if err != nil {
			writeError(w, err)
			return
		}

		if participantIDs, err := msgSvc.ParticipantIDs(r.Context(), msg.ConversationID); err == nil {
			hub.BroadcastToUsers(participantIDs, ws.Event{
				Type:    "reaction_updated",
				Payload: msg,
			})
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"message": msg,
			"added":   added,
		})
	}
}
