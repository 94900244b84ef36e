package httpserver

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"driftchat/internal/service"
	"driftchat/internal/ws"
)

type friendRequestCreateRequest struct {
	RecipientID string `json:"recipient_id"`
}

func handleSendFriendRequest(friendSvc *service.FriendshipService, hub *ws.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		currentUser := CurrentUser(r)
		if currentUser == nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}
		var req friendRequestCreateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
			return
		}

		request, err := friendSvc.Send(r.Context(), currentUser.ID, req.RecipientID)
		if err != nil {
			writeError(w, err)
			return
		}

		hub.BroadcastToUsers([]string{request.RecipientID}, ws.Event{
			Type:    "friend_request",
			Payload: request,
		})
		writeJSON(w, http.StatusCreated, request)
	}
}

func handleAcceptFriendRequest(friendSvc *service.FriendshipService, hub *ws.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		currentUser := CurrentUser(r)
		if currentUser == nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}
		requestID := chi.URLParam(r, "requestID")

		request, err := friendSvc.Accept(r.Context(), requestID, currentUser.ID)
		if err != nil {
			writeError(w, err)
			return
		}

		hub.BroadcastToUsers([]string{request.SenderID}, ws.Event{
			Type:    "friend_request_accepted",
			Payload: request,
		})
		writeJSON(w, http.StatusOK, request)
	}
}

func handleDeclineFriendRequest(friendSvc *service.FriendshipService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		currentUser := CurrentUser(r)
		if currentUser == nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}
		requestID := chi.URLParam(r, "requestID")

		request, err := friendSvc.Decline(r.Context(), requestID, currentUser.ID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, request)
	}
}

func handleListFriends(friendSvc *service.FriendshipService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		currentUser := CurrentUser(r)
		if currentUser == nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}
		friends, err := friendSvc.FriendsOf(r.Context(), currentUser.ID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, friends)
	}
}

func handleListPendingRequests(friendSvc *service.FriendshipService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		currentUser := CurrentUser(r)
		if currentUser == nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}
		requests, err := friendSvc.PendingFor(r.Context(), currentUser.ID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, requests)
	}
}

func handleListSentRequests(friendSvc *service.FriendshipService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		currentUser := CurrentUser(r)
		if currentUser == nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}
		requests, err := friendSvc.SentBy(r.Context(), currentUser.ID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, requests)
	}
}

// handleFriendRequestStatus reports the relationship between the caller
// and another user, from the caller's perspective.
func handleFriendRequestStatus(friendSvc *service.FriendshipService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		currentUser := CurrentUser(r)
		if currentUser == nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}
		targetID := chi.URLParam(r, "userID")
		status, err := friendSvc.Status(r.Context(), currentUser.ID, targetID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, status)
	}
}
