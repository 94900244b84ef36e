package httpserver

import (
	"encoding/json"
	"net/http"

	"driftchat/internal/security"
	"driftchat/internal/service"
)

type sessionRequest struct {
	ExternalID string `json:"external_id"`
	Email      string `json:"email"`
	Name       string `json:"name"`
	AvatarURL  string `json:"avatar_url"`
}

type sessionResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	User        any    `json:"user"`
}

// handleSession is the identity-sync entry point. The client signs in with
// the external identity provider, then posts the verified profile here; we
// upsert the local user record and mint a session token for our API.
func handleSession(userSvc *service.UserService, tokens *security.TokenService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req sessionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
			return
		}

		user, err := userSvc.Upsert(r.Context(), service.IdentityProfile{
			ExternalID: req.ExternalID,
			Email:      req.Email,
			Name:       req.Name,
			AvatarURL:  req.AvatarURL,
		})
		if err != nil {
			writeError(w, err)
			return
		}

		token, err := tokens.CreateForExternalID(user.ExternalID)
		if err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, sessionResponse{
			AccessToken: token,
			TokenType:   "bearer",
			User:        user,
		})
	}
}

func handleLogout(userSvc *service.UserService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		currentUser := CurrentUser(r)
		if currentUser == nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}
		if err := userSvc.SetOnline(r.Context(), currentUser.ID, false); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
	}
}

func handleMe() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		currentUser := CurrentUser(r)
		if currentUser == nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}
		writeJSON(w, http.StatusOK, currentUser)
	}
}
