package ws

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"driftchat/internal/domain"
	"driftchat/internal/security"
	"driftchat/internal/service"
)

type wsAuthError struct {
	status int
	msg    string
}

func (e wsAuthError) Error() string {
	return e.msg
}

func normalizeAllowedOrigins(origins []string) map[string]struct{} {
	res := make(map[string]struct{}, len(origins))
	for _, origin := range origins {
		o := strings.TrimSpace(strings.ToLower(origin))
		if o != "" {
			res[o] = struct{}{}
		}
	}
	return res
}

func makeCheckOrigin(allowedOrigins []string) func(r *http.Request) bool {
	allowed := normalizeAllowedOrigins(allowedOrigins)
	if len(allowed) == 0 {
		return func(r *http.Request) bool {
			return false
		}
	}

	return func(r *http.Request) bool {
		origin := strings.TrimSpace(strings.ToLower(r.Header.Get("Origin")))
		if origin == "" {
			return false
		}
		if _, ok := allowed[origin]; ok {
			return true
		}

		u, err := url.Parse(origin)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return false
		}
		normalized := strings.ToLower(fmt.Sprintf("%s://%s", u.Scheme, u.Host))
		_, ok := allowed[normalized]
		return ok
	}
}

func extractTokenFromWSRequest(r *http.Request) (string, error) {
	authHeader := strings.TrimSpace(r.Header.Get("Authorization"))
	if strings.HasPrefix(strings.ToLower(authHeader), "bearer ") {
		token := strings.TrimSpace(authHeader[len("Bearer "):])
		if token != "" {
			return token, nil
		}
	}

	protocolHeader := r.Header.Get("Sec-WebSocket-Protocol")
	if protocolHeader != "" {
		parts := strings.Split(protocolHeader, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		if len(parts) >= 2 && strings.EqualFold(parts[0], "bearer") {
			token := parts[1]
			if token != "" {
				return token, nil
			}
		}
	}

	return "", wsAuthError{status: http.StatusUnauthorized, msg: "missing bearer token"}
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// MakeHandler returns an HTTP handler for the /ws endpoint.
// Authenticates via Bearer token (Authorization header or Sec-WebSocket-Protocol), then dispatches events:
//   - message      -> append & broadcast to conversation participants
//   - typing       -> refresh indicator + broadcast to other participants
//   - stop_typing  -> clear indicator + broadcast to other participants
func MakeHandler(
	hub *Hub,
	tokens *security.TokenService,
	users domain.UserRepository,
	msgSvc *service.MessageService,
	typingSvc *service.TypingService,
	allowedOrigins []string,
) http.HandlerFunc {
	checkOrigin := makeCheckOrigin(allowedOrigins)
	upgrader := websocket.Upgrader{
		CheckOrigin: checkOrigin,
		Subprotocols: []string{
			"bearer",
		},
	}

	return func(w http.ResponseWriter, r *http.Request) {
		if !checkOrigin(r) {
			http.Error(w, "origin not allowed", http.StatusForbidden)
			return
		}

		tokenStr, err := extractTokenFromWSRequest(r)
		if err != nil {
			if authErr, ok := err.(wsAuthError); ok {
				http.Error(w, authErr.msg, authErr.status)
				return
			}
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		claims, err := tokens.Parse(tokenStr)
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}
		sub, _ := claims["sub"].(string)
		if sub == "" {
			http.Error(w, "invalid token subject", http.StatusUnauthorized)
			return
		}

		ctx := r.Context()
		user, err := users.GetByExternalID(ctx, sub)
		if err != nil || user == nil {
			http.Error(w, "user not found", http.StatusUnauthorized)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		if err := users.SetOnlineStatus(ctx, user.ID, true, time.Now().UTC()); err != nil {
			log.Printf("ws: set online for %s: %v", user.ID, err)
		}
		client := hub.Register(user.ID, conn)
		defer func() {
			hub.Unregister(user.ID, client)
			// Other tabs may still be open for this user.
			if hub.Connected(user.ID) {
				return
			}
			if err := users.SetOnlineStatus(context.Background(), user.ID, false, time.Now().UTC()); err != nil {
				log.Printf("ws: set offline for %s: %v", user.ID, err)
			}
			hub.BroadcastAll(Event{
				Type: "user_offline",
				Payload: map[string]any{
					"user_id": user.ID,
					"name":    user.Name,
				},
			})
		}()
		hub.BroadcastAll(Event{
			Type: "user_online",
			Payload: map[string]any{
				"user_id": user.ID,
				"name":    user.Name,
			},
		})

		for {
			var payload map[string]any
			if err := conn.ReadJSON(&payload); err != nil {
				break
			}
			eventType, _ := payload["type"].(string)
			switch eventType {

			// ── send message ─────────────────────────────────────────────────
			case "message":
				convID, _ := payload["conversation_id"].(string)
				content, _ := payload["content"].(string)
				msgType, _ := payload["message_type"].(string)
				if msgType == "" {
					msgType = string(domain.MessageText)
				}
				if convID == "" || content == "" {
					sendError(client, "message requires conversation_id and non-empty content")
					continue
				}
				in := service.MessageSendInput{
					ConversationID: convID,
					Content:        content,
					Type:           domain.MessageType(msgType),
				}
				if recipientID, _ := payload["recipient_id"].(string); recipientID != "" {
					in.RecipientID = &recipientID
				}
				if repliedTo, _ := payload["replied_to_message_id"].(string); repliedTo != "" {
					in.RepliedToMessageID = &repliedTo
				}
				msg, err := msgSvc.Send(ctx, in, user.ID)
				if err != nil {
					log.Printf("ws: send message: %v", err)
					sendError(client, "failed to send message")
					continue
				}
				participantIDs, err := msgSvc.ParticipantIDs(ctx, msg.ConversationID)
				if err != nil {
					log.Printf("ws: get participants: %v", err)
					continue
				}
				hub.BroadcastToUsers(participantIDs, Event{
					Type:    "message",
					Payload: msg,
				})

			// ── typing indicator ─────────────────────────────────────────────
			case "typing", "stop_typing":
				convID, _ := payload["conversation_id"].(string)
				if convID == "" {
					continue
				}
				participantIDs, err := msgSvc.ParticipantIDs(ctx, convID)
				if err != nil || !contains(participantIDs, user.ID) {
					sendError(client, "not allowed for this conversation")
					continue
				}
				if eventType == "typing" {
					err = typingSvc.Set(ctx, convID, user.ID)
				} else {
					err = typingSvc.Clear(ctx, convID, user.ID)
				}
				if err != nil {
					log.Printf("ws: %s: %v", eventType, err)
					continue
				}
				var others []string
				for _, pid := range participantIDs {
					if pid != user.ID {
						others = append(others, pid)
					}
				}
				hub.BroadcastToUsers(others, Event{
					Type: eventType,
					Payload: map[string]any{
						"conversation_id": convID,
						"user_id":         user.ID,
						"name":            user.Name,
					},
				})

			default:
				log.Printf("ws: unknown event type %q from user %s", eventType, user.ID)
			}
		}
	}
}

func sendError(c *Client, msg string) {
	_ = c.Send(Event{
		Type:    "error",
		Payload: map[string]string{"message": msg},
	})
}
