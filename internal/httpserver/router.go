package httpserver

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"driftchat/internal/config"
	"driftchat/internal/domain"
	"driftchat/internal/security"
	"driftchat/internal/service"
	"driftchat/internal/store/postgres"
	"driftchat/internal/store/sqlite"
	"driftchat/internal/ws"
)

// repositories bundles the store implementations behind the domain
// interfaces so the rest of the wiring is driver-agnostic.
type repositories struct {
	users         domain.UserRepository
	requests      domain.FriendRequestRepository
	conversations domain.ConversationRepository
	messages      domain.MessageRepository
	typing        domain.TypingRepository
	notifications domain.NotificationRepository
}

func newRepositories(driver string, db *sql.DB) repositories {
	if driver == "postgres" {
		return repositories{
			users:         postgres.NewUserRepo(db),
			requests:      postgres.NewFriendRequestRepo(db),
			conversations: postgres.NewConversationRepo(db),
			messages:      postgres.NewMessageRepo(db),
			typing:        postgres.NewTypingRepo(db),
			notifications: postgres.NewNotificationRepo(db),
		}
	}
	return repositories{
		users:         sqlite.NewUserRepo(db),
		requests:      sqlite.NewFriendRequestRepo(db),
		conversations: sqlite.NewConversationRepo(db),
		messages:      sqlite.NewMessageRepo(db),
		typing:        sqlite.NewTypingRepo(db),
		notifications: sqlite.NewNotificationRepo(db),
	}
}

// NewRouter constructs the main HTTP router and wires routes, services, and middleware.
func NewRouter(cfg *config.Config, db *sql.DB, hub *ws.Hub, tokenSvc *security.TokenService) http.Handler {
	r := chi.NewRouter()

	// Middlewares
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Repositories
	repos := newRepositories(cfg.DBDriver, db)

	// Services
	userSvc := service.NewUserService(repos.users)
	friendSvc := service.NewFriendshipService(repos.requests, repos.users, repos.notifications)
	convSvc := service.NewConversationService(repos.conversations, repos.users, repos.notifications)
	msgSvc := service.NewMessageService(repos.messages, repos.conversations, repos.users, friendSvc)
	typingSvc := service.NewTypingService(repos.typing, repos.users)
	notifSvc := service.NewNotificationService(repos.notifications, repos.users, repos.conversations, repos.requests)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"message":"DriftChat API","version":"1.0.0"}`))
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	})

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Identity sync (no session token yet)
		r.Post("/auth/session", handleSession(userSvc, tokenSvc))

		// Authenticated routes
		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(tokenSvc, repos.users))

			r.Post("/auth/logout", handleLogout(userSvc))
			r.Get("/auth/me", handleMe())

			// Users
			r.Route("/users", func(r chi.Router) {
				r.Get("/", handleListUsers(userSvc))
				r.Get("/online", handleListOnlineUsers(userSvc))
				r.Post("/me/friend-requests/toggle", handleToggleFriendRequests(userSvc))
				r.Get("/{userID}", handleGetUser(userSvc))
			})

			// Friendships
			r.Route("/friends", func(r chi.Router) {
				r.Get("/", handleListFriends(friendSvc))
				r.Get("/status/{userID}", handleFriendRequestStatus(friendSvc))
				r.Route("/requests", func(r chi.Router) {
					r.Post("/", handleSendFriendRequest(friendSvc, hub))
					r.Get("/", handleListPendingRequests(friendSvc))
					r.Get("/sent", handleListSentRequests(friendSvc))
					r.Post("/{requestID}/accept", handleAcceptFriendRequest(friendSvc, hub))
					r.Post("/{requestID}/decline", handleDeclineFriendRequest(friendSvc))
				})
			})

			// Conversations, messages within them, and typing state
			r.Route("/conversations", func(r chi.Router) {
				r.Post("/", handleCreateConversation(convSvc, hub))
				r.Get("/", handleListConversations(convSvc))
				r.Post("/direct", handleGetOrCreateDirect(convSvc))
				r.Get("/search", handleSearchConversations(convSvc))
				r.Route("/{conversationID}", func(r chi.Router) {
					r.Get("/", handleGetConversation(convSvc))
					r.Post("/participants", handleAddParticipant(convSvc, hub))
					r.Delete("/participants/{userID}", handleRemoveParticipant(convSvc, hub))
					r.Post("/invitation/accept", handleAcceptInvitation(convSvc, hub))
					r.Post("/invitation/decline", handleDeclineInvitation(convSvc))
					r.Get("/messages", handleListMessages(msgSvc))
					r.Get("/messages/page", handlePaginateMessages(msgSvc))
					r.Get("/messages/search", handleSearchMessages(msgSvc))
					r.Post("/messages", handleSendMessage(msgSvc, hub))
					r.Get("/typing", handleListTyping(convSvc, typingSvc))
					r.Post("/typing", handleSetTyping(convSvc, typingSvc, hub))
					r.Delete("/typing", handleClearTyping(convSvc, typingSvc, hub))
				})
			})

			// Message-level operations
			r.Route("/messages/{messageID}", func(r chi.Router) {
				r.Patch("/", handleEditMessage(msgSvc, hub))
				r.Delete("/", handleDeleteMessage(msgSvc, hub))
				r.Post("/reactions", handleToggleReaction(msgSvc, hub))
			})

			// Notifications
			r.Route("/notifications", func(r chi.Router) {
				r.Get("/", handleListNotifications(notifSvc))
				r.Get("/unread", handleListUnreadNotifications(notifSvc))
				r.Get("/unread/count", handleUnreadCount(notifSvc))
				r.Post("/read-all", handleMarkAllNotificationsRead(notifSvc))
				r.Post("/{notificationID}/read", handleMarkNotificationRead(notifSvc))
				r.Delete("/{notificationID}", handleDeleteNotification(notifSvc))
			})

			// Uploads (implementation in separate file)
			r.Mount("/uploads", UploadRoutes(cfg))
		})
	})

	// WebSocket endpoint
	r.Get("/ws", ws.MakeHandler(hub, tokenSvc, repos.users, msgSvc, typingSvc, cfg.CORSOrigins))

	return r
}
