package api

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/spheresapp/sphere-server/internal/config"
	"github.com/spheresapp/sphere-server/internal/database"
	"github.com/spheresapp/sphere-server/internal/server"
)

type SphereApp struct {
	log            *log.Logger
	db             database.Repository
	mux            *http.Server
	gw             *server.Gateway
	signingKey     []byte
	allowedOrigins []string
}

func NewSphereApp(mux *http.ServeMux, logger *log.Logger, gw *server.Gateway, db database.Repository, cfg *config.Config) *SphereApp {
	s := &SphereApp{
		log:            logger,
		db:             db,
		gw:             gw,
		signingKey:     cfg.SigningKey,
		allowedOrigins: cfg.AllowedOrigins,
	}

	mux.HandleFunc("GET /healthz", s.healthCheck)
	mux.HandleFunc("POST /api/auth/register", s.createAccount)
	mux.HandleFunc("POST /api/auth/login", s.login)
	mux.HandleFunc("GET /api/auth/session", s.authMiddleware(s.session))
	mux.HandleFunc("PUT /api/account/picture", s.authMiddleware(s.updateProfilePicture))

	mux.HandleFunc("POST /api/spheres", s.authMiddleware(s.createRoom))
	mux.HandleFunc("GET /api/spheres", s.authMiddleware(s.listRooms))
	mux.HandleFunc("GET /api/spheres/{id}", s.authMiddleware(s.getRoom))
	mux.HandleFunc("PUT /api/spheres/{id}", s.authMiddleware(s.renameRoom))
	mux.HandleFunc("DELETE /api/spheres/{id}", s.authMiddleware(s.deleteRoom))
	mux.HandleFunc("POST /api/spheres/{id}/join", s.authMiddleware(s.requestJoin))
	mux.HandleFunc("POST /api/spheres/{id}/requests", s.authMiddleware(s.resolveJoinRequest))
	mux.HandleFunc("DELETE /api/spheres/{id}/members/{accountId}", s.authMiddleware(s.removeMember))

	mux.HandleFunc("GET /api/spheres/{id}/messages", s.authMiddleware(s.getMessages))
	mux.HandleFunc("GET /api/spheres/{id}/todos", s.authMiddleware(s.getTodos))
	mux.HandleFunc("GET /api/spheres/{id}/polls", s.authMiddleware(s.getPolls))

	mux.HandleFunc("GET /api/notifications", s.authMiddleware(s.getNotifications))
	mux.HandleFunc("POST /api/notifications/{id}/read", s.authMiddleware(s.markNotificationRead))

	mux.HandleFunc("POST /api/spheres/{id}/expenses", s.authMiddleware(s.createExpense))
	mux.HandleFunc("GET /api/spheres/{id}/expenses", s.authMiddleware(s.getExpenses))
	mux.HandleFunc("POST /api/expenses/{id}/settle", s.authMiddleware(s.settleExpense))

	mux.HandleFunc("GET /ws", s.authMiddleware(s.serveWs))

	h := handlers.CORS(
		handlers.MaxAge(3600),
		handlers.AllowedOrigins(cfg.AllowedOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Origin", "Content-Type", "Accept", "Authorization"}),
		handlers.AllowCredentials(),
	)(mux)

	h = s.errorHandler(h)

	srv := &http.Server{
		Addr:    cfg.ServerAddr,
		Handler: h,
	}

	s.mux = srv
	return s
}

func (s *SphereApp) Start() error {
	s.log.Printf("starting server on %s\n", s.mux.Addr)
	return s.mux.ListenAndServe()
}

func (s *SphereApp) Shutdown(ctx context.Context) error {
	s.log.Println("shutting down HTTP server...")
	if err := s.mux.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	return nil
}
