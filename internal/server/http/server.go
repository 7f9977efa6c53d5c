// Package http is the thin transport adapter: route wiring, request binding,
// and the mapping of domain errors onto response statuses. All business
// rules live in the services package.
package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/NickM101/project-management-app/internal/logging"
	"github.com/NickM101/project-management-app/internal/server/auth"
	"github.com/NickM101/project-management-app/internal/server/models"
	"github.com/NickM101/project-management-app/internal/server/services"
)

// Server wires the auth and user services to HTTP routes.
type Server struct {
	address string
	auth    *services.AuthService
	users   *services.UserService
	logger  logging.Logger
}

func NewServer(address string, l logging.Logger, as *services.AuthService, us *services.UserService) *Server {
	return &Server{
		address: address,
		auth:    as,
		users:   us,
		logger:  l.With("module", "http_server"),
	}
}

// Router builds the gin engine with all routes registered. Role declarations
// follow the policy surface: the users group defaults to "any authenticated
// caller"; individual routes override with an explicit set where needed.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.POST("/auth/login", s.handleLogin)
	r.POST("/auth/refresh", s.handleRefresh)

	adminOnly := []models.Role{models.RoleAdmin}
	anyAuthenticated := []models.Role{}

	users := r.Group("/users", s.authenticate())
	declare := func(route []models.Role) gin.HandlerFunc {
		return requireRoles(auth.EffectiveRoles(anyAuthenticated, route)...)
	}

	users.POST("", declare(adminOnly), s.handleCreateUser)
	users.GET("", declare(adminOnly), s.handleListUsers)
	users.GET("/profile", declare(nil), s.handleGetProfile)
	users.PATCH("/profile", declare(nil), s.handleUpdateProfile)
	users.POST("/change-password", declare(nil), s.handleChangeOwnPassword)
	users.POST("/profile-image", declare(nil), s.handleUploadProfileImage)
	users.DELETE("/profile-image", declare(nil), s.handleDeleteProfileImage)
	users.GET("/:id", declare(adminOnly), s.handleGetUser)
	users.PATCH("/:id", declare(adminOnly), s.handleAdminUpdateUser)
	users.POST("/:id/change-password", declare(adminOnly), s.handleAdminChangePassword)
	users.PATCH("/:id/deactivate", declare(adminOnly), s.handleDeactivateUser)
	users.DELETE("/:id", declare(adminOnly), s.handleDeleteUser)
	users.POST("/:id/assign-project/:projectId", declare(adminOnly), s.handleAssignProject)
	users.DELETE("/:id/unassign-project", declare(adminOnly), s.handleUnassignProject)

	return r
}

// Run serves until the context is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.address,
		Handler: s.Router(),
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
