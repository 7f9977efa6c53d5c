package http

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"github.com/NickM101/project-management-app/internal/common"
	"github.com/NickM101/project-management-app/internal/dbx"
	"github.com/NickM101/project-management-app/internal/logging"
	serverauth "github.com/NickM101/project-management-app/internal/server/auth"
	"github.com/NickM101/project-management-app/internal/server/config"
	"github.com/NickM101/project-management-app/internal/server/models"
	"github.com/NickM101/project-management-app/internal/server/repositories/projects"
	"github.com/NickM101/project-management-app/internal/server/repositories/refreshtokens"
	"github.com/NickM101/project-management-app/internal/server/repositories/users"
	"github.com/NickM101/project-management-app/internal/server/services"
)

type stubUsersRepo struct {
	users.Repository
	byEmail map[string]*models.User
	byID    map[string]*models.User
}

func (r *stubUsersRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if u, ok := r.byEmail[email]; ok {
		return u, nil
	}
	return nil, common.ErrNotFound
}

func (r *stubUsersRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := r.byID[id]; ok {
		return u, nil
	}
	return nil, common.ErrNotFound
}

func (r *stubUsersRepo) List(ctx context.Context, f users.Filter) ([]*models.User, error) {
	var out []*models.User
	for _, u := range r.byID {
		out = append(out, u)
	}
	return out, nil
}

func (r *stubUsersRepo) UpdateLastLogin(ctx context.Context, id string) error { return nil }

type stubRefreshRepo struct {
	refreshtokens.Repository
}

func (r *stubRefreshRepo) Create(ctx context.Context, userID, token string, validity time.Duration) error {
	return nil
}

type stubRepoManager struct {
	users   *stubUsersRepo
	refresh *stubRefreshRepo
}

func (m *stubRepoManager) Users(dbx.DBTX) users.Repository                  { return m.users }
func (m *stubRepoManager) Projects(dbx.DBTX) projects.Repository            { return nil }
func (m *stubRepoManager) RefreshTokens(dbx.DBTX) refreshtokens.Repository  { return m.refresh }
func (m *stubRepoManager) RunMigrations(context.Context, *sql.DB) error     { return nil }

func newTestServer(t *testing.T) (*Server, *stubRepoManager) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	hash, err := serverauth.HashPassword("password123", bcrypt.MinCost)
	if err != nil {
		t.Fatalf("HashPassword error: %v", err)
	}

	admin := &models.User{ID: "admin-1", Email: "admin@example.com", Name: "Admin",
		PasswordHash: hash, Role: models.RoleAdmin, IsActive: true}
	member := &models.User{ID: "member-1", Email: "member@example.com", Name: "Member",
		PasswordHash: hash, Role: models.RoleUser, IsActive: true}

	rm := &stubRepoManager{
		users: &stubUsersRepo{
			byEmail: map[string]*models.User{admin.Email: admin, member.Email: member},
			byID:    map[string]*models.User{admin.ID: admin, member.ID: member},
		},
		refresh: &stubRefreshRepo{},
	}

	cfg := &config.Config{
		SecretKey:                    "test-secret",
		AccessTokenValidityDuration:  time.Hour,
		RefreshTokenValidityDuration: 2 * time.Hour,
		PasswordHashCost:             bcrypt.MinCost,
	}

	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	as := services.NewAuthService(db, rm, logger, cfg)
	us := services.NewUserService(db, rm, nil, logger, cfg)

	return NewServer(":0", logger, as, us), rm
}

func doJSON(t *testing.T, router *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func loginAs(t *testing.T, router *gin.Engine, email string) string {
	t.Helper()
	w := doJSON(t, router, http.MethodPost, "/auth/login", "",
		gin.H{"email": email, "password": "password123"})
	if w.Code != http.StatusOK {
		t.Fatalf("login failed: %d %s", w.Code, w.Body.String())
	}
	var resp struct {
		AccessToken string `json:"accessToken"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode login response: %v", err)
	}
	return resp.AccessToken
}

func TestLoginEndpoint(t *testing.T) {
	s, _ := newTestServer(t)
	router := s.Router()

	t.Run("success", func(t *testing.T) {
		token := loginAs(t, router, "admin@example.com")
		if token == "" {
			t.Fatal("empty access token")
		}
	})

	t.Run("wrong password", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/auth/login", "",
			gin.H{"email": "admin@example.com", "password": "nope-nope"})
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("want 401, got %d", w.Code)
		}
	})

	t.Run("malformed body", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/auth/login", "", gin.H{"email": "not-an-email"})
		if w.Code != http.StatusBadRequest {
			t.Fatalf("want 400, got %d", w.Code)
		}
	})
}

func TestAuthenticationRequired(t *testing.T) {
	s, _ := newTestServer(t)
	router := s.Router()

	t.Run("missing token", func(t *testing.T) {
		w := doJSON(t, router, http.MethodGet, "/users/profile", "", nil)
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("want 401, got %d", w.Code)
		}
	})

	t.Run("garbage token", func(t *testing.T) {
		w := doJSON(t, router, http.MethodGet, "/users/profile", "garbage", nil)
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("want 401, got %d", w.Code)
		}
	})
}

func TestRoleGuard(t *testing.T) {
	s, _ := newTestServer(t)
	router := s.Router()

	adminToken := loginAs(t, router, "admin@example.com")
	memberToken := loginAs(t, router, "member@example.com")

	t.Run("member cannot list users", func(t *testing.T) {
		w := doJSON(t, router, http.MethodGet, "/users", memberToken, nil)
		if w.Code != http.StatusForbidden {
			t.Fatalf("want 403, got %d", w.Code)
		}
	})

	t.Run("admin can list users", func(t *testing.T) {
		w := doJSON(t, router, http.MethodGet, "/users", adminToken, nil)
		if w.Code != http.StatusOK {
			t.Fatalf("want 200, got %d %s", w.Code, w.Body.String())
		}
	})

	t.Run("member can read own profile", func(t *testing.T) {
		w := doJSON(t, router, http.MethodGet, "/users/profile", memberToken, nil)
		if w.Code != http.StatusOK {
			t.Fatalf("want 200, got %d %s", w.Code, w.Body.String())
		}
		if bytes.Contains(w.Body.Bytes(), []byte("password")) {
			t.Fatalf("profile response leaks password material: %s", w.Body.String())
		}
	})

	t.Run("member cannot read arbitrary user", func(t *testing.T) {
		w := doJSON(t, router, http.MethodGet, "/users/admin-1", memberToken, nil)
		if w.Code != http.StatusForbidden {
			t.Fatalf("want 403, got %d", w.Code)
		}
	})

	t.Run("admin reads arbitrary user", func(t *testing.T) {
		w := doJSON(t, router, http.MethodGet, "/users/member-1", adminToken, nil)
		if w.Code != http.StatusOK {
			t.Fatalf("want 200, got %d %s", w.Code, w.Body.String())
		}
	})

	t.Run("admin get unknown user is 404", func(t *testing.T) {
		w := doJSON(t, router, http.MethodGet, "/users/ghost", adminToken, nil)
		if w.Code != http.StatusNotFound {
			t.Fatalf("want 404, got %d", w.Code)
		}
	})
}

func TestCreateUserValidation(t *testing.T) {
	s, _ := newTestServer(t)
	router := s.Router()

	adminToken := loginAs(t, router, "admin@example.com")

	t.Run("short password rejected", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/users", adminToken,
			gin.H{"email": "n@example.com", "name": "N", "password": "short"})
		if w.Code != http.StatusBadRequest {
			t.Fatalf("want 400, got %d", w.Code)
		}
	})

	t.Run("unknown role rejected", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/users", adminToken,
			gin.H{"email": "n@example.com", "name": "N", "password": "longenough", "role": "ROOT"})
		if w.Code != http.StatusBadRequest {
			t.Fatalf("want 400, got %d", w.Code)
		}
	})
}
