package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/geocoder89/userhub/internal/auth"
	"github.com/geocoder89/userhub/internal/domain/user"
	"github.com/geocoder89/userhub/internal/http/handlers"
	"github.com/geocoder89/userhub/internal/http/middlewares"
	"github.com/geocoder89/userhub/internal/repo/postgres"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Make sure Gin does not spam the console during the test

func init() {
	gin.SetMode(gin.TestMode)
}

// memStore is an in-memory stand-in for the postgres users repo. It
// reuses the repo's sentinel errors so handler mapping stays honest.
type memStore struct {
	mu    sync.Mutex
	users map[string]user.User
}

func newMemStore() *memStore {
	return &memStore{users: make(map[string]user.User)}
}

func (s *memStore) RegisterBootstrap(_ context.Context, id, email, passwordHash string) (user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Email == email {
			return user.User{}, postgres.ErrEmailTaken
		}
	}

	role := user.RoleUser
	if len(s.users) == 0 {
		role = user.RoleSuperadmin
	}

	now := time.Now().UTC()
	u := user.User{ID: id, Email: email, PasswordHash: passwordHash, Role: role, CreatedAt: now, UpdatedAt: now}
	s.users[id] = u
	return u, nil
}

func (s *memStore) Create(_ context.Context, id, email, passwordHash string, role user.Role, createdBy *string) (user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Email == email {
			return user.User{}, postgres.ErrEmailTaken
		}
	}

	now := time.Now().UTC()
	u := user.User{ID: id, Email: email, PasswordHash: passwordHash, Role: role, CreatedBy: createdBy, CreatedAt: now, UpdatedAt: now}
	s.users[id] = u
	return u, nil
}

func (s *memStore) GetByEmail(_ context.Context, email string) (user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return user.User{}, postgres.ErrUserNotFound
}

func (s *memStore) GetByID(_ context.Context, id string) (user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return user.User{}, postgres.ErrUserNotFound
	}
	return u, nil
}

func (s *memStore) List(_ context.Context, filter user.ListFilter) ([]user.User, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var all []user.User

	for _, u := range s.users {
		if filter.CreatedBy != nil {
			if u.CreatedBy == nil || *u.CreatedBy != *filter.CreatedBy {
				continue
			}
		}
		all = append(all, u)
	}

	desc := filter.Order != "asc"
	sort.Slice(all, func(i, j int) bool {
		if desc {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].CreatedAt.Before(all[j].CreatedAt)
	})

	total := len(all)

	if filter.Start >= len(all) {
		return []user.User{}, total, nil
	}

	end := filter.End
	if end > len(all) {
		end = len(all)
	}

	return all[filter.Start:end], total, nil
}

func (s *memStore) UpdateRole(_ context.Context, id string, role user.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return postgres.ErrUserNotFound
	}
	u.Role = role
	u.UpdatedAt = time.Now().UTC()
	s.users[id] = u
	return nil
}

func (s *memStore) UpdateRoleByCreator(_ context.Context, id, creatorID string, role user.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok || u.CreatedBy == nil || *u.CreatedBy != creatorID {
		return postgres.ErrUserNotFound
	}
	u.Role = role
	u.UpdatedAt = time.Now().UTC()
	s.users[id] = u
	return nil
}

func (s *memStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[id]; !ok {
		return postgres.ErrUserNotFound
	}
	delete(s.users, id)
	return nil
}

const testSecret = "handlers-test-secret"

// newTestRouter mirrors the production route table on top of the fake
// store.
func newTestRouter(store *memStore) (*gin.Engine, *auth.Manager) {
	jwt := auth.NewManager(testSecret, time.Hour)
	authMW := middlewares.NewAuthMiddleware(jwt)

	authHandler := handlers.NewAuthHandler(store, jwt, nil)
	usersHandler := handlers.NewUsersHandler(store)

	r := gin.New()
	api := r.Group("/api")

	api.POST("/register", authHandler.Register)
	api.POST("/login", authHandler.Login)
	api.GET("/check-auth", authMW.RequireAuth(), authHandler.CheckAuth)
	api.GET("/me", authMW.RequireAuth(), authHandler.Me)
	api.POST("/logout", authMW.RequireAuth(), authHandler.Logout)

	superadmin := api.Group("", authMW.RequireAuth(), authMW.RequireRole(user.RoleSuperadmin))
	superadmin.GET("/users", usersHandler.GetAllUsers)
	superadmin.POST("/create-user", usersHandler.CreateUser)
	superadmin.PUT("/users/:id", usersHandler.UpdateUserRole)
	superadmin.DELETE("/users/:id", usersHandler.DeleteUser)

	admin := api.Group("", authMW.RequireAuth(), authMW.RequireRole(user.RoleAdmin))
	admin.GET("/my-users", usersHandler.GetUsersByAdmin)
	admin.POST("/create-superuser", usersHandler.CreateSuperuser)
	admin.PUT("/my-users/:id", usersHandler.UpdateRoleByAdmin)

	return r, jwt
}

func doJSON(t *testing.T, r *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader

	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var out map[string]any

	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode body %q: %v", w.Body.String(), err)
	}

	return out
}

// seedUser inserts directly into the fake store and returns a valid token
// for that user.
func seedUser(t *testing.T, store *memStore, jwt *auth.Manager, email string, role user.Role, createdBy *string) (user.User, string) {
	t.Helper()

	u, err := store.Create(context.Background(), uuid.NewString(), email, "x", role, createdBy)

	if err != nil {
		t.Fatalf("seed %s: %v", email, err)
	}

	token, err := jwt.Generate(u.ID, u.Role)

	if err != nil {
		t.Fatalf("token for %s: %v", email, err)
	}

	return u, token
}

func mustStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()

	if w.Code != want {
		t.Fatalf("status = %d, want %d (body %s)", w.Code, want, w.Body.String())
	}
}

