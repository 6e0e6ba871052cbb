package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crescendo-labs/music-school-api/internal/middleware"
	"github.com/crescendo-labs/music-school-api/internal/models"
	"github.com/crescendo-labs/music-school-api/internal/service"
)

type stubUserRepo struct {
	byEmail map[string]models.User
	byID    map[string]models.User
	lookups int
}

func (s *stubUserRepo) List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error) {
	var users []models.User
	for _, u := range s.byEmail {
		users = append(users, u)
	}
	return users, len(users), nil
}

func (s *stubUserRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := s.byID[id]; ok {
		return &u, nil
	}
	return nil, sql.ErrNoRows
}

func (s *stubUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if u, ok := s.byEmail[email]; ok {
		return &u, nil
	}
	return nil, sql.ErrNoRows
}

func (s *stubUserRepo) RoleByEmail(ctx context.Context, email string) (models.UserRole, error) {
	s.lookups++
	if u, ok := s.byEmail[email]; ok {
		return u.Role, nil
	}
	return "", sql.ErrNoRows
}

func (s *stubUserRepo) Create(ctx context.Context, user *models.User) error {
	if s.byEmail == nil {
		s.byEmail = make(map[string]models.User)
	}
	if user.ID == "" {
		user.ID = "generated"
	}
	s.byEmail[user.Email] = *user
	return nil
}

func (s *stubUserRepo) SetRole(ctx context.Context, id string, role models.UserRole, updatedAt time.Time) error {
	u, ok := s.byID[id]
	if !ok {
		return sql.ErrNoRows
	}
	u.Role = role
	s.byID[id] = u
	return nil
}

func (s *stubUserRepo) Delete(ctx context.Context, id string) error {
	if _, ok := s.byID[id]; !ok {
		return sql.ErrNoRows
	}
	delete(s.byID, id)
	return nil
}

func (s *stubUserRepo) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	return nil
}

func setClaims(email string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ContextUserKey, &models.JWTClaims{Email: email})
	}
}

func probeRouter(repo *stubUserRepo, claimsEmail string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewUserHandler(service.NewUserService(repo, nil, nil))
	r := gin.New()
	group := r.Group("", setClaims(claimsEmail))
	group.GET("/users/admin/:email", h.IsAdmin)
	group.GET("/users/instructor/:email", h.IsInstructor)
	return r
}

func decodeProbe(t *testing.T, w *httptest.ResponseRecorder, key string) bool {
	t.Helper()
	var body struct {
		Data map[string]bool `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	value, ok := body.Data[key]
	require.True(t, ok)
	return value
}

func TestRoleProbeAnswersForOwnEmail(t *testing.T) {
	repo := &stubUserRepo{byEmail: map[string]models.User{
		"admin@example.com": {ID: "u1", Email: "admin@example.com", Role: models.RoleAdmin},
	}}
	r := probeRouter(repo, "admin@example.com")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/users/admin/admin@example.com", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decodeProbe(t, w, "admin"))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/users/instructor/admin@example.com", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.False(t, decodeProbe(t, w, "instructor"))
}

func TestRoleProbeDeniesForeignEmailWithoutLookup(t *testing.T) {
	repo := &stubUserRepo{byEmail: map[string]models.User{
		"admin@example.com": {ID: "u1", Email: "admin@example.com", Role: models.RoleAdmin},
	}}
	r := probeRouter(repo, "student@example.com")

	// asking about someone else's email yields a plain negative, no store read
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/users/admin/admin@example.com", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.False(t, decodeProbe(t, w, "admin"))
	assert.Zero(t, repo.lookups)
}

func TestRegisterIsIdempotentOverHTTP(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := &stubUserRepo{}
	h := NewUserHandler(service.NewUserService(repo, nil, nil))
	r := gin.New()
	r.POST("/users", h.Register)

	payload := `{"email":"alice@example.com","name":"Alice Levine"}`

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/users", strings.NewReader(payload)))
	assert.Equal(t, http.StatusCreated, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/users", strings.NewReader(payload)))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "alreadyRegistered")
}

func TestPromoteRejectsUnknownUser(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := &stubUserRepo{}
	h := NewUserHandler(service.NewUserService(repo, nil, nil))
	r := gin.New()
	r.PATCH("/users/admin/:id", setClaims("admin@example.com"), h.PromoteAdmin)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPatch, "/users/admin/missing", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
