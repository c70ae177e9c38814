package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func jwtTestRouter(m *JwtManager) chi.Router {
	r := chi.NewRouter()
	r.Use(m.Verifier(), m.Authenticator())
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		userId, err := ValueFromContext(r, userIdKey)
		if err != nil {
			http.Error(w, err.Error(), http.StatusUnauthorized)
			return
		}
		w.Write([]byte(userId))
	})
	return r
}

func TestJwtRoundTrip(t *testing.T) {
	manager := NewJwtManager([]byte("test-secret"))
	userId := uuid.New()

	token, err := manager.CreateUserJwt(userId, time.Minute)
	assert.NoError(t, err)

	router := jwtTestRouter(manager)

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, userId.String(), w.Body.String())
}

func TestJwtRejectsBadTokens(t *testing.T) {
	manager := NewJwtManager([]byte("test-secret"))
	router := jwtTestRouter(manager)

	// No token at all.
	req := httptest.NewRequest("GET", "/", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Token signed with a different secret.
	other := NewJwtManager([]byte("other-secret"))
	token, err := other.CreateUserJwt(uuid.New(), time.Minute)
	assert.NoError(t, err)

	req = httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestJwtRejectsExpiredToken(t *testing.T) {
	manager := NewJwtManager([]byte("test-secret"))

	token, err := manager.CreateUserJwt(uuid.New(), -time.Minute)
	assert.NoError(t, err)

	router := jwtTestRouter(manager)

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
