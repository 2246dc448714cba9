package auth

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mealdesk/internal/models"
	"mealdesk/internal/panel"
	"mealdesk/internal/store"
)

var quiet = log.New(io.Discard, "", 0)

type noProfiles struct {
	*store.FileStore
}

func (noProfiles) InsertUser(context.Context, models.User) (models.User, error) {
	return models.User{}, errors.New("profiles table unavailable")
}

func newService(t *testing.T) (*Service, *panel.Panel, *store.FileStore) {
	t.Helper()
	fs, err := store.OpenFile("", nil)
	require.NoError(t, err)
	p := panel.New(fs, panel.WithLogger(quiet))
	return NewService(fs, p, "test-secret", time.Hour, quiet), p, fs
}

func TestRegisterCreatesProfileWithCredentialID(t *testing.T) {
	svc, p, fs := newService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, panel.UserForm{Name: " Ada ", Office: "Ofis 1", Password: "123"})
	require.NoError(t, err)
	assert.Equal(t, "Ada", user.Name)

	cred, err := fs.FindCredential(ctx, "Ada")
	require.NoError(t, err)
	assert.Equal(t, cred.ID, user.ID)
	assert.NotEqual(t, "123", cred.PasswordHash)
	assert.Equal(t, []models.User{user}, p.Users())
}

func TestRegisterValidation(t *testing.T) {
	svc, p, _ := newService(t)
	ctx := context.Background()

	for _, form := range []panel.UserForm{
		{Office: "Ofis 1", Password: "x"},
		{Name: "Ada", Password: "x"},
		{Name: "Ada", Office: "Ofis 1"},
		{Name: "Ada", Office: "Ofis 7", Password: "x"},
	} {
		_, err := svc.Register(ctx, form)
		assert.ErrorIs(t, err, panel.ErrIncomplete)
	}
	assert.Empty(t, p.Users())

	_, err := svc.Register(ctx, panel.UserForm{Name: "Ada", Office: "Ofis 1", Password: "x"})
	require.NoError(t, err)
	_, err = svc.Register(ctx, panel.UserForm{Name: "Ada", Office: "Ofis 2", Password: "y"})
	assert.ErrorIs(t, err, ErrLoginTaken)
}

func TestRegisterSameNameWithDistinctLogins(t *testing.T) {
	svc, p, _ := newService(t)
	ctx := context.Background()

	first, err := svc.Register(ctx, panel.UserForm{Name: "Ada", Office: "Ofis 1", Password: "one"})
	require.NoError(t, err)
	second, err := svc.Register(ctx, panel.UserForm{Name: "Ada", Login: " ada.k ", Office: "Ofis 3", Password: "two"})
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Len(t, p.Users(), 2)

	token, err := svc.Login(ctx, "ada.k", "two")
	require.NoError(t, err)
	claims, err := ParseToken(svc.Secret(), token)
	require.NoError(t, err)
	assert.Equal(t, "Ada", claims.Name)
	assert.Equal(t, "Ofis 3", claims.Office)
	assert.Equal(t, strconv.FormatInt(second.ID, 10), claims.Subject)
}

func TestRegisterLeavesOrphanCredential(t *testing.T) {
	fs, err := store.OpenFile("", nil)
	require.NoError(t, err)
	p := panel.New(noProfiles{fs}, panel.WithLogger(quiet))
	svc := NewService(fs, p, "s", time.Hour, quiet)
	ctx := context.Background()

	_, err = svc.Register(ctx, panel.UserForm{Name: "Ada", Office: "Ofis 1", Password: "123"})
	require.Error(t, err)
	assert.Empty(t, p.Users())

	_, err = fs.FindCredential(ctx, "Ada")
	assert.NoError(t, err, "the credential from step one stays")
}

func TestLogin(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, panel.UserForm{Name: "Ada", Office: "Ofis 2", Password: "secret"})
	require.NoError(t, err)

	_, err = svc.Login(ctx, "Ada", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Login(ctx, "Bob", "secret")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	token, err := svc.Login(ctx, "Ada", "secret")
	require.NoError(t, err)

	claims, err := ParseToken(svc.Secret(), token)
	require.NoError(t, err)
	assert.Equal(t, strconv.FormatInt(user.ID, 10), claims.Subject)
	assert.Equal(t, "Ofis 2", claims.Office)

	_, err = ParseToken([]byte("other"), token)
	assert.Error(t, err)
}

func TestExpiredToken(t *testing.T) {
	svc, _, _ := newService(t)
	svc.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	token, err := svc.issue(1, "Ada", "Ofis 1")
	require.NoError(t, err)
	_, err = ParseToken(svc.Secret(), token)
	assert.Error(t, err)
}

func TestMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc, _, _ := newService(t)
	token, err := svc.issue(7, "Ada", "Ofis 1")
	require.NoError(t, err)

	router := gin.New()
	router.GET("/private", Middleware(svc.Secret()), func(c *gin.Context) {
		claims := c.MustGet(ContextClaims).(*Claims)
		c.JSON(http.StatusOK, gin.H{"sub": claims.Subject})
	})
	router.GET("/page", RequireLogin(svc.Secret(), "/ui/login"), func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	tests := []struct {
		name   string
		path   string
		header string
		cookie string
		want   int
	}{
		{"no token", "/private", "", "", http.StatusUnauthorized},
		{"bad token", "/private", "Bearer nope", "", http.StatusUnauthorized},
		{"bearer", "/private", "Bearer " + token, "", http.StatusOK},
		{"cookie", "/private", "", token, http.StatusOK},
		{"page redirect", "/page", "", "", http.StatusSeeOther},
		{"page cookie", "/page", "", token, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: CookieName, Value: tt.cookie})
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}
