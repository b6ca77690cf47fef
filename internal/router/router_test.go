package router

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/auth-service/internal/config"
	"github.com/iliyamo/auth-service/internal/handler"
	"github.com/iliyamo/auth-service/internal/keys"
	"github.com/iliyamo/auth-service/internal/logging"
	"github.com/iliyamo/auth-service/internal/service"
	"github.com/iliyamo/auth-service/internal/testutil"
)

const (
	issuer = "auth-service"
	secret = "refresh-secret"
)

type app struct {
	e        *echo.Echo
	users    *testutil.Users
	records  *testutil.RefreshTokens
	denylist *testutil.Denylist
}

func newApp(t *testing.T) app {
	t.Helper()
	log := logging.Discard()
	loader := keys.NewStaticLoader(testutil.RSAKey(t))
	a := app{
		e:        echo.New(),
		users:    testutil.NewUsers(),
		records:  testutil.NewRefreshTokens(),
		denylist: testutil.NewDenylist(),
	}
	tokens := service.NewTokenService(loader, secret, issuer, time.Hour, 365*24*time.Hour, a.records)
	auth := service.NewAuthService(a.users, tokens, a.denylist, nil, log, 4)

	a.e.HTTPErrorHandler = handler.ErrorHandler(log)
	RegisterRoutes(a.e, loader)
	RegisterAuth(a.e, handler.NewAuthHandler(auth, config.CookieConfig{Domain: "localhost"}), Deps{
		Keys:          loader,
		Issuer:        issuer,
		RefreshSecret: []byte(secret),
		Records:       a.records,
		Denylist:      a.denylist,
		Log:           log,
	})
	return a
}

func (a app) do(method, path, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

func tokenCookies(rec *httptest.ResponseRecorder) map[string]*http.Cookie {
	out := map[string]*http.Cookie{}
	for _, c := range rec.Result().Cookies() {
		out[c.Name] = c
	}
	return out
}

func errorsOf(t *testing.T, rec *httptest.ResponseRecorder) []handler.ErrorItem {
	t.Helper()
	var body handler.ErrorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Errors
}

const lokesh = `{"firstName":"Lokesh","lastName":"Jha","email":"lokesh@mern.space","password":"password"}`

func TestRegister_SetsTwoSignedCookies(t *testing.T) {
	a := newApp(t)

	rec := a.do(http.MethodPost, "/auth/register", lokesh)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var body struct {
		ID uint64 `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotZero(t, body.ID)

	cookies := tokenCookies(rec)
	require.Len(t, cookies, 2)
	for _, name := range []string{"accessToken", "refreshToken"} {
		c := cookies[name]
		require.NotNil(t, c, name)
		assert.True(t, c.HttpOnly)
		assert.Equal(t, http.SameSiteStrictMode, c.SameSite)
		assert.Equal(t, "localhost", c.Domain)
		parts := strings.Split(c.Value, ".")
		require.Len(t, parts, 3)
		for _, p := range parts {
			_, err := base64.RawURLEncoding.DecodeString(p)
			assert.NoError(t, err)
		}
	}
	assert.Equal(t, 3600, cookies["accessToken"].MaxAge)
	assert.Equal(t, 31536000, cookies["refreshToken"].MaxAge)
}

func TestRegister_Validation(t *testing.T) {
	a := newApp(t)

	rec := a.do(http.MethodPost, "/auth/register", `{"email":"bad","password":"short"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	items := errorsOf(t, rec)
	msgs := map[string]string{}
	for _, it := range items {
		assert.Equal(t, "body", it.Location)
		msgs[it.Path] = it.Msg
	}
	assert.Equal(t, "Not a valid email!", msgs["email"])
	assert.Equal(t, "First name is required!", msgs["firstName"])
	assert.Equal(t, "Password length should be at least of 8 chars!", msgs["password"])
	assert.NotContains(t, rec.Body.String(), "short")
	assert.Zero(t, a.records.Len())
}

func TestRegister_DuplicateEmail(t *testing.T) {
	a := newApp(t)
	require.Equal(t, http.StatusCreated, a.do(http.MethodPost, "/auth/register", lokesh).Code)

	rec := a.do(http.MethodPost, "/auth/register", lokesh)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 1, a.users.CountEmail("lokesh@mern.space"))
}

func TestSelf_OmitsPassword(t *testing.T) {
	a := newApp(t)
	cookies := tokenCookies(a.do(http.MethodPost, "/auth/register", lokesh))

	rec := a.do(http.MethodGet, "/auth/self", "", cookies["accessToken"])
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotContains(t, body, "password")
	assert.Equal(t, "lokesh@mern.space", body["email"])
	assert.Equal(t, "Lokesh", body["firstName"])
	assert.Equal(t, "customer", body["role"])
}

func TestSelf_RequiresToken(t *testing.T) {
	a := newApp(t)

	rec := a.do(http.MethodGet, "/auth/self", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Len(t, errorsOf(t, rec), 1)
}

func TestLogin_AntiEnumeration(t *testing.T) {
	a := newApp(t)
	a.do(http.MethodPost, "/auth/register", lokesh)

	unknown := a.do(http.MethodPost, "/auth/login", `{"email":"nobody@mern.space","password":"password"}`)
	wrong := a.do(http.MethodPost, "/auth/login", `{"email":"lokesh@mern.space","password":"wrong-password"}`)

	require.Equal(t, http.StatusBadRequest, unknown.Code)
	require.Equal(t, http.StatusBadRequest, wrong.Code)
	assert.Equal(t, errorsOf(t, unknown)[0].Msg, errorsOf(t, wrong)[0].Msg)
	assert.Equal(t, "Email or password does not match!", errorsOf(t, wrong)[0].Msg)
}

func TestLogin_SetsCookies(t *testing.T) {
	a := newApp(t)
	a.do(http.MethodPost, "/auth/register", lokesh)

	rec := a.do(http.MethodPost, "/auth/login", `{"email":"LOKESH@mern.space ","password":"password"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Len(t, tokenCookies(rec), 2)
}

func TestRefresh_Rotates(t *testing.T) {
	a := newApp(t)
	first := tokenCookies(a.do(http.MethodPost, "/auth/register", lokesh))

	rec := a.do(http.MethodPost, "/auth/refresh", "", first["refreshToken"])
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	second := tokenCookies(rec)
	require.Len(t, second, 2)
	assert.NotEqual(t, first["refreshToken"].Value, second["refreshToken"].Value)

	again := a.do(http.MethodPost, "/auth/refresh", "", first["refreshToken"])
	assert.Equal(t, http.StatusUnauthorized, again.Code)
}

func TestLogout_RevokesRefreshToken(t *testing.T) {
	a := newApp(t)
	cookies := tokenCookies(a.do(http.MethodPost, "/auth/register", lokesh))

	rec := a.do(http.MethodPost, "/auth/logout", "", cookies["accessToken"], cookies["refreshToken"])
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{}`, rec.Body.String())
	for _, c := range tokenCookies(rec) {
		assert.Empty(t, c.Value)
		assert.Negative(t, c.MaxAge)
	}

	refresh := a.do(http.MethodPost, "/auth/refresh", "", cookies["refreshToken"])
	assert.Equal(t, http.StatusUnauthorized, refresh.Code)

	self := a.do(http.MethodGet, "/auth/self", "", cookies["accessToken"])
	assert.Equal(t, http.StatusUnauthorized, self.Code)
}

func TestLogout_RequiresBothTokens(t *testing.T) {
	a := newApp(t)
	cookies := tokenCookies(a.do(http.MethodPost, "/auth/register", lokesh))

	assert.Equal(t, http.StatusUnauthorized, a.do(http.MethodPost, "/auth/logout", "", cookies["accessToken"]).Code)
	assert.Equal(t, http.StatusUnauthorized, a.do(http.MethodPost, "/auth/logout", "", cookies["refreshToken"]).Code)
}

func TestPublicRoutes(t *testing.T) {
	a := newApp(t)

	assert.Equal(t, "ok", a.do(http.MethodGet, "/healthz", "").Body.String())
	assert.Equal(t, http.StatusOK, a.do(http.MethodGet, "/", "").Code)

	rec := a.do(http.MethodGet, "/.well-known/jwks.json", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var set keys.JWKSet
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &set))
	require.Len(t, set.Keys, 1)
	assert.Equal(t, "RS256", set.Keys[0].Alg)
	assert.NotEmpty(t, set.Keys[0].Kid)
}
