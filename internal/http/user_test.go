package handlers_test

import (
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister(t *testing.T) {
	app, db := newApp(t)

	resp, env := call(t, app, "POST", "/api/user/register", map[string]any{
		"username": "asha", "email": "asha@example.com", "contact_no": "9876543210", "password": "secret123",
	}, "")
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	assert.Equal(t, "User registered successfully", env.Message)
	data := decode[map[string]any](t, env.Data)
	assert.EqualValues(t, 1, data["userId"])
	assert.Equal(t, "9876543210", data["contact_no"])
	assert.NotContains(t, string(env.Data), "secret123")

	var hash string
	require.NoError(t, db.Get(&hash, `SELECT password_hash FROM users WHERE email='asha@example.com'`))
	assert.NotEqual(t, "secret123", hash)

	resp, env = call(t, app, "POST", "/api/user/register", map[string]any{
		"username": "other", "email": "asha@example.com", "contact_no": "9000000000", "password": "secret123",
	}, "")
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
	assert.Equal(t, "User with this email already exists", env.Message)

	resp, env = call(t, app, "POST", "/api/user/register", map[string]any{"username": "x"}, "")
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Please provide all required fields", env.Message)
}

func TestLogin(t *testing.T) {
	app, _ := newApp(t)
	signup(t, app, "asha", "asha@example.com", "9876543210")

	resp, env := call(t, app, "POST", "/api/user/login", map[string]any{"email": "asha@example.com", "password": "secret123"}, "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "Login successful", env.Message)
	assert.NotContains(t, string(env.Data), "password_hash")

	ck := cookie(resp, "Authorization")
	require.NotNil(t, ck)
	assert.True(t, ck.HttpOnly)
	assert.Equal(t, http.SameSiteStrictMode, ck.SameSite)
	assert.NotEmpty(t, ck.Value)

	resp, env = call(t, app, "POST", "/api/user/login", map[string]any{"email": "asha@example.com", "password": "wrong-pass"}, "")
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Invalid password.", env.Message)

	resp, env = call(t, app, "POST", "/api/user/login", map[string]any{"contact_no": "9000000000", "password": "secret123"}, "")
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "User not found.", env.Message)

	resp, env = call(t, app, "POST", "/api/user/login", map[string]any{"password": "secret123"}, "")
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Please provide either contact number or email, and password.", env.Message)
}

func TestLoginIsRateLimited(t *testing.T) {
	app, _ := newApp(t)

	var entries []logEntry
	var last int
	entries = captureLogs(t, func() {
		for i := 0; i < 6; i++ {
			resp, _ := call(t, app, "POST", "/api/user/login", map[string]any{"email": "nobody@example.com", "password": "secret123"}, "")
			last = resp.StatusCode
		}
	})
	assert.Equal(t, fiber.StatusTooManyRequests, last)
	assert.NotNil(t, findLog(entries, "rate.login.hit"))
}

func TestSecondLoginRevokesFirstToken(t *testing.T) {
	app, _ := newApp(t)
	signup(t, app, "asha", "asha@example.com", "9876543210")
	first := login(t, app, "asha@example.com")
	second := login(t, app, "asha@example.com")

	resp, env := call(t, app, "GET", "/api/user/profile", nil, first)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Token revoked or invalid. Please login again.", env.Message)

	resp, _ = call(t, app, "GET", "/api/user/profile", nil, second)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestLogout(t *testing.T) {
	app, _ := newApp(t)
	signup(t, app, "asha", "asha@example.com", "9876543210")
	tok := login(t, app, "asha@example.com")

	var status int
	entries := captureLogs(t, func() {
		resp, _ := call(t, app, "POST", "/api/user/logout", nil, tok)
		status = resp.StatusCode
		ck := cookie(resp, "Authorization")
		require.NotNil(t, ck)
		assert.Empty(t, ck.Value)
	})
	assert.Equal(t, fiber.StatusOK, status)
	assert.NotNil(t, findLog(entries, "auth.logout"))

	resp, _ := call(t, app, "GET", "/api/user/profile", nil, tok)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestProfile(t *testing.T) {
	app, _ := newApp(t)
	signup(t, app, "asha", "asha@example.com", "9876543210")
	signup(t, app, "bala", "bala@example.com", "9876543211")
	tok := login(t, app, "asha@example.com")

	resp, env := call(t, app, "GET", "/api/user/profile", nil, tok)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	u := decode[map[string]any](t, env.Data)
	assert.Equal(t, "asha", u["username"])
	assert.NotContains(t, u, "password_hash")

	resp, env = call(t, app, "PUT", "/api/user/profile", map[string]any{
		"username": "Asha K", "email": "asha@example.com", "contact_number": "9876543210", "address": "12 MG Road",
	}, tok)
	require.Equal(t, fiber.StatusOK, resp.StatusCode, env.Message)
	u = decode[map[string]any](t, env.Data)
	assert.Equal(t, "Asha K", u["username"])
	assert.Equal(t, "12 MG Road", u["address"])

	resp, env = call(t, app, "PUT", "/api/user/profile", map[string]any{
		"username": "Asha", "email": "bala@example.com", "contact_number": "9876543210",
	}, tok)
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
	assert.Equal(t, "Email already in use by another account", env.Message)

	resp, _ = call(t, app, "GET", "/api/user/profile", nil, "")
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}
