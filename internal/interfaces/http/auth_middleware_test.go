package http_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apphttp "github.com/jhoicas/Comercio-api/internal/interfaces/http"
	pkgjwt "github.com/jhoicas/Comercio-api/pkg/jwt"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

const (
	testJWTSecret = "test-secret-key-for-unit-tests"
	testUserID    = "00000000-0000-0000-0000-000000000001"
	testIssuer    = "comercio-api-test"
	testExpMin    = 60
)

// buildTestApp construye una aplicación Fiber mínima con el middleware de auth
// y una ruta por tienda que verifica el acceso del actor.
func buildTestApp() *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: apphttp.ErrorHandler})
	app.Get("/stores/:storeId/ping",
		apphttp.AuthMiddleware(testJWTSecret),
		func(c *fiber.Ctx) error {
			if err := apphttp.RequireStoreAccess(c, c.Params("storeId")); err != nil {
				return err
			}
			return c.JSON(fiber.Map{"userId": apphttp.GetUserID(c)})
		},
	)
	return app
}

func tokenFor(t *testing.T, role string, storeIDs []string) string {
	t.Helper()
	tok, err := pkgjwt.Generate(testJWTSecret, testUserID, role, storeIDs, testIssuer, testExpMin)
	require.NoError(t, err, "debe generarse un token JWT válido")
	return "Bearer " + tok
}

func doRequest(t *testing.T, app *fiber.App, path, authHeader string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

// ──────────────────────────────────────────────────────────────────────────────
// AuthMiddleware
// ──────────────────────────────────────────────────────────────────────────────

func TestAuth_SinTokenRechaza(t *testing.T) {
	app := buildTestApp()
	resp := doRequest(t, app, "/stores/magasin-a/ping", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAuth_TokenMalFormadoRechaza(t *testing.T) {
	app := buildTestApp()
	resp := doRequest(t, app, "/stores/magasin-a/ping", "Token abc")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = doRequest(t, app, "/stores/magasin-a/ping", "Bearer not-a-jwt")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAuth_FirmaIncorrectaRechaza(t *testing.T) {
	app := buildTestApp()
	tok, err := pkgjwt.Generate("otro-secreto", testUserID, "vendedor", nil, testIssuer, testExpMin)
	require.NoError(t, err)
	resp := doRequest(t, app, "/stores/magasin-a/ping", "Bearer "+tok)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

// ──────────────────────────────────────────────────────────────────────────────
// Acceso por tienda
// ──────────────────────────────────────────────────────────────────────────────

func TestStoreAccess_TiendaPermitida(t *testing.T) {
	app := buildTestApp()
	auth := tokenFor(t, "vendedor", []string{"magasin-a", "magasin-b"})
	resp := doRequest(t, app, "/stores/magasin-a/ping", auth)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestStoreAccess_TiendaAjenaRechaza(t *testing.T) {
	app := buildTestApp()
	auth := tokenFor(t, "vendedor", []string{"magasin-a"})
	resp := doRequest(t, app, "/stores/magasin-c/ping", auth)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestStoreAccess_AdminAccedeATodas(t *testing.T) {
	app := buildTestApp()
	auth := tokenFor(t, "admin", nil)
	resp := doRequest(t, app, "/stores/magasin-z/ping", auth)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
