package handler_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"github.com/museumtech/exhibition-manager/internal/config"
	"github.com/museumtech/exhibition-manager/internal/handler"
	"github.com/museumtech/exhibition-manager/internal/middleware"
	"github.com/museumtech/exhibition-manager/internal/repository"
	"github.com/museumtech/exhibition-manager/internal/router"
	"github.com/museumtech/exhibition-manager/internal/service"
	"github.com/museumtech/exhibition-manager/internal/testutil"
)

// newServer wires the full API against the test database, with caching
// disabled (nil Redis client makes the middleware a pass-through).
func newServer(t *testing.T) *echo.Echo {
	return newServerWithRedis(t, nil)
}

// newServerWithRedis wires the full API against the test database. With
// a real Redis client, GET responses are cached per admin and mutation
// handlers invalidate them before returning.
func newServerWithRedis(t *testing.T, rdb *redis.Client) *echo.Echo {
	t.Helper()
	db := testutil.SetupTestDB(t)

	cfg := config.Config{
		Env:             "test",
		JWTSecret:       "integration-test-secret",
		AccessTTLMin:    60,
		BcryptCost:      bcrypt.MinCost,
		FrontendBaseURL: "http://localhost:3000",
	}
	cacheCfg := config.CacheConfig{
		Enabled: true,
		Methods: map[string]bool{"GET": true},
		TTL:     time.Minute,
		Prefix:  "cache",
	}

	admins := repository.NewAdminRepo(db)
	exhibitions := repository.NewExhibitionRepo(db)
	stations := repository.NewStationRepo(db)
	events := service.NewContentPublisher(rdb, cacheCfg.Prefix)

	e := echo.New()
	router.RegisterRoutes(e)
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, admins))
	router.RegisterAdmin(e,
		handler.NewExhibitionHandler(cfg, exhibitions, events),
		handler.NewStationHandler(exhibitions, stations, events),
		cfg.JWTSecret,
		middleware.NewRedisCache(cacheCfg, rdb),
	)
	return e
}

func doJSON(t *testing.T, e *echo.Echo, method, path, token string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	var out map[string]any
	if rec.Body.Len() > 0 && strings.HasPrefix(rec.Body.String(), "{") {
		if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
			t.Fatalf("decode response %q: %v", rec.Body.String(), err)
		}
	}
	return rec, out
}

func doJSONList(t *testing.T, e *echo.Echo, path, token string) (*httptest.ResponseRecorder, []map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	var out []map[string]any
	if rec.Code == http.StatusOK {
		if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
			t.Fatalf("decode list %q: %v", rec.Body.String(), err)
		}
	}
	return rec, out
}

func registerAdmin(t *testing.T, e *echo.Echo, email string) string {
	t.Helper()
	rec, body := doJSON(t, e, http.MethodPost, "/api/admin/register", "",
		map[string]string{"email": email, "password": "secret123"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register %s: status %d body %s", email, rec.Code, rec.Body.String())
	}
	token, _ := body["token"].(string)
	if token == "" {
		t.Fatalf("register %s: no token in response", email)
	}
	return token
}

func createExhibition(t *testing.T, e *echo.Echo, token, title string) uint64 {
	t.Helper()
	rec, body := doJSON(t, e, http.MethodPost, "/api/exhibitions", token,
		map[string]string{"title": title})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create exhibition: status %d body %s", rec.Code, rec.Body.String())
	}
	id, _ := body["id"].(float64)
	return uint64(id)
}

func TestRegisterLoginLogout(t *testing.T) {
	e := newServer(t)

	rec, body := doJSON(t, e, http.MethodPost, "/api/admin/register", "",
		map[string]string{"email": "curator@museum.example", "password": "secret123"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: status %d body %s", rec.Code, rec.Body.String())
	}
	user, _ := body["user"].(map[string]any)
	if user["email"] != "curator@museum.example" {
		t.Errorf("registered user = %v", user)
	}

	// Same email again: conflict.
	rec, _ = doJSON(t, e, http.MethodPost, "/api/admin/register", "",
		map[string]string{"email": "curator@museum.example", "password": "other"})
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate register: status %d, want 409", rec.Code)
	}

	// Missing fields: bad request.
	rec, _ = doJSON(t, e, http.MethodPost, "/api/admin/register", "",
		map[string]string{"email": "x@y.z"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("register without password: status %d, want 400", rec.Code)
	}

	rec, body = doJSON(t, e, http.MethodPost, "/api/admin/login", "",
		map[string]string{"email": "curator@museum.example", "password": "secret123"})
	if rec.Code != http.StatusOK || body["token"] == "" {
		t.Fatalf("login: status %d body %s", rec.Code, rec.Body.String())
	}

	// Wrong password and unknown email must be indistinguishable.
	rec1, b1 := doJSON(t, e, http.MethodPost, "/api/admin/login", "",
		map[string]string{"email": "curator@museum.example", "password": "wrong"})
	rec2, b2 := doJSON(t, e, http.MethodPost, "/api/admin/login", "",
		map[string]string{"email": "ghost@museum.example", "password": "secret123"})
	if rec1.Code != http.StatusUnauthorized || rec2.Code != http.StatusUnauthorized {
		t.Errorf("bad logins: status %d / %d, want 401 / 401", rec1.Code, rec2.Code)
	}
	if b1["message"] != b2["message"] {
		t.Errorf("login failure messages differ: %q vs %q", b1["message"], b2["message"])
	}

	rec, _ = doJSON(t, e, http.MethodPost, "/api/admin/logout", "", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("logout: status %d, want 200", rec.Code)
	}
}

func TestExhibitionLifecycle(t *testing.T) {
	e := newServer(t)
	alice := registerAdmin(t, e, "alice@museum.example")
	bob := registerAdmin(t, e, "bob@museum.example")

	// No token at all: 401 before any handler runs.
	rec, _ := doJSON(t, e, http.MethodGet, "/api/exhibitions", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("unauthenticated list: status %d, want 401", rec.Code)
	}

	// Empty title is rejected before persistence.
	rec, _ = doJSON(t, e, http.MethodPost, "/api/exhibitions", alice, map[string]string{"title": "  "})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("empty title: status %d, want 400", rec.Code)
	}

	id := createExhibition(t, e, alice, "Impressionists")

	// Round trip.
	rec, body := doJSON(t, e, http.MethodGet, fmt.Sprintf("/api/exhibitions/%d", id), alice, nil)
	if rec.Code != http.StatusOK || body["title"] != "Impressionists" {
		t.Fatalf("get: status %d body %s", rec.Code, rec.Body.String())
	}

	// Bob cannot see Alice's exhibition and cannot tell it exists.
	rec, _ = doJSON(t, e, http.MethodGet, fmt.Sprintf("/api/exhibitions/%d", id), bob, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("cross-owner get: status %d, want 404", rec.Code)
	}

	// Update reflects on the next fetch.
	rec, _ = doJSON(t, e, http.MethodPut, fmt.Sprintf("/api/exhibitions/%d", id), alice,
		map[string]string{"title": "Monet and friends", "description": "updated"})
	if rec.Code != http.StatusOK {
		t.Fatalf("update: status %d body %s", rec.Code, rec.Body.String())
	}
	_, body = doJSON(t, e, http.MethodGet, fmt.Sprintf("/api/exhibitions/%d", id), alice, nil)
	if body["title"] != "Monet and friends" || body["description"] != "updated" {
		t.Errorf("update not reflected: %v", body)
	}

	// Delete returns the removed record.
	rec, body = doJSON(t, e, http.MethodDelete, fmt.Sprintf("/api/exhibitions/%d", id), alice, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete: status %d body %s", rec.Code, rec.Body.String())
	}
	if ex, _ := body["exhibition"].(map[string]any); ex["title"] != "Monet and friends" {
		t.Errorf("delete body = %v", body)
	}
	rec, list := doJSONList(t, e, "/api/exhibitions", alice)
	if rec.Code != http.StatusOK || len(list) != 0 {
		t.Errorf("list after delete: status %d, %d items", rec.Code, len(list))
	}
}

func TestStationLifecycle(t *testing.T) {
	e := newServer(t)
	alice := registerAdmin(t, e, "alice@museum.example")
	bob := registerAdmin(t, e, "bob@museum.example")
	exID := createExhibition(t, e, alice, "Space")

	texts := map[string]any{"de": "Mond", "en": "Moon"}

	// Invalid texts fail before persistence.
	for name, bad := range map[string]any{
		"empty object":     map[string]any{},
		"non-string value": map[string]any{"en": 42},
		"not an object":    []string{"en"},
	} {
		rec, _ := doJSON(t, e, http.MethodPost, fmt.Sprintf("/api/exhibitions/%d/stations", exID), alice,
			map[string]any{"title": "Moon", "texts": bad})
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status %d, want 400", name, rec.Code)
		}
	}

	// Creating under a foreign exhibition reads as not found.
	rec, _ := doJSON(t, e, http.MethodPost, fmt.Sprintf("/api/exhibitions/%d/stations", exID), bob,
		map[string]any{"title": "Moon", "texts": texts})
	if rec.Code != http.StatusNotFound {
		t.Errorf("foreign parent create: status %d, want 404", rec.Code)
	}

	rec, body := doJSON(t, e, http.MethodPost, fmt.Sprintf("/api/exhibitions/%d/stations", exID), alice,
		map[string]any{"title": "Moon", "texts": texts})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create station: status %d body %s", rec.Code, rec.Body.String())
	}
	stID := uint64(body["id"].(float64))
	if got, _ := body["texts"].(map[string]any); got["de"] != "Mond" {
		t.Errorf("created texts = %v", got)
	}

	// Get: owner sees it, foreign admin gets 403, unknown id 404.
	rec, _ = doJSON(t, e, http.MethodGet, fmt.Sprintf("/api/stations/%d", stID), alice, nil)
	if rec.Code != http.StatusOK {
		t.Errorf("owner get station: status %d", rec.Code)
	}
	rec, _ = doJSON(t, e, http.MethodGet, fmt.Sprintf("/api/stations/%d", stID), bob, nil)
	if rec.Code != http.StatusForbidden {
		t.Errorf("foreign get station: status %d, want 403", rec.Code)
	}
	rec, _ = doJSON(t, e, http.MethodGet, "/api/stations/999999", alice, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing station: status %d, want 404", rec.Code)
	}

	// Update: foreign admin and missing ids collapse to 403 on this path.
	rec, _ = doJSON(t, e, http.MethodPut, fmt.Sprintf("/api/stations/%d", stID), bob,
		map[string]any{"title": "Hijack", "texts": texts})
	if rec.Code != http.StatusForbidden {
		t.Errorf("foreign update: status %d, want 403", rec.Code)
	}
	rec, body = doJSON(t, e, http.MethodPut, fmt.Sprintf("/api/stations/%d", stID), alice,
		map[string]any{"title": "Luna", "texts": map[string]any{"la": "Luna"}})
	if rec.Code != http.StatusOK || body["title"] != "Luna" {
		t.Fatalf("update station: status %d body %s", rec.Code, rec.Body.String())
	}

	// List is scoped through the parent and ordered by creation.
	rec, list := doJSONList(t, e, fmt.Sprintf("/api/exhibitions/%d/stations", exID), alice)
	if rec.Code != http.StatusOK || len(list) != 1 {
		t.Fatalf("list stations: status %d, %d items", rec.Code, len(list))
	}

	// Delete, then the parent list still works but is empty.
	rec, body = doJSON(t, e, http.MethodDelete, fmt.Sprintf("/api/stations/%d", stID), alice, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete station: status %d body %s", rec.Code, rec.Body.String())
	}
	if st, _ := body["station"].(map[string]any); st["title"] != "Luna" {
		t.Errorf("delete body = %v", body)
	}

	// Deleting the exhibition removes remaining stations and makes the
	// nested list read as not found, not as an empty list.
	stID2Rec, _ := doJSON(t, e, http.MethodPost, fmt.Sprintf("/api/exhibitions/%d/stations", exID), alice,
		map[string]any{"title": "Mars", "texts": map[string]any{"en": "Mars"}})
	if stID2Rec.Code != http.StatusCreated {
		t.Fatalf("recreate station: status %d", stID2Rec.Code)
	}
	rec, _ = doJSON(t, e, http.MethodDelete, fmt.Sprintf("/api/exhibitions/%d", exID), alice, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete exhibition: status %d", rec.Code)
	}
	rec, _ = doJSON(t, e, http.MethodGet, fmt.Sprintf("/api/exhibitions/%d/stations", exID), alice, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("stations of deleted exhibition: status %d, want 404", rec.Code)
	}
}

// With the response cache active, an update must be visible on the very
// next fetch; the mutation handler drops the admin's cached entries
// before responding instead of waiting for a broker round trip.
func TestUpdateReflectsImmediatelyWithCache(t *testing.T) {
	rdb := testutil.SetupTestRedis(t)
	e := newServerWithRedis(t, rdb)
	alice := registerAdmin(t, e, "alice@museum.example")
	id := createExhibition(t, e, alice, "Before")

	// Prime the cache, then confirm the second fetch is a hit.
	rec, _ := doJSON(t, e, http.MethodGet, fmt.Sprintf("/api/exhibitions/%d", id), alice, nil)
	if rec.Code != http.StatusOK || rec.Header().Get("X-Cache") != "MISS" {
		t.Fatalf("first get: status %d, X-Cache %q", rec.Code, rec.Header().Get("X-Cache"))
	}
	rec, body := doJSON(t, e, http.MethodGet, fmt.Sprintf("/api/exhibitions/%d", id), alice, nil)
	if rec.Header().Get("X-Cache") != "HIT" || body["title"] != "Before" {
		t.Fatalf("second get: X-Cache %q, title %v", rec.Header().Get("X-Cache"), body["title"])
	}

	rec, _ = doJSON(t, e, http.MethodPut, fmt.Sprintf("/api/exhibitions/%d", id), alice,
		map[string]string{"title": "After"})
	if rec.Code != http.StatusOK {
		t.Fatalf("update: status %d body %s", rec.Code, rec.Body.String())
	}

	rec, body = doJSON(t, e, http.MethodGet, fmt.Sprintf("/api/exhibitions/%d", id), alice, nil)
	if rec.Code != http.StatusOK || body["title"] != "After" {
		t.Fatalf("get after update: status %d, title %v (X-Cache %q)",
			rec.Code, body["title"], rec.Header().Get("X-Cache"))
	}

	// The list is cached under the same owner prefix and must be fresh
	// too after the next mutation.
	rec, list := doJSONList(t, e, "/api/exhibitions", alice)
	if rec.Code != http.StatusOK || len(list) != 1 || list[0]["title"] != "After" {
		t.Fatalf("list: status %d, %v", rec.Code, list)
	}
	rec, _ = doJSON(t, e, http.MethodDelete, fmt.Sprintf("/api/exhibitions/%d", id), alice, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete: status %d", rec.Code)
	}
	rec, list = doJSONList(t, e, "/api/exhibitions", alice)
	if rec.Code != http.StatusOK || len(list) != 0 {
		t.Errorf("list after delete: status %d, %d items", rec.Code, len(list))
	}
}

func TestQRCodeEndpoint(t *testing.T) {
	e := newServer(t)
	alice := registerAdmin(t, e, "alice@museum.example")
	bob := registerAdmin(t, e, "bob@museum.example")
	exID := createExhibition(t, e, alice, "Impressionists")

	rec, body := doJSON(t, e, http.MethodGet, fmt.Sprintf("/api/exhibitions/%d/qrcode", exID), alice, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("qrcode: status %d body %s", rec.Code, rec.Body.String())
	}
	visitorURL, _ := body["visitorUrl"].(string)
	if !strings.Contains(visitorURL, fmt.Sprintf("/visitor/exhibition/%d", exID)) {
		t.Errorf("visitorUrl = %q does not contain the exhibition id", visitorURL)
	}
	dataURL, _ := body["qrCodeDataUrl"].(string)
	if !strings.HasPrefix(dataURL, "data:image/png;base64,") || len(dataURL) < 100 {
		t.Errorf("qrCodeDataUrl looks wrong (len %d)", len(dataURL))
	}
	if body["exhibitionTitle"] != "Impressionists" {
		t.Errorf("exhibitionTitle = %v", body["exhibitionTitle"])
	}

	rec, _ = doJSON(t, e, http.MethodGet, fmt.Sprintf("/api/exhibitions/%d/qrcode", exID), bob, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("foreign qrcode: status %d, want 404", rec.Code)
	}
	rec, _ = doJSON(t, e, http.MethodGet, "/api/exhibitions/999999/qrcode", alice, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing qrcode: status %d, want 404", rec.Code)
	}
}
