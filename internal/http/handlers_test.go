package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/karloscodes/cartridge"
	cartridgetest "github.com/karloscodes/cartridge/testsupport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"charsheet/internal"
	"charsheet/internal/attributes"
	"charsheet/internal/config"
	apphttp "charsheet/internal/http"
	"charsheet/internal/inventory"
	"charsheet/internal/pkg/async"
	"charsheet/internal/profiles"
	"charsheet/internal/storage"
	"charsheet/internal/testsupport"
)

type testServer struct {
	app      *fiber.App
	handlers *apphttp.Handlers
	store    *profiles.Store
	kv       *storage.Store
}

type brokenPinger struct{}

func (brokenPinger) Ping(context.Context) error { return errors.New("disk gone") }

func newTestServer(t *testing.T, pinger apphttp.Pinger) *testServer {
	t.Helper()
	logger := testsupport.GetLogger()
	kv := testsupport.SetupTestStorage(t)
	writer := async.NewWriteBehind(time.Hour, logger)
	t.Cleanup(func() { writer.Close(context.Background()) })

	store := profiles.NewStore(kv, writer, logger)
	store.LoadProfiles(context.Background())
	inv := inventory.NewStore(kv, writer, logger)
	if pinger == nil {
		pinger = kv
	}

	h := apphttp.NewHandlers(store, inv, pinger, attributes.ForLocale(config.LocaleEnglish), logger)
	cfg := &config.Config{Environment: config.Test, PublicAssetsUrlPrefix: "/assets", PublicDirectory: t.TempDir()}
	ts := cartridgetest.NewTestServer(t, cartridgetest.TestServerOptions{
		RouteMountFunc: func(srv *cartridge.Server) {
			internal.MountAppRoutes(srv, h, cfg)
		},
		DisableMiddleware: true,
	})

	return &testServer{app: ts.App, handlers: h, store: store, kv: kv}
}

func (s *testServer) do(t *testing.T, method, path, body string) (int, []byte) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, data
}

func decode[T any](t *testing.T, data []byte) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(data, &out), string(data))
	return out
}

func TestHealthIndexAction(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		srv := newTestServer(t, nil)
		status, body := srv.do(t, nethttp.MethodGet, "/health", "")
		assert.Equal(t, fiber.StatusOK, status)
		health := decode[apphttp.HealthStatus](t, body)
		assert.Equal(t, "ok", health.Status)
		assert.Equal(t, "ok", health.DBStatus)
	})

	t.Run("degraded when storage is unreachable", func(t *testing.T) {
		srv := newTestServer(t, brokenPinger{})
		status, body := srv.do(t, nethttp.MethodGet, "/health", "")
		assert.Equal(t, fiber.StatusOK, status)
		health := decode[apphttp.HealthStatus](t, body)
		assert.Equal(t, "degraded", health.Status)
		assert.Equal(t, "error", health.DBStatus)
	})
}

func TestProfilesActions(t *testing.T) {
	srv := newTestServer(t, nil)

	status, body := srv.do(t, nethttp.MethodPost, "/api/profiles", `{"name":"Ana","type":"jogador","info":"Rogue"}`)
	require.Equal(t, fiber.StatusCreated, status, string(body))
	ana := decode[profiles.Profile](t, body)
	assert.Equal(t, profiles.TypePlayer, ana.Type)
	assert.NotEmpty(t, ana.ID)

	status, body = srv.do(t, nethttp.MethodPost, "/api/profiles", `{"name":"Ana","type":"gamemaster"}`)
	require.Equal(t, fiber.StatusCreated, status, string(body))

	status, body = srv.do(t, nethttp.MethodGet, "/api/profiles", "")
	require.Equal(t, fiber.StatusOK, status)
	list := decode[[]profiles.Profile](t, body)
	require.Len(t, list, 2)
	assert.Equal(t, ana, list[0])

	t.Run("empty name", func(t *testing.T) {
		status, body := srv.do(t, nethttp.MethodPost, "/api/profiles", `{"name":"  "}`)
		assert.Equal(t, fiber.StatusBadRequest, status)
		assert.Contains(t, string(body), "error")
	})

	t.Run("unknown type", func(t *testing.T) {
		status, _ := srv.do(t, nethttp.MethodPost, "/api/profiles", `{"name":"Bo","type":"wizard"}`)
		assert.Equal(t, fiber.StatusBadRequest, status)
	})

	t.Run("malformed body", func(t *testing.T) {
		status, _ := srv.do(t, nethttp.MethodPost, "/api/profiles", `{"name":`)
		assert.Equal(t, fiber.StatusBadRequest, status)
	})

	t.Run("delete is idempotent", func(t *testing.T) {
		status, _ := srv.do(t, nethttp.MethodDelete, "/api/profiles/"+ana.ID, "")
		assert.Equal(t, fiber.StatusNoContent, status)
		status, _ = srv.do(t, nethttp.MethodDelete, "/api/profiles/"+ana.ID, "")
		assert.Equal(t, fiber.StatusNoContent, status)
		assert.Len(t, srv.store.Profiles(), 1)
	})
}

func TestSessionActions(t *testing.T) {
	srv := newTestServer(t, nil)
	ana, err := srv.store.CreateProfile(context.Background(), "Ana", profiles.TypePlayer, "")
	require.NoError(t, err)

	status, _ := srv.do(t, nethttp.MethodGet, "/api/session/sheet", "")
	assert.Equal(t, fiber.StatusConflict, status, "no session yet")

	status, _ = srv.do(t, nethttp.MethodPost, "/api/session", `{"id":"missing"}`)
	assert.Equal(t, fiber.StatusNotFound, status)

	status, body := srv.do(t, nethttp.MethodPost, "/api/session", `{"id":"`+ana.ID+`"}`)
	require.Equal(t, fiber.StatusOK, status, string(body))
	sheet := decode[apphttp.SheetResponse](t, body)
	assert.Equal(t, ana, sheet.Profile)
	assert.Equal(t, attributes.NewGrid(), sheet.Cells)
	assert.Len(t, sheet.Labels, attributes.Size)
	assert.False(t, sheet.Locked)

	status, body = srv.do(t, nethttp.MethodPut, "/api/session/sheet/3", `{"value":"12"}`)
	require.Equal(t, fiber.StatusOK, status, string(body))
	sheet = decode[apphttp.SheetResponse](t, body)
	assert.Equal(t, "12", sheet.Cells[3])

	t.Run("index out of range", func(t *testing.T) {
		status, _ := srv.do(t, nethttp.MethodPut, "/api/session/sheet/10", `{"value":"1"}`)
		assert.Equal(t, fiber.StatusBadRequest, status)
		status, _ = srv.do(t, nethttp.MethodPut, "/api/session/sheet/x", `{"value":"1"}`)
		assert.Equal(t, fiber.StatusBadRequest, status)
	})

	t.Run("locked sheet rejects edits", func(t *testing.T) {
		status, body := srv.do(t, nethttp.MethodPut, "/api/session/lock", `{"locked":true}`)
		require.Equal(t, fiber.StatusOK, status)
		assert.True(t, decode[apphttp.SheetResponse](t, body).Locked)

		status, _ = srv.do(t, nethttp.MethodPut, "/api/session/sheet/0", `{"value":"9"}`)
		assert.Equal(t, fiber.StatusConflict, status)

		status, _ = srv.do(t, nethttp.MethodPut, "/api/session/lock", `{"locked":false}`)
		require.Equal(t, fiber.StatusOK, status)
	})

	t.Run("labels follow the request language", func(t *testing.T) {
		status, body := srv.do(t, nethttp.MethodGet, "/api/session/sheet?lang=pt-BR", "")
		require.Equal(t, fiber.StatusOK, status)
		assert.Equal(t, attributes.ForLocale(config.LocalePortuguese).Labels(), decode[apphttp.SheetResponse](t, body).Labels)
	})

	t.Run("logout persists the grid", func(t *testing.T) {
		status, _ := srv.do(t, nethttp.MethodDelete, "/api/session", "")
		assert.Equal(t, fiber.StatusNoContent, status)
		assert.False(t, srv.handlers.HasSession())

		status, body := srv.do(t, nethttp.MethodPost, "/api/session", `{"id":"`+ana.ID+`"}`)
		require.Equal(t, fiber.StatusOK, status)
		assert.Equal(t, "12", decode[apphttp.SheetResponse](t, body).Cells[3])
	})

	t.Run("deleting the active profile ends the session", func(t *testing.T) {
		require.True(t, srv.handlers.HasSession())
		status, _ := srv.do(t, nethttp.MethodDelete, "/api/profiles/"+ana.ID, "")
		assert.Equal(t, fiber.StatusNoContent, status)
		assert.False(t, srv.handlers.HasSession())

		status, _ = srv.do(t, nethttp.MethodPut, "/api/session/sheet/0", `{"value":"1"}`)
		assert.Equal(t, fiber.StatusConflict, status)
	})
}

func TestSessionRelogin(t *testing.T) {
	srv := newTestServer(t, nil)
	ana, err := srv.store.CreateProfile(context.Background(), "Ana", profiles.TypePlayer, "")
	require.NoError(t, err)
	login := `{"id":"` + ana.ID + `"}`

	status, body := srv.do(t, nethttp.MethodPost, "/api/session", login)
	require.Equal(t, fiber.StatusOK, status, string(body))
	status, body = srv.do(t, nethttp.MethodPut, "/api/session/sheet/3", `{"value":"12"}`)
	require.Equal(t, fiber.StatusOK, status, string(body))

	status, body = srv.do(t, nethttp.MethodPost, "/api/session", login)
	require.Equal(t, fiber.StatusOK, status, string(body))
	assert.Equal(t, "12", decode[apphttp.SheetResponse](t, body).Cells[3])

	status, body = srv.do(t, nethttp.MethodPut, "/api/session/sheet/0", `{"value":"x"}`)
	require.Equal(t, fiber.StatusOK, status, string(body))
	cells := decode[apphttp.SheetResponse](t, body).Cells
	assert.Equal(t, "x", cells[0])
	assert.Equal(t, "12", cells[3])

	t.Run("unknown profile keeps the open session", func(t *testing.T) {
		status, _ := srv.do(t, nethttp.MethodPost, "/api/session", `{"id":"missing"}`)
		assert.Equal(t, fiber.StatusNotFound, status)
		require.True(t, srv.handlers.HasSession())

		status, body := srv.do(t, nethttp.MethodGet, "/api/session/sheet", "")
		require.Equal(t, fiber.StatusOK, status)
		assert.Equal(t, "x", decode[apphttp.SheetResponse](t, body).Cells[0])
	})
}

func TestNamesakeOfDeletedLegacyProfile(t *testing.T) {
	ctx := context.Background()
	srv := newTestServer(t, nil)
	require.NoError(t, srv.kv.Set(ctx, profiles.UsersKey, `[{"id":"old-1","name":"Ana","type":"jogador","info":""}]`))
	require.NoError(t, srv.kv.Set(ctx, profiles.LegacyGridKey("Ana"), `["9","9","9","9","9","9","9","9","9","9"]`))
	srv.store.LoadProfiles(ctx)

	status, _ := srv.do(t, nethttp.MethodDelete, "/api/profiles/old-1", "")
	require.Equal(t, fiber.StatusNoContent, status)

	status, body := srv.do(t, nethttp.MethodPost, "/api/profiles", `{"name":"Ana","type":"player"}`)
	require.Equal(t, fiber.StatusCreated, status, string(body))
	ana := decode[profiles.Profile](t, body)

	status, body = srv.do(t, nethttp.MethodPost, "/api/session", `{"id":"`+ana.ID+`"}`)
	require.Equal(t, fiber.StatusOK, status, string(body))
	assert.Equal(t, attributes.NewGrid(), decode[apphttp.SheetResponse](t, body).Cells)

	_, err := srv.kv.Get(ctx, profiles.LegacyGridKey("Ana"))
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestAttributesActions(t *testing.T) {
	srv := newTestServer(t, nil)

	type catalogResponse struct {
		Language   string             `json:"language"`
		Attributes []attributes.Entry `json:"attributes"`
	}

	status, body := srv.do(t, nethttp.MethodGet, "/api/attributes", "")
	require.Equal(t, fiber.StatusOK, status)
	en := decode[catalogResponse](t, body)
	assert.Equal(t, "en", en.Language)
	assert.Len(t, en.Attributes, attributes.Size)

	req := httptest.NewRequest(nethttp.MethodGet, "/api/attributes", nil)
	req.Header.Set("Accept-Language", "pt-BR,pt;q=0.9")
	resp, err := srv.app.Test(req, -1)
	require.NoError(t, err)
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()
	pt := decode[catalogResponse](t, data)
	assert.Equal(t, "pt-BR", pt.Language)
	assert.NotEqual(t, en.Attributes[0].Label, pt.Attributes[0].Label)

	status, body = srv.do(t, nethttp.MethodGet, "/api/attributes/6", "")
	require.Equal(t, fiber.StatusOK, status)
	entry := decode[attributes.Entry](t, body)
	assert.Equal(t, 6, entry.Index)
	assert.NotEmpty(t, entry.Help)

	status, _ = srv.do(t, nethttp.MethodGet, "/api/attributes/42", "")
	assert.Equal(t, fiber.StatusNotFound, status)
	status, _ = srv.do(t, nethttp.MethodGet, "/api/attributes/soul", "")
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestInventoryActions(t *testing.T) {
	srv := newTestServer(t, nil)

	status, body := srv.do(t, nethttp.MethodGet, "/api/inventory/player", "")
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, inventory.DefaultItems(), decode[[]inventory.Item](t, body))

	status, body = srv.do(t, nethttp.MethodPost, "/api/inventory/mestre", `{"name":"Map","description":"Old map"}`)
	require.Equal(t, fiber.StatusCreated, status, string(body))
	item := decode[inventory.Item](t, body)

	status, body = srv.do(t, nethttp.MethodGet, "/api/inventory/gamemaster", "")
	require.Equal(t, fiber.StatusOK, status)
	assert.Len(t, decode[[]inventory.Item](t, body), 4)

	status, _ = srv.do(t, nethttp.MethodPost, "/api/inventory/player", `{"name":"Map"}`)
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, _ = srv.do(t, nethttp.MethodGet, "/api/inventory/wizard", "")
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, _ = srv.do(t, nethttp.MethodDelete, "/api/inventory/gamemaster/"+item.ID, "")
	assert.Equal(t, fiber.StatusNoContent, status)
	status, _ = srv.do(t, nethttp.MethodDelete, "/api/inventory/gamemaster/"+item.ID, "")
	assert.Equal(t, fiber.StatusNotFound, status)
}
