package http

import (
	"context"
	"encoding/json"
	"errors"
	stdhttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/faeln1/go-discord-observer/internal/app/controllers"
	"github.com/faeln1/go-discord-observer/internal/app/repositories"
	"github.com/faeln1/go-discord-observer/internal/domain/community"
	"github.com/faeln1/go-discord-observer/internal/platform/metrics"
)

func serve(t *testing.T, h stdhttp.Handler, method, path, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRootReportsGuildCount(t *testing.T) {
	h := NewRouter(RouterConfig{Guilds: func(context.Context) int { return 3 }})
	rec := serve(t, h, stdhttp.MethodGet, "/", "")
	require.Equal(t, stdhttp.StatusOK, rec.Code)

	var body struct {
		Status string `json:"status"`
		Guilds struct {
			Count int `json:"count"`
		} `json:"guilds"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, 3, body.Guilds.Count)
}

func TestHealthDegradesOnFailingCheck(t *testing.T) {
	h := NewRouter(RouterConfig{Checks: map[string]HealthCheck{
		"redis":    func(context.Context) error { return nil },
		"database": func(context.Context) error { return errors.New("connection refused") },
	}})
	rec := serve(t, h, stdhttp.MethodGet, "/health", "")
	assert.Equal(t, stdhttp.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "connection refused")
	assert.Contains(t, rec.Body.String(), `"redis":"ok"`)

	rec = serve(t, NewRouter(RouterConfig{}), stdhttp.MethodGet, "/health", "")
	assert.Equal(t, stdhttp.StatusOK, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	m.IncEmitted("voice_join")

	h := NewRouter(RouterConfig{Gatherer: reg, OpsToken: "tok"})
	assert.Equal(t, stdhttp.StatusUnauthorized, serve(t, h, stdhttp.MethodGet, "/metrics", "").Code)

	rec := serve(t, h, stdhttp.MethodGet, "/metrics", "tok")
	require.Equal(t, stdhttp.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `action="voice_join"`))
}

func TestUnknownRoutes(t *testing.T) {
	h := NewRouter(RouterConfig{})
	assert.Equal(t, stdhttp.StatusNotFound, serve(t, h, stdhttp.MethodGet, "/nope", "").Code)
	assert.Equal(t, stdhttp.StatusMethodNotAllowed, serve(t, h, stdhttp.MethodPost, "/health", "").Code)
}

type nopResolver struct{}

func (nopResolver) Resolve(ctx context.Context, guildID string) (*community.Channel, error) {
	return &community.Channel{ID: "c", GuildID: guildID, Kind: community.ChannelText}, nil
}

func (nopResolver) Forget(context.Context, string) error { return nil }

func TestRegistrationRoutes(t *testing.T) {
	repo := repositories.NewInMemoryRegistrationRepo()
	require.NoError(t, repo.Upsert(context.Background(), community.Registration{GuildID: "g1", ChannelID: "c1"}))
	h := NewRouter(RouterConfig{
		RegistrationCtrl: controllers.NewRegistrationController(repo, nopResolver{}),
		OpsToken:         "tok",
	})

	assert.Equal(t, stdhttp.StatusUnauthorized, serve(t, h, stdhttp.MethodGet, "/registrations", "").Code)

	rec := serve(t, h, stdhttp.MethodGet, "/registrations/g1", "tok")
	require.Equal(t, stdhttp.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"channel_id":"c1"`)

	assert.Equal(t, stdhttp.StatusOK, serve(t, h, stdhttp.MethodPost, "/registrations/g9/resolve", "tok").Code)
	assert.Equal(t, stdhttp.StatusNoContent, serve(t, h, stdhttp.MethodDelete, "/registrations/g1", "tok").Code)
}

func TestRegistrationRoutesRequireConfiguredToken(t *testing.T) {
	repo := repositories.NewInMemoryRegistrationRepo()
	require.NoError(t, repo.Upsert(context.Background(), community.Registration{GuildID: "g1", ChannelID: "c1"}))
	h := NewRouter(RouterConfig{RegistrationCtrl: controllers.NewRegistrationController(repo, nopResolver{})})

	assert.Equal(t, stdhttp.StatusNotFound, serve(t, h, stdhttp.MethodPost, "/registrations/g9/resolve", "").Code)
	assert.Equal(t, stdhttp.StatusNotFound, serve(t, h, stdhttp.MethodDelete, "/registrations/g1", "").Code)
	assert.Equal(t, stdhttp.StatusUnauthorized, serve(t, h, stdhttp.MethodGet, "/metrics", "").Code)

	_, err := repo.Get(context.Background(), "g1")
	assert.NoError(t, err)
}
