package controllers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/faeln1/go-discord-observer/internal/app/ports"
	"github.com/faeln1/go-discord-observer/internal/app/repositories"
	"github.com/faeln1/go-discord-observer/internal/domain/community"
)

type stubResolver struct {
	repo repositories.RegistrationRepository
	err  error
}

func (s *stubResolver) Resolve(ctx context.Context, guildID string) (*community.Channel, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &community.Channel{ID: "c-" + guildID, GuildID: guildID, Name: "observer", Kind: community.ChannelText}, nil
}

func (s *stubResolver) Forget(ctx context.Context, guildID string) error {
	return s.repo.Delete(ctx, guildID)
}

func newController(t *testing.T) (*RegistrationController, *stubResolver, repositories.RegistrationRepository) {
	t.Helper()
	repo := repositories.NewInMemoryRegistrationRepo()
	require.NoError(t, repo.Upsert(context.Background(), community.Registration{GuildID: "g1", ChannelID: "c1", UpdatedAt: time.Now()}))
	res := &stubResolver{repo: repo}
	return NewRegistrationController(repo, res), res, repo
}

func TestRegistrationList(t *testing.T) {
	c, _, _ := newController(t)
	rec := httptest.NewRecorder()
	c.List(rec, httptest.NewRequest(http.MethodGet, "/registrations", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Count         int                      `json:"count"`
		Registrations []community.Registration `json:"registrations"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Count)
	assert.Equal(t, "c1", body.Registrations[0].ChannelID)
}

func TestRegistrationFind(t *testing.T) {
	c, _, _ := newController(t)
	rec := httptest.NewRecorder()
	c.Find(rec, httptest.NewRequest(http.MethodGet, "/registrations/g1", nil), "g1")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	c.Find(rec, httptest.NewRequest(http.MethodGet, "/registrations/zz", nil), "zz")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	c.Find(rec, httptest.NewRequest(http.MethodGet, "/registrations/", nil), " ")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRegistrationResolveMapsErrors(t *testing.T) {
	c, res, _ := newController(t)
	rec := httptest.NewRecorder()
	c.Resolve(rec, httptest.NewRequest(http.MethodPost, "/registrations/g2/resolve", nil), "g2")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "c-g2")

	res.err = fmt.Errorf("create: %w", ports.ErrForbidden)
	rec = httptest.NewRecorder()
	c.Resolve(rec, httptest.NewRequest(http.MethodPost, "/registrations/g2/resolve", nil), "g2")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	res.err = fmt.Errorf("send: %w", ports.ErrTransient)
	rec = httptest.NewRecorder()
	c.Resolve(rec, httptest.NewRequest(http.MethodPost, "/registrations/g2/resolve", nil), "g2")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestRegistrationDelete(t *testing.T) {
	c, _, repo := newController(t)
	rec := httptest.NewRecorder()
	c.Delete(rec, httptest.NewRequest(http.MethodDelete, "/registrations/g1", nil), "g1")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	_, err := repo.Get(context.Background(), "g1")
	assert.ErrorIs(t, err, repositories.ErrRegistrationNotFound)
}
