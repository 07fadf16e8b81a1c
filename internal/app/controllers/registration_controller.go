package controllers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/faeln1/go-discord-observer/internal/app/ports"
	"github.com/faeln1/go-discord-observer/internal/app/repositories"
	"github.com/faeln1/go-discord-observer/internal/domain/community"
)

// ChannelResolver is the part of the resolver the controller drives.
type ChannelResolver interface {
	Resolve(ctx context.Context, guildID string) (*community.Channel, error)
	Forget(ctx context.Context, guildID string) error
}

// RegistrationController exposes the guild -> log channel mapping to operators.
type RegistrationController struct {
	repo     repositories.RegistrationRepository
	resolver ChannelResolver
}

func NewRegistrationController(repo repositories.RegistrationRepository, resolver ChannelResolver) *RegistrationController {
	return &RegistrationController{repo: repo, resolver: resolver}
}

func (c *RegistrationController) List(w http.ResponseWriter, r *http.Request) {
	regs, err := c.repo.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if regs == nil {
		regs = []community.Registration{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"registrations": regs, "count": len(regs)})
}

func (c *RegistrationController) Find(w http.ResponseWriter, r *http.Request, guildID string) {
	if strings.TrimSpace(guildID) == "" {
		writeError(w, http.StatusBadRequest, ErrInvalidParam)
		return
	}
	reg, err := c.repo.Get(r.Context(), guildID)
	if err != nil {
		if errors.Is(err, repositories.ErrRegistrationNotFound) {
			writeError(w, http.StatusNotFound, err)
			return
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, reg)
}

// Resolve runs the resolver for guildID, recreating the channel when the
// stored one is gone.
func (c *RegistrationController) Resolve(w http.ResponseWriter, r *http.Request, guildID string) {
	if strings.TrimSpace(guildID) == "" {
		writeError(w, http.StatusBadRequest, ErrInvalidParam)
		return
	}
	ch, err := c.resolver.Resolve(r.Context(), guildID)
	if err != nil {
		switch {
		case errors.Is(err, ports.ErrForbidden):
			writeError(w, http.StatusForbidden, err)
		case errors.Is(err, ports.ErrNotFound):
			writeError(w, http.StatusNotFound, err)
		default:
			writeError(w, http.StatusBadGateway, err)
		}
		return
	}
	writeJSON(w, http.StatusOK, ch)
}

func (c *RegistrationController) Delete(w http.ResponseWriter, r *http.Request, guildID string) {
	if strings.TrimSpace(guildID) == "" {
		writeError(w, http.StatusBadRequest, ErrInvalidParam)
		return
	}
	if err := c.resolver.Forget(r.Context(), guildID); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
