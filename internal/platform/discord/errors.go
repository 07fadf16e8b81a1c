package discord

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/bwmarrin/discordgo"

	"github.com/faeln1/go-discord-observer/internal/app/ports"
)

var ErrNotConnected = errors.New("discord session not connected")

// mapError folds discordgo failures onto the port sentinels, keeping the
// original error in the chain.
func mapError(op string, err error) error {
	if err == nil {
		return nil
	}
	var restErr *discordgo.RESTError
	switch {
	case errors.As(err, &restErr) && restErr.Response != nil:
		code := restErr.Response.StatusCode
		switch {
		case code == http.StatusForbidden || code == http.StatusUnauthorized:
			return fmt.Errorf("%s: %w: %w", op, ports.ErrForbidden, err)
		case code == http.StatusNotFound:
			return fmt.Errorf("%s: %w: %w", op, ports.ErrNotFound, err)
		case code == http.StatusTooManyRequests || code >= http.StatusInternalServerError:
			return fmt.Errorf("%s: %w: %w", op, ports.ErrTransient, err)
		}
		return fmt.Errorf("%s: %w", op, err)
	case errors.Is(err, discordgo.ErrStateNotFound):
		return fmt.Errorf("%s: %w: %w", op, ports.ErrNotFound, err)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return fmt.Errorf("%s: %w: %w", op, ports.ErrTransient, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return fmt.Errorf("%s: %w: %w", op, ports.ErrTransient, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
