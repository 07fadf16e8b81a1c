package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/faeln1/go-discord-observer/internal/domain/community"
	"github.com/faeln1/go-discord-observer/pkg/logger"
)

// CommunityEventsDispatcher replica cada evento de log em um webhook global.
type CommunityEventsDispatcher struct {
	client *http.Client
	url    string
	token  string
	log    logger.Logger
}

// NewCommunityEventsDispatcher cria um dispatcher com URL fixa (via env). Com
// URL vazia retorna nil, e o emissor simplesmente ignora o sink.
func NewCommunityEventsDispatcher(url, token string, client *http.Client, log logger.Logger) *CommunityEventsDispatcher {
	cleanURL := strings.TrimSpace(url)
	if cleanURL == "" {
		return nil
	}
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	if log == nil {
		log = logger.Noop
	}
	return &CommunityEventsDispatcher{client: client, url: cleanURL, token: strings.TrimSpace(token), log: log}
}

func (d *CommunityEventsDispatcher) Name() string { return "webhook" }

// Publish posts evt as JSON. Any non-2xx status is an error.
func (d *CommunityEventsDispatcher) Publish(ctx context.Context, evt community.Event) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Observer-Event", string(evt.Action))
	if d.token != "" {
		req.Header.Set("Authorization", "Bearer "+d.token)
	}

	d.log.Debugf("enviando evento %s (%s) para %s", evt.ID, evt.Action, d.url)

	resp, err := d.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("events webhook returned status %d", resp.StatusCode)
	}
	return nil
}
