package services

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/faeln1/go-discord-observer/internal/domain/message"
	"github.com/faeln1/go-discord-observer/pkg/logger"
	"github.com/faeln1/go-discord-observer/pkg/storage"
)

const defaultMaxArchiveSize = 25 << 20

// AttachmentArchiver copia anexos para o object storage antes que o CDN os expire.
type AttachmentArchiver struct {
	store   storage.Service
	client  *http.Client
	maxSize int64
	log     logger.Logger
}

// NewAttachmentArchiver retorna nil quando não há storage configurado.
func NewAttachmentArchiver(store storage.Service, client *http.Client, maxSize int64, log logger.Logger) *AttachmentArchiver {
	if store == nil {
		return nil
	}
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if maxSize <= 0 {
		maxSize = defaultMaxArchiveSize
	}
	if log == nil {
		log = logger.Noop
	}
	return &AttachmentArchiver{store: store, client: client, maxSize: maxSize, log: log}
}

// Archive stores every attachment of msg and returns archived URLs keyed by
// attachment id. Failures are logged per attachment.
func (a *AttachmentArchiver) Archive(ctx context.Context, msg message.Message) map[string]string {
	if a == nil || len(msg.Attachments) == 0 {
		return nil
	}
	out := make(map[string]string, len(msg.Attachments))
	for _, att := range msg.Attachments {
		url, err := a.archiveOne(ctx, msg, att)
		if err != nil {
			a.log.Warnf("falha ao arquivar anexo %s da mensagem %s: %v", att.ID, msg.ID, err)
			continue
		}
		if url != "" {
			out[att.ID] = url
		}
	}
	return out
}

func (a *AttachmentArchiver) archiveOne(ctx context.Context, msg message.Message, att message.Attachment) (string, error) {
	if int64(att.Size) > a.maxSize {
		a.log.Debugf("anexo %s ignorado: %d bytes", att.ID, att.Size)
		return "", nil
	}
	key := storage.AttachmentKey(msg.GuildID, msg.ChannelID, msg.ID, att.ID, att.Filename)
	if url, ok, err := a.store.Exists(ctx, key); err == nil && ok {
		return url, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, att.URL, nil)
	if err != nil {
		return "", err
	}
	resp, err := a.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download returned status %d", resp.StatusCode)
	}

	size := resp.ContentLength
	if size > a.maxSize {
		return "", fmt.Errorf("attachment larger than %d bytes", a.maxSize)
	}
	contentType := att.ContentType
	if contentType == "" {
		contentType = resp.Header.Get("Content-Type")
	}
	return a.store.PutObject(ctx, storage.UploadInput{
		Key:         key,
		ContentType: contentType,
		Body:        io.LimitReader(resp.Body, a.maxSize),
		Size:        size,
	})
}
