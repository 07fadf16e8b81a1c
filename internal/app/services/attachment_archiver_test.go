package services

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/faeln1/go-discord-observer/internal/domain/message"
	"github.com/faeln1/go-discord-observer/pkg/logger"
	"github.com/faeln1/go-discord-observer/pkg/storage"
	"github.com/stretchr/testify/assert"
)

type memoryStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
}

func newMemoryStorage() *memoryStorage {
	return &memoryStorage{objects: map[string][]byte{}, types: map[string]string{}}
}

func (m *memoryStorage) PutObject(ctx context.Context, in storage.UploadInput) (string, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[in.Key] = data
	m.types[in.Key] = in.ContentType
	return "https://archive.test/" + in.Key, nil
}

func (m *memoryStorage) DeleteObject(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

func (m *memoryStorage) Exists(ctx context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.objects[key]; ok {
		return "https://archive.test/" + key, true, nil
	}
	return "", false, nil
}

func TestArchiverCopiesAttachments(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing.png" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte("png-bytes"))
	}))
	defer srv.Close()

	store := newMemoryStorage()
	archiver := NewAttachmentArchiver(store, srv.Client(), 0, logger.Noop)
	msg := message.Message{
		ID: "m1", GuildID: "g1", ChannelID: "c1",
		Attachments: []message.Attachment{
			{ID: "a1", Filename: "cat.png", URL: srv.URL + "/cat.png", Size: 9},
			{ID: "a2", Filename: "missing.png", URL: srv.URL + "/missing.png", Size: 9},
			{ID: "a3", Filename: "huge.bin", URL: srv.URL + "/huge.bin", Size: 100 << 20},
		},
	}

	got := archiver.Archive(context.Background(), msg)

	assert.Equal(t, map[string]string{"a1": "https://archive.test/g1/c1/m1/a1-cat.png"}, got)
	assert.Equal(t, []byte("png-bytes"), store.objects["g1/c1/m1/a1-cat.png"])
	assert.Equal(t, "image/png", store.types["g1/c1/m1/a1-cat.png"])
}

func TestArchiverNilIsNoop(t *testing.T) {
	assert.Nil(t, NewAttachmentArchiver(nil, nil, 0, nil))
	var a *AttachmentArchiver
	assert.Nil(t, a.Archive(context.Background(), message.Message{Attachments: []message.Attachment{{ID: "x"}}}))
}
