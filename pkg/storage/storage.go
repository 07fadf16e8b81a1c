package storage

import (
	"context"
	"io"
	"path"
	"regexp"
	"strings"
)

type UploadInput struct {
	Key         string
	ContentType string
	Body        io.Reader
	Size        int64
}

// Service is the object store used to archive message attachments.
type Service interface {
	PutObject(ctx context.Context, in UploadInput) (string, error)
	DeleteObject(ctx context.Context, key string) error
	// Exists returns the public URL of key when it is already stored.
	Exists(ctx context.Context, key string) (string, bool, error)
}

var unsafeKeyChars = regexp.MustCompile(`[^A-Za-z0-9._-]`)

// AttachmentKey lays archived files out as guild/channel/message/attachment-name.
func AttachmentKey(guildID, channelID, messageID, attachmentID, filename string) string {
	name := strings.Trim(unsafeKeyChars.ReplaceAllString(path.Base(filename), "_"), "._")
	if name == "" {
		name = "file"
	}
	return path.Join(guildID, channelID, messageID, attachmentID+"-"+name)
}
