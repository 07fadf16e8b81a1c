package message

import (
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/faeln1/go-discord-observer/internal/domain/community"
)

// Message is a guild text message as delivered by the gateway.
type Message struct {
	ID          string         `json:"id"`
	GuildID     string         `json:"guild_id"`
	ChannelID   string         `json:"channel_id"`
	Author      community.User `json:"author"`
	Content     string         `json:"content"`
	Attachments []Attachment   `json:"attachments,omitempty"`
	URL         string         `json:"url,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	EditedAt    *time.Time     `json:"edited_at,omitempty"`
}

// Attachment is a file uploaded with a message.
type Attachment struct {
	ID          string `json:"id"`
	Filename    string `json:"filename"`
	URL         string `json:"url"`
	ContentType string `json:"content_type,omitempty"`
	Size        int    `json:"size"`
}

// AttachmentKind groups attachments for reporting.
type AttachmentKind int

const (
	KindFile AttachmentKind = iota
	KindImage
	KindAudio
)

var (
	imageExt = map[string]struct{}{".png": {}, ".jpg": {}, ".jpeg": {}, ".gif": {}, ".bmp": {}, ".webp": {}}
	audioExt = map[string]struct{}{".mp3": {}, ".wav": {}, ".ogg": {}}

	mediaMarkers = []string{
		".jpg", ".jpeg", ".png", ".gif", ".bmp", ".tiff", ".webp",
		".mp4", ".mov", ".avi", ".mkv", ".flv", ".wmv",
		"http://", "https://",
	}

	imageHosts = []string{"tenor.com", "giphy.com", "imgur.com"}

	linkPattern       = regexp.MustCompile(`https?://\S+`)
	codeBlockPattern  = regexp.MustCompile("(?s)```(.*?)```")
	inlineCodePattern = regexp.MustCompile("`([^`]*)`")
)

// Kind classifies a by content type, falling back to the file extension.
func (a Attachment) Kind() AttachmentKind {
	ct := strings.ToLower(a.ContentType)
	switch {
	case strings.HasPrefix(ct, "image/"):
		return KindImage
	case strings.HasPrefix(ct, "audio/"):
		return KindAudio
	}
	name := a.Filename
	if name == "" {
		name = a.URL
	}
	if idx := strings.IndexAny(name, "?#"); idx >= 0 {
		name = name[:idx]
	}
	ext := strings.ToLower(path.Ext(name))
	if _, ok := imageExt[ext]; ok {
		return KindImage
	}
	if _, ok := audioExt[ext]; ok {
		return KindAudio
	}
	return KindFile
}

// HasMediaOrLinks reports whether content references media files or URLs.
func HasMediaOrLinks(content string) bool {
	lower := strings.ToLower(content)
	for _, marker := range mediaMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// Links returns every http(s) URL in content, in order.
func Links(content string) []string {
	return linkPattern.FindAllString(content, -1)
}

// IsImageHost reports whether link points at a gif/image host.
func IsImageHost(link string) bool {
	lower := strings.ToLower(link)
	for _, host := range imageHosts {
		if strings.Contains(lower, host) {
			return true
		}
	}
	return false
}

// CodeBlocks returns fenced blocks first, then inline spans found outside them.
func CodeBlocks(content string) (fenced []string, inline []string) {
	for _, m := range codeBlockPattern.FindAllStringSubmatch(content, -1) {
		fenced = append(fenced, m[1])
	}
	rest := codeBlockPattern.ReplaceAllString(content, "")
	for _, m := range inlineCodePattern.FindAllStringSubmatch(rest, -1) {
		if strings.TrimSpace(m[1]) == "" {
			continue
		}
		inline = append(inline, m[1])
	}
	return fenced, inline
}
