package eventlog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/faeln1/go-discord-observer/pkg/logger"
	"github.com/google/uuid"
)

var invalidSegment = regexp.MustCompile(`[^A-Za-z0-9_.-]`)

// Writer journals raw gateway events and diagnostic records to disk.
type Writer struct {
	baseDir string
	log     logger.Logger
	now     func() time.Time
}

// NewWriter returns nil when baseDir is blank, which disables journaling.
func NewWriter(baseDir string, log logger.Logger) *Writer {
	base := strings.TrimSpace(baseDir)
	if base == "" {
		return nil
	}
	if log == nil {
		log = logger.Noop
	}
	return &Writer{baseDir: filepath.Clean(base), log: log, now: func() time.Time { return time.Now().UTC() }}
}

func (w *Writer) Enabled() bool {
	return w != nil && w.baseDir != ""
}

// Write stores evt as baseDir/<type>/<guild>/<timestamp>-<uuid>.json.
func (w *Writer) Write(guildID string, evt any) error {
	if !w.Enabled() || evt == nil {
		return nil
	}

	eventType := detectEventType(evt)
	dir := filepath.Join(w.baseDir, sanitizeSegment(eventType), sanitizeSegment(guildID))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}

	ts := w.now()
	path := filepath.Join(dir, fmt.Sprintf("%s-%s.json", ts.Format("20060102T150405Z"), uuid.NewString()))

	record := map[string]any{
		"event_type":  eventType,
		"guild_id":    guildID,
		"received_at": ts.Format(time.RFC3339Nano),
		"payload":     marshalPayload(evt),
	}
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", eventType, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// Journal writes evt and only logs failures; used on the gateway hot path.
func (w *Writer) Journal(guildID string, evt any) {
	if !w.Enabled() {
		return
	}
	if err := w.Write(guildID, evt); err != nil {
		w.log.Warnf("event journal: %v", err)
	}
}

func detectEventType(evt any) string {
	t := strings.TrimLeft(fmt.Sprintf("%T", evt), "*")
	if idx := strings.LastIndex(t, "."); idx >= 0 && idx < len(t)-1 {
		return t[idx+1:]
	}
	if t == "" {
		return "Unknown"
	}
	return t
}

func sanitizeSegment(raw string) string {
	candidate := strings.TrimSpace(raw)
	if candidate == "" {
		return "unknown"
	}
	sanitized := strings.Trim(invalidSegment.ReplaceAllString(candidate, "_"), "._-")
	if sanitized == "" {
		return "unknown"
	}
	return sanitized
}

func marshalPayload(evt any) any {
	raw, err := json.Marshal(evt)
	if err != nil {
		return map[string]any{
			"marshal_error": err.Error(),
			"payload_text":  fmt.Sprintf("%+v", evt),
		}
	}
	var payload any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return map[string]any{
			"unmarshal_error": err.Error(),
			"payload_text":    fmt.Sprintf("%+v", evt),
		}
	}
	return payload
}
