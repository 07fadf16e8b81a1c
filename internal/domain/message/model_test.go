package message

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAttachmentKind(t *testing.T) {
	tests := []struct {
		name string
		att  Attachment
		want AttachmentKind
	}{
		{name: "content type image", att: Attachment{Filename: "x.bin", ContentType: "image/png"}, want: KindImage},
		{name: "extension image", att: Attachment{Filename: "Cat.JPG"}, want: KindImage},
		{name: "audio from url", att: Attachment{URL: "https://cdn.example/voice.ogg?ex=1"}, want: KindAudio},
		{name: "generic file", att: Attachment{Filename: "notes.txt"}, want: KindFile},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.att.Kind())
		})
	}
}

func TestLinksAndImageHosts(t *testing.T) {
	links := Links("see https://example.com/a and http://tenor.com/view/x ok")
	assert.Equal(t, []string{"https://example.com/a", "http://tenor.com/view/x"}, links)
	assert.False(t, IsImageHost(links[0]))
	assert.True(t, IsImageHost(links[1]))
}

func TestCodeBlocksDoesNotDoubleCountFences(t *testing.T) {
	fenced, inline := CodeBlocks("run ```go build``` then `make` and `` done")
	assert.Equal(t, []string{"go build"}, fenced)
	assert.Equal(t, []string{"make"}, inline)
}

func TestHasMediaOrLinks(t *testing.T) {
	assert.True(t, HasMediaOrLinks("look at cat.PNG"))
	assert.True(t, HasMediaOrLinks("https://x.y"))
	assert.False(t, HasMediaOrLinks("plain words"))
}
