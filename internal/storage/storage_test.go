package storage

import (
	"bytes"
	"errors"
	"io"
	"reflect"
	"testing"
)

func newLocalClient(t *testing.T) *Client {
	t.Helper()
	return NewWithProvider(NewLocalProvider(t.TempDir()), "", "")
}

func upload(t *testing.T, c *Client, name string, data []byte) {
	t.Helper()
	if err := c.Upload(name, bytes.NewReader(data), ""); err != nil {
		t.Fatalf("Upload(%s) failed: %v", name, err)
	}
}

func TestListAudioSkipsSequencesAndDotfiles(t *testing.T) {
	local := NewLocalProvider(t.TempDir())
	c := NewWithProvider(local, "", "")
	upload(t, c, "carol.mp3", []byte("audio"))
	upload(t, c, "carol.mp3.bin", []byte{10, 1})
	upload(t, c, "bells.ogg", []byte("audio"))
	if err := local.Put("", ".DS_Store", bytes.NewReader(nil), "", ""); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got, err := c.ListAudio()
	if err != nil {
		t.Fatalf("ListAudio failed: %v", err)
	}
	want := []string{"bells.ogg", "carol.mp3"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ListAudio = %v, want %v", got, want)
	}
}

func TestUploadInvalidatesListing(t *testing.T) {
	c := newLocalClient(t)
	upload(t, c, "a.mp3", []byte("a"))
	if files, _ := c.ListAudio(); len(files) != 1 {
		t.Fatalf("expected 1 file, got %v", files)
	}

	upload(t, c, "b.mp3", []byte("b"))
	if files, _ := c.ListAudio(); len(files) != 2 {
		t.Errorf("listing not refreshed after upload: %v", files)
	}
}

func TestReadSequence(t *testing.T) {
	c := newLocalClient(t)
	upload(t, c, "carol.mp3.bin", []byte{10, 1, 3})

	data, err := c.ReadSequence("carol.mp3")
	if err != nil {
		t.Fatalf("ReadSequence failed: %v", err)
	}
	if !bytes.Equal(data, []byte{10, 1, 3}) {
		t.Errorf("ReadSequence = %v", data)
	}

	if _, err := c.ReadSequence("missing.mp3"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing sequence error = %v, want ErrNotFound", err)
	}
}

func TestOpenAudio(t *testing.T) {
	c := newLocalClient(t)
	upload(t, c, "carol.mp3", []byte("ID3 audio"))

	obj, err := c.OpenAudio("carol.mp3")
	if err != nil {
		t.Fatalf("OpenAudio failed: %v", err)
	}
	defer obj.Body.Close()

	body, _ := io.ReadAll(obj.Body)
	if string(body) != "ID3 audio" || obj.ContentLength != int64(len(body)) {
		t.Errorf("body=%q length=%d", body, obj.ContentLength)
	}
	if obj.ContentType != "audio/mpeg" {
		t.Errorf("ContentType = %q, want audio/mpeg", obj.ContentType)
	}
}

func TestDeleteRemovesAudioAndSequence(t *testing.T) {
	c := newLocalClient(t)
	upload(t, c, "carol.mp3", []byte("a"))
	upload(t, c, "carol.mp3.bin", []byte{10})

	if err := c.Delete("carol.mp3"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if ok, _ := c.HasSequence("carol.mp3"); ok {
		t.Error("sequence survived delete")
	}
	if files, _ := c.ListAudio(); len(files) != 0 {
		t.Errorf("audio survived delete: %v", files)
	}
	if err := c.Delete("carol.mp3"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Delete error = %v, want ErrNotFound", err)
	}
}

func TestCleanName(t *testing.T) {
	tests := []struct {
		name string
		ok   bool
	}{
		{"carol.mp3", true},
		{"Richard Souther - Carol Bells.mp3", true},
		{"../etc/passwd", false},
		{"dir/file.mp3", false},
		{`dir\file.mp3`, false},
		{".hidden", false},
		{"..", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CleanName(tt.name)
			if (err == nil) != tt.ok {
				t.Errorf("CleanName(%q) error = %v, want ok=%v", tt.name, err, tt.ok)
			}
		})
	}
}
