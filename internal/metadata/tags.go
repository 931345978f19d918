package metadata

import (
	"bytes"
	"io"
	"path/filepath"
	"strings"

	"github.com/dhowden/tag"
)

// maxBuffered caps how much of a non-seekable body is read to find tags.
const maxBuffered = 64 << 20

// ReadTags extracts ID3/Vorbis/MP4 tags. Files without tags fall back to a
// title derived from the file name.
func ReadTags(file string, body io.Reader) Track {
	t := Track{File: file, Title: TitleFromName(file)}

	rs, ok := body.(io.ReadSeeker)
	if !ok {
		data, err := io.ReadAll(io.LimitReader(body, maxBuffered))
		if err != nil {
			return t
		}
		rs = bytes.NewReader(data)
	}

	m, err := tag.ReadFrom(rs)
	if err != nil {
		return t
	}

	if title := strings.TrimSpace(m.Title()); title != "" {
		t.Title = title
	}
	t.Artist = strings.TrimSpace(m.Artist())
	t.Album = strings.TrimSpace(m.Album())
	t.Genre = strings.TrimSpace(m.Genre())
	t.Year = m.Year()
	t.Format = string(m.FileType())
	return t
}

// TitleFromName turns "Richard_Souther-Carol_Bells.mp3" into
// "Richard Souther Carol Bells".
func TitleFromName(file string) string {
	clean := strings.TrimSuffix(file, filepath.Ext(file))
	clean = strings.ReplaceAll(clean, "_", " ")
	clean = strings.ReplaceAll(clean, "-", " ")
	return strings.Join(strings.Fields(clean), " ")
}
