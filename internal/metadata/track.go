package metadata

// Track is the library view of one audio file.
type Track struct {
	File        string `json:"file"`
	Title       string `json:"title,omitempty"`
	Artist      string `json:"artist,omitempty"`
	Album       string `json:"album,omitempty"`
	Genre       string `json:"genre,omitempty"`
	Year        int    `json:"year,omitempty"`
	Format      string `json:"format,omitempty"`
	HasSequence bool   `json:"has_sequence"`
}
