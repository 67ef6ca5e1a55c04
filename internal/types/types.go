package types

// Transcript is the caption track produced by a recognizer: segments in
// chronological order, numbered from 1 when serialized.
type Transcript struct {
	Language string    `json:"language,omitempty"`
	Segments []Segment `json:"segments"`
}

type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// MediaAsset references a file in working storage. Media content is never
// held in memory; adapters receive Path.
type MediaAsset struct {
	Name string `json:"name"`
	Path string `json:"-"`
}

// Style holds the render-time caption styling handed to the subtitles filter.
type Style struct {
	FontSize      int    `toml:"font_size"`
	PrimaryColour string `toml:"primary_colour"`
	OutlineColour string `toml:"outline_colour"`
	BorderStyle   int    `toml:"border_style"`
}
