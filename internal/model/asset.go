package model

// AssetType enumerates the kinds of embedded assets that can be extracted
// from a presentation.
type AssetType string

const (
	AssetImage    AssetType = "image"
	AssetVideo    AssetType = "video"
	AssetAudio    AssetType = "audio"
	AssetDocument AssetType = "document"
	AssetShape    AssetType = "shape"
	AssetChart    AssetType = "chart"
)

// AssetResult is one extracted embedded asset. ID is freshly generated per
// extraction run, never derived from the source shape. Format is detected
// from the binary payload, never trusted from a filename or declared MIME
// type. Size equals len(Data) whenever Data is populated.
type AssetResult struct {
	ID         string        `json:"id"`
	Type       AssetType     `json:"type"`
	Format     string        `json:"format"`
	Filename   string        `json:"filename"`
	Size       int           `json:"size"`
	SlideIndex int           `json:"slideIndex"`
	Data       []byte        `json:"-"`
	Metadata   AssetMetadata `json:"metadata"`
}

// AssetMetadata holds type-specific asset details. All fields are
// best-effort; absent values stay zero.
type AssetMetadata struct {
	ShapeName string `json:"shapeName,omitempty"`
	MimeType  string `json:"mimeType,omitempty"`

	// Image
	Width  int `json:"width,omitempty"`
	Height int `json:"height,omitempty"`

	// Video / audio
	DurationSeconds float64 `json:"durationSeconds,omitempty"`
	CodecHint       string  `json:"codecHint,omitempty"`
	Volume          int     `json:"volume,omitempty"`

	// Document
	PageCount  int      `json:"pageCount,omitempty"`
	SheetNames []string `json:"sheetNames,omitempty"`
}

// AssetBatch is the outcome of one extraction pass: whatever subset of
// assets succeeded plus a count of instances that were skipped on failure.
type AssetBatch struct {
	Assets       []AssetResult `json:"assets"`
	FailedAssets int           `json:"failedAssets"`
}
