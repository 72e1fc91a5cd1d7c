// Package model defines the Universal Presentation Schema: the normalized,
// versioned JSON document model for a presentation, independent of the
// underlying document engine's object graph. The JSON field names and nesting
// here are a stable contract consumed by other systems; breaking changes
// require a new schema version.
package model

// SchemaVersion is written to the root of every converted document.
const SchemaVersion = "1.0"

// UniversalPresentation is the root document produced by a conversion.
// It is constructed once per conversion call and not mutated afterwards.
type UniversalPresentation struct {
	Version  string          `json:"version"`
	Metadata Metadata        `json:"metadata"`
	Slides   []Slide         `json:"slides"`
	Stats    ProcessingStats `json:"processingStats"`
}

// Metadata holds document-level properties. Fields missing from the source
// degrade to empty string / zero rather than failing the conversion.
type Metadata struct {
	Title        string `json:"title"`
	Author       string `json:"author"`
	Company      string `json:"company"`
	CreatedAt    string `json:"createdAt,omitempty"`
	ModifiedAt   string `json:"modifiedAt,omitempty"`
	SlideCount   int    `json:"slideCount"`
	MasterCount  int    `json:"masterCount"`
	LayoutCount  int    `json:"layoutCount"`
	SourceFile   string `json:"sourceFile,omitempty"`
	SourceFormat string `json:"sourceFormat"`
}

// ProcessingStats is computed from the already-extracted output tree, never
// from the source container, so it stays consistent with the document even
// when parts of the extraction degraded. The failure counters let callers
// distinguish a clean conversion from a degraded one.
type ProcessingStats struct {
	SlideCount     int `json:"slideCount"`
	ShapeCount     int `json:"shapeCount"`
	TextLength     int `json:"textLength"`
	FailedSlides   int `json:"failedSlides"`
	FailedShapes   int `json:"failedShapes"`
	FieldFallbacks int `json:"fieldFallbacks"`
}

// Slide is one slide of the document. SlideID is the 1-based source position
// and is unique and stable within a document; a slide whose extraction fails
// entirely is replaced by an empty placeholder carrying the same SlideID.
type Slide struct {
	SlideID     int          `json:"slideId"`
	Name        string       `json:"name"`
	Hidden      bool         `json:"hidden"`
	Shapes      []Shape      `json:"shapes"`
	Notes       *string      `json:"notes"`
	Background  *Background  `json:"background"`
	Transition  string       `json:"transition,omitempty"`
	Animations  []Animation  `json:"animations,omitempty"`
	Comments    []Comment    `json:"comments,omitempty"`
	Placeholder bool         `json:"placeholder,omitempty"`
}

// ShapeType enumerates the normalized shape kinds.
type ShapeType string

const (
	ShapeAutoShape  ShapeType = "AutoShape"
	ShapePicture    ShapeType = "Picture"
	ShapeVideoFrame ShapeType = "VideoFrame"
	ShapeAudioFrame ShapeType = "AudioFrame"
	ShapeGroup      ShapeType = "GroupShape"
	ShapeTable      ShapeType = "Table"
	ShapeChart      ShapeType = "Chart"
	ShapeOleObject  ShapeType = "OleObject"
	ShapeTextBox    ShapeType = "TextBox"
	ShapeUnknown    ShapeType = "Unknown"
)

// Shape is one visual element on a slide. Geometry is always non-nil
// (zeroed on extraction failure) and Type is best-effort: richer but
// uncertain type information is preferred over Unknown. Group shapes carry
// nested child shapes; the nesting is strictly a tree.
type Shape struct {
	ShapeID    string      `json:"shapeId"`
	Name       string      `json:"name"`
	Type       ShapeType   `json:"type"`
	Geometry   Geometry    `json:"geometry"`
	Text       *TextFrame  `json:"text"`
	FillFormat *Fill       `json:"fillFormat"`
	LineFormat *Line       `json:"lineFormat"`
	IsVisible  bool        `json:"isVisible"`
	IsLocked   bool        `json:"isLocked"`
	Hyperlinks []Hyperlink `json:"hyperlinks,omitempty"`
	Shapes     []Shape     `json:"shapes,omitempty"`
}

// Geometry is a shape's frame in points, plus rotation and z-order.
type Geometry struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	Rotation float64 `json:"rotation"`
	ZOrder   int     `json:"zOrder"`
}

// TextFrame is the normalized rich-text model of a shape. PlainText always
// equals the concatenation of all portion texts across all paragraphs in
// order; plain and formatted extraction are independent best-effort passes,
// so PlainText may be populated while per-portion formatting is defaulted.
type TextFrame struct {
	PlainText  string      `json:"plainText"`
	Paragraphs []Paragraph `json:"paragraphs"`
}

// Paragraph is one paragraph of a text frame.
type Paragraph struct {
	Alignment string    `json:"alignment,omitempty"`
	Indent    int       `json:"indent,omitempty"`
	Portions  []Portion `json:"portions"`
}

// Portion is a run of uniformly formatted text.
type Portion struct {
	Text     string `json:"text"`
	FontName string `json:"fontName,omitempty"`
	FontSize float64 `json:"fontSize,omitempty"`
	Bold     bool   `json:"bold,omitempty"`
	Italic   bool   `json:"italic,omitempty"`
	Underline bool  `json:"underline,omitempty"`
	Color    string `json:"color"`
}

// FillType enumerates fill variants.
type FillType string

const (
	FillNone     FillType = "NoFill"
	FillSolid    FillType = "Solid"
	FillGradient FillType = "Gradient"
	FillPattern  FillType = "Pattern"
	FillPicture  FillType = "PictureFill"
)

// Fill is an immutable tagged-variant fill value, produced fresh per shape.
type Fill struct {
	Type          FillType       `json:"type"`
	Color         string         `json:"color,omitempty"`
	GradientShape string         `json:"gradientShape,omitempty"`
	GradientAngle float64        `json:"gradientAngle,omitempty"`
	GradientStops []GradientStop `json:"gradientStops,omitempty"`
	PatternStyle  string         `json:"patternStyle,omitempty"`
	ForeColor     string         `json:"foreColor,omitempty"`
	BackColor     string         `json:"backColor,omitempty"`
}

// GradientStop is one stop of a gradient fill.
type GradientStop struct {
	Position float64 `json:"position"`
	Color    string  `json:"color"`
}

// Line is a shape's outline format.
type Line struct {
	Type  FillType `json:"type"`
	Color string   `json:"color,omitempty"`
	Width float64  `json:"width,omitempty"`
	Style string   `json:"style,omitempty"`
}

// Background is a slide background fill.
type Background struct {
	Fill Fill `json:"fill"`
}

// Hyperlink is a clickable link on a shape or text run.
type Hyperlink struct {
	Target string `json:"target"`
	Text   string `json:"text,omitempty"`
}

// Animation is one entry of a slide's animation timeline.
type Animation struct {
	ShapeID string `json:"shapeId,omitempty"`
	Effect  string `json:"effect"`
	Trigger string `json:"trigger,omitempty"`
}

// Comment is a reviewer comment attached to a slide.
type Comment struct {
	Author string `json:"author"`
	Text   string `json:"text"`
	Date   string `json:"date,omitempty"`
}

// TotalShapeCount returns the number of shapes across all slides, counting
// nested group children.
func (p *UniversalPresentation) TotalShapeCount() int {
	var n int
	for i := range p.Slides {
		n += countShapes(p.Slides[i].Shapes)
	}
	return n
}

func countShapes(shapes []Shape) int {
	n := len(shapes)
	for i := range shapes {
		n += countShapes(shapes[i].Shapes)
	}
	return n
}

// TotalTextLength returns the total plain-text length across all slides.
func (p *UniversalPresentation) TotalTextLength() int {
	var n int
	for i := range p.Slides {
		n += textLength(p.Slides[i].Shapes)
	}
	return n
}

func textLength(shapes []Shape) int {
	var n int
	for i := range shapes {
		if shapes[i].Text != nil {
			n += len(shapes[i].Text.PlainText)
		}
		n += textLength(shapes[i].Shapes)
	}
	return n
}
