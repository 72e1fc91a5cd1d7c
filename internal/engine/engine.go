// Package engine provides the document-engine boundary: handle interfaces
// over a presentation's object graph (slides, shapes, text, formats, media)
// plus an OOXML-backed implementation. Every accessor returns an error so
// callers can treat any read as fallible; extraction layers above decide how
// a failure degrades. Capability probes (AsPicture, AsGroup, ...) return
// ErrCapability when the shape is not of that kind.
package engine

import (
	"errors"
	"sync"
)

// ErrCapability is returned by capability probes when a shape does not
// support the probed kind. Probe callers distinguish "not this kind" from a
// genuine read failure by checking for this error.
var ErrCapability = errors.New("engine: capability not supported")

// ErrNoTextFrame is returned by Shape.TextFrame for shapes with no
// text-frame capability at all.
var ErrNoTextFrame = errors.New("engine: shape has no text frame")

// ErrDisposed is returned by accessors used after Dispose.
var ErrDisposed = errors.New("engine: presentation disposed")

// Context holds process-wide engine initialization state. The underlying
// runtime is initialized at most once per process; every converter and
// extractor receives a Context and calls EnsureInitialized before opening
// containers.
type Context struct {
	mu          sync.Mutex
	initialized bool
}

// NewContext returns an uninitialized engine context.
func NewContext() *Context {
	return &Context{}
}

// EnsureInitialized initializes the engine runtime if it has not been
// initialized yet. Safe to call from multiple goroutines; subsequent calls
// are no-ops.
func (c *Context) EnsureInitialized() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.initialized {
		return nil
	}
	// The OOXML backend has no external runtime to license or warm up; the
	// init state is still tracked so callers observe one documented
	// initialization path.
	c.initialized = true
	return nil
}

// Initialized reports whether EnsureInitialized has completed.
func (c *Context) Initialized() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.initialized
}

// Frame is a shape's placement: offsets and extents in points, rotation in
// degrees, and the shape's z-order position within its container.
type Frame struct {
	X        float64
	Y        float64
	Width    float64
	Height   float64
	Rotation float64
	ZOrder   int
}

// SlideSize is the deck's slide dimensions in points.
type SlideSize struct {
	Width  float64
	Height float64
}

// CoreProperties are document-level properties from the container.
type CoreProperties struct {
	Title    string
	Author   string
	Company  string
	Created  string
	Modified string
}

// FillData is a raw fill read from the source, before normalization.
type FillData struct {
	Kind          string // "none", "solid", "gradient", "pattern", "picture"
	Color         string // hex, no leading '#'
	GradientShape string // "linear", or the a:path type (circle, rect, shape)
	GradientAngle float64
	GradientStops []GradientStopData
	PatternStyle  string
	ForeColor     string
	BackColor     string
}

// GradientStopData is one raw gradient stop.
type GradientStopData struct {
	Position float64
	Color    string
}

// LineData is a raw outline format read from the source.
type LineData struct {
	Kind  string
	Color string
	Width float64 // points
	Style string
}

// PortionFormat is the raw formatting of one text run.
type PortionFormat struct {
	FontName  string
	FontSize  float64
	Bold      bool
	Italic    bool
	Underline bool
}

// HyperlinkData is a raw hyperlink target.
type HyperlinkData struct {
	Target string
	Text   string
}

// CommentData is a raw reviewer comment.
type CommentData struct {
	Author string
	Text   string
	Date   string
}

// AnimationData is one entry of a slide's animation timeline, flattened to
// the effect kind, its trigger and the target shape id.
type AnimationData struct {
	ShapeID string
	Effect  string
	Trigger string
}

// Presentation is an open presentation container. It owns native resources
// (the underlying archive handle) and must be disposed on every exit path.
type Presentation interface {
	CoreProperties() (CoreProperties, error)
	SlideCount() (int, error)
	Slide(index int) (Slide, error)
	SlideSize() (SlideSize, error)
	MasterCount() (int, error)
	LayoutCount() (int, error)
	Dispose() error
}

// Slide is one slide's handle.
type Slide interface {
	Name() (string, error)
	Hidden() (bool, error)
	Shapes() ([]Shape, error)
	// NotesText returns speaker notes, or "" when the slide has none.
	NotesText() (string, error)
	// Background returns the slide background fill, or nil when inherited.
	Background() (*FillData, error)
	Transition() (string, error)
	// Animations returns the slide's animation timeline in source order,
	// or nil when the slide has no timing part.
	Animations() ([]AnimationData, error)
	Comments() ([]CommentData, error)
}

// Shape is one shape's handle. Kind-specific surfaces are reached through
// the As* capability probes; there is no single reliable discriminant.
type Shape interface {
	ID() (string, error)
	Name() (string, error)
	Frame() (Frame, error)
	Hidden() (bool, error)
	Locked() (bool, error)
	TextFrame() (TextFrame, error)
	// IsTextBox reports whether the shape was authored as a plain text box
	// rather than a geometry shape carrying text.
	IsTextBox() (bool, error)
	FillFormat() (*FillData, error)
	LineFormat() (*LineData, error)
	Hyperlinks() ([]HyperlinkData, error)

	AsVideoFrame() (MediaFrame, error)
	AsAudioFrame() (MediaFrame, error)
	AsPicture() (MediaFrame, error)
	AsGroup() (Group, error)
	AsTable() (Table, error)
	AsChart() (Chart, error)
	AsOLEObject() (OLEObject, error)
}

// TextFrame walks a shape's paragraph/run hierarchy.
type TextFrame interface {
	Paragraphs() ([]Paragraph, error)
}

// Paragraph is one paragraph's handle.
type Paragraph interface {
	Alignment() (string, error)
	Indent() (int, error)
	Portions() ([]Portion, error)
}

// Portion is one text run's handle. SolidFillColor is the run's direct fill
// color; LegacyFontColor is the older font-color surface used as a fallback
// when no direct fill is present.
type Portion interface {
	Text() (string, error)
	Format() (PortionFormat, error)
	SolidFillColor() (string, error)
	LegacyFontColor() (string, error)
}

// MediaFrame is a media-bearing shape surface (picture, video, audio).
type MediaFrame interface {
	// Data returns the raw embedded payload. Externally linked media with no
	// embedded bytes returns an error.
	Data() ([]byte, error)
	ContentType() (string, error)
	DeclaredFilename() (string, error)
	// Volume returns the configured playback volume (0-100) for audio/video
	// frames; pictures return an error.
	Volume() (int, error)
}

// Group is a group shape's surface; children are strictly tree-structured.
type Group interface {
	Shapes() ([]Shape, error)
}

// Table is a table shape's surface.
type Table interface {
	RowCount() (int, error)
	ColumnCount() (int, error)
}

// Chart is a chart shape's surface. WorkbookData returns the embedded
// spreadsheet holding the chart's source data, when present.
type Chart interface {
	Title() (string, error)
	WorkbookData() ([]byte, error)
}

// OLEObject is an embedded object's surface.
type OLEObject interface {
	Data() ([]byte, error)
	ProgID() (string, error)
	DeclaredFilename() (string, error)
}
