package convert

import (
	"errors"

	"github.com/deckform/deckform/internal/engine"
)

// errRead stands in for an arbitrary engine read failure.
var errRead = errors.New("read failed")

type fakePresentation struct {
	props    engine.CoreProperties
	propsErr error
	slides   []engine.Slide
	slideErr map[int]error
	disposed bool
}

func (p *fakePresentation) CoreProperties() (engine.CoreProperties, error) {
	return p.props, p.propsErr
}
func (p *fakePresentation) SlideCount() (int, error) { return len(p.slides), nil }
func (p *fakePresentation) Slide(i int) (engine.Slide, error) {
	if err, ok := p.slideErr[i]; ok {
		return nil, err
	}
	return p.slides[i], nil
}
func (p *fakePresentation) SlideSize() (engine.SlideSize, error) {
	return engine.SlideSize{Width: 960, Height: 540}, nil
}
func (p *fakePresentation) MasterCount() (int, error) { return 1, nil }
func (p *fakePresentation) LayoutCount() (int, error) { return 1, nil }
func (p *fakePresentation) Dispose() error {
	p.disposed = true
	return nil
}

type fakeSlide struct {
	name       string
	hidden     bool
	shapes     []engine.Shape
	shapesErr  error
	notes      string
	notesErr   error
	animations []engine.AnimationData
}

func (s *fakeSlide) Name() (string, error)   { return s.name, nil }
func (s *fakeSlide) Hidden() (bool, error)   { return s.hidden, nil }
func (s *fakeSlide) Shapes() ([]engine.Shape, error) {
	if s.shapesErr != nil {
		return nil, s.shapesErr
	}
	return s.shapes, nil
}
func (s *fakeSlide) NotesText() (string, error) { return s.notes, s.notesErr }
func (s *fakeSlide) Background() (*engine.FillData, error) { return nil, nil }
func (s *fakeSlide) Transition() (string, error)           { return "", nil }
func (s *fakeSlide) Animations() ([]engine.AnimationData, error) {
	return s.animations, nil
}
func (s *fakeSlide) Comments() ([]engine.CommentData, error) {
	return nil, nil
}

// fakeShape defaults to a plain auto-shape whose reads all succeed; error
// fields flip individual reads into failures, kind selects which capability
// probe answers.
type fakeShape struct {
	id       string
	idErr    error
	name     string
	frame    engine.Frame
	frameErr error
	hidden   bool
	locked   bool
	textBox  bool
	text     engine.TextFrame
	textErr  error
	fill     *engine.FillData
	fillErr  error
	line     *engine.LineData
	links    []engine.HyperlinkData
	kind     string
	children []engine.Shape
}

func (s *fakeShape) ID() (string, error)   { return s.id, s.idErr }
func (s *fakeShape) Name() (string, error) { return s.name, nil }
func (s *fakeShape) Frame() (engine.Frame, error) {
	if s.frameErr != nil {
		return engine.Frame{}, s.frameErr
	}
	return s.frame, nil
}
func (s *fakeShape) Hidden() (bool, error) { return s.hidden, nil }
func (s *fakeShape) Locked() (bool, error) { return s.locked, nil }
func (s *fakeShape) TextFrame() (engine.TextFrame, error) {
	if s.textErr != nil {
		return nil, s.textErr
	}
	if s.text == nil {
		return nil, engine.ErrNoTextFrame
	}
	return s.text, nil
}
func (s *fakeShape) IsTextBox() (bool, error) { return s.textBox, nil }
func (s *fakeShape) FillFormat() (*engine.FillData, error) {
	return s.fill, s.fillErr
}
func (s *fakeShape) LineFormat() (*engine.LineData, error) { return s.line, nil }
func (s *fakeShape) Hyperlinks() ([]engine.HyperlinkData, error) {
	return s.links, nil
}

func (s *fakeShape) probe(kind string) error {
	if s.kind == kind {
		return nil
	}
	return engine.ErrCapability
}

func (s *fakeShape) AsVideoFrame() (engine.MediaFrame, error) {
	if err := s.probe("video"); err != nil {
		return nil, err
	}
	return &fakeMedia{}, nil
}
func (s *fakeShape) AsAudioFrame() (engine.MediaFrame, error) {
	if err := s.probe("audio"); err != nil {
		return nil, err
	}
	return &fakeMedia{}, nil
}
func (s *fakeShape) AsPicture() (engine.MediaFrame, error) {
	// Media frames double as pictures, like the real engine.
	if s.kind == "picture" || s.kind == "video" || s.kind == "audio" {
		return &fakeMedia{}, nil
	}
	return nil, engine.ErrCapability
}
func (s *fakeShape) AsGroup() (engine.Group, error) {
	if err := s.probe("group"); err != nil {
		return nil, err
	}
	return &fakeGroup{children: s.children}, nil
}
func (s *fakeShape) AsTable() (engine.Table, error) {
	if err := s.probe("table"); err != nil {
		return nil, err
	}
	return &fakeTable{}, nil
}
func (s *fakeShape) AsChart() (engine.Chart, error) {
	if err := s.probe("chart"); err != nil {
		return nil, err
	}
	return &fakeChart{}, nil
}
func (s *fakeShape) AsOLEObject() (engine.OLEObject, error) {
	if err := s.probe("ole"); err != nil {
		return nil, err
	}
	return &fakeOLE{}, nil
}

type fakeGroup struct {
	children []engine.Shape
}

func (g *fakeGroup) Shapes() ([]engine.Shape, error) { return g.children, nil }

type fakeMedia struct {
	data []byte
	name string
	mime string
}

func (m *fakeMedia) Data() ([]byte, error) {
	if m.data == nil {
		return nil, errRead
	}
	return m.data, nil
}
func (m *fakeMedia) ContentType() (string, error)      { return m.mime, nil }
func (m *fakeMedia) DeclaredFilename() (string, error) { return m.name, nil }
func (m *fakeMedia) Volume() (int, error)              { return 0, errRead }

type fakeTable struct{}

func (t *fakeTable) RowCount() (int, error)    { return 2, nil }
func (t *fakeTable) ColumnCount() (int, error) { return 3, nil }

type fakeChart struct{}

func (c *fakeChart) Title() (string, error)        { return "Chart", nil }
func (c *fakeChart) WorkbookData() ([]byte, error) { return nil, errRead }

type fakeOLE struct{}

func (o *fakeOLE) Data() ([]byte, error)             { return []byte{1}, nil }
func (o *fakeOLE) ProgID() (string, error)           { return "Excel.Sheet.12", nil }
func (o *fakeOLE) DeclaredFilename() (string, error) { return "embedded.xlsx", nil }

type fakeTextFrame struct {
	paragraphs []engine.Paragraph
	err        error
}

func (t *fakeTextFrame) Paragraphs() ([]engine.Paragraph, error) {
	return t.paragraphs, t.err
}

type fakeParagraph struct {
	alignment string
	indent    int
	portions  []engine.Portion
}

func (p *fakeParagraph) Alignment() (string, error) { return p.alignment, nil }
func (p *fakeParagraph) Indent() (int, error)       { return p.indent, nil }
func (p *fakeParagraph) Portions() ([]engine.Portion, error) {
	return p.portions, nil
}

type fakePortion struct {
	text      string
	textErr   error
	format    engine.PortionFormat
	formatErr error
	fillColor string
	fillErr   error
	legacy    string
	legacyErr error
}

func (p *fakePortion) Text() (string, error) { return p.text, p.textErr }
func (p *fakePortion) Format() (engine.PortionFormat, error) {
	return p.format, p.formatErr
}
func (p *fakePortion) SolidFillColor() (string, error) {
	if p.fillErr != nil {
		return "", p.fillErr
	}
	if p.fillColor == "" {
		return "", engine.ErrCapability
	}
	return p.fillColor, nil
}
func (p *fakePortion) LegacyFontColor() (string, error) {
	if p.legacyErr != nil {
		return "", p.legacyErr
	}
	if p.legacy == "" {
		return "", engine.ErrCapability
	}
	return p.legacy, nil
}

// textFrameOf builds a single-paragraph text frame from plain portions.
func textFrameOf(texts ...string) engine.TextFrame {
	var portions []engine.Portion
	for _, t := range texts {
		portions = append(portions, &fakePortion{text: t})
	}
	return &fakeTextFrame{paragraphs: []engine.Paragraph{
		&fakeParagraph{portions: portions},
	}}
}

// openFake wires a Converter to a fixed presentation regardless of input.
func openFake(p engine.Presentation) func([]byte) (engine.Presentation, error) {
	return func([]byte) (engine.Presentation, error) { return p, nil }
}
