package engine

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path"
	"regexp"
	"strconv"
	"strings"
	"sync"
)

const (
	contentTypesPath     = "[Content_Types].xml"
	presentationPartPath = "ppt/presentation.xml"
	presentationRelsPath = "ppt/_rels/presentation.xml.rels"
	corePropsPath        = "docProps/core.xml"
	appPropsPath         = "docProps/app.xml"
	commentAuthorsPath   = "ppt/commentAuthors.xml"

	relTypeSlide    = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/slide"
	relTypeNotes    = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/notesSlide"
	relTypeComments = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/comments"

	// emuPerPoint converts English Metric Units to typographic points.
	emuPerPoint = 12700
)

// atTag matches <a:t>text</a:t> with any attributes; used for best-effort
// text harvesting from notes parts and chart titles.
var atTag = regexp.MustCompile(`<a:t[^>]*>([^<]*)</a:t>`)

// pptx is the OOXML-backed Presentation. The whole package is held in
// memory; Dispose drops the backing buffer and invalidates all handles.
type pptx struct {
	mu       sync.Mutex
	zr       *zip.Reader
	disposed bool

	slideParts  []string // ordered per p:sldIdLst
	slideSize   SlideSize
	masterCount int
	layoutCount int
	core        CoreProperties

	slides map[int]*pptxSlide
}

// Open opens the PPTX container at path.
func Open(filePath string) (Presentation, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("engine: read container: %w", err)
	}
	return OpenBytes(data)
}

// OpenBytes opens a PPTX container from bytes. A failure here means the
// input is not a readable presentation package (corrupt or wrong format).
func OpenBytes(data []byte) (Presentation, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("engine: not a zip container: %w", err)
	}
	p := &pptx{zr: zr, slides: make(map[int]*pptxSlide)}
	if _, err := p.readPart(contentTypesPath); err != nil {
		return nil, fmt.Errorf("engine: missing %s: %w", contentTypesPath, err)
	}
	if err := p.loadPresentationPart(); err != nil {
		return nil, err
	}
	p.loadProperties()
	return p, nil
}

func (p *pptx) loadPresentationPart() error {
	presXML, err := p.readPart(presentationPartPath)
	if err != nil {
		return fmt.Errorf("engine: missing %s: %w", presentationPartPath, err)
	}
	var root xmlPresentationRoot
	if err := xml.Unmarshal(presXML, &root); err != nil {
		return fmt.Errorf("engine: parse %s: %w", presentationPartPath, err)
	}

	rels, err := p.readRels(presentationRelsPath)
	if err != nil {
		return fmt.Errorf("engine: read presentation rels: %w", err)
	}
	byID := make(map[string]xmlRelationship, len(rels.Rels))
	for _, r := range rels.Rels {
		byID[r.ID] = r
	}

	for _, sld := range root.SldIdLst.Ids {
		rel, ok := byID[sld.RID]
		if !ok || rel.Type != relTypeSlide {
			continue
		}
		p.slideParts = append(p.slideParts, resolveRelTarget("ppt/presentation.xml", rel.Target))
	}
	if len(p.slideParts) == 0 {
		// Some producers omit r:id resolution paths we understand; fall back
		// to enumerating slide parts in numeric order.
		p.slideParts = p.enumerateSlideParts()
	}
	if len(p.slideParts) == 0 {
		return fmt.Errorf("engine: container has no slides")
	}

	p.masterCount = len(root.SldMasterIdLst.Ids)
	if root.SldSz != nil {
		cx, _ := strconv.ParseInt(root.SldSz.CX, 10, 64)
		cy, _ := strconv.ParseInt(root.SldSz.CY, 10, 64)
		p.slideSize = SlideSize{Width: float64(cx) / emuPerPoint, Height: float64(cy) / emuPerPoint}
	}
	for _, f := range p.zr.File {
		if strings.HasPrefix(f.Name, "ppt/slideLayouts/slideLayout") && strings.HasSuffix(f.Name, ".xml") {
			p.layoutCount++
		}
	}
	return nil
}

func (p *pptx) enumerateSlideParts() []string {
	type numbered struct {
		n    int
		name string
	}
	var found []numbered
	for _, f := range p.zr.File {
		base := path.Base(f.Name)
		if !strings.HasPrefix(f.Name, "ppt/slides/slide") || !strings.HasSuffix(base, ".xml") {
			continue
		}
		numStr := strings.TrimSuffix(strings.TrimPrefix(base, "slide"), ".xml")
		n, err := strconv.Atoi(numStr)
		if err != nil {
			continue
		}
		found = append(found, numbered{n: n, name: f.Name})
	}
	for i := 1; i < len(found); i++ {
		for j := i; j > 0 && found[j-1].n > found[j].n; j-- {
			found[j-1], found[j] = found[j], found[j-1]
		}
	}
	out := make([]string, len(found))
	for i, f := range found {
		out[i] = f.name
	}
	return out
}

// loadProperties reads docProps parts; each field degrades independently.
func (p *pptx) loadProperties() {
	if data, err := p.readPart(corePropsPath); err == nil {
		var cp xmlCoreProps
		if xml.Unmarshal(data, &cp) == nil {
			p.core.Title = cp.Title
			p.core.Author = cp.Creator
			p.core.Created = cp.Created
			p.core.Modified = cp.Modified
		}
	}
	if data, err := p.readPart(appPropsPath); err == nil {
		var ap xmlAppProps
		if xml.Unmarshal(data, &ap) == nil {
			p.core.Company = ap.Company
		}
	}
}

func (p *pptx) readPart(name string) ([]byte, error) {
	p.mu.Lock()
	if p.disposed {
		p.mu.Unlock()
		return nil, ErrDisposed
	}
	zr := p.zr
	p.mu.Unlock()

	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open part %s: %w", name, err)
		}
		data, err := io.ReadAll(rc)
		_ = rc.Close()
		if err != nil {
			return nil, fmt.Errorf("read part %s: %w", name, err)
		}
		return data, nil
	}
	return nil, fmt.Errorf("part %s not found", name)
}

func (p *pptx) readRels(name string) (*xmlRelationships, error) {
	data, err := p.readPart(name)
	if err != nil {
		return &xmlRelationships{}, nil // no rels part is legal
	}
	var rels xmlRelationships
	if err := xml.Unmarshal(data, &rels); err != nil {
		return nil, fmt.Errorf("parse rels %s: %w", name, err)
	}
	return &rels, nil
}

// resolveRelTarget resolves a relationship target relative to the part that
// declares it (e.g. "../media/image1.png" from "ppt/slides/slide1.xml"
// becomes "ppt/media/image1.png").
func resolveRelTarget(fromPart, target string) string {
	if strings.HasPrefix(target, "/") {
		return strings.TrimPrefix(target, "/")
	}
	return path.Clean(path.Join(path.Dir(fromPart), target))
}

func relsPathFor(part string) string {
	return path.Join(path.Dir(part), "_rels", path.Base(part)+".rels")
}

func (p *pptx) CoreProperties() (CoreProperties, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.disposed {
		return CoreProperties{}, ErrDisposed
	}
	return p.core, nil
}

func (p *pptx) SlideCount() (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.disposed {
		return 0, ErrDisposed
	}
	return len(p.slideParts), nil
}

func (p *pptx) SlideSize() (SlideSize, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.disposed {
		return SlideSize{}, ErrDisposed
	}
	if p.slideSize.Width == 0 {
		return SlideSize{}, fmt.Errorf("engine: slide size not declared")
	}
	return p.slideSize, nil
}

func (p *pptx) MasterCount() (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.disposed {
		return 0, ErrDisposed
	}
	return p.masterCount, nil
}

func (p *pptx) LayoutCount() (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.disposed {
		return 0, ErrDisposed
	}
	return p.layoutCount, nil
}

// Slide parses and returns the slide at index (0-based). Parsed slides are
// cached; handles stay valid until Dispose.
func (p *pptx) Slide(index int) (Slide, error) {
	p.mu.Lock()
	if p.disposed {
		p.mu.Unlock()
		return nil, ErrDisposed
	}
	if index < 0 || index >= len(p.slideParts) {
		p.mu.Unlock()
		return nil, fmt.Errorf("engine: slide index %d out of range [0,%d)", index, len(p.slideParts))
	}
	if s, ok := p.slides[index]; ok {
		p.mu.Unlock()
		return s, nil
	}
	part := p.slideParts[index]
	p.mu.Unlock()

	data, err := p.readPart(part)
	if err != nil {
		return nil, fmt.Errorf("engine: slide part: %w", err)
	}
	var root xmlSlideRoot
	if err := xml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("engine: parse %s: %w", part, err)
	}
	rels, err := p.readRels(relsPathFor(part))
	if err != nil {
		return nil, fmt.Errorf("engine: slide rels: %w", err)
	}
	s := &pptxSlide{pres: p, part: part, index: index, root: &root, rels: rels}

	p.mu.Lock()
	p.slides[index] = s
	p.mu.Unlock()
	return s, nil
}

// Dispose releases the container. All handles created from this
// presentation return ErrDisposed afterwards.
func (p *pptx) Dispose() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.disposed = true
	p.zr = nil
	p.slides = nil
	return nil
}

// pptxSlide implements Slide over a parsed slide part.
type pptxSlide struct {
	pres  *pptx
	part  string
	index int
	root  *xmlSlideRoot
	rels  *xmlRelationships
}

func (s *pptxSlide) relByID(id string) (xmlRelationship, bool) {
	for _, r := range s.rels.Rels {
		if r.ID == id {
			return r, true
		}
	}
	return xmlRelationship{}, false
}

func (s *pptxSlide) relByType(relType string) (xmlRelationship, bool) {
	for _, r := range s.rels.Rels {
		if r.Type == relType {
			return r, true
		}
	}
	return xmlRelationship{}, false
}

func (s *pptxSlide) Name() (string, error) {
	if s.pres.isDisposed() {
		return "", ErrDisposed
	}
	return s.root.CSld.Name, nil
}

func (s *pptxSlide) Hidden() (bool, error) {
	if s.pres.isDisposed() {
		return false, ErrDisposed
	}
	return s.root.Show != nil && *s.root.Show == "0", nil
}

func (s *pptxSlide) Shapes() ([]Shape, error) {
	if s.pres.isDisposed() {
		return nil, ErrDisposed
	}
	return shapesFromNodes(s, s.root.CSld.SpTree.Nodes), nil
}

func shapesFromNodes(s *pptxSlide, nodes []xmlShapeNode) []Shape {
	out := make([]Shape, 0, len(nodes))
	for i := range nodes {
		out = append(out, &pptxShape{slide: s, node: &nodes[i], zOrder: i})
	}
	return out
}

// NotesText harvests all text nodes from the slide's notes part, or ""
// when the slide has no notes.
func (s *pptxSlide) NotesText() (string, error) {
	if s.pres.isDisposed() {
		return "", ErrDisposed
	}
	rel, ok := s.relByType(relTypeNotes)
	if !ok {
		return "", nil
	}
	data, err := s.pres.readPart(resolveRelTarget(s.part, rel.Target))
	if err != nil {
		return "", fmt.Errorf("notes part: %w", err)
	}
	var b strings.Builder
	for _, m := range atTag.FindAllStringSubmatch(string(data), -1) {
		t := strings.TrimSpace(m[1])
		if t == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(t)
	}
	return b.String(), nil
}

func (s *pptxSlide) Background() (*FillData, error) {
	if s.pres.isDisposed() {
		return nil, ErrDisposed
	}
	bg := s.root.CSld.Bg
	if bg == nil || bg.BgPr == nil {
		return nil, nil
	}
	fd := fillDataFrom(bg.BgPr.NoFill, bg.BgPr.SolidFill, bg.BgPr.GradFill, bg.BgPr.PattFill, bg.BgPr.BlipFill != nil)
	return fd, nil
}

func (s *pptxSlide) Transition() (string, error) {
	if s.pres.isDisposed() {
		return "", ErrDisposed
	}
	if s.root.Transition == nil {
		return "", nil
	}
	return s.root.Transition.Effect, nil
}

func (s *pptxSlide) Animations() ([]AnimationData, error) {
	if s.pres.isDisposed() {
		return nil, ErrDisposed
	}
	if s.root.Timing == nil {
		return nil, nil
	}
	out := make([]AnimationData, 0, len(s.root.Timing.Entries))
	for _, e := range s.root.Timing.Entries {
		out = append(out, AnimationData{ShapeID: e.SpID, Effect: e.Effect, Trigger: e.Trigger})
	}
	return out, nil
}

func (s *pptxSlide) Comments() ([]CommentData, error) {
	if s.pres.isDisposed() {
		return nil, ErrDisposed
	}
	rel, ok := s.relByType(relTypeComments)
	if !ok {
		return nil, nil
	}
	data, err := s.pres.readPart(resolveRelTarget(s.part, rel.Target))
	if err != nil {
		return nil, fmt.Errorf("comments part: %w", err)
	}
	var list xmlCommentList
	if err := xml.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("parse comments: %w", err)
	}

	authors := map[string]string{}
	if authorData, err := s.pres.readPart(commentAuthorsPath); err == nil {
		var ca xmlCommentAuthors
		if xml.Unmarshal(authorData, &ca) == nil {
			for _, a := range ca.Authors {
				authors[a.ID] = a.Name
			}
		}
	}

	out := make([]CommentData, 0, len(list.Comments))
	for _, c := range list.Comments {
		name := authors[c.AuthorID]
		if name == "" {
			name = "Unknown"
		}
		out = append(out, CommentData{Author: name, Text: c.Text, Date: c.Date})
	}
	return out, nil
}

func (p *pptx) isDisposed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.disposed
}

// fillDataFrom normalizes whichever OOXML fill element is present into a
// FillData, or nil when no explicit fill is declared (inherited).
func fillDataFrom(noFill *struct{}, solid *xmlSolidFill, grad *xmlGradFill, patt *xmlPattFill, picture bool) *FillData {
	switch {
	case noFill != nil:
		return &FillData{Kind: "none"}
	case solid != nil:
		fd := &FillData{Kind: "solid"}
		if c, ok := solidColor(solid); ok {
			fd.Color = c
		}
		return fd
	case grad != nil:
		fd := &FillData{Kind: "gradient", GradientShape: "linear"}
		if grad.Lin != nil {
			if ang, err := strconv.ParseFloat(grad.Lin.Ang, 64); err == nil {
				fd.GradientAngle = ang / 60000 // 60000ths of a degree
			}
		}
		if grad.Path != nil && grad.Path.PathType != "" {
			fd.GradientShape = grad.Path.PathType
		}
		for _, gs := range grad.GsLst.Gs {
			stop := GradientStopData{}
			if pos, err := strconv.ParseFloat(gs.Pos, 64); err == nil {
				stop.Position = pos / 100000 // per-mille-of-percent to fraction
			}
			if gs.SrgbClr != nil {
				stop.Color = strings.ToUpper(gs.SrgbClr.Val)
			}
			fd.GradientStops = append(fd.GradientStops, stop)
		}
		return fd
	case patt != nil:
		fd := &FillData{Kind: "pattern", PatternStyle: patt.Prst}
		if patt.FgClr != nil {
			if c, ok := solidColor(patt.FgClr); ok {
				fd.ForeColor = c
			}
		}
		if patt.BgClr != nil {
			if c, ok := solidColor(patt.BgClr); ok {
				fd.BackColor = c
			}
		}
		return fd
	case picture:
		return &FillData{Kind: "picture"}
	default:
		return nil
	}
}

// solidColor resolves a solid fill to an uppercase hex color. Scheme colors
// cannot be resolved without the theme part and report false.
func solidColor(sf *xmlSolidFill) (string, bool) {
	if sf == nil {
		return "", false
	}
	if sf.SrgbClr != nil && sf.SrgbClr.Val != "" {
		return strings.ToUpper(sf.SrgbClr.Val), true
	}
	return "", false
}
