package engine

import (
	"fmt"
	"path"
	"strings"
)

// contentTypeByExt maps media file extensions to MIME types. Payload
// format detection downstream never trusts these; they are carried as the
// container's declared type only.
var contentTypeByExt = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".bmp":  "image/bmp",
	".tif":  "image/tiff",
	".tiff": "image/tiff",
	".webp": "image/webp",
	".emf":  "image/x-emf",
	".wmf":  "image/x-wmf",
	".mp4":  "video/mp4",
	".m4v":  "video/mp4",
	".mov":  "video/quicktime",
	".avi":  "video/x-msvideo",
	".wmv":  "video/x-ms-wmv",
	".webm": "video/webm",
	".mkv":  "video/x-matroska",
	".mp3":  "audio/mpeg",
	".wav":  "audio/wav",
	".m4a":  "audio/mp4",
	".ogg":  "audio/ogg",
	".flac": "audio/flac",
	".pdf":  "application/pdf",
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".bin":  "application/octet-stream",
}

// pptxMediaFrame implements MediaFrame for picture, video, and audio
// shapes. mediaRelID is the a:videoFile/a:audioFile link when present; the
// blip embed is the fallback payload reference (and the only one for plain
// pictures).
type pptxMediaFrame struct {
	slide      *pptxSlide
	pic        *xmlPic
	mediaRelID string
}

func newMediaFrame(slide *pptxSlide, pic *xmlPic, mediaRelID string) *pptxMediaFrame {
	return &pptxMediaFrame{slide: slide, pic: pic, mediaRelID: mediaRelID}
}

// target resolves the payload relationship: the media link first, then the
// blip embed. External-mode targets carry no embedded bytes.
func (m *pptxMediaFrame) target() (xmlRelationship, error) {
	if m.mediaRelID != "" {
		if rel, ok := m.slide.relByID(m.mediaRelID); ok {
			return rel, nil
		}
	}
	if m.pic.BlipFill != nil && m.pic.BlipFill.Blip != nil && m.pic.BlipFill.Blip.Embed != "" {
		if rel, ok := m.slide.relByID(m.pic.BlipFill.Blip.Embed); ok {
			return rel, nil
		}
	}
	return xmlRelationship{}, fmt.Errorf("engine: media frame has no payload relationship")
}

func (m *pptxMediaFrame) Data() ([]byte, error) {
	if m.slide.pres.isDisposed() {
		return nil, ErrDisposed
	}
	rel, err := m.target()
	if err != nil {
		return nil, err
	}
	if strings.EqualFold(rel.Mode, "External") {
		return nil, fmt.Errorf("engine: media is externally linked (%s)", rel.Target)
	}
	data, err := m.slide.pres.readPart(resolveRelTarget(m.slide.part, rel.Target))
	if err != nil {
		return nil, fmt.Errorf("engine: media payload: %w", err)
	}
	return data, nil
}

func (m *pptxMediaFrame) ContentType() (string, error) {
	if m.slide.pres.isDisposed() {
		return "", ErrDisposed
	}
	rel, err := m.target()
	if err != nil {
		return "", err
	}
	if ct, ok := contentTypeByExt[strings.ToLower(path.Ext(rel.Target))]; ok {
		return ct, nil
	}
	return "application/octet-stream", nil
}

func (m *pptxMediaFrame) DeclaredFilename() (string, error) {
	if m.slide.pres.isDisposed() {
		return "", ErrDisposed
	}
	rel, err := m.target()
	if err != nil {
		return "", err
	}
	return path.Base(rel.Target), nil
}

// Volume is not declared at the shape level in this backend.
func (m *pptxMediaFrame) Volume() (int, error) {
	return 0, fmt.Errorf("engine: volume not declared")
}

// pptxChart resolves the chart part and its embedded workbook.
type pptxChart struct {
	slide *pptxSlide
	relID string
}

func (c *pptxChart) chartPart() (string, error) {
	rel, ok := c.slide.relByID(c.relID)
	if !ok {
		return "", fmt.Errorf("engine: chart relationship %s not found", c.relID)
	}
	return resolveRelTarget(c.slide.part, rel.Target), nil
}

// Title harvests the chart title text nodes, or "" when untitled.
func (c *pptxChart) Title() (string, error) {
	if c.slide.pres.isDisposed() {
		return "", ErrDisposed
	}
	part, err := c.chartPart()
	if err != nil {
		return "", err
	}
	data, err := c.slide.pres.readPart(part)
	if err != nil {
		return "", fmt.Errorf("engine: chart part: %w", err)
	}
	content := string(data)
	if idx := strings.Index(content, "</c:title>"); idx >= 0 {
		content = content[:idx]
	} else {
		return "", nil
	}
	var b strings.Builder
	for _, m := range atTag.FindAllStringSubmatch(content, -1) {
		b.WriteString(m[1])
	}
	return strings.TrimSpace(b.String()), nil
}

// WorkbookData returns the chart's embedded spreadsheet payload.
func (c *pptxChart) WorkbookData() ([]byte, error) {
	if c.slide.pres.isDisposed() {
		return nil, ErrDisposed
	}
	part, err := c.chartPart()
	if err != nil {
		return nil, err
	}
	rels, err := c.slide.pres.readRels(relsPathFor(part))
	if err != nil {
		return nil, err
	}
	for _, r := range rels.Rels {
		if strings.HasSuffix(r.Type, "/package") || strings.HasSuffix(r.Type, "/oleObject") {
			return c.slide.pres.readPart(resolveRelTarget(part, r.Target))
		}
	}
	return nil, fmt.Errorf("engine: chart has no embedded workbook")
}

// pptxOLE resolves an embedded object's payload.
type pptxOLE struct {
	slide  *pptxSlide
	relID  string
	progID string
	name   string
}

func (o *pptxOLE) Data() ([]byte, error) {
	if o.slide.pres.isDisposed() {
		return nil, ErrDisposed
	}
	rel, ok := o.slide.relByID(o.relID)
	if !ok {
		return nil, fmt.Errorf("engine: ole relationship %s not found", o.relID)
	}
	if strings.EqualFold(rel.Mode, "External") {
		return nil, fmt.Errorf("engine: ole object is externally linked (%s)", rel.Target)
	}
	return o.slide.pres.readPart(resolveRelTarget(o.slide.part, rel.Target))
}

func (o *pptxOLE) ProgID() (string, error) {
	if o.slide.pres.isDisposed() {
		return "", ErrDisposed
	}
	return o.progID, nil
}

func (o *pptxOLE) DeclaredFilename() (string, error) {
	if o.slide.pres.isDisposed() {
		return "", ErrDisposed
	}
	rel, ok := o.slide.relByID(o.relID)
	if !ok {
		return "", fmt.Errorf("engine: ole relationship %s not found", o.relID)
	}
	return path.Base(rel.Target), nil
}
