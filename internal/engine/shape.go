package engine

import (
	"fmt"
	"strconv"
	"strings"
)

// pptxShape implements Shape over one parsed shape-tree node.
type pptxShape struct {
	slide  *pptxSlide
	node   *xmlShapeNode
	zOrder int
}

func (sh *pptxShape) cNvPr() (*xmlCNvPr, error) {
	switch sh.node.Kind {
	case "sp", "cxnSp":
		return &sh.node.Sp.NvSpPr.CNvPr, nil
	case "pic":
		return &sh.node.Pic.NvPicPr.CNvPr, nil
	case "grpSp":
		return &sh.node.GrpSp.NvPr.CNvPr, nil
	case "graphicFrame":
		return &sh.node.GraphicFrame.NvPr.CNvPr, nil
	}
	return nil, fmt.Errorf("engine: shape node %q has no properties", sh.node.Kind)
}

func (sh *pptxShape) ID() (string, error) {
	if sh.slide.pres.isDisposed() {
		return "", ErrDisposed
	}
	pr, err := sh.cNvPr()
	if err != nil {
		return "", err
	}
	if pr.ID == "" {
		return "", fmt.Errorf("engine: shape has no id")
	}
	return pr.ID, nil
}

func (sh *pptxShape) Name() (string, error) {
	if sh.slide.pres.isDisposed() {
		return "", ErrDisposed
	}
	pr, err := sh.cNvPr()
	if err != nil {
		return "", err
	}
	return pr.Name, nil
}

func (sh *pptxShape) xfrm() *xmlXfrm {
	switch sh.node.Kind {
	case "sp", "cxnSp":
		return sh.node.Sp.SpPr.Xfrm
	case "pic":
		return sh.node.Pic.SpPr.Xfrm
	case "grpSp":
		return sh.node.GrpSp.Xfrm
	case "graphicFrame":
		return sh.node.GraphicFrame.Xfrm
	}
	return nil
}

// Frame reads the shape's transform. Shapes with no declared transform
// (placeholders inheriting from layout) report an error; callers default.
func (sh *pptxShape) Frame() (Frame, error) {
	if sh.slide.pres.isDisposed() {
		return Frame{}, ErrDisposed
	}
	x := sh.xfrm()
	if x == nil || x.Off == nil || x.Ext == nil {
		return Frame{}, fmt.Errorf("engine: shape declares no transform")
	}
	offX, err1 := strconv.ParseInt(x.Off.X, 10, 64)
	offY, err2 := strconv.ParseInt(x.Off.Y, 10, 64)
	extX, err3 := strconv.ParseInt(x.Ext.CX, 10, 64)
	extY, err4 := strconv.ParseInt(x.Ext.CY, 10, 64)
	if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
		return Frame{}, fmt.Errorf("engine: malformed transform values")
	}
	f := Frame{
		X:      float64(offX) / emuPerPoint,
		Y:      float64(offY) / emuPerPoint,
		Width:  float64(extX) / emuPerPoint,
		Height: float64(extY) / emuPerPoint,
		ZOrder: sh.zOrder,
	}
	if x.Rot != "" {
		if rot, err := strconv.ParseFloat(x.Rot, 64); err == nil {
			f.Rotation = rot / 60000 // 60000ths of a degree
		}
	}
	return f, nil
}

func (sh *pptxShape) Hidden() (bool, error) {
	if sh.slide.pres.isDisposed() {
		return false, ErrDisposed
	}
	pr, err := sh.cNvPr()
	if err != nil {
		return false, err
	}
	return pr.Hidden == "1" || strings.EqualFold(pr.Hidden, "true"), nil
}

func (sh *pptxShape) Locked() (bool, error) {
	if sh.slide.pres.isDisposed() {
		return false, ErrDisposed
	}
	if sh.node.Sp == nil {
		return false, nil
	}
	locks := sh.node.Sp.NvSpPr.CNvSpPr.SpLocks
	if locks == nil {
		return false, nil
	}
	return locks.NoSelect == "1" || locks.NoMove == "1" || locks.NoResize == "1", nil
}

func (sh *pptxShape) TextFrame() (TextFrame, error) {
	if sh.slide.pres.isDisposed() {
		return nil, ErrDisposed
	}
	if sh.node.Sp == nil || sh.node.Sp.TxBody == nil {
		return nil, ErrNoTextFrame
	}
	return &pptxTextFrame{slide: sh.slide, body: sh.node.Sp.TxBody}, nil
}

func (sh *pptxShape) IsTextBox() (bool, error) {
	if sh.slide.pres.isDisposed() {
		return false, ErrDisposed
	}
	if sh.node.Sp == nil {
		return false, nil
	}
	return sh.node.Sp.NvSpPr.CNvSpPr.TxBox == "1", nil
}

func (sh *pptxShape) FillFormat() (*FillData, error) {
	if sh.slide.pres.isDisposed() {
		return nil, ErrDisposed
	}
	switch sh.node.Kind {
	case "sp", "cxnSp":
		pr := &sh.node.Sp.SpPr
		return fillDataFrom(pr.NoFill, pr.SolidFill, pr.GradFill, pr.PattFill, pr.BlipFill != nil), nil
	case "pic":
		if sh.node.Pic.BlipFill != nil {
			return &FillData{Kind: "picture"}, nil
		}
		return nil, nil
	default:
		return nil, nil
	}
}

func (sh *pptxShape) LineFormat() (*LineData, error) {
	if sh.slide.pres.isDisposed() {
		return nil, ErrDisposed
	}
	var ln *xmlLn
	switch sh.node.Kind {
	case "sp", "cxnSp":
		ln = sh.node.Sp.SpPr.Ln
	case "pic":
		ln = sh.node.Pic.SpPr.Ln
	}
	if ln == nil {
		return nil, nil
	}
	ld := &LineData{Kind: "solid"}
	if ln.NoFill != nil {
		ld.Kind = "none"
	}
	if c, ok := solidColor(ln.SolidFill); ok {
		ld.Color = c
	}
	if ln.W != "" {
		if w, err := strconv.ParseFloat(ln.W, 64); err == nil {
			ld.Width = w / emuPerPoint
		}
	}
	if ln.PrstDash != nil {
		ld.Style = ln.PrstDash.Val
	}
	return ld, nil
}

// Hyperlinks collects shape-level and run-level link targets, resolved
// through the slide's relationships.
func (sh *pptxShape) Hyperlinks() ([]HyperlinkData, error) {
	if sh.slide.pres.isDisposed() {
		return nil, ErrDisposed
	}
	var out []HyperlinkData
	appendLink := func(rid, text string) {
		if rid == "" {
			return
		}
		rel, ok := sh.slide.relByID(rid)
		if !ok {
			return
		}
		out = append(out, HyperlinkData{Target: rel.Target, Text: text})
	}
	if pr, err := sh.cNvPr(); err == nil && pr.Hlink != nil {
		appendLink(pr.Hlink.RID, pr.Name)
	}
	if sh.node.Sp != nil && sh.node.Sp.TxBody != nil {
		for _, para := range sh.node.Sp.TxBody.Paragraphs {
			for _, run := range para.Runs {
				if run.RPr != nil && run.RPr.Hlink != nil {
					appendLink(run.RPr.Hlink.RID, run.Text)
				}
			}
		}
	}
	return out, nil
}

// Capability probes. Order of probing is the caller's contract; each probe
// answers only "is this shape of my kind".

func (sh *pptxShape) AsVideoFrame() (MediaFrame, error) {
	if sh.slide.pres.isDisposed() {
		return nil, ErrDisposed
	}
	if sh.node.Pic == nil || sh.node.Pic.NvPicPr.NvPr.VideoFile == nil {
		return nil, ErrCapability
	}
	return newMediaFrame(sh.slide, sh.node.Pic, sh.node.Pic.NvPicPr.NvPr.VideoFile.Link), nil
}

func (sh *pptxShape) AsAudioFrame() (MediaFrame, error) {
	if sh.slide.pres.isDisposed() {
		return nil, ErrDisposed
	}
	if sh.node.Pic == nil || sh.node.Pic.NvPicPr.NvPr.AudioFile == nil {
		return nil, ErrCapability
	}
	return newMediaFrame(sh.slide, sh.node.Pic, sh.node.Pic.NvPicPr.NvPr.AudioFile.Link), nil
}

func (sh *pptxShape) AsPicture() (MediaFrame, error) {
	if sh.slide.pres.isDisposed() {
		return nil, ErrDisposed
	}
	if sh.node.Pic == nil {
		return nil, ErrCapability
	}
	return newMediaFrame(sh.slide, sh.node.Pic, ""), nil
}

func (sh *pptxShape) AsGroup() (Group, error) {
	if sh.slide.pres.isDisposed() {
		return nil, ErrDisposed
	}
	if sh.node.GrpSp == nil {
		return nil, ErrCapability
	}
	return &pptxGroup{slide: sh.slide, grp: sh.node.GrpSp}, nil
}

func (sh *pptxShape) AsTable() (Table, error) {
	if sh.slide.pres.isDisposed() {
		return nil, ErrDisposed
	}
	if sh.node.GraphicFrame == nil || sh.node.GraphicFrame.Graphic.GraphicData.Tbl == nil {
		return nil, ErrCapability
	}
	return &pptxTable{tbl: sh.node.GraphicFrame.Graphic.GraphicData.Tbl}, nil
}

func (sh *pptxShape) AsChart() (Chart, error) {
	if sh.slide.pres.isDisposed() {
		return nil, ErrDisposed
	}
	gf := sh.node.GraphicFrame
	if gf == nil || gf.Graphic.GraphicData.Chart == nil {
		return nil, ErrCapability
	}
	return &pptxChart{slide: sh.slide, relID: gf.Graphic.GraphicData.Chart.RID}, nil
}

func (sh *pptxShape) AsOLEObject() (OLEObject, error) {
	if sh.slide.pres.isDisposed() {
		return nil, ErrDisposed
	}
	gf := sh.node.GraphicFrame
	if gf == nil || gf.Graphic.GraphicData.OleObj == nil {
		return nil, ErrCapability
	}
	ole := gf.Graphic.GraphicData.OleObj
	return &pptxOLE{slide: sh.slide, relID: ole.RID, progID: ole.ProgID, name: ole.Name}, nil
}

// pptxGroup exposes a group's ordered children.
type pptxGroup struct {
	slide *pptxSlide
	grp   *xmlGrpSp
}

func (g *pptxGroup) Shapes() ([]Shape, error) {
	if g.slide.pres.isDisposed() {
		return nil, ErrDisposed
	}
	return shapesFromNodes(g.slide, g.grp.Nodes), nil
}

// pptxTable reports table dimensions.
type pptxTable struct {
	tbl *xmlTbl
}

func (t *pptxTable) RowCount() (int, error)    { return len(t.tbl.Rows), nil }
func (t *pptxTable) ColumnCount() (int, error) { return len(t.tbl.Grid.Cols), nil }
