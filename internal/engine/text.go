package engine

import (
	"fmt"
	"strconv"
	"strings"
)

// pptxTextFrame walks a txBody's paragraphs.
type pptxTextFrame struct {
	slide *pptxSlide
	body  *xmlTxBody
}

func (tf *pptxTextFrame) Paragraphs() ([]Paragraph, error) {
	if tf.slide.pres.isDisposed() {
		return nil, ErrDisposed
	}
	out := make([]Paragraph, 0, len(tf.body.Paragraphs))
	for i := range tf.body.Paragraphs {
		out = append(out, &pptxParagraph{slide: tf.slide, p: &tf.body.Paragraphs[i]})
	}
	return out, nil
}

type pptxParagraph struct {
	slide *pptxSlide
	p     *xmlParagraph
}

func (pp *pptxParagraph) Alignment() (string, error) {
	if pp.slide.pres.isDisposed() {
		return "", ErrDisposed
	}
	if pp.p.PPr == nil {
		return "", nil
	}
	return pp.p.PPr.Algn, nil
}

func (pp *pptxParagraph) Indent() (int, error) {
	if pp.slide.pres.isDisposed() {
		return 0, ErrDisposed
	}
	if pp.p.PPr == nil || pp.p.PPr.Lvl == "" {
		return 0, nil
	}
	lvl, err := strconv.Atoi(pp.p.PPr.Lvl)
	if err != nil {
		return 0, fmt.Errorf("engine: malformed indent level %q", pp.p.PPr.Lvl)
	}
	return lvl, nil
}

func (pp *pptxParagraph) Portions() ([]Portion, error) {
	if pp.slide.pres.isDisposed() {
		return nil, ErrDisposed
	}
	out := make([]Portion, 0, len(pp.p.Runs)+len(pp.p.Flds))
	for i := range pp.p.Runs {
		out = append(out, &pptxPortion{slide: pp.slide, para: pp.p, run: &pp.p.Runs[i]})
	}
	// Field runs (slide numbers, dates) carry text but no rich formatting.
	for i := range pp.p.Flds {
		out = append(out, &pptxPortion{slide: pp.slide, para: pp.p, fldText: pp.p.Flds[i].Text, isField: true})
	}
	return out, nil
}

type pptxPortion struct {
	slide   *pptxSlide
	para    *xmlParagraph
	run     *xmlRun
	fldText string
	isField bool
}

func (pt *pptxPortion) Text() (string, error) {
	if pt.slide.pres.isDisposed() {
		return "", ErrDisposed
	}
	if pt.isField {
		return pt.fldText, nil
	}
	return pt.run.Text, nil
}

func (pt *pptxPortion) Format() (PortionFormat, error) {
	if pt.slide.pres.isDisposed() {
		return PortionFormat{}, ErrDisposed
	}
	if pt.isField || pt.run.RPr == nil {
		return PortionFormat{}, ErrCapability
	}
	rpr := pt.run.RPr
	f := PortionFormat{
		Bold:      boolAttr(rpr.B),
		Italic:    boolAttr(rpr.I),
		Underline: rpr.U != "" && rpr.U != "none",
	}
	if rpr.Latin != nil {
		f.FontName = rpr.Latin.Typeface
	}
	if rpr.Sz != "" {
		if sz, err := strconv.ParseFloat(rpr.Sz, 64); err == nil {
			f.FontSize = sz / 100 // hundredths of a point
		}
	}
	return f, nil
}

// SolidFillColor is the run's direct fill color.
func (pt *pptxPortion) SolidFillColor() (string, error) {
	if pt.slide.pres.isDisposed() {
		return "", ErrDisposed
	}
	if pt.isField || pt.run.RPr == nil {
		return "", ErrCapability
	}
	if c, ok := solidColor(pt.run.RPr.SolidFill); ok {
		return c, nil
	}
	return "", ErrCapability
}

// LegacyFontColor falls back to the paragraph's default run properties,
// the older surface a run inherits from when it declares no fill.
func (pt *pptxPortion) LegacyFontColor() (string, error) {
	if pt.slide.pres.isDisposed() {
		return "", ErrDisposed
	}
	if pt.para.PPr == nil || pt.para.PPr.DefRPr == nil {
		return "", ErrCapability
	}
	if c, ok := solidColor(pt.para.PPr.DefRPr.SolidFill); ok {
		return c, nil
	}
	return "", ErrCapability
}

func boolAttr(v string) bool {
	return v == "1" || strings.EqualFold(v, "true")
}
