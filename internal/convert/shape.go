package convert

import (
	"errors"

	"github.com/deckform/deckform/internal/engine"
	"github.com/deckform/deckform/internal/model"
)

// maxGroupDepth bounds group recursion against cyclic or absurdly deep
// source trees.
const maxGroupDepth = 32

// extractShape converts one shape handle. Every sub-extraction is isolated;
// the only unrecoverable read is the shape ID, without which the shape
// cannot be addressed at all. Callers treat a nil return as a failed shape.
func extractShape(d *degradation, sh engine.Shape, slideID, depth int) *model.Shape {
	id, err := sh.ID()
	if err != nil {
		return nil
	}
	out := &model.Shape{
		ShapeID:   id,
		Name:      try(d, "shapeName", "", sh.Name),
		Geometry:  extractGeometry(d, sh),
		IsVisible: !try(d, "shapeHidden", false, sh.Hidden),
		IsLocked:  try(d, "shapeLocked", false, sh.Locked),
	}
	out.Type, out.Shapes = resolveType(d, sh, slideID, depth)
	out.Text = extractText(d, sh)
	out.FillFormat = extractFill(d, sh)
	out.LineFormat = extractLine(d, sh)
	if links := try(d, "hyperlinks", []engine.HyperlinkData(nil), sh.Hyperlinks); len(links) > 0 {
		for _, l := range links {
			out.Hyperlinks = append(out.Hyperlinks, model.Hyperlink{Target: l.Target, Text: l.Text})
		}
	}
	return out
}

// resolveType probes the shape's kind in a fixed order, most specific first:
// video and audio before picture (media frames are pictures too), then
// group, table, chart, OLE, and finally the auto-shape/textbox split. A
// probe that fails with anything other than a capability miss degrades and
// the probing continues, so an uncertain kind still lands on the richest
// answer available rather than Unknown.
func resolveType(d *degradation, sh engine.Shape, slideID, depth int) (model.ShapeType, []model.Shape) {
	probe := func(name string, fn func() error) bool {
		err := fn()
		if err == nil {
			return true
		}
		if !errors.Is(err, engine.ErrCapability) && !errors.Is(err, engine.ErrDisposed) {
			d.fieldFailed(name, err)
		}
		return false
	}
	if probe("probeVideo", func() error { _, err := sh.AsVideoFrame(); return err }) {
		return model.ShapeVideoFrame, nil
	}
	if probe("probeAudio", func() error { _, err := sh.AsAudioFrame(); return err }) {
		return model.ShapeAudioFrame, nil
	}
	if probe("probePicture", func() error { _, err := sh.AsPicture(); return err }) {
		return model.ShapePicture, nil
	}
	if grp, err := sh.AsGroup(); err == nil {
		return model.ShapeGroup, extractGroupChildren(d, grp, slideID, depth)
	} else if !errors.Is(err, engine.ErrCapability) && !errors.Is(err, engine.ErrDisposed) {
		d.fieldFailed("probeGroup", err)
	}
	if probe("probeTable", func() error { _, err := sh.AsTable(); return err }) {
		return model.ShapeTable, nil
	}
	if probe("probeChart", func() error { _, err := sh.AsChart(); return err }) {
		return model.ShapeChart, nil
	}
	if probe("probeOLE", func() error { _, err := sh.AsOLEObject(); return err }) {
		return model.ShapeOleObject, nil
	}
	if try(d, "isTextBox", false, sh.IsTextBox) {
		return model.ShapeTextBox, nil
	}
	return model.ShapeAutoShape, nil
}

func extractGroupChildren(d *degradation, grp engine.Group, slideID, depth int) []model.Shape {
	if depth >= maxGroupDepth {
		return nil
	}
	children, err := grp.Shapes()
	if err != nil {
		d.fieldFailed("groupChildren", err)
		return nil
	}
	var out []model.Shape
	for _, child := range children {
		ms := extractShape(d, child, slideID, depth+1)
		if ms == nil {
			d.shapeFailed(slideID, errors.New("group child shape id unreadable"))
			continue
		}
		out = append(out, *ms)
	}
	return out
}
