package convert

import (
	"errors"
	"strings"

	"github.com/deckform/deckform/internal/engine"
	"github.com/deckform/deckform/internal/model"
)

const defaultColor = "#000000"

// extractGeometry reads a shape's frame. A shape with no readable transform
// gets a zeroed geometry rather than failing the shape.
func extractGeometry(d *degradation, sh engine.Shape) model.Geometry {
	f := try(d, "geometry", engine.Frame{}, sh.Frame)
	return model.Geometry{
		X:        f.X,
		Y:        f.Y,
		Width:    f.Width,
		Height:   f.Height,
		Rotation: f.Rotation,
		ZOrder:   f.ZOrder,
	}
}

// extractFill normalizes a shape's fill into the tagged-variant model. A nil
// source fill (inherited from theme or layout) maps to nil; a read failure
// degrades to nil with a counted fallback.
func extractFill(d *degradation, sh engine.Shape) *model.Fill {
	fd, err := sh.FillFormat()
	if err != nil {
		d.fieldFailed("fillFormat", err)
		return nil
	}
	return mapFill(fd)
}

func mapFill(fd *engine.FillData) *model.Fill {
	if fd == nil {
		return nil
	}
	f := &model.Fill{}
	switch fd.Kind {
	case "none":
		f.Type = model.FillNone
	case "solid":
		f.Type = model.FillSolid
		f.Color = normalizeColor(fd.Color)
	case "gradient":
		f.Type = model.FillGradient
		f.GradientShape = fd.GradientShape
		f.GradientAngle = fd.GradientAngle
		for _, st := range fd.GradientStops {
			f.GradientStops = append(f.GradientStops, model.GradientStop{
				Position: st.Position,
				Color:    normalizeColor(st.Color),
			})
		}
	case "pattern":
		f.Type = model.FillPattern
		f.PatternStyle = fd.PatternStyle
		f.ForeColor = normalizeColor(fd.ForeColor)
		f.BackColor = normalizeColor(fd.BackColor)
	case "picture":
		f.Type = model.FillPicture
	default:
		f.Type = model.FillNone
	}
	return f
}

func extractLine(d *degradation, sh engine.Shape) *model.Line {
	ld, err := sh.LineFormat()
	if err != nil {
		d.fieldFailed("lineFormat", err)
		return nil
	}
	if ld == nil {
		return nil
	}
	l := &model.Line{Width: ld.Width, Style: ld.Style}
	switch ld.Kind {
	case "none":
		l.Type = model.FillNone
	default:
		l.Type = model.FillSolid
		l.Color = normalizeColor(ld.Color)
	}
	return l
}

// extractPortionFormat fills one portion's formatting fields, each read
// degrading independently. The color resolution order is fixed: the run's
// direct solid fill wins, then the legacy font color, then black.
func extractPortionFormat(d *degradation, p engine.Portion, out *model.Portion) {
	if fm, err := p.Format(); err == nil {
		out.FontName = fm.FontName
		out.FontSize = fm.FontSize
		out.Bold = fm.Bold
		out.Italic = fm.Italic
		out.Underline = fm.Underline
	} else if !errors.Is(err, engine.ErrCapability) {
		d.fieldFailed("portionFormat", err)
	}
	out.Color = extractPortionColor(d, p)
}

func extractPortionColor(d *degradation, p engine.Portion) string {
	if c, err := p.SolidFillColor(); err == nil && c != "" {
		return normalizeColor(c)
	} else if err != nil && !errors.Is(err, engine.ErrCapability) {
		d.fieldFailed("portionColor", err)
	}
	if c, err := p.LegacyFontColor(); err == nil && c != "" {
		return normalizeColor(c)
	}
	return defaultColor
}

// normalizeColor renders an engine color value as #RRGGBB. Empty or
// unparseable values default to black.
func normalizeColor(c string) string {
	c = strings.TrimPrefix(strings.TrimSpace(c), "#")
	if len(c) != 6 {
		return defaultColor
	}
	return "#" + strings.ToUpper(c)
}
