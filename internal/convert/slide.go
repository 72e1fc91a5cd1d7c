package convert

import (
	"errors"

	"github.com/deckform/deckform/internal/engine"
	"github.com/deckform/deckform/internal/model"
)

// placeholderSlide stands in for a slide whose extraction failed entirely.
// It keeps the slide's position in the deck so slide numbering downstream
// stays stable.
func placeholderSlide(slideID int) model.Slide {
	return model.Slide{
		SlideID:     slideID,
		Name:        "",
		Shapes:      []model.Shape{},
		Placeholder: true,
	}
}

// extractSlide converts one slide handle. The shape tree is the only read
// whose failure abandons the slide; everything else degrades field by field.
func extractSlide(d *degradation, sl engine.Slide, slideID int) model.Slide {
	shapes, err := sl.Shapes()
	if err != nil {
		d.slideFailed(slideID, err)
		return placeholderSlide(slideID)
	}
	out := model.Slide{
		SlideID: slideID,
		Name:    try(d, "slideName", "", sl.Name),
		Hidden:  try(d, "slideHidden", false, sl.Hidden),
		Shapes:  []model.Shape{},
	}
	for _, sh := range shapes {
		ms := extractShape(d, sh, slideID, 0)
		if ms == nil {
			d.shapeFailed(slideID, errors.New("shape id unreadable"))
			continue
		}
		out.Shapes = append(out.Shapes, *ms)
	}
	if notes := try(d, "notes", "", sl.NotesText); notes != "" {
		out.Notes = &notes
	}
	if bg, err := sl.Background(); err != nil {
		d.fieldFailed("background", err)
	} else if f := mapFill(bg); f != nil {
		out.Background = &model.Background{Fill: *f}
	}
	out.Transition = try(d, "transition", "", sl.Transition)
	for _, a := range try(d, "animations", []engine.AnimationData(nil), sl.Animations) {
		out.Animations = append(out.Animations, model.Animation{
			ShapeID: a.ShapeID,
			Effect:  a.Effect,
			Trigger: a.Trigger,
		})
	}
	for _, c := range try(d, "comments", []engine.CommentData(nil), sl.Comments) {
		out.Comments = append(out.Comments, model.Comment{
			Author: c.Author,
			Text:   c.Text,
			Date:   c.Date,
		})
	}
	return out
}
