package convert

import (
	"errors"
	"strings"

	"github.com/deckform/deckform/internal/engine"
	"github.com/deckform/deckform/internal/model"
)

// extractText builds the normalized text frame of a shape. Portion text is
// the backbone: plainText is always the concatenation of the portion texts
// that made it into the paragraphs, so the two never disagree. Formatting is
// layered on afterwards and each formatting read degrades on its own.
//
// Returns nil when the shape has no text frame at all; that is not a
// degradation.
func extractText(d *degradation, sh engine.Shape) *model.TextFrame {
	tf, err := sh.TextFrame()
	if err != nil {
		if !errors.Is(err, engine.ErrNoTextFrame) {
			d.fieldFailed("textFrame", err)
		}
		return nil
	}
	out := &model.TextFrame{Paragraphs: []model.Paragraph{}}
	paras, err := tf.Paragraphs()
	if err != nil {
		d.fieldFailed("paragraphs", err)
		return out
	}
	var plain strings.Builder
	for _, para := range paras {
		mp := model.Paragraph{Portions: []model.Portion{}}
		mp.Alignment = try(d, "paragraphAlignment", "", para.Alignment)
		mp.Indent = try(d, "paragraphIndent", 0, para.Indent)
		portions, err := para.Portions()
		if err != nil {
			d.fieldFailed("portions", err)
			out.Paragraphs = append(out.Paragraphs, mp)
			continue
		}
		for _, p := range portions {
			text, err := p.Text()
			if err != nil {
				// Without the text there is nothing to carry; the portion
				// is dropped from both surfaces.
				d.fieldFailed("portionText", err)
				continue
			}
			plain.WriteString(text)
			portion := model.Portion{Text: text}
			extractPortionFormat(d, p, &portion)
			mp.Portions = append(mp.Portions, portion)
		}
		out.Paragraphs = append(out.Paragraphs, mp)
	}
	out.PlainText = plain.String()
	return out
}
