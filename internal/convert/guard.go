package convert

import "go.uber.org/zap"

// degradation accumulates the failure counters for one conversion. Field
// reads that fail fall back to a default and are counted here instead of
// propagating; shape and slide failures are counted at their own granularity.
// One instance lives per Convert call, so conversions never share counters.
type degradation struct {
	log            *zap.Logger
	fieldFallbacks int
	failedShapes   int
	failedSlides   int
}

func newDegradation(log *zap.Logger) *degradation {
	if log == nil {
		log = zap.NewNop()
	}
	return &degradation{log: log}
}

func (d *degradation) fieldFailed(field string, err error) {
	d.fieldFallbacks++
	d.log.Debug("field extraction degraded",
		zap.String("field", field),
		zap.Error(err))
}

func (d *degradation) shapeFailed(slideID int, err error) {
	d.failedShapes++
	d.log.Warn("shape extraction failed, skipping shape",
		zap.Int("slideId", slideID),
		zap.Error(err))
}

func (d *degradation) slideFailed(slideID int, err error) {
	d.failedSlides++
	d.log.Warn("slide extraction failed, emitting placeholder",
		zap.Int("slideId", slideID),
		zap.Error(err))
}

// try runs one field read and returns fallback on failure, recording the
// degradation. All per-field extraction goes through here so the
// never-propagate policy lives in one place.
func try[T any](d *degradation, field string, fallback T, fn func() (T, error)) T {
	v, err := fn()
	if err != nil {
		d.fieldFailed(field, err)
		return fallback
	}
	return v
}
