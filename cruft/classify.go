package cruft

import "iter"

// Detection is a newly found cruft location.
type Detection struct {
	Detector string
	Category string
	BasePath string
}

// Classifier applies Detectors to member paths, deduplicating through its
// Ledger.
type Classifier struct {
	Ledger    *Ledger
	Detectors []Detector
}

// NewClassifier returns a Classifier using the default Detectors.
func NewClassifier(ledger *Ledger) *Classifier {
	return &Classifier{Ledger: ledger, Detectors: Detectors}
}

// ClassifyPath classifies a single path of layer. ok is false if no detector
// matches, or if the owning detector already reported this base path in
// this layer.
func (c *Classifier) ClassifyPath(layer, path string) (d Detection, ok bool) {
	for _, det := range c.Detectors {
		base, matched := det.Match(path)
		if !matched {
			continue
		}
		if !c.Ledger.Mark(Key{Layer: layer, Detector: det.Name, BasePath: base}) {
			return Detection{}, false
		}
		return Detection{Detector: det.Name, Category: det.Category, BasePath: base}, true
	}
	return Detection{}, false
}

// Classify lazily yields detections for names, in order.
func (c *Classifier) Classify(layer string, names []string) iter.Seq[Detection] {
	return func(yield func(Detection) bool) {
		for _, name := range names {
			d, ok := c.ClassifyPath(layer, name)
			if !ok {
				continue
			}
			if !yield(d) {
				return
			}
		}
	}
}
