package reader

import (
	"fmt"
	"hash/fnv"
)

// Typography is the explicit configuration passed into layout recomputation.
// It is a value, not ambient state: any field change produces a new
// signature and invalidates cached page counts.
type Typography struct {
	FontScale   float64 `json:"font_scale"`
	LineSpacing float64 `json:"line_spacing"`
	Margin      int     `json:"margin"`
	Dark        bool    `json:"dark"`
}

// DefaultTypography returns the reader defaults.
func DefaultTypography() Typography {
	return Typography{
		FontScale:   1.0,
		LineSpacing: 1.0,
		Margin:      2,
	}
}

// Signature derives the cache-invalidation key for a chapter laid out with
// this typography. It covers every layout-affecting setting plus a hash of
// the chapter content itself. Signatures are compared, never stored.
func (t Typography) Signature(content string) string {
	h := fnv.New64a()
	fmt.Fprintf(h, "%.3f|%.3f|%d|%v|", t.FontScale, t.LineSpacing, t.Margin, t.Dark)
	h.Write([]byte(content))
	return fmt.Sprintf("%016x", h.Sum64())
}
