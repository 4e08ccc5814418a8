package ranking

import (
	"strings"

	"github.com/phrazzld/curator-srs/internal/domain"
)

// DefaultContentWeight applies to content types missing from a WeightTable
// and to items whose priority is not positive.
const DefaultContentWeight = 1.0

// WeightTable maps content-type tags to priority weights. Lookups are
// case-insensitive.
type WeightTable struct {
	weights  map[string]float64
	fallback float64
}

// NewWeightTable builds a table from tag weights. A fallback of 0 or less
// means DefaultContentWeight. Non-positive entries are ignored.
func NewWeightTable(weights map[string]float64, fallback float64) *WeightTable {
	if fallback <= 0 {
		fallback = DefaultContentWeight
	}

	t := &WeightTable{
		weights:  make(map[string]float64, len(weights)),
		fallback: fallback,
	}
	for tag, w := range weights {
		if w > 0 {
			t.weights[strings.ToLower(tag)] = w
		}
	}
	return t
}

// Weight returns the weight for a content type.
func (t *WeightTable) Weight(contentType string) float64 {
	if t == nil {
		return DefaultContentWeight
	}
	if w, ok := t.weights[strings.ToLower(contentType)]; ok {
		return w
	}
	return t.fallback
}

// Apply sets the item's content type and priority from metadata.
func (t *WeightTable) Apply(item *domain.ReviewableItem, meta domain.ContentMetadata) {
	if meta.ContentType != "" {
		item.ContentType = meta.ContentType
	}
	item.ContentTypePriority = t.Weight(item.ContentType)
}
