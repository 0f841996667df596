package aoipack

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
)

type PackMetadata struct {
	metadata map[string]string
}

func NewPackMetadata(metadata map[string]string) *PackMetadata {
	return &PackMetadata{metadata: metadata}
}

func (m *PackMetadata) Get(k string) (string, bool) {
	v, exists := m.metadata[k]
	return v, exists
}

func (m *PackMetadata) Keys() []string {
	keys := make([]string, 0, len(m.metadata))

	for k := range m.metadata {
		keys = append(keys, k)
	}

	return keys
}

// Bounds parses the pack's "bounds" entry, stored as a comma-separated
// minx,miny,maxx,maxy string.
func (m *PackMetadata) Bounds() (orb.Bound, error) {
	var bounds orb.Bound

	strBounds, exists := m.Get("bounds")
	if !exists {
		return bounds, fmt.Errorf("metadata is missing bounds")
	}

	parts := strings.Split(strBounds, ",")
	if len(parts) != 4 {
		return bounds, fmt.Errorf("invalid bounds metadata")
	}

	values := make([]float64, 4)
	for i, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return bounds, fmt.Errorf("failed to parse bounds component %d, %w", i, err)
		}
		values[i] = v
	}

	bounds.Min = orb.Point{values[0], values[1]}
	bounds.Max = orb.Point{values[2], values[3]}

	return bounds, nil
}

// Threshold parses the pack's "threshold" entry, falling back to the
// default inclusion threshold when absent.
func (m *PackMetadata) Threshold() (float64, error) {
	strThreshold, exists := m.Get("threshold")
	if !exists {
		return DefaultInclusionThreshold, nil
	}

	threshold, err := strconv.ParseFloat(strThreshold, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse threshold, %w", err)
	}

	return threshold, nil
}

// FormatBounds renders a bound the way the metadata table stores it.
func FormatBounds(bound orb.Bound) string {
	return fmt.Sprintf("%s,%s,%s,%s",
		strconv.FormatFloat(bound.Min.X(), 'f', -1, 64),
		strconv.FormatFloat(bound.Min.Y(), 'f', -1, 64),
		strconv.FormatFloat(bound.Max.X(), 'f', -1, 64),
		strconv.FormatFloat(bound.Max.Y(), 'f', -1, 64))
}
