// Package correlate joins inventory devices with the geo index and runs the
// full fetch, filter and join pipeline.
package correlate

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/Wilson-Creek-Communications/sonar-utilities/internal/geo"
	"github.com/Wilson-Creek-Communications/sonar-utilities/internal/inventory"
	"github.com/Wilson-Creek-Communications/sonar-utilities/internal/ordered"
	"github.com/Wilson-Creek-Communications/sonar-utilities/internal/pager"
	"github.com/Wilson-Creek-Communications/sonar-utilities/internal/types"
)

// Policy decides what happens to a device whose assignee has no coordinate.
type Policy int

const (
	// SkipUnmatched drops the device and carries on.
	SkipUnmatched Policy = iota
	// FailUnmatched aborts the join with a *MissingKeyError.
	FailUnmatched
)

func (p Policy) String() string {
	switch p {
	case SkipUnmatched:
		return "skip"
	case FailUnmatched:
		return "fail"
	default:
		return fmt.Sprintf("Policy(%d)", int(p))
	}
}

// ErrMissingKey is wrapped by every *MissingKeyError.
var ErrMissingKey = errors.New("assignee not in geo index")

// MissingKeyError names the device whose assignee could not be located.
type MissingKeyError struct {
	ItemID     types.ID
	AssigneeID types.ID
	MAC        string
}

func (e *MissingKeyError) Error() string {
	return fmt.Sprintf("item %s (%s): assignee %s not in geo index", e.ItemID, e.MAC, e.AssigneeID)
}

func (e *MissingKeyError) Unwrap() error { return ErrMissingKey }

// Result maps a MAC to the coordinate of its assignee, in device order.
type Result = ordered.Map[string, types.Coordinate]

// Stats summarises a join.
type Stats struct {
	Matched   int
	Unmatched int
	// Duplicates counts devices whose MAC was already in the result; the
	// later device's coordinate is kept.
	Duplicates int
}

// Join looks up every device's assignee in index.
func Join(devices *inventory.Devices, index *geo.Index, policy Policy) (*Result, Stats, error) {
	var st Stats
	out := ordered.New[string, types.Coordinate](devices.Len())
	for _, dev := range devices.All() {
		coord, ok := index.Get(dev.AssigneeID)
		if !ok {
			if policy == FailUnmatched {
				return nil, st, &MissingKeyError{ItemID: dev.ItemID, AssigneeID: dev.AssigneeID, MAC: dev.MAC}
			}
			st.Unmatched++
			continue
		}
		st.Matched++
		if out.Set(dev.MAC, coord) {
			st.Duplicates++
		}
	}
	return out, st, nil
}

// Points flattens a result into a slice in result order.
func Points(r *Result) []types.CorrelatedPoint {
	out := make([]types.CorrelatedPoint, 0, r.Len())
	for mac, coord := range r.All() {
		out = append(out, types.CorrelatedPoint{MAC: mac, Coordinate: coord})
	}
	return out
}

// Pipeline wires the device filter, the geo index builder and the join.
type Pipeline struct {
	Filter *inventory.Filter
	Geo    *geo.Builder
	Policy Policy

	log logrus.FieldLogger
}

// NewPipeline returns a Pipeline with default filter and geo settings, both
// reading through f.
func NewPipeline(f pager.Fetcher, log logrus.FieldLogger) *Pipeline {
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	return &Pipeline{
		Filter: inventory.NewFilter(f, log),
		Geo:    geo.NewBuilder(f, log),
		Policy: SkipUnmatched,
		log:    log,
	}
}

// Correlate resolves the devices, builds the geo index and joins them. It
// returns the complete mapping or an error, never a partial result.
func (p *Pipeline) Correlate(ctx context.Context) (*Result, error) {
	devices, err := p.Filter.Devices(ctx)
	if err != nil {
		return nil, err
	}
	index, err := p.Geo.Build(ctx)
	if err != nil {
		return nil, err
	}
	result, st, err := Join(devices, index, p.Policy)
	if err != nil {
		return nil, err
	}
	entry := p.log.WithFields(logrus.Fields{
		"matched":   st.Matched,
		"unmatched": st.Unmatched,
		"count":     result.Len(),
	})
	if st.Duplicates > 0 {
		entry.WithField("duplicate_macs", st.Duplicates).Warn("devices share a MAC; later device kept")
	}
	entry.Info("correlated devices")
	return result, nil
}
