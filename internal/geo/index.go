// Package geo builds the entity-id to coordinate index from the account and
// network site mapping layers.
package geo

import (
	"context"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/Wilson-Creek-Communications/sonar-utilities/internal/ordered"
	"github.com/Wilson-Creek-Communications/sonar-utilities/internal/pager"
	"github.com/Wilson-Creek-Communications/sonar-utilities/internal/types"
)

// Mapping layers, in merge order.
const (
	AccountsResource     = "/mapping/geojson/accounts"
	NetworkSitesResource = "/mapping/geojson/network_sites"
)

// Index maps an account or network site id to its coordinate.
type Index = ordered.Map[types.ID, types.Coordinate]

// Builder fetches the mapping layers and merges them.
type Builder struct {
	fetcher pager.Fetcher
	log     logrus.FieldLogger

	// Layers are fetched and merged in order; a later layer overwrites an
	// earlier one on id collision.
	Layers []string
	// Parallel fetches all layers concurrently. The merge order is still
	// Layers order.
	Parallel bool
}

// NewBuilder returns a Builder over the accounts and network sites layers.
func NewBuilder(f pager.Fetcher, log logrus.FieldLogger) *Builder {
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	return &Builder{
		fetcher: f,
		log:     log,
		Layers:  []string{AccountsResource, NetworkSitesResource},
	}
}

// Build fetches every layer and returns the merged index.
func (b *Builder) Build(ctx context.Context) (*Index, error) {
	layers := make([]*Index, len(b.Layers))
	if b.Parallel {
		g, gctx := errgroup.WithContext(ctx)
		for i, resource := range b.Layers {
			g.Go(func() error {
				idx, err := FetchLayer(gctx, b.fetcher, resource, b.log)
				if err != nil {
					return err
				}
				layers[i] = idx
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	} else {
		for i, resource := range b.Layers {
			idx, err := FetchLayer(ctx, b.fetcher, resource, b.log)
			if err != nil {
				return nil, err
			}
			layers[i] = idx
		}
	}

	merged, collisions := Merge(layers...)
	if collisions > 0 {
		b.log.WithField("collisions", collisions).Warn("mapping layers share ids; later layer kept")
	}
	b.log.WithField("count", merged.Len()).Info("built geo index")
	return merged, nil
}

// FetchLayer paginates one GeoJSON layer into an index. Within a layer a
// repeated id keeps the last feature.
func FetchLayer(ctx context.Context, f pager.Fetcher, resource string, log logrus.FieldLogger) (*Index, error) {
	idx := ordered.New[types.ID, types.Coordinate](0)
	for feat, err := range pager.Decode[types.GeoFeature](pager.New(f, resource, log).Records(ctx)) {
		if err != nil {
			return nil, fmt.Errorf("geo layer %s: %w", resource, err)
		}
		idx.Set(feat.EntityID, feat.Coordinate)
	}
	log.WithFields(logrus.Fields{"resource": resource, "count": idx.Len()}).Debug("fetched geo layer")
	return idx, nil
}

// Merge combines layers last-writer-wins and returns the number of ids that
// a later layer overwrote.
func Merge(layers ...*Index) (*Index, int) {
	size := 0
	for _, l := range layers {
		size += l.Len()
	}
	out := ordered.New[types.ID, types.Coordinate](size)
	collisions := 0
	for _, l := range layers {
		collisions += out.Merge(l)
	}
	return out, collisions
}
