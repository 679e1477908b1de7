package geo

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/Wilson-Creek-Communications/sonar-utilities/internal/pager/pagertest"
	"github.com/Wilson-Creek-Communications/sonar-utilities/internal/types"
)

func feature(id any, lon, lat float64) map[string]any {
	return map[string]any{
		"type":       "Feature",
		"properties": map[string]any{"id": id},
		"geometry":   map[string]any{"type": "Point", "coordinates": []float64{lon, lat}},
	}
}

func TestBuildSitesOverwriteAccounts(t *testing.T) {
	for _, parallel := range []bool{false, true} {
		f := pagertest.New().
			AddPages(AccountsResource, []any{feature("A", 1, 1), feature("B", 3, 3)}).
			AddPages(NetworkSitesResource, []any{feature("A", 2, 2)})

		b := NewBuilder(f, nil)
		b.Parallel = parallel
		idx, err := b.Build(context.Background())
		if err != nil {
			t.Fatalf("parallel=%v: Build: %v", parallel, err)
		}

		if got, _ := idx.Get("A"); got != (types.Coordinate{Longitude: 2, Latitude: 2}) {
			t.Fatalf("parallel=%v: A = %v, want (2,2)", parallel, got)
		}
		if got, _ := idx.Get("B"); got != (types.Coordinate{Longitude: 3, Latitude: 3}) {
			t.Fatalf("parallel=%v: B = %v, want (3,3)", parallel, got)
		}
		if got, want := idx.Keys(), []types.ID{"A", "B"}; !reflect.DeepEqual(got, want) {
			t.Fatalf("parallel=%v: Keys = %v, want %v", parallel, got, want)
		}
	}
}

func TestBuildNumericAndStringIDsAgree(t *testing.T) {
	f := pagertest.New().
		AddPages(AccountsResource, []any{feature(100, 5, 6)}).
		AddPages(NetworkSitesResource, []any{})

	idx, err := NewBuilder(f, nil).Build(context.Background())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if _, ok := idx.Get(types.ID("100")); !ok {
		t.Fatalf("numeric id 100 not found as \"100\"")
	}
}

func TestBuildPaginatesEachLayer(t *testing.T) {
	f := pagertest.New().
		AddPages(AccountsResource, []any{feature(1, 0, 0)}, []any{feature(2, 0, 0)}).
		AddPages(NetworkSitesResource, []any{feature(3, 0, 0)})

	idx, err := NewBuilder(f, nil).Build(context.Background())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if idx.Len() != 3 {
		t.Fatalf("index size = %d, want 3", idx.Len())
	}
	if pages := f.CallsFor(AccountsResource); !reflect.DeepEqual(pages, []int{0, 1}) {
		t.Fatalf("accounts pages = %v, want [0 1]", pages)
	}
}

func TestBuildFailsOnLayerError(t *testing.T) {
	boom := errors.New("401 Unauthorized")
	for _, parallel := range []bool{false, true} {
		f := pagertest.New().
			AddPages(AccountsResource, []any{feature(1, 0, 0)}).
			AddPages(NetworkSitesResource, []any{feature(2, 0, 0)}).
			FailPage(NetworkSitesResource, 0, boom)

		b := NewBuilder(f, nil)
		b.Parallel = parallel
		idx, err := b.Build(context.Background())
		if !errors.Is(err, boom) {
			t.Fatalf("parallel=%v: Build error = %v, want %v", parallel, err, boom)
		}
		if idx != nil {
			t.Fatalf("parallel=%v: Build returned a partial index", parallel)
		}
	}
}

func TestFetchLayerRejectsFeatureWithoutGeometry(t *testing.T) {
	f := pagertest.New().AddPages(AccountsResource, []any{map[string]any{"properties": map[string]any{"id": 1}}})

	if _, err := FetchLayer(context.Background(), f, AccountsResource, NewBuilder(f, nil).log); err == nil {
		t.Fatalf("expected an error for a feature without geometry")
	}
}

func TestFetchLayerRejectsFeatureWithoutCoordinates(t *testing.T) {
	features := map[string]any{
		"missing": map[string]any{"properties": map[string]any{"id": 1}, "geometry": map[string]any{"type": "Point"}},
		"null":    map[string]any{"properties": map[string]any{"id": 1}, "geometry": map[string]any{"type": "Point", "coordinates": nil}},
		"short":   map[string]any{"properties": map[string]any{"id": 1}, "geometry": map[string]any{"type": "Point", "coordinates": []float64{5}}},
	}
	for name, feature := range features {
		t.Run(name, func(t *testing.T) {
			f := pagertest.New().AddPages(AccountsResource, []any{feature})
			idx, err := FetchLayer(context.Background(), f, AccountsResource, NewBuilder(f, nil).log)
			if err == nil {
				t.Fatalf("feature accepted with index of %d entries", idx.Len())
			}
		})
	}
}

func TestMergeCountsCollisions(t *testing.T) {
	a := types.Coordinate{Longitude: 1, Latitude: 1}
	b := types.Coordinate{Longitude: 2, Latitude: 2}
	accounts, _ := Merge()
	accounts.Set("A", a)
	sites, _ := Merge()
	sites.Set("A", b)
	sites.Set("S", b)

	merged, collisions := Merge(accounts, sites)
	if collisions != 1 {
		t.Fatalf("collisions = %d, want 1", collisions)
	}
	if got, _ := merged.Get("A"); got != b {
		t.Fatalf("A = %v, want %v", got, b)
	}
}
