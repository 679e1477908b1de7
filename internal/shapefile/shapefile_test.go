package shapefile

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	shp "github.com/jonas-p/go-shp"

	"github.com/Wilson-Creek-Communications/sonar-utilities/internal/types"
)

func TestWriteFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "aircontrol_locations.shp")
	points := []types.CorrelatedPoint{
		{MAC: "AA:BB:CC:DD:EE:FF", Coordinate: types.Coordinate{Longitude: -91.25, Latitude: 36.5}},
		{MAC: "aa-bb-cc-dd-ee-01", Coordinate: types.Coordinate{Longitude: -92, Latitude: 35.75}},
	}

	if err := WriteFile(path, points); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	for _, ext := range extensions {
		if _, err := os.Stat(filepath.Join(dir, "aircontrol_locations"+ext)); err != nil {
			t.Fatalf("missing %s: %v", ext, err)
		}
	}

	r, err := shp.Open(path)
	if err != nil {
		t.Fatalf("open shapefile: %v", err)
	}
	defer r.Close()

	i := 0
	for r.Next() {
		idx, shape := r.Shape()
		pt, ok := shape.(*shp.Point)
		if !ok {
			t.Fatalf("shape %d is %T, want *shp.Point", idx, shape)
		}
		want := points[i]
		if pt.X != want.Coordinate.Longitude || pt.Y != want.Coordinate.Latitude {
			t.Fatalf("point %d = (%v,%v), want %v", idx, pt.X, pt.Y, want.Coordinate)
		}
		if mac := strings.Trim(r.ReadAttribute(idx, 0), " \x00"); mac != want.MAC {
			t.Fatalf("MAC %d = %q, want %q", idx, mac, want.MAC)
		}
		i++
	}
	if i != len(points) {
		t.Fatalf("read %d points, want %d", i, len(points))
	}
}

func TestWriteFileWithoutExtension(t *testing.T) {
	dir := t.TempDir()
	if err := WriteFile(filepath.Join(dir, "devices"), nil); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "devices.shp")); err != nil {
		t.Fatalf("missing devices.shp: %v", err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != len(extensions) {
		t.Fatalf("directory has %d entries, want %d", len(entries), len(extensions))
	}
}
