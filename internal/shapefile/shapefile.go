// Package shapefile exports correlated device locations as an ESRI point
// shapefile (.shp, .shx and .dbf) with the MAC and position as attributes.
package shapefile

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	shp "github.com/jonas-p/go-shp"

	"github.com/Wilson-Creek-Communications/sonar-utilities/internal/types"
)

// Attribute table layout.
var fields = []shp.Field{
	shp.StringField("MAC", 32),
	shp.FloatField("LON", 24, 10),
	shp.FloatField("LAT", 24, 10),
}

var extensions = []string{".shp", ".shx", ".dbf"}

// writtenAs maps a final extension to the suffix go-shp v0.1.1 writes it
// under; its writer drops the dot before "dbf".
var writtenAs = map[string]string{
	".shp": ".shp",
	".shx": ".shx",
	".dbf": "dbf",
}

// WriteFile writes points to path (with or without the .shp extension).
// The three files are first written under a temporary directory next to
// path and moved into place once complete.
func WriteFile(path string, points []types.CorrelatedPoint) error {
	base := path
	if ext := filepath.Ext(path); strings.EqualFold(ext, ".shp") {
		base = strings.TrimSuffix(path, ext)
	}

	tmpDir, err := os.MkdirTemp(filepath.Dir(base), ".shapefile-*")
	if err != nil {
		return fmt.Errorf("create shapefile: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	tmpBase := filepath.Join(tmpDir, filepath.Base(base))
	if err := write(tmpBase, points); err != nil {
		return err
	}
	for _, ext := range extensions {
		if err := os.Rename(tmpBase+writtenAs[ext], base+ext); err != nil {
			return fmt.Errorf("move shapefile %s: %w", ext, err)
		}
	}
	return nil
}

func write(base string, points []types.CorrelatedPoint) error {
	w, err := shp.Create(base+".shp", shp.POINT)
	if err != nil {
		return fmt.Errorf("create shapefile: %w", err)
	}
	defer w.Close()

	if err := w.SetFields(fields); err != nil {
		return fmt.Errorf("shapefile fields: %w", err)
	}
	for _, p := range points {
		row := int(w.Write(&shp.Point{X: p.Coordinate.Longitude, Y: p.Coordinate.Latitude}))
		if err := w.WriteAttribute(row, 0, p.MAC); err != nil {
			return fmt.Errorf("shapefile MAC %s: %w", p.MAC, err)
		}
		if err := w.WriteAttribute(row, 1, p.Coordinate.Longitude); err != nil {
			return fmt.Errorf("shapefile LON %s: %w", p.MAC, err)
		}
		if err := w.WriteAttribute(row, 2, p.Coordinate.Latitude); err != nil {
			return fmt.Errorf("shapefile LAT %s: %w", p.MAC, err)
		}
	}
	return nil
}
