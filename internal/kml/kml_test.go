package kml

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Wilson-Creek-Communications/sonar-utilities/internal/types"
)

func TestWrite(t *testing.T) {
	points := []types.CorrelatedPoint{
		{MAC: "AA:BB:CC:DD:EE:FF", Coordinate: types.Coordinate{Longitude: -91.25, Latitude: 36.5}},
	}
	var buf bytes.Buffer
	if err := Write(&buf, "aircontrol_locations.kml", points); err != nil {
		t.Fatalf("Write: %v", err)
	}

	want := `<?xml version="1.0" encoding="UTF-8"?>
<kml xmlns="http://earth.google.com/kml/2.1">
   <Document>
      <name>aircontrol_locations.kml</name>
      <Placemark>
         <name>AA:BB:CC:DD:EE:FF</name>
         <description>AA:BB:CC:DD:EE:FF</description>
         <Point>
            <coordinates>-91.25,36.5</coordinates>
         </Point>
      </Placemark>
   </Document>
</kml>
`
	if got := buf.String(); got != want {
		t.Fatalf("Write output mismatch\n got:\n%s\nwant:\n%s", got, want)
	}
}

func TestWriteKeepsOrderAndEscapes(t *testing.T) {
	points := []types.CorrelatedPoint{
		{MAC: "22:22:22:22:22:22"},
		{MAC: "a<b&c"},
	}
	var buf bytes.Buffer
	if err := Write(&buf, "x.kml", points); err != nil {
		t.Fatalf("Write: %v", err)
	}
	out := buf.String()
	if strings.Index(out, "22:22:22:22:22:22") > strings.Index(out, "a&lt;b&amp;c") {
		t.Fatalf("placemarks out of order:\n%s", out)
	}
	if strings.Contains(out, "a<b&c") {
		t.Fatalf("MAC text not escaped:\n%s", out)
	}
}

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "aircontrol_locations.kml")
	points := []types.CorrelatedPoint{{MAC: "AA:BB:CC:DD:EE:FF", Coordinate: types.Coordinate{Longitude: 5, Latitude: 6}}}

	if err := WriteFile(path, points); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if !strings.Contains(string(b), "<coordinates>5,6</coordinates>") {
		t.Fatalf("output missing coordinates:\n%s", b)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Fatalf("temporary files left behind: %v", entries)
	}
}

func TestWriteFileMissingDirLeavesNothing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "out.kml")
	if err := WriteFile(path, nil); err == nil {
		t.Fatalf("expected an error for a missing directory")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("output exists after failed write: %v", err)
	}
}
