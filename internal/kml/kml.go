// Package kml renders correlated device locations as a KML 2.1 document.
package kml

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/Wilson-Creek-Communications/sonar-utilities/internal/types"
)

// Namespace is the KML 2.1 namespace AirControl imports.
const Namespace = "http://earth.google.com/kml/2.1"

type document struct {
	XMLName  xml.Name `xml:"kml"`
	Xmlns    string   `xml:"xmlns,attr"`
	Document struct {
		Name       string      `xml:"name"`
		Placemarks []placemark `xml:"Placemark"`
	} `xml:"Document"`
}

type placemark struct {
	Name        string `xml:"name"`
	Description string `xml:"description"`
	Point       struct {
		Coordinates string `xml:"coordinates"`
	} `xml:"Point"`
}

// Write encodes points as a KML document called name. Each point becomes one
// Placemark named and described by its MAC, in slice order.
func Write(w io.Writer, name string, points []types.CorrelatedPoint) error {
	var doc document
	doc.Xmlns = Namespace
	doc.Document.Name = name
	doc.Document.Placemarks = make([]placemark, 0, len(points))
	for _, p := range points {
		pm := placemark{Name: p.MAC, Description: p.MAC}
		pm.Point.Coordinates = p.Coordinate.String()
		doc.Document.Placemarks = append(doc.Document.Placemarks, pm)
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "   ")
	if err := enc.Encode(&doc); err != nil {
		return fmt.Errorf("encode kml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}

// WriteFile writes the document to path. The document name is the file's
// base name. Output goes to a temporary file in the same directory that is
// renamed over path only once it is complete.
func WriteFile(path string, points []types.CorrelatedPoint) (err error) {
	dir, base := filepath.Split(path)
	if dir == "" {
		dir = "."
	}
	tmp, err := os.CreateTemp(dir, "."+base+".*.tmp")
	if err != nil {
		return fmt.Errorf("create kml: %w", err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if err = Write(tmp, base, points); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close kml: %w", err)
	}
	if err = os.Chmod(tmp.Name(), 0o644); err != nil {
		return err
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename kml: %w", err)
	}
	return nil
}
