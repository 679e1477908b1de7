package types

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Coordinate is a WGS-84 position in GeoJSON order (longitude first).
type Coordinate struct {
	Longitude float64
	Latitude  float64
}

// UnmarshalJSON decodes a GeoJSON position. Any altitude or extra members
// after latitude are ignored.
func (c *Coordinate) UnmarshalJSON(b []byte) error {
	var pos []float64
	if err := json.Unmarshal(b, &pos); err != nil {
		return fmt.Errorf("decode coordinate: %w", err)
	}
	if len(pos) < 2 {
		return fmt.Errorf("decode coordinate: need longitude and latitude, got %d values", len(pos))
	}
	c.Longitude = pos[0]
	c.Latitude = pos[1]
	return nil
}

// MarshalJSON encodes the coordinate as a [lon, lat] pair.
func (c Coordinate) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]float64{c.Longitude, c.Latitude})
}

// String renders "lon,lat" with the shortest exact float formatting.
func (c Coordinate) String() string {
	return strconv.FormatFloat(c.Longitude, 'f', -1, 64) + "," + strconv.FormatFloat(c.Latitude, 'f', -1, 64)
}

// GeoFeature is one point of a mapping GeoJSON collection (an account or a
// network site) flattened to its identifier and position.
type GeoFeature struct {
	EntityID   ID
	Coordinate Coordinate
}

// UnmarshalJSON flattens a GeoJSON Feature:
//
//	{"properties": {"id": 100}, "geometry": {"coordinates": [lon, lat]}}
func (f *GeoFeature) UnmarshalJSON(b []byte) error {
	var raw struct {
		Properties struct {
			ID ID `json:"id"`
		} `json:"properties"`
		Geometry *struct {
			Coordinates *Coordinate `json:"coordinates"`
		} `json:"geometry"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if raw.Geometry == nil {
		return fmt.Errorf("feature %q has no geometry", raw.Properties.ID)
	}
	if raw.Geometry.Coordinates == nil {
		return fmt.Errorf("feature %q has no coordinates", raw.Properties.ID)
	}
	f.EntityID = raw.Properties.ID
	f.Coordinate = *raw.Geometry.Coordinates
	return nil
}

// CorrelatedPoint is a device MAC placed at the coordinate of its assignee.
type CorrelatedPoint struct {
	MAC        string
	Coordinate Coordinate
}
