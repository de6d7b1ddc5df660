package services

import (
	"encoding/binary"

	"github.com/twpayne/go-geom"
	gjson "github.com/twpayne/go-geom/encoding/geojson"
	"github.com/twpayne/go-geom/encoding/wkb"
)

// encodeLocation parses a GeoJSON point into WKB. An empty string clears the location.
func encodeLocation(raw string) ([]byte, error) {
	if raw == "" {
		return nil, nil
	}
	var g geom.T
	if err := gjson.Unmarshal([]byte(raw), &g); err != nil {
		return nil, invalid("location", "invalid GeoJSON: %v", err)
	}
	p, ok := g.(*geom.Point)
	if !ok {
		return nil, invalid("location", "must be a Point")
	}
	if p.X() < -180 || p.X() > 180 || p.Y() < -90 || p.Y() > 90 {
		return nil, invalid("location", "coordinates out of range")
	}
	return wkb.Marshal(p, binary.LittleEndian)
}

// LocationGeoJSON renders a stored WKB location as GeoJSON, or "" when unset.
func LocationGeoJSON(b []byte) (string, error) {
	if len(b) == 0 {
		return "", nil
	}
	g, err := wkb.Unmarshal(b)
	if err != nil {
		return "", err
	}
	out, err := gjson.Marshal(g)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
