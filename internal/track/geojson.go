// Package track renders a device's position history as a GeoJSON-shaped
// bundle: the travelled path plus start and end markers.
package track

import (
	"bytes"
	"encoding/json"
	"errors"

	"telematics/internal/core/model"
)

// ErrEmptyTrack is returned when there is nothing to render.
var ErrEmptyTrack = errors.New("track: no points to render")

// Marker icons attached to the start and end features.
const (
	StartIcon = "start-point.png"
	EndIcon   = "end-point.png"

	markerIconKey = "markerIcon"
)

// Property is one key/value pair of a feature.
type Property struct {
	Key   string
	Value interface{}
}

// Properties keeps insertion order when encoded as a JSON object.
type Properties []Property

func (p Properties) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, prop := range p {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(prop.Key)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(prop.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Get returns the value stored under key.
func (p Properties) Get(key string) (interface{}, bool) {
	for _, prop := range p {
		if prop.Key == key {
			return prop.Value, true
		}
	}
	return nil, false
}

// Geometry is a LineString or Point. Coordinates are [longitude, latitude].
type Geometry struct {
	Type        string      `json:"type"`
	Coordinates interface{} `json:"coordinates"`
}

type Feature struct {
	Type       string     `json:"type"`
	Geometry   Geometry   `json:"geometry"`
	Properties Properties `json:"properties"`
}

type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

func coordinate(p model.Position) []float64 {
	return []float64{p.Longitude, p.Latitude}
}

// Render turns newest-first points into three features: the path in
// chronological order, the start marker (oldest point) and the end marker
// (newest point).
func Render(points []model.Position) (FeatureCollection, error) {
	if len(points) == 0 {
		return FeatureCollection{}, ErrEmptyTrack
	}

	newest := points[0]
	oldest := points[len(points)-1]

	path := make([][]float64, 0, len(points))
	for i := len(points) - 1; i >= 0; i-- {
		path = append(path, coordinate(points[i]))
	}

	return FeatureCollection{
		Type: "FeatureCollection",
		Features: []Feature{
			{
				Type:     "Feature",
				Geometry: Geometry{Type: "LineString", Coordinates: path},
				Properties: Properties{
					{Key: "deviceId", Value: newest.DeviceID},
					{Key: "pointCount", Value: len(points)},
					{Key: "startTime", Value: oldest.Timestamp},
					{Key: "endTime", Value: newest.Timestamp},
				},
			},
			marker(oldest, StartIcon),
			marker(newest, EndIcon),
		},
	}, nil
}

func marker(p model.Position, icon string) Feature {
	return Feature{
		Type:     "Feature",
		Geometry: Geometry{Type: "Point", Coordinates: coordinate(p)},
		Properties: Properties{
			{Key: markerIconKey, Value: icon},
			{Key: "timestamp", Value: p.Timestamp},
			{Key: "speed", Value: p.Speed},
		},
	}
}
