package track

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"telematics/internal/core/model"
)

func point(lat, lon float64, minute int) model.Position {
	return model.Position{
		DeviceID:  "dev-1",
		Latitude:  lat,
		Longitude: lon,
		Timestamp: time.Date(2024, 1, 1, 12, minute, 0, 0, time.UTC),
	}
}

func TestRender(t *testing.T) {
	// newest first: t3, t2, t1
	points := []model.Position{point(10, 20, 3), point(11, 21, 2), point(12, 22, 1)}

	fc, err := Render(points)
	if err != nil {
		t.Fatalf("Render() unexpected error: %v", err)
	}
	if len(fc.Features) != 3 {
		t.Fatalf("len(Features) = %d, want 3", len(fc.Features))
	}

	path := fc.Features[0]
	if path.Geometry.Type != "LineString" {
		t.Errorf("path type = %s", path.Geometry.Type)
	}
	wantPath := [][]float64{{22, 12}, {21, 11}, {20, 10}}
	if !reflect.DeepEqual(path.Geometry.Coordinates, wantPath) {
		t.Errorf("path = %v, want %v", path.Geometry.Coordinates, wantPath)
	}

	start, end := fc.Features[1], fc.Features[2]
	if !reflect.DeepEqual(start.Geometry.Coordinates, []float64{22, 12}) {
		t.Errorf("start = %v, want [22 12]", start.Geometry.Coordinates)
	}
	if !reflect.DeepEqual(end.Geometry.Coordinates, []float64{20, 10}) {
		t.Errorf("end = %v, want [20 10]", end.Geometry.Coordinates)
	}
	if icon, _ := start.Properties.Get("markerIcon"); icon != StartIcon {
		t.Errorf("start icon = %v", icon)
	}
	if icon, _ := end.Properties.Get("markerIcon"); icon != EndIcon {
		t.Errorf("end icon = %v", icon)
	}
	if n, _ := path.Properties.Get("pointCount"); n != 3 {
		t.Errorf("pointCount = %v, want 3", n)
	}
}

func TestRenderSinglePoint(t *testing.T) {
	fc, err := Render([]model.Position{point(1, 2, 0)})
	if err != nil {
		t.Fatalf("Render() unexpected error: %v", err)
	}
	if !reflect.DeepEqual(fc.Features[1].Geometry.Coordinates, fc.Features[2].Geometry.Coordinates) {
		t.Errorf("start and end differ for a single point")
	}
}

func TestRenderEmpty(t *testing.T) {
	if _, err := Render(nil); !errors.Is(err, ErrEmptyTrack) {
		t.Errorf("Render(nil) error = %v, want ErrEmptyTrack", err)
	}
}

func TestPropertiesKeepOrder(t *testing.T) {
	props := Properties{
		{Key: "z", Value: 1},
		{Key: "a", Value: "two"},
		{Key: "m", Value: []string{"x"}},
	}
	data, err := json.Marshal(props)
	if err != nil {
		t.Fatalf("Marshal() unexpected error: %v", err)
	}
	if want := `{"z":1,"a":"two","m":["x"]}`; string(data) != want {
		t.Errorf("Marshal() = %s, want %s", data, want)
	}

	empty, _ := json.Marshal(Properties(nil))
	if string(empty) != "{}" {
		t.Errorf("Marshal(nil) = %s, want {}", empty)
	}
}

func TestRenderJSON(t *testing.T) {
	fc, _ := Render([]model.Position{point(10, 20, 3), point(12, 22, 1)})
	data, err := json.Marshal(fc)
	if err != nil {
		t.Fatalf("Marshal() unexpected error: %v", err)
	}
	s := string(data)

	if !strings.HasPrefix(s, `{"type":"FeatureCollection","features":[{"type":"Feature","geometry":{"type":"LineString","coordinates":[[22,12],[20,10]]},"properties":{"deviceId":"dev-1","pointCount":2,`) {
		t.Errorf("unexpected encoding: %s", s)
	}
	if strings.Index(s, StartIcon) > strings.Index(s, EndIcon) {
		t.Errorf("start marker must precede end marker: %s", s)
	}
}
