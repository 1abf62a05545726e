package document

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/draftkit/draftkit/backend-go/internal/geometry"
)

// DraftDocument is the full serialized state of one drawing.
type DraftDocument struct {
	Drawing Drawing          `json:"drawing"`
	Layers  map[string]Layer `json:"layers"`
	Shapes  map[string]Shape `json:"shapes"`
}

type Drawing struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Version    int      `json:"version"`
	Width      float64  `json:"width"`
	Height     float64  `json:"height"`
	Background string   `json:"background"`
	Layers     []string `json:"layers"`
	CreatedAt  string   `json:"createdAt"`
	UpdatedAt  string   `json:"updatedAt"`
}

type Layer struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Color   string `json:"color"`
	Visible bool   `json:"visible"`
	Locked  bool   `json:"locked"`
	Order   int    `json:"order"`
}

type Style struct {
	StrokeColor string  `json:"strokeColor"`
	StrokeWidth float64 `json:"strokeWidth"`
	FillColor   string  `json:"fillColor"`
	LineType    string  `json:"lineType"`
}

// ShapeType tags the geometry variants. The set is closed: every
// consumer switches exhaustively and panics on anything else.
type ShapeType string

const (
	ShapeLine      ShapeType = "line"
	ShapeRectangle ShapeType = "rectangle"
	ShapeCircle    ShapeType = "circle"
	ShapeArc       ShapeType = "arc"
	ShapeEllipse   ShapeType = "ellipse"
	ShapePolyline  ShapeType = "polyline"
	ShapeSpline    ShapeType = "spline"
	ShapeText      ShapeType = "text"
	ShapeDimension ShapeType = "dimension"
	ShapeBeam      ShapeType = "beam"
	ShapeHatch     ShapeType = "hatch"
)

// Geometry is the closed union of shape variants. Implementations are
// small value types; "modifying" a geometry always means building a new
// value of the same variant.
type Geometry interface {
	Kind() ShapeType
}

// Line is a straight segment between two points.
type Line struct {
	Start geometry.Point `json:"start"`
	End   geometry.Point `json:"end"`
}

// Rectangle is axis-aligned. Width and Height are kept non-negative;
// any edit that could flip a corner must normalize before storing.
type Rectangle struct {
	TopLeft geometry.Point `json:"topLeft"`
	Width   float64        `json:"width"`
	Height  float64        `json:"height"`
}

type Circle struct {
	Center geometry.Point `json:"center"`
	Radius float64        `json:"radius"`
}

// Arc sweeps counter-clockwise from StartAngle to EndAngle (radians).
type Arc struct {
	Center     geometry.Point `json:"center"`
	Radius     float64        `json:"radius"`
	StartAngle float64        `json:"startAngle"`
	EndAngle   float64        `json:"endAngle"`
}

// Ellipse with Rotation in radians applied about the center.
type Ellipse struct {
	Center   geometry.Point `json:"center"`
	RadiusX  float64        `json:"radiusX"`
	RadiusY  float64        `json:"radiusY"`
	Rotation float64        `json:"rotation"`
}

// Polyline carries one bulge per vertex, aligned to Points. A non-zero
// bulge encodes an arc between that vertex and the next.
type Polyline struct {
	Points []geometry.Point `json:"points"`
	Bulges []float64        `json:"bulges,omitempty"`
	Closed bool             `json:"closed"`
}

type Spline struct {
	ControlPoints []geometry.Point `json:"controlPoints"`
	Degree        int              `json:"degree"`
	Closed        bool             `json:"closed"`
}

// Text is anchored at Position (left baseline).
type Text struct {
	Position geometry.Point `json:"position"`
	Content  string         `json:"content"`
	Height   float64        `json:"height"`
	Rotation float64        `json:"rotation"`
}

// Dimension is a linear dimension between two definition points.
// Offset is the signed perpendicular distance of the dimension line
// from the Start-End base line.
type Dimension struct {
	Start        geometry.Point `json:"start"`
	End          geometry.Point `json:"end"`
	Offset       float64        `json:"offset"`
	TextPosition geometry.Point `json:"textPosition"`
}

// Beam is a profile parametric shape: a structural section placed at
// Position with a rotation and uniform scale. The outline is always
// regenerated from these fields plus Params; it is never stored or
// transformed directly.
type Beam struct {
	Position geometry.Point     `json:"position"`
	Rotation float64            `json:"rotation"`
	Scale    float64            `json:"scale"`
	Section  string             `json:"section"`
	Params   map[string]float64 `json:"params"`
}

type Hatch struct {
	Boundary     []geometry.Point `json:"boundary"`
	Pattern      string           `json:"pattern"`
	PatternScale float64          `json:"patternScale"`
	PatternAngle float64          `json:"patternAngle"`
}

func (Line) Kind() ShapeType      { return ShapeLine }
func (Rectangle) Kind() ShapeType { return ShapeRectangle }
func (Circle) Kind() ShapeType    { return ShapeCircle }
func (Arc) Kind() ShapeType       { return ShapeArc }
func (Ellipse) Kind() ShapeType   { return ShapeEllipse }
func (Polyline) Kind() ShapeType  { return ShapePolyline }
func (Spline) Kind() ShapeType    { return ShapeSpline }
func (Text) Kind() ShapeType      { return ShapeText }
func (Dimension) Kind() ShapeType { return ShapeDimension }
func (Beam) Kind() ShapeType      { return ShapeBeam }
func (Hatch) Kind() ShapeType     { return ShapeHatch }

// Length returns the beam axis length before scaling.
func (b Beam) Length() float64 {
	return b.Params["length"]
}

// AxisStart returns the world position of the beam's start.
func (b Beam) AxisStart() geometry.Point {
	return b.Position
}

// AxisEnd returns the world position of the beam's end, derived from
// position, rotation, scale and the length parameter.
func (b Beam) AxisEnd() geometry.Point {
	dir := geometry.Pt(math.Cos(b.Rotation), math.Sin(b.Rotation))
	return b.Position.Add(dir.Mul(b.Length() * b.Scale))
}

// Shape is one drawable entity. The geometry union carries the
// per-variant fields; everything else is common metadata.
type Shape struct {
	ID        string   `json:"id"`
	DrawingID string   `json:"drawingId"`
	LayerID   string   `json:"layerId"`
	Style     Style    `json:"style"`
	Visible   bool     `json:"visible"`
	Locked    bool     `json:"locked"`
	Geometry  Geometry `json:"-"`
}

// Type returns the variant tag of the shape's geometry.
func (s Shape) Type() ShapeType {
	return s.Geometry.Kind()
}

type shapeJSON struct {
	ID        string          `json:"id"`
	DrawingID string          `json:"drawingId"`
	LayerID   string          `json:"layerId"`
	Style     Style           `json:"style"`
	Visible   bool            `json:"visible"`
	Locked    bool            `json:"locked"`
	Type      ShapeType       `json:"type"`
	Geometry  json.RawMessage `json:"geometry"`
}

// MarshalJSON encodes the shape with a "type" tag next to the geometry
// payload, matching the on-disk drawing format.
func (s Shape) MarshalJSON() ([]byte, error) {
	if s.Geometry == nil {
		return nil, fmt.Errorf("shape %s has no geometry", s.ID)
	}
	geo, err := json.Marshal(s.Geometry)
	if err != nil {
		return nil, fmt.Errorf("marshal geometry of %s: %w", s.ID, err)
	}
	return json.Marshal(shapeJSON{
		ID:        s.ID,
		DrawingID: s.DrawingID,
		LayerID:   s.LayerID,
		Style:     s.Style,
		Visible:   s.Visible,
		Locked:    s.Locked,
		Type:      s.Geometry.Kind(),
		Geometry:  geo,
	})
}

// UnmarshalJSON decodes a tagged shape. An unknown type tag is an
// error; the variant set is closed.
func (s *Shape) UnmarshalJSON(data []byte) error {
	var raw shapeJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	geo, err := decodeGeometry(raw.Type, raw.Geometry)
	if err != nil {
		return err
	}

	s.ID = raw.ID
	s.DrawingID = raw.DrawingID
	s.LayerID = raw.LayerID
	s.Style = raw.Style
	s.Visible = raw.Visible
	s.Locked = raw.Locked
	s.Geometry = geo
	return nil
}

func decodeGeometry(t ShapeType, data json.RawMessage) (Geometry, error) {
	var geo Geometry
	var err error
	switch t {
	case ShapeLine:
		var g Line
		err = json.Unmarshal(data, &g)
		geo = g
	case ShapeRectangle:
		var g Rectangle
		err = json.Unmarshal(data, &g)
		geo = g
	case ShapeCircle:
		var g Circle
		err = json.Unmarshal(data, &g)
		geo = g
	case ShapeArc:
		var g Arc
		err = json.Unmarshal(data, &g)
		geo = g
	case ShapeEllipse:
		var g Ellipse
		err = json.Unmarshal(data, &g)
		geo = g
	case ShapePolyline:
		var g Polyline
		err = json.Unmarshal(data, &g)
		geo = g
	case ShapeSpline:
		var g Spline
		err = json.Unmarshal(data, &g)
		geo = g
	case ShapeText:
		var g Text
		err = json.Unmarshal(data, &g)
		geo = g
	case ShapeDimension:
		var g Dimension
		err = json.Unmarshal(data, &g)
		geo = g
	case ShapeBeam:
		var g Beam
		err = json.Unmarshal(data, &g)
		geo = g
	case ShapeHatch:
		var g Hatch
		err = json.Unmarshal(data, &g)
		geo = g
	default:
		return nil, fmt.Errorf("unknown shape type %q", t)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s geometry: %w", t, err)
	}
	return geo, nil
}

// CloneGeometry returns a deep copy of a geometry value. Slices and
// maps are duplicated so the copy is independent of the original.
func CloneGeometry(g Geometry) Geometry {
	switch v := g.(type) {
	case Line, Rectangle, Circle, Arc, Ellipse, Text, Dimension:
		return v
	case Polyline:
		v.Points = append([]geometry.Point(nil), v.Points...)
		v.Bulges = append([]float64(nil), v.Bulges...)
		return v
	case Spline:
		v.ControlPoints = append([]geometry.Point(nil), v.ControlPoints...)
		return v
	case Beam:
		params := make(map[string]float64, len(v.Params))
		for k, p := range v.Params {
			params[k] = p
		}
		v.Params = params
		return v
	case Hatch:
		v.Boundary = append([]geometry.Point(nil), v.Boundary...)
		return v
	default:
		panic(fmt.Sprintf("unhandled geometry variant %T", g))
	}
}

// Clone returns a deep, independent copy of the shape.
func (s Shape) Clone() Shape {
	s.Geometry = CloneGeometry(s.Geometry)
	return s
}

// Clone returns a deep, independent copy of the document.
func (d *DraftDocument) Clone() *DraftDocument {
	out := &DraftDocument{
		Drawing: d.Drawing,
		Layers:  make(map[string]Layer, len(d.Layers)),
		Shapes:  make(map[string]Shape, len(d.Shapes)),
	}
	out.Drawing.Layers = append([]string(nil), d.Drawing.Layers...)
	for id, layer := range d.Layers {
		out.Layers[id] = layer
	}
	for id, shape := range d.Shapes {
		out.Shapes[id] = shape.Clone()
	}
	return out
}

// NewEmptyDocument creates a document with a single default layer.
func NewEmptyDocument(drawingID, name, layerID string) *DraftDocument {
	return &DraftDocument{
		Drawing: Drawing{
			ID:         drawingID,
			Name:       name,
			Version:    1,
			Width:      420,
			Height:     297,
			Background: "#10131a",
			Layers:     []string{layerID},
		},
		Layers: map[string]Layer{
			layerID: {
				ID:      layerID,
				Name:    "Layer 0",
				Color:   "#e8e8e8",
				Visible: true,
				Locked:  false,
				Order:   0,
			},
		},
		Shapes: map[string]Shape{},
	}
}
