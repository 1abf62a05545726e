package document

import (
	"math"
	"time"

	"github.com/draftkit/draftkit/backend-go/internal/geometry"
	"github.com/draftkit/draftkit/backend-go/internal/typeid"
)

// NewSampleDrawing builds the seeded playground drawing: a small floor
// sketch exercising every common shape family.
func NewSampleDrawing(drawingID string) *DraftDocument {
	now := time.Now().UTC().Format(time.RFC3339)

	layerID := typeid.NewLayerID()
	dimLayerID := typeid.NewLayerID()

	style := Style{StrokeColor: "#e8e8e8", StrokeWidth: 1, LineType: "solid"}
	dimStyle := Style{StrokeColor: "#6aa9ff", StrokeWidth: 0.5, LineType: "solid"}

	doc := &DraftDocument{
		Drawing: Drawing{
			ID:         drawingID,
			Name:       "Playground",
			Version:    1,
			Width:      420,
			Height:     297,
			Background: "#10131a",
			Layers:     []string{layerID, dimLayerID},
			CreatedAt:  now,
			UpdatedAt:  now,
		},
		Layers: map[string]Layer{
			layerID: {
				ID: layerID, Name: "Layer 0", Color: "#e8e8e8",
				Visible: true, Order: 0,
			},
			dimLayerID: {
				ID: dimLayerID, Name: "Dimensions", Color: "#6aa9ff",
				Visible: true, Order: 1,
			},
		},
		Shapes: map[string]Shape{},
	}

	add := func(layer string, st Style, g Geometry) {
		id := typeid.NewShapeID()
		doc.Shapes[id] = Shape{
			ID:        id,
			DrawingID: drawingID,
			LayerID:   layer,
			Style:     st,
			Visible:   true,
			Geometry:  g,
		}
	}

	add(layerID, style, Rectangle{TopLeft: geometry.Pt(40, 40), Width: 200, Height: 120})
	add(layerID, style, Line{Start: geometry.Pt(40, 200), End: geometry.Pt(240, 200)})
	add(layerID, style, Circle{Center: geometry.Pt(300, 100), Radius: 30})
	add(layerID, style, Arc{
		Center: geometry.Pt(140, 100), Radius: 25,
		StartAngle: 0, EndAngle: math.Pi / 2,
	})
	add(layerID, style, Polyline{
		Points: []geometry.Point{
			geometry.Pt(280, 180), geometry.Pt(320, 160),
			geometry.Pt(360, 190), geometry.Pt(380, 160),
		},
		Bulges: []float64{0, 0.3, 0, 0},
	})
	add(layerID, style, Beam{
		Position: geometry.Pt(60, 240),
		Rotation: 0,
		Scale:    1,
		Section:  "IPE200",
		Params:   map[string]float64{"length": 180, "depth": 20, "width": 10},
	})
	add(dimLayerID, dimStyle, Dimension{
		Start:        geometry.Pt(40, 40),
		End:          geometry.Pt(240, 40),
		Offset:       -15,
		TextPosition: geometry.Pt(140, 20),
	})
	add(dimLayerID, dimStyle, Text{
		Position: geometry.Pt(44, 172),
		Content:  "ROOM A",
		Height:   8,
	})

	return doc
}
