package engine

import (
	"github.com/draftkit/draftkit/backend-go/internal/document"
	"github.com/draftkit/draftkit/backend-go/internal/geometry"
)

// ToolKind names a modify tool. Each tool defines its own click
// protocol; the controller sequences the clicks and emits one batch
// per completed operation.
type ToolKind string

const (
	ToolNone        ToolKind = ""
	ToolMove        ToolKind = "move"
	ToolCopy        ToolKind = "copy"
	ToolRotate      ToolKind = "rotate"
	ToolScale       ToolKind = "scale"
	ToolMirror      ToolKind = "mirror"
	ToolArrayLinear ToolKind = "array_linear"
	ToolArrayRadial ToolKind = "array_radial"
	ToolTrim        ToolKind = "trim"
	ToolExtend      ToolKind = "extend"
	ToolFillet      ToolKind = "fillet"
	ToolChamfer     ToolKind = "chamfer"
	ToolOffset      ToolKind = "offset"
)

// ToolOptions carries the numeric inputs a tool may take instead of, or
// in addition to, clicks. Nil pointer fields mean "derive from clicks".
type ToolOptions struct {
	CopyMultiple bool `json:"copyMultiple,omitempty"`

	Angle       *float64 `json:"angle,omitempty"`       // rotate: fixed angle in radians
	ScaleFactor *float64 `json:"scaleFactor,omitempty"` // scale: fixed factor

	ArrayCount      int     `json:"arrayCount,omitempty"`
	ArraySpacing    float64 `json:"arraySpacing,omitempty"`
	ArrayTotalAngle float64 `json:"arrayTotalAngle,omitempty"`

	OffsetDistance float64 `json:"offsetDistance,omitempty"`
	FilletRadius   float64 `json:"filletRadius,omitempty"`
	ChamferDist1   float64 `json:"chamferDist1,omitempty"`
	ChamferDist2   float64 `json:"chamferDist2,omitempty"`
}

// ToolController drives the click protocols of the modify tools against
// a store. Selection-based tools operate on the ids passed to Start;
// pick-based tools (trim, extend, fillet, chamfer, offset) identify
// their operands from the clicked shapes instead.
type ToolController struct {
	store ShapeStore
	newID func() string

	kind    ToolKind
	opts    ToolOptions
	targets []string

	points []geometry.Point
	picks  []toolPick
}

type toolPick struct {
	shapeID string
	point   geometry.Point
}

func NewToolController(store ShapeStore, newID func() string) *ToolController {
	return &ToolController{store: store, newID: newID}
}

func (c *ToolController) Active() ToolKind { return c.kind }

// Start arms a tool. Selection-based tools need at least one target id.
func (c *ToolController) Start(kind ToolKind, selection []string, opts ToolOptions) {
	c.kind = kind
	c.opts = opts
	c.targets = append([]string(nil), selection...)
	c.points = nil
	c.picks = nil
}

// Reset disarms the tool and drops accumulated clicks.
func (c *ToolController) Reset() {
	c.kind = ToolNone
	c.targets = nil
	c.points = nil
	c.picks = nil
}

// Click feeds one pointer click to the armed tool. shapeID is the shape
// under the cursor, empty when the click hit blank canvas. The returned
// flag reports whether an operation was applied to the store.
func (c *ToolController) Click(world geometry.Point, shapeID string) bool {
	switch c.kind {
	case ToolMove, ToolCopy, ToolMirror, ToolArrayLinear:
		return c.clickTwoPoint(world)
	case ToolRotate:
		return c.clickRotate(world)
	case ToolScale:
		return c.clickScale(world)
	case ToolArrayRadial:
		return c.clickArrayRadial(world)
	case ToolTrim, ToolExtend:
		return c.clickTrimExtend(world, shapeID)
	case ToolFillet, ToolChamfer:
		return c.clickCornerTool(world, shapeID)
	case ToolOffset:
		return c.clickOffset(world, shapeID)
	default:
		return false
	}
}

// Preview returns the selection transformed to the cursor for tools
// whose next click would complete a placement. Nil when there is
// nothing to preview.
func (c *ToolController) Preview(world geometry.Point) []document.Shape {
	m, ok := c.previewMatrix(world)
	if !ok {
		return nil
	}
	out := make([]document.Shape, 0, len(c.targets))
	for _, id := range c.targets {
		s, found := c.store.Shape(id)
		if !found {
			continue
		}
		preview := s.Clone()
		preview.Geometry = TransformGeometry(s.Geometry, m)
		out = append(out, preview)
	}
	return out
}

func (c *ToolController) previewMatrix(world geometry.Point) (Matrix2D, bool) {
	switch c.kind {
	case ToolMove, ToolCopy:
		if len(c.points) != 1 {
			return Matrix2D{}, false
		}
		d := world.Sub(c.points[0])
		return TranslateBy(d.X, d.Y), true
	case ToolRotate:
		if len(c.points) != 2 {
			return Matrix2D{}, false
		}
		center := c.points[0]
		angle := world.Sub(center).Angle() - c.points[1].Sub(center).Angle()
		return RotateAbout(center, angle), true
	case ToolScale:
		if len(c.points) != 2 {
			return Matrix2D{}, false
		}
		return ScaleAbout(c.points[0], c.scaleFactor(world)), true
	case ToolMirror:
		if len(c.points) != 1 {
			return Matrix2D{}, false
		}
		return MirrorAcross(c.points[0], world), true
	default:
		return Matrix2D{}, false
	}
}

func (c *ToolController) clickTwoPoint(world geometry.Point) bool {
	if len(c.points) == 0 {
		c.points = append(c.points, world)
		return false
	}
	base := c.points[0]

	switch c.kind {
	case ToolMove:
		d := world.Sub(base)
		c.apply(c.updateBatch(TranslateBy(d.X, d.Y)))
		c.points = nil
		return true

	case ToolCopy:
		d := world.Sub(base)
		c.apply(c.copyBatch(TranslateBy(d.X, d.Y)))
		if !c.opts.CopyMultiple {
			c.points = nil
		}
		return true

	case ToolMirror:
		if world.Distance(base) < geometry.Epsilon {
			return false
		}
		c.apply(c.updateBatch(MirrorAcross(base, world)))
		c.points = nil
		return true

	case ToolArrayLinear:
		dir := world.Sub(base).Normalize()
		if dir.Length() < geometry.Epsilon || c.opts.ArrayCount < 2 {
			return false
		}
		var batch Batch
		for i := 1; i < c.opts.ArrayCount; i++ {
			step := dir.Mul(float64(i) * c.opts.ArraySpacing)
			c.appendCopies(&batch, TranslateBy(step.X, step.Y))
		}
		c.apply(batch)
		c.points = nil
		return true
	}
	return false
}

func (c *ToolController) clickRotate(world geometry.Point) bool {
	c.points = append(c.points, world)

	if len(c.points) == 1 && c.opts.Angle != nil {
		c.apply(c.updateBatch(RotateAbout(world, *c.opts.Angle)))
		c.points = nil
		return true
	}
	if len(c.points) < 3 {
		return false
	}

	center, ref := c.points[0], c.points[1]
	angle := world.Sub(center).Angle() - ref.Sub(center).Angle()
	c.apply(c.updateBatch(RotateAbout(center, angle)))
	c.points = nil
	return true
}

func (c *ToolController) clickScale(world geometry.Point) bool {
	c.points = append(c.points, world)

	if len(c.points) == 1 && c.opts.ScaleFactor != nil {
		c.apply(c.updateBatch(ScaleAbout(world, *c.opts.ScaleFactor)))
		c.points = nil
		return true
	}
	if len(c.points) < 3 {
		return false
	}

	origin := c.points[0]
	c.apply(c.updateBatch(ScaleAbout(origin, c.scaleFactor(world))))
	c.points = nil
	return true
}

// scaleFactor derives the factor from reference and target distances.
// A degenerate reference click falls back to factor 1 rather than
// exploding the geometry.
func (c *ToolController) scaleFactor(target geometry.Point) float64 {
	origin, ref := c.points[0], c.points[1]
	refDist := ref.Distance(origin)
	if refDist < 1e-3 {
		return 1
	}
	return target.Distance(origin) / refDist
}

func (c *ToolController) clickArrayRadial(world geometry.Point) bool {
	if c.opts.ArrayCount < 2 {
		return false
	}
	step := c.opts.ArrayTotalAngle / float64(c.opts.ArrayCount)
	var batch Batch
	for i := 1; i < c.opts.ArrayCount; i++ {
		c.appendCopies(&batch, RotateAbout(world, float64(i)*step))
	}
	c.apply(batch)
	return true
}

// clickTrimExtend runs trim and extend. The first click picks the
// cutting or boundary edge; each following click picks a target. The
// boundary stays armed so several targets can be trimmed in a row.
func (c *ToolController) clickTrimExtend(world geometry.Point, shapeID string) bool {
	if shapeID == "" {
		return false
	}
	if len(c.picks) == 0 {
		c.picks = append(c.picks, toolPick{shapeID: shapeID, point: world})
		return false
	}
	boundary, ok := c.store.Shape(c.picks[0].shapeID)
	if !ok {
		c.picks = nil
		return false
	}
	target, ok := c.store.Shape(shapeID)
	if !ok || shapeID == boundary.ID {
		return false
	}
	line, isLine := target.Geometry.(document.Line)
	if !isLine {
		return false
	}

	var result document.Line
	switch c.kind {
	case ToolTrim:
		result, ok = TrimLineAtIntersection(line, boundary, world)
	case ToolExtend:
		result, ok = ExtendLineToBoundary(line, boundary)
	}
	if !ok {
		return false
	}
	c.apply(Batch{Update: map[string]document.Geometry{target.ID: result}})
	return true
}

// clickCornerTool runs fillet and chamfer on two picked lines. A failed
// corner (parallel lines, oversized radius) drops only the second pick
// so the user can re-pick.
func (c *ToolController) clickCornerTool(world geometry.Point, shapeID string) bool {
	if shapeID == "" {
		return false
	}
	if len(c.picks) == 0 {
		c.picks = append(c.picks, toolPick{shapeID: shapeID, point: world})
		return false
	}
	if shapeID == c.picks[0].shapeID {
		return false
	}

	first, ok1 := c.store.Shape(c.picks[0].shapeID)
	second, ok2 := c.store.Shape(shapeID)
	if !ok1 || !ok2 {
		c.picks = nil
		return false
	}
	l1, ok1 := first.Geometry.(document.Line)
	l2, ok2 := second.Geometry.(document.Line)
	if !ok1 || !ok2 {
		return false
	}

	switch c.kind {
	case ToolFillet:
		res, ok := FilletLines(l1, l2, c.opts.FilletRadius)
		if !ok {
			return false
		}
		batch := Batch{Update: map[string]document.Geometry{
			first.ID:  res.Line1,
			second.ID: res.Line2,
		}}
		if res.Arc != nil {
			batch.Add = append(batch.Add, c.newShapeLike(first, *res.Arc))
		}
		c.apply(batch)

	case ToolChamfer:
		res, ok := ChamferLines(l1, l2, c.opts.ChamferDist1, c.opts.ChamferDist2)
		if !ok {
			return false
		}
		batch := Batch{Update: map[string]document.Geometry{
			first.ID:  res.Line1,
			second.ID: res.Line2,
		}}
		if res.Segment != nil {
			batch.Add = append(batch.Add, c.newShapeLike(first, *res.Segment))
		}
		c.apply(batch)
	}
	c.picks = nil
	return true
}

func (c *ToolController) clickOffset(world geometry.Point, shapeID string) bool {
	if shapeID == "" {
		return false
	}
	src, ok := c.store.Shape(shapeID)
	if !ok {
		return false
	}
	offset, ok := OffsetShape(src, c.opts.OffsetDistance, world)
	if !ok {
		return false
	}
	offset.ID = c.newID()
	c.apply(Batch{Add: []document.Shape{offset}})
	return true
}

// updateBatch transforms every target in place.
func (c *ToolController) updateBatch(m Matrix2D) Batch {
	update := make(map[string]document.Geometry, len(c.targets))
	for _, id := range c.targets {
		s, ok := c.store.Shape(id)
		if !ok || s.Locked {
			continue
		}
		update[id] = TransformGeometry(s.Geometry, m)
	}
	return Batch{Update: update}
}

// copyBatch adds transformed clones and leaves the originals alone.
func (c *ToolController) copyBatch(m Matrix2D) Batch {
	var batch Batch
	c.appendCopies(&batch, m)
	return batch
}

func (c *ToolController) appendCopies(batch *Batch, m Matrix2D) {
	for _, id := range c.targets {
		s, ok := c.store.Shape(id)
		if !ok {
			continue
		}
		clone := s.Clone()
		clone.ID = c.newID()
		clone.Geometry = TransformGeometry(s.Geometry, m)
		batch.Add = append(batch.Add, clone)
	}
}

func (c *ToolController) newShapeLike(src document.Shape, g document.Geometry) document.Shape {
	out := src.Clone()
	out.ID = c.newID()
	out.Geometry = g
	return out
}

func (c *ToolController) apply(batch Batch) {
	if batch.IsEmpty() {
		return
	}
	c.store.ApplyBatch(batch)
}
