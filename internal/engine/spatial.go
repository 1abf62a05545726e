package engine

import (
	"math"

	"github.com/draftkit/draftkit/backend-go/internal/geometry"
)

// DefaultCellSize is the grid pitch in world units.
const DefaultCellSize = 100.0

// SpatialEntry is one indexed item. Entries are exclusively owned by
// the index: created on Insert, replaced on Update, destroyed on
// Remove or Clear.
type SpatialEntry struct {
	ID     string
	Bounds geometry.BoundingBox
	Data   any
}

type cellKey struct {
	X, Y int
}

// SpatialIndex is a grid-hashed bounding-box index. Inserts, removes
// and updates are O(cells overlapped); queries touch only the cells
// overlapping the query region, never the whole document.
type SpatialIndex struct {
	cellSize float64
	cells    map[cellKey]map[string]struct{}
	entries  map[string]SpatialEntry
}

// NewSpatialIndex creates an index with the given cell size; zero or
// negative falls back to DefaultCellSize.
func NewSpatialIndex(cellSize float64) *SpatialIndex {
	if cellSize <= 0 {
		cellSize = DefaultCellSize
	}
	return &SpatialIndex{
		cellSize: cellSize,
		cells:    make(map[cellKey]map[string]struct{}),
		entries:  make(map[string]SpatialEntry),
	}
}

// Len returns the number of indexed entries.
func (si *SpatialIndex) Len() int {
	return len(si.entries)
}

// Insert registers an entry in every cell its bounds overlap. Any
// prior entry with the same id is removed first.
func (si *SpatialIndex) Insert(id string, bounds geometry.BoundingBox, data any) {
	si.Remove(id)

	entry := SpatialEntry{ID: id, Bounds: bounds, Data: data}
	si.entries[id] = entry

	si.eachCell(bounds, func(key cellKey) {
		cell, ok := si.cells[key]
		if !ok {
			cell = make(map[string]struct{})
			si.cells[key] = cell
		}
		cell[id] = struct{}{}
	})
}

// Remove deregisters an entry from every cell it occupies. Returns
// whether an entry existed.
func (si *SpatialIndex) Remove(id string) bool {
	entry, ok := si.entries[id]
	if !ok {
		return false
	}

	si.eachCell(entry.Bounds, func(key cellKey) {
		cell, ok := si.cells[key]
		if !ok {
			return
		}
		delete(cell, id)
		if len(cell) == 0 {
			delete(si.cells, key)
		}
	})

	delete(si.entries, id)
	return true
}

// Update re-registers an entry under new bounds. The prior data is
// preserved when newData is nil.
func (si *SpatialIndex) Update(id string, bounds geometry.BoundingBox, newData any) {
	if newData == nil {
		if prior, ok := si.entries[id]; ok {
			newData = prior.Data
		}
	}
	si.Insert(id, bounds, newData)
}

// Clear drops every entry.
func (si *SpatialIndex) Clear() {
	si.cells = make(map[cellKey]map[string]struct{})
	si.entries = make(map[string]SpatialEntry)
}

// Query returns every entry whose bounds intersect the region, each at
// most once, in unspecified order. Cell membership is only a superset
// filter; candidates are verified against their true bounds.
func (si *SpatialIndex) Query(bounds geometry.BoundingBox) []SpatialEntry {
	seen := make(map[string]struct{})
	var result []SpatialEntry

	si.eachCell(bounds, func(key cellKey) {
		for id := range si.cells[key] {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			entry := si.entries[id]
			if entry.Bounds.Intersects(bounds) {
				result = append(result, entry)
			}
		}
	})

	return result
}

// QueryRadius queries the bounding box of a circle.
func (si *SpatialIndex) QueryRadius(center geometry.Point, r float64) []SpatialEntry {
	return si.Query(geometry.Box(center.X-r, center.Y-r, center.X+r, center.Y+r))
}

// QueryPoint queries a degenerate box at a single point.
func (si *SpatialIndex) QueryPoint(p geometry.Point) []SpatialEntry {
	return si.Query(geometry.Box(p.X, p.Y, p.X, p.Y))
}

func (si *SpatialIndex) eachCell(bounds geometry.BoundingBox, fn func(cellKey)) {
	minX := int(math.Floor(bounds.MinX / si.cellSize))
	minY := int(math.Floor(bounds.MinY / si.cellSize))
	maxX := int(math.Floor(bounds.MaxX / si.cellSize))
	maxY := int(math.Floor(bounds.MaxY / si.cellSize))

	for x := minX; x <= maxX; x++ {
		for y := minY; y <= maxY; y++ {
			fn(cellKey{X: x, Y: y})
		}
	}
}
