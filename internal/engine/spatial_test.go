package engine

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/draftkit/draftkit/backend-go/internal/geometry"
)

func queryIDs(entries []SpatialEntry) map[string]bool {
	out := make(map[string]bool, len(entries))
	for _, e := range entries {
		out[e.ID] = true
	}
	return out
}

func TestSpatialIndexInsertAndQuery(t *testing.T) {
	si := NewSpatialIndex(100)
	si.Insert("a", geometry.Box(0, 0, 10, 10), nil)
	si.Insert("b", geometry.Box(250, 250, 260, 260), nil)

	hits := queryIDs(si.Query(geometry.Box(-5, -5, 20, 20)))
	assert.True(t, hits["a"])
	assert.False(t, hits["b"])
	assert.Equal(t, 2, si.Len())
}

func TestSpatialIndexEntrySpanningCells(t *testing.T) {
	si := NewSpatialIndex(100)
	si.Insert("wide", geometry.Box(50, 50, 350, 80), nil)

	// Visible from any cell it crosses.
	for _, x := range []float64{60, 160, 260, 340} {
		hits := si.QueryPoint(geometry.Pt(x, 60))
		require.Len(t, hits, 1, "x=%v", x)
		assert.Equal(t, "wide", hits[0].ID)
	}

	// Returned once even when the query spans all of its cells.
	hits := si.Query(geometry.Box(0, 0, 400, 100))
	assert.Len(t, hits, 1)
}

func TestSpatialIndexSameCellNonIntersecting(t *testing.T) {
	si := NewSpatialIndex(100)
	si.Insert("a", geometry.Box(0, 0, 10, 10), nil)

	// Same cell, disjoint bounds: the cell filter alone would return
	// it, the true-bounds check must not.
	hits := si.Query(geometry.Box(80, 80, 90, 90))
	assert.Empty(t, hits)
}

func TestSpatialIndexRemove(t *testing.T) {
	si := NewSpatialIndex(100)
	si.Insert("a", geometry.Box(0, 0, 10, 10), nil)

	assert.True(t, si.Remove("a"))
	assert.False(t, si.Remove("a"))
	assert.Empty(t, si.Query(geometry.Box(0, 0, 10, 10)))
	assert.Equal(t, 0, si.Len())
}

func TestSpatialIndexUpdateMovesEntry(t *testing.T) {
	si := NewSpatialIndex(100)
	si.Insert("a", geometry.Box(0, 0, 10, 10), "payload")

	si.Update("a", geometry.Box(500, 500, 510, 510), nil)

	assert.Empty(t, si.Query(geometry.Box(0, 0, 10, 10)))
	hits := si.Query(geometry.Box(490, 490, 520, 520))
	require.Len(t, hits, 1)
	// nil newData keeps the prior payload.
	assert.Equal(t, "payload", hits[0].Data)
}

func TestSpatialIndexReinsertReplaces(t *testing.T) {
	si := NewSpatialIndex(100)
	si.Insert("a", geometry.Box(0, 0, 10, 10), nil)
	si.Insert("a", geometry.Box(200, 200, 210, 210), nil)

	assert.Equal(t, 1, si.Len())
	assert.Empty(t, si.Query(geometry.Box(0, 0, 10, 10)))
	assert.Len(t, si.Query(geometry.Box(200, 200, 210, 210)), 1)
}

func TestSpatialIndexNegativeCoordinates(t *testing.T) {
	si := NewSpatialIndex(100)
	si.Insert("neg", geometry.Box(-250, -150, -240, -140), nil)

	hits := si.Query(geometry.Box(-260, -160, -230, -130))
	require.Len(t, hits, 1)
	assert.Equal(t, "neg", hits[0].ID)
}

func TestSpatialIndexQueryRadius(t *testing.T) {
	si := NewSpatialIndex(100)
	si.Insert("near", geometry.Box(10, 0, 12, 2), nil)
	si.Insert("far", geometry.Box(300, 300, 310, 310), nil)

	hits := queryIDs(si.QueryRadius(geometry.Pt(0, 0), 20))
	assert.True(t, hits["near"])
	assert.False(t, hits["far"])
}

func TestSpatialIndexQueryIsReadOnly(t *testing.T) {
	si := NewSpatialIndex(100)
	for i := 0; i < 20; i++ {
		min := float64(i * 30)
		si.Insert(fmt.Sprintf("s%d", i), geometry.Box(min, min, min+10, min+10), nil)
	}

	region := geometry.Box(0, 0, 600, 600)
	first := queryIDs(si.Query(region))
	second := queryIDs(si.Query(region))
	assert.Equal(t, first, second)
	assert.Equal(t, 20, si.Len())
}

func TestSpatialIndexClear(t *testing.T) {
	si := NewSpatialIndex(100)
	si.Insert("a", geometry.Box(0, 0, 10, 10), nil)
	si.Clear()
	assert.Equal(t, 0, si.Len())
	assert.Empty(t, si.Query(geometry.Box(-1000, -1000, 1000, 1000)))
}
