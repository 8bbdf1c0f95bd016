package uihost

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRowRatioSplit(t *testing.T) {
	tree := &Widget{
		Kind: KindRow,
		Children: []*Widget{
			{Kind: KindSurface, PTYID: 1, Ratio: 0.7},
			{Kind: KindSurface, PTYID: 2, Ratio: 0.3},
		},
	}
	lo := Layout(tree, Constraints{MinW: 100, MaxW: 100, MinH: 40, MaxH: 40})
	require.Len(t, lo.Children, 2)
	assert.Equal(t, 70, lo.Children[0].Rect.W)
	assert.Equal(t, 30, lo.Children[1].Rect.W)
	assert.Equal(t, 0, lo.Children[0].Rect.X)
	assert.Equal(t, 70, lo.Children[1].Rect.X)
}

func TestRowIntrinsicSiblingReducesAvailable(t *testing.T) {
	tree := &Widget{
		Kind: KindRow,
		Children: []*Widget{
			{Kind: KindText, Text: "hi"},
			{Kind: KindSurface, PTYID: 1},
		},
	}
	lo := Layout(tree, Constraints{MinW: 20, MaxW: 20, MinH: 5, MaxH: 5})
	require.Len(t, lo.Children, 2)
	assert.Equal(t, 2, lo.Children[0].Rect.W)
	assert.Equal(t, 18, lo.Children[1].Rect.W)
	assert.Equal(t, 2, lo.Children[1].Rect.X)
}

func TestBoxBorderStealsTwoCells(t *testing.T) {
	tree := &Widget{
		Kind:   KindBox,
		Border: true,
		Children: []*Widget{
			{Kind: KindSurface, PTYID: 1},
		},
	}
	lo := Layout(tree, Constraints{MinW: 10, MaxW: 10, MinH: 6, MaxH: 6})
	require.Len(t, lo.Children, 1)
	assert.Equal(t, 8, lo.Children[0].Rect.W)
	assert.Equal(t, 4, lo.Children[0].Rect.H)
}

func TestPaddingSubtractsFixedCells(t *testing.T) {
	tree := &Widget{
		Kind:      KindPadding,
		PadLeft:   2,
		PadRight:  1,
		PadTop:    1,
		PadBottom: 1,
		Children: []*Widget{
			{Kind: KindSurface, PTYID: 1},
		},
	}
	lo := Layout(tree, Constraints{MinW: 10, MaxW: 10, MinH: 10, MaxH: 10})
	child := lo.Children[0]
	assert.Equal(t, 2, child.Rect.X)
	assert.Equal(t, 1, child.Rect.Y)
	assert.Equal(t, 7, child.Rect.W)
	assert.Equal(t, 8, child.Rect.H)
}

func TestStackChildrenOverlapAtOrigin(t *testing.T) {
	tree := &Widget{
		Kind: KindStack,
		Children: []*Widget{
			{Kind: KindSurface, PTYID: 1},
			{Kind: KindSurface, PTYID: 2},
		},
	}
	lo := Layout(tree, Constraints{MinW: 10, MaxW: 10, MinH: 10, MaxH: 10})
	assert.Equal(t, lo.Children[0].Rect, lo.Children[1].Rect)
}

func TestLayoutIsDeterministic(t *testing.T) {
	tree := &Widget{
		Kind: KindColumn,
		Children: []*Widget{
			{Kind: KindSurface, PTYID: 1, Ratio: 0.5},
			{Kind: KindSurface, PTYID: 2, Ratio: 0.5},
		},
	}
	c := Constraints{MinW: 40, MaxW: 40, MinH: 20, MaxH: 20}
	a := Layout(tree, c)
	b := Layout(tree, c)
	assert.Equal(t, a.Children[0].Rect, b.Children[0].Rect)
	assert.Equal(t, a.Children[1].Rect, b.Children[1].Rect)
}

func TestHitTestLastWins(t *testing.T) {
	tree := &Widget{
		Kind: KindStack,
		Children: []*Widget{
			{ID: "back", Kind: KindSurface, PTYID: 1},
			{ID: "front", Kind: KindSurface, PTYID: 2},
		},
	}
	lo := Layout(tree, Constraints{MinW: 10, MaxW: 10, MinH: 10, MaxH: 10})
	regions, _ := Collect(lo)
	hit, ok := HitTest(regions, 3, 3)
	require.True(t, ok)
	assert.Equal(t, 2, hit.PTYID)
}

func TestSplitHandleBetweenRowChildren(t *testing.T) {
	tree := &Widget{
		ID:   "split",
		Kind: KindRow,
		Children: []*Widget{
			{Kind: KindSurface, PTYID: 1, Ratio: 0.5},
			{Kind: KindSurface, PTYID: 2, Ratio: 0.5},
		},
	}
	lo := Layout(tree, Constraints{MinW: 20, MaxW: 20, MinH: 10, MaxH: 10})
	_, handles := Collect(lo)
	require.Len(t, handles, 1)
	assert.Equal(t, AxisVertical, handles[0].Axis)
	assert.Equal(t, "split", handles[0].ParentID)
}
