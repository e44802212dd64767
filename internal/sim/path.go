package sim

import (
	"container/heap"
	"math"
)

type pathNode struct {
	tile   TileCoord
	g, h   float64
	parent *pathNode
	index  int // heap index
}

type openList []*pathNode

func (ol openList) Len() int           { return len(ol) }
func (ol openList) Less(i, j int) bool { return (ol[i].g + ol[i].h) < (ol[j].g + ol[j].h) }
func (ol openList) Swap(i, j int) {
	ol[i], ol[j] = ol[j], ol[i]
	ol[i].index = i
	ol[j].index = j
}
func (ol *openList) Push(x interface{}) {
	n := x.(*pathNode)
	n.index = len(*ol)
	*ol = append(*ol, n)
}
func (ol *openList) Pop() interface{} {
	old := *ol
	n := old[len(old)-1]
	old[len(old)-1] = nil
	*ol = old[:len(old)-1]
	return n
}

var pathDirs = [8][2]int{
	{1, 0}, {-1, 0}, {0, 1}, {0, -1},
	{1, 1}, {1, -1}, {-1, 1}, {-1, -1},
}

// FindPath returns world-coordinate waypoints from one position to another,
// or nil if no path exists. 8-directional with octile heuristic; diagonal
// steps never cut corners through blocked tiles.
func (g *Grid) FindPath(from, to Vec2) []Vec2 {
	start := WorldToTile(from)
	goal := WorldToTile(to)

	if g.IsBlocked(start) || g.IsBlocked(goal) {
		return nil
	}

	key := func(t TileCoord) int { return t.Y*g.cols + t.X }
	heuristic := func(a, b TileCoord) float64 {
		dx := math.Abs(float64(a.X - b.X))
		dy := math.Abs(float64(a.Y - b.Y))
		return dx + dy + (math.Sqrt2-2)*math.Min(dx, dy)
	}

	sn := &pathNode{tile: start, g: 0, h: heuristic(start, goal)}
	ol := &openList{sn}
	heap.Init(ol)

	closed := make(map[int]bool)
	best := make(map[int]*pathNode)
	best[key(start)] = sn

	for ol.Len() > 0 {
		cur := heap.Pop(ol).(*pathNode)
		if cur.tile == goal {
			return buildPath(cur)
		}
		k := key(cur.tile)
		if closed[k] {
			continue
		}
		closed[k] = true

		for _, d := range pathDirs {
			next := TileCoord{cur.tile.X + d[0], cur.tile.Y + d[1]}
			if g.IsBlocked(next) {
				continue
			}
			// Prevent diagonal corner-cutting through blocked cells.
			if d[0] != 0 && d[1] != 0 {
				if g.IsBlocked(TileCoord{cur.tile.X + d[0], cur.tile.Y}) ||
					g.IsBlocked(TileCoord{cur.tile.X, cur.tile.Y + d[1]}) {
					continue
				}
			}
			nk := key(next)
			if closed[nk] {
				continue
			}
			cost := 1.0
			if d[0] != 0 && d[1] != 0 {
				cost = math.Sqrt2
			}
			ng := cur.g + cost
			if prev, ok := best[nk]; ok && ng >= prev.g {
				continue
			}
			node := &pathNode{tile: next, g: ng, h: heuristic(next, goal), parent: cur}
			best[nk] = node
			heap.Push(ol, node)
		}
	}
	return nil
}

func buildPath(end *pathNode) []Vec2 {
	var tiles []TileCoord
	for n := end; n != nil; n = n.parent {
		tiles = append(tiles, n.tile)
	}
	for i, j := 0, len(tiles)-1; i < j; i, j = i+1, j-1 {
		tiles[i], tiles[j] = tiles[j], tiles[i]
	}
	path := make([]Vec2, len(tiles))
	for i, t := range tiles {
		path[i] = t.Center()
	}
	return path
}
