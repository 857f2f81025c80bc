package arbre

import "math"

const (
	Vertical   = "vertical"
	Horizontal = "horizontal"
)

// TreeNode és un node amb els fills ja resolts.
type TreeNode struct {
	Node
	Children []*TreeNode
}

// SpacingPolicy defineix les mides de la disposició jeràrquica.
type SpacingPolicy struct {
	BaseWidth      float64
	MinRootSpacing float64
	Shrink         float64
	MinSpacing     float64
	LevelHeight    float64
	NodeWidth      float64
	NodeHeight     float64
}

func DefaultSpacing() SpacingPolicy {
	return SpacingPolicy{
		BaseWidth:      1600,
		MinRootSpacing: 250,
		Shrink:         0.7,
		MinSpacing:     250,
		LevelHeight:    200,
		NodeWidth:      180,
		NodeHeight:     80,
	}
}

type Box struct {
	ID     int     `json:"id"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type Line struct {
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	Length      float64 `json:"length"`
	Orientation string  `json:"orientation"`
}

type Layout struct {
	Boxes []Box  `json:"boxes"`
	Lines []Line `json:"lines"`
}

// BuildForest enllaça les persones pel pare. Són arrels les que no tenen pare
// o el tenen fora de la llista; els nodes que només formen cicles es
// promouen a arrel en l'ordre d'entrada, de manera que cada persona hi surt
// una sola vegada.
func BuildForest(persons []Node) []*TreeNode {
	nodes := make([]*TreeNode, len(persons))
	byID := make(map[int]int, len(persons))
	for i, p := range persons {
		nodes[i] = &TreeNode{Node: p}
		if _, dup := byID[p.ID]; !dup {
			byID[p.ID] = i
		}
	}
	children := make(map[int][]int, len(persons))
	var roots []int
	for i, p := range persons {
		if p.FatherID == nil {
			roots = append(roots, i)
			continue
		}
		if _, ok := byID[*p.FatherID]; !ok {
			roots = append(roots, i)
			continue
		}
		children[*p.FatherID] = append(children[*p.FatherID], i)
	}

	visited := make([]bool, len(persons))
	var attach func(i int)
	attach = func(i int) {
		visited[i] = true
		for _, c := range children[persons[i].ID] {
			if visited[c] {
				continue
			}
			nodes[i].Children = append(nodes[i].Children, nodes[c])
			attach(c)
		}
	}

	var forest []*TreeNode
	for _, r := range roots {
		if visited[r] {
			continue
		}
		attach(r)
		forest = append(forest, nodes[r])
	}
	for i := range persons {
		if !visited[i] {
			attach(i)
			forest = append(forest, nodes[i])
		}
	}
	return forest
}

// LayoutHierarchical col·loca les arrels repartides sobre BaseWidth i cada fill
// centrat sota el pare, amb un espaiat que es redueix per Shrink a cada nivell
// sense baixar de MinSpacing. Cada aresta pare-fill es dibuixa amb tres
// segments: baixada, travessa horitzontal i baixada fins al fill.
func LayoutHierarchical(roots []*TreeNode, policy SpacingPolicy) Layout {
	var out Layout
	if len(roots) == 0 {
		return out
	}
	rootSpacing := math.Max(policy.BaseWidth/float64(len(roots)), policy.MinRootSpacing)
	seen := map[*TreeNode]bool{}
	for i, r := range roots {
		x := rootSpacing*float64(i) + rootSpacing/2
		layoutNode(&out, r, x, 0, rootSpacing, policy, seen)
	}
	return out
}

func layoutNode(out *Layout, n *TreeNode, cx, y, spacing float64, policy SpacingPolicy, seen map[*TreeNode]bool) {
	if n == nil || seen[n] {
		return
	}
	seen[n] = true
	out.Boxes = append(out.Boxes, Box{
		ID:     n.ID,
		X:      cx - policy.NodeWidth/2,
		Y:      y,
		Width:  policy.NodeWidth,
		Height: policy.NodeHeight,
	})
	if len(n.Children) == 0 {
		return
	}

	childSpacing := math.Max(spacing*policy.Shrink, policy.MinSpacing)
	childY := y + policy.LevelHeight
	bottom := y + policy.NodeHeight
	mid := bottom + (childY-bottom)/2
	offset := float64(len(n.Children)-1) / 2

	for i, c := range n.Children {
		if seen[c] {
			continue
		}
		childX := cx + (float64(i)-offset)*childSpacing
		out.Lines = append(out.Lines,
			Line{X: cx, Y: bottom, Length: mid - bottom, Orientation: Vertical},
			Line{X: math.Min(cx, childX), Y: mid, Length: math.Abs(childX - cx), Orientation: Horizontal},
			Line{X: childX, Y: mid, Length: childY - mid, Orientation: Vertical},
		)
		layoutNode(out, c, childX, childY, childSpacing, policy, seen)
	}
}
