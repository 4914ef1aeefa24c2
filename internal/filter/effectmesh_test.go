package filter

import (
	"testing"

	"cgf-scene-loader/internal/material"
	"cgf-scene-loader/internal/mesh"
	"cgf-scene-loader/internal/scene"

	"github.com/go-gl/mathgl/mgl32"
)

func TestLODLevel(t *testing.T) {
	tests := []struct {
		name string
		want int
	}{
		{"$lod1", 1},
		{"hull_lod2", 2},
		{"LOD3", 3},
		{"hull", 0},
		{"lodge", 0},
		{"$lod", 0},
	}
	for _, tt := range tests {
		if got := LODLevel(tt.name); got != tt.want {
			t.Errorf("LODLevel(%q) = %d, want %d", tt.name, got, tt.want)
		}
	}
}

func TestIsProxyNode(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"$collision01", true},
		{"$lod1", false},
		{"hull_proxy", true},
		{"Physics_Wheel", true},
		{"Hull", false},
	}
	for _, tt := range tests {
		if got := IsProxyNode(&scene.Node{Name: tt.name}); got != tt.want {
			t.Errorf("IsProxyNode(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func quadGeometry(materialIndex int) *mesh.Geometry {
	return &mesh.Geometry{
		Positions: make([]mgl32.Vec3, 7),
		Subsets: []mesh.Subset{{
			MaterialIndex: materialIndex,
			Triangles: []mesh.Triangle{
				{{Vertex: 0}, {Vertex: 1}, {Vertex: 2}},
				{{Vertex: 0}, {Vertex: 2}, {Vertex: 3}},
				{{Vertex: 4}, {Vertex: 5}, {Vertex: 6}},
			},
		}},
	}
}

func TestRenderable(t *testing.T) {
	mats := []material.Material{
		{Name: "hull"},
		{Name: "proxy", Flags: material.NoDrawFlag},
	}
	tests := []struct {
		name string
		node *scene.Node
		want bool
	}{
		{"visible", &scene.Node{Name: "Hull", Geometry: quadGeometry(0)}, true},
		{"placeholder", &scene.Node{Name: "Hull"}, false},
		{"no draw", &scene.Node{Name: "Hull", Geometry: quadGeometry(1)}, false},
		{"lod", &scene.Node{Name: "Hull_lod1", Geometry: quadGeometry(0)}, false},
		{"proxy", &scene.Node{Name: "$collision", Geometry: quadGeometry(0)}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Renderable(tt.node, mats); got != tt.want {
				t.Errorf("Renderable = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestComponents(t *testing.T) {
	if got := Components(quadGeometry(0)); got != 2 {
		t.Errorf("Components = %d, want 2", got)
	}
	if got := Components(&mesh.Geometry{}); got != 0 {
		t.Errorf("Components(empty) = %d, want 0", got)
	}
}
