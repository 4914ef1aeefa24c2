package scene

import (
	"errors"
	"testing"

	"cgf-scene-loader/internal/chunk"
	"cgf-scene-loader/internal/mathutil"
	"cgf-scene-loader/internal/mesh"
)

func table(t *testing.T, records ...chunk.Record) *chunk.Table {
	t.Helper()
	tbl, err := chunk.Build(records)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return tbl
}

func node(id chunk.ID, name string, parent, object chunk.ID, m mathutil.Mat4) *chunk.Node {
	return &chunk.Node{Header: chunk.Header{ID: id}, Name: name, ParentID: parent, ObjectID: object, Transform: m}
}

// quad returns a mesh with id meshID covering two triangles, with its
// streams numbered from meshID+1.
func quad(meshID chunk.ID) []chunk.Record {
	return []chunk.Record{
		&chunk.Mesh{
			Header: chunk.Header{ID: meshID}, VertexCount: 4, IndexCount: 6,
			SubsetsID: meshID + 1, PositionsID: meshID + 2, UVsID: meshID + 3, IndicesID: meshID + 4,
		},
		&chunk.MeshSubsets{Header: chunk.Header{ID: meshID + 1}, Subsets: []chunk.Subset{{IndexCount: 6, VertexCount: 4}}},
		&chunk.DataStream{Header: chunk.Header{ID: meshID + 2}, Type: chunk.StreamPositions,
			Vectors: [][3]float32{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0}}},
		&chunk.DataStream{Header: chunk.Header{ID: meshID + 3}, Type: chunk.StreamUVs,
			UVs: [][2]float32{{0, 0}, {1, 0}, {1, 1}, {0, 1}}},
		&chunk.DataStream{Header: chunk.Header{ID: meshID + 4}, Type: chunk.StreamIndices,
			Indices: []uint32{0, 1, 2, 0, 2, 3}},
	}
}

var opts = Options{Mesh: mesh.Options{MaterialCount: 1}}

func TestBuildSingleFile(t *testing.T) {
	id := mathutil.Mat4Identity()
	records := append([]chunk.Record{
		node(1, "root", chunk.NoID, 0, id),
		node(2, "body", 1, 10, id),
	}, quad(10)...)

	g, err := Build(table(t, records...), nil, opts)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if g.Root.Name != "root" || g.Root.Synthetic() {
		t.Fatalf("Root = %q, want the single file root", g.Root.Name)
	}
	if d := g.Root.Depth(); d != 2 {
		t.Errorf("Depth() = %d, want 2", d)
	}
	if !g.Root.Placeholder() {
		t.Error("root without object should be a placeholder")
	}

	body := g.Root.Children[0]
	if body.Parent != g.Root {
		t.Error("child parent not linked")
	}
	if body.Placeholder() {
		t.Fatal("body should carry geometry")
	}
	if n := body.Geometry.TriangleCount(); n != 2 {
		t.Errorf("TriangleCount() = %d, want 2", n)
	}
	for _, s := range body.Geometry.Subsets {
		if s.MaterialIndex != 0 {
			t.Errorf("MaterialIndex = %d, want 0", s.MaterialIndex)
		}
	}
	if len(g.MeshNodes()) != 1 {
		t.Errorf("MeshNodes() = %d nodes, want 1", len(g.MeshNodes()))
	}
}

func TestBuildCompanionMerge(t *testing.T) {
	hullMatrix := mathutil.Compose(mathutil.Vec3{2, 2, 2}, mathutil.Mat3Identity(), mathutil.Vec3{1, 2, 3})
	primary := table(t,
		node(1, "Root", chunk.NoID, 0, mathutil.Mat4Identity()),
		node(2, "Hull", 1, 0, hullMatrix),
		node(3, "Turret", 2, 0, mathutil.Mat4Identity()),
	)
	companion := table(t, append([]chunk.Record{
		node(7, "Hull", chunk.NoID, 20, mathutil.Mat4Identity()),
	}, quad(20)...)...)

	g, err := Build(primary, companion, opts)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	hull, ok := g.Find("Hull")
	if !ok {
		t.Fatal("Hull not found")
	}
	if hull.Placeholder() || !hull.FromCompanion {
		t.Fatalf("Hull should carry companion geometry, got %+v", hull.Geometry)
	}
	if hull.Geometry.MeshID != 20 {
		t.Errorf("MeshID = %d, want 20", hull.Geometry.MeshID)
	}
	if hull.ID != 2 || hull.Record.Transform != hullMatrix {
		t.Error("Hull should keep the primary record and placement")
	}
	if len(hull.Children) != 1 || hull.Children[0].Name != "Turret" {
		t.Errorf("Hull children = %v, want [Turret]", hull.Children)
	}
	turret := hull.Children[0]
	if !turret.Placeholder() {
		t.Error("Turret has no companion match and should stay a placeholder")
	}
}

func TestBuildCompanionMissStaysPlaceholder(t *testing.T) {
	primary := table(t, append([]chunk.Record{
		node(1, "Root", chunk.NoID, 0, mathutil.Mat4Identity()),
		node(2, "Door", 1, 10, mathutil.Mat4Identity()),
		node(3, "Hinge", 1, 5, mathutil.Mat4Identity()),
		&chunk.Helper{Header: chunk.Header{ID: 5}},
	}, quad(10)...)...)
	companion := table(t, append([]chunk.Record{
		node(7, "Hull", chunk.NoID, 20, mathutil.Mat4Identity()),
	}, quad(20)...)...)

	g, err := Build(primary, companion, opts)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	door, ok := g.Find("Door")
	if !ok {
		t.Fatal("Door not found")
	}
	if !door.Placeholder() || door.FromCompanion {
		t.Errorf("Door bound to %+v, want a placeholder", door.Geometry)
	}
	hinge, _ := g.Find("Hinge")
	if hinge.Helper == nil || !hinge.Placeholder() {
		t.Errorf("Hinge helper = %v, placeholder = %v", hinge.Helper, hinge.Placeholder())
	}
	if len(g.MeshNodes()) != 0 {
		t.Errorf("MeshNodes() = %d nodes, want 0", len(g.MeshNodes()))
	}
}

func TestBuildDuplicateNamesBindFirstMatch(t *testing.T) {
	primary := table(t,
		node(1, "Wheel", chunk.NoID, 0, mathutil.Mat4Identity()),
		node(2, "Wheel", chunk.NoID, 0, mathutil.Mat4Identity()),
	)
	var records []chunk.Record
	records = append(records, node(3, "Wheel", chunk.NoID, 10, mathutil.Mat4Identity()))
	records = append(records, node(4, "Wheel", chunk.NoID, 20, mathutil.Mat4Identity()))
	records = append(records, quad(10)...)
	records = append(records, quad(20)...)
	companion := table(t, records...)

	g, err := Build(primary, companion, opts)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	for _, n := range g.Nodes {
		if n.Geometry == nil || n.Geometry.MeshID != 10 {
			t.Errorf("node %d bound to %+v, want mesh 10", n.ID, n.Geometry)
		}
	}
	if g.Nodes[0].Geometry != g.Nodes[1].Geometry {
		t.Error("both nodes should share one resolved mesh")
	}
}

func TestBuildMultipleRoots(t *testing.T) {
	g, err := Build(table(t,
		node(1, "a", chunk.NoID, 0, mathutil.Mat4Identity()),
		node(2, "b", -1, 0, mathutil.Mat4Identity()),
		node(3, "c", 99, 0, mathutil.Mat4Identity()),
	), nil, opts)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if !g.Root.Synthetic() || g.Root.Name != RootName {
		t.Fatalf("Root = %q, want synthetic root", g.Root.Name)
	}
	if len(g.Root.Children) != 3 {
		t.Errorf("root children = %d, want 3", len(g.Root.Children))
	}
	if len(g.Diagnostics) != 1 || g.Diagnostics[0].Kind != Unresolved {
		t.Errorf("Diagnostics = %v, want one unresolved parent", g.Diagnostics)
	}
	if !g.Root.World.IsIdentity() {
		t.Error("synthetic root should have identity world")
	}
}

func TestBuildEmpty(t *testing.T) {
	g, err := Build(table(t), nil, opts)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if !g.Root.Synthetic() || len(g.Root.Children) != 0 {
		t.Errorf("Root = %+v, want empty synthetic root", g.Root)
	}
}

func TestBuildCycle(t *testing.T) {
	tests := []struct {
		name  string
		nodes []chunk.Record
	}{
		{"self", []chunk.Record{
			node(1, "root", chunk.NoID, 0, mathutil.Mat4Identity()),
			node(2, "loop", 2, 0, mathutil.Mat4Identity()),
		}},
		{"pair", []chunk.Record{
			node(1, "a", 2, 0, mathutil.Mat4Identity()),
			node(2, "b", 1, 0, mathutil.Mat4Identity()),
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Build(table(t, tt.nodes...), nil, opts)
			if !errors.Is(err, chunk.ErrStructural) {
				t.Errorf("error = %v, want structural", err)
			}
		})
	}
}

func TestBuildPlaceholders(t *testing.T) {
	records := []chunk.Record{
		node(1, "root", chunk.NoID, 0, mathutil.Mat4Identity()),
		node(2, "dummy", 1, 5, mathutil.Mat4Identity()),
		node(3, "empty", 1, 6, mathutil.Mat4Identity()),
		node(4, "missing", 1, 42, mathutil.Mat4Identity()),
		node(8, "odd", 1, 7, mathutil.Mat4Identity()),
		&chunk.Helper{Header: chunk.Header{ID: 5}},
		&chunk.Mesh{Header: chunk.Header{ID: 6}, VertexCount: 0},
		&chunk.SourceInfo{Header: chunk.Header{ID: 7}},
	}
	g, err := Build(table(t, records...), nil, opts)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	for _, n := range g.Nodes {
		if !n.Placeholder() {
			t.Errorf("%s should be a placeholder", n.Name)
		}
	}
	if dummy, _ := g.Find("dummy"); dummy.Helper == nil {
		t.Error("dummy should keep its helper record")
	}
	if len(g.Diagnostics) != 2 {
		t.Errorf("Diagnostics = %v, want missing and odd", g.Diagnostics)
	}
}

func TestBuildStructuralMeshError(t *testing.T) {
	records := append([]chunk.Record{node(1, "root", chunk.NoID, 10, mathutil.Mat4Identity())}, quad(10)...)
	records[5] = &chunk.DataStream{Header: chunk.Header{ID: 14}, Type: chunk.StreamIndices, Indices: []uint32{0, 1, 7, 0, 2, 3}}
	_, err := Build(table(t, records...), nil, opts)
	if !errors.Is(err, chunk.ErrStructural) {
		t.Errorf("error = %v, want structural", err)
	}
}

func TestWorldTransforms(t *testing.T) {
	// Stored matrices carry translation in the scale slots.
	parent := mathutil.Compose(mathutil.Vec3{5, 0.5, 1}, mathutil.Mat3Identity(), mathutil.Vec3{1, 1, 1})
	child := mathutil.Compose(mathutil.Vec3{1, 2, 1}, mathutil.Mat3Identity(), mathutil.Vec3{2, 2, 2})
	g, err := Build(table(t,
		node(1, "parent", chunk.NoID, 0, parent),
		node(2, "child", 1, 0, child),
	), nil, opts)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	p, c := g.Root, g.Root.Children[0]
	if want := (mathutil.Vec3{5, 0.5, 1}); !p.Local.Translation.ApproxEqual(want, 1e-9) {
		t.Errorf("parent translation = %v, want %v", p.Local.Translation, want)
	}
	if want := (mathutil.Vec3{1, 1, 1}); !p.Local.Scale.ApproxEqual(want, 1e-9) {
		t.Errorf("parent scale = %v, want %v", p.Local.Scale, want)
	}
	origin := c.World.MulPoint(mathutil.Vec3{})
	if want := (mathutil.Vec3{6, 2.5, 2}); !origin.ApproxEqual(want, 1e-9) {
		t.Errorf("child origin = %v, want %v", origin, want)
	}
	if !c.World.ApproxEqual(mathutil.Mat4Mul(p.World, c.LocalMatrix), 1e-12) {
		t.Error("child world should be parent world times local")
	}
}
