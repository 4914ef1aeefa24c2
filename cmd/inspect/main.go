package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"cgf-scene-loader/internal/asset"
	"cgf-scene-loader/internal/chunk"
	"cgf-scene-loader/internal/filter"
	"cgf-scene-loader/internal/mathutil"
	"cgf-scene-loader/internal/scene"
)

func main() {
	objectDir := flag.String("objects", "", "Object directory searched for material libraries")
	noCompanion := flag.Bool("no-companion", false, "Do not load the companion file")
	showChunks := flag.Bool("chunks", false, "List the chunk table of each file")
	showBones := flag.Bool("bones", false, "Print the bone hierarchy")
	flag.Parse()

	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: inspect [flags] model.cgf ...")
		os.Exit(2)
	}

	failed := 0
	for _, path := range flag.Args() {
		a, err := asset.Load(path, asset.Options{ObjectDir: *objectDir, NoCompanion: *noCompanion})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error %s: %v\n", path, err)
			failed++
			continue
		}
		printAsset(a, *showChunks, *showBones)
	}
	if failed > 0 {
		os.Exit(1)
	}
}

func printAsset(a *asset.Asset, showChunks, showBones bool) {
	fmt.Printf("\n=== %s ===\n", a.Path)
	for _, m := range a.Models {
		role := "primary"
		if m.Companion {
			role = "companion"
		}
		fmt.Printf("  %-9s %s (version 0x%X, %d chunks, %d skipped)\n", role, m.Path, m.Version, m.Table.Len(), m.Skipped)
		if showChunks {
			for _, r := range m.Table.Records() {
				fmt.Printf("    [%4d] %s\n", r.ChunkHeader().ID, r.Kind())
			}
		}
	}

	fmt.Println("--- NODES ---")
	_ = a.Root.Walk(func(n *scene.Node, depth int) error {
		fmt.Printf("  %s%s%s\n", strings.Repeat("  ", depth), n.Name, nodeInfo(a, n))
		return nil
	})

	fmt.Println("--- MATERIALS ---")
	if a.MaterialLibrary != "" {
		fmt.Printf("  library: %s\n", a.MaterialLibrary)
	}
	for i, m := range a.Materials {
		flags := ""
		if m.NoDraw() {
			flags = " [nodraw]"
		}
		fmt.Printf("  [%d] %s shader=%s textures=%d%s\n", i, m.Name, m.Shader, len(m.Textures), flags)
	}

	sk := a.Skinning
	fmt.Println("--- SKINNING ---")
	fmt.Printf("  bones=%d bonemap=%d intverts=%d ext2int=%d\n",
		len(sk.CompiledBones), len(sk.BoneMapping), len(sk.IntVertices), len(sk.ExtToInt))
	fmt.Printf("  has_skinning_info=%v has_bone_map_datastream=%v has_int_to_ext_mapping=%v\n",
		sk.HasSkinningInfo, sk.HasBoneMapDatastream, sk.HasIntToExtMapping)
	if sk.Skinned() {
		for _, n := range a.Graph.MeshNodes() {
			if _, err := a.Weights(n); err != nil {
				fmt.Printf("  weights: %v\n", err)
			}
		}
	}

	if showBones && a.Skeleton.Len() > 0 {
		fmt.Println("--- BONES ---")
		_ = a.Skeleton.Walk(func(b *chunk.CompiledBone, depth int) error {
			fmt.Printf("  %s%s (%s)\n", strings.Repeat("  ", depth), b.Name, a.Skeleton.BoneID(b))
			return nil
		})
	}

	if len(a.Diagnostics) > 0 {
		fmt.Printf("--- DIAGNOSTICS (%d) ---\n", len(a.Diagnostics))
		for _, d := range a.Diagnostics {
			fmt.Printf("  %s\n", d)
		}
	}
}

func nodeInfo(a *asset.Asset, n *scene.Node) string {
	var parts []string
	if n.Synthetic() {
		parts = append(parts, "synthetic")
	}
	switch {
	case n.Helper != nil:
		parts = append(parts, "helper")
	case n.Placeholder():
		parts = append(parts, "placeholder")
	default:
		g := n.Geometry
		src := ""
		if n.FromCompanion {
			src = " companion"
		}
		parts = append(parts, fmt.Sprintf("mesh %d%s %s verts=%d tris=%d subsets=%d islands=%d",
			g.MeshID, src, g.Layout, g.VertexCount(), g.TriangleCount(), len(g.Subsets), filter.Components(g)))
	}
	if filter.IsProxyNode(n) {
		parts = append(parts, "proxy")
	}
	if lod := filter.LODLevel(n.Name); lod > 0 {
		parts = append(parts, fmt.Sprintf("lod%d", lod))
	}
	if !n.Synthetic() {
		t := n.Local.Translation
		r := mathutil.Degrees(mathutil.EulerZYX(n.Local.Rotation))
		parts = append(parts, fmt.Sprintf("pos=(%.2f, %.2f, %.2f) rot=(%.1f, %.1f, %.1f)",
			t[0], t[1], t[2], r[0], r[1], r[2]))
	}
	return "  [" + strings.Join(parts, ", ") + "]"
}
