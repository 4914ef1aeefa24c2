package material

import (
	"os"
	"path/filepath"
	"testing"
)

const shipMtl = `<Material MtlFlags="524544">
 <SubMaterials>
  <Material Name="hull" MtlFlags="524416" Shader="Illum" Diffuse="0.5,0.25,1" Specular="0.1,0.1,0.1" Opacity="1" Shininess="32">
   <Textures>
    <Texture Map="Diffuse" File="objects/ship/hull_diff.tga"/>
    <Texture Map="Bumpmap" File="objects/ship/hull_ddn.tga"/>
    <Texture Map="Specular" File=""/>
   </Textures>
  </Material>
  <Material Name="proxy" MtlFlags="1152" Shader="Nodraw"/>
  <Material Name="glass" Shader="Glass" Diffuse="bad" Opacity="0.3"/>
 </SubMaterials>
</Material>`

func TestDecodeSubMaterials(t *testing.T) {
	lib, err := Decode([]byte(shipMtl))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(lib.Materials) != 3 {
		t.Fatalf("materials = %d, want 3", len(lib.Materials))
	}

	hull := lib.Materials[0]
	if hull.Name != "hull" || hull.Diffuse != [3]float32{0.5, 0.25, 1} {
		t.Errorf("hull = %+v", hull)
	}
	if hull.Glossiness != 32 || hull.Flags != 524416 {
		t.Errorf("hull gloss = %v flags = %d", hull.Glossiness, hull.Flags)
	}
	if len(hull.Textures) != 2 {
		t.Errorf("textures = %v, want empty slots dropped", hull.Textures)
	}
	if f, ok := hull.Texture("diffuse"); !ok || f != "objects/ship/hull_diff.tga" {
		t.Errorf("Texture(diffuse) = %q, %v", f, ok)
	}
	if hull.NoDraw() {
		t.Error("hull should draw")
	}

	if !lib.Materials[1].NoDraw() {
		t.Error("proxy should be no-draw")
	}

	glass := lib.Materials[2]
	if glass.Diffuse != Default().Diffuse {
		t.Errorf("bad diffuse = %v, want default", glass.Diffuse)
	}
	if glass.Opacity != float32(0.3) {
		t.Errorf("opacity = %v, want 0.3", glass.Opacity)
	}
}

func TestDecodeSingleMaterial(t *testing.T) {
	lib, err := Decode([]byte(`<Material Name="rock" Shader="Illum"/>`))
	if err != nil {
		t.Fatal(err)
	}
	if len(lib.Materials) != 1 || lib.Materials[0].Name != "rock" {
		t.Errorf("materials = %+v, want the root material", lib.Materials)
	}
}

func TestDecodeMalformed(t *testing.T) {
	if _, err := Decode([]byte("<Material")); err == nil {
		t.Error("want error for truncated xml")
	}
}

func TestParseAndLocate(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "objects", "ship")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(sub, "ship.mtl")
	if err := os.WriteFile(path, []byte(shipMtl), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		dirs []string
		want string
		ok   bool
	}{
		{`objects\ship\ship`, []string{dir}, path, true},
		{"ship", []string{t.TempDir(), sub}, path, true},
		{"elsewhere/ship.mtl", []string{sub}, path, true},
		{"missing", []string{dir, sub}, "", false},
	}
	for _, tt := range tests {
		got, ok := Locate(tt.name, tt.dirs...)
		if ok != tt.ok || (ok && got != tt.want) {
			t.Errorf("Locate(%q) = %q, %v, want %q, %v", tt.name, got, ok, tt.want, tt.ok)
		}
	}

	lib, err := Parse(path)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if lib.Name != "ship" || lib.Path != path {
		t.Errorf("Name = %q Path = %q", lib.Name, lib.Path)
	}
	if _, err := Parse(filepath.Join(dir, "nope.mtl")); err == nil {
		t.Error("want error for missing file")
	}
}
