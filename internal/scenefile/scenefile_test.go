package scenefile

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"rigid3d/internal/components"
	"rigid3d/internal/engine"

	rl "github.com/gen2brain/raylib-go/raylib"
)

const dropScene = `
name: drop
objects:
  - name: Ground
    tags: [ground]
    position: [0, -0.5, 0]
    components:
      - type: Rigidbody
        bodyType: static
        friction: 0.8
      - type: Collider
        shape: box
        halfExtents: [50, 0.5, 50]
  - name: Crate
    position: [0, 2, 0]
    rotation: [0, 90, 0]
    scale: [2, 1, 1]
    components:
      - type: Rigidbody
        mass: 3
        linearVelocity: {x: 1, y: 0, z: 0}
      - type: Collider
        shape: capsule
        radius: 0.25
        halfHeight: 0.75
        offset: [0, 0.5, 0]
`

func parseScene(t *testing.T, src string) *engine.Scene {
	t.Helper()
	f, err := Parse([]byte(src))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	scene, err := Build(f)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	return scene
}

func TestBuildScene(t *testing.T) {
	scene := parseScene(t, dropScene)

	if scene.Name != "drop" {
		t.Errorf("Expected scene name drop, got %q", scene.Name)
	}
	if len(scene.GameObjects) != 2 {
		t.Fatalf("Expected 2 objects, got %d", len(scene.GameObjects))
	}

	ground := scene.FindByName("Ground")
	if ground == nil || !ground.HasTag("ground") {
		t.Fatal("Expected a tagged Ground object")
	}
	rb := engine.GetComponent[*components.Rigidbody](ground)
	if rb == nil || rb.BodyType != components.Static {
		t.Fatalf("Expected a static rigidbody on Ground, got %+v", rb)
	}
	if rb.Friction != 0.8 {
		t.Errorf("Expected friction 0.8, got %f", rb.Friction)
	}
	col := engine.GetComponent[*components.Collider](ground)
	if box, ok := col.Shape.(components.Box); !ok || box.HalfExtents != (rl.Vector3{X: 50, Y: 0.5, Z: 50}) {
		t.Errorf("Expected box collider (50,0.5,50), got %#v", col.Shape)
	}
	if ground.Transform.Scale != (rl.Vector3{X: 1, Y: 1, Z: 1}) {
		t.Errorf("Expected default scale 1, got %v", ground.Transform.Scale)
	}
	if ground.GlobalTransform.M13 != -0.5 {
		t.Errorf("Expected synced GlobalTransform, got y=%f", ground.GlobalTransform.M13)
	}

	crate := scene.FindByName("Crate")
	crb := engine.GetComponent[*components.Rigidbody](crate)
	if crb.Mass != 3 || crb.LinearVelocity.X != 1 {
		t.Errorf("Expected mass 3 moving +X, got mass %f velocity %v", crb.Mass, crb.LinearVelocity)
	}
	q := crate.Transform.Rotation
	if math.Abs(float64(q.Y)-math.Sqrt2/2) > 1e-5 || math.Abs(float64(q.W)-math.Sqrt2/2) > 1e-5 {
		t.Errorf("Expected 90 degree yaw, got %v", q)
	}
	if crate.Transform.Scale.X != 2 {
		t.Errorf("Expected scale x 2, got %f", crate.Transform.Scale.X)
	}
	ccol := engine.GetComponent[*components.Collider](crate)
	if c, ok := ccol.Shape.(components.Capsule); !ok || c.Radius != 0.25 || c.HalfHeight != 0.75 {
		t.Errorf("Expected capsule collider, got %#v", ccol.Shape)
	}
	if ccol.Offset.Y != 0.5 {
		t.Errorf("Expected offset y 0.5, got %f", ccol.Offset.Y)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	scene := parseScene(t, dropScene)
	path := filepath.Join(t.TempDir(), "out.yaml")
	if err := Save(path, scene); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(loaded.GameObjects) != len(scene.GameObjects) {
		t.Fatalf("Expected %d objects, got %d", len(scene.GameObjects), len(loaded.GameObjects))
	}
	for i, want := range scene.GameObjects {
		got := loaded.GameObjects[i]
		if got.Name != want.Name || got.Transform != want.Transform {
			t.Errorf("Expected %s %+v, got %s %+v", want.Name, want.Transform, got.Name, got.Transform)
		}
		wantRB := engine.GetComponent[*components.Rigidbody](want)
		gotRB := engine.GetComponent[*components.Rigidbody](got)
		if gotRB == nil || gotRB.BodyType != wantRB.BodyType || gotRB.Mass != wantRB.Mass || gotRB.Restitution != wantRB.Restitution {
			t.Errorf("%s: expected rigidbody %+v, got %+v", want.Name, wantRB, gotRB)
		}
		wantCol := engine.GetComponent[*components.Collider](want)
		gotCol := engine.GetComponent[*components.Collider](got)
		if gotCol == nil || gotCol.Shape != wantCol.Shape || gotCol.Offset != wantCol.Offset {
			t.Errorf("%s: expected collider %#v, got %#v", want.Name, wantCol, gotCol)
		}
	}
}

func TestLoadJSON(t *testing.T) {
	src := `{"objects": [{"name": "Ball", "position": [1, 2, 3], "components": [{"type": "Collider", "shape": "sphere", "radius": 2}]}]}`
	path := filepath.Join(t.TempDir(), "ball.json")
	if err := os.WriteFile(path, []byte(src), 0644); err != nil {
		t.Fatal(err)
	}

	scene, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if scene.Name != "ball" {
		t.Errorf("Expected name from the file name, got %q", scene.Name)
	}
	ball := scene.FindByName("Ball")
	if ball == nil || ball.Transform.Position != (rl.Vector3{X: 1, Y: 2, Z: 3}) {
		t.Fatalf("Expected Ball at (1,2,3), got %+v", ball)
	}
	if s, ok := engine.GetComponent[*components.Collider](ball).Shape.(components.Sphere); !ok || s.Radius != 2 {
		t.Error("Expected a sphere of radius 2")
	}
}

func TestBuildRejectsUnknownComponent(t *testing.T) {
	f, err := Parse([]byte("objects:\n  - name: X\n    components:\n      - type: Teleporter\n"))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if _, err := Build(f); err == nil {
		t.Error("Expected an error for an unknown component type")
	}

	f, _ = Parse([]byte("objects:\n  - name: Y\n    components:\n      - mass: 2\n"))
	if _, err := Build(f); err == nil {
		t.Error("Expected an error for a component without a type")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("Expected an error for a missing file")
	}
}
