package physics

import (
	"math"
	"testing"

	"rigid3d/internal/components"
	"rigid3d/internal/engine"

	rl "github.com/gen2brain/raylib-go/raylib"
)

func TestRaycastSphere(t *testing.T) {
	scene := engine.NewScene("ray")
	ball := spawn(scene, "Ball", rl.Vector3{Z: 5}, components.Sphere{Radius: 1}, components.NewStaticRigidbody())

	hit, ok := Raycast(scene, rl.Vector3{}, rl.Vector3{Z: 2}, 100)
	if !ok {
		t.Fatal("Expected a hit")
	}
	if hit.GameObject != ball {
		t.Errorf("Expected to hit Ball, got %v", hit.GameObject)
	}
	if !near(hit.Distance, 4, 1e-4) {
		t.Errorf("Expected distance 4, got %f", hit.Distance)
	}
	expectVec(t, "normal", hit.Normal, rl.Vector3{Z: -1}, 1e-4)

	if _, ok := Raycast(scene, rl.Vector3{}, rl.Vector3{Z: 1}, 3); ok {
		t.Error("Expected no hit beyond maxDistance")
	}
	if _, ok := Raycast(scene, rl.Vector3{}, rl.Vector3{Z: -1}, 100); ok {
		t.Error("Expected no hit behind the origin")
	}
}

func TestRaycastClosestWins(t *testing.T) {
	scene := engine.NewScene("ray")
	box := components.Box{HalfExtents: rl.Vector3{X: 1, Y: 1, Z: 1}}
	spawn(scene, "Far", rl.Vector3{X: 10}, box, components.NewStaticRigidbody())
	nearest := spawn(scene, "Near", rl.Vector3{X: 5}, box, components.NewStaticRigidbody())

	hit, ok := Raycast(scene, rl.Vector3{}, rl.Vector3{X: 1}, 100)
	if !ok || hit.GameObject != nearest {
		t.Fatalf("Expected to hit Near, got %v", hit.GameObject)
	}
	if hit.Distance != 4 {
		t.Errorf("Expected distance 4, got %f", hit.Distance)
	}
	expectVec(t, "normal", hit.Normal, rl.Vector3{X: -1}, 1e-6)
	expectVec(t, "point", hit.Point, rl.Vector3{X: 4}, 1e-6)
}

func TestRaycastRotatedBox(t *testing.T) {
	scene := engine.NewScene("ray")
	obj := spawn(scene, "Diamond", rl.Vector3{X: 5}, components.Box{HalfExtents: rl.Vector3{X: 1, Y: 1, Z: 1}}, components.NewStaticRigidbody())
	obj.Transform.Rotation = rl.QuaternionFromAxisAngle(rl.Vector3{Y: 1}, math.Pi/4)
	obj.SyncTransform()

	hit, ok := Raycast(scene, rl.Vector3{}, rl.Vector3{X: 1}, 100)
	if !ok {
		t.Fatal("Expected a hit on the rotated box")
	}
	want := float32(5 - math.Sqrt2)
	if !near(hit.Distance, want, 1e-3) {
		t.Errorf("Expected distance %f, got %f", want, hit.Distance)
	}
	if hit.Normal.X >= 0 {
		t.Errorf("Expected normal facing the ray, got %v", hit.Normal)
	}
}

func TestRaycastFromInside(t *testing.T) {
	scene := engine.NewScene("ray")
	spawn(scene, "Room", rl.Vector3{}, components.Box{HalfExtents: rl.Vector3{X: 2, Y: 2, Z: 2}}, components.NewStaticRigidbody())

	hit, ok := Raycast(scene, rl.Vector3{}, rl.Vector3{Y: 1}, 100)
	if !ok {
		t.Fatal("Expected to hit the exit face")
	}
	if !near(hit.Distance, 2, 1e-5) {
		t.Errorf("Expected distance 2, got %f", hit.Distance)
	}
	expectVec(t, "normal", hit.Normal, rl.Vector3{Y: 1}, 1e-5)
}

func TestRaycastSkipsSensorsAndUsesBoundsForOtherShapes(t *testing.T) {
	scene := engine.NewScene("ray")
	trigger := spawn(scene, "Trigger", rl.Vector3{X: 2}, nil, components.NewStaticRigidbody())
	col := components.NewCollider(components.Sphere{Radius: 1})
	col.IsSensor = true
	trigger.AddComponent(col)
	pillar := spawn(scene, "Pillar", rl.Vector3{X: 6}, components.Cylinder{Radius: 1, HalfHeight: 2}, components.NewStaticRigidbody())

	hit, ok := Raycast(scene, rl.Vector3{}, rl.Vector3{X: 1}, 100)
	if !ok || hit.GameObject != pillar {
		t.Fatalf("Expected to hit Pillar, got %v", hit.GameObject)
	}
	if !near(hit.Distance, 5, 1e-5) {
		t.Errorf("Expected distance 5 to the cylinder bounds, got %f", hit.Distance)
	}
}

func TestRaycastZeroDirection(t *testing.T) {
	scene := engine.NewScene("ray")
	spawn(scene, "Ball", rl.Vector3{}, components.Sphere{Radius: 1}, components.NewStaticRigidbody())
	if _, ok := Raycast(scene, rl.Vector3{}, rl.Vector3{}, 100); ok {
		t.Error("Expected no hit for a zero direction")
	}
}
