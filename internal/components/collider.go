package components

import (
	"rigid3d/internal/engine"

	rl "github.com/gen2brain/raylib-go/raylib"
)

func init() {
	engine.RegisterComponent("Collider", func() engine.Serializable {
		return NewDefaultCollider()
	})
}

// Collider attaches a convex shape to a GameObject. Sensors take no part in
// pair generation.
type Collider struct {
	engine.BaseComponent
	Shape    Shape
	Offset   rl.Vector3 // in the owner's local frame
	IsSensor bool
}

func NewCollider(shape Shape) *Collider {
	return &Collider{Shape: shape}
}

// NewDefaultCollider returns a sphere of radius 0.5.
func NewDefaultCollider() *Collider {
	return NewCollider(Sphere{Radius: 0.5})
}

// WorldMatrix returns the owner's GlobalTransform with Offset applied in
// local space.
func (c *Collider) WorldMatrix() rl.Matrix {
	g := c.GetGameObject()
	if g == nil {
		return rl.MatrixIdentity()
	}
	m := g.GlobalTransform
	if c.Offset == (rl.Vector3{}) {
		return m
	}
	p := rl.Vector3Transform(c.Offset, m)
	m.M12, m.M13, m.M14 = p.X, p.Y, p.Z
	return m
}

// TypeName implements engine.Serializable
func (c *Collider) TypeName() string {
	return "Collider"
}

// Serialize implements engine.Serializable
func (c *Collider) Serialize() map[string]any {
	data := map[string]any{
		"type":     "Collider",
		"offset":   vec3List(c.Offset),
		"isSensor": c.IsSensor,
	}
	switch s := c.Shape.(type) {
	case Sphere:
		data["shape"] = ShapeSphere.String()
		data["radius"] = s.Radius
	case Box:
		data["shape"] = ShapeBox.String()
		data["halfExtents"] = vec3List(s.HalfExtents)
	case Capsule:
		data["shape"] = ShapeCapsule.String()
		data["radius"] = s.Radius
		data["halfHeight"] = s.HalfHeight
	case Cylinder:
		data["shape"] = ShapeCylinder.String()
		data["radius"] = s.Radius
		data["halfHeight"] = s.HalfHeight
	case ConvexHull:
		data["shape"] = ShapeConvexHull.String()
		points := make([][]float32, len(s.Points))
		for i, p := range s.Points {
			points[i] = vec3List(p)
		}
		data["points"] = points
	}
	return data
}

// Deserialize implements engine.Serializable
func (c *Collider) Deserialize(data map[string]any) {
	if v, ok := vec3Prop(data, "offset"); ok {
		c.Offset = v
	}
	if b, ok := boolProp(data, "isSensor"); ok {
		c.IsSensor = b
	}

	kind, _ := stringProp(data, "shape")
	radius, ok := floatProp(data, "radius")
	if !ok {
		radius = 0.5
	}
	halfHeight, ok := floatProp(data, "halfHeight")
	if !ok {
		halfHeight = 0.5
	}
	switch kind {
	case "sphere":
		c.Shape = Sphere{Radius: radius}
	case "box":
		he, ok := vec3Prop(data, "halfExtents")
		if !ok {
			he = rl.Vector3{X: 0.5, Y: 0.5, Z: 0.5}
		}
		c.Shape = Box{HalfExtents: he}
	case "capsule":
		c.Shape = Capsule{Radius: radius, HalfHeight: halfHeight}
	case "cylinder":
		c.Shape = Cylinder{Radius: radius, HalfHeight: halfHeight}
	case "hull":
		c.Shape = ConvexHull{Points: pointsProp(data["points"])}
	}
}

func pointsProp(v any) []rl.Vector3 {
	var points []rl.Vector3
	switch list := v.(type) {
	case []any:
		for _, e := range list {
			if p, ok := toVec3(e); ok {
				points = append(points, p)
			}
		}
	case [][]float32:
		for _, e := range list {
			if p, ok := toVec3(e); ok {
				points = append(points, p)
			}
		}
	}
	return points
}
