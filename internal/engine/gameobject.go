package engine

import (
	"sync/atomic"

	rl "github.com/gen2brain/raylib-go/raylib"
)

var nextUID atomic.Uint64

// Transform is the local pose written by the integrator.
type Transform struct {
	Position rl.Vector3
	Rotation rl.Quaternion
	Scale    rl.Vector3
}

// NewTransform returns an identity transform placed at position.
func NewTransform(position rl.Vector3) Transform {
	return Transform{
		Position: position,
		Rotation: rl.QuaternionIdentity(),
		Scale:    rl.Vector3{X: 1, Y: 1, Z: 1},
	}
}

// Matrix builds the world matrix for t: rotation columns scaled per axis, translation in M12..M14.
// QuaternionToMatrix lays the rotation out row-major for Vector3Transform, so it is transposed here.
func (t Transform) Matrix() rl.Matrix {
	m := rl.MatrixTranspose(rl.QuaternionToMatrix(rl.QuaternionNormalize(t.Rotation)))
	m.M0, m.M1, m.M2 = m.M0*t.Scale.X, m.M1*t.Scale.X, m.M2*t.Scale.X
	m.M4, m.M5, m.M6 = m.M4*t.Scale.Y, m.M5*t.Scale.Y, m.M6*t.Scale.Y
	m.M8, m.M9, m.M10 = m.M8*t.Scale.Z, m.M9*t.Scale.Z, m.M10*t.Scale.Z
	m.M12, m.M13, m.M14 = t.Position.X, t.Position.Y, t.Position.Z
	m.M3, m.M7, m.M11, m.M15 = 0, 0, 0, 1
	return m
}

type GameObject struct {
	UID             uint64
	Name            string
	Tags            []string
	Transform       Transform
	GlobalTransform rl.Matrix
	Active          bool
	Scene           *Scene
	components      []Component
	started         bool
}

func NewGameObject(name string) *GameObject {
	g := &GameObject{
		UID:        nextUID.Add(1),
		Name:       name,
		Active:     true,
		Transform:  NewTransform(rl.Vector3{}),
		components: make([]Component, 0),
	}
	g.SyncTransform()
	return g
}

// SyncTransform recomputes GlobalTransform from the current Transform.
func (g *GameObject) SyncTransform() {
	g.GlobalTransform = g.Transform.Matrix()
}

func (g *GameObject) AddComponent(c Component) {
	c.SetGameObject(g)
	g.components = append(g.components, c)
}

// RemoveComponent detaches c. Reports whether it was attached.
func (g *GameObject) RemoveComponent(c Component) bool {
	for i, existing := range g.components {
		if existing == c {
			g.components = append(g.components[:i], g.components[i+1:]...)
			c.SetGameObject(nil)
			return true
		}
	}
	return false
}

// GetComponent returns the first component of type T, or the zero value.
func GetComponent[T Component](g *GameObject) T {
	var zero T
	for _, c := range g.components {
		if typed, ok := c.(T); ok {
			return typed
		}
	}
	return zero
}

func (g *GameObject) Start() {
	if g.started {
		return
	}
	for _, c := range g.components {
		c.Start()
	}
	g.started = true
}

func (g *GameObject) Update(deltaTime float32) {
	if !g.Active {
		return
	}
	for _, c := range g.components {
		c.Update(deltaTime)
	}
}

func (g *GameObject) Components() []Component {
	return g.components
}

func (g *GameObject) HasTag(tag string) bool {
	for _, t := range g.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// WorldPosition reads the translation from GlobalTransform.
func (g *GameObject) WorldPosition() rl.Vector3 {
	return rl.Vector3{X: g.GlobalTransform.M12, Y: g.GlobalTransform.M13, Z: g.GlobalTransform.M14}
}
