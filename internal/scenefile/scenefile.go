// Package scenefile reads and writes simulation scenes. Scenes are YAML;
// JSON scenes load too since the YAML decoder accepts them.
package scenefile

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "rigid3d/internal/components" // registers Rigidbody and Collider
	"rigid3d/internal/engine"

	rl "github.com/gen2brain/raylib-go/raylib"
	"gopkg.in/yaml.v3"
)

// --- File types ---

type File struct {
	Name    string      `yaml:"name,omitempty"`
	Objects []ObjectDef `yaml:"objects"`
}

// ObjectDef is one GameObject. Rotation is Euler degrees (pitch, yaw, roll)
// and is ignored when Quaternion is set. Quaternions are stored as given;
// Transform.Matrix normalizes. Scale defaults to (1,1,1).
type ObjectDef struct {
	Name       string           `yaml:"name"`
	Tags       []string         `yaml:"tags,omitempty"`
	Position   [3]float32       `yaml:"position"`
	Rotation   *[3]float32      `yaml:"rotation,omitempty"`
	Quaternion *[4]float32      `yaml:"quaternion,omitempty"`
	Scale      *[3]float32      `yaml:"scale,omitempty"`
	Components []map[string]any `yaml:"components,omitempty"`
}

// --- Loading ---

// Load reads and builds the scene at path. The scene takes the file's name
// field, or the file's base name without extension.
func Load(path string) (*engine.Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scene: %w", err)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse scene %s: %w", path, err)
	}
	if f.Name == "" {
		f.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return Build(f)
}

func Parse(data []byte) (File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return File{}, err
	}
	return f, nil
}

// Build creates a scene from f. Components are created through the engine
// registry; an unknown type fails the whole build.
func Build(f File) (*engine.Scene, error) {
	scene := engine.NewScene(f.Name)
	for i, def := range f.Objects {
		obj, err := buildObject(def)
		if err != nil {
			name := def.Name
			if name == "" {
				name = fmt.Sprintf("#%d", i)
			}
			return nil, fmt.Errorf("object %s: %w", name, err)
		}
		scene.AddGameObject(obj)
	}
	return scene, nil
}

func buildObject(def ObjectDef) (*engine.GameObject, error) {
	g := engine.NewGameObject(def.Name)
	g.Tags = def.Tags
	g.Transform.Position = vec3(def.Position)

	switch {
	case def.Quaternion != nil:
		q := def.Quaternion
		g.Transform.Rotation = rl.Quaternion{X: q[0], Y: q[1], Z: q[2], W: q[3]}
	case def.Rotation != nil:
		r := def.Rotation
		g.Transform.Rotation = rl.QuaternionFromEuler(r[0]*rl.Deg2rad, r[1]*rl.Deg2rad, r[2]*rl.Deg2rad)
	}
	if def.Scale != nil {
		g.Transform.Scale = vec3(*def.Scale)
	}

	for _, data := range def.Components {
		typeName, _ := data["type"].(string)
		if typeName == "" {
			return nil, fmt.Errorf("component without a type")
		}
		c, err := engine.CreateComponent(typeName, data)
		if err != nil {
			return nil, err
		}
		g.AddComponent(c)
	}

	g.SyncTransform()
	return g, nil
}

// --- Saving ---

// Encode captures every object in scene along with its serializable
// components. Other components are left out.
func Encode(scene *engine.Scene) File {
	f := File{Name: scene.Name}
	for _, g := range scene.GameObjects {
		q := g.Transform.Rotation
		s := g.Transform.Scale
		def := ObjectDef{
			Name:       g.Name,
			Tags:       g.Tags,
			Position:   [3]float32{g.Transform.Position.X, g.Transform.Position.Y, g.Transform.Position.Z},
			Quaternion: &[4]float32{q.X, q.Y, q.Z, q.W},
			Scale:      &[3]float32{s.X, s.Y, s.Z},
		}
		for _, c := range g.Components() {
			if sc, ok := c.(engine.Serializable); ok {
				def.Components = append(def.Components, sc.Serialize())
			}
		}
		f.Objects = append(f.Objects, def)
	}
	return f
}

func Save(path string, scene *engine.Scene) error {
	data, err := yaml.Marshal(Encode(scene))
	if err != nil {
		return fmt.Errorf("failed to encode scene: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write scene: %w", err)
	}
	return nil
}

func vec3(v [3]float32) rl.Vector3 {
	return rl.Vector3{X: v[0], Y: v[1], Z: v[2]}
}
