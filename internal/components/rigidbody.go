package components

import (
	"fmt"
	"strings"

	"rigid3d/internal/engine"

	rl "github.com/gen2brain/raylib-go/raylib"
)

func init() {
	engine.RegisterComponent("Rigidbody", func() engine.Serializable {
		return NewRigidbody()
	})
}

// Sleep thresholds
const (
	LinearSleepThreshold  = 0.1  // units/sec
	AngularSleepThreshold = 0.05 // rad/sec
	SleepTimeThreshold    = 1.0  // seconds below both thresholds before sleeping
)

type BodyType int

const (
	Dynamic BodyType = iota
	Static
	Kinematic
)

func (t BodyType) String() string {
	switch t {
	case Dynamic:
		return "dynamic"
	case Static:
		return "static"
	case Kinematic:
		return "kinematic"
	}
	return fmt.Sprintf("BodyType(%d)", int(t))
}

func ParseBodyType(s string) (BodyType, error) {
	switch strings.ToLower(s) {
	case "dynamic":
		return Dynamic, nil
	case "static":
		return Static, nil
	case "kinematic":
		return Kinematic, nil
	}
	return Dynamic, fmt.Errorf("unknown body type %q", s)
}

type Rigidbody struct {
	engine.BaseComponent
	BodyType          BodyType
	Mass              float32
	Inertia           rl.Vector3 // diagonal of the inertia tensor
	LinearVelocity    rl.Vector3
	AngularVelocity   rl.Vector3 // radians per second
	ForceAccumulator  rl.Vector3
	TorqueAccumulator rl.Vector3
	LinearDamping     float32 // fraction of velocity removed per substep, [0,1)
	AngularDamping    float32
	Restitution       float32 // 0 = no bounce, 1 = perfect bounce
	Friction          float32
	GravityScale      float32

	// Sleep state - sleeping bodies skip integration and solving
	IsSleeping bool
	sleepTimer float32
	CanSleep   bool
}

// NewRigidbody is the registry default: a unit-mass dynamic body.
func NewRigidbody() *Rigidbody {
	return NewDynamicRigidbody(1)
}

func NewDynamicRigidbody(mass float32) *Rigidbody {
	return &Rigidbody{
		BodyType:       Dynamic,
		Mass:           mass,
		Inertia:        rl.Vector3{X: mass, Y: mass, Z: mass},
		LinearDamping:  0.01,
		AngularDamping: 0.01,
		Restitution:    0.3,
		Friction:       0.5,
		GravityScale:   1,
		CanSleep:       true,
	}
}

func NewStaticRigidbody() *Rigidbody {
	return &Rigidbody{
		BodyType:    Static,
		Restitution: 0.3,
		Friction:    0.5,
		CanSleep:    true,
	}
}

func NewKinematicRigidbody() *Rigidbody {
	rb := NewStaticRigidbody()
	rb.BodyType = Kinematic
	return rb
}

// IsDynamic reports whether the solver and integrator may move this body.
func (r *Rigidbody) IsDynamic() bool {
	return r.BodyType == Dynamic && r.Mass > 0
}

func (r *Rigidbody) InverseMass() float32 {
	if !r.IsDynamic() {
		return 0
	}
	return 1 / r.Mass
}

func (r *Rigidbody) InverseInertia() rl.Vector3 {
	if r.BodyType != Dynamic {
		return rl.Vector3{}
	}
	return rl.Vector3{X: invOrZero(r.Inertia.X), Y: invOrZero(r.Inertia.Y), Z: invOrZero(r.Inertia.Z)}
}

func invOrZero(v float32) float32 {
	if v > 0 {
		return 1 / v
	}
	return 0
}

func (r *Rigidbody) ApplyForce(f rl.Vector3) {
	r.ForceAccumulator = rl.Vector3Add(r.ForceAccumulator, f)
	r.Wake()
}

func (r *Rigidbody) ApplyTorque(t rl.Vector3) {
	r.TorqueAccumulator = rl.Vector3Add(r.TorqueAccumulator, t)
	r.Wake()
}

// ApplyImpulse changes linear velocity immediately.
func (r *Rigidbody) ApplyImpulse(j rl.Vector3) {
	r.LinearVelocity = rl.Vector3Add(r.LinearVelocity, rl.Vector3Scale(j, r.InverseMass()))
	r.Wake()
}

func (r *Rigidbody) ClearForces() {
	r.ForceAccumulator = rl.Vector3{}
	r.TorqueAccumulator = rl.Vector3{}
}

// Wake forces the rigidbody out of sleep state
func (r *Rigidbody) Wake() {
	r.IsSleeping = false
	r.sleepTimer = 0
}

// UpdateSleep advances the sleep timer for dynamic bodies.
func (r *Rigidbody) UpdateSleep(dt float32) {
	if r.BodyType != Dynamic || !r.CanSleep {
		return
	}

	speed := rl.Vector3Length(r.LinearVelocity)
	angSpeed := rl.Vector3Length(r.AngularVelocity)

	if speed < LinearSleepThreshold && angSpeed < AngularSleepThreshold {
		r.sleepTimer += dt
		if r.sleepTimer >= SleepTimeThreshold {
			r.IsSleeping = true
			r.LinearVelocity = rl.Vector3{}
			r.AngularVelocity = rl.Vector3{}
		}
	} else {
		r.sleepTimer = 0
		r.IsSleeping = false
	}
}

// TypeName implements engine.Serializable
func (r *Rigidbody) TypeName() string {
	return "Rigidbody"
}

// Serialize implements engine.Serializable
func (r *Rigidbody) Serialize() map[string]any {
	return map[string]any{
		"type":            "Rigidbody",
		"bodyType":        r.BodyType.String(),
		"mass":            r.Mass,
		"inertia":         vec3List(r.Inertia),
		"linearVelocity":  vec3List(r.LinearVelocity),
		"angularVelocity": vec3List(r.AngularVelocity),
		"linearDamping":   r.LinearDamping,
		"angularDamping":  r.AngularDamping,
		"restitution":     r.Restitution,
		"friction":        r.Friction,
		"gravityScale":    r.GravityScale,
		"canSleep":        r.CanSleep,
	}
}

// Deserialize implements engine.Serializable. A bodyType other than dynamic
// resets the body to that type's defaults before the remaining keys apply.
func (r *Rigidbody) Deserialize(data map[string]any) {
	if s, ok := stringProp(data, "bodyType"); ok {
		if bt, err := ParseBodyType(s); err == nil && bt != r.BodyType {
			var fresh *Rigidbody
			switch bt {
			case Static:
				fresh = NewStaticRigidbody()
			case Kinematic:
				fresh = NewKinematicRigidbody()
			default:
				fresh = NewDynamicRigidbody(1)
			}
			fresh.BaseComponent = r.BaseComponent
			*r = *fresh
		}
	}
	if m, ok := floatProp(data, "mass"); ok {
		r.Mass = m
		r.Inertia = rl.Vector3{X: m, Y: m, Z: m}
	}
	if v, ok := vec3Prop(data, "inertia"); ok {
		r.Inertia = v
	}
	if v, ok := vec3Prop(data, "linearVelocity"); ok {
		r.LinearVelocity = v
	}
	if v, ok := vec3Prop(data, "angularVelocity"); ok {
		r.AngularVelocity = v
	}
	if f, ok := floatProp(data, "linearDamping"); ok {
		r.LinearDamping = f
	}
	if f, ok := floatProp(data, "angularDamping"); ok {
		r.AngularDamping = f
	}
	if f, ok := floatProp(data, "restitution"); ok {
		r.Restitution = f
	}
	if f, ok := floatProp(data, "friction"); ok {
		r.Friction = f
	}
	if f, ok := floatProp(data, "gravityScale"); ok {
		r.GravityScale = f
	}
	if b, ok := boolProp(data, "canSleep"); ok {
		r.CanSleep = b
	}
}
