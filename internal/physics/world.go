package physics

import (
	"fmt"
	"log"
	"sort"
	"time"

	"rigid3d/internal/components"
	"rigid3d/internal/compute"
	"rigid3d/internal/engine"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// CollisionEvent describes a pair that started or stopped touching. A is
// the body with the lower UID.
type CollisionEvent struct {
	A, B        *engine.GameObject
	Normal      rl.Vector3 // from A to B
	Penetration float32
	Point       rl.Vector3
}

// Stats describes the most recent Step or StepGPU call.
type Stats struct {
	LastSubsteps  int
	PairCount     int // broadphase pairs in the last substep
	ContactCount  int // manifolds in the last substep
	DynamicCount  int
	SleepingCount int
	UsingGPU      bool
	Solver        SolverStats
}

// PhysicsWorld owns the fixed-timestep accumulator and runs the substep
// pipeline over a scene. It is not safe for concurrent or reentrant use.
type PhysicsWorld struct {
	Config Config

	OnCollisionEnter engine.EventWithArg[CollisionEvent]
	OnCollisionExit  engine.EventWithArg[CollisionEvent]
	OnSubstep        engine.Event // after each fixed substep, events included

	accumulator float64
	broadphase  Broadphase
	cache       *ContactCache
	manifolds   []ContactManifold
	active      map[Pair]CollisionEvent // pairs touching after the last substep
	stats       Stats

	// GPU provider (nil until InitGPU succeeds)
	gpu         gpuBackend
	useGPU      bool      // whether the last substep ran on the GPU
	lastLogTime time.Time // rate-limits per-substep GPU logs
}

func New(cfg Config) *PhysicsWorld {
	cfg = cfg.withDefaults()
	return &PhysicsWorld{
		Config:     cfg,
		broadphase: NewBroadphase(cfg.Broadphase),
		cache:      NewContactCache(),
		active:     make(map[Pair]CollisionEvent),
	}
}

// withDefaults replaces unusable values with their defaults so a zero
// Config still steps.
func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.FixedTimestep <= 0 {
		c.FixedTimestep = def.FixedTimestep
	}
	if c.MaxSubsteps < 1 {
		c.MaxSubsteps = def.MaxSubsteps
	}
	if c.SolverIterations < 0 {
		c.SolverIterations = def.SolverIterations
	}
	if c.GPUThreshold <= 0 {
		c.GPUThreshold = def.GPUThreshold
	}
	if c.MaxGPUPairs <= 0 {
		c.MaxGPUPairs = def.MaxGPUPairs
	}
	if c.Broadphase == "" {
		c.Broadphase = def.Broadphase
	}
	return c
}

// InitGPU brings up the compute device and the GPU physics kernels. Call once
// before StepGPU; without it StepGPU runs the CPU providers.
func (w *PhysicsWorld) InitGPU(capacity int) error {
	if w.gpu != nil {
		return nil
	}
	info, err := compute.Initialize()
	if err != nil {
		return fmt.Errorf("failed to initialize compute: %w", err)
	}
	p, err := compute.NewPhysics(capacity, w.Config.MaxGPUPairs)
	if err != nil {
		return fmt.Errorf("failed to create GPU physics: %w", err)
	}
	w.gpu = p
	log.Printf("Physics: GPU broadphase ready on %s (threshold: %d bodies, max pairs: %d)",
		info, w.Config.GPUThreshold, w.Config.MaxGPUPairs)
	return nil
}

// GPUReady reports whether InitGPU has succeeded.
func (w *PhysicsWorld) GPUReady() bool {
	return w.gpu != nil
}

// Release frees GPU resources
func (w *PhysicsWorld) Release() {
	if w.gpu != nil {
		w.gpu.Release()
		w.gpu = nil
	}
}

// Step advances the scene by dt seconds of simulated time in fixed
// substeps and returns how many substeps ran. Excess time beyond
// MaxSubsteps worth is discarded.
func (w *PhysicsWorld) Step(scene *engine.Scene, dt float64) int {
	return w.advance(scene, dt, false)
}

// StepGPU is Step with broadphase and narrowphase offloaded to the GPU once
// the scene has at least GPUThreshold colliders.
func (w *PhysicsWorld) StepGPU(scene *engine.Scene, dt float64) int {
	return w.advance(scene, dt, true)
}

func (w *PhysicsWorld) advance(scene *engine.Scene, dt float64, allowGPU bool) int {
	w.accumulator += dt

	fixed := w.Config.FixedTimestep
	n := 0
	for w.accumulator >= fixed && n < w.Config.MaxSubsteps {
		w.substep(scene, float32(fixed), allowGPU)
		w.accumulator -= fixed
		n++
	}

	// Drop the backlog instead of spiralling into catch-up
	if w.accumulator > fixed*float64(w.Config.MaxSubsteps) {
		w.accumulator = 0
	}
	w.stats.LastSubsteps = n
	return n
}

func (w *PhysicsWorld) substep(scene *engine.Scene, dt float32, allowGPU bool) {
	set := Gather(scene)

	ApplyGravity(set, w.Config.Gravity)
	IntegrateVelocities(set, dt)

	// Transforms may have been edited between steps; proxies read GlobalTransform.
	SyncTransforms(set)
	proxies := set.Proxies()

	var manifolds []ContactManifold
	onGPU := false
	if allowGPU && w.gpu != nil && len(proxies) >= w.Config.GPUThreshold {
		m, pairCount, err := w.detectGPU(set, proxies)
		if err != nil {
			if w.shouldLog() {
				log.Printf("Physics: GPU collision detection failed, using CPU: %v", err)
			}
		} else {
			manifolds = m
			w.stats.PairCount = pairCount
			onGPU = true
		}
	}
	w.setGPUActive(onGPU, len(proxies))

	if !onGPU {
		pairs := w.broadphase.FindPairs(proxies)
		w.stats.PairCount = len(pairs)
		manifolds = narrowphase(set, pairs)
	}
	sortManifolds(manifolds)

	WakeTouching(set, manifolds, w.cache)
	w.cache.WarmStart(manifolds)
	w.stats.Solver = SolveContacts(manifolds, set, w.Config.SolverIterations, dt)
	w.cache.Update(manifolds)

	IntegratePositions(set, dt)
	SyncTransforms(set)
	ClearForces(set)
	UpdateSleepStates(set, dt)

	w.dispatchCollisionEvents(set, manifolds)
	w.manifolds = manifolds
	w.updateCounts(set)
	w.OnSubstep.Invoke()
}

// shouldLog allows one GPU diagnostic line per second.
func (w *PhysicsWorld) shouldLog() bool {
	if time.Since(w.lastLogTime) < time.Second {
		return false
	}
	w.lastLogTime = time.Now()
	return true
}

// setGPUActive logs when the GPU path switches on or off.
func (w *PhysicsWorld) setGPUActive(on bool, bodies int) {
	if on && !w.useGPU {
		log.Printf("Physics: GPU collision detection ON (%d bodies)", bodies)
	} else if !on && w.useGPU {
		log.Printf("Physics: GPU collision detection OFF (%d bodies)", bodies)
	}
	w.useGPU = on
	w.stats.UsingGPU = on
}

func (w *PhysicsWorld) updateCounts(set *BodySet) {
	w.stats.ContactCount = len(w.manifolds)
	w.stats.DynamicCount = 0
	w.stats.SleepingCount = 0
	for _, b := range set.Bodies {
		if !b.Rigidbody.IsDynamic() {
			continue
		}
		w.stats.DynamicCount++
		if b.Rigidbody.IsSleeping {
			w.stats.SleepingCount++
		}
	}
}

// narrowphase runs DetectCollision on each candidate pair. Pairs whose
// bodies or colliders have gone missing are skipped.
func narrowphase(set *BodySet, pairs []Pair) []ContactManifold {
	var manifolds []ContactManifold
	for _, p := range pairs {
		a, okA := set.Get(p.A)
		b, okB := set.Get(p.B)
		if !okA || !okB || a.Collider == nil || b.Collider == nil {
			continue
		}
		if a.Collider.Shape == nil || b.Collider.Shape == nil {
			continue
		}
		info, hit := DetectCollision(a.Collider.Shape, a.Collider.WorldMatrix(), b.Collider.Shape, b.Collider.WorldMatrix())
		if hit {
			manifolds = append(manifolds, newManifold(p.A, p.B, info))
		}
	}
	return manifolds
}

func sortManifolds(m []ContactManifold) {
	sort.Slice(m, func(i, j int) bool {
		if m[i].Pair.A != m[j].Pair.A {
			return m[i].Pair.A < m[j].Pair.A
		}
		return m[i].Pair.B < m[j].Pair.B
	})
}

// dispatchCollisionEvents fires enter for new pairs and exit for pairs
// that stopped touching, on the world events and on CollisionHandler
// components of both objects.
func (w *PhysicsWorld) dispatchCollisionEvents(set *BodySet, manifolds []ContactManifold) {
	current := make(map[Pair]CollisionEvent, len(manifolds))
	for _, m := range manifolds {
		a, okA := set.Get(m.Pair.A)
		b, okB := set.Get(m.Pair.B)
		if !okA || !okB {
			continue
		}
		ev := CollisionEvent{A: a.Object, B: b.Object, Normal: m.Normal}
		if len(m.Contacts) > 0 {
			ev.Penetration = m.Contacts[0].Penetration
			ev.Point = m.Contacts[0].Position
		}
		current[m.Pair] = ev

		if _, was := w.active[m.Pair]; !was {
			w.OnCollisionEnter.Invoke(ev)
			notifyCollisionEnter(ev.A, ev.B)
			notifyCollisionEnter(ev.B, ev.A)
		}
	}

	var ended []Pair
	for p := range w.active {
		if _, still := current[p]; !still {
			ended = append(ended, p)
		}
	}
	sortPairs(ended)
	for _, p := range ended {
		ev := w.active[p]
		w.OnCollisionExit.Invoke(ev)
		notifyCollisionExit(ev.A, ev.B)
		notifyCollisionExit(ev.B, ev.A)
	}

	w.active = current
}

// notifyCollisionEnter calls OnCollisionEnter on all handlers in obj
func notifyCollisionEnter(obj, other *engine.GameObject) {
	for _, comp := range obj.Components() {
		if handler, ok := comp.(engine.CollisionHandler); ok {
			handler.OnCollisionEnter(other)
		}
	}
}

// notifyCollisionExit calls OnCollisionExit on all handlers in obj
func notifyCollisionExit(obj, other *engine.GameObject) {
	for _, comp := range obj.Components() {
		if handler, ok := comp.(engine.CollisionHandler); ok {
			handler.OnCollisionExit(other)
		}
	}
}

// Stats returns counters from the most recent step.
func (w *PhysicsWorld) Stats() Stats {
	return w.stats
}

// UsingGPU returns true if the last substep ran on the GPU
func (w *PhysicsWorld) UsingGPU() bool {
	return w.useGPU
}

// Manifolds returns the contacts solved in the last substep.
func (w *PhysicsWorld) Manifolds() []ContactManifold {
	return w.manifolds
}

// CachedPairs returns how many pairs the contact cache holds.
func (w *PhysicsWorld) CachedPairs() int {
	return w.cache.Len()
}

// Touching reports whether two objects were in contact after the last substep.
func (w *PhysicsWorld) Touching(a, b *engine.GameObject) bool {
	_, ok := w.active[makePair(a.UID, b.UID)]
	return ok
}

// Reset clears the accumulator, the contact cache and collision state.
// Bodies are left as they are.
func (w *PhysicsWorld) Reset() {
	w.accumulator = 0
	w.cache.Clear()
	w.manifolds = nil
	w.active = make(map[Pair]CollisionEvent)
	w.stats = Stats{}
}

// bodyTypeCode maps body types onto the GPU encoding.
func bodyTypeCode(t components.BodyType) uint32 {
	switch t {
	case components.Static:
		return compute.BodyStatic
	case components.Kinematic:
		return compute.BodyKinematic
	}
	return compute.BodyDynamic
}
