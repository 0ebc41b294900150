package sim

// Entity is a participant in a simulation. Entities are registered with
// a Simulation before the run starts; the kernel assigns ids and invokes
// the lifecycle hooks. Process calls are run-to-completion steps; an
// entity must not block.
type Entity interface {
	// ID returns the id assigned at registration.
	ID() int
	// Name returns the entity's name.
	Name() string
	// Enabled reports whether the entity still receives events.
	Enabled() bool
	// OnStart runs once before the first tick.
	OnStart()
	// Process handles one delivered event.
	Process(ev *Event)
	// OnShutdown runs once after the last tick.
	OnShutdown()

	attach(sim *Simulation, id int)
}

// EntityBase carries the bookkeeping shared by all entities and provides
// the send helpers. Concrete entities embed it and implement Process.
type EntityBase struct {
	id      int
	name    string
	sim     *Simulation
	enabled bool
}

// NewEntityBase creates the base for an entity with the given name. The
// id is assigned when the entity is registered with a simulation.
func NewEntityBase(name string) EntityBase {
	return EntityBase{id: -1, name: name}
}

func (b *EntityBase) attach(sim *Simulation, id int) {
	b.sim = sim
	b.id = id
	b.enabled = true
}

// ID returns the id assigned at registration, or -1 before that.
func (b *EntityBase) ID() int {
	return b.id
}

// Name returns the entity's name.
func (b *EntityBase) Name() string {
	return b.name
}

// Enabled reports whether the entity still receives events.
func (b *EntityBase) Enabled() bool {
	return b.enabled
}

// SetEnabled enables or disables event delivery to the entity.
func (b *EntityBase) SetEnabled(enabled bool) {
	b.enabled = enabled
}

// Sim returns the simulation the entity is registered with.
func (b *EntityBase) Sim() *Simulation {
	return b.sim
}

// CurrentTime returns the simulation's current virtual time.
func (b *EntityBase) CurrentTime() int64 {
	return b.sim.Clock().Time()
}

// Send schedules an event from this entity to dst after delay time units.
func (b *EntityBase) Send(dst int, delay int64, etype EventType, content interface{}) {
	b.sim.Send(b.id, dst, delay, etype, content)
}

// SendNow schedules an event for the next tick.
func (b *EntityBase) SendNow(dst int, etype EventType, content interface{}) {
	b.sim.Send(b.id, dst, SendNow, etype, content)
}

// SendSelf schedules an event from this entity to itself.
func (b *EntityBase) SendSelf(delay int64, etype EventType, content interface{}) {
	b.sim.Send(b.id, b.id, delay, etype, content)
}

// OnStart is a no-op by default.
func (b *EntityBase) OnStart() {}

// OnShutdown is a no-op by default.
func (b *EntityBase) OnShutdown() {}
