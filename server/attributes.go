package server

// Attributes bundles what a scheduler needs to know about its server:
// the resource pool and the availability schedule. The server id is set
// when the server is registered with a simulation.
type Attributes struct {
	serverID int
	pool     ResourcePool
	avail    Availability
}

// NewAttributes creates attributes for the given pool and availability.
func NewAttributes(pool ResourcePool, avail Availability) *Attributes {
	return &Attributes{serverID: -1, pool: pool, avail: avail}
}

// ServerID returns the id of the owning server entity.
func (a *Attributes) ServerID() int {
	return a.serverID
}

func (a *Attributes) setServerID(id int) {
	a.serverID = id
}

// ResourcePool returns the server's resource pool.
func (a *Attributes) ResourcePool() ResourcePool {
	return a.pool
}

// Availability returns the server's availability schedule.
func (a *Attributes) Availability() Availability {
	return a.avail
}
