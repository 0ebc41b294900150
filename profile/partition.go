package profile

// PartitionPredicate decides whether a work item can be scheduled in a
// given resource partition. The item is opaque to the profile; schedulers
// supply predicates closing over their own job types.
type PartitionPredicate func(item interface{}) bool

// ResourcePartition describes one partition of a partitioned resource:
// its id, the number of resources initially assigned to it and the
// predicate selecting the work it accepts.
type ResourcePartition struct {
	id        int
	numRes    int
	predicate PartitionPredicate
}

// NewResourcePartition creates a partition with the given id, initial
// number of resources and admission predicate.
func NewResourcePartition(id, numRes int, predicate PartitionPredicate) *ResourcePartition {
	return &ResourcePartition{id: id, numRes: numRes, predicate: predicate}
}

// ID returns the partition id.
func (p *ResourcePartition) ID() int {
	return p.id
}

// InitialNumResources returns the number of resources initially assigned
// to the partition.
func (p *ResourcePartition) InitialNumResources() int {
	return p.numRes
}

// Predicate returns the partition's admission predicate.
func (p *ResourcePartition) Predicate() PartitionPredicate {
	return p.predicate
}
