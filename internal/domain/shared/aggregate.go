package shared

// BaseAggregateRoot provides common fields for aggregate roots.
// Version is the optimistic concurrency token: it starts at 1 and is
// incremented once per committed state change.
type BaseAggregateRoot struct {
	BaseEntity
	Version int
}

// IncrementVersion increments the version number
func (a *BaseAggregateRoot) IncrementVersion() {
	a.Version++
}

// CheckVersion returns a CONCURRENCY_CONFLICT error when expected does not match
// the loaded version. A nil expectation always passes.
func (a *BaseAggregateRoot) CheckVersion(expected *int) error {
	if expected == nil || *expected == a.Version {
		return nil
	}
	return NewDomainError(CodeConcurrencyConflict, "Resource was modified by another process")
}

// NewBaseAggregateRoot creates a new base aggregate root
func NewBaseAggregateRoot() BaseAggregateRoot {
	return BaseAggregateRoot{
		BaseEntity: NewBaseEntity(),
		Version:    1,
	}
}
