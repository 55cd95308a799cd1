package memutils

// Validatable is anything that can check its own bookkeeping for consistency. Every allocation
// strategy is Validatable, which lets DebugValidate run their checks on each entry point in
// debug builds.
type Validatable interface {
	Validate() error
}
