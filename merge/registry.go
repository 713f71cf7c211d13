package merge

// Factory produces a fresh Dataset. Factories rather than instances are
// registered so that date-relative logic inside a dataset definition (the
// population-year snapshot, for one) is re-evaluated on every load.
type Factory func() *Dataset

// Registry is an ordered, append-only collection of dataset factories and
// global post-processing functions. Registration order defines merge order
// and processing order. It replaces the import-time producer registration of
// earlier revisions with an explicit object owned by the loader.
type Registry struct {
	factories  []Factory
	processors []Processor
}

func NewRegistry() *Registry { return &Registry{} }

// Register appends a dataset factory. Call during setup, before Load.
func (r *Registry) Register(f Factory) {
	r.factories = append(r.factories, f)
}

// RegisterProcessor appends fn to the global post-processing chain applied
// after every dataset has been folded in.
func (r *Registry) RegisterProcessor(fn Processor) {
	r.processors = append(r.processors, fn)
}

// All invokes every registered factory fresh and returns the descriptors in
// registration order.
func (r *Registry) All() []*Dataset {
	out := make([]*Dataset, len(r.factories))
	for i, f := range r.factories {
		out[i] = f()
	}
	return out
}

// Processors returns the registered post-processing chain in order.
func (r *Registry) Processors() []Processor {
	return append([]Processor(nil), r.processors...)
}
