package command

import "fmt"

// Registry is an ordered set of uniquely named descriptors.
type Registry struct {
	descs []Descriptor
}

// NewRegistry registers descs in order and fails on the first invalid one.
func NewRegistry(descs ...Descriptor) (*Registry, error) {
	r := &Registry{descs: make([]Descriptor, 0, len(descs))}
	for _, d := range descs {
		if err := r.Register(d); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register appends d. Names must be non-empty and unique.
func (r *Registry) Register(d Descriptor) error {
	name := d.Name()
	if name == "" {
		return ErrEmptyName
	}
	if _, ok := r.Find(name); ok {
		return fmt.Errorf("%w: %s", ErrDuplicate, name)
	}
	r.descs = append(r.descs, d)
	return nil
}

// Find returns the first descriptor whose name equals name exactly.
func (r *Registry) Find(name string) (Descriptor, bool) {
	for _, d := range r.descs {
		if d.Name() == name {
			return d, true
		}
	}
	return nil, false
}

// Names lists registered command names in registration order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.descs))
	for _, d := range r.descs {
		names = append(names, d.Name())
	}
	return names
}
