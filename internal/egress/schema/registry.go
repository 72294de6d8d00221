// Package schema provides a minimal in-process stand-in for a live
// schema registry: it fixes the set of subject names this module is
// allowed to publish, registered once at startup, and rejects any
// publish attempt for a subject nobody registered.
package schema

import "fmt"

// Registry tracks which subjects have been registered at startup. It is
// not a wire-format schema validator; it exists so a publish attempt for
// an unregistered event variant fails loudly instead of silently
// reaching the broker under a name nothing downstream expects.
type Registry struct {
	subjects map[string]struct{}
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{subjects: make(map[string]struct{})}
}

// Register adds subject to the known set. Startup fails (via the
// returned error, surfaced by the caller as a kind-6 startup error) if
// the same subject is registered twice.
func (r *Registry) Register(subject string) error {
	if _, exists := r.subjects[subject]; exists {
		return fmt.Errorf("schema: subject %q already registered", subject)
	}
	r.subjects[subject] = struct{}{}
	return nil
}

// MustRegister registers every subject or panics; used at startup where a
// duplicate registration is a programming error, not a runtime one.
func (r *Registry) MustRegister(subjects ...string) {
	for _, s := range subjects {
		if err := r.Register(s); err != nil {
			panic(err)
		}
	}
}

// Known reports whether subject was registered.
func (r *Registry) Known(subject string) bool {
	_, ok := r.subjects[subject]
	return ok
}
