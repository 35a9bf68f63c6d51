package transform

import "sync"

// Registry holds the live workflows keyed by session ID.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Workflow
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Workflow)}
}

func (r *Registry) Put(id string, w *Workflow) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[id] = w
}

func (r *Registry) Get(id string) (*Workflow, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	w, ok := r.sessions[id]
	return w, ok
}

func (r *Registry) Delete(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}
