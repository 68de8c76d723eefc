package plugins

import (
	"sort"

	"github.com/ContractForgeEVM/contractforge/internal/model"
)

// Detector inspects a compiled model for one vulnerability pattern.
type Detector interface {
	ID() string
	Description() string
	Run(m *model.ContractModel) ([]model.RawResult, error)
}

// Source resolves detector implementations by catalog id.
type Source interface {
	Lookup(id string) (Detector, bool)
}

// Registry is a capability map; a detector becomes available by registering its id.
type Registry struct{ detectors map[string]Detector }

func NewRegistry() *Registry { return &Registry{detectors: map[string]Detector{}} }

func (r *Registry) Register(d Detector) { r.detectors[d.ID()] = d }

func (r *Registry) RegisterBuiltin() {
	r.Register(&reentrancyEth{})
	r.Register(&reentrancyNoEth{})
	r.Register(&controlledDelegatecall{})
	r.Register(&delegatecallLoop{})
	r.Register(&arbitrarySendEth{})
	r.Register(&uncheckedLowLevel{})
	r.Register(&uncheckedSend{})
	r.Register(&uncheckedTransfer{})
	r.Register(&txOrigin{})
	r.Register(&weakPRNG{})
	r.Register(&suicidal{})
	r.Register(&incorrectEquality{})
	r.Register(&uninitializedState{})
}

// Builtin returns a registry holding every in-tree detector.
func Builtin() *Registry {
	r := NewRegistry()
	r.RegisterBuiltin()
	return r
}

func (r *Registry) Lookup(id string) (Detector, bool) {
	d, ok := r.detectors[id]
	return d, ok
}

// IDs lists registered ids in lexical order.
func (r *Registry) IDs() []string {
	out := make([]string, 0, len(r.detectors))
	for id := range r.detectors {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
