package handle

import (
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

var tagCounter atomic.Uint64

// Config configures a Runtime.
type Config struct {
	// Hermetic disables cross-boundary identity sharing: every wrap allocates
	// a fresh handle and identity slots are never touched. Used for isolated
	// execution where handles must not leak between contexts.
	Hermetic bool

	// Logger overrides the package logger for this runtime.
	Logger *zap.Logger
}

// Runtime is the managed object runtime that host handles belong to. It plays
// the role of an interpreter: it owns the type namespace, the GC bookkeeping,
// and the identity tag that marks slots as ours.
//
// A Runtime is NOT thread-safe. All handle and lifecycle operations must run
// on a single goroutine, or access must be synchronized externally; this is
// the interpreter-lock exclusivity the identity protocols rely on. Core
// reference counts stay atomic so cores themselves may be shared with worker
// goroutines. Observer subscription alone is safe for concurrent use.
type Runtime struct {
	hermetic  bool
	tag       uint64
	log       *zap.Logger
	baseType  *Type
	canonical *Type
	namespace map[string]any
	tracked   map[*Object]struct{}
	observers []Observer
	obsMu     sync.RWMutex
}

// NewRuntime creates a runtime. Call Init to install the storage types and
// PostInit to resolve the canonical wrap target before using Wrap.
func NewRuntime(cfg Config) *Runtime {
	log := cfg.Logger
	if log == nil {
		log = Logger()
	}
	return &Runtime{
		hermetic:  cfg.Hermetic,
		tag:       tagCounter.Add(1),
		log:       log,
		namespace: make(map[string]any),
		tracked:   make(map[*Object]struct{}),
	}
}

// Hermetic reports whether identity sharing is disabled.
func (rt *Runtime) Hermetic() bool { return rt.hermetic }

// Tag returns the runtime's identity tag. Identity slots tagged with it
// belong to this runtime.
func (rt *Runtime) Tag() uint64 { return rt.tag }

// BaseType returns the non-instantiable storage base type, nil before Init.
func (rt *Runtime) BaseType() *Type { return rt.baseType }

// CanonicalType returns the default wrap target, nil before PostInit.
func (rt *Runtime) CanonicalType() *Type { return rt.canonical }

// Define publishes a value into the runtime namespace.
func (rt *Runtime) Define(name string, v any) {
	rt.namespace[name] = v
}

// Lookup resolves a name from the runtime namespace.
func (rt *Runtime) Lookup(name string) (any, bool) {
	v, ok := rt.namespace[name]
	return v, ok
}

// Subscribe adds an observer for handle lifecycle events.
func (rt *Runtime) Subscribe(o Observer) {
	rt.obsMu.Lock()
	defer rt.obsMu.Unlock()
	rt.observers = append(rt.observers, o)
}

// Unsubscribe removes an observer.
func (rt *Runtime) Unsubscribe(o Observer) {
	rt.obsMu.Lock()
	defer rt.obsMu.Unlock()
	for i, obs := range rt.observers {
		if obs == o {
			rt.observers = append(rt.observers[:i], rt.observers[i+1:]...)
			return
		}
	}
}

// TrackedCount returns the number of objects currently under GC bookkeeping.
func (rt *Runtime) TrackedCount() int { return len(rt.tracked) }

func (rt *Runtime) track(o *Object) {
	rt.tracked[o] = struct{}{}
	o.tracked = true
}

func (rt *Runtime) untrack(o *Object) {
	delete(rt.tracked, o)
	o.tracked = false
}

func (rt *Runtime) notify(e Event) {
	rt.obsMu.RLock()
	defer rt.obsMu.RUnlock()
	for _, o := range rt.observers {
		o.OnHandleEvent(e)
	}
}
