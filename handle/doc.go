// Package handle implements the host-side object runtime for storage cores:
// handle types, reference counting, weak references, and the lifecycle
// protocols that keep exactly one host handle per core.
//
// # Identity
//
// Wrap is the sole entry point for obtaining a handle for a core. It
// consults the core's identity slot and either returns the existing handle
// (retaining it, or reclaiming it when the native side was keeping it alive)
// or allocates a fresh one and publishes it. Repeated wraps of the same core
// always return the same handle.
//
// # Teardown
//
// Subtype handles destroy themselves through a strict protocol. A dying
// handle whose core has other owners is preserved instead: ownership flips
// to the native side and the handle parks until a later Wrap reclaims it.
// Otherwise finalizer and legacy destructor hooks run, each with the right
// to resurrect the object and abort destruction, weak references are
// cleared, auxiliary slots and attributes dropped, and finally the core
// reference is released.
//
// # Types
//
// Subtypes exist only through RegisterSubtype, which installs the teardown
// protocol destructor at registration time. Init publishes the base type and
// the registrar into the runtime namespace; PostInit resolves the canonical
// subtype that Wrap targets and fails fatally when it is missing.
package handle
