package handle

import (
	"go.uber.org/zap"

	storageerrors "github.com/wippyai/storage-host/errors"
)

// Namespace names installed by Init and resolved by PostInit.
const (
	BaseTypeName      = "StorageBase"
	MetaName          = "StorageMeta"
	CanonicalTypeName = "Storage"
)

// Registrar is the metaclass-like hook published into the namespace: the
// only way to create storage subtypes, guaranteeing the teardown protocol is
// installed on every one of them.
type Registrar func(TypeSpec) (*Type, error)

// Init installs the storage base type and its subtype registrar into the
// runtime namespace. It must run before any type registration.
func Init(rt *Runtime) error {
	if rt.baseType != nil {
		return nil
	}
	rt.baseType = newBaseType(BaseTypeName)
	rt.Define(BaseTypeName, rt.baseType)
	rt.Define(MetaName, Registrar(func(spec TypeSpec) (*Type, error) {
		return RegisterSubtype(rt, spec)
	}))
	rt.log.Debug("installed storage base type")
	return nil
}

// RegisterDefaultStorage registers the canonical storage subtype under its
// conventional name. Embedders that provide their own canonical subtype can
// skip this and Define their type as "Storage" before PostInit.
func RegisterDefaultStorage(rt *Runtime) (*Type, error) {
	t, err := RegisterSubtype(rt, TypeSpec{Name: CanonicalTypeName})
	if err != nil {
		return nil, err
	}
	rt.Define(CanonicalTypeName, t)
	return t, nil
}

// PostInit resolves the canonical subtype used as the default wrap target
// from the namespace. A missing or wrong-typed entry is a fatal startup
// failure: the runtime cannot wrap storages without it.
func PostInit(rt *Runtime) error {
	v, ok := rt.Lookup(CanonicalTypeName)
	if !ok {
		rt.log.Error("canonical storage type missing from namespace",
			zap.String("name", CanonicalTypeName))
		return storageerrors.NotInitialized("canonical storage type")
	}
	t, ok := v.(*Type)
	if !ok || !t.IsSubtypeOf(rt.baseType) {
		rt.log.Error("canonical storage entry is not a storage subtype",
			zap.String("name", CanonicalTypeName))
		return storageerrors.NotInitialized("canonical storage type")
	}
	rt.canonical = t
	return nil
}
