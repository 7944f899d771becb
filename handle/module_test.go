package handle

import (
	"errors"
	"testing"

	storageerrors "github.com/wippyai/storage-host/errors"
)

func TestPostInit_MissingCanonicalType(t *testing.T) {
	rt := NewRuntime(Config{})
	if err := Init(rt); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	if err := PostInit(rt); !errors.Is(err, storageerrors.ErrNotInitialized) {
		t.Fatalf("PostInit error = %v, want not initialized", err)
	}
}

func TestPostInit_RejectsNonStorageEntry(t *testing.T) {
	rt := NewRuntime(Config{})
	if err := Init(rt); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	rt.Define(CanonicalTypeName, "not a type")

	if err := PostInit(rt); !errors.Is(err, storageerrors.ErrNotInitialized) {
		t.Fatalf("PostInit error = %v, want not initialized", err)
	}
}

func TestPostInit_CustomCanonicalType(t *testing.T) {
	rt := NewRuntime(Config{})
	if err := Init(rt); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	custom, err := RegisterSubtype(rt, TypeSpec{Name: "PinnedStorage"})
	if err != nil {
		t.Fatalf("RegisterSubtype failed: %v", err)
	}
	rt.Define(CanonicalTypeName, custom)

	if err := PostInit(rt); err != nil {
		t.Fatalf("PostInit failed: %v", err)
	}
	if rt.CanonicalType() != custom {
		t.Fatal("post-init did not resolve the custom canonical type")
	}

	obj, err := Wrap(rt, newTestCore(t, 4))
	if err != nil {
		t.Fatalf("Wrap failed: %v", err)
	}
	defer obj.Release()
	if obj.Type() != custom {
		t.Fatalf("wrap target = %s, want PinnedStorage", obj.Type().Name())
	}
}

func TestRegistrar_InstallsTeardown(t *testing.T) {
	rt := newTestRuntime(t)

	v, ok := rt.Lookup(MetaName)
	if !ok {
		t.Fatal("registrar missing from namespace")
	}
	register, ok := v.(Registrar)
	if !ok {
		t.Fatalf("namespace entry %s has type %T, want Registrar", MetaName, v)
	}

	finalized := false
	typ, err := register(TypeSpec{
		Name:      "AuditedStorage",
		Finalizer: func(*Object) { finalized = true },
	})
	if err != nil {
		t.Fatalf("registrar failed: %v", err)
	}

	obj, err := NewStorage(rt, typ, WithSize(4))
	if err != nil {
		t.Fatalf("NewStorage failed: %v", err)
	}
	obj.Release()

	if !finalized {
		t.Fatal("teardown protocol did not run the finalizer")
	}
}
