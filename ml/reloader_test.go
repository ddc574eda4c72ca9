package ml

import (
	"testing"

	"go.uber.org/zap"
)

func TestReloaderInitialLoad(t *testing.T) {
	dir := writeTestArtifacts(t)
	reloader, err := NewReloader(dir, zap.NewNop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer reloader.Close()

	registry := reloader.Registry()
	if !registry.Loaded() {
		t.Fatal("expected registry to be loaded")
	}
	if registry.Contract().Len() != 2 {
		t.Fatalf("unexpected contract length: %d", registry.Contract().Len())
	}
}

func TestReloaderRefusesPartialArtifacts(t *testing.T) {
	if _, err := NewReloader(t.TempDir(), zap.NewNop()); err == nil {
		t.Fatal("expected error for empty artifact directory")
	}
}

func TestReloaderKeepsPreviousOnFailedReload(t *testing.T) {
	dir := writeTestArtifacts(t)
	reloader, err := NewReloader(dir, zap.NewNop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer reloader.Close()

	before := reloader.Registry()
	reloader.dir = t.TempDir() // now empty, reload must fail
	reloader.reload()

	if reloader.Registry() != before {
		t.Fatal("expected previous registry to survive a failed reload")
	}
}
