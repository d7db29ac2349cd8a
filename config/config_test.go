package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "signer.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestLoadValidConfig(t *testing.T) {
	path := writeConfig(t, `
parameter_set: SHA2_10_256
state_path: /var/lib/signer/state.json
identifier: node-a
lock_timeout: 10s
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ParameterSet != "SHA2_10_256" {
		t.Fatalf("ParameterSet = %q, want SHA2_10_256", cfg.ParameterSet)
	}
	if cfg.Identifier != "node-a" {
		t.Fatalf("Identifier = %q, want node-a", cfg.Identifier)
	}
	if cfg.LockTimeout.Duration().Seconds() != 10 {
		t.Fatalf("LockTimeout = %v, want 10s", cfg.LockTimeout.Duration())
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
parameter_set: SHAKE_16_256
state_path: state.json
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Identifier != "default" {
		t.Fatalf("Identifier = %q, want default", cfg.Identifier)
	}
	if cfg.LockTimeout.Duration().Seconds() != 5 {
		t.Fatalf("LockTimeout = %v, want 5s default", cfg.LockTimeout.Duration())
	}
}

func TestLoadRejectsUnknownParameterSet(t *testing.T) {
	path := writeConfig(t, `
parameter_set: NOT_A_REAL_SET
state_path: state.json
`)
	if _, err := Load(path); err == nil {
		t.Fatal("Load should have rejected an unknown parameter set")
	}
}

func TestLoadRejectsMissingStatePath(t *testing.T) {
	path := writeConfig(t, `
parameter_set: SHA2_10_256
`)
	if _, err := Load(path); err == nil {
		t.Fatal("Load should have rejected a missing state_path")
	}
}

func TestLoadExpandsEnvironmentVariables(t *testing.T) {
	t.Setenv("SIGNER_IDENTIFIER", "env-node")
	path := writeConfig(t, `
parameter_set: SHA2_10_256
state_path: state.json
identifier: ${SIGNER_IDENTIFIER}
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Identifier != "env-node" {
		t.Fatalf("Identifier = %q, want env-node", cfg.Identifier)
	}
}

func TestLoadUsesDefaultForUnsetEnvironmentVariable(t *testing.T) {
	path := writeConfig(t, `
parameter_set: SHA2_10_256
state_path: state.json
identifier: ${SIGNER_IDENTIFIER_UNSET:-fallback-node}
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Identifier != "fallback-node" {
		t.Fatalf("Identifier = %q, want fallback-node", cfg.Identifier)
	}
}

func TestLoadMissingFileFails(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("Load should fail for a missing file")
	}
}
