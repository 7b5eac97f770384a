package stash

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestPersistor_WriteCreatesParentDirs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "store.json")
	p := newPersistor(path, newCodec(nil, false))

	if err := p.Write(map[string]any{"k": "v"}); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("expected file to exist: %v", err)
	}
	if string(data) != `{"k":"v"}` {
		t.Errorf("unexpected file content: %q", data)
	}
}

func TestPersistor_WriteReplacesContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")
	p := newPersistor(path, newCodec(nil, false))

	if err := p.Write(map[string]any{"first": true, "extra": "long value to outlast the second write"}); err != nil {
		t.Fatalf("first Write failed: %v", err)
	}
	if err := p.Write(map[string]any{"second": true}); err != nil {
		t.Fatalf("second Write failed: %v", err)
	}

	root, err := p.Read()
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if !reflect.DeepEqual(root, map[string]any{"second": true}) {
		t.Errorf("expected full replacement, got %v", root)
	}
}

func TestPersistor_ReadEmptyFileFatal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")
	if err := os.WriteFile(path, nil, 0o600); err != nil {
		t.Fatalf("setup failed: %v", err)
	}

	p := newPersistor(path, newCodec(nil, false))
	_, err := p.Read()
	if !errors.Is(err, ErrEmptyFile) {
		t.Errorf("expected ErrEmptyFile, got %v", err)
	}
}

func TestPersistor_ReadMissingFile(t *testing.T) {
	p := newPersistor(filepath.Join(t.TempDir(), "missing.json"), newCodec(nil, false))

	if _, err := p.Read(); err == nil {
		t.Error("expected error reading missing file")
	}
}

func TestPersistor_LegacyMigrationSelfHeals(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")
	if err := os.WriteFile(path, []byte(`{"legacy":"value"}`), 0o600); err != nil {
		t.Fatalf("setup failed: %v", err)
	}

	p := newPersistor(path, newCodec([]byte("passphrase"), false))
	root, err := p.Read()
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if root["legacy"] != "value" {
		t.Errorf("expected legacy value, got %v", root["legacy"])
	}

	// The file on disk is now encrypted.
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back failed: %v", err)
	}
	if !encryptedFormat.Match(data) {
		t.Errorf("expected encrypted file after migration, got %q", data)
	}

	// An independent read with the same passphrase reproduces the value.
	fresh := newPersistor(path, newCodec([]byte("passphrase"), false))
	again, err := fresh.Read()
	if err != nil {
		t.Fatalf("fresh Read failed: %v", err)
	}
	if !reflect.DeepEqual(again, root) {
		t.Errorf("expected %v after migration, got %v", root, again)
	}
}

func TestPersistor_ModTime(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")
	p := newPersistor(path, newCodec(nil, false))

	if _, err := p.ModTime(); err == nil {
		t.Error("expected error for missing file")
	}

	if err := p.Write(map[string]any{}); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	mt, err := p.ModTime()
	if err != nil {
		t.Fatalf("ModTime failed: %v", err)
	}
	if mt.IsZero() {
		t.Error("expected non-zero modification time")
	}
}

func TestPersistor_EmptyStoreIsValidMapping(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")
	p := newPersistor(path, newCodec(nil, false))

	if err := p.Write(map[string]any{}); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back failed: %v", err)
	}
	if string(data) != "{}" {
		t.Errorf("expected empty store to serialize as {}, got %q", data)
	}

	root, err := p.Read()
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if len(root) != 0 {
		t.Errorf("expected empty root, got %v", root)
	}
}
