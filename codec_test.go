package stash

import (
	"bytes"
	"errors"
	"reflect"
	"regexp"
	"testing"
)

var encryptedFormat = regexp.MustCompile(`^[0-9a-f]{32}:[0-9a-f]+$`)

func TestCodec_PlainRoundTrip(t *testing.T) {
	c := newCodec(nil, false)

	data, err := c.Encode(map[string]any{"name": "ada", "count": float64(3)})
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	root, migrated, err := c.Decode(data)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if migrated {
		t.Error("expected no migration for plain codec")
	}
	if root["name"] != "ada" {
		t.Errorf("expected name 'ada', got %v", root["name"])
	}
	if root["count"] != float64(3) {
		t.Errorf("expected count 3, got %v", root["count"])
	}
}

func TestCodec_PrettyOutput(t *testing.T) {
	c := newCodec(nil, true)

	data, err := c.Encode(map[string]any{"a": float64(1)})
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	if !bytes.Contains(data, []byte("\n\t")) {
		t.Errorf("expected tab-indented output, got %q", data)
	}

	root, _, err := c.Decode(data)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if root["a"] != float64(1) {
		t.Errorf("expected a=1, got %v", root["a"])
	}
}

func TestCodec_EncryptedRoundTrip(t *testing.T) {
	c := newCodec([]byte("passphrase"), false)
	value := map[string]any{"secret": "value", "nested": map[string]any{"n": float64(7)}}

	data, err := c.Encode(value)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	root, migrated, err := c.Decode(data)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if migrated {
		t.Error("expected no migration for encrypted payload")
	}
	if !reflect.DeepEqual(root, value) {
		t.Errorf("expected %v, got %v", value, root)
	}
}

func TestCodec_EncryptedFormat(t *testing.T) {
	c := newCodec([]byte("passphrase"), false)

	data, err := c.Encode(map[string]any{"a": float64(1)})
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	if !encryptedFormat.Match(data) {
		t.Errorf("expected <ivHex>:<cipherHex> format, got %q", data)
	}
}

func TestCodec_PrettyIgnoredWhenEncrypted(t *testing.T) {
	c := newCodec([]byte("passphrase"), true)

	data, err := c.Encode(map[string]any{"a": float64(1)})
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	if !encryptedFormat.Match(data) {
		t.Errorf("expected encrypted format despite pretty option, got %q", data)
	}
}

func TestCodec_EncryptionNondeterministic(t *testing.T) {
	c := newCodec([]byte("passphrase"), false)
	value := map[string]any{"a": float64(1)}

	first, err := c.Encode(value)
	if err != nil {
		t.Fatalf("first Encode failed: %v", err)
	}
	second, err := c.Encode(value)
	if err != nil {
		t.Fatalf("second Encode failed: %v", err)
	}

	if bytes.Equal(first, second) {
		t.Error("expected different ciphertext for repeated encryption")
	}

	firstRoot, _, err := c.Decode(first)
	if err != nil {
		t.Fatalf("Decode first failed: %v", err)
	}
	secondRoot, _, err := c.Decode(second)
	if err != nil {
		t.Fatalf("Decode second failed: %v", err)
	}
	if !reflect.DeepEqual(firstRoot, secondRoot) {
		t.Errorf("expected identical plaintext, got %v and %v", firstRoot, secondRoot)
	}
}

func TestCodec_WrongPassphrase(t *testing.T) {
	data, err := newCodec([]byte("correct"), false).Encode(map[string]any{"a": float64(1)})
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	if _, _, err := newCodec([]byte("wrong"), false).Decode(data); err == nil {
		t.Error("expected error decoding with wrong passphrase")
	}
}

func TestCodec_LegacyPlaintextDetected(t *testing.T) {
	c := newCodec([]byte("passphrase"), false)

	root, migrated, err := c.Decode([]byte(`{"legacy": true}`))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if !migrated {
		t.Error("expected plaintext payload to be flagged for migration")
	}
	if root["legacy"] != true {
		t.Errorf("expected legacy=true, got %v", root["legacy"])
	}
}

func TestCodec_MalformedMissingDelimiter(t *testing.T) {
	c := newCodec([]byte("passphrase"), false)

	_, _, err := c.Decode([]byte("deadbeef"))
	if !errors.Is(err, ErrMalformedPayload) {
		t.Errorf("expected ErrMalformedPayload, got %v", err)
	}
}

func TestCodec_MalformedBadHex(t *testing.T) {
	c := newCodec([]byte("passphrase"), false)

	_, _, err := c.Decode([]byte("nothex:deadbeef"))
	if !errors.Is(err, ErrMalformedPayload) {
		t.Errorf("expected ErrMalformedPayload, got %v", err)
	}
}

func TestCodec_MalformedShortIV(t *testing.T) {
	c := newCodec([]byte("passphrase"), false)

	_, _, err := c.Decode([]byte("deadbeef:deadbeefdeadbeefdeadbeefdeadbeef"))
	if !errors.Is(err, ErrMalformedPayload) {
		t.Errorf("expected ErrMalformedPayload, got %v", err)
	}
}

func TestCodec_MalformedUnalignedCiphertext(t *testing.T) {
	c := newCodec([]byte("passphrase"), false)

	iv := "00000000000000000000000000000000"
	_, _, err := c.Decode([]byte(iv + ":deadbeef"))
	if !errors.Is(err, ErrMalformedPayload) {
		t.Errorf("expected ErrMalformedPayload, got %v", err)
	}
}

func TestCodec_InvalidJSONAfterDecode(t *testing.T) {
	c := newCodec(nil, false)

	if _, _, err := c.Decode([]byte("not json")); err == nil {
		t.Error("expected error for invalid JSON")
	}
}

func TestCodec_NonObjectRootRejected(t *testing.T) {
	c := newCodec(nil, false)

	if _, _, err := c.Decode([]byte(`[1, 2, 3]`)); err == nil {
		t.Error("expected error for non-object root")
	}
}
