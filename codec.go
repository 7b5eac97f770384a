package stash

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// codec serializes and deserializes the store root, optionally encrypting
// the serialized payload at rest.
//
// Key derivation is a single SHA-256 of the passphrase: no salt, no
// iteration, one deterministic key per passphrase. That is the store's
// accepted security posture for local at-rest data.
type codec struct {
	key    []byte // 32-byte AES-256 key, nil when encryption is disabled
	pretty bool
}

func newCodec(passphrase []byte, pretty bool) *codec {
	c := &codec{pretty: pretty}
	if len(passphrase) > 0 {
		sum := sha256.Sum256(passphrase)
		c.key = sum[:]
		// Pretty JSON is not representable inside ciphertext boundaries;
		// the option is ignored while encryption is active.
		c.pretty = false
	}
	return c
}

// Encode serializes v to the on-disk representation.
func (c *codec) Encode(v any) ([]byte, error) {
	var plain []byte
	var err error
	if c.pretty {
		plain, err = json.MarshalIndent(v, "", "\t")
	} else {
		plain, err = json.Marshal(v)
	}
	if err != nil {
		return nil, fmt.Errorf("marshal store: %w", err)
	}
	if c.key == nil {
		return plain, nil
	}
	return c.encrypt(plain)
}

// Decode parses on-disk content into a root mapping. migrated reports that
// the content was legacy plaintext JSON read under an encryption key; the
// caller is responsible for re-writing it in the encrypted format.
func (c *codec) Decode(data []byte) (root map[string]any, migrated bool, err error) {
	if c.key != nil && len(data) > 0 && data[0] == '{' {
		// Plaintext left over from before encryption was enabled.
		root, err = unmarshalRoot(data)
		return root, err == nil, err
	}

	plain := data
	if c.key != nil {
		plain, err = c.decrypt(data)
		if err != nil {
			return nil, false, err
		}
	}
	root, err = unmarshalRoot(plain)
	return root, false, err
}

func unmarshalRoot(data []byte) (map[string]any, error) {
	var root map[string]any
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("unmarshal store: %w", err)
	}
	return root, nil
}

// encrypt produces <ivHex>:<cipherHex> with a fresh random IV per call.
func (c *codec) encrypt(plain []byte) ([]byte, error) {
	block, err := aes.NewCipher(c.key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}

	iv := make([]byte, aes.BlockSize)
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return nil, fmt.Errorf("read initialization vector: %w", err)
	}

	padded := pkcs7Pad(plain, aes.BlockSize)
	ciphertext := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ciphertext, padded)

	return []byte(hex.EncodeToString(iv) + ":" + hex.EncodeToString(ciphertext)), nil
}

func (c *codec) decrypt(data []byte) ([]byte, error) {
	parts := strings.Split(string(data), ":")
	if len(parts) < 2 {
		return nil, fmt.Errorf("%w: missing delimiter", ErrMalformedPayload)
	}
	// Hex alphabets cannot produce the delimiter byte, but the contract is
	// "everything after the first colon is ciphertext".
	ivHex, cipherHex := parts[0], strings.Join(parts[1:], ":")

	iv, err := hex.DecodeString(ivHex)
	if err != nil {
		return nil, fmt.Errorf("%w: decode initialization vector: %v", ErrMalformedPayload, err)
	}
	if len(iv) != aes.BlockSize {
		return nil, fmt.Errorf("%w: initialization vector must be %d bytes", ErrMalformedPayload, aes.BlockSize)
	}

	ciphertext, err := hex.DecodeString(cipherHex)
	if err != nil {
		return nil, fmt.Errorf("%w: decode ciphertext: %v", ErrMalformedPayload, err)
	}
	if len(ciphertext) == 0 || len(ciphertext)%aes.BlockSize != 0 {
		return nil, fmt.Errorf("%w: ciphertext is not block aligned", ErrMalformedPayload)
	}

	block, err := aes.NewCipher(c.key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}

	plain := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plain, ciphertext)

	return pkcs7Unpad(plain, aes.BlockSize)
}

func pkcs7Pad(data []byte, size int) []byte {
	n := size - len(data)%size
	out := make([]byte, len(data)+n)
	copy(out, data)
	for i := len(data); i < len(out); i++ {
		out[i] = byte(n)
	}
	return out
}

func pkcs7Unpad(data []byte, size int) ([]byte, error) {
	if len(data) == 0 || len(data)%size != 0 {
		return nil, fmt.Errorf("%w: bad payload length", ErrDecryptFailed)
	}
	n := int(data[len(data)-1])
	if n == 0 || n > size {
		return nil, fmt.Errorf("%w: bad padding", ErrDecryptFailed)
	}
	for _, b := range data[len(data)-n:] {
		if int(b) != n {
			return nil, fmt.Errorf("%w: bad padding", ErrDecryptFailed)
		}
	}
	return data[:len(data)-n], nil
}
