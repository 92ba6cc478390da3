// Package security holds the process-wide secret material of the vault: the
// master-key cipher for stored secrets, the account password hasher and the
// session token service. All three are built once at startup and are safe for
// concurrent use; none of them can be re-keyed after construction.
package security

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/vaultkeeper/credvault/internal/core/domain"
)

const (
	// KeySize is the master key length (AES-256).
	KeySize = 32

	cbcIVSize    = aes.BlockSize
	gcmNonceSize = 12
	delimiter    = ":"
)

// Mode selects the cipher used by Seal. Open always accepts both.
type Mode string

const (
	ModeCBC Mode = "cbc"
	ModeGCM Mode = "gcm"
)

var (
	ErrInvalidKey  = errors.New("encryption key must be 32 bytes (64 hex characters)")
	ErrInvalidMode = errors.New("cipher mode must be cbc or gcm")
)

// CipherOptions configures a Cipher.
type CipherOptions struct {
	// Mode is the write mode; empty means ModeCBC.
	Mode Mode
	// LegacyPlaintext makes Open return its input unchanged instead of failing
	// when the input is not a sealed blob. It exists for records written before
	// encryption was enabled and weakens the at-rest guarantee: a tampered or
	// truncated blob is handed back verbatim rather than rejected.
	LegacyPlaintext bool
}

// Cipher seals single secrets as "hex(iv):hex(ciphertext)".
//
// CBC blobs use a 16-byte IV and PKCS#7 padding. GCM blobs use a 12-byte
// nonce and carry the authentication tag at the end of the ciphertext. The IV
// length tells Open which one it is looking at.
type Cipher struct {
	block           cipher.Block
	aead            cipher.AEAD
	mode            Mode
	legacyPlaintext bool
}

// ParseKey decodes a hex master key and checks its length.
func ParseKey(hexKey string) ([]byte, error) {
	key, err := hex.DecodeString(strings.TrimSpace(hexKey))
	if err != nil || len(key) != KeySize {
		return nil, ErrInvalidKey
	}
	return key, nil
}

// NewCipher builds a Cipher around a copy of key.
func NewCipher(key []byte, opts CipherOptions) (*Cipher, error) {
	if len(key) != KeySize {
		return nil, ErrInvalidKey
	}
	mode := opts.Mode
	if mode == "" {
		mode = ModeCBC
	}
	if mode != ModeCBC && mode != ModeGCM {
		return nil, ErrInvalidMode
	}

	block, err := aes.NewCipher(bytes.Clone(key))
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create GCM: %w", err)
	}

	return &Cipher{
		block:           block,
		aead:            aead,
		mode:            mode,
		legacyPlaintext: opts.LegacyPlaintext,
	}, nil
}

// Mode reports the write mode.
func (c *Cipher) Mode() Mode { return c.mode }

// LegacyPlaintext reports whether the plaintext passthrough is enabled.
func (c *Cipher) LegacyPlaintext() bool { return c.legacyPlaintext }

// Seal encrypts plaintext under a fresh random IV.
func (c *Cipher) Seal(plaintext string) (string, error) {
	if c.mode == ModeGCM {
		return c.sealGCM([]byte(plaintext))
	}
	return c.sealCBC([]byte(plaintext))
}

func (c *Cipher) sealCBC(plaintext []byte) (string, error) {
	iv := make([]byte, cbcIVSize)
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return "", fmt.Errorf("%w: generate iv: %w", domain.ErrCrypto, err)
	}

	padded := pkcs7Pad(plaintext, aes.BlockSize)
	out := make([]byte, len(padded))
	cipher.NewCBCEncrypter(c.block, iv).CryptBlocks(out, padded)

	return encode(iv, out), nil
}

func (c *Cipher) sealGCM(plaintext []byte) (string, error) {
	nonce := make([]byte, gcmNonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("%w: generate nonce: %w", domain.ErrCrypto, err)
	}
	return encode(nonce, c.aead.Seal(nil, nonce, plaintext, nil)), nil
}

// Open decrypts a blob produced by Seal. With LegacyPlaintext enabled any
// input that cannot be opened is returned unchanged and the error is dropped;
// otherwise the failure wraps domain.ErrCrypto.
func (c *Cipher) Open(sealed string) (string, error) {
	plaintext, err := c.open(sealed)
	if err != nil {
		if c.legacyPlaintext {
			return sealed, nil
		}
		return "", err
	}
	return plaintext, nil
}

func (c *Cipher) open(sealed string) (string, error) {
	ivHex, ctHex, ok := strings.Cut(sealed, delimiter)
	if !ok {
		return "", fmt.Errorf("%w: not a sealed value", domain.ErrCrypto)
	}
	iv, err := hex.DecodeString(ivHex)
	if err != nil {
		return "", fmt.Errorf("%w: decode iv: %w", domain.ErrCrypto, err)
	}
	ct, err := hex.DecodeString(ctHex)
	if err != nil {
		return "", fmt.Errorf("%w: decode ciphertext: %w", domain.ErrCrypto, err)
	}

	switch len(iv) {
	case cbcIVSize:
		return c.openCBC(iv, ct)
	case gcmNonceSize:
		plaintext, err := c.aead.Open(nil, iv, ct, nil)
		if err != nil {
			return "", fmt.Errorf("%w: %w", domain.ErrCrypto, err)
		}
		return string(plaintext), nil
	default:
		return "", fmt.Errorf("%w: unexpected iv length %d", domain.ErrCrypto, len(iv))
	}
}

func (c *Cipher) openCBC(iv, ct []byte) (string, error) {
	if len(ct) == 0 || len(ct)%aes.BlockSize != 0 {
		return "", fmt.Errorf("%w: ciphertext is not a whole number of blocks", domain.ErrCrypto)
	}
	out := make([]byte, len(ct))
	cipher.NewCBCDecrypter(c.block, iv).CryptBlocks(out, ct)

	plaintext, err := pkcs7Unpad(out, aes.BlockSize)
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}

func encode(iv, ct []byte) string {
	return hex.EncodeToString(iv) + delimiter + hex.EncodeToString(ct)
}

func pkcs7Pad(b []byte, blockSize int) []byte {
	n := blockSize - len(b)%blockSize
	return append(bytes.Clone(b), bytes.Repeat([]byte{byte(n)}, n)...)
}

func pkcs7Unpad(b []byte, blockSize int) ([]byte, error) {
	n := int(b[len(b)-1])
	if n == 0 || n > blockSize || n > len(b) {
		return nil, fmt.Errorf("%w: bad padding", domain.ErrCrypto)
	}
	for _, p := range b[len(b)-n:] {
		if int(p) != n {
			return nil, fmt.Errorf("%w: bad padding", domain.ErrCrypto)
		}
	}
	return b[:len(b)-n], nil
}
