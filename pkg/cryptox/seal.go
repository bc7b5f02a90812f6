package cryptox

import (
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"
	"os"
	"sync"

	"golang.org/x/crypto/chacha20poly1305"
)

var (
	sealKeyOnce sync.Once
	sealKey     []byte
	sealKeyPath string
)

// SetSealKeyPath configures where to load the sealing key from. Must be
// called before the first Seal/Open operation to take effect.
func SetSealKeyPath(path string) {
	sealKeyPath = path
}

// loadSealKey derives a 32-byte key from either the configured key file,
// the OFFER_SEAL_KEY environment variable, or (development only) a random
// ephemeral key that does not survive a restart.
func loadSealKey() ([]byte, error) {
	var keyMaterial []byte

	switch {
	case sealKeyPath != "":
		data, err := os.ReadFile(sealKeyPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read seal key file: %w", err)
		}
		keyMaterial = data
	case os.Getenv("OFFER_SEAL_KEY") != "":
		keyMaterial = []byte(os.Getenv("OFFER_SEAL_KEY"))
	default:
		keyMaterial = make([]byte, 32)
		if _, err := rand.Read(keyMaterial); err != nil {
			return nil, fmt.Errorf("failed to generate ephemeral seal key: %w", err)
		}
	}

	hash := sha256.Sum256(keyMaterial)
	return hash[:], nil
}

func getSealKey() ([]byte, error) {
	var err error
	sealKeyOnce.Do(func() {
		sealKey, err = loadSealKey()
	})
	if err != nil {
		return nil, err
	}
	return sealKey, nil
}

// Seal encrypts plaintext with XChaCha20-Poly1305 under the process seal
// key. Output format: [24-byte nonce][ciphertext][16-byte auth tag].
func Seal(plaintext []byte) ([]byte, error) {
	key, err := getSealKey()
	if err != nil {
		return nil, fmt.Errorf("failed to get seal key: %w", err)
	}

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	return aead.Seal(nonce, nonce, plaintext, nil), nil
}

// Open decrypts data produced by Seal.
func Open(sealed []byte) ([]byte, error) {
	key, err := getSealKey()
	if err != nil {
		return nil, fmt.Errorf("failed to get seal key: %w", err)
	}

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	if len(sealed) < aead.NonceSize() {
		return nil, fmt.Errorf("sealed data too short")
	}

	nonce, ciphertext := sealed[:aead.NonceSize()], sealed[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("decryption failed: %w", err)
	}

	return plaintext, nil
}

// ResetSealKeyForTesting resets the seal key singleton. Tests only.
func ResetSealKeyForTesting() {
	sealKeyOnce = sync.Once{}
	sealKey = nil
}
