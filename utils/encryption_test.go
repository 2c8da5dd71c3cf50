package utils

import (
	"testing"
)

func setTestKey(t *testing.T) {
	t.Helper()
	if err := SetEncryptionKey("0123456789abcdef0123456789abcdef"); err != nil {
		t.Fatalf("Failed to set test key: %v", err)
	}
}

func TestEncryptDecrypt(t *testing.T) {
	setTestKey(t)

	original := "test-user-api-key-12345"

	encrypted, err := Encrypt(original)
	if err != nil {
		t.Fatalf("Failed to encrypt: %v", err)
	}

	if encrypted == original {
		t.Fatal("Encrypted text should be different from original")
	}

	decrypted, err := Decrypt(encrypted)
	if err != nil {
		t.Fatalf("Failed to decrypt: %v", err)
	}

	if decrypted != original {
		t.Fatalf("Decrypted text doesn't match original: got %s, want %s", decrypted, original)
	}
}

func TestEncryptProducesDifferentCiphertext(t *testing.T) {
	setTestKey(t)

	original := "same-text"

	encrypted1, err := Encrypt(original)
	if err != nil {
		t.Fatalf("Failed to encrypt: %v", err)
	}

	encrypted2, err := Encrypt(original)
	if err != nil {
		t.Fatalf("Failed to encrypt: %v", err)
	}

	if encrypted1 == encrypted2 {
		t.Fatal("Same text should produce different ciphertext (due to random IV)")
	}
}

func TestDecryptInvalidData(t *testing.T) {
	setTestKey(t)

	_, err := Decrypt("invalid-hex-data")
	if err == nil {
		t.Fatal("Should fail with invalid hex data")
	}
}

func TestDecryptTampered(t *testing.T) {
	setTestKey(t)

	encrypted, err := Encrypt("credential")
	if err != nil {
		t.Fatalf("Failed to encrypt: %v", err)
	}

	tampered := []byte(encrypted)
	if tampered[len(tampered)-1] == 'a' {
		tampered[len(tampered)-1] = 'b'
	} else {
		tampered[len(tampered)-1] = 'a'
	}

	if _, err := Decrypt(string(tampered)); err == nil {
		t.Fatal("Should fail on tampered ciphertext")
	}
}

func TestSetEncryptionKeyRejectsBadLength(t *testing.T) {
	if err := SetEncryptionKey("too-short"); err == nil {
		t.Fatal("Should reject keys that are not 32 bytes")
	}
}

func TestEncryptWithoutKey(t *testing.T) {
	saved := encryptionKey
	encryptionKey = nil
	defer func() { encryptionKey = saved }()

	if _, err := Encrypt("anything"); err == nil {
		t.Fatal("Should fail when no key is loaded")
	}
	if _, err := Decrypt("deadbeef"); err == nil {
		t.Fatal("Should fail when no key is loaded")
	}
}
