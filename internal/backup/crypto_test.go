package backup

import (
	"bytes"
	"testing"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	plaintext := []byte("audit rows and basket snapshot")

	encrypted, err := Encrypt(plaintext, "passphrase")
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	if bytes.Contains(encrypted, plaintext) {
		t.Error("ciphertext contains plaintext")
	}

	decrypted, err := Decrypt(encrypted, "passphrase")
	if err != nil {
		t.Fatalf("decrypt: %v", err)
	}
	if !bytes.Equal(decrypted, plaintext) {
		t.Errorf("round trip mismatch: %q", decrypted)
	}
}

func TestDecryptWrongPassphrase(t *testing.T) {
	encrypted, err := Encrypt([]byte("secret"), "right")
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	if _, err := Decrypt(encrypted, "wrong"); err == nil {
		t.Fatal("expected decryption failure")
	}
}

func TestDecryptTruncated(t *testing.T) {
	if _, err := Decrypt([]byte("short"), "p"); err != errCiphertextTooShort {
		t.Fatalf("err = %v, want errCiphertextTooShort", err)
	}
}

func TestEncryptUniqueSalts(t *testing.T) {
	a, _ := Encrypt([]byte("x"), "p")
	b, _ := Encrypt([]byte("x"), "p")
	if bytes.Equal(a[:saltSize], b[:saltSize]) {
		t.Error("salts should differ between encryptions")
	}
}
