// Package gpg provides GPG signature verification for pipeline definitions.
package gpg

import (
	"fmt"
	"io"
	"os"

	"github.com/ProtonMail/go-crypto/openpgp"
)

// Verifier checks detached signatures over pipeline files using
// ProtonMail's go-crypto, a maintained, modern fork of
// golang.org/x/crypto/openpgp. Trust roots come from a local keyring
// file only; a runner must not fetch keys from the network at run time.
type Verifier struct {
	keyring openpgp.EntityList
}

// NewVerifier creates a new GPG verifier with an empty keyring
func NewVerifier() *Verifier {
	return &Verifier{
		keyring: make(openpgp.EntityList, 0),
	}
}

// ImportKeyringFile imports armored public keys from a local file
func (v *Verifier) ImportKeyringFile(keyringPath string) error {
	//nolint:gosec // G304: keyringPath is user-provided trust material
	f, err := os.Open(keyringPath)
	if err != nil {
		return fmt.Errorf("failed to open keyring file: %w", err)
	}
	//nolint:errcheck // Defer close on read-only file
	defer f.Close()

	entities, err := openpgp.ReadArmoredKeyRing(f)
	if err != nil {
		return fmt.Errorf("failed to read keyring: %w", err)
	}
	if len(entities) == 0 {
		return fmt.Errorf("no keys found in %s", keyringPath)
	}

	v.keyring = append(v.keyring, entities...)
	return nil
}

// VerifyFile verifies a detached signature over a pipeline file and
// returns the fingerprint of the signing key.
func (v *Verifier) VerifyFile(filePath, sigPath string) (string, error) {
	if len(v.keyring) == 0 {
		return "", fmt.Errorf("no GPG keys imported, call ImportKeyringFile first")
	}

	//nolint:gosec // G304: sigPath is user-provided for verification
	sigFile, err := os.Open(sigPath)
	if err != nil {
		return "", fmt.Errorf("failed to open signature file: %w", err)
	}
	//nolint:errcheck // Defer close on read-only file
	defer sigFile.Close()

	//nolint:gosec // G304: filePath is user-provided for verification
	dataFile, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to open pipeline file: %w", err)
	}
	//nolint:errcheck // Defer close on read-only file
	defer dataFile.Close()

	isArmored, err := peekArmored(sigFile)
	if err != nil {
		return "", err
	}

	var signer *openpgp.Entity
	if isArmored {
		signer, err = openpgp.CheckArmoredDetachedSignature(v.keyring, dataFile, sigFile, nil)
	} else {
		signer, err = openpgp.CheckDetachedSignature(v.keyring, dataFile, sigFile, nil)
	}
	if err != nil {
		return "", fmt.Errorf("signature verification failed: %w", err)
	}

	return fmt.Sprintf("%X", signer.PrimaryKey.Fingerprint), nil
}

// KeyringSize returns the number of keys in the keyring
func (v *Verifier) KeyringSize() int {
	return len(v.keyring)
}

// peekArmored checks for an armored signature header, then rewinds.
func peekArmored(sigFile io.ReadSeeker) (bool, error) {
	peekBuf := make([]byte, 27)
	n, _ := io.ReadFull(sigFile, peekBuf)
	isArmored := n == 27 && string(peekBuf[:27]) == "-----BEGIN PGP SIGNATURE---"

	if _, err := sigFile.Seek(0, io.SeekStart); err != nil {
		return false, fmt.Errorf("failed to reset signature file: %w", err)
	}

	return isArmored, nil
}
