package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/ochairo/cauldron/internal/external-adapters/gpg"
)

func runVerify(_ context.Context, args []string) {
	fs := flag.NewFlagSet("verify", flag.ExitOnError)
	var (
		sigPath = fs.String("sig", "", "Detached signature file (default: <pipeline-file>.asc)")
		keyring = fs.String("keyring", "", "Armored public keyring file (required)")
		quiet   = fs.Bool("quiet", false, "Only output errors (exit code indicates success/failure)")
	)

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: cauldron verify <pipeline-file> [options]

Verify a detached GPG signature over a pipeline file against a local
keyring. Keys are never fetched from the network.

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Exit Codes:
  0  Signature valid
  1  Signature invalid or signer not in keyring
  2  Usage error or system error

Examples:
  cauldron verify ci.yml --keyring trusted-keys.asc
  cauldron verify ci.yml --sig ci.yml.sig --keyring trusted-keys.asc
`)
	}

	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing flags: %v\n", err)
		os.Exit(2)
	}

	if fs.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Error: pipeline file is required\n\n")
		fs.Usage()
		os.Exit(2)
	}
	if *keyring == "" {
		fmt.Fprintf(os.Stderr, "Error: --keyring is required\n\n")
		fs.Usage()
		os.Exit(2)
	}

	filePath := fs.Arg(0)
	signature := *sigPath
	if signature == "" {
		signature = filePath + ".asc"
	}

	verifier := gpg.NewVerifier()
	if err := verifier.ImportKeyringFile(*keyring); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	if !*quiet {
		fmt.Printf("🔐 Verifying %s against %s (%d keys)\n", filePath, signature, verifier.KeyringSize())
	}

	fingerprint, err := verifier.VerifyFile(filePath, signature)
	if err != nil {
		if !*quiet {
			fmt.Printf("❌ FAILED: %v\n", err)
		}
		os.Exit(1)
	}

	if !*quiet {
		fmt.Printf("✅ Valid signature from key %s\n", fingerprint)
	}
}
