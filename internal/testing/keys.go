package testing

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/pem"
	"testing"

	"golang.org/x/crypto/ssh"
)

// KeyPair holds a throwaway SSH key in the formats the runner and a test server need.
type KeyPair struct {
	// PrivateKey is the OpenSSH PEM encoding of the private key.
	PrivateKey []byte
	Signer     ssh.Signer
}

// GenerateKeyPair creates an ed25519 key pair or fails the test.
func GenerateKeyPair(t *testing.T) *KeyPair {
	t.Helper()

	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("failed to generate key: %v", err)
	}

	block, err := ssh.MarshalPrivateKey(priv, "")
	if err != nil {
		t.Fatalf("failed to marshal key: %v", err)
	}

	signer, err := ssh.NewSignerFromKey(priv)
	if err != nil {
		t.Fatalf("failed to create signer: %v", err)
	}

	return &KeyPair{
		PrivateKey: pem.EncodeToMemory(block),
		Signer:     signer,
	}
}
