package sshserver

import (
	"crypto/ed25519"
	"crypto/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/crypto/ssh"
)

func newClientKey(t *testing.T) ssh.Signer {
	t.Helper()
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	signer, err := ssh.NewSignerFromKey(priv)
	if err != nil {
		t.Fatal(err)
	}
	return signer
}

func authorizedLine(key ssh.PublicKey, comment string) string {
	return strings.TrimSpace(string(ssh.MarshalAuthorizedKey(key))) + " " + comment
}

func TestParseAuthorizedKeys(t *testing.T) {
	alice := newClientKey(t)
	bob := newClientKey(t)
	mallory := newClientKey(t)
	content := strings.Join([]string{
		"# consoles",
		"",
		authorizedLine(alice.PublicKey(), "alice@laptop"),
		`no-pty,command="/bin/false" ` + authorizedLine(bob.PublicKey(), "bob"),
	}, "\n")

	keys, err := ParseAuthorizedKeys([]byte(content))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if keys.Len() != 2 {
		t.Fatalf("expected 2 keys, got %d", keys.Len())
	}
	if !keys.Allows(alice.PublicKey()) || !keys.Allows(bob.PublicKey()) {
		t.Fatalf("expected listed keys to be allowed")
	}
	if keys.Allows(mallory.PublicKey()) {
		t.Fatalf("expected unlisted key to be rejected")
	}
	var nilKeys *AuthorizedKeys
	if nilKeys.Allows(alice.PublicKey()) {
		t.Fatalf("expected nil set to reject")
	}
}

func TestParseAuthorizedKeysReportsLine(t *testing.T) {
	_, err := ParseAuthorizedKeys([]byte("# ok\nssh-ed25519 !!!\n"))
	if err == nil || !strings.Contains(err.Error(), "line 2") {
		t.Fatalf("expected line 2 error, got %v", err)
	}
}

func TestLoadAuthorizedKeysMissingFile(t *testing.T) {
	if _, err := LoadAuthorizedKeys(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Fatalf("expected error for missing file")
	}
	path := filepath.Join(t.TempDir(), "authorized_keys")
	if err := os.WriteFile(path, ssh.MarshalAuthorizedKey(newClientKey(t).PublicKey()), 0o600); err != nil {
		t.Fatal(err)
	}
	keys, err := LoadAuthorizedKeys(path)
	if err != nil || keys.Len() != 1 {
		t.Fatalf("expected one key, got %v %v", keys, err)
	}
}
