package sshserver

import (
	"bytes"
	"fmt"
	"os"

	"golang.org/x/crypto/ssh"
)

// AuthorizedKeys is the set of public keys allowed to open consoles.
type AuthorizedKeys struct {
	keys [][]byte
}

// LoadAuthorizedKeys parses an OpenSSH authorized_keys file. Options and
// comments are ignored.
func LoadAuthorizedKeys(path string) (*AuthorizedKeys, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read authorized keys: %w", err)
	}
	return ParseAuthorizedKeys(data)
}

// ParseAuthorizedKeys parses authorized_keys content.
func ParseAuthorizedKeys(data []byte) (*AuthorizedKeys, error) {
	ak := &AuthorizedKeys{}
	for i, raw := range bytes.Split(data, []byte("\n")) {
		line := bytes.TrimSpace(raw)
		if len(line) == 0 || line[0] == '#' {
			continue
		}
		key, _, _, _, err := ssh.ParseAuthorizedKey(line)
		if err != nil {
			return nil, fmt.Errorf("authorized keys line %d: %w", i+1, err)
		}
		ak.keys = append(ak.keys, key.Marshal())
	}
	return ak, nil
}

// Len returns the number of keys.
func (a *AuthorizedKeys) Len() int {
	return len(a.keys)
}

// Allows reports whether key is authorized.
func (a *AuthorizedKeys) Allows(key ssh.PublicKey) bool {
	if a == nil || key == nil {
		return false
	}
	wire := key.Marshal()
	for _, k := range a.keys {
		if bytes.Equal(k, wire) {
			return true
		}
	}
	return false
}
