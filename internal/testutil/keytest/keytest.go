package keytest

import (
	"path/filepath"
	"sync"
	"testing"

	"github.com/danmuck/mcserve/internal/keys"
)

var (
	once   sync.Once
	shared *keys.Keyring
	genErr error
)

// Keyring returns a process-wide test key pair; generation is slow enough to
// share across tests.
func Keyring(t testing.TB) *keys.Keyring {
	t.Helper()
	once.Do(func() {
		shared, genErr = keys.Generate(keys.DefaultBits)
	})
	if genErr != nil {
		t.Fatalf("generate keyring: %v", genErr)
	}
	return shared
}

// WriteFiles saves the shared key pair under dir and returns the public and
// private file paths.
func WriteFiles(t testing.TB, dir string) (string, string) {
	t.Helper()
	kr := Keyring(t)
	pub := filepath.Join(dir, "server.pub.der")
	priv := filepath.Join(dir, "server.key")
	if err := kr.Save(pub, priv); err != nil {
		t.Fatalf("write key files: %v", err)
	}
	return pub, priv
}
