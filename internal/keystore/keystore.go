// Package keystore persists and loads the two pre-shared authentication
// keys to plain files, grounded on
// original_source/modulo_bc/components/auth/auth.c's
// auth_write_static_keys/auth_load_keys/auth_clear_keys. The read-exact-N-
// bytes-or-fail discipline mirrors the teacher's internal/config/config.go
// treatment of malformed on-disk state as a hard error rather than a
// silently-defaulted value.
package keystore

import (
	"os"

	"arincloader/internal/session"
)

// Files names the two key files under a keystore directory.
type Files struct {
	LocalKeyPath string // this target's own key, handed to the loader
	PeerKeyPath  string // the key the loader is expected to present
}

// WriteStaticKeys writes localKey and peerKey to disk with 0600
// permissions, overwriting any existing files.
func WriteStaticKeys(files Files, localKey, peerKey [session.KeySize]byte) error {
	if err := os.WriteFile(files.LocalKeyPath, localKey[:], 0o600); err != nil {
		return fileErr("write local key", files.LocalKeyPath, err)
	}
	if err := os.WriteFile(files.PeerKeyPath, peerKey[:], 0o600); err != nil {
		return fileErr("write peer key", files.PeerKeyPath, err)
	}
	return nil
}

// LoadKeys reads both key files into keys. Each file must contain exactly
// session.KeySize bytes; a short or missing file is a hard error.
func LoadKeys(files Files, keys *session.AuthKeys) error {
	if keys == nil {
		return badArgument("nil *session.AuthKeys")
	}

	local, err := readExact(files.LocalKeyPath)
	if err != nil {
		return err
	}
	peer, err := readExact(files.PeerKeyPath)
	if err != nil {
		return err
	}

	copy(keys.LocalKey[:], local)
	copy(keys.PeerExpectedKey[:], peer)
	keys.Loaded = true
	return nil
}

func readExact(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fileErr("open", path, err)
	}
	defer f.Close()

	buf := make([]byte, session.KeySize)
	n, err := f.Read(buf)
	if err != nil {
		return nil, fileErr("read", path, err)
	}
	if n != session.KeySize {
		return nil, fileErr("read", path, shortReadError(n))
	}
	return buf, nil
}

// Clear zeroes both keys and marks them unloaded, mirroring
// auth_clear_keys's memset of the whole keys struct.
func Clear(keys *session.AuthKeys) {
	keys.Zero()
}
