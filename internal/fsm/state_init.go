package fsm

import (
	"crypto/sha256"
	"os"
	"path/filepath"

	"arincloader/internal/keystore"
)

// staticLocalKey and staticPeerKey are the two fixed 32-byte pre-shared
// keys INIT provisions into the key partition (spec.md §4.2
// write_static_keys: "stores two fixed 32-byte byte strings"). The
// original firmware bakes its static keys in at build time; the
// specification does not fix their value, so this target derives
// deterministic placeholders instead of inventing random ones, so every
// build of this target and the loader it pairs with agree on the same
// bytes without an out-of-band provisioning step.
var (
	staticLocalKey = sha256.Sum256([]byte("arincloader/local-key/v1"))
	staticPeerKey  = sha256.Sum256([]byte("arincloader/peer-key/v1"))
)

// initHandler mounts the key and firmware partitions and provisions static
// keys, grounded on state_init.c's state_init_run (BC-LLR-1/2/3).
type initHandler struct{}

func (initHandler) Enter(m *Machine) error {
	m.Log.Info("ENTER ST_INIT")
	return nil
}

func (initHandler) Run(m *Machine) (State, error) {
	m.Log.Info("RUN ST_INIT")

	if err := os.MkdirAll(m.Config.Paths.KeyDir, 0o700); err != nil {
		m.Log.Error("failed to mount keys partition", "err", err)
		return Error, err
	}
	if err := os.MkdirAll(filepath.Dir(m.Config.Paths.FirmwareStage), 0o755); err != nil {
		m.Log.Error("failed to mount firmware partition", "err", err)
		return Error, err
	}

	if err := ensureStaticKeys(m.KeyFiles); err != nil {
		m.Log.Error("failed to write static authentication keys", "err", err)
		return Error, err
	}

	m.Log.Info("initialization complete, transitioning to OPERATIONAL")
	return Operational, nil
}

func (initHandler) Exit(m *Machine) error {
	m.Log.Info("EXIT ST_INIT")
	return nil
}

// ensureStaticKeys writes the fixed key pair only if either file is
// missing, making the operation idempotent across restarts (spec.md §4.2).
func ensureStaticKeys(files keystore.Files) error {
	_, localErr := os.Stat(files.LocalKeyPath)
	_, peerErr := os.Stat(files.PeerKeyPath)
	if localErr == nil && peerErr == nil {
		return nil
	}
	return keystore.WriteStaticKeys(files, staticLocalKey, staticPeerKey)
}
