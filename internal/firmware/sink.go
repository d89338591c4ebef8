// Package firmware stages incoming firmware DATA payloads to a temporary
// file while streaming them through SHA-256, then commits the staged file
// by removing any prior final file and renaming the staged one over it.
// Grounded on original_source/modulo_bc/components/storage/storage.c
// (open_temp_file/write_to_temp/finalize_firmware_file) and on the
// teacher's pkg/hashing/core/sha256_canonical.go for the streaming-hash
// idiom, generalized here from a single-shot Sum256 call to a hash.Hash
// held open across repeated Append calls.
package firmware

import (
	"crypto/sha256"
	"hash"
	"os"
)

// Sink stages one firmware transfer at a time. It is not safe for
// concurrent use; only the FSM loop calls it (UPLOADING stages, SAVE
// commits, ERROR discards).
type Sink struct {
	stagingPath string
	finalPath   string

	file   *os.File
	digest hash.Hash
}

// New returns a Sink that stages to stagingPath and commits to finalPath.
func New(stagingPath, finalPath string) *Sink {
	return &Sink{stagingPath: stagingPath, finalPath: finalPath}
}

// OpenStaging truncates (or creates) the staging file for a new transfer
// and resets the streaming digest.
func (s *Sink) OpenStaging() error {
	f, err := os.OpenFile(s.stagingPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fileErr("open staging file", s.stagingPath, err)
	}
	s.file = f
	s.digest = sha256.New()
	return nil
}

// Append writes data to the staging file and folds it into the running
// digest. The two operations are not atomic with respect to each other by
// design: a write failure returns before the digest is updated, so the file
// (which may hold a partial write) can be ahead of the digest, which is
// fine because Discard (not Commit) is always the next call on error.
func (s *Sink) Append(data []byte) error {
	if s.file == nil {
		return errNotOpen
	}
	if _, err := s.file.Write(data); err != nil {
		return fileErr("write staging file", s.stagingPath, err)
	}
	s.digest.Write(data)
	return nil
}

// Sum returns the SHA-256 digest of everything appended so far without
// finalizing the transfer.
func (s *Sink) Sum() [sha256.Size]byte {
	var out [sha256.Size]byte
	copy(out[:], s.digest.Sum(nil))
	return out
}

// Commit closes the staging file, removes any existing final file (a
// missing final file is not an error, per finalize_firmware_file), and
// renames the staging file over it.
func (s *Sink) Commit() ([sha256.Size]byte, error) {
	sum := s.Sum()
	if err := s.closeFile(); err != nil {
		return sum, err
	}

	if err := os.Remove(s.finalPath); err != nil && !os.IsNotExist(err) {
		return sum, fileErr("remove existing final file", s.finalPath, err)
	}
	if err := os.Rename(s.stagingPath, s.finalPath); err != nil {
		return sum, fileErr("rename staging to final", s.finalPath, err)
	}
	return sum, nil
}

// Discard closes and removes the staging file, abandoning the transfer. A
// missing staging file is not an error.
func (s *Sink) Discard() error {
	if err := s.closeFile(); err != nil {
		return err
	}
	if err := os.Remove(s.stagingPath); err != nil && !os.IsNotExist(err) {
		return fileErr("remove staging file", s.stagingPath, err)
	}
	return nil
}

func (s *Sink) closeFile() error {
	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	if err != nil {
		return fileErr("close staging file", s.stagingPath, err)
	}
	return nil
}
