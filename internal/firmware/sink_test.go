package firmware

import (
	"crypto/sha256"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPaths(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	return filepath.Join(dir, "temp.bin"), filepath.Join(dir, "final.bin")
}

func TestCommitRenamesAndMatchesDigest(t *testing.T) {
	staging, final := testPaths(t)
	s := New(staging, final)

	require.NoError(t, s.OpenStaging())
	require.NoError(t, s.Append([]byte("hello ")))
	require.NoError(t, s.Append([]byte("firmware")))

	sum, err := s.Commit()
	require.NoError(t, err)
	assert.Equal(t, sha256.Sum256([]byte("hello firmware")), sum)

	_, err = os.Stat(staging)
	assert.True(t, os.IsNotExist(err))

	data, err := os.ReadFile(final)
	require.NoError(t, err)
	assert.Equal(t, "hello firmware", string(data))
}

func TestCommitOverwritesExistingFinal(t *testing.T) {
	staging, final := testPaths(t)
	require.NoError(t, os.WriteFile(final, []byte("stale"), 0o644))

	s := New(staging, final)
	require.NoError(t, s.OpenStaging())
	require.NoError(t, s.Append([]byte("fresh")))
	_, err := s.Commit()
	require.NoError(t, err)

	data, err := os.ReadFile(final)
	require.NoError(t, err)
	assert.Equal(t, "fresh", string(data))
}

func TestDiscardRemovesStagingFile(t *testing.T) {
	staging, final := testPaths(t)
	s := New(staging, final)
	require.NoError(t, s.OpenStaging())
	require.NoError(t, s.Append([]byte("abandoned")))

	require.NoError(t, s.Discard())

	_, err := os.Stat(staging)
	assert.True(t, os.IsNotExist(err))
}

func TestDiscardWithoutStagingFileIsNotAnError(t *testing.T) {
	staging, final := testPaths(t)
	s := New(staging, final)
	require.NoError(t, s.Discard())
}

func TestAppendBeforeOpenFails(t *testing.T) {
	staging, final := testPaths(t)
	s := New(staging, final)
	err := s.Append([]byte("x"))
	require.Error(t, err)
}

func TestOpenStagingResetsDigestAcrossAttempts(t *testing.T) {
	staging, final := testPaths(t)
	s := New(staging, final)

	require.NoError(t, s.OpenStaging())
	require.NoError(t, s.Append([]byte("first attempt")))
	require.NoError(t, s.Discard())

	require.NoError(t, s.OpenStaging())
	require.NoError(t, s.Append([]byte("second")))
	sum, err := s.Commit()
	require.NoError(t, err)
	assert.Equal(t, sha256.Sum256([]byte("second")), sum)
}
