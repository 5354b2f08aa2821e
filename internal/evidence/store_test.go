package evidence

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiskStore_saveComputesStreamDigest(t *testing.T) {
	store, err := NewDiskStore(t.TempDir(), 0)
	require.NoError(t, err)

	content := []byte("streaming artifact content")
	artifact, err := store.Save(context.Background(), filepath.Join("order", "clip.mp4"), bytes.NewReader(content))
	require.NoError(t, err)

	expected := sha256.Sum256(content)
	assert.Equal(t, hex.EncodeToString(expected[:]), artifact.SHA256)
	assert.Equal(t, int64(len(content)), artifact.SizeBytes)

	digest, err := store.Digest(context.Background(), artifact.Path)
	require.NoError(t, err)
	assert.Equal(t, artifact.SHA256, digest)
}

func TestDiskStore_refusesOverwrite(t *testing.T) {
	store, err := NewDiskStore(t.TempDir(), 0)
	require.NoError(t, err)

	_, err = store.Save(context.Background(), "clip.mp4", bytes.NewReader([]byte("one")))
	require.NoError(t, err)

	_, err = store.Save(context.Background(), "clip.mp4", bytes.NewReader([]byte("two")))
	require.Error(t, err)
}

func TestDiskStore_enforcesSizeCeiling(t *testing.T) {
	root := t.TempDir()
	store, err := NewDiskStore(root, 8)
	require.NoError(t, err)

	_, err = store.Save(context.Background(), "big.mp4", bytes.NewReader([]byte("way past the limit")))
	require.Error(t, err)

	// the oversized partial is cleaned up
	_, statErr := os.Stat(filepath.Join(root, "big.mp4"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestDiskStore_digestMissingArtifact(t *testing.T) {
	store, err := NewDiskStore(t.TempDir(), 0)
	require.NoError(t, err)

	_, err = store.Digest(context.Background(), filepath.Join("nope", "gone.mp4"))
	assert.ErrorIs(t, err, ErrArtifactMissing)
}
