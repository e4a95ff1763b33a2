package backend

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ===== FINGERPRINT =====

func TestFingerprint_DeterministicAndBounded(t *testing.T) {
	a := Fingerprint("model-a", 0.2, "same prompt")
	b := Fingerprint("model-a", 0.2, "same prompt")
	assert.Equal(t, a, b)
	assert.Len(t, a, fingerprintLen)
}

func TestFingerprint_SensitiveToEachInput(t *testing.T) {
	base := Fingerprint("model-a", 0.2, "prompt")
	assert.NotEqual(t, base, Fingerprint("model-b", 0.2, "prompt"))
	assert.NotEqual(t, base, Fingerprint("model-a", 0.3, "prompt"))
	assert.NotEqual(t, base, Fingerprint("model-a", 0.2, "other"))
}

// ===== TTL =====

// TestCache_FreshEntryServed verifies a put entry comes back byte
// identical within the TTL.
func TestCache_FreshEntryServed(t *testing.T) {
	c := NewCache(t.TempDir())
	require.NoError(t, c.Put("key1", "payload bytes"))

	got, ok := c.Get("key1")
	require.True(t, ok)
	assert.Equal(t, "payload bytes", got)
}

// TestCache_StaleEntryDeletedOnRead verifies an entry older than the TTL
// is never served and the read that discovers it removes the file.
func TestCache_StaleEntryDeletedOnRead(t *testing.T) {
	c := NewCache(t.TempDir())

	writeTime := time.Now().Add(-25 * time.Hour)
	c.now = func() time.Time { return writeTime }
	require.NoError(t, c.Put("old", "stale payload"))

	c.now = time.Now
	_, ok := c.Get("old")
	assert.False(t, ok)

	_, err := os.Stat(c.path("old"))
	assert.True(t, os.IsNotExist(err), "stale entry should be deleted by the read")
}

// TestCache_JustUnderTTLServed verifies the boundary: 23h old is fresh.
func TestCache_JustUnderTTLServed(t *testing.T) {
	c := NewCache(t.TempDir())
	c.now = func() time.Time { return time.Now().Add(-23 * time.Hour) }
	require.NoError(t, c.Put("recent", "still good"))

	c.now = time.Now
	got, ok := c.Get("recent")
	require.True(t, ok)
	assert.Equal(t, "still good", got)
}

// TestCache_CorruptEntryRemoved verifies a torn JSON document is treated
// as a miss and cleaned up.
func TestCache_CorruptEntryRemoved(t *testing.T) {
	dir := t.TempDir()
	c := NewCache(dir)
	require.NoError(t, os.WriteFile(c.path("bad"), []byte("{torn"), 0600))

	_, ok := c.Get("bad")
	assert.False(t, ok)

	_, err := os.Stat(c.path("bad"))
	assert.True(t, os.IsNotExist(err))
}

// TestCache_MissOnUnknownKey verifies an absent key is a plain miss.
func TestCache_MissOnUnknownKey(t *testing.T) {
	c := NewCache(t.TempDir())
	_, ok := c.Get("never-written")
	assert.False(t, ok)
}
