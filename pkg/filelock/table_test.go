package filelock

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vaultd/vaultd/pkg/vaulterrors"
)

func TestTryAcquireAndRelease(t *testing.T) {
	tbl := NewTable(4)
	key := Key{Username: "alice", Filename: "report.txt"}

	require.NoError(t, tbl.TryAcquire(key))
	assert.True(t, tbl.IsHeld(key))

	err := tbl.TryAcquire(key)
	assert.ErrorIs(t, err, vaulterrors.ErrBusy)

	require.NoError(t, tbl.Release(key))
	assert.False(t, tbl.IsHeld(key))

	require.NoError(t, tbl.TryAcquire(key))
}

func TestReleaseNotHeld(t *testing.T) {
	tbl := NewTable(2)
	err := tbl.Release(Key{Username: "bob", Filename: "x.txt"})
	assert.ErrorIs(t, err, vaulterrors.ErrNotHeld)
}

func TestTableAtCapacity(t *testing.T) {
	tbl := NewTable(2)
	require.NoError(t, tbl.TryAcquire(Key{Username: "a", Filename: "1.txt"}))
	require.NoError(t, tbl.TryAcquire(Key{Username: "b", Filename: "2.txt"}))

	err := tbl.TryAcquire(Key{Username: "c", Filename: "3.txt"})
	assert.ErrorIs(t, err, vaulterrors.ErrLockTableFull)
}

func TestTryAcquireMutualExclusionUnderConcurrency(t *testing.T) {
	tbl := NewTable(8)
	key := Key{Username: "alice", Filename: "shared.txt"}

	const attempts = 50
	var wg sync.WaitGroup
	successes := make(chan struct{}, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if tbl.TryAcquire(key) == nil {
				successes <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(successes)

	count := 0
	for range successes {
		count++
	}
	assert.Equal(t, 1, count, "exactly one concurrent TryAcquire should succeed")
}

func TestKeyString(t *testing.T) {
	k := Key{Username: "alice", Filename: "report.txt"}
	assert.Equal(t, "alice/report.txt", k.String())
}
