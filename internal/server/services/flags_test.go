package services

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrijs2005/openflag/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlagService_CreateDuplicate(t *testing.T) {
	s := newTestFlagService(t)
	ctx := context.Background()

	f, err := s.Create(ctx, "f1", true, "first")
	require.NoError(t, err)
	assert.Empty(t, f.UsageLog)

	_, err = s.Create(ctx, "f1", false, "second")
	assert.ErrorIs(t, err, common.ErrorAlreadyExists)

	list, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "first", list[0].Description)
	assert.True(t, list[0].Value)
}

func TestFlagService_CreateEmptyName(t *testing.T) {
	s := newTestFlagService(t)

	_, err := s.Create(context.Background(), "  ", true, "")
	assert.ErrorIs(t, err, common.ErrorValidation)
}

func TestFlagService_ToggleParity(t *testing.T) {
	s := newTestFlagService(t)
	ctx := context.Background()

	for _, initial := range []bool{false, true} {
		name := "p"
		if initial {
			name = "q"
		}
		_, err := s.Create(ctx, name, initial, "")
		require.NoError(t, err)

		for n := 1; n <= 5; n++ {
			v, err := s.Toggle(ctx, name)
			require.NoError(t, err)
			assert.Equal(t, initial != (n%2 == 1), v, "after %d toggles", n)
		}
	}

	_, err := s.Toggle(ctx, "ghost")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestFlagService_CheckAppendsUsage(t *testing.T) {
	s := newTestFlagService(t)
	s.now = steppingClock(time.Unix(1700000000, 0))
	ctx := context.Background()

	_, err := s.Create(ctx, "beta", false, "")
	require.NoError(t, err)

	const k = 4
	for i := 1; i <= k; i++ {
		f, err := s.Check(ctx, "beta")
		require.NoError(t, err)
		require.Len(t, f.UsageLog, i)
	}

	list, err := s.List(ctx)
	require.NoError(t, err)
	log := list[0].UsageLog
	require.Len(t, log, k, "listing records no usage")
	for i := 1; i < len(log); i++ {
		assert.False(t, log[i].Before(log[i-1]), "usage log must be non-decreasing")
	}
}

func TestFlagService_CheckMissing(t *testing.T) {
	s := newTestFlagService(t)

	_, err := s.Check(context.Background(), "ghost")
	assert.ErrorIs(t, err, common.ErrorNotFound)

	list, err := s.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestFlagService_ReleaseScenario(t *testing.T) {
	s := newTestFlagService(t)
	ctx := context.Background()

	_, err := s.Create(ctx, "release", false, "desc")
	require.NoError(t, err)

	_, err = s.Toggle(ctx, "release")
	require.NoError(t, err)
	f, err := s.Check(ctx, "release")
	require.NoError(t, err)
	assert.True(t, f.Value)
	assert.Len(t, f.UsageLog, 1)

	_, err = s.Toggle(ctx, "release")
	require.NoError(t, err)
	f, err = s.Check(ctx, "release")
	require.NoError(t, err)
	assert.False(t, f.Value)
	assert.Len(t, f.UsageLog, 2)
}

func TestFlagService_Rename(t *testing.T) {
	s := newTestFlagService(t)
	ctx := context.Background()

	_, err := s.Create(ctx, "a", true, "a-desc")
	require.NoError(t, err)
	_, err = s.Create(ctx, "b", false, "b-desc")
	require.NoError(t, err)

	t.Run("same name updates description", func(t *testing.T) {
		require.NoError(t, s.Rename(ctx, "a", "a", "new-desc"))
		f, err := s.Check(ctx, "a")
		require.NoError(t, err)
		assert.Equal(t, "new-desc", f.Description)
		assert.True(t, f.Value)
	})

	t.Run("taken name leaves both flags alone", func(t *testing.T) {
		err := s.Rename(ctx, "a", "b", "stolen")
		assert.ErrorIs(t, err, common.ErrorAlreadyExists)

		list, err := s.List(ctx)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, "a", list[0].Name)
		assert.Equal(t, "new-desc", list[0].Description)
		assert.Equal(t, "b", list[1].Name)
		assert.Equal(t, "b-desc", list[1].Description)
	})

	t.Run("missing", func(t *testing.T) {
		assert.ErrorIs(t, s.Rename(ctx, "ghost", "x", ""), common.ErrorNotFound)
	})

	t.Run("empty new name", func(t *testing.T) {
		assert.ErrorIs(t, s.Rename(ctx, "a", "", ""), common.ErrorValidation)
	})

	t.Run("moves value and log", func(t *testing.T) {
		require.NoError(t, s.Rename(ctx, "a", "c", "moved"))
		_, err := s.Check(ctx, "a")
		assert.ErrorIs(t, err, common.ErrorNotFound)

		f, err := s.Check(ctx, "c")
		require.NoError(t, err)
		assert.True(t, f.Value)
		assert.Equal(t, "moved", f.Description)
		assert.Len(t, f.UsageLog, 2)
	})
}

func TestFlagService_Remove(t *testing.T) {
	s := newTestFlagService(t)
	ctx := context.Background()

	_, err := s.Create(ctx, "gone", true, "")
	require.NoError(t, err)
	_, err = s.Check(ctx, "gone")
	require.NoError(t, err)

	require.NoError(t, s.Remove(ctx, "gone"))
	_, err = s.Check(ctx, "gone")
	assert.ErrorIs(t, err, common.ErrorNotFound)
	assert.ErrorIs(t, s.Remove(ctx, "gone"), common.ErrorNotFound)

	f, err := s.Create(ctx, "gone", false, "")
	require.NoError(t, err)
	assert.Empty(t, f.UsageLog, "usage log is not resurrected")
}

func TestFlagService_ConcurrentToggles(t *testing.T) {
	s := newTestFlagService(t)
	ctx := context.Background()
	_, err := s.Create(ctx, "hot", false, "")
	require.NoError(t, err)

	const n = 25
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Toggle(ctx, "hot")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	f, err := s.Check(ctx, "hot")
	require.NoError(t, err)
	assert.True(t, f.Value, "odd number of toggles flips the value")
}

func TestFlagService_ConcurrentCreates(t *testing.T) {
	s := newTestFlagService(t)
	ctx := context.Background()

	const n = 8
	var (
		wg        sync.WaitGroup
		ok, dupes atomic.Int32
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Create(ctx, "same", true, "")
			switch {
			case err == nil:
				ok.Add(1)
			case assert.ErrorIs(t, err, common.ErrorAlreadyExists):
				dupes.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, ok.Load())
	assert.EqualValues(t, n-1, dupes.Load())
}
