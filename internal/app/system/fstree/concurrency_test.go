package fstree

import (
	"errors"
	"sync"
	"testing"

	"github.com/dalemusser/stratadaily/internal/domain/apperr"
	"github.com/dalemusser/stratadaily/internal/domain/models"
	"github.com/dalemusser/stratadaily/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestEngine_RootOf(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := primitive.NewObjectID()
	a := mustFolder(t, ctx, e, "A", nil, owner)
	b := mustFolder(t, ctx, e, "B", &a.ID, owner)
	nested := mustFile(t, ctx, e, "deep.txt", &b.ID, owner)
	loose := mustFile(t, ctx, e, "loose.txt", nil, owner)

	tests := []struct {
		name string
		kind models.ItemKind
		id   primitive.ObjectID
		want primitive.ObjectID
	}{
		{"root folder", models.ItemFolder, a.ID, a.ID},
		{"nested folder", models.ItemFolder, b.ID, a.ID},
		{"nested file", models.ItemFile, nested.ID, a.ID},
		{"root-level file", models.ItemFile, loose.ID, loose.ID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.rootOf(ctx, tt.kind, tt.id)
			require.NoError(t, err)
			assert.Equal(t, tt.want.Hex(), got.Hex())
		})
	}

	_, err := e.rootOf(ctx, models.ItemFile, primitive.NewObjectID())
	assertKind(t, err, apperr.KindNotFound)
}

func TestEngine_ConcurrentSoftDeleteInOneTree(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := primitive.NewObjectID()
	for round := 0; round < 5; round++ {
		a := mustFolder(t, ctx, e, "A", nil, owner)
		b := mustFolder(t, ctx, e, "B", &a.ID, owner)
		c := mustFolder(t, ctx, e, "C", &b.ID, owner)
		files := []*models.File{
			mustFile(t, ctx, e, "a.txt", &a.ID, owner),
			mustFile(t, ctx, e, "b.txt", &b.ID, owner),
			mustFile(t, ctx, e, "c.txt", &c.ID, owner),
		}

		var wg sync.WaitGroup
		errs := make([]error, 2)
		for i, id := range []primitive.ObjectID{a.ID, b.ID} {
			wg.Add(1)
			go func(i int, id primitive.ObjectID) {
				defer wg.Done()
				_, errs[i] = e.SoftDelete(ctx, models.ItemFolder, id, owner)
			}(i, id)
		}
		wg.Wait()
		require.NoError(t, errs[0], "SoftDelete(A)")
		require.NoError(t, errs[1], "SoftDelete(B)")

		for _, id := range []primitive.ObjectID{a.ID, b.ID, c.ID} {
			f, err := e.folders.GetByID(ctx, id)
			require.NoError(t, err)
			assert.True(t, f.Deleted, "folder %s should be tombstoned", f.Name)
		}
		for _, want := range files {
			f, err := e.files.GetByID(ctx, want.ID)
			require.NoError(t, err)
			assert.True(t, f.Deleted, "file %s should be tombstoned", f.Name)
		}
		assertIntegrity(t, ctx, e, owner)
	}
	assert.Zero(t, e.locks.Size(), "tree locks should be released")
}

func TestEngine_ConcurrentMoveAndSoftDelete(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := primitive.NewObjectID()
	for round := 0; round < 5; round++ {
		src := mustFolder(t, ctx, e, "src", nil, owner)
		child := mustFolder(t, ctx, e, "child", &src.ID, owner)
		mustFile(t, ctx, e, "in-child.txt", &child.ID, owner)
		dst := mustFolder(t, ctx, e, "dst", nil, owner)

		var wg sync.WaitGroup
		var moveErr, deleteErr error
		wg.Add(2)
		go func() {
			defer wg.Done()
			moveErr = e.Move(ctx, models.ItemFolder, child.ID, &dst.ID, owner)
		}()
		go func() {
			defer wg.Done()
			_, deleteErr = e.SoftDelete(ctx, models.ItemFolder, src.ID, owner)
		}()
		wg.Wait()
		require.NoError(t, deleteErr)

		got, err := e.folders.GetByID(ctx, child.ID)
		require.NoError(t, err)
		if moveErr == nil {
			// The move won: child left the tree before the cascade reached it.
			assert.False(t, got.Deleted)
			require.NotNil(t, got.ParentID)
			assert.Equal(t, dst.ID, *got.ParentID)
		} else {
			// The cascade won: child was tombstoned and can no longer move.
			assertKind(t, moveErr, apperr.KindNotFound)
			assert.True(t, got.Deleted)
			require.NotNil(t, got.ParentID)
			assert.Equal(t, src.ID, *got.ParentID)
		}
		assertIntegrity(t, ctx, e, owner)
	}
}

func TestLockStable(t *testing.T) {
	k1, k2 := primitive.NewObjectID(), primitive.NewObjectID()

	t.Run("stable roots", func(t *testing.T) {
		locks := newLockMap()
		unlock, err := lockStable(locks.Lock, func() ([]primitive.ObjectID, error) {
			return []primitive.ObjectID{k1}, nil
		})
		require.NoError(t, err)
		assert.Equal(t, 1, locks.Size())
		unlock()
		assert.Zero(t, locks.Size())
	})

	t.Run("roots settle after one change", func(t *testing.T) {
		locks := newLockMap()
		calls := 0
		unlock, err := lockStable(locks.Lock, func() ([]primitive.ObjectID, error) {
			calls++
			if calls == 1 {
				return []primitive.ObjectID{k1}, nil
			}
			return []primitive.ObjectID{k2}, nil
		})
		require.NoError(t, err)
		unlock()
		assert.Zero(t, locks.Size())
	})

	t.Run("roots never settle", func(t *testing.T) {
		locks := newLockMap()
		calls := 0
		_, err := lockStable(locks.Lock, func() ([]primitive.ObjectID, error) {
			calls++
			if calls%2 == 0 {
				return []primitive.ObjectID{k2}, nil
			}
			return []primitive.ObjectID{k1}, nil
		})
		assertKind(t, err, apperr.KindConflict)
		assert.Zero(t, locks.Size(), "no lock may be held after giving up")
	})

	t.Run("resolve error", func(t *testing.T) {
		locks := newLockMap()
		boom := errors.New("boom")
		calls := 0
		_, err := lockStable(locks.Lock, func() ([]primitive.ObjectID, error) {
			calls++
			if calls == 2 {
				return nil, boom
			}
			return []primitive.ObjectID{k1}, nil
		})
		assert.ErrorIs(t, err, boom)
		assert.Zero(t, locks.Size())
	})
}
