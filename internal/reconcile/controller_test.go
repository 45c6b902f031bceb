package reconcile

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LevdanskyVitaliy/todo-sync/internal/remote"
	"github.com/LevdanskyVitaliy/todo-sync/internal/search"
	"github.com/LevdanskyVitaliy/todo-sync/internal/task"
)

var errBoom = errors.New("boom")

func fixedClock() time.Time {
	return base.Add(time.Hour)
}

func newLoaded(t *testing.T, store *MemStore, opts Options) *Controller {
	t.Helper()
	if opts.Clock == nil {
		opts.Clock = fixedClock
	}
	c := New(store, opts)
	t.Cleanup(func() { c.Close() })

	req, err := c.Load(context.Background())
	require.NoError(t, err)
	require.NoError(t, req.Wait(waitCtx(t)))
	return c
}

func find(t *testing.T, c *Controller, id string) task.Task {
	t.Helper()
	for _, tk := range c.View().All {
		if tk.ID == id {
			return tk
		}
	}
	t.Fatalf("task %s not in collection", id)
	return task.Task{}
}

func TestLoad(t *testing.T) {
	t.Run("Given a store with tasks When loaded Then collection is newest first", func(t *testing.T) {
		store := NewMemStore(seed(3, "2")...)
		c := newLoaded(t, store, Options{})

		v := c.View()
		assert.Equal(t, []string{"3", "2", "1"}, ids(v.All))
		assert.Equal(t, []string{"3", "1", "2"}, ids(v.Tasks))
		assert.Equal(t, 2, v.OpenCount)
		assert.Equal(t, 3, v.Index.Documents)
		assert.Equal(t, []string{"list:", "list:done=false"}, store.Calls())
	})

	t.Run("Given an unreachable store When loaded Then a notice is recorded", func(t *testing.T) {
		store := NewMemStore(seed(2)...)
		store.Fail("list:", remote.ErrRemoteUnavailable)
		c := New(store, Options{})

		req, err := c.Load(context.Background())
		require.NoError(t, err)

		err = req.Wait(waitCtx(t))
		assert.ErrorIs(t, err, remote.ErrRemoteUnavailable)
		assert.Empty(t, c.View().All)
		require.Len(t, c.Notices(), 1)
		assert.Equal(t, IntentLoad, c.Notices()[0].Intent)
	})
}

func TestCreate(t *testing.T) {
	t.Run("Given valid input When created Then record is prepended with the store id", func(t *testing.T) {
		store := NewMemStore(seed(2)...)
		c := newLoaded(t, store, Options{})

		req, err := c.Create(context.Background(), "Pay rent", "due 1st")
		require.NoError(t, err)
		require.NoError(t, req.Wait(waitCtx(t)))

		v := c.View()
		require.Len(t, v.All, 3)
		first := v.All[0]
		assert.Equal(t, "101", first.ID)
		assert.Equal(t, "Pay rent", first.Name)
		assert.Equal(t, "due 1st", first.Description)
		assert.False(t, first.Done)
		assert.Equal(t, fixedClock(), first.CreatedAt)
		assert.Equal(t, 3, v.OpenCount)
		assert.Equal(t, OutcomeApplied, req.Outcome())
		assert.Equal(t, "101", req.Task().ID)
	})

	t.Run("Given empty fields When created Then validation fails before any call", func(t *testing.T) {
		store := NewMemStore()
		c := newLoaded(t, store, Options{})
		before := len(store.Calls())

		_, err := c.Create(context.Background(), "", "desc")
		assert.ErrorIs(t, err, ErrValidation)

		_, err = c.Create(context.Background(), "name", "   ")
		assert.ErrorIs(t, err, ErrValidation)

		assert.Len(t, store.Calls(), before)
	})

	t.Run("Given a failing store When created Then nothing is inserted and a notice is recorded", func(t *testing.T) {
		store := NewMemStore(seed(2)...)
		store.Fail("create", &remote.StatusError{Op: "create", Status: http.StatusInternalServerError})
		c := newLoaded(t, store, Options{})

		req, err := c.Create(context.Background(), "Pay rent", "due 1st")
		require.NoError(t, err)

		err = req.Wait(waitCtx(t))
		assert.ErrorIs(t, err, remote.ErrRemoteRejected)
		assert.Equal(t, OutcomeRolledBack, req.Outcome())
		assert.Equal(t, []string{"2", "1"}, ids(c.View().All))
		require.Len(t, c.Notices(), 1)
		assert.Equal(t, IntentCreate, c.Notices()[0].Intent)
	})

	t.Run("Given open-only mode When created Then the open list is fetched again", func(t *testing.T) {
		store := NewMemStore(seed(3, "2")...)
		c := newLoaded(t, store, Options{})

		req, err := c.SetMode(context.Background(), ModeOpenOnly)
		require.NoError(t, err)
		require.NoError(t, req.Wait(waitCtx(t)))

		req, err = c.Create(context.Background(), "Pay rent", "due 1st")
		require.NoError(t, err)
		require.NoError(t, req.Wait(waitCtx(t)))

		v := c.View()
		assert.Equal(t, []string{"101", "3", "1"}, ids(v.All))
		assert.Equal(t, 3, v.OpenCount)
		calls := store.Calls()
		assert.Equal(t, []string{"create", "list:done=false"}, calls[len(calls)-2:])
	})
}

func TestToggle(t *testing.T) {
	t.Run("Given a held update When toggled Then count changes only after reconciliation", func(t *testing.T) {
		store := NewMemStore(seed(3)...)
		c := newLoaded(t, store, Options{})

		h := store.Hold("update:2")
		req, err := c.Toggle(context.Background(), "2")
		require.NoError(t, err)

		assert.True(t, find(t, c, "2").Done)
		assert.Equal(t, 3, c.View().OpenCount)

		h.Arrived(t)
		assert.Equal(t, 3, c.View().OpenCount)
		assert.Equal(t, 1, c.View().Pending)

		h.Release()
		require.NoError(t, req.Wait(waitCtx(t)))

		assert.Equal(t, OutcomeApplied, req.Outcome())
		assert.True(t, find(t, c, "2").Done)
		assert.Equal(t, 2, c.View().OpenCount)
		assert.Equal(t, 0, c.View().Pending)
	})

	t.Run("Given a task When toggled twice Then done and position are restored", func(t *testing.T) {
		store := NewMemStore(seed(3)...)
		c := newLoaded(t, store, Options{})
		before := ids(c.View().Tasks)

		req, err := c.Toggle(context.Background(), "2")
		require.NoError(t, err)
		require.NoError(t, req.Wait(waitCtx(t)))
		assert.Equal(t, []string{"3", "1", "2"}, ids(c.View().Tasks))
		assert.Equal(t, 2, c.View().OpenCount)

		req, err = c.Toggle(context.Background(), "2")
		require.NoError(t, err)
		require.NoError(t, req.Wait(waitCtx(t)))

		assert.False(t, find(t, c, "2").Done)
		assert.Equal(t, before, ids(c.View().Tasks))
		assert.Equal(t, 3, c.View().OpenCount)
	})

	t.Run("Given a failing update When toggled Then done is rolled back", func(t *testing.T) {
		store := NewMemStore(seed(3)...)
		store.Fail("update:2", remote.ErrRemoteUnavailable)
		c := newLoaded(t, store, Options{})
		before := len(store.Calls())

		req, err := c.Toggle(context.Background(), "2")
		require.NoError(t, err)

		err = req.Wait(waitCtx(t))
		assert.ErrorIs(t, err, remote.ErrRemoteUnavailable)
		assert.Equal(t, OutcomeRolledBack, req.Outcome())
		assert.False(t, find(t, c, "2").Done)
		assert.Equal(t, 3, c.View().OpenCount)
		assert.Equal(t, []string{"update:2"}, store.Calls()[before:])

		notices := c.Notices()
		require.Len(t, notices, 1)
		assert.Equal(t, IntentToggle, notices[0].Intent)
		assert.Equal(t, "2", notices[0].TaskID)
		assert.Equal(t, req.ID, notices[0].RequestID)
	})

	t.Run("Given an unknown id When toggled Then ErrNotFound", func(t *testing.T) {
		c := newLoaded(t, NewMemStore(seed(1)...), Options{})

		_, err := c.Toggle(context.Background(), "nope")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("Given a store that hangs When toggled Then the timeout rolls it back", func(t *testing.T) {
		store := NewMemStore(seed(2)...)
		c := newLoaded(t, store, Options{Timeout: 50 * time.Millisecond})

		h := store.Hold("update:1")
		t.Cleanup(h.Release)

		req, err := c.Toggle(context.Background(), "1")
		require.NoError(t, err)

		err = req.Wait(waitCtx(t))
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.False(t, find(t, c, "1").Done)
		assert.Len(t, c.Notices(), 1)
	})

	t.Run("Given a cancelled caller context When toggled Then the call still completes", func(t *testing.T) {
		store := NewMemStore(seed(2)...)
		c := newLoaded(t, store, Options{})

		h := store.Hold("update:1")
		ctx, cancel := context.WithCancel(context.Background())
		req, err := c.Toggle(ctx, "1")
		require.NoError(t, err)

		h.Arrived(t)
		cancel()
		h.Release()

		require.NoError(t, req.Wait(waitCtx(t)))
		assert.Equal(t, OutcomeApplied, req.Outcome())
		assert.True(t, find(t, c, "1").Done)
	})
}

func TestRename(t *testing.T) {
	t.Run("Given a held update When renamed Then the new name shows immediately", func(t *testing.T) {
		store := NewMemStore(seed(2)...)
		c := newLoaded(t, store, Options{})

		h := store.Hold("update:1")
		req, err := c.Rename(context.Background(), "1", "  Walk the dog ")
		require.NoError(t, err)

		assert.Equal(t, "Walk the dog", find(t, c, "1").Name)

		h.Release()
		require.NoError(t, req.Wait(waitCtx(t)))
		assert.Equal(t, "Walk the dog", find(t, c, "1").Name)
		assert.Equal(t, "Walk the dog", req.Task().Name)
	})

	t.Run("Given a failing update When renamed Then the old name is restored", func(t *testing.T) {
		store := NewMemStore(seed(2)...)
		store.Fail("update:1", remote.ErrRemoteUnavailable)
		c := newLoaded(t, store, Options{})

		req, err := c.Rename(context.Background(), "1", "Walk the dog")
		require.NoError(t, err)

		assert.Error(t, req.Wait(waitCtx(t)))
		assert.Equal(t, "Task 1", find(t, c, "1").Name)
		assert.Len(t, c.Notices(), 1)
	})

	t.Run("Given overlapping renames When the older fails last Then the newer name stays", func(t *testing.T) {
		store := NewMemStore(seed(2)...)
		c := newLoaded(t, store, Options{})

		store.Fail("update:1", errBoom)
		h := store.Hold("update:1")
		first, err := c.Rename(context.Background(), "1", "First")
		require.NoError(t, err)
		h.Arrived(t)

		second, err := c.Rename(context.Background(), "1", "Second")
		require.NoError(t, err)
		require.NoError(t, second.Wait(waitCtx(t)))

		h.Release()
		assert.ErrorIs(t, first.Wait(waitCtx(t)), errBoom)

		assert.Equal(t, "Second", find(t, c, "1").Name)
		assert.Equal(t, OutcomeRolledBack, first.Outcome())
		assert.Equal(t, OutcomeApplied, second.Outcome())
	})

	t.Run("Given a blank name When renamed Then validation fails", func(t *testing.T) {
		c := newLoaded(t, NewMemStore(seed(1)...), Options{})

		_, err := c.Rename(context.Background(), "1", "  ")
		assert.ErrorIs(t, err, ErrValidation)
		assert.Equal(t, "Task 1", find(t, c, "1").Name)
	})
}

func TestDelete(t *testing.T) {
	t.Run("Given confirmation When deleted Then task leaves after the store confirms", func(t *testing.T) {
		store := NewMemStore(seed(3)...)
		c := newLoaded(t, store, Options{})

		h := store.Hold("delete:2")
		req, err := c.Delete(context.Background(), "2", always(true))
		require.NoError(t, err)

		h.Arrived(t)
		find(t, c, "2")

		h.Release()
		require.NoError(t, req.Wait(waitCtx(t)))

		v := c.View()
		assert.Equal(t, []string{"3", "1"}, ids(v.All))
		assert.Equal(t, 2, v.OpenCount)
		assert.Equal(t, 2, v.Index.Documents)
		calls := store.Calls()
		assert.Equal(t, []string{"delete:2", "list:done=false"}, calls[len(calls)-2:])
	})

	declines := []struct {
		name    string
		confirm Confirmer
	}{
		{"false answer", always(false)},
		{"nil confirmer", nil},
		{"declined error", ConfirmFunc(func(context.Context, task.Task) (bool, error) {
			return false, ErrConfirmationDeclined
		})},
	}
	for _, tt := range declines {
		t.Run("Given "+tt.name+" When deleted Then nothing changes", func(t *testing.T) {
			store := NewMemStore(seed(3)...)
			c := newLoaded(t, store, Options{})
			before := len(store.Calls())

			req, err := c.Delete(context.Background(), "2", tt.confirm)
			require.NoError(t, err)

			select {
			case <-req.Done():
			default:
				t.Fatal("declined request should complete immediately")
			}
			assert.NoError(t, req.Err())
			assert.Equal(t, OutcomeDeclined, req.Outcome())
			assert.Equal(t, []string{"3", "2", "1"}, ids(c.View().All))
			assert.Len(t, store.Calls(), before)
		})
	}

	t.Run("Given a confirmer error When deleted Then the error is returned", func(t *testing.T) {
		c := newLoaded(t, NewMemStore(seed(1)...), Options{})

		_, err := c.Delete(context.Background(), "1", ConfirmFunc(func(context.Context, task.Task) (bool, error) {
			return false, errBoom
		}))
		assert.ErrorIs(t, err, errBoom)
	})

	t.Run("Given an unconfirmed delete When deleted Then the task stays", func(t *testing.T) {
		store := NewMemStore(seed(2)...)
		no := false
		store.DeleteResult = &no
		c := newLoaded(t, store, Options{})

		req, err := c.Delete(context.Background(), "1", always(true))
		require.NoError(t, err)

		assert.ErrorIs(t, req.Wait(waitCtx(t)), ErrNotDeleted)
		find(t, c, "1")
		assert.Len(t, c.Notices(), 1)
	})

	t.Run("Given a rejected delete When deleted Then the task stays", func(t *testing.T) {
		store := NewMemStore(seed(2)...)
		store.Fail("delete:1", &remote.StatusError{Op: "delete", Status: http.StatusInternalServerError})
		c := newLoaded(t, store, Options{})

		req, err := c.Delete(context.Background(), "1", always(true))
		require.NoError(t, err)

		assert.ErrorIs(t, req.Wait(waitCtx(t)), remote.ErrRemoteRejected)
		assert.Equal(t, []string{"2", "1"}, ids(c.View().All))
	})
}

func TestOutOfOrderCompletion(t *testing.T) {
	t.Run("Given a toggle answered after a delete Then the task is not resurrected", func(t *testing.T) {
		store := NewMemStore(seed(3)...)
		c := newLoaded(t, store, Options{})

		h := store.Hold("update:2")
		toggle, err := c.Toggle(context.Background(), "2")
		require.NoError(t, err)
		h.Arrived(t)

		del, err := c.Delete(context.Background(), "2", always(true))
		require.NoError(t, err)
		require.NoError(t, del.Wait(waitCtx(t)))

		h.Release()
		require.NoError(t, toggle.Wait(waitCtx(t)))

		assert.Equal(t, OutcomeDiscarded, toggle.Outcome())
		assert.Equal(t, []string{"3", "1"}, ids(c.View().All))
		assert.Equal(t, 2, c.View().OpenCount)
	})

	t.Run("Given a failed toggle answered after a delete Then rollback does not resurrect", func(t *testing.T) {
		store := NewMemStore(seed(3)...)
		c := newLoaded(t, store, Options{})

		store.Fail("update:2", errBoom)
		h := store.Hold("update:2")
		toggle, err := c.Toggle(context.Background(), "2")
		require.NoError(t, err)
		h.Arrived(t)

		del, err := c.Delete(context.Background(), "2", always(true))
		require.NoError(t, err)
		require.NoError(t, del.Wait(waitCtx(t)))

		h.Release()
		assert.ErrorIs(t, toggle.Wait(waitCtx(t)), errBoom)
		assert.Equal(t, []string{"3", "1"}, ids(c.View().All))
	})

	t.Run("Given two toggles When both reconcile Then count matches the store", func(t *testing.T) {
		store := NewMemStore(seed(3)...)
		c := newLoaded(t, store, Options{})

		h := store.Hold("update:1")
		first, err := c.Toggle(context.Background(), "1")
		require.NoError(t, err)
		h.Arrived(t)

		second, err := c.Toggle(context.Background(), "3")
		require.NoError(t, err)
		require.NoError(t, second.Wait(waitCtx(t)))

		h.Release()
		require.NoError(t, first.Wait(waitCtx(t)))

		assert.Equal(t, 1, c.View().OpenCount)
	})

	t.Run("Given a mode fetch answered after a toggle reconciled Then neither the toggle nor the count is undone", func(t *testing.T) {
		store := NewMemStore(seed(2)...)
		c := newLoaded(t, store, Options{})

		h := store.Hold("list:done=false")
		mode, err := c.SetMode(context.Background(), ModeOpenOnly)
		require.NoError(t, err)
		h.Arrived(t)

		toggle, err := c.Toggle(context.Background(), "1")
		require.NoError(t, err)
		require.NoError(t, toggle.Wait(waitCtx(t)))
		assert.Equal(t, 1, c.View().OpenCount)

		h.Release()
		require.NoError(t, mode.Wait(waitCtx(t)))

		assert.Equal(t, OutcomeApplied, mode.Outcome())
		v := c.View()
		assert.Equal(t, ModeOpenOnly, v.Mode)
		assert.Equal(t, []string{"2"}, ids(v.All))
		assert.Equal(t, 1, v.OpenCount)
		assert.Equal(t, 1, v.LocalOpen)

		calls := store.Calls()
		assert.Equal(t, "list:done=false", calls[len(calls)-1])
	})

	t.Run("Given a load answered after a delete reconciled Then the task is not resurrected", func(t *testing.T) {
		store := NewMemStore(seed(3)...)
		c := newLoaded(t, store, Options{})

		h := store.Hold("list:")
		load, err := c.Load(context.Background())
		require.NoError(t, err)
		h.Arrived(t)

		del, err := c.Delete(context.Background(), "2", always(true))
		require.NoError(t, err)
		require.NoError(t, del.Wait(waitCtx(t)))

		h.Release()
		require.NoError(t, load.Wait(waitCtx(t)))

		assert.Equal(t, OutcomeApplied, load.Outcome())
		v := c.View()
		assert.Equal(t, []string{"3", "1"}, ids(v.All))
		assert.Equal(t, 2, v.OpenCount)
	})
}

func TestSetMode(t *testing.T) {
	t.Run("Given open-only When switched Then only open tasks are held", func(t *testing.T) {
		store := NewMemStore(seed(3, "2")...)
		c := newLoaded(t, store, Options{})

		req, err := c.SetMode(context.Background(), ModeOpenOnly)
		require.NoError(t, err)
		require.NoError(t, req.Wait(waitCtx(t)))

		v := c.View()
		assert.Equal(t, ModeOpenOnly, v.Mode)
		assert.Equal(t, []string{"3", "1"}, ids(v.All))
		assert.Equal(t, 2, v.OpenCount)
	})

	t.Run("Given a superseded fetch When it lands last Then it is discarded", func(t *testing.T) {
		store := NewMemStore(seed(3, "2")...)
		c := newLoaded(t, store, Options{})

		h := store.Hold("list:done=false")
		stale, err := c.SetMode(context.Background(), ModeOpenOnly)
		require.NoError(t, err)
		h.Arrived(t)

		fresh, err := c.SetMode(context.Background(), ModeAll)
		require.NoError(t, err)
		require.NoError(t, fresh.Wait(waitCtx(t)))

		h.Release()
		require.NoError(t, stale.Wait(waitCtx(t)))

		assert.Equal(t, OutcomeDiscarded, stale.Outcome())
		v := c.View()
		assert.Equal(t, ModeAll, v.Mode)
		assert.Equal(t, []string{"3", "2", "1"}, ids(v.All))
	})

	t.Run("Given a failing fetch When switched Then the previous mode is restored", func(t *testing.T) {
		store := NewMemStore(seed(3, "2")...)
		c := newLoaded(t, store, Options{})
		store.Fail("list:done=false", remote.ErrRemoteUnavailable)

		req, err := c.SetMode(context.Background(), ModeOpenOnly)
		require.NoError(t, err)

		assert.ErrorIs(t, req.Wait(waitCtx(t)), remote.ErrRemoteUnavailable)
		v := c.View()
		assert.Equal(t, ModeAll, v.Mode)
		assert.Equal(t, []string{"3", "2", "1"}, ids(v.All))
		assert.NotEmpty(t, v.Notices)
	})

	t.Run("Given the current mode When set again Then nothing is fetched", func(t *testing.T) {
		store := NewMemStore(seed(1)...)
		c := newLoaded(t, store, Options{})
		before := len(store.Calls())

		req, err := c.SetMode(context.Background(), ModeAll)
		require.NoError(t, err)
		require.NoError(t, req.Wait(waitCtx(t)))
		assert.Len(t, store.Calls(), before)
	})
}

func TestSetQuery(t *testing.T) {
	store := NewMemStore(
		task.Task{ID: "1", Name: "Buy milk", Description: "2 liters", CreatedAt: base},
		task.Task{ID: "2", Name: "Walk dog", Description: "park", CreatedAt: base.Add(time.Minute)},
		task.Task{ID: "3", Name: "Buy bread", Description: "rye", CreatedAt: base.Add(2 * time.Minute)},
	)
	c := newLoaded(t, store, Options{Search: search.DefaultOptions()})
	before := len(store.Calls())

	t.Run("Given a query When viewed Then only matches are rendered", func(t *testing.T) {
		c.SetQuery("bred")
		assert.Equal(t, []string{"3"}, ids(c.View().Tasks))

		c.SetQuery("xyz")
		assert.Empty(t, c.View().Tasks)
	})

	t.Run("Given a blank query When viewed Then the partition is rendered", func(t *testing.T) {
		c.SetQuery("   ")
		assert.Equal(t, []string{"3", "2", "1"}, ids(c.View().Tasks))
	})

	t.Run("Given a rename in flight When searched Then the new name is found", func(t *testing.T) {
		h := store.Hold("update:2")
		req, err := c.Rename(context.Background(), "2", "Buy dog food")
		require.NoError(t, err)

		c.SetQuery("buy")
		assert.ElementsMatch(t, []string{"1", "2", "3"}, ids(c.View().Tasks))

		h.Release()
		require.NoError(t, req.Wait(waitCtx(t)))
	})

	t.Run("Given query changes Then the store is not called for them", func(t *testing.T) {
		assert.Equal(t, []string{"update:2"}, store.Calls()[before:])
	})
}

func TestClose(t *testing.T) {
	store := NewMemStore(seed(2)...)
	c := newLoaded(t, store, Options{})

	h := store.Hold("update:1")
	req, err := c.Toggle(context.Background(), "1")
	require.NoError(t, err)
	h.Arrived(t)

	require.NoError(t, c.Close())
	h.Release()
	require.NoError(t, req.Wait(waitCtx(t)))
	assert.Equal(t, OutcomeDiscarded, req.Outcome())

	_, err = c.Create(context.Background(), "a", "b")
	assert.ErrorIs(t, err, ErrClosed)
	_, err = c.Toggle(context.Background(), "1")
	assert.ErrorIs(t, err, ErrClosed)
	_, err = c.Load(context.Background())
	assert.ErrorIs(t, err, ErrClosed)
	_, err = c.SetMode(context.Background(), ModeOpenOnly)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestWait(t *testing.T) {
	store := NewMemStore(seed(3)...)
	c := newLoaded(t, store, Options{})

	h := store.Hold("update:3")
	_, err := c.Toggle(context.Background(), "3")
	require.NoError(t, err)
	_, err = c.Rename(context.Background(), "1", "renamed")
	require.NoError(t, err)
	h.Arrived(t)

	short, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, c.Wait(short), context.DeadlineExceeded)

	h.Release()
	require.NoError(t, c.Wait(waitCtx(t)))
	assert.Equal(t, 0, c.View().Pending)
	assert.Equal(t, 2, c.View().OpenCount)
}

func TestDismissNotices(t *testing.T) {
	store := NewMemStore(seed(1)...)
	store.Fail("update:1", errBoom)
	c := newLoaded(t, store, Options{})

	req, err := c.Toggle(context.Background(), "1")
	require.NoError(t, err)
	_ = req.Wait(waitCtx(t))

	got := c.DismissNotices()
	require.Len(t, got, 1)
	assert.Contains(t, got[0].String(), "toggle 1 failed: boom")
	assert.Empty(t, c.Notices())
}

func TestEndToEnd(t *testing.T) {
	store := NewMemStore(seed(2)...)
	c := newLoaded(t, store, Options{Search: search.DefaultOptions()})
	ctx := context.Background()

	// create
	req, err := c.Create(ctx, "Pay rent", "due 1st")
	require.NoError(t, err)
	require.NoError(t, req.Wait(waitCtx(t)))
	id := req.Task().ID
	require.NotEmpty(t, id)
	assert.Equal(t, id, c.View().All[0].ID)
	assert.Equal(t, 3, c.View().OpenCount)

	// rename shows before the store answers
	h := store.Hold("update:" + id)
	req, err = c.Rename(ctx, id, "Pay rent early")
	require.NoError(t, err)
	assert.Equal(t, "Pay rent early", find(t, c, id).Name)
	h.Release()
	require.NoError(t, req.Wait(waitCtx(t)))

	// toggle; count moves only after reconciliation
	h = store.Hold("update:" + id)
	req, err = c.Toggle(ctx, id)
	require.NoError(t, err)
	h.Arrived(t)
	assert.Equal(t, 3, c.View().OpenCount)
	h.Release()
	require.NoError(t, req.Wait(waitCtx(t)))
	assert.Equal(t, 2, c.View().OpenCount)

	// delete
	req, err = c.Delete(ctx, id, always(true))
	require.NoError(t, err)
	require.NoError(t, req.Wait(waitCtx(t)))

	v := c.View()
	assert.NotContains(t, ids(v.All), id)
	assert.Equal(t, 2, v.OpenCount)
	c.SetQuery("rent")
	assert.Empty(t, c.View().Tasks)
	assert.Empty(t, c.Notices())
}
