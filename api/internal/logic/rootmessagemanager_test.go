package logic

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/qx/ledger_robot/api/internal/model"
	"github.com/qx/ledger_robot/api/internal/types"
)

func TestRootMessageManager_EnsureTodayMessage(t *testing.T) {
	env := newTestEnv(t)
	roots := env.roots()

	first, err := roots.EnsureTodayMessage(-100, "hello")
	if err != nil {
		t.Fatalf("EnsureTodayMessage failed: %v", err)
	}
	if first.MessageId == 0 || first.Text != "hello" {
		t.Fatalf("unexpected root message: %+v", first)
	}
	if len(env.messenger.pinned) != 1 || env.messenger.pinned[0] != first.MessageId {
		t.Fatalf("root message not pinned: %v", env.messenger.pinned)
	}

	for i := 0; i < 3; i++ {
		env.clock.Advance(time.Hour)
		_, err := roots.EnsureTodayMessage(-100, "again")
		assertErrorIs(t, err, types.ErrAlreadyExists)
	}
	if len(env.messenger.texts) != 1 {
		t.Fatalf("sent %d messages, want 1", len(env.messenger.texts))
	}

	t.Run("other group has its own day", func(t *testing.T) {
		if _, err := roots.EnsureTodayMessage(-200, "other"); err != nil {
			t.Fatalf("EnsureTodayMessage failed: %v", err)
		}
	})

	t.Run("next day opens a new message", func(t *testing.T) {
		env.clock.Advance(24 * time.Hour)
		next, err := roots.EnsureTodayMessage(-100, "tomorrow")
		if err != nil {
			t.Fatalf("EnsureTodayMessage failed: %v", err)
		}
		if next.MessageId == first.MessageId {
			t.Fatal("expected a fresh external message")
		}
	})
}

func TestRootMessageManager_SendFailureLeavesNoRecord(t *testing.T) {
	env := newTestEnv(t)
	env.messenger.sendErr = types.ErrTransport

	_, err := env.roots().EnsureTodayMessage(-100, "hello")
	assertErrorIs(t, err, types.ErrTransport)

	_, _, err = env.roots().GetActive(-100)
	assertErrorIs(t, err, types.ErrNotFound)
}

type failingMessagesModel struct {
	model.MessagesModel
	err error
}

func (m failingMessagesModel) Insert(context.Context, *model.Messages) error {
	return m.err
}

func TestRootMessageManager_InsertFailureUnpins(t *testing.T) {
	env := newTestEnv(t)
	messages := env.svcCtx.MessagesModel
	env.svcCtx.MessagesModel = failingMessagesModel{MessagesModel: messages, err: errors.New("disk full")}

	_, err := env.roots().EnsureTodayMessage(-100, "hello")
	assertErrorIs(t, err, types.ErrPersistence)

	if len(env.messenger.pinned) != 1 {
		t.Fatalf("expected the sent message to be pinned once, got %v", env.messenger.pinned)
	}
	if len(env.messenger.unpinned) != 1 || env.messenger.unpinned[0] != env.messenger.pinned[0] {
		t.Fatalf("unrecorded root message left pinned: unpinned %v", env.messenger.unpinned)
	}

	env.svcCtx.MessagesModel = messages
	if _, err := env.roots().EnsureTodayMessage(-100, "hello"); err != nil {
		t.Fatalf("retry after a failed insert: %v", err)
	}
}

func TestRootMessageManager_GetActive(t *testing.T) {
	env := newTestEnv(t)
	roots := env.roots()

	_, _, err := roots.GetActive(-100)
	assertErrorIs(t, err, types.ErrNotFound)

	created, err := roots.EnsureTodayMessage(-100, "hello")
	if err != nil {
		t.Fatalf("EnsureTodayMessage failed: %v", err)
	}

	msg, isToday, err := roots.GetActive(-100)
	if err != nil {
		t.Fatalf("GetActive failed: %v", err)
	}
	if msg.Id != created.Id || !isToday {
		t.Fatalf("GetActive = %+v, %v", msg, isToday)
	}

	env.clock.Advance(24 * time.Hour)
	msg, isToday, err = roots.GetActive(-100)
	if err != nil {
		t.Fatalf("GetActive failed: %v", err)
	}
	if msg.Id != created.Id || isToday {
		t.Fatalf("day-old message should be stale: %+v, %v", msg, isToday)
	}
}

func TestRootMessageManager_GetForDate(t *testing.T) {
	env := newTestEnv(t)
	roots := env.roots()

	day1, err := roots.EnsureTodayMessage(-100, "day 1")
	if err != nil {
		t.Fatalf("EnsureTodayMessage failed: %v", err)
	}
	env.clock.Advance(24 * time.Hour)
	day2, err := roots.EnsureTodayMessage(-100, "day 2")
	if err != nil {
		t.Fatalf("EnsureTodayMessage failed: %v", err)
	}

	got, err := roots.GetForDate(-100, day1.Created().Add(10*time.Hour))
	if err != nil {
		t.Fatalf("GetForDate failed: %v", err)
	}
	if got.Id != day1.Id {
		t.Errorf("GetForDate returned %+v, want day 1", got)
	}

	got, err = roots.GetForDate(-100, env.clock.Now())
	if err != nil {
		t.Fatalf("GetForDate failed: %v", err)
	}
	if got.Id != day2.Id {
		t.Errorf("GetForDate returned %+v, want day 2", got)
	}

	_, err = roots.GetForDate(-100, env.clock.Now().Add(24*time.Hour))
	assertErrorIs(t, err, types.ErrNotFound)
}
