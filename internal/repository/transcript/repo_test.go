package transcript

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/rueidis/mock"
	"go.uber.org/mock/gomock"

	"github.com/view-avocats/assistant/internal/db"
	"github.com/view-avocats/assistant/internal/db/memory"
	"github.com/view-avocats/assistant/internal/db/redis"
	"github.com/view-avocats/assistant/internal/domain"
	"github.com/view-avocats/assistant/internal/domain/turn"
)

func TestAppendAndLoad(t *testing.T) {
	repo := New(memory.NewStore(), time.Hour)
	ctx := context.Background()

	user, err := turn.NewUser("Quels sont vos horaires ?", 0)
	if err != nil {
		t.Fatal(err)
	}
	reply := turn.NewAssistant("Le cabinet est ouvert de 9h à 18h.")
	fallback := turn.NewFallback("Désolé, une erreur est survenue.")

	if err := repo.Append(ctx, "s1", user, reply); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := repo.Append(ctx, "s1", fallback); err != nil {
		t.Fatalf("Append: %v", err)
	}

	got, err := repo.Load(ctx, "s1")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 turns, got %d", len(got))
	}
	if got[0].ID() != user.ID() || got[0].Role() != domain.RoleUser {
		t.Errorf("first turn mismatch: %+v", got[0])
	}
	if got[1].Text() != reply.Text() {
		t.Errorf("second turn text = %q", got[1].Text())
	}
	if !got[2].Failed() {
		t.Error("fallback status lost in round trip")
	}
	if got[0].CreatedAt().UnixMilli() != user.CreatedAt().UnixMilli() {
		t.Error("created_at lost in round trip")
	}
}

func TestLoad_UnknownSession(t *testing.T) {
	got, err := New(memory.NewStore(), 0).Load(context.Background(), "missing")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected empty transcript, got %d turns", len(got))
	}
}

func TestAppend_NoTurns(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	if err := New(redis.NewStoreForTest(c), time.Hour).Append(context.Background(), "s1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestAppend_RedisCommands(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	gomock.InOrder(
		c.EXPECT().
			Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
				return len(cmd) == 3 && cmd[0] == "RPUSH" && cmd[1] == "assistant:transcript:s1"
			})).
			Return(mock.Result(mock.RedisInt64(1))),
		c.EXPECT().
			Do(gomock.Any(), mock.Match("EXPIRE", "assistant:transcript:s1", "86400")).
			Return(mock.Result(mock.RedisInt64(1))),
	)

	repo := New(redis.NewStoreForTest(c), 24*time.Hour)
	if err := repo.Append(context.Background(), "s1", turn.NewAssistant("ok")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestAppend_StoreError(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), gomock.Any()).
		Return(mock.ErrorResult(errors.New("connection reset")))

	err := New(redis.NewStoreForTest(c), 0).Append(context.Background(), "s1", turn.NewAssistant("ok"))
	var dbErr *db.Error
	if !errors.As(err, &dbErr) || dbErr.Op != db.OpRPush {
		t.Fatalf("expected RPUSH db.Error, got %v", err)
	}
}

func TestLoad_CorruptEntry(t *testing.T) {
	mem := memory.NewStore()
	_ = mem.RPush(context.Background(), "assistant:transcript:s1", []byte("{not json"))

	if _, err := New(mem, 0).Load(context.Background(), "s1"); err == nil {
		t.Fatal("expected decode error")
	}
}
