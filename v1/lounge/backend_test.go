package lounge

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	loungeerrors "github.com/mirkobrombin/go-lounge/v1/errors"
	"github.com/mirkobrombin/go-lounge/v1/lock"
	"github.com/mirkobrombin/go-lounge/v1/notify"
	"github.com/mirkobrombin/go-lounge/v1/store"
)

// newBackedCoordinator wires the coordinator to the production backends:
// Redis for the lock and waiting list, a relational database for
// examinations and identities.
func newBackedCoordinator(t *testing.T) (*Coordinator, context.Context) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run: %v", err)
	}
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = client.Close()
		mr.Close()
	})

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	ctx := context.Background()
	dir := store.NewGormDirectory(db)
	for _, id := range []store.Identity{
		{UserID: "user-a", DisplayName: "Ada"},
		{UserID: "prov-x", DisplayName: "Dr. Xiu"},
	} {
		if err := dir.Put(ctx, id); err != nil {
			t.Fatalf("put identity: %v", err)
		}
	}

	coord := New(
		lock.NewRedis(client),
		store.NewRedisWaiting(client, store.WithWaitingPrefix(t.Name())),
		store.NewGormExam(db, store.WithExamTableName(t.Name())),
		dir,
		notify.NewRecorder(),
	)
	return coord, ctx
}

func TestBackedCoordinatorRoundTrip(t *testing.T) {
	coord, ctx := newBackedCoordinator(t)

	pos, err := coord.Enqueue(ctx, Visitor{ID: "a", UserID: "user-a"}, "checkup")
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if pos != 1 {
		t.Fatalf("position = %d, want 1", pos)
	}
	if _, err := coord.Enqueue(ctx, Visitor{ID: "a", UserID: "user-a"}, ""); !errors.Is(err, loungeerrors.ErrAlreadyQueued) {
		t.Fatalf("duplicate enqueue err = %v, want ErrAlreadyQueued", err)
	}

	res, err := coord.Pickup(ctx, "prov-x", "")
	if err != nil {
		t.Fatalf("pickup: %v", err)
	}
	if res.VisitorID != "a" || res.VisitorName != "Ada" {
		t.Fatalf("picked up %s (%s), want a (Ada)", res.VisitorID, res.VisitorName)
	}

	// Queue empty on the Redis side, examination in progress on the
	// relational side.
	if _, err := coord.Pickup(ctx, "prov-y", ""); !errors.Is(err, loungeerrors.ErrEmptyQueue) {
		t.Fatalf("second pickup err = %v, want ErrEmptyQueue", err)
	}
	detail, err := coord.ProviderExamination(ctx, "prov-x")
	if err != nil {
		t.Fatalf("provider examination: %v", err)
	}
	if detail.PartnerName != "Ada" {
		t.Fatalf("partner = %q, want Ada", detail.PartnerName)
	}
	visitorSide, err := coord.VisitorExamination(ctx, "a")
	if err != nil {
		t.Fatalf("visitor examination: %v", err)
	}
	if visitorSide.PartnerName != "Dr. Xiu" {
		t.Fatalf("partner = %q, want Dr. Xiu", visitorSide.PartnerName)
	}

	done, err := coord.Complete(ctx, "prov-x", "a")
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if done.VisitorName != "Ada" {
		t.Fatalf("completed visitor name = %q, want Ada", done.VisitorName)
	}
	if _, err := coord.Complete(ctx, "prov-x", "a"); !errors.Is(err, loungeerrors.ErrNotFound) {
		t.Fatalf("second complete err = %v, want ErrNotFound", err)
	}
}

func TestBackedCoordinatorExitKeepsPositionsDense(t *testing.T) {
	coord, ctx := newBackedCoordinator(t)

	for _, id := range []string{"a", "b", "c"} {
		if _, err := coord.Enqueue(ctx, Visitor{ID: id, UserID: "user-" + id}, ""); err != nil {
			t.Fatalf("enqueue %s: %v", id, err)
		}
	}
	if _, err := coord.Exit(ctx, "b"); err != nil {
		t.Fatalf("exit: %v", err)
	}

	var got []EntrySummary
	for s, err := range coord.WaitingList(ctx) {
		if err != nil {
			t.Fatalf("waiting list: %v", err)
		}
		got = append(got, s)
	}
	if len(got) != 2 || got[0].VisitorID != "a" || got[0].Position != 1 ||
		got[1].VisitorID != "c" || got[1].Position != 2 {
		t.Fatalf("waiting list after exit = %+v", got)
	}

	item, err := coord.QueueItem(ctx, "c")
	if err != nil {
		t.Fatalf("queue item: %v", err)
	}
	if item.Position != 2 {
		t.Fatalf("position = %d, want 2", item.Position)
	}
}
