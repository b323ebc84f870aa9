package progressstore_test

import (
	"errors"
	"testing"

	progressstore "github.com/dalemusser/eventhub/internal/app/store/progress"
	"github.com/dalemusser/eventhub/internal/domain/models"
	"github.com/dalemusser/eventhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_Record_Monotonic(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := progressstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := store.EnsureIndexes(ctx); err != nil {
		t.Fatalf("EnsureIndexes failed: %v", err)
	}

	userID := primitive.NewObjectID()
	steps := []struct {
		in            models.ActivityProgress
		wantPercent   float64
		wantCompleted bool
	}{
		{models.ActivityProgress{Percent: 40, Seconds: 120}, 40, false},
		{models.ActivityProgress{Percent: 20, Seconds: 60}, 40, false},
		{models.ActivityProgress{Percent: 96, Seconds: 290, Completed: true}, 96, true},
		{models.ActivityProgress{Percent: 50, Seconds: 150}, 96, true},
	}
	for i, st := range steps {
		st.in.UserID = userID
		st.in.ActivityID = "video-1"
		got, err := store.Record(ctx, st.in)
		if err != nil {
			t.Fatalf("step %d: Record failed: %v", i, err)
		}
		if got.Percent != st.wantPercent || got.Completed != st.wantCompleted {
			t.Errorf("step %d: got percent=%v completed=%v, want %v %v",
				i, got.Percent, got.Completed, st.wantPercent, st.wantCompleted)
		}
	}

	got, err := store.Get(ctx, userID, "video-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Seconds != 290 {
		t.Errorf("Seconds = %v, want 290", got.Seconds)
	}
}

func TestStore_Get_NotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := progressstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_, err := store.Get(ctx, primitive.NewObjectID(), "missing")
	if !errors.Is(err, progressstore.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_ListByUser(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := progressstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	userID, other := primitive.NewObjectID(), primitive.NewObjectID()
	for _, p := range []models.ActivityProgress{
		{UserID: userID, ActivityID: "video-1", Percent: 30},
		{UserID: userID, ActivityID: "video-2", Percent: 80},
		{UserID: other, ActivityID: "video-1", Percent: 10},
	} {
		if _, err := store.Record(ctx, p); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}

	got, err := store.ListByUser(ctx, userID)
	if err != nil {
		t.Fatalf("ListByUser failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(got))
	}
	seen := map[string]float64{}
	for _, p := range got {
		if p.UserID != userID {
			t.Errorf("row of another user: %+v", p)
		}
		seen[p.ActivityID] = p.Percent
	}
	if seen["video-1"] != 30 || seen["video-2"] != 80 {
		t.Errorf("rows = %+v", seen)
	}

	empty, err := store.ListByUser(ctx, primitive.NewObjectID())
	if err != nil || len(empty) != 0 {
		t.Errorf("expected no rows, got %v %v", empty, err)
	}
}
