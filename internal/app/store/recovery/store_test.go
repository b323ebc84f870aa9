package recoverystore_test

import (
	"errors"
	"sync"
	"testing"
	"time"

	recoverystore "github.com/dalemusser/eventhub/internal/app/store/recovery"
	"github.com/dalemusser/eventhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestNew_DefaultExpiry(t *testing.T) {
	db := testutil.SetupTestDB(t)

	if got := recoverystore.New(db, 0).Expiry(); got != recoverystore.DefaultExpiry {
		t.Errorf("expected default expiry %v, got %v", recoverystore.DefaultExpiry, got)
	}
	if got := recoverystore.New(db, -time.Minute).Expiry(); got != recoverystore.DefaultExpiry {
		t.Errorf("expected default expiry %v for negative input, got %v", recoverystore.DefaultExpiry, got)
	}
	if got := recoverystore.New(db, 30*time.Minute).Expiry(); got != 30*time.Minute {
		t.Errorf("expected custom expiry, got %v", got)
	}
}

func TestStore_Create(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := recoverystore.New(db, 0)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	iss, err := store.Create(ctx, primitive.NewObjectID(), recoverystore.ChannelEmail, "a@example.com")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if iss.ID == "" {
		t.Error("expected challenge ID")
	}
	if len(iss.Code) != recoverystore.CodeLength {
		t.Errorf("expected code length %d, got %d", recoverystore.CodeLength, len(iss.Code))
	}
	for _, c := range iss.Code {
		if c < '0' || c > '9' {
			t.Fatalf("code %q contains non-digit", iss.Code)
		}
	}

	if _, err := store.Create(ctx, primitive.NewObjectID(), "pigeon", "x"); !errors.Is(err, recoverystore.ErrBadChannel) {
		t.Errorf("expected ErrBadChannel, got %v", err)
	}
}

func TestStore_Create_ReplacesEarlier(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := recoverystore.New(db, 0)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	userID := primitive.NewObjectID()
	first, err := store.Create(ctx, userID, recoverystore.ChannelSMS, "+573001112233")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := store.Create(ctx, userID, recoverystore.ChannelSMS, "+573001112233"); err != nil {
		t.Fatalf("second Create failed: %v", err)
	}
	if _, err := store.Get(ctx, first.ID); !errors.Is(err, recoverystore.ErrNotFound) {
		t.Errorf("expected first challenge to be gone, got %v", err)
	}
}

func TestStore_VerifyAndConsume(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := recoverystore.New(db, 0)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	userID := primitive.NewObjectID()
	iss, err := store.Create(ctx, userID, recoverystore.ChannelEmail, "a@example.com")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if _, err := store.Consume(ctx, iss.ID, "anything"); !errors.Is(err, recoverystore.ErrNotVerified) {
		t.Errorf("expected ErrNotVerified before verify, got %v", err)
	}
	if _, err := store.VerifyCode(ctx, iss.ID, "000000"); !errors.Is(err, recoverystore.ErrInvalidCode) {
		t.Errorf("expected ErrInvalidCode, got %v", err)
	}

	token, err := store.VerifyCode(ctx, iss.ID, iss.Code)
	if err != nil {
		t.Fatalf("VerifyCode failed: %v", err)
	}
	if token == "" {
		t.Fatal("expected reset token")
	}

	if _, err := store.Consume(ctx, iss.ID, "wrong"); !errors.Is(err, recoverystore.ErrInvalidCode) {
		t.Errorf("expected ErrInvalidCode for wrong token, got %v", err)
	}
	ch, err := store.Consume(ctx, iss.ID, token)
	if err != nil {
		t.Fatalf("Consume failed: %v", err)
	}
	if ch.UserID != userID {
		t.Errorf("UserID = %v, want %v", ch.UserID, userID)
	}
	if _, err := store.Consume(ctx, iss.ID, token); !errors.Is(err, recoverystore.ErrNotFound) {
		t.Errorf("expected ErrNotFound on second consume, got %v", err)
	}
}

func TestStore_VerifyCode_TooManyAttempts(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := recoverystore.New(db, 0)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	iss, err := store.Create(ctx, primitive.NewObjectID(), recoverystore.ChannelEmail, "a@example.com")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	wrong := "000000"
	if iss.Code == wrong {
		wrong = "111111"
	}
	for i := 0; i < recoverystore.MaxVerifyAttempts; i++ {
		if _, err := store.VerifyCode(ctx, iss.ID, wrong); !errors.Is(err, recoverystore.ErrInvalidCode) {
			t.Fatalf("attempt %d: expected ErrInvalidCode, got %v", i+1, err)
		}
	}
	if _, err := store.VerifyCode(ctx, iss.ID, iss.Code); !errors.Is(err, recoverystore.ErrTooManyAttempts) {
		t.Errorf("expected ErrTooManyAttempts, got %v", err)
	}
}

func TestStore_VerifyCode_ConcurrentAttemptsCapped(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := recoverystore.New(db, 0)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	iss, err := store.Create(ctx, primitive.NewObjectID(), recoverystore.ChannelEmail, "a@example.com")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	wrong := "000000"
	if iss.Code == wrong {
		wrong = "111111"
	}

	const callers = 3 * recoverystore.MaxVerifyAttempts
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		invalid  int
		rejected int
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.VerifyCode(ctx, iss.ID, wrong)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case errors.Is(err, recoverystore.ErrInvalidCode):
				invalid++
			case errors.Is(err, recoverystore.ErrTooManyAttempts):
				rejected++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if invalid != recoverystore.MaxVerifyAttempts {
		t.Errorf("expected %d compared guesses, got %d", recoverystore.MaxVerifyAttempts, invalid)
	}
	if rejected != callers-recoverystore.MaxVerifyAttempts {
		t.Errorf("expected %d rejected guesses, got %d", callers-recoverystore.MaxVerifyAttempts, rejected)
	}
	if _, err := store.VerifyCode(ctx, iss.ID, iss.Code); !errors.Is(err, recoverystore.ErrTooManyAttempts) {
		t.Errorf("expected ErrTooManyAttempts for the right code after the cap, got %v", err)
	}
}

func TestStore_VerifyCode_UnknownChallenge(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := recoverystore.New(db, 0)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := store.VerifyCode(ctx, "no-such-id", "123456"); !errors.Is(err, recoverystore.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_Resend(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := recoverystore.New(db, 0)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	iss, err := store.Create(ctx, primitive.NewObjectID(), recoverystore.ChannelEmail, "a@example.com")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	var last *recoverystore.Issued
	for i := 1; i <= recoverystore.MaxResends; i++ {
		last, _, err = store.Resend(ctx, iss.ID)
		if err != nil {
			t.Fatalf("resend %d failed: %v", i, err)
		}
		if last.ResendCount != i {
			t.Errorf("resend %d: ResendCount = %d", i, last.ResendCount)
		}
	}
	if _, _, err := store.Resend(ctx, iss.ID); !errors.Is(err, recoverystore.ErrTooManyResends) {
		t.Errorf("expected ErrTooManyResends, got %v", err)
	}

	if _, err := store.VerifyCode(ctx, iss.ID, last.Code); err != nil {
		t.Errorf("latest code should verify: %v", err)
	}
}

func TestStore_Delete(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := recoverystore.New(db, 0)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	iss, err := store.Create(ctx, primitive.NewObjectID(), recoverystore.ChannelEmail, "a@example.com")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := store.Delete(ctx, iss.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := store.Delete(ctx, iss.ID); err != nil {
		t.Errorf("second Delete should be a no-op, got %v", err)
	}
	if _, err := store.Get(ctx, iss.ID); !errors.Is(err, recoverystore.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
