// internal/app/store/recovery/store.go
package recoverystore

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/crypto/bcrypt"
)

const (
	// CodeLength is the length of the recovery code (6 digits).
	CodeLength = 6
	// ResetTokenLength is the reset token size in bytes (32 bytes = 64 hex chars).
	ResetTokenLength = 32
	// DefaultExpiry is how long a challenge stays usable.
	DefaultExpiry = 10 * time.Minute
	// BcryptCost for hashing codes.
	BcryptCost = 10
	// MaxVerifyAttempts is the maximum number of code checks per challenge.
	MaxVerifyAttempts = 5
	// MaxResends is the maximum number of code resends per challenge.
	MaxResends = 3
)

// Delivery channels.
const (
	ChannelEmail = "email"
	ChannelSMS   = "sms"
)

var (
	// ErrNotFound is returned when a challenge is not found or expired.
	ErrNotFound = errors.New("recovery challenge not found or expired")
	// ErrInvalidCode is returned when the code doesn't match.
	ErrInvalidCode = errors.New("invalid recovery code")
	// ErrTooManyAttempts is returned when too many code checks have been made.
	ErrTooManyAttempts = errors.New("too many verification attempts")
	// ErrTooManyResends is returned when the resend allowance is used up.
	ErrTooManyResends = errors.New("too many resend requests")
	// ErrNotVerified is returned when a reset is attempted before the code was verified.
	ErrNotVerified = errors.New("recovery code not verified")
	// ErrBadChannel is returned for a channel other than email or sms.
	ErrBadChannel = errors.New(`channel must be "email" or "sms"`)
)

// Challenge is one in-progress password recovery.
type Challenge struct {
	ID          string             `bson:"_id"`
	UserID      primitive.ObjectID `bson:"user_id"`
	Channel     string             `bson:"channel"`
	Destination string             `bson:"destination"`
	CodeHash    string             `bson:"code_hash"`
	Verified    bool               `bson:"verified"`
	ResetHash   string             `bson:"reset_hash,omitempty"`
	Attempts    int                `bson:"attempts"`
	ResendCount int                `bson:"resend_count"`
	ExpiresAt   time.Time          `bson:"expires_at"` // TTL index field
	CreatedAt   time.Time          `bson:"created_at"`
}

// Store manages recovery challenges.
type Store struct {
	c      *mongo.Collection
	expiry time.Duration
}

// New creates a new Store with the specified expiry duration.
// If expiry is 0 or negative, DefaultExpiry is used.
func New(db *mongo.Database, expiry time.Duration) *Store {
	if expiry <= 0 {
		expiry = DefaultExpiry
	}
	return &Store{
		c:      db.Collection("recovery_challenges"),
		expiry: expiry,
	}
}

// Expiry returns the lifetime of a challenge.
func (s *Store) Expiry() time.Duration {
	return s.expiry
}

// EnsureIndexes creates the TTL index for auto-cleanup and the user lookup index.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetName("idx_recovery_expires_ttl").SetExpireAfterSeconds(0),
		},
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().SetName("idx_recovery_user"),
		},
	}
	_, err := s.c.Indexes().CreateMany(ctx, indexes)
	return err
}

// Issued is a freshly generated code for a challenge.
type Issued struct {
	ID          string
	Code        string // plain text, to send to the user
	ResendCount int
}

// Create starts a challenge for userID, replacing any earlier one.
func (s *Store) Create(ctx context.Context, userID primitive.ObjectID, channel, destination string) (*Issued, error) {
	if channel != ChannelEmail && channel != ChannelSMS {
		return nil, ErrBadChannel
	}
	code, hash, err := newCode()
	if err != nil {
		return nil, err
	}

	if _, err := s.c.DeleteMany(ctx, bson.M{"user_id": userID}); err != nil {
		return nil, fmt.Errorf("delete old challenges: %w", err)
	}

	now := time.Now().UTC()
	ch := Challenge{
		ID:          uuid.NewString(),
		UserID:      userID,
		Channel:     channel,
		Destination: destination,
		CodeHash:    hash,
		ExpiresAt:   now.Add(s.expiry),
		CreatedAt:   now,
	}
	if _, err := s.c.InsertOne(ctx, ch); err != nil {
		return nil, fmt.Errorf("insert challenge: %w", err)
	}
	return &Issued{ID: ch.ID, Code: code}, nil
}

// Resend replaces the code of an unverified challenge and extends its expiry.
func (s *Store) Resend(ctx context.Context, id string) (*Issued, *Challenge, error) {
	ch, err := s.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if ch.ResendCount >= MaxResends {
		return nil, nil, ErrTooManyResends
	}
	code, hash, err := newCode()
	if err != nil {
		return nil, nil, err
	}
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "verified": false, "resend_count": bson.M{"$lt": MaxResends}},
		bson.M{
			"$set": bson.M{"code_hash": hash, "attempts": 0, "expires_at": time.Now().UTC().Add(s.expiry)},
			"$inc": bson.M{"resend_count": 1},
		},
	)
	if err != nil {
		return nil, nil, err
	}
	if res.MatchedCount == 0 {
		return nil, nil, ErrTooManyResends
	}
	return &Issued{ID: id, Code: code, ResendCount: ch.ResendCount + 1}, ch, nil
}

// Get returns an unexpired challenge.
func (s *Store) Get(ctx context.Context, id string) (*Challenge, error) {
	var ch Challenge
	err := s.c.FindOne(ctx, bson.M{
		"_id":        id,
		"expires_at": bson.M{"$gt": time.Now().UTC()},
	}).Decode(&ch)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &ch, nil
}

// VerifyCode checks code against the challenge and, on success, marks it
// verified and returns the one-time reset token for the final step.
//
// Each call claims one attempt before comparing, in the same update that
// checks the allowance, so concurrent calls never get more than
// MaxVerifyAttempts guesses between them.
func (s *Store) VerifyCode(ctx context.Context, id, code string) (string, error) {
	ch, err := s.claimAttempt(ctx, id)
	if err != nil {
		return "", err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(ch.CodeHash), []byte(code)); err != nil {
		return "", ErrInvalidCode
	}

	token, err := randomHex(ResetTokenLength)
	if err != nil {
		return "", err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(token), BcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash token: %w", err)
	}
	if _, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"verified":   true,
		"reset_hash": string(hash),
	}}); err != nil {
		return "", err
	}
	return token, nil
}

// claimAttempt counts one code check against an unexpired challenge. It
// returns ErrTooManyAttempts once the allowance is used and ErrNotFound for
// a missing or expired challenge.
func (s *Store) claimAttempt(ctx context.Context, id string) (*Challenge, error) {
	now := time.Now().UTC()
	var ch Challenge
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{
			"_id":        id,
			"expires_at": bson.M{"$gt": now},
			"attempts":   bson.M{"$lt": MaxVerifyAttempts},
		},
		bson.M{"$inc": bson.M{"attempts": 1}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&ch)
	if err == nil {
		return &ch, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}
	if _, getErr := s.Get(ctx, id); getErr != nil {
		return nil, getErr
	}
	return nil, ErrTooManyAttempts
}

// Consume checks the reset token of a verified challenge and deletes it.
// The challenge can be consumed once.
func (s *Store) Consume(ctx context.Context, id, token string) (*Challenge, error) {
	ch, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ch.Verified || ch.ResetHash == "" {
		return nil, ErrNotVerified
	}
	if err := bcrypt.CompareHashAndPassword([]byte(ch.ResetHash), []byte(token)); err != nil {
		return nil, ErrInvalidCode
	}
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id, "verified": true})
	if err != nil {
		return nil, err
	}
	if res.DeletedCount == 0 {
		return nil, ErrNotFound
	}
	return ch, nil
}

// Delete removes a challenge. Deleting a missing challenge is not an error.
func (s *Store) Delete(ctx context.Context, id string) error {
	_, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

func newCode() (code, hash string, err error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", "", fmt.Errorf("generate code: %w", err)
	}
	code = fmt.Sprintf("%06d", n.Int64()+100000)
	h, err := bcrypt.GenerateFromPassword([]byte(code), BcryptCost)
	if err != nil {
		return "", "", fmt.Errorf("hash code: %w", err)
	}
	return code, string(h), nil
}

func randomHex(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return hex.EncodeToString(b), nil
}
