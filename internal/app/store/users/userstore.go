package userstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/eventhub/internal/app/system/normalize"
	"github.com/dalemusser/eventhub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/crypto/bcrypt"
)

// BcryptCost for hashing passwords.
const BcryptCost = 10

var (
	// ErrDuplicateEmail is returned when attempting to create a user with an email that already exists.
	ErrDuplicateEmail = errors.New("a user with this email already exists")
	// ErrNotFound is returned when no user matches the lookup.
	ErrNotFound  = errors.New("user not found")
	errBadRole   = errors.New(`role must be "admin"|"member"`)
	errBadStatus = errors.New(`status must be "active"|"disabled"`)
	errNoEmail   = errors.New("email is required")
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("users")}
}

// EnsureIndexes creates the unique email index and the phone lookup index.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.c.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetName("uniq_users_email").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "phone", Value: 1}},
			Options: options.Index().SetName("idx_users_phone").SetSparse(true),
		},
	})
	return err
}

// Create inserts a new user after normalizing fields and hashing password.
func (s *Store) Create(ctx context.Context, u models.User, password string) (models.User, error) {
	u.ID = primitive.NewObjectID()
	u.Email = normalize.Email(u.Email)
	u.Names = normalize.Name(u.Names)
	u.NamesCI = normalize.NameCI(u.Names)
	u.Phone = normalize.Phone(u.Phone)
	u.Role = normalize.Role(u.Role)
	u.Status = normalize.Status(u.Status)
	if u.Role == "" {
		u.Role = "member"
	}
	if u.Status == "" {
		u.Status = models.StatusActive
	}

	if u.Email == "" {
		return models.User{}, errNoEmail
	}
	switch u.Role {
	case "admin", "member":
	default:
		return models.User{}, errBadRole
	}
	switch u.Status {
	case models.StatusActive, models.StatusDisabled:
	default:
		return models.User{}, errBadStatus
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return models.User{}, fmt.Errorf("hash password: %w", err)
	}
	u.PasswordHash = string(hash)

	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, u); err != nil {
		if wafflemongo.IsDup(err) {
			return models.User{}, ErrDuplicateEmail
		}
		return models.User{}, err
	}
	return u, nil
}

// GetByID loads a user by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

// GetByEmail looks up a user by case-insensitive email.
func (s *Store) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findOne(ctx, bson.M{"email": normalize.Email(email)})
}

// GetByPhone looks up a user by normalized phone number.
func (s *Store) GetByPhone(ctx context.Context, phone string) (*models.User, error) {
	p := normalize.Phone(phone)
	if p == "" {
		return nil, ErrNotFound
	}
	return s.findOne(ctx, bson.M{"phone": p})
}

func (s *Store) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, filter).Decode(&u); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// CheckPassword reports whether password matches u's stored hash.
func CheckPassword(u *models.User, password string) bool {
	if u == nil || u.PasswordHash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

// SetPassword replaces the password hash of id.
func (s *Store) SetPassword(ctx context.Context, id primitive.ObjectID, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return s.set(ctx, id, bson.M{"password_hash": string(hash)})
}

// SetContact updates the display names and phone copied from a form.
// Empty arguments leave the stored value unchanged.
func (s *Store) SetContact(ctx context.Context, id primitive.ObjectID, names, phone string) error {
	set := bson.M{}
	if n := normalize.Name(names); n != "" {
		set["names"] = n
		set["names_ci"] = normalize.NameCI(n)
	}
	if p := normalize.Phone(phone); p != "" {
		set["phone"] = p
	}
	if len(set) == 0 {
		return nil
	}
	return s.set(ctx, id, set)
}

// SetStatus enables or disables an account.
func (s *Store) SetStatus(ctx context.Context, id primitive.ObjectID, st string) error {
	st = normalize.Status(st)
	if st != models.StatusActive && st != models.StatusDisabled {
		return errBadStatus
	}
	return s.set(ctx, id, bson.M{"status": st})
}

// SetRole changes an account's role.
func (s *Store) SetRole(ctx context.Context, id primitive.ObjectID, role string) error {
	role = normalize.Role(role)
	if role != "admin" && role != "member" {
		return errBadRole
	}
	return s.set(ctx, id, bson.M{"role": role})
}

func (s *Store) set(ctx context.Context, id primitive.ObjectID, set bson.M) error {
	set["updated_at"] = time.Now().UTC()
	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// GetByIDs loads multiple users by ObjectID.
func (s *Store) GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	cur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []models.User
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetByEmails loads the users holding any of emails, keyed by normalized
// email.
func (s *Store) GetByEmails(ctx context.Context, emails []string) (map[string]models.User, error) {
	norm := make([]string, 0, len(emails))
	for _, e := range emails {
		if e = normalize.Email(e); e != "" {
			norm = append(norm, e)
		}
	}
	out := make(map[string]models.User, len(norm))
	if len(norm) == 0 {
		return out, nil
	}
	cur, err := s.c.Find(ctx, bson.M{"email": bson.M{"$in": norm}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	for cur.Next(ctx) {
		var u models.User
		if err := cur.Decode(&u); err != nil {
			return nil, err
		}
		out[u.Email] = u
	}
	return out, cur.Err()
}
