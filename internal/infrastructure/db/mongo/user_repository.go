package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/taskdesk/todo-service/internal/core/domain"
	"github.com/taskdesk/todo-service/internal/pkg/id"
)

const collectionUsers = "users"

type userDocument struct {
	ID           string    `bson:"_id"`
	Email        string    `bson:"email"`
	Name         string    `bson:"name"`
	AvatarURL    string    `bson:"avatar_url,omitempty"`
	AvatarKey    string    `bson:"avatar_key,omitempty"`
	Role         string    `bson:"role"`
	PasswordHash string    `bson:"password_hash,omitempty"`
	GoogleSub    string    `bson:"google_sub,omitempty"`
	CreatedAt    time.Time `bson:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at"`
}

func (d userDocument) toDomain() *domain.User {
	return &domain.User{
		ID:           d.ID,
		Email:        d.Email,
		Name:         d.Name,
		AvatarURL:    d.AvatarURL,
		AvatarKey:    d.AvatarKey,
		Role:         domain.Role(d.Role),
		PasswordHash: d.PasswordHash,
		GoogleSub:    d.GoogleSub,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

type UserRepository struct {
	col *mongo.Collection
	now func() time.Time
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{col: db.Collection(collectionUsers), now: time.Now}
}

func (r *UserRepository) Create(ctx context.Context, u *domain.User) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if u.ID == "" {
		u.ID = id.New()
	}
	doc := userDocument{
		ID:           u.ID,
		Email:        u.Email,
		Name:         u.Name,
		AvatarURL:    u.AvatarURL,
		AvatarKey:    u.AvatarKey,
		Role:         string(u.Role),
		PasswordHash: u.PasswordHash,
		GoogleSub:    u.GoogleSub,
		CreatedAt:    u.CreatedAt.UTC(),
		UpdatedAt:    u.UpdatedAt.UTC(),
	}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrUserExists
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *UserRepository) FindByID(ctx context.Context, userID string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"_id": userID})
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *UserRepository) FindByGoogleSub(ctx context.Context, sub string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"google_sub": sub})
}

func (r *UserRepository) UpdateProfile(ctx context.Context, userID, name string) (*domain.User, error) {
	return r.updateOne(ctx, userID, bson.M{"name": name})
}

func (r *UserRepository) UpdateAvatar(ctx context.Context, userID, url, key string) (*domain.User, error) {
	return r.updateOne(ctx, userID, bson.M{"avatar_url": url, "avatar_key": key})
}

func (r *UserRepository) UpdateRole(ctx context.Context, userID string, role domain.Role) (*domain.User, error) {
	return r.updateOne(ctx, userID, bson.M{"role": string(role)})
}

func (r *UserRepository) UpdatePassword(ctx context.Context, userID, hash string) error {
	_, err := r.updateOne(ctx, userID, bson.M{"password_hash": hash})
	return err
}

func (r *UserRepository) LinkGoogle(ctx context.Context, userID, sub string) error {
	_, err := r.updateOne(ctx, userID, bson.M{"google_sub": sub})
	return err
}

func (r *UserRepository) Count(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	n, err := r.col.CountDocuments(ctx, bson.D{})
	if err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

// EnsureIndexes enforces unique emails and unique linked Google accounts.
func (r *UserRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, indexTimeout)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "google_sub", Value: 1}}, Options: options.Index().SetUnique(true).SetSparse(true)},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc userDocument
	if err := r.col.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *UserRepository) updateOne(ctx context.Context, userID string, set bson.M) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	set["updated_at"] = r.now().UTC()
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc userDocument
	err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": userID}, bson.M{"$set": set}, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrUserExists
		}
		return nil, fmt.Errorf("update user: %w", err)
	}
	return doc.toDomain(), nil
}
