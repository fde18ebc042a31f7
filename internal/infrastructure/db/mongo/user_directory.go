// Package mongo provides the MongoDB-backed user directory, for deployments
// that already run Mongo instead of the default embedded SQLite store.
package mongo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/authkeep/auth-service/internal/core/domain"
)

const (
	usersCollection = "users"
	defaultTimeout  = 10 * time.Second
)

// Config captures the minimal settings required to establish a connection.
type Config struct {
	URI      string
	Database string
	Timeout  time.Duration
}

// Store implements ports.UserDirectory over a MongoDB collection.
type Store struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// Open connects, verifies connectivity with a ping, and ensures the unique
// indexes the conflict mapping relies on.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(connectCtx)
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	store := &Store{
		client: client,
		coll:   client.Database(cfg.Database).Collection(usersCollection),
	}
	if err := store.ensureIndexes(connectCtx); err != nil {
		_ = client.Disconnect(connectCtx)
		return nil, err
	}
	return store, nil
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_username"),
		},
		{
			// Sparse: users without an email must not collide.
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetSparse(true).SetName("uniq_email"),
		},
	}
	if _, err := s.coll.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("mongo ensure indexes: %w", err)
	}
	return nil
}

// Close disconnects the underlying client.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// Ping reports whether the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

type mongoUser struct {
	Username       string `bson:"username"`
	PasswordHash   string `bson:"password_hash"`
	Role           string `bson:"role"`
	CreationMethod string `bson:"creation_method"`
	CreatedAt      int64  `bson:"created_at"`
	Email          string `bson:"email,omitempty"`
	IsActive       bool   `bson:"is_active"`
}

func (s *Store) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	doc := mongoUser{
		Username:       user.Username,
		PasswordHash:   user.PasswordHash,
		Role:           user.Role,
		CreationMethod: user.CreationMethod,
		CreatedAt:      user.CreatedAt.Unix(),
		Email:          user.Email,
		IsActive:       user.IsActive,
	}

	if _, err := s.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			if strings.Contains(err.Error(), "uniq_email") {
				return nil, domain.ErrEmailTaken
			}
			return nil, domain.ErrUsernameTaken
		}
		return nil, fmt.Errorf("mongo insert user: %w", err)
	}

	clone := *user
	return &clone, nil
}

func (s *Store) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	return s.findOne(ctx, bson.M{"username": username})
}

func (s *Store) FindByIdentifier(ctx context.Context, identifier string) (*domain.User, error) {
	return s.findOne(ctx, bson.M{"$or": bson.A{
		bson.M{"username": identifier},
		bson.M{"email": identifier},
	}})
}

func (s *Store) findOne(ctx context.Context, filter bson.M) (*domain.User, error) {
	var mu mongoUser
	if err := s.coll.FindOne(ctx, filter).Decode(&mu); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("mongo find user: %w", err)
	}

	return &domain.User{
		Username:       mu.Username,
		PasswordHash:   mu.PasswordHash,
		Role:           mu.Role,
		CreationMethod: mu.CreationMethod,
		CreatedAt:      time.Unix(mu.CreatedAt, 0).UTC(),
		Email:          mu.Email,
		IsActive:       mu.IsActive,
	}, nil
}
