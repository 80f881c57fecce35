package mongo

import (
	"context"
	"errors"
	"fmt"

	"tienda_srv/internal/report"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const usersCollection = "users"

// UserStore resolves display names from the users collection. User
// documents are keyed by the auth provider's uid string.
type UserStore struct {
	col *mongo.Collection
}

// NewUserStore builds the directory adapter over the users collection.
func NewUserStore(db *mongo.Database) *UserStore {
	return &UserStore{col: db.Collection(usersCollection)}
}

// DisplayName implements report.UserDirectory.
func (s *UserStore) DisplayName(ctx context.Context, userID string) (string, error) {
	var doc struct {
		DisplayName string `bson:"displayName"`
	}

	err := s.col.FindOne(ctx, bson.M{"_id": userID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return "", report.ErrUserNotFound
	}
	if err != nil {
		return "", fmt.Errorf("find user %s: %w", userID, err)
	}

	if doc.DisplayName == "" {
		return "", report.ErrUserNotFound
	}
	return doc.DisplayName, nil
}
