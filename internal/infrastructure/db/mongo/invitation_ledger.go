package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/greenviewsolutions/portal/internal/core/domain"
	"github.com/greenviewsolutions/portal/internal/core/ports"
)

const collectionInvites = "customer_invites"

// InvitationLedger implements ports.InvitationLedger using MongoDB.
// Pending rows for the same email are not deduplicated.
type InvitationLedger struct {
	col *mongo.Collection
}

// NewInvitationLedger creates a new InvitationLedger.
func NewInvitationLedger(db *mongo.Database) *InvitationLedger {
	return &InvitationLedger{col: db.Collection(collectionInvites)}
}

var _ ports.InvitationLedger = (*InvitationLedger)(nil)

type inviteDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Email     string             `bson:"email"`
	FirstName string             `bson:"first_name"`
	LastName  string             `bson:"last_name"`
	Status    string             `bson:"status"`
	UserID    string             `bson:"user_id,omitempty"`
	CreatedAt time.Time          `bson:"created_at"`
}

// Insert appends an invitation row and sets inv.ID.
func (l *InvitationLedger) Insert(ctx context.Context, inv *domain.Invitation) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	created := inv.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	res, err := l.col.InsertOne(ctx, inviteDoc{
		Email:     domain.NormalizeEmail(inv.Email),
		FirstName: inv.FirstName,
		LastName:  inv.LastName,
		Status:    string(inv.Status),
		UserID:    inv.UserID,
		CreatedAt: created.UTC(),
	})
	if err != nil {
		return fmt.Errorf("insert invite: %w", err)
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		inv.ID = oid.Hex()
	}
	return nil
}

// FindPendingByEmail returns the oldest pending invitation for email.
func (l *InvitationLedger) FindPendingByEmail(ctx context.Context, email string) (*domain.Invitation, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{
		"email":  domain.NormalizeEmail(email),
		"status": string(domain.InvitationPending),
	}
	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: 1}})

	var d inviteDoc
	if err := l.col.FindOne(ctx, filter, opts).Decode(&d); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("find invite: %w", err)
	}
	return &domain.Invitation{
		ID:        d.ID.Hex(),
		Email:     d.Email,
		FirstName: d.FirstName,
		LastName:  d.LastName,
		Status:    domain.InvitationStatus(d.Status),
		UserID:    d.UserID,
		CreatedAt: d.CreatedAt.UTC(),
	}, true, nil
}

// EnsureIndexes creates the lookup index on the invites collection.
func (l *InvitationLedger) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := l.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "email", Value: 1}, {Key: "status", Value: 1}, {Key: "created_at", Value: 1}},
	})
	return err
}
