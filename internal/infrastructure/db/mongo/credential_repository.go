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

	"github.com/vaultkeeper/credvault/internal/core/domain"
)

// CredentialRepository stores credential records. Every query that touches an
// existing record filters on {_id, email} in one round trip.
type CredentialRepository struct {
	coll *mongo.Collection
	now  func() time.Time
}

func NewCredentialRepository(db *mongo.Database, collection string) *CredentialRepository {
	if collection == "" {
		collection = DefaultCredentialsCollection
	}
	return &CredentialRepository{
		coll: db.Collection(collection),
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// mongoCredential keeps the field names of existing documents, including the
// misspelled username field and "email" as the owner.
type mongoCredential struct {
	ID              primitive.ObjectID `bson:"_id,omitempty"`
	OwnerEmail      string             `bson:"email"`
	Platform        string             `bson:"platform"`
	UsernameOrEmail string             `bson:"platfromusernameOrEmail"`
	WebsiteURL      string             `bson:"websiteUrl"`
	Description     string             `bson:"description,omitempty"`
	Password        string             `bson:"password"`
	CreatedAt       time.Time          `bson:"createdAt"`
	UpdatedAt       time.Time          `bson:"updatedAt,omitempty"`
}

func (m mongoCredential) toDomain() *domain.Credential {
	return &domain.Credential{
		ID:               m.ID.Hex(),
		OwnerEmail:       m.OwnerEmail,
		Platform:         m.Platform,
		UsernameOrEmail:  m.UsernameOrEmail,
		WebsiteURL:       m.WebsiteURL,
		Description:      m.Description,
		SecretCiphertext: m.Password,
		CreatedAt:        m.CreatedAt.UTC(),
		UpdatedAt:        m.UpdatedAt.UTC(),
	}
}

func ownedFilter(id, ownerEmail string) (bson.M, bool) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, false
	}
	return bson.M{"_id": oid, "email": domain.NormalizeEmail(ownerEmail)}, true
}

func (r *CredentialRepository) Add(ctx context.Context, c *domain.Credential) (*domain.Credential, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := mongoCredential{
		OwnerEmail:      domain.NormalizeEmail(c.OwnerEmail),
		Platform:        c.Platform,
		UsernameOrEmail: c.UsernameOrEmail,
		WebsiteURL:      c.WebsiteURL,
		Description:     c.Description,
		Password:        c.SecretCiphertext,
		CreatedAt:       c.CreatedAt.UTC(),
		UpdatedAt:       c.UpdatedAt.UTC(),
	}
	res, err := r.coll.InsertOne(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("%w: insert credential: %w", domain.ErrStorage, err)
	}
	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected inserted id %T", domain.ErrStorage, res.InsertedID)
	}
	doc.ID = oid
	return doc.toDomain(), nil
}

// ListByOwner sorts by createdAt descending, then _id ascending so records
// created in the same instant keep insertion order.
func (r *CredentialRepository) ListByOwner(ctx context.Context, ownerEmail string) ([]*domain.Credential, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: 1}})
	cur, err := r.coll.Find(ctx, bson.M{"email": domain.NormalizeEmail(ownerEmail)}, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: list credentials: %w", domain.ErrStorage, err)
	}

	var docs []mongoCredential
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("%w: decode credentials: %w", domain.ErrStorage, err)
	}

	out := make([]*domain.Credential, len(docs))
	for i, d := range docs {
		out[i] = d.toDomain()
	}
	return out, nil
}

func (r *CredentialRepository) FindIfOwned(ctx context.Context, id, ownerEmail string) (*domain.Credential, error) {
	filter, ok := ownedFilter(id, ownerEmail)
	if !ok {
		return nil, domain.ErrNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc mongoCredential
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("%w: find credential: %w", domain.ErrStorage, err)
	}
	return doc.toDomain(), nil
}

// UpdateIfOwned applies patch with a single findOneAndUpdate, so a concurrent
// reader sees either the old or the new document.
func (r *CredentialRepository) UpdateIfOwned(ctx context.Context, id, ownerEmail string, patch domain.CredentialPatch) (*domain.Credential, error) {
	filter, ok := ownedFilter(id, ownerEmail)
	if !ok {
		return nil, domain.ErrNotFound
	}

	set := bson.M{"updatedAt": r.now()}
	if patch.Platform != nil {
		set["platform"] = *patch.Platform
	}
	if patch.UsernameOrEmail != nil {
		set["platfromusernameOrEmail"] = *patch.UsernameOrEmail
	}
	if patch.WebsiteURL != nil {
		set["websiteUrl"] = *patch.WebsiteURL
	}
	if patch.Description != nil {
		set["description"] = *patch.Description
	}
	if patch.SecretCiphertext != nil {
		set["password"] = *patch.SecretCiphertext
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc mongoCredential
	err := r.coll.FindOneAndUpdate(ctx, filter, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("%w: update credential: %w", domain.ErrStorage, err)
	}
	return doc.toDomain(), nil
}

func (r *CredentialRepository) DeleteIfOwned(ctx context.Context, id, ownerEmail string) error {
	filter, ok := ownedFilter(id, ownerEmail)
	if !ok {
		return domain.ErrNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.coll.DeleteOne(ctx, filter)
	if err != nil {
		return fmt.Errorf("%w: delete credential: %w", domain.ErrStorage, err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// EnsureIndexes creates the per-owner listing index.
func (r *CredentialRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "email", Value: 1}, {Key: "createdAt", Value: -1}},
	})
	return err
}
