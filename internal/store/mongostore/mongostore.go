// Package mongostore implements store.Gateway on MongoDB, one collection per entity type.
package mongostore

import (
	"context"
	"errors"
	"fmt"

	"github.com/suteetoe/howyoufell/internal/model"
	"github.com/suteetoe/howyoufell/internal/store"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Store is a Gateway over a mongo database
type Store struct {
	db *mongo.Database
}

var _ store.Gateway = (*Store)(nil)

// New wraps an already connected database
func New(db *mongo.Database) *Store {
	return &Store{db: db}
}

// Database returns the underlying database
func (s *Store) Database() *mongo.Database {
	return s.db
}

// collection opens a typed handle per call; pooling is left to the driver
func (s *Store) collection(name string) *mongo.Collection {
	return s.db.Collection(name)
}

func (s *Store) InsertTenant(ctx context.Context, tenant *model.Tenant) error {
	if _, err := s.collection(store.TenantCollection).InsertOne(ctx, tenant); err != nil {
		return fmt.Errorf("failed to insert tenant: %w", err)
	}
	return nil
}

func (s *Store) FindTenant(ctx context.Context, filter store.TenantFilter) (*model.Tenant, error) {
	var tenant model.Tenant
	err := s.collection(store.TenantCollection).FindOne(ctx, tenantFilter(filter)).Decode(&tenant)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find tenant: %w", err)
	}
	return &tenant, nil
}

func (s *Store) InsertPerson(ctx context.Context, person *model.Person) error {
	if _, err := s.collection(store.PersonCollection).InsertOne(ctx, person); err != nil {
		return fmt.Errorf("failed to insert person: %w", err)
	}
	return nil
}

func (s *Store) FindPerson(ctx context.Context, filter store.PersonFilter) (*model.Person, error) {
	var person model.Person
	err := s.collection(store.PersonCollection).FindOne(ctx, personFilter(filter)).Decode(&person)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find person: %w", err)
	}
	return &person, nil
}

func (s *Store) PushPersonFelling(ctx context.Context, filter store.PersonFilter, felling model.PersonFelling) (int64, error) {
	update := bson.D{{Key: "$push", Value: bson.D{{Key: "Fellings", Value: felling}}}}
	res, err := s.collection(store.PersonCollection).UpdateOne(ctx, personFilter(filter), update)
	if err != nil {
		return 0, fmt.Errorf("failed to push felling: %w", err)
	}
	return res.MatchedCount, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.Client().Ping(ctx, readpref.Primary())
}

func (s *Store) Close(ctx context.Context) error {
	return s.db.Client().Disconnect(ctx)
}

func tenantFilter(f store.TenantFilter) bson.D {
	filter := bson.D{{Key: "_id", Value: f.ID}}
	if f.RequireMember {
		filter = append(filter, bson.E{
			Key:   "Equips",
			Value: bson.D{{Key: "$elemMatch", Value: bson.D{{Key: "AllowEmails", Value: f.MemberEmail}}}},
		})
	}
	return filter
}

func personFilter(f store.PersonFilter) bson.D {
	return bson.D{{Key: "Email", Value: f.Email}}
}
