// Package pgstore implements store.Gateway on PostgreSQL through gorm.
//
// Each entity type gets a table named like its collection holding the
// identifier and the JSON document. Filters run against the jsonb body.
package pgstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/suteetoe/howyoufell/internal/model"
	"github.com/suteetoe/howyoufell/internal/store"
	"gorm.io/gorm"
)

// document is the row layout shared by every table
type document struct {
	ID   string `gorm:"primaryKey;type:char(24)"`
	Body string `gorm:"type:jsonb;not null"`
}

// Store is a Gateway over a gorm connection
type Store struct {
	db *gorm.DB
}

var _ store.Gateway = (*Store)(nil)

// New wraps db and creates the tables when missing
func New(db *gorm.DB) (*Store, error) {
	for _, table := range []string{store.TenantCollection, store.PersonCollection} {
		if err := db.Table(table).AutoMigrate(&document{}); err != nil {
			return nil, fmt.Errorf("failed to migrate %s table: %w", table, err)
		}
	}
	return &Store{db: db}, nil
}

func (s *Store) table(ctx context.Context, name string) *gorm.DB {
	return s.db.WithContext(ctx).Table(name)
}

func (s *Store) InsertTenant(ctx context.Context, tenant *model.Tenant) error {
	return s.insert(ctx, store.TenantCollection, tenant.ID, tenant)
}

func (s *Store) FindTenant(ctx context.Context, filter store.TenantFilter) (*model.Tenant, error) {
	query := s.table(ctx, store.TenantCollection).Where("id = ?", filter.ID.Hex())
	if filter.RequireMember {
		contains, err := memberContainment(filter.MemberEmail)
		if err != nil {
			return nil, err
		}
		query = query.Where("body -> 'equips' @> ?::jsonb", contains)
	}

	var tenant model.Tenant
	if err := first(query, &tenant); err != nil {
		return nil, err
	}
	return &tenant, nil
}

func (s *Store) InsertPerson(ctx context.Context, person *model.Person) error {
	return s.insert(ctx, store.PersonCollection, person.ID, person)
}

func (s *Store) FindPerson(ctx context.Context, filter store.PersonFilter) (*model.Person, error) {
	var person model.Person
	if err := first(s.personQuery(ctx, filter), &person); err != nil {
		return nil, err
	}
	return &person, nil
}

// PushPersonFelling appends inside a single UPDATE so concurrent pushes do not lose entries
func (s *Store) PushPersonFelling(ctx context.Context, filter store.PersonFilter, felling model.PersonFelling) (int64, error) {
	entry, err := json.Marshal([]model.PersonFelling{felling})
	if err != nil {
		return 0, fmt.Errorf("failed to encode felling: %w", err)
	}

	target := s.personQuery(ctx, filter).Select("id").Order("id").Limit(1)
	res := s.table(ctx, store.PersonCollection).
		Where("id = (?)", target).
		Update("body", gorm.Expr(
			"jsonb_set(body, '{fellings}', coalesce(body -> 'fellings', '[]'::jsonb) || ?::jsonb)",
			string(entry),
		))
	if res.Error != nil {
		return 0, fmt.Errorf("failed to push felling: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *Store) Close(context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *Store) personQuery(ctx context.Context, filter store.PersonFilter) *gorm.DB {
	return s.table(ctx, store.PersonCollection).Where("body ->> 'email' = ?", filter.Email)
}

func (s *Store) insert(ctx context.Context, table string, id model.ID, entity any) error {
	body, err := json.Marshal(entity)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", table, err)
	}
	if err := s.table(ctx, table).Create(&document{ID: id.Hex(), Body: string(body)}).Error; err != nil {
		return fmt.Errorf("failed to insert %s: %w", table, err)
	}
	return nil
}

// first decodes the lowest-id row of query into out
func first(query *gorm.DB, out any) error {
	var doc document
	err := query.Order("id").Take(&doc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return store.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to query document: %w", err)
	}
	if err := json.Unmarshal([]byte(doc.Body), out); err != nil {
		return fmt.Errorf("failed to decode document %s: %w", doc.ID, err)
	}
	return nil
}

// memberContainment builds the jsonb value matched by an equip listing email
func memberContainment(email string) (string, error) {
	value, err := json.Marshal([]map[string][]string{{"allowEmails": {email}}})
	if err != nil {
		return "", fmt.Errorf("failed to encode member filter: %w", err)
	}
	return string(value), nil
}
