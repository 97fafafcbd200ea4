// Package memstore is an in-process Gateway backed by go-memdb.
package memstore

import (
	"context"
	"fmt"
	"slices"

	"github.com/hashicorp/go-memdb"
	"github.com/suteetoe/howyoufell/internal/model"
	"github.com/suteetoe/howyoufell/internal/store"
)

const (
	idIndex    = "id"
	emailIndex = "email"
)

type tenantRow struct {
	ID     string
	Tenant *model.Tenant
}

type personRow struct {
	ID     string
	Email  string
	Person *model.Person
}

func schema() *memdb.DBSchema {
	return &memdb.DBSchema{
		Tables: map[string]*memdb.TableSchema{
			store.TenantCollection: {
				Name: store.TenantCollection,
				Indexes: map[string]*memdb.IndexSchema{
					idIndex: {
						Name:    idIndex,
						Unique:  true,
						Indexer: &memdb.StringFieldIndex{Field: "ID"},
					},
				},
			},
			store.PersonCollection: {
				Name: store.PersonCollection,
				Indexes: map[string]*memdb.IndexSchema{
					idIndex: {
						Name:    idIndex,
						Unique:  true,
						Indexer: &memdb.StringFieldIndex{Field: "ID"},
					},
					emailIndex: {
						Name:    emailIndex,
						Indexer: emailIndexer{},
					},
				},
			},
		},
	}
}

// Store keeps documents in memory. Stored values are copies, so callers may
// freely modify what they pass in or get back.
type Store struct {
	db *memdb.MemDB
}

var _ store.Gateway = (*Store)(nil)

// New creates an empty store
func New() (*Store, error) {
	db, err := memdb.NewMemDB(schema())
	if err != nil {
		return nil, fmt.Errorf("failed to create memdb: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) InsertTenant(_ context.Context, tenant *model.Tenant) error {
	txn := s.db.Txn(true)
	defer txn.Abort()

	row := &tenantRow{ID: tenant.ID.Hex(), Tenant: cloneTenant(tenant)}
	if err := txn.Insert(store.TenantCollection, row); err != nil {
		return fmt.Errorf("failed to insert tenant: %w", err)
	}
	txn.Commit()
	return nil
}

func (s *Store) FindTenant(_ context.Context, filter store.TenantFilter) (*model.Tenant, error) {
	txn := s.db.Txn(false)
	defer txn.Abort()

	raw, err := txn.First(store.TenantCollection, idIndex, filter.ID.Hex())
	if err != nil {
		return nil, fmt.Errorf("failed to query tenant: %w", err)
	}
	if raw == nil {
		return nil, store.ErrNotFound
	}

	tenant := raw.(*tenantRow).Tenant
	if filter.RequireMember && !tenant.HasMember(filter.MemberEmail) {
		return nil, store.ErrNotFound
	}
	return cloneTenant(tenant), nil
}

func (s *Store) InsertPerson(_ context.Context, person *model.Person) error {
	txn := s.db.Txn(true)
	defer txn.Abort()

	row := &personRow{ID: person.ID.Hex(), Email: person.Email, Person: clonePerson(person)}
	if err := txn.Insert(store.PersonCollection, row); err != nil {
		return fmt.Errorf("failed to insert person: %w", err)
	}
	txn.Commit()
	return nil
}

func (s *Store) FindPerson(_ context.Context, filter store.PersonFilter) (*model.Person, error) {
	txn := s.db.Txn(false)
	defer txn.Abort()

	row, err := firstPerson(txn, filter)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, store.ErrNotFound
	}
	return clonePerson(row.Person), nil
}

func (s *Store) PushPersonFelling(_ context.Context, filter store.PersonFilter, felling model.PersonFelling) (int64, error) {
	txn := s.db.Txn(true)
	defer txn.Abort()

	row, err := firstPerson(txn, filter)
	if err != nil {
		return 0, err
	}
	if row == nil {
		return 0, nil
	}

	person := clonePerson(row.Person)
	person.Fellings = append(person.Fellings, felling)
	if err := txn.Insert(store.PersonCollection, &personRow{ID: row.ID, Email: row.Email, Person: person}); err != nil {
		return 0, fmt.Errorf("failed to update person: %w", err)
	}
	txn.Commit()
	return 1, nil
}

// Count returns the number of documents held in collection
func (s *Store) Count(collection string) (int, error) {
	txn := s.db.Txn(false)
	defer txn.Abort()

	it, err := txn.Get(collection, idIndex)
	if err != nil {
		return 0, fmt.Errorf("failed to scan %s: %w", collection, err)
	}
	n := 0
	for obj := it.Next(); obj != nil; obj = it.Next() {
		n++
	}
	return n, nil
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close(context.Context) error { return nil }

// emailIndexer indexes personRow.Email exactly. Unlike StringFieldIndex it keeps
// the empty string as a key, so a person without an e-mail is still found.
type emailIndexer struct{}

func (emailIndexer) FromObject(obj any) (bool, []byte, error) {
	row, ok := obj.(*personRow)
	if !ok {
		return false, nil, fmt.Errorf("unexpected person row type %T", obj)
	}
	return true, emailKey(row.Email), nil
}

func (emailIndexer) FromArgs(args ...any) ([]byte, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("email index takes one argument, got %d", len(args))
	}
	email, ok := args[0].(string)
	if !ok {
		return nil, fmt.Errorf("email index argument must be a string, got %T", args[0])
	}
	return emailKey(email), nil
}

func emailKey(email string) []byte {
	return append([]byte(email), 0)
}

func firstPerson(txn *memdb.Txn, filter store.PersonFilter) (*personRow, error) {
	raw, err := txn.First(store.PersonCollection, emailIndex, filter.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to query person: %w", err)
	}
	if raw == nil {
		return nil, nil
	}
	return raw.(*personRow), nil
}

func cloneTenant(t *model.Tenant) *model.Tenant {
	out := *t
	out.Equips = slices.Clone(t.Equips)
	for i := range out.Equips {
		out.Equips[i].AllowEmails = slices.Clone(out.Equips[i].AllowEmails)
	}
	out.Threads = slices.Clone(t.Threads)
	return &out
}

func clonePerson(p *model.Person) *model.Person {
	out := *p
	out.Fellings = slices.Clone(p.Fellings)
	return &out
}
