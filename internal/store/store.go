// Package store defines the document store gateway used by the application service.
//
// Each query shape the service needs has its own typed method; there is no
// generic filter API. Implementations live in the sub-packages mongostore,
// pgstore and memstore.
package store

import (
	"context"
	"errors"

	"github.com/suteetoe/howyoufell/internal/model"
)

// ErrNotFound is returned when no document matches a filter
var ErrNotFound = errors.New("document not found")

// Collection names, one per entity type
const (
	TenantCollection = "Tenant"
	PersonCollection = "Person"
)

// TenantFilter selects a tenant by id. When RequireMember is set the tenant must
// also have an equip whose allow-list contains MemberEmail, even when it is empty.
type TenantFilter struct {
	ID            model.ID
	RequireMember bool
	MemberEmail   string
}

// MemberTenant selects the tenant id only when email is on one of its equips
func MemberTenant(id model.ID, email string) TenantFilter {
	return TenantFilter{ID: id, RequireMember: true, MemberEmail: email}
}

// PersonFilter selects a person by exact e-mail equality
type PersonFilter struct {
	Email string
}

// Gateway persists and retrieves tenants and persons
type Gateway interface {
	InsertTenant(ctx context.Context, tenant *model.Tenant) error
	// FindTenant returns the first tenant matching filter or ErrNotFound
	FindTenant(ctx context.Context, filter TenantFilter) (*model.Tenant, error)

	InsertPerson(ctx context.Context, person *model.Person) error
	// FindPerson returns the first person matching filter or ErrNotFound
	FindPerson(ctx context.Context, filter PersonFilter) (*model.Person, error)
	// PushPersonFelling atomically appends felling to the first person matching
	// filter and reports how many documents matched (0 or 1).
	PushPersonFelling(ctx context.Context, filter PersonFilter, felling model.PersonFelling) (int64, error)

	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}
