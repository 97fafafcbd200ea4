// Package storetest holds the behaviour every store.Gateway implementation must share.
// Backends call Gateway from their own tests with a constructor for a fresh, empty store.
package storetest

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suteetoe/howyoufell/internal/model"
	"github.com/suteetoe/howyoufell/internal/store"
)

// NewGateway returns an empty gateway and a function releasing it
type NewGateway func(t *testing.T) (store.Gateway, func())

// Gateway runs the conformance suite against the implementation built by init
func Gateway(init NewGateway, t *testing.T) {
	tests := []struct {
		name string
		fn   func(init NewGateway, t *testing.T)
	}{
		{name: "FindTenant", fn: FindTenant},
		{name: "FindTenantByMember", fn: FindTenantByMember},
		{name: "FindPerson", fn: FindPerson},
		{name: "FindPersonEmptyEmail", fn: FindPersonEmptyEmail},
		{name: "PushPersonFelling", fn: PushPersonFelling},
		{name: "PushPersonFellingNoMatch", fn: PushPersonFellingNoMatch},
		{name: "Ping", fn: Ping},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.fn(init, t)
		})
	}
}

func seedTenant() *model.Tenant {
	tenant := model.NewTenant("Acme")
	tenant.AddEquip(model.NewTenantEquip("Admins"))
	tenant.AddEquip(model.NewTenantEquip("Support", "b@x.com", "d@x.com"))
	tenant.AddThread(model.NewTenantThread("Me"))
	tenant.AddThread(model.NewTenantThread("Team"))
	return tenant
}

// FindTenant checks lookups by id alone
func FindTenant(init NewGateway, t *testing.T) {
	s, done := init(t)
	defer done()
	ctx := context.Background()

	tenant := seedTenant()
	require.NoError(t, s.InsertTenant(ctx, tenant))
	require.NoError(t, s.InsertTenant(ctx, model.NewTenant("Other")))

	got, err := s.FindTenant(ctx, store.TenantFilter{ID: tenant.ID})
	require.NoError(t, err)
	if diff := cmp.Diff(tenant, got); diff != "" {
		t.Errorf("tenant mismatch (-want +got):\n%s", diff)
	}

	_, err = s.FindTenant(ctx, store.TenantFilter{ID: model.NewID()})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

// FindTenantByMember checks the compound id and allow-list filter
func FindTenantByMember(init NewGateway, t *testing.T) {
	s, done := init(t)
	defer done()
	ctx := context.Background()

	tenant := seedTenant()
	other := model.NewTenant("Other")
	other.AddEquip(model.NewTenantEquip("Team", "c@x.com"))
	require.NoError(t, s.InsertTenant(ctx, tenant))
	require.NoError(t, s.InsertTenant(ctx, other))

	tests := []struct {
		name   string
		filter store.TenantFilter
		found  bool
	}{
		{name: "member", filter: store.MemberTenant(tenant.ID, "d@x.com"), found: true},
		{name: "not a member", filter: store.MemberTenant(tenant.ID, "c@x.com")},
		{name: "member elsewhere only", filter: store.MemberTenant(other.ID, "b@x.com")},
		{name: "case differs", filter: store.MemberTenant(tenant.ID, "B@x.com")},
		{name: "unknown id", filter: store.MemberTenant(model.NewID(), "b@x.com")},
		{name: "empty e-mail", filter: store.MemberTenant(tenant.ID, "")},
		{name: "empty e-mail elsewhere", filter: store.MemberTenant(other.ID, "")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.FindTenant(ctx, tt.filter)
			if !tt.found {
				assert.ErrorIs(t, err, store.ErrNotFound)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.filter.ID, got.ID)
		})
	}
}

// FindPerson checks exact e-mail lookups
func FindPerson(init NewGateway, t *testing.T) {
	s, done := init(t)
	defer done()
	ctx := context.Background()

	person := model.NewPerson("A@x.com")
	require.NoError(t, s.InsertPerson(ctx, person))
	require.NoError(t, s.InsertPerson(ctx, model.NewPerson("z@x.com")))

	got, err := s.FindPerson(ctx, store.PersonFilter{Email: "a@x.com"})
	require.NoError(t, err)
	if diff := cmp.Diff(person, got); diff != "" {
		t.Errorf("person mismatch (-want +got):\n%s", diff)
	}

	_, err = s.FindPerson(ctx, store.PersonFilter{Email: "A@x.com"})
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = s.FindPerson(ctx, store.PersonFilter{Email: "nobody@x.com"})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

// FindPersonEmptyEmail checks a person stored without an e-mail is found by the empty lookup
func FindPersonEmptyEmail(init NewGateway, t *testing.T) {
	s, done := init(t)
	defer done()
	ctx := context.Background()

	_, err := s.FindPerson(ctx, store.PersonFilter{Email: ""})
	assert.ErrorIs(t, err, store.ErrNotFound)

	person := model.NewPerson("")
	require.NoError(t, s.InsertPerson(ctx, person))
	require.NoError(t, s.InsertPerson(ctx, model.NewPerson("z@x.com")))

	got, err := s.FindPerson(ctx, store.PersonFilter{Email: ""})
	require.NoError(t, err)
	assert.Equal(t, person.ID, got.ID)

	f := model.NewPersonFelling(model.NewID(), model.NewID(), model.NewID(), "blank", model.FellingNeutral)
	matched, err := s.PushPersonFelling(ctx, store.PersonFilter{Email: ""}, f)
	require.NoError(t, err)
	assert.EqualValues(t, 1, matched)
}

// PushPersonFelling checks fellings are appended in order to the matched person only
func PushPersonFelling(init NewGateway, t *testing.T) {
	s, done := init(t)
	defer done()
	ctx := context.Background()

	person := model.NewPerson("b@x.com")
	bystander := model.NewPerson("c@x.com")
	require.NoError(t, s.InsertPerson(ctx, person))
	require.NoError(t, s.InsertPerson(ctx, bystander))

	tenant := seedTenant()
	first := model.NewPersonFelling(tenant.Equips[1].ID, tenant.Threads[0].ID, tenant.ID, "fine", model.FellingGood)
	second := model.NewPersonFelling(tenant.Equips[1].ID, tenant.Threads[1].ID, tenant.ID, "tired", model.FellingBad)

	for _, f := range []model.PersonFelling{first, second} {
		matched, err := s.PushPersonFelling(ctx, store.PersonFilter{Email: "b@x.com"}, f)
		require.NoError(t, err)
		assert.EqualValues(t, 1, matched)
	}

	got, err := s.FindPerson(ctx, store.PersonFilter{Email: "b@x.com"})
	require.NoError(t, err)
	if diff := cmp.Diff([]model.PersonFelling{first, second}, got.Fellings); diff != "" {
		t.Errorf("fellings mismatch (-want +got):\n%s", diff)
	}

	untouched, err := s.FindPerson(ctx, store.PersonFilter{Email: "c@x.com"})
	require.NoError(t, err)
	assert.Empty(t, untouched.Fellings)
}

// PushPersonFellingNoMatch checks a push without a matching person writes nothing
func PushPersonFellingNoMatch(init NewGateway, t *testing.T) {
	s, done := init(t)
	defer done()
	ctx := context.Background()

	require.NoError(t, s.InsertPerson(ctx, model.NewPerson("b@x.com")))

	f := model.NewPersonFelling(model.NewID(), model.NewID(), model.NewID(), "lost", model.FellingNeutral)
	matched, err := s.PushPersonFelling(ctx, store.PersonFilter{Email: "B@x.com"}, f)
	require.NoError(t, err)
	assert.Zero(t, matched)

	got, err := s.FindPerson(ctx, store.PersonFilter{Email: "b@x.com"})
	require.NoError(t, err)
	assert.Empty(t, got.Fellings)
}

// Ping checks a fresh store is reachable
func Ping(init NewGateway, t *testing.T) {
	s, done := init(t)
	defer done()

	assert.NoError(t, s.Ping(context.Background()))
}
