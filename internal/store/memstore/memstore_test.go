package memstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suteetoe/howyoufell/internal/model"
	"github.com/suteetoe/howyoufell/internal/store"
	"github.com/suteetoe/howyoufell/internal/store/storetest"
)

func initStore(t *testing.T) (store.Gateway, func()) {
	s, err := New()
	require.NoError(t, err)
	return s, func() {}
}

func TestGateway(t *testing.T) {
	storetest.Gateway(initStore, t)
}

func TestStoredValuesAreCopies(t *testing.T) {
	s, err := New()
	require.NoError(t, err)
	ctx := context.Background()

	tenant := model.NewTenant("Acme")
	tenant.AddEquip(model.NewTenantEquip("Support", "b@x.com"))
	require.NoError(t, s.InsertTenant(ctx, tenant))

	tenant.Equips[0].AllowEmails[0] = "intruder@x.com"
	got, err := s.FindTenant(ctx, store.MemberTenant(tenant.ID, "b@x.com"))
	require.NoError(t, err)

	got.Equips[0].AllowEmails = append(got.Equips[0].AllowEmails, "c@x.com")
	_, err = s.FindTenant(ctx, store.MemberTenant(tenant.ID, "c@x.com"))
	assert.ErrorIs(t, err, store.ErrNotFound)
}
