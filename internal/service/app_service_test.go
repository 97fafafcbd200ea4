package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suteetoe/howyoufell/internal/identity"
	"github.com/suteetoe/howyoufell/internal/model"
	"github.com/suteetoe/howyoufell/internal/store"
	"github.com/suteetoe/howyoufell/internal/store/memstore"
	"github.com/suteetoe/howyoufell/pkg/logger"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

const creator = "admin@mail.com"

type fixture struct {
	svc    *AppService
	store  *memstore.Store
	tenant *model.Tenant
	team   model.TenantEquip
	thread model.TenantThread
}

func newFixture(t *testing.T, mutate ...func(*Config)) *fixture {
	t.Helper()

	s, err := memstore.New()
	require.NoError(t, err)

	config := DefaultConfig()
	for _, m := range mutate {
		m(&config)
	}

	tenant := model.NewTenant("Acme")
	team := model.NewTenantEquip("Support", "b@x.com")
	thread := model.NewTenantThread("Team")
	tenant.AddEquip(model.NewTenantEquip("Admins"))
	tenant.AddEquip(team)
	tenant.AddThread(model.NewTenantThread("Me"))
	tenant.AddThread(thread)
	require.NoError(t, s.InsertTenant(context.Background(), tenant))

	return &fixture{
		svc:    NewAppService(config, identity.NewAccessor([]string{creator}), s),
		store:  s,
		tenant: tenant,
		team:   team,
		thread: thread,
	}
}

func (f *fixture) input() model.FellingInput {
	return model.FellingInput{
		TeamID:      f.team.ID.Hex(),
		ThreadID:    f.thread.ID.Hex(),
		TenantID:    f.tenant.ID.Hex(),
		Description: "good sprint",
		Type:        model.FellingGood,
	}
}

func as(email string) context.Context {
	return identity.WithClaims(context.Background(), identity.Claims{Subject: "u", Email: email, HasEmail: true})
}

func anonymous() context.Context {
	return identity.WithClaims(context.Background(), identity.Claims{Subject: "service-account"})
}

func TestNoEmailClaimIsUnauthorized(t *testing.T) {
	f := newFixture(t)
	ctx := anonymous()

	_, err := f.svc.GetTenant(ctx, f.tenant.ID.Hex())
	assert.ErrorIs(t, err, ErrUnauthorized)
	_, err = f.svc.RegisterTenant(ctx)
	assert.ErrorIs(t, err, ErrUnauthorized)
	_, err = f.svc.RegisterPerson(ctx)
	assert.ErrorIs(t, err, ErrUnauthorized)
	_, err = f.svc.GetPerson(ctx)
	assert.ErrorIs(t, err, ErrUnauthorized)
	_, err = f.svc.AddPersonFelling(ctx, f.input())
	assert.ErrorIs(t, err, ErrUnauthorized)

	undefined := f.input()
	undefined.Type = 9
	_, err = f.svc.AddPersonFelling(ctx, undefined)
	assert.ErrorIs(t, err, ErrUnauthorized)

	tenants, err := f.store.Count(store.TenantCollection)
	require.NoError(t, err)
	assert.Equal(t, 1, tenants, "only the fixture tenant is stored")
	persons, err := f.store.Count(store.PersonCollection)
	require.NoError(t, err)
	assert.Zero(t, persons)
	_, err = f.store.FindPerson(context.Background(), store.PersonFilter{Email: ""})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestGetTenant(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name    string
		ctx     context.Context
		id      string
		wantErr error
	}{
		{name: "member", ctx: as("b@x.com"), id: f.tenant.ID.Hex()},
		{name: "not a member", ctx: as("c@x.com"), id: f.tenant.ID.Hex(), wantErr: ErrNotFound},
		{name: "member case differs", ctx: as("B@x.com"), id: f.tenant.ID.Hex(), wantErr: ErrNotFound},
		{name: "empty e-mail claim", ctx: as(""), id: f.tenant.ID.Hex(), wantErr: ErrNotFound},
		{name: "unknown id", ctx: as("b@x.com"), id: model.NewID().Hex(), wantErr: ErrNotFound},
		{name: "malformed id", ctx: as("b@x.com"), id: "zzzzzzzzzzzzzzzzzzzzzzzz", wantErr: ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := f.svc.GetTenant(tt.ctx, tt.id)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, f.tenant.ID, got.ID)
			assert.Len(t, got.Equips, 2)
		})
	}
}

func TestRegisterTenant(t *testing.T) {
	f := newFixture(t)

	tenant, err := f.svc.RegisterTenant(as(creator))
	require.NoError(t, err)

	_, err = uuid.Parse(tenant.Description)
	assert.NoError(t, err, "description is a random identifier")
	require.Len(t, tenant.Equips, 1)
	assert.Equal(t, "Admins", tenant.Equips[0].Description)
	assert.Empty(t, tenant.Equips[0].AllowEmails)

	var threads []string
	for _, th := range tenant.Threads {
		threads = append(threads, th.Description)
	}
	assert.Equal(t, []string{"Me", "Team", "Company", "Proccess"}, threads)

	stored, err := f.store.FindTenant(context.Background(), store.TenantFilter{ID: tenant.ID})
	require.NoError(t, err)
	assert.Equal(t, tenant.ID, stored.ID)

	// the creator is not on the admin allow-list, so the tenant is hidden from them
	_, err = f.svc.GetTenant(as(creator), tenant.ID.Hex())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRegisterTenantNotAllowed(t *testing.T) {
	f := newFixture(t)

	for _, email := range []string{"b@x.com", "Admin@mail.com"} {
		_, err := f.svc.RegisterTenant(as(email))
		assert.ErrorIs(t, err, ErrUnauthorized, email)
	}
}

func TestRegisterTenantAddsCreator(t *testing.T) {
	f := newFixture(t, func(c *Config) {
		c.AddCreatorToAdminEquip = true
		c.DefaultThreads = []string{"Me", "Team", "Company", "Process"}
	})

	tenant, err := f.svc.RegisterTenant(as(creator))
	require.NoError(t, err)
	assert.Equal(t, []string{creator}, tenant.Equips[0].AllowEmails)
	assert.Equal(t, "Process", tenant.Threads[3].Description)

	got, err := f.svc.GetTenant(as(creator), tenant.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, tenant.ID, got.ID)
}

func TestRegisterAndGetPerson(t *testing.T) {
	f := newFixture(t)

	person, err := f.svc.RegisterPerson(as("d@x.com"))
	require.NoError(t, err)
	assert.Equal(t, "d@x.com", person.Email)
	assert.Empty(t, person.Fellings)

	got, err := f.svc.GetPerson(as("d@x.com"))
	require.NoError(t, err)
	assert.Equal(t, person.ID, got.ID)
}

func TestGetPersonLookupCase(t *testing.T) {
	t.Run("raw lookup", func(t *testing.T) {
		f := newFixture(t)
		ctx := as("A@x.com")

		_, err := f.svc.GetPerson(ctx)
		assert.ErrorIs(t, err, ErrNotFound)

		person, err := f.svc.RegisterPerson(ctx)
		require.NoError(t, err)
		assert.Equal(t, "a@x.com", person.Email)

		_, err = f.svc.GetPerson(ctx)
		assert.ErrorIs(t, err, ErrNotFound, "stored e-mail is lower-cased, lookup is not")
	})

	t.Run("normalized lookup", func(t *testing.T) {
		f := newFixture(t, func(c *Config) { c.NormalizeLookupEmail = true })
		ctx := as("A@x.com")

		_, err := f.svc.GetPerson(ctx)
		assert.ErrorIs(t, err, ErrNotFound)

		_, err = f.svc.RegisterPerson(ctx)
		require.NoError(t, err)

		got, err := f.svc.GetPerson(ctx)
		require.NoError(t, err)
		assert.Equal(t, "a@x.com", got.Email)
		assert.Empty(t, got.Fellings)
	})
}

func TestAddPersonFelling(t *testing.T) {
	f := newFixture(t)
	ctx := as("b@x.com")
	_, err := f.svc.RegisterPerson(ctx)
	require.NoError(t, err)

	felling, err := f.svc.AddPersonFelling(ctx, f.input())
	require.NoError(t, err)
	assert.False(t, felling.ID.IsZero())

	person, err := f.svc.GetPerson(ctx)
	require.NoError(t, err)
	require.Len(t, person.Fellings, 1)
	got := person.Fellings[0]
	assert.Equal(t, felling.ID, got.ID)
	assert.Equal(t, f.team.ID, got.TeamID)
	assert.Equal(t, f.thread.ID, got.ThreadID)
	assert.Equal(t, f.tenant.ID, got.TenantID)
	assert.Equal(t, "good sprint", got.Description)
	assert.Equal(t, model.FellingGood, got.Type)
}

func TestAddPersonFellingRejected(t *testing.T) {
	f := newFixture(t)
	other := model.NewTenant("Other")
	foreignThread := model.NewTenantThread("Me")
	other.AddThread(foreignThread)
	require.NoError(t, f.store.InsertTenant(context.Background(), other))

	for _, email := range []string{"b@x.com", "c@x.com"} {
		_, err := f.svc.RegisterPerson(as(email))
		require.NoError(t, err)
	}

	tests := []struct {
		name    string
		email   string
		mutate  func(*model.FellingInput)
		wantErr error
	}{
		{name: "caller not on team", email: "c@x.com", wantErr: ErrUnauthorized},
		{name: "admin equip without caller", email: "b@x.com", mutate: func(in *model.FellingInput) { in.TeamID = f.tenant.Equips[0].ID.Hex() }, wantErr: ErrUnauthorized},
		{name: "thread of another tenant", email: "b@x.com", mutate: func(in *model.FellingInput) { in.ThreadID = foreignThread.ID.Hex() }, wantErr: ErrUnauthorized},
		{name: "malformed team", email: "b@x.com", mutate: func(in *model.FellingInput) { in.TeamID = "nope" }, wantErr: ErrUnauthorized},
		{name: "malformed thread", email: "b@x.com", mutate: func(in *model.FellingInput) { in.ThreadID = "" }, wantErr: ErrUnauthorized},
		{name: "unknown tenant", email: "b@x.com", mutate: func(in *model.FellingInput) { in.TenantID = model.NewID().Hex() }, wantErr: ErrNotFound},
		{name: "malformed tenant", email: "b@x.com", mutate: func(in *model.FellingInput) { in.TenantID = "nope" }, wantErr: ErrNotFound},
		{name: "undefined type", email: "b@x.com", mutate: func(in *model.FellingInput) { in.Type = 42 }, wantErr: ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := f.input()
			if tt.mutate != nil {
				tt.mutate(&in)
			}
			_, err := f.svc.AddPersonFelling(as(tt.email), in)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	for _, email := range []string{"b@x.com", "c@x.com"} {
		person, err := f.svc.GetPerson(as(email))
		require.NoError(t, err)
		assert.Empty(t, person.Fellings, email)
	}
}

func TestAddPersonFellingWithoutPersonWarns(t *testing.T) {
	f := newFixture(t)
	core, logs := observer.New(zapcore.DebugLevel)
	ctx := logger.WithContext(as("b@x.com"), zap.New(core))

	felling, err := f.svc.AddPersonFelling(ctx, f.input())
	require.NoError(t, err)
	assert.NotNil(t, felling)

	warnings := logs.FilterLevelExact(zapcore.WarnLevel).All()
	require.Len(t, warnings, 1)
	assert.Equal(t, felling.ID.Hex(), warnings[0].ContextMap()["felling_id"])

	created := logs.FilterMessage("Felling added").All()
	require.Len(t, created, 1)
	assert.Equal(t, "201 Created", created[0].ContextMap()["event_code"])
}

func TestUnauthorizedLogsEventCode(t *testing.T) {
	f := newFixture(t)
	core, logs := observer.New(zapcore.InfoLevel)
	ctx := logger.WithContext(anonymous(), zap.New(core))

	_, err := f.svc.GetPerson(ctx)
	require.ErrorIs(t, err, ErrUnauthorized)

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "401 Unauthorized", entries[0].ContextMap()["event_code"])
	assert.Equal(t, "no_email", entries[0].ContextMap()["reason"])
}

func TestNewAppServiceCopiesThreads(t *testing.T) {
	s, err := memstore.New()
	require.NoError(t, err)
	config := DefaultConfig()
	svc := NewAppService(config, identity.NewAccessor([]string{creator}), s)
	config.DefaultThreads[0] = "Changed"

	tenant, err := svc.RegisterTenant(as(creator))
	require.NoError(t, err)
	assert.Equal(t, "Me", tenant.Threads[0].Description)
}
