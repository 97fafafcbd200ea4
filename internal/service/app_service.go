package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/suteetoe/howyoufell/internal/model"
	"github.com/suteetoe/howyoufell/internal/store"
	"github.com/suteetoe/howyoufell/pkg/logger"
	"github.com/suteetoe/howyoufell/prometheus"
	"go.uber.org/zap"
)

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
)

// IdentityAccessor resolves the caller of the current request
type IdentityAccessor interface {
	HasUserEmail(ctx context.Context) bool
	GetUserEmail(ctx context.Context) string
	CanRegisterTenant(ctx context.Context) bool
}

// Config holds the defaults applied by the use cases
type Config struct {
	// AdminEquip names the equip every new tenant starts with
	AdminEquip string
	// DefaultThreads are created, in order, on every new tenant
	DefaultThreads []string
	// AddCreatorToAdminEquip puts the registering e-mail on the admin equip allow-list
	AddCreatorToAdminEquip bool
	// NormalizeLookupEmail lower-cases the caller e-mail before person lookups
	NormalizeLookupEmail bool
}

// DefaultConfig returns the settings new deployments start with
func DefaultConfig() Config {
	return Config{
		AdminEquip:     "Admins",
		DefaultThreads: []string{"Me", "Team", "Company", "Proccess"},
	}
}

// AppService implements the tenant and person use cases
type AppService struct {
	config   Config
	identity IdentityAccessor
	gateway  store.Gateway
}

// NewAppService creates the application service
func NewAppService(config Config, identity IdentityAccessor, gateway store.Gateway) *AppService {
	config.DefaultThreads = slices.Clone(config.DefaultThreads)
	return &AppService{
		config:   config,
		identity: identity,
		gateway:  gateway,
	}
}

// GetTenant returns the tenant with the given id when the caller belongs to one of its equips
func (s *AppService) GetTenant(ctx context.Context, id string) (*model.Tenant, error) {
	log := logger.FromContext(ctx)
	prometheus.RecordTenantOperation("get")

	if !s.identity.HasUserEmail(ctx) {
		return nil, s.unauthorized(ctx, "no_email", "get tenant without e-mail claim")
	}
	email := s.identity.GetUserEmail(ctx)

	tenantID, err := model.ParseID(id)
	if err != nil {
		log.Info("Tenant not found", logger.Event(logger.EventNotFound), zap.String("tenant_id", id))
		return nil, ErrNotFound
	}

	tenant, err := s.findTenant(ctx, store.MemberTenant(tenantID, email))
	if errors.Is(err, store.ErrNotFound) {
		log.Info("Tenant not found", logger.Event(logger.EventNotFound), zap.String("tenant_id", id))
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	log.Info("Tenant retrieved", logger.Event(logger.EventOk), zap.String("tenant_id", id))
	return tenant, nil
}

// RegisterTenant creates a tenant with the default admin equip and threads
func (s *AppService) RegisterTenant(ctx context.Context) (*model.Tenant, error) {
	log := logger.FromContext(ctx)
	prometheus.RecordTenantOperation("register")

	if !s.identity.CanRegisterTenant(ctx) {
		return nil, s.unauthorized(ctx, "tenant_not_allowed", "caller may not register tenants")
	}

	var admins []string
	if s.config.AddCreatorToAdminEquip && s.identity.HasUserEmail(ctx) {
		admins = append(admins, s.identity.GetUserEmail(ctx))
	}

	tenant := model.NewTenant(uuid.New().String())
	tenant.AddEquip(model.NewTenantEquip(s.config.AdminEquip, admins...))
	for _, name := range s.config.DefaultThreads {
		tenant.AddThread(model.NewTenantThread(name))
	}

	defer prometheus.TrackDBOperation("tenant_insert")(time.Now())
	if err := s.gateway.InsertTenant(ctx, tenant); err != nil {
		log.Error("Failed to register tenant", zap.Error(err))
		return nil, fmt.Errorf("register tenant: %w", err)
	}

	log.Info("Tenant registered", logger.Event(logger.EventCreated), zap.String("tenant_id", tenant.ID.Hex()))
	return tenant, nil
}

// RegisterPerson creates the caller's person record
func (s *AppService) RegisterPerson(ctx context.Context) (*model.Person, error) {
	log := logger.FromContext(ctx)
	prometheus.RecordPersonOperation("register")

	if !s.identity.HasUserEmail(ctx) {
		return nil, s.unauthorized(ctx, "no_email", "register person without e-mail claim")
	}

	person := model.NewPerson(s.identity.GetUserEmail(ctx))

	defer prometheus.TrackDBOperation("person_insert")(time.Now())
	if err := s.gateway.InsertPerson(ctx, person); err != nil {
		log.Error("Failed to register person", zap.Error(err))
		return nil, fmt.Errorf("register person: %w", err)
	}

	log.Info("Person registered", logger.Event(logger.EventCreated), zap.String("person_id", person.ID.Hex()))
	return person, nil
}

// GetPerson returns the caller's person record
func (s *AppService) GetPerson(ctx context.Context) (*model.Person, error) {
	log := logger.FromContext(ctx)
	prometheus.RecordPersonOperation("get")

	if !s.identity.HasUserEmail(ctx) {
		return nil, s.unauthorized(ctx, "no_email", "get person without e-mail claim")
	}

	person, err := s.findPerson(ctx, store.PersonFilter{Email: s.lookupEmail(ctx)})
	if errors.Is(err, store.ErrNotFound) {
		log.Info("Person not found", logger.Event(logger.EventNotFound))
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	log.Info("Person retrieved", logger.Event(logger.EventOk), zap.String("person_id", person.ID.Hex()))
	return person, nil
}

// AddPersonFelling appends a felling to the caller's person record after checking
// that the team lists the caller and the thread belongs to the tenant
func (s *AppService) AddPersonFelling(ctx context.Context, input model.FellingInput) (*model.PersonFelling, error) {
	log := logger.FromContext(ctx)
	prometheus.RecordPersonOperation("add_felling")

	if !s.identity.HasUserEmail(ctx) {
		return nil, s.unauthorized(ctx, "no_email", "add felling without e-mail claim")
	}
	if !input.Type.Valid() {
		log.Info("Undefined felling type", zap.Int("type", int(input.Type)))
		return nil, fmt.Errorf("%w: undefined felling type %d", ErrInvalidInput, int(input.Type))
	}
	email := s.identity.GetUserEmail(ctx)

	tenantID, err := model.ParseID(input.TenantID)
	if err != nil {
		log.Info("Tenant not found", logger.Event(logger.EventNotFound), zap.String("tenant_id", input.TenantID))
		return nil, ErrNotFound
	}
	tenant, err := s.findTenant(ctx, store.TenantFilter{ID: tenantID})
	if errors.Is(err, store.ErrNotFound) {
		log.Info("Tenant not found", logger.Event(logger.EventNotFound), zap.String("tenant_id", input.TenantID))
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	teamID, err := model.ParseID(input.TeamID)
	if err != nil || !tenant.EquipAllows(teamID, email) {
		return nil, s.unauthorized(ctx, "not_member", "caller is not on the team allow-list")
	}
	threadID, err := model.ParseID(input.ThreadID)
	if err != nil || !tenant.HasThread(threadID) {
		return nil, s.unauthorized(ctx, "unknown_thread", "thread does not belong to the tenant")
	}

	felling := model.NewPersonFelling(teamID, threadID, tenantID, input.Description, input.Type)

	done := prometheus.TrackDBOperation("person_push_felling")
	matched, err := s.gateway.PushPersonFelling(ctx, store.PersonFilter{Email: s.lookupEmail(ctx)}, felling)
	done(time.Now())
	if err != nil {
		log.Error("Failed to add felling", zap.Error(err))
		return nil, fmt.Errorf("add felling: %w", err)
	}
	if matched == 0 {
		log.Warn("No person record received the felling", zap.String("felling_id", felling.ID.Hex()))
	}

	prometheus.RecordFelling(felling.Type.String())
	log.Info("Felling added", logger.Event(logger.EventCreated),
		zap.String("felling_id", felling.ID.Hex()),
		zap.String("tenant_id", tenantID.Hex()))
	return &felling, nil
}

func (s *AppService) findTenant(ctx context.Context, filter store.TenantFilter) (*model.Tenant, error) {
	defer prometheus.TrackDBOperation("tenant_find")(time.Now())

	tenant, err := s.gateway.FindTenant(ctx, filter)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		logger.FromContext(ctx).Error("Failed to query tenant", zap.Error(err))
		return nil, fmt.Errorf("find tenant: %w", err)
	}
	return tenant, err
}

func (s *AppService) findPerson(ctx context.Context, filter store.PersonFilter) (*model.Person, error) {
	defer prometheus.TrackDBOperation("person_find")(time.Now())

	person, err := s.gateway.FindPerson(ctx, filter)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		logger.FromContext(ctx).Error("Failed to query person", zap.Error(err))
		return nil, fmt.Errorf("find person: %w", err)
	}
	return person, err
}

func (s *AppService) lookupEmail(ctx context.Context) string {
	email := s.identity.GetUserEmail(ctx)
	if s.config.NormalizeLookupEmail {
		return strings.ToLower(email)
	}
	return email
}

func (s *AppService) unauthorized(ctx context.Context, reason, msg string) error {
	prometheus.RecordAuthError(reason)
	logger.FromContext(ctx).Warn(msg, logger.Event(logger.EventUnauthorized), zap.String("reason", reason))
	return ErrUnauthorized
}
