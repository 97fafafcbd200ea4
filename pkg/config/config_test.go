package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, StoreMemory, cfg.Store.Driver)
	assert.Equal(t, AuthHMAC, cfg.Auth.Mode)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "Admins", cfg.App.AdminEquip)
	assert.Equal(t, []string{"Me", "Team", "Company", "Proccess"}, cfg.App.DefaultThreads)
	assert.Empty(t, cfg.App.AllowEmailsCreateTenant)
	assert.False(t, cfg.App.AddCreatorToAdminEquip)
	assert.False(t, cfg.App.NormalizeLookupEmail)
	assert.Equal(t, logger.Warn, cfg.DB.LogLevel)
}

func TestLoadAllowList(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("APP_ALLOW_EMAILS_CREATE_TENANT", " admin@mail.com, ,Boss@mail.com ")
	t.Setenv("APP_DEFAULT_THREADS", "Me,Team")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"admin@mail.com", "Boss@mail.com"}, cfg.App.AllowEmailsCreateTenant)
	assert.Equal(t, []string{"Me", "Team"}, cfg.App.DefaultThreads)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			Store: StoreConfig{Driver: StoreMemory},
			Auth:  AuthConfig{Mode: AuthHMAC, SigningKey: "key"},
			App:   AppConfig{DefaultThreads: []string{"Me"}},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "unknown driver", mutate: func(c *Config) { c.Store.Driver = "redis" }, wantErr: true},
		{name: "mongo without database", mutate: func(c *Config) {
			c.Store.Driver = StoreMongo
			c.Mongo.ConnectionString = "mongodb://localhost"
		}, wantErr: true},
		{name: "unknown auth mode", mutate: func(c *Config) { c.Auth.Mode = "basic" }, wantErr: true},
		{name: "hmac without key", mutate: func(c *Config) { c.Auth.SigningKey = "" }, wantErr: true},
		{name: "oidc without audience", mutate: func(c *Config) {
			c.Auth.Mode = AuthOIDC
			c.Auth.Authority = "https://id.example.com/realms/app"
		}, wantErr: true},
		{name: "oidc plain http with https required", mutate: func(c *Config) {
			c.Auth.Mode = AuthOIDC
			c.Auth.Authority = "http://localhost:8081/realms/app"
			c.Auth.Audience = "app"
			c.Auth.RequireHTTPS = true
		}, wantErr: true},
		{name: "oidc plain http allowed", mutate: func(c *Config) {
			c.Auth.Mode = AuthOIDC
			c.Auth.Authority = "http://localhost:8081/realms/app"
			c.Auth.Audience = "app"
		}},
		{name: "no threads", mutate: func(c *Config) { c.App.DefaultThreads = nil }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
