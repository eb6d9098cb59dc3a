package postgres

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/pkg/config"
)

func testDBConfig() config.DBConfig {
	return config.DBConfig{
		Host: "db", Port: 5432, User: "ledger", Password: "secret", DBName: "stock_ledger", SSLMode: "disable",
		MaxConns: 8, MinConns: 2,
		MaxConnLifetime:   30 * time.Minute,
		MaxConnIdleTime:   5 * time.Minute,
		HealthCheckPeriod: 20 * time.Second,
		ConnectTimeout:    3 * time.Second,
	}
}

func TestNewPoolConfig_AplicaConfiguracion(t *testing.T) {
	pc, err := newPoolConfig(testDBConfig())
	require.NoError(t, err)

	assert.Equal(t, int32(8), pc.MaxConns)
	assert.Equal(t, int32(2), pc.MinConns)
	assert.Equal(t, 30*time.Minute, pc.MaxConnLifetime)
	assert.Equal(t, 5*time.Minute, pc.MaxConnIdleTime)
	assert.Equal(t, 20*time.Second, pc.HealthCheckPeriod)
	assert.Equal(t, 3*time.Second, pc.ConnConfig.ConnectTimeout)
	assert.Equal(t, "db", pc.ConnConfig.Host)
	assert.Equal(t, "stock_ledger", pc.ConnConfig.Database)
	assert.NotNil(t, pc.AfterConnect)
	assert.Nil(t, pc.ConnConfig.DialFunc)
}

func TestNewPoolConfig_ForzarIPv4InstalaDial(t *testing.T) {
	cfg := testDBConfig()
	cfg.ForceIPv4 = true
	pc, err := newPoolConfig(cfg)
	require.NoError(t, err)
	assert.NotNil(t, pc.ConnConfig.DialFunc)
}

func TestNewPoolConfig_URLInvalida(t *testing.T) {
	cfg := testDBConfig()
	cfg.DatabaseURL = "postgres://%zz"
	_, err := newPoolConfig(cfg)
	require.Error(t, err)
}

type fakeResolver struct {
	ips []net.IP
	err error
}

func (r fakeResolver) LookupIP(context.Context, string, string) ([]net.IP, error) {
	return r.ips, r.err
}

func TestLookupIPv4(t *testing.T) {
	ctx := context.Background()

	ip, err := lookupIPv4(ctx, fakeResolver{}, "10.0.0.5")
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.5", ip)

	_, err = lookupIPv4(ctx, fakeResolver{}, "::1")
	require.Error(t, err)

	ip, err = lookupIPv4(ctx, fakeResolver{ips: []net.IP{net.ParseIP("2001:db8::1"), net.ParseIP("192.0.2.7")}}, "db.example")
	require.NoError(t, err)
	assert.Equal(t, "192.0.2.7", ip)

	_, err = lookupIPv4(ctx, fakeResolver{ips: []net.IP{net.ParseIP("2001:db8::1")}}, "db.example")
	require.Error(t, err)

	_, err = lookupIPv4(ctx, fakeResolver{err: errors.New("no such host")}, "db.example")
	require.Error(t, err)
}

func TestCodigosSQLState(t *testing.T) {
	unique := fmt.Errorf("insert: %w", &pgconn.PgError{Code: codeUniqueViolation})
	assert.True(t, isUniqueViolation(unique))
	assert.False(t, isCheckViolation(unique))
	assert.True(t, isCheckViolation(&pgconn.PgError{Code: codeCheckViolation}))
	assert.False(t, isUniqueViolation(errors.New("23505 en el texto no cuenta")))

	for _, code := range []string{codeSerializationFailure, codeDeadlockDetected, codeLockNotAvailable} {
		assert.ErrorIs(t, txConflict(&pgconn.PgError{Code: code}), domain.ErrConflict, code)
	}
	plain := errors.New("otro")
	assert.Same(t, plain, txConflict(plain))
	assert.ErrorIs(t, txConflict(domain.ErrNotFound), domain.ErrNotFound)
}
