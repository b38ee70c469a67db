package persistence

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/barbertime/backend/internal/domain/accounting"
)

// newMockProviderSettingsRepository creates a GormProviderSettingsRepository with a mocked SQL connection
func newMockProviderSettingsRepository(t *testing.T) (*GormProviderSettingsRepository, sqlmock.Sqlmock, *sql.DB) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return NewGormProviderSettingsRepository(gormDB), mock, mockDB
}

func TestGormProviderSettingsRepository_FindByTenantAndProvider(t *testing.T) {
	t.Run("finds existing settings", func(t *testing.T) {
		repo, mock, mockDB := newMockProviderSettingsRepository(t)
		defer mockDB.Close()

		tenantID := uuid.New()

		rows := sqlmock.NewRows([]string{"id", "tenant_id", "provider", "enabled", "client_id", "client_secret", "company_slug"}).
			AddRow(uuid.New(), tenantID, "fiken", true, "client-id", "client-secret", "frisor-as")

		mock.ExpectQuery(`SELECT \* FROM "accounting_provider_settings" WHERE tenant_id = \$1 AND provider = \$2 ORDER BY .* LIMIT .*`).
			WithArgs(tenantID, accounting.ProviderFiken, 1).
			WillReturnRows(rows)

		settings, err := repo.FindByTenantAndProvider(context.Background(), tenantID, accounting.ProviderFiken)

		assert.NoError(t, err)
		require.NotNil(t, settings)
		assert.True(t, settings.Enabled)
		assert.True(t, settings.IsConfigured())
		assert.Equal(t, "frisor-as", settings.CompanySlug)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns ErrSettingsNotFound when no row exists", func(t *testing.T) {
		repo, mock, mockDB := newMockProviderSettingsRepository(t)
		defer mockDB.Close()

		tenantID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "accounting_provider_settings"`).
			WithArgs(tenantID, accounting.ProviderUnimicro, 1).
			WillReturnError(gorm.ErrRecordNotFound)

		_, err := repo.FindByTenantAndProvider(context.Background(), tenantID, accounting.ProviderUnimicro)

		assert.ErrorIs(t, err, accounting.ErrSettingsNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormProviderSettingsRepository_Save(t *testing.T) {
	repo, mock, mockDB := newMockProviderSettingsRepository(t)
	defer mockDB.Close()

	settings, err := accounting.NewProviderSettings(uuid.New(), accounting.ProviderFiken)
	require.NoError(t, err)
	settings.Enabled = true
	settings.ClientID = "client-id"
	settings.ClientSecret = "client-secret"

	mock.ExpectExec(`INSERT INTO "accounting_provider_settings" .* ON CONFLICT \("tenant_id","provider"\) DO UPDATE SET .*"enabled".*`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = repo.Save(context.Background(), settings)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormProviderSettingsRepository_UpdateTokens(t *testing.T) {
	t.Run("updates only token columns", func(t *testing.T) {
		repo, mock, mockDB := newMockProviderSettingsRepository(t)
		defer mockDB.Close()

		settings, err := accounting.NewProviderSettings(uuid.New(), accounting.ProviderFiken)
		require.NoError(t, err)
		settings.ApplyTokens("new-token", "refresh-2", time.Now().Add(time.Hour))

		mock.ExpectExec(`UPDATE "accounting_provider_settings" SET .*"access_token".* WHERE tenant_id = \$\d+ AND provider = \$\d+`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err = repo.UpdateTokens(context.Background(), settings)

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns ErrSettingsNotFound when no row matches", func(t *testing.T) {
		repo, mock, mockDB := newMockProviderSettingsRepository(t)
		defer mockDB.Close()

		settings, err := accounting.NewProviderSettings(uuid.New(), accounting.ProviderFiken)
		require.NoError(t, err)
		settings.ApplyTokens("new-token", "", time.Now().Add(time.Hour))

		mock.ExpectExec(`UPDATE "accounting_provider_settings"`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err = repo.UpdateTokens(context.Background(), settings)

		assert.ErrorIs(t, err, accounting.ErrSettingsNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormProviderSettingsRepository_FindAllEnabled(t *testing.T) {
	repo, mock, mockDB := newMockProviderSettingsRepository(t)
	defer mockDB.Close()

	rows := sqlmock.NewRows([]string{"id", "tenant_id", "provider", "enabled"}).
		AddRow(uuid.New(), uuid.New(), "fiken", true).
		AddRow(uuid.New(), uuid.New(), "tripletex", true)

	mock.ExpectQuery(`SELECT \* FROM "accounting_provider_settings" WHERE enabled = \$1 ORDER BY tenant_id ASC, provider ASC`).
		WithArgs(true).
		WillReturnRows(rows)

	settings, err := repo.FindAllEnabled(context.Background())

	assert.NoError(t, err)
	assert.Len(t, settings, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}
