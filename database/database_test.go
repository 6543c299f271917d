package database

import (
	"context"
	"io"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mach-lagbe/config"
	"mach-lagbe/repository/memstore"
)

func TestMigrateAppliesSchema(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	for range Schema {
		mock.ExpectExec("CREATE TABLE IF NOT EXISTS").WillReturnResult(sqlmock.NewResult(0, 0))
	}

	require.NoError(t, Migrate(context.Background(), sqlx.NewDb(db, "mysql")))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSchemaUniqueColumnsAreCaseSensitive(t *testing.T) {
	require.GreaterOrEqual(t, len(Schema), 2)
	assert.Regexp(t, `email VARCHAR\(191\) COLLATE utf8mb4_bin NOT NULL`, Schema[0])
	assert.Contains(t, Schema[0], "UNIQUE KEY uniq_users_email (email)")
	assert.Regexp(t, `\bname VARCHAR\(191\) COLLATE utf8mb4_bin NOT NULL`, Schema[1])
	assert.Contains(t, Schema[1], "UNIQUE KEY uniq_fish_name (name)")
}

func TestMigrateStopsOnError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS users").WillReturnError(assert.AnError)

	err = Migrate(context.Background(), sqlx.NewDb(db, "mysql"))
	assert.ErrorIs(t, err, assert.AnError)
}

func TestMySQLDSN(t *testing.T) {
	cfg := &config.Config{DBUser: "app", DBPassword: "pw", DBHost: "db", DBPort: "3306", DBName: "fish"}
	assert.Equal(t, "app:pw@tcp(db:3306)/fish?parseTime=true&loc=UTC&charset=utf8mb4", MySQLDSN(cfg))
}

func TestOpenStore(t *testing.T) {
	log := logrus.New()
	log.SetOutput(io.Discard)

	store, err := OpenStore(context.Background(), &config.Config{StoreDriver: "memory"}, log)
	require.NoError(t, err)
	assert.IsType(t, &memstore.Store{}, store)

	_, err = OpenStore(context.Background(), &config.Config{StoreDriver: "sqlite"}, log)
	assert.Error(t, err)
}
