package database

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatements(t *testing.T) {
	stmts := Statements()
	require.Len(t, stmts, 3)
	assert.Contains(t, stmts[0], "CREATE TABLE IF NOT EXISTS beaches")
	assert.Contains(t, stmts[1], "CREATE TABLE IF NOT EXISTS loungers")
	assert.Contains(t, stmts[2], "CREATE TABLE IF NOT EXISTS reservations")
}

func TestMigrate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS beaches").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS loungers").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS reservations").WillReturnError(errors.New("disk full"))

	err = Migrate(context.Background(), db)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "schema statement 3")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOptionsDSN(t *testing.T) {
	dsn := Options{User: "beach", Pass: "secret", Host: "db", Port: "3306", Name: "loungers"}.DSN()
	assert.Contains(t, dsn, "beach:secret@tcp(db:3306)/loungers")
	assert.Contains(t, dsn, "parseTime=true")
	assert.Contains(t, dsn, "charset=utf8mb4")
}
