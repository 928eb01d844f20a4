package database

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/acsdev/ragloader/loader"
)

func setupMockDB(t *testing.T) (sqlmock.Sqlmock, *gorm.DB) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	dialector := postgres.New(postgres.Config{
		Conn: mockDB,
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Discard,
	})
	require.NoError(t, err)

	return mock, gormDB
}

func testConfig(query string) Config {
	return Config{
		Driver:     "postgres",
		DSN:        "host=localhost dbname=test",
		Query:      query,
		TextColumn: "body",
	}
}

func TestLoad(t *testing.T) {
	mock, gormDB := setupMockDB(t)

	createdAt := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT id, body, author, created_at FROM notes").
		WillReturnRows(sqlmock.NewRows([]string{"id", "body", "author", "created_at"}).
			AddRow(int64(1), "first note", "alice", createdAt).
			AddRow(int64(2), "second note", []byte("bob"), createdAt).
			AddRow(int64(3), nil, "carol", createdAt))

	l, err := NewWithDB(testConfig("SELECT id, body, author, created_at FROM notes"), nil, gormDB)
	require.NoError(t, err)
	assert.Equal(t, "database", l.Name())

	records, err := l.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, "first note", records[0].Text)
	assert.Equal(t, "database", records[0].Metadata["source"])
	assert.Equal(t, int64(1), records[0].Metadata["id"])
	assert.Equal(t, "alice", records[0].Metadata["author"])
	assert.Equal(t, "2024-03-01T09:30:00Z", records[0].Metadata["created_at"])
	assert.NotContains(t, records[0].Metadata, "body")

	// []byte columns come back as strings
	assert.Equal(t, "bob", records[1].Metadata["author"])

	// NULL text is an empty string, not a dropped record
	assert.Equal(t, "", records[2].Text)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoad_SourceTag(t *testing.T) {
	mock, gormDB := setupMockDB(t)

	mock.ExpectQuery("SELECT body FROM notes").
		WillReturnRows(sqlmock.NewRows([]string{"body"}).AddRow("hello"))

	cfg := testConfig("SELECT body FROM notes")
	cfg.SourceTag = "tickets"

	l, err := NewWithDB(cfg, nil, gormDB)
	require.NoError(t, err)

	records, err := l.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "tickets", records[0].Metadata["source"])
}

func TestLoad_EmptyResult(t *testing.T) {
	mock, gormDB := setupMockDB(t)

	mock.ExpectQuery("SELECT body FROM notes").
		WillReturnRows(sqlmock.NewRows([]string{"body"}))

	l, err := NewWithDB(testConfig("SELECT body FROM notes"), nil, gormDB)
	require.NoError(t, err)

	records, err := l.Load(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, records)
	assert.Empty(t, records)
}

func TestLoad_MissingTextColumn(t *testing.T) {
	mock, gormDB := setupMockDB(t)

	mock.ExpectQuery("SELECT id, title FROM notes").
		WillReturnRows(sqlmock.NewRows([]string{"id", "title"}).AddRow(int64(1), "x"))

	l, err := NewWithDB(testConfig("SELECT id, title FROM notes"), nil, gormDB)
	require.NoError(t, err)

	_, err = l.Load(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, loader.ErrInvalidConfig)
}

func TestLoad_QueryError(t *testing.T) {
	mock, gormDB := setupMockDB(t)

	mock.ExpectQuery("SELECT body FROM notes").
		WillReturnError(sql.ErrConnDone)

	l, err := NewWithDB(testConfig("SELECT body FROM notes"), nil, gormDB)
	require.NoError(t, err)

	_, err = l.Load(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, loader.ErrSourceUnreachable)
	assert.True(t, loader.IsSourceError(err))
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		ok   bool
	}{
		{
			name: "select",
			cfg:  testConfig("SELECT body FROM notes"),
			ok:   true,
		},
		{
			name: "lowercase select",
			cfg:  testConfig("select body from notes"),
			ok:   true,
		},
		{
			name: "with cte",
			cfg:  testConfig("WITH recent AS (SELECT body FROM notes) SELECT body FROM recent"),
			ok:   true,
		},
		{
			name: "trailing semicolon",
			cfg:  testConfig("SELECT body FROM notes;"),
			ok:   true,
		},
		{
			name: "delete",
			cfg:  testConfig("DELETE FROM notes"),
			ok:   false,
		},
		{
			name: "data modifying cte",
			cfg:  testConfig("WITH t AS (INSERT INTO audit(id) VALUES (1) RETURNING id) SELECT id FROM t"),
			ok:   false,
		},
		{
			name: "update behind select",
			cfg:  testConfig("SELECT body FROM notes WHERE id IN (UPDATE notes SET body = '' RETURNING id)"),
			ok:   false,
		},
		{
			name: "column names resembling keywords",
			cfg:  testConfig("SELECT body, created_at, updated_at, deleted_at FROM notes"),
			ok:   true,
		},
		{
			name: "multiple statements",
			cfg:  testConfig("SELECT body FROM notes; DROP TABLE notes"),
			ok:   false,
		},
		{
			name: "empty query",
			cfg:  testConfig(""),
			ok:   false,
		},
		{
			name: "unsupported driver",
			cfg: Config{
				Driver:     "mysql",
				DSN:        "dsn",
				Query:      "SELECT body FROM notes",
				TextColumn: "body",
			},
			ok: false,
		},
		{
			name: "missing dsn",
			cfg: Config{
				Driver:     "postgres",
				Query:      "SELECT body FROM notes",
				TextColumn: "body",
			},
			ok: false,
		},
		{
			name: "missing text column",
			cfg: Config{
				Driver: "postgres",
				DSN:    "dsn",
				Query:  "SELECT body FROM notes",
			},
			ok: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.True(t, errors.Is(err, loader.ErrInvalidConfig))
			}
		})
	}
}
