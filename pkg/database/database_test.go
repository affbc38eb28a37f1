package database

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type widget struct {
	ID   uint `gorm:"primaryKey"`
	Name string
}

func TestSQLitePath(t *testing.T) {
	tests := []struct {
		url     string
		want    string
		wantErr bool
	}{
		{url: "sqlite:///./data/reservations.db", want: "./data/reservations.db"},
		{url: "sqlite:///reservations.db", want: "reservations.db"},
		{url: "sqlite:////var/lib/app/reservations.db", want: "/var/lib/app/reservations.db"},
		{url: "sqlite://:memory:", want: ":memory:"},
		{url: "sqlite:///./data/reservations.db?cache=shared", want: "./data/reservations.db"},
		{url: "sqlite://", wantErr: true},
		{url: "mysql://localhost/db", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			got, err := SQLitePath(tt.url)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnsupportedURL)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSQLiteDSNKeepsExistingQuery(t *testing.T) {
	assert.Equal(t,
		"./data/x.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)",
		sqliteDSN("./data/x.db", sqliteQuery("sqlite:///./data/x.db")))
	assert.Equal(t,
		"./data/x.db?cache=shared&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)",
		sqliteDSN("./data/x.db", sqliteQuery("sqlite:///./data/x.db?cache=shared")))
}

func TestOpenWithQueryEnforcesForeignKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "query.db")

	db, err := Open("sqlite:///" + path + "?cache=shared")
	require.NoError(t, err)
	defer Close(db)

	var enabled int
	require.NoError(t, db.Raw("PRAGMA foreign_keys").Scan(&enabled).Error)
	assert.Equal(t, 1, enabled)

	_, err = os.Stat(path)
	assert.NoError(t, err, "query must not leak into the file name")
}

func TestOpenCreatesParentDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")
	path := filepath.Join(dir, "test.db")

	db, err := Open("sqlite:///" + path)
	require.NoError(t, err)
	defer Close(db)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	assert.NoError(t, Ping(context.Background(), db))
}

func TestOpenRejectsUnknownScheme(t *testing.T) {
	_, err := Open("mongodb://localhost")
	assert.ErrorIs(t, err, ErrUnsupportedURL)
}

func TestInitializeSchemaIsIdempotent(t *testing.T) {
	ctx := context.Background()
	db, err := Open("sqlite:///" + filepath.Join(t.TempDir(), "schema.db"))
	require.NoError(t, err)
	defer Close(db)

	require.NoError(t, InitializeSchema(ctx, db, &widget{}))
	require.NoError(t, Session(ctx, db).Create(&widget{Name: "a"}).Error)
	require.NoError(t, InitializeSchema(ctx, db, &widget{}))

	var count int64
	require.NoError(t, Session(ctx, db).Model(&widget{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestWithTransactionRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	db, err := Open("sqlite:///" + filepath.Join(t.TempDir(), "tx.db"))
	require.NoError(t, err)
	defer Close(db)
	require.NoError(t, InitializeSchema(ctx, db, &widget{}))

	boom := errors.New("boom")
	err = WithTransaction(ctx, db, func(tx *gorm.DB) error {
		if err := tx.Create(&widget{Name: "discarded"}).Error; err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	var count int64
	require.NoError(t, Session(ctx, db).Model(&widget{}).Count(&count).Error)
	assert.Zero(t, count)

	err = WithTransaction(ctx, db, func(tx *gorm.DB) error {
		return tx.Create(&widget{Name: "kept"}).Error
	})
	require.NoError(t, err)
	require.NoError(t, Session(ctx, db).Model(&widget{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}
