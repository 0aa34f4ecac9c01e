package database

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/wickshop/ember/internal/model"
)

// NewTestDB opens a throwaway in-memory database with the full schema
// migrated. Each call returns an isolated database. The pool is pinned to a
// single connection; a second connection to an in-memory database would see
// its own empty copy.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(
		&model.User{},
		&model.Session{},
		&model.Category{},
		&model.Scent{},
		&model.Product{},
		&model.TemporaryOrder{},
		&model.Order{},
		&model.OrderItem{},
		&model.QRCode{},
		&model.Address{},
		&model.Return{},
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		sqlDB, err := db.DB()
		if err == nil {
			sqlDB.Close()
		}
	})

	return db
}
