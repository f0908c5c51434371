// Package dbtest opens throwaway sqlite databases and seeds fixtures for tests.
package dbtest

import (
	"code212/database"
	"code212/models"
	"code212/models/formation"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var seq atomic.Int64

// Open returns a migrated in-memory database private to the test.
func Open(tb testing.TB) *gorm.DB {
	tb.Helper()
	dsn := fmt.Sprintf("file:code212_%d?mode=memory&cache=shared&_foreign_keys=1", seq.Add(1))
	db, err := database.Open("sqlite", dsn, logger.Default.LogMode(logger.Silent))
	require.NoError(tb, err)

	sqlDB, err := db.DB()
	require.NoError(tb, err)
	sqlDB.SetMaxOpenConns(1)
	tb.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(tb, database.Migrate(db))
	return db
}

func SeedUser(tb testing.TB, db *gorm.DB, name, role string) models.User {
	tb.Helper()
	u := models.User{
		Name:     name,
		Email:    fmt.Sprintf("user%d@uca.ma", seq.Add(1)),
		Role:     role,
		Password: "x",
	}
	require.NoError(tb, db.Create(&u).Error)
	return u
}

// SeedFormation creates a published formation with the given module titles,
// ordered as passed.
func SeedFormation(tb testing.TB, db *gorm.DB, title string, modules ...string) (formation.Formation, []formation.Module) {
	tb.Helper()
	f := formation.Formation{Title: title, Status: formation.StatusPublished, Level: "beginner"}
	require.NoError(tb, db.Create(&f).Error)

	mods := make([]formation.Module, 0, len(modules))
	for i, m := range modules {
		mod := formation.Module{FormationID: f.ID, Title: m, OrderIndex: i + 1}
		require.NoError(tb, db.Create(&mod).Error)
		mods = append(mods, mod)
	}
	return f, mods
}

func SeedRegistration(tb testing.TB, db *gorm.DB, userID, formationID uint, status string) formation.FormationRegistration {
	tb.Helper()
	reg := formation.FormationRegistration{
		UserID:       userID,
		FormationID:  formationID,
		Status:       status,
		RegisteredAt: time.Date(2025, 1, 15, 9, 0, 0, 0, time.UTC),
	}
	require.NoError(tb, db.Create(&reg).Error)
	return reg
}

func SeedCompletion(tb testing.TB, db *gorm.DB, userID, moduleID uint) {
	tb.Helper()
	require.NoError(tb, db.Create(&formation.ModuleCompletion{
		UserID:      userID,
		ModuleID:    moduleID,
		CompletedAt: time.Now(),
	}).Error)
}
