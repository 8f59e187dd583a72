package services

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/pgadwala09/VocabPro-sub001/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// each sqlite connection gets its own :memory: database
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Debate{}, &models.Turn{}))
	return db
}

// backdate moves a turn's deadline into the past so the sweep sees it.
func backdate(t *testing.T, db *gorm.DB, turnID uint) {
	t.Helper()
	past := time.Now().UTC().Add(-2 * time.Second)
	require.NoError(t, db.Model(&models.Turn{}).
		Where("id = ?", turnID).
		Update("ends_at", past).Error)
}

// failNextTurnInsert makes the next INSERT into turns fail, simulating a
// store hiccup mid-transaction. Later inserts go through normally.
func failNextTurnInsert(t *testing.T, db *gorm.DB) {
	t.Helper()
	fired := false
	err := db.Callback().Create().Before("gorm:create").Register("turn_insert_fault", func(tx *gorm.DB) {
		if fired || tx.Statement.Schema == nil || tx.Statement.Schema.Table != "turns" {
			return
		}
		fired = true
		tx.AddError(errors.New("injected insert failure"))
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, db.Callback().Create().Remove("turn_insert_fault"))
	})
}

func loadTurn(t *testing.T, db *gorm.DB, turnID uint) *models.Turn {
	t.Helper()
	var turn models.Turn
	require.NoError(t, db.First(&turn, turnID).Error)
	return &turn
}
