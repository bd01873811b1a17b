// Package testdb opens migrated in-memory SQLite databases for repository tests.
package testdb

import (
	"fmt"
	"sync/atomic"

	activityDatamodel "github.com/frahmantamala/club-management/internal/core/datamodel/activity"
	cashboxDatamodel "github.com/frahmantamala/club-management/internal/core/datamodel/cashbox"
	contributionDatamodel "github.com/frahmantamala/club-management/internal/core/datamodel/contribution"
	expenseDatamodel "github.com/frahmantamala/club-management/internal/core/datamodel/expense"
	memberDatamodel "github.com/frahmantamala/club-management/internal/core/datamodel/member"
	notificationDatamodel "github.com/frahmantamala/club-management/internal/core/datamodel/notification"
	transferDatamodel "github.com/frahmantamala/club-management/internal/core/datamodel/transfer"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var seq atomic.Int64

// Models lists every table of the schema.
func Models() []interface{} {
	return []interface{}{
		&memberDatamodel.Member{},
		&memberDatamodel.AuditLog{},
		&contributionDatamodel.Contribution{},
		&contributionDatamodel.Payment{},
		&cashboxDatamodel.CashBox{},
		&expenseDatamodel.Expense{},
		&transferDatamodel.CashBoxTransfer{},
		&activityDatamodel.Activity{},
		&activityDatamodel.Announcement{},
		&activityDatamodel.Seen{},
		&notificationDatamodel.InApp{},
		&notificationDatamodel.Log{},
	}
}

// Open returns an isolated database. A single connection keeps concurrent
// writers serialized the way row locks would on PostgreSQL.
func Open() (*gorm.DB, error) {
	dsn := fmt.Sprintf("file:clubtest%d?mode=memory&cache=shared", seq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(Models()...); err != nil {
		return nil, err
	}
	return db, nil
}
