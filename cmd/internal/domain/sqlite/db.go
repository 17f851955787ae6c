package sqlite

import (
	"agenda/cmd/internal/domain/entity"
	"gorm.io/driver/sqlite"
	stdlog "log"
	"os"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Init opens the database at path and migrates the schema. The pool is kept
// to a single connection, so ":memory:" databases survive between queries
// and writers are serialized.
func Init(path string) (*gorm.DB, error) {
	return InitWithLogger(path, NewLogger(stdlog.New(os.Stdout, "\r\n", stdlog.LstdFlags)))
}

// InitWithLogger is Init with the SQL logger supplied by the caller.
func InitWithLogger(path string, l logger.Interface) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: l,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(time.Hour)

	err = db.AutoMigrate(&entity.Appointment{})
	if err != nil {
		return nil, err
	}

	return db, nil
}

// NewLogger reports slow queries and SQL errors to w. A lookup that matches
// no row is not an error here.
func NewLogger(w logger.Writer) logger.Interface {
	return logger.New(w, logger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  logger.Warn,
		IgnoreRecordNotFoundError: true,
	})
}
