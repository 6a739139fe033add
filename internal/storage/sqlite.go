package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

type storedValue struct {
	Namespace string `gorm:"primaryKey;size:255"`
	Name      string `gorm:"primaryKey;size:255"`
	Value     string `gorm:"type:text"`
	UpdatedAt time.Time
}

func (storedValue) TableName() string {
	return "desk_values"
}

// SQLStorage keeps values in a SQLite database shared by every namespace.
type SQLStorage struct {
	db        *gorm.DB
	namespace string
}

func NewSQLStorage(path string, namespace string) (*SQLStorage, error) {
	if len(path) == 0 {
		dir, err := DefaultDirectory()
		if err != nil {
			return nil, err
		}
		path = filepath.Join(dir, "desk.db")
	}

	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
			return nil, fmt.Errorf("failed to create storage directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite storage: %w", err)
	}

	if err := db.AutoMigrate(&storedValue{}); err != nil {
		return nil, fmt.Errorf("failed to migrate sqlite storage: %w", err)
	}

	if len(namespace) == 0 {
		namespace = "default"
	}

	return &SQLStorage{
		db:        db,
		namespace: namespace,
	}, nil
}

func (s *SQLStorage) Get(key string) (string, bool) {
	var record storedValue
	err := s.db.Where(&storedValue{Namespace: s.namespace, Name: key}).First(&record).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false
	} else if err != nil {
		logrus.WithFields(logrus.Fields{
			"namespace": s.namespace,
			"key":       key,
		}).WithError(err).Warnln("Failed to read value from sqlite storage")
		return "", false
	}

	return record.Value, true
}

func (s *SQLStorage) Set(key string, value string) error {
	record := storedValue{
		Namespace: s.namespace,
		Name:      key,
		Value:     value,
		UpdatedAt: time.Now().UTC(),
	}

	return s.db.Clauses(clause.OnConflict{UpdateAll: true}).Create(&record).Error
}

func (s *SQLStorage) Remove(key string) error {
	return s.db.Where(&storedValue{Namespace: s.namespace, Name: key}).Delete(&storedValue{}).Error
}

func (s *SQLStorage) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
