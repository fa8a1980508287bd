// Package gormstore implements storage.Store on MySQL through gorm.
package gormstore

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"salgados/internal/storage"
)

var _ storage.Store = (*Store)(nil)

type record struct {
	Bucket  string `gorm:"primaryKey;size:191"`
	Payload []byte `gorm:"type:longblob;not null"`
}

func (record) TableName() string { return "records" }

type Store struct {
	db *gorm.DB
}

// Open connects to MySQL and auto-migrates the records table.
func Open(dsn string) (*Store, error) {
	if dsn == "" {
		return nil, errors.New("mysql dsn required")
	}
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open mysql: %w", err)
	}
	return New(db)
}

// New wraps an existing gorm handle of any dialect.
func New(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(&record{}); err != nil {
		return nil, fmt.Errorf("migrate records: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var r record
	err := s.db.WithContext(ctx).Where("bucket = ?", key).First(&r).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("select %s: %w", key, err)
	}
	return r.Payload, true, nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	r := record{Bucket: key, Payload: value}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "bucket"}},
		DoUpdates: clause.AssignmentColumns([]string{"payload"}),
	}).Create(&r).Error
	if err != nil {
		return fmt.Errorf("upsert %s: %w", key, err)
	}
	return nil
}

func (s *Store) Remove(ctx context.Context, key string) error {
	if err := s.db.WithContext(ctx).Where("bucket = ?", key).Delete(&record{}).Error; err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
