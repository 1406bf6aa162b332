package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/example/tableorder/pkg/config"
	"github.com/example/tableorder/pkg/store"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type ClientState struct {
	Key       string    `gorm:"column:state_key;type:varchar(191);primaryKey"`
	Value     string    `gorm:"column:state_value;type:text;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (ClientState) TableName() string {
	return "client_state"
}

// SQLStore keeps client state in a MySQL table, one row per key.
type SQLStore struct {
	db *gorm.DB
}

func NewSQLStore(cfg *config.MySQLConfig) (*SQLStore, error) {
	db, err := gorm.Open(mysql.Open(cfg.DSN()), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mysql: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql db: %w", err)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}

	return NewSQLStoreWithDB(db)
}

// NewSQLStoreWithDB migrates the client_state table on db.
func NewSQLStoreWithDB(db *gorm.DB) (*SQLStore, error) {
	if err := db.AutoMigrate(&ClientState{}); err != nil {
		return nil, fmt.Errorf("failed to migrate client_state: %w", err)
	}
	return &SQLStore{db: db}, nil
}

func (s *SQLStore) Get(ctx context.Context, key string) (string, error) {
	var row ClientState
	err := s.db.WithContext(ctx).First(&row, "state_key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", store.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to get %s: %w", key, err)
	}
	return row.Value, nil
}

func (s *SQLStore) Set(ctx context.Context, key, value string) error {
	row := ClientState{Key: key, Value: value, UpdatedAt: time.Now()}
	if err := s.db.WithContext(ctx).Save(&row).Error; err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	return nil
}

func (s *SQLStore) Remove(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := s.db.WithContext(ctx).Where("state_key IN ?", keys).Delete(&ClientState{}).Error; err != nil {
		return fmt.Errorf("failed to remove keys: %w", err)
	}
	return nil
}

func (s *SQLStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
