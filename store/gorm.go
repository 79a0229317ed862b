package store

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/benz9527/xtree/lib/infra"
	"github.com/benz9527/xtree/xlog"
)

// Snapshot is the row a GormStore keeps per key.
type Snapshot struct {
	Name      string `gorm:"primaryKey;size:128"`
	Data      []byte
	UpdatedAt time.Time
}

func (Snapshot) TableName() string {
	return "xtree_snapshots"
}

var _ Store = (*GormStore)(nil)

type GormStore struct {
	db     *gorm.DB
	closed atomic.Bool
}

// NewGormStore migrates the snapshot table on db.
func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if db == nil {
		return nil, infra.NewErrorStack("[store] gorm store without db")
	}
	if err := db.AutoMigrate(&Snapshot{}); err != nil {
		return nil, infra.WrapErrorStackWithMessage(err, "[store] migrate snapshot table")
	}
	return &GormStore{db: db}, nil
}

// OpenSqliteStore opens (or creates) the sqlite database at dsn,
// ":memory:" keeps it in the process.
func OpenSqliteStore(dsn string, logger xlog.XLogger) (*GormStore, error) {
	cfg := &gorm.Config{}
	if logger != nil {
		cfg.Logger = xlog.NewGormXLogger(logger,
			xlog.WithGormXLoggerIgnoreRecord404Err(),
			xlog.WithGormXLoggerSlowThreshold(200*time.Millisecond),
		)
	}
	db, err := gorm.Open(sqlite.Open(dsn), cfg)
	if err != nil {
		return nil, infra.WrapErrorStackWithMessage(err, "[store] open sqlite "+dsn)
	}
	return NewGormStore(db)
}

func (s *GormStore) Load(ctx context.Context, key string) ([]byte, error) {
	if s.closed.Load() {
		return nil, ErrStoreClosed
	}
	var row Snapshot
	err := s.db.WithContext(ctx).Where("name = ?", key).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, infra.WrapErrorStackWithMessage(err, "[store] load "+key)
	}
	return row.Data, nil
}

func (s *GormStore) Save(ctx context.Context, key string, data []byte) error {
	if s.closed.Load() {
		return ErrStoreClosed
	}
	if key == "" {
		return ErrEmptyKey
	}
	row := Snapshot{Name: key, Data: data, UpdatedAt: time.Now()}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"data", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return infra.WrapErrorStackWithMessage(err, "[store] save "+key)
	}
	return nil
}

func (s *GormStore) Delete(ctx context.Context, key string) error {
	if s.closed.Load() {
		return ErrStoreClosed
	}
	if err := s.db.WithContext(ctx).Where("name = ?", key).Delete(&Snapshot{}).Error; err != nil {
		return infra.WrapErrorStackWithMessage(err, "[store] delete "+key)
	}
	return nil
}

func (s *GormStore) Keys(ctx context.Context) ([]string, error) {
	if s.closed.Load() {
		return nil, ErrStoreClosed
	}
	keys := make([]string, 0, 8)
	if err := s.db.WithContext(ctx).Model(&Snapshot{}).Order("name").Pluck("name", &keys).Error; err != nil {
		return nil, infra.WrapErrorStackWithMessage(err, "[store] list keys")
	}
	return keys, nil
}

func (s *GormStore) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return infra.WrapErrorStack(err)
	}
	return sqlDB.Close()
}
