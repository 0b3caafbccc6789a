package store

import (
	"context"
	"errors"
	"time"

	"github.com/dgraph-io/ristretto"
	"gorm.io/gorm"
)

// UnknownName is returned for user IDs the identity store cannot resolve.
// Read models must stay usable even when identity data lags behind.
const UnknownName = "Unknown"

// Directory resolves identity keys to display names for read models.
// Visitors are keyed by their user account ID; providers register under
// their provider ID.
type Directory interface {
	DisplayName(ctx context.Context, userID string) (string, error)
}

// Identity is one row of the identity table.
type Identity struct {
	UserID      string `gorm:"primaryKey;column:user_id"`
	DisplayName string `gorm:"column:display_name"`
}

const defaultIdentityTableName = "lounge_identities"

// GormDirectory implements Directory using a GORM backend.
type GormDirectory struct {
	db        *gorm.DB
	tableName string
	timeout   time.Duration
}

// NewGormDirectory returns a new GormDirectory using the provided connection.
func NewGormDirectory(db *gorm.DB) *GormDirectory {
	if !db.Migrator().HasTable(defaultIdentityTableName) {
		_ = db.Table(defaultIdentityTableName).AutoMigrate(&Identity{})
	}
	return &GormDirectory{db: db, tableName: defaultIdentityTableName, timeout: defaultGormOpTimeout}
}

// DisplayName implements Directory.DisplayName.
func (d *GormDirectory) DisplayName(ctx context.Context, userID string) (string, error) {
	cctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	var id Identity
	err := d.db.WithContext(cctx).Table(d.tableName).First(&id, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return UnknownName, nil
	}
	if err != nil {
		return "", err
	}
	return id.DisplayName, nil
}

// Put inserts or updates an identity row.
func (d *GormDirectory) Put(ctx context.Context, id Identity) error {
	cctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()
	return d.db.WithContext(cctx).Table(d.tableName).Save(&id).Error
}

// CachedDirectory decorates a Directory with a ristretto read-through cache.
// Display names change rarely; a short TTL keeps renames from sticking.
type CachedDirectory struct {
	next  Directory
	cache *ristretto.Cache
	ttl   time.Duration
}

// NewCachedDirectory returns a caching decorator around next.
func NewCachedDirectory(next Directory, ttl time.Duration) *CachedDirectory {
	c, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 1e4,
		MaxCost:     1 << 20,
		BufferItems: 64,
	})
	if err != nil {
		panic(err)
	}
	return &CachedDirectory{next: next, cache: c, ttl: ttl}
}

// DisplayName implements Directory.DisplayName.
func (d *CachedDirectory) DisplayName(ctx context.Context, userID string) (string, error) {
	if v, ok := d.cache.Get(userID); ok {
		if name, ok := v.(string); ok {
			return name, nil
		}
	}
	name, err := d.next.DisplayName(ctx, userID)
	if err != nil {
		return "", err
	}
	d.cache.SetWithTTL(userID, name, int64(len(name)), d.ttl)
	return name, nil
}

// StaticDirectory is a fixed map Directory, mainly for testing.
type StaticDirectory map[string]string

// DisplayName implements Directory.DisplayName.
func (d StaticDirectory) DisplayName(ctx context.Context, userID string) (string, error) {
	if name, ok := d[userID]; ok {
		return name, nil
	}
	return UnknownName, nil
}
