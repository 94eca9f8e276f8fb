package service

import (
	"context"
	"database/sql"
	"fmt"
	"maps"

	"github.com/ndewijer/Paper-Trading-Dashboard-Backend/internal/apperrors"
	"github.com/ndewijer/Paper-Trading-Dashboard-Backend/internal/database"
	"github.com/ndewijer/Paper-Trading-Dashboard-Backend/internal/model"
	"github.com/ndewijer/Paper-Trading-Dashboard-Backend/internal/version"
)

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// SystemService handles system-related operations
type SystemService struct {
	db        *sql.DB
	store     Pinger
	storeName string
	features  map[string]bool
}

// NewSystemService creates a new SystemService. db carries the migration
// state and may be nil when the ledger store is not SQLite.
func NewSystemService(db *sql.DB, store Pinger, storeName string, features map[string]bool) *SystemService {
	return &SystemService{
		db:        db,
		store:     store,
		storeName: storeName,
		features:  features,
	}
}

// CheckHealth checks that the ledger store is reachable
func (s *SystemService) CheckHealth(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// CheckVersion returns the application version, schema version and enabled features.
func (s *SystemService) CheckVersion() (model.VersionInfo, error) {
	info := model.VersionInfo{
		AppVersion: version.Version,
		Store:      s.storeName,
		Features:   maps.Clone(s.features),
	}
	if info.Features == nil {
		info.Features = map[string]bool{}
	}

	if s.db != nil {
		v, err := database.Version(s.db)
		if err != nil {
			return model.VersionInfo{}, fmt.Errorf("%w: %w", apperrors.ErrFailedToGetVersionInfo, err)
		}
		info.DbVersion = v
	}
	return info, nil
}
