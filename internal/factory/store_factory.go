package factory

import (
	"fmt"

	"github.com/mikey/mailguard/internal/adapters/attachments"
	"github.com/mikey/mailguard/internal/adapters/store"
	"github.com/mikey/mailguard/internal/config"
	"github.com/mikey/mailguard/internal/core"
	"go.uber.org/zap"
)

// StoreFactory creates record and attachment stores based on configuration
type StoreFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewStoreFactory creates a new store factory
func NewStoreFactory(cfg *config.Config, logger *zap.Logger) *StoreFactory {
	return &StoreFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateRecordStore creates a record store based on the configuration
func (f *StoreFactory) CreateRecordStore() (core.RecordStore, error) {
	sc := f.cfg.GetStore()

	switch sc.Type {
	case "memory":
		return store.NewMemoryStore(f.logger), nil
	case "sqlite":
		return store.NewSQLiteStore(sc.SQLitePath, f.logger)
	case "mysql":
		return store.NewMySQLStore(sc.MySQLDSN, f.logger)
	case "postgres":
		return store.NewPostgresStore(sc.PostgresDSN, f.logger)
	default:
		return nil, fmt.Errorf("unsupported store type: %s", sc.Type)
	}
}

// CreateAttachmentStore creates the attachment store, or returns nil when attachment
// saving is disabled
func (f *StoreFactory) CreateAttachmentStore() (core.AttachmentStore, error) {
	ac := f.cfg.GetAttachments()
	if !ac.Enabled {
		f.logger.Info("Attachment storage disabled")
		return nil, nil
	}
	return attachments.NewFSStore(ac.Dir, f.logger)
}
