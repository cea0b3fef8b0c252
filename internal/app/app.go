// Package app wires the storage backend, the ledger and its subscribers from
// configuration. The API server and the CLI share it.
package app

import (
	"context"
	"fmt"
	"io"

	"gorm.io/gorm"

	"circle/internal/balance"
	"circle/internal/config"
	"circle/internal/database"
	"circle/internal/ledger"
	"circle/internal/logger"
	"circle/internal/pagination"
	"circle/internal/services"
	"circle/internal/store"
	"circle/internal/store/boltstore"
	"circle/internal/store/gormstore"
)

// App holds the long-lived components built from one Config.
type App struct {
	Config  *config.Config
	Gateway store.Gateway
	Ledger  *ledger.Ledger
	Engine  *balance.Engine
	Rates   *balance.StaticRates

	// DB is nil on the bolt backend.
	DB *gorm.DB

	Accounts     services.AccountServicer
	Categories   services.CategoryServicer
	Payees       services.PayeeServicer
	Transactions services.TransactionServicer
	Reports      services.ReportServicer
	Imports      services.ImportServicer
	Audit        services.AuditServicer

	closer io.Closer
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

// Open opens the configured backend, running migrations for SQL drivers, and
// subscribes the balance engine and the audit trail to the ledger.
func Open(cfg *config.Config) (*App, error) {
	rates, err := balance.ParseRates(cfg.BaseCurrency, cfg.ExchangeRates)
	if err != nil {
		return nil, fmt.Errorf("failed to parse exchange rates: %w", err)
	}

	a := &App{Config: cfg, Rates: rates}
	pagination.SetDefaultPageSize(cfg.PageSize)

	switch cfg.DBDriver {
	case config.DriverBolt:
		s, err := boltstore.Open(cfg.DBPath)
		if err != nil {
			return nil, err
		}
		a.Gateway = s
		a.closer = s
	default:
		manager, err := database.NewManager(database.NewConfig(cfg))
		if err != nil {
			return nil, fmt.Errorf("failed to create database manager: %w", err)
		}
		if err := manager.RunMigrations(); err != nil {
			_ = manager.Close()
			return nil, fmt.Errorf("failed to run database migrations: %w", err)
		}
		a.DB = manager.DB()
		a.Gateway = gormstore.New(a.DB)
		a.closer = closerFunc(manager.Close)
	}

	a.Ledger = ledger.New(a.Gateway)
	a.Engine = balance.NewEngine(a.Gateway)
	a.Audit = services.NewAuditService(a.DB)
	a.Ledger.Subscribe(a.Engine)
	a.Ledger.Subscribe(a.Audit)

	a.Accounts = services.NewAccountService(a.Ledger)
	a.Categories = services.NewCategoryService(a.Ledger, cfg.CategorySeedFile)
	a.Payees = services.NewPayeeService(a.Gateway)
	a.Transactions = services.NewTransactionService(a.Ledger)
	a.Reports = services.NewReportService(a.Gateway, a.Engine, rates.Base, rates)
	a.Imports = services.NewImportService(a.Ledger)

	logger.Get().Infow("Storage ready", "driver", cfg.DBDriver, "path", cfg.DBPath)
	return a, nil
}

// Warm seeds default categories into an empty store and fills the balance
// cache.
func (a *App) Warm(ctx context.Context) error {
	if _, err := a.Categories.SeedDefaults(ctx); err != nil {
		return fmt.Errorf("failed to seed categories: %w", err)
	}
	if err := a.Engine.Recompute(ctx); err != nil {
		return fmt.Errorf("failed to compute balances: %w", err)
	}
	return nil
}

// Close releases the storage backend.
func (a *App) Close() error {
	if a.closer == nil {
		return nil
	}
	return a.closer.Close()
}
