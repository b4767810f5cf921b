// Package app wires a workspace database to a resolved firm and its stored
// configuration, seeding both on first use.
package app

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"docketline/internal/config"
	"docketline/internal/domain"
	"docketline/internal/engine"
	"docketline/internal/repo"
)

// ResolveFirmAndConfig returns the workspace's firm and its stored config.
// On a fresh workspace it seeds the firm from docketline.yml when present,
// falling back to the default template. The stored copy is authoritative
// afterwards; `dl firm config import` replaces it.
func ResolveFirmAndConfig(ctx context.Context, db *sql.DB, workspace string) (domain.Firm, *config.Config, error) {
	r := repo.Repo{DB: db}
	firm, err := r.SingleFirm(ctx)
	if errors.Is(err, repo.ErrNotFound) {
		cfg, err := seedConfig(workspace)
		if err != nil {
			return domain.Firm{}, nil, err
		}
		eng := engine.New(db, cfg)
		firm, err := eng.InitFirm(ctx, cfg.Firm.Name, "system")
		if err != nil {
			return domain.Firm{}, nil, err
		}
		return firm, cfg, nil
	}
	if err != nil {
		return domain.Firm{}, nil, err
	}
	cfg, err := r.GetFirmConfig(ctx, firm.ID)
	if errors.Is(err, repo.ErrNotFound) {
		cfg, err = seedConfig(workspace)
		if err != nil {
			return domain.Firm{}, nil, err
		}
		cfg.Firm.ID = firm.ID
		if err := r.UpsertFirmConfig(ctx, firm.ID, cfg); err != nil {
			return domain.Firm{}, nil, err
		}
		return firm, cfg, nil
	}
	if err != nil {
		return domain.Firm{}, nil, err
	}
	return firm, cfg, nil
}

func seedConfig(workspace string) (*config.Config, error) {
	cfg, err := config.LoadOptional(workspace)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		cfg = config.Default(uuid.NewString())
	} else if cfg.Firm.ID == "" {
		cfg.Firm.ID = uuid.NewString()
	}
	return cfg, nil
}
