package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"folha/internal/domain/auth"
)

// Seed creates the minimum data a fresh install needs: one admin user,
// one branch and the company settings row. Existing rows are left
// alone, so running it on every boot is safe.
func Seed(ctx context.Context, pool *pgxpool.Pool, log zerolog.Logger) error {
	var users int
	if err := pool.QueryRow(ctx, "SELECT COUNT(1) FROM users").Scan(&users); err != nil {
		return err
	}
	if users == 0 {
		hash, err := auth.HashPassword("admin")
		if err != nil {
			return err
		}
		if _, err := pool.Exec(ctx, `
      INSERT INTO users (username, display_name, role, password_hash)
      VALUES ('admin', 'Administrador', $1, $2)
    `, auth.RoleAdmin, hash); err != nil {
			return err
		}
		log.Warn().Msg("seeded default admin user, change its password")
	}

	if _, err := pool.Exec(ctx, `
    INSERT INTO branches (name, city, address)
    SELECT 'Sede', 'Luanda', ''
    WHERE NOT EXISTS (SELECT 1 FROM branches)
  `); err != nil {
		return err
	}

	_, err := pool.Exec(ctx, `
    INSERT INTO settings (key, value)
    VALUES ('company_name', 'Minha Empresa')
    ON CONFLICT (key) DO NOTHING
  `)
	return err
}
