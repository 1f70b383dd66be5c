package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/example/rental-broker/internal/domain/rental"
	"github.com/example/rental-broker/internal/internaltypes"
)

// FleetRepo stores provider fleets in fleet_car_types. Reservations are
// never written here.
type FleetRepo struct{ pool *pgxpool.Pool }

func NewFleetRepo(pool *pgxpool.Pool) *FleetRepo { return &FleetRepo{pool: pool} }

// LoadFleet returns the fleet of provider in insertion order, or
// internaltypes.ErrNotFound when the provider has no rows.
func (r *FleetRepo) LoadFleet(ctx context.Context, provider string) ([]rental.FleetEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT name, seats, trunk_space, price_per_day, smoking_allowed, car_count
		FROM fleet_car_types WHERE provider=$1 ORDER BY position
	`, provider)
	if err != nil {
		return nil, err
	}
	entries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (rental.FleetEntry, error) {
		var e rental.FleetEntry
		err := row.Scan(&e.Type.Name, &e.Type.Seats, &e.Type.TrunkSpace, &e.Type.PricePerDay, &e.Type.SmokingAllowed, &e.Count)
		return e, err
	})
	if err != nil {
		return nil, fmt.Errorf("load fleet %s: %w", provider, err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("fleet %s: %w", provider, internaltypes.ErrNotFound)
	}
	return entries, nil
}

// ReplaceFleet swaps the stored fleet of provider for entries in one
// transaction.
func (r *FleetRepo) ReplaceFleet(ctx context.Context, provider string, entries []rental.FleetEntry) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM fleet_car_types WHERE provider=$1`, provider); err != nil {
			return err
		}
		batch := &pgx.Batch{}
		for i, e := range entries {
			batch.Queue(`
				INSERT INTO fleet_car_types (provider, position, name, seats, trunk_space, price_per_day, smoking_allowed, car_count)
				VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
				ON CONFLICT (provider, name) DO UPDATE SET car_count = fleet_car_types.car_count + EXCLUDED.car_count, updated_at = now()
			`, provider, i, e.Type.Name, e.Type.Seats, e.Type.TrunkSpace, e.Type.PricePerDay, e.Type.SmokingAllowed, e.Count)
		}
		return tx.SendBatch(ctx, batch).Close()
	})
}

// Providers lists the providers that have a stored fleet.
func (r *FleetRepo) Providers(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT DISTINCT provider FROM fleet_car_types ORDER BY provider`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}
