package repo

import (
	"context"
	"fmt"
)

// ClanRow is a persisted clan.
type ClanRow struct {
	ID      int32  `json:"id"`
	Name    string `json:"name"`
	Tag     string `json:"tag"`
	OwnerID int32  `json:"owner_id"`
}

// PoolRow is a persisted tournament map pool.
type PoolRow struct {
	ID        int32  `json:"id"`
	Name      string `json:"name"`
	CreatedBy int32  `json:"created_by"`
}

// FetchClans loads all clans.
func (s *Store) FetchClans(ctx context.Context) ([]ClanRow, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, name, tag, owner_id FROM clans ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query clans: %w", err)
	}
	defer rows.Close()

	var out []ClanRow
	for rows.Next() {
		var c ClanRow
		if err := rows.Scan(&c.ID, &c.Name, &c.Tag, &c.OwnerID); err != nil {
			return nil, fmt.Errorf("failed to scan clan row: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// FetchPools loads all map pools.
func (s *Store) FetchPools(ctx context.Context) ([]PoolRow, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, name, created_by FROM mappools ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query mappools: %w", err)
	}
	defer rows.Close()

	var out []PoolRow
	for rows.Next() {
		var p PoolRow
		if err := rows.Scan(&p.ID, &p.Name, &p.CreatedBy); err != nil {
			return nil, fmt.Errorf("failed to scan pool row: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
