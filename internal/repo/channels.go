package repo

import (
	"context"
	"fmt"
)

// ChannelRow is a persisted chat channel definition.
type ChannelRow struct {
	Name     string `json:"name"`
	Topic    string `json:"topic"`
	AutoJoin bool   `json:"auto_join"`
}

// FetchChannels loads all persisted channel definitions.
func (s *Store) FetchChannels(ctx context.Context) ([]ChannelRow, error) {
	rows, err := s.db.Query(ctx,
		`SELECT name, topic, auto_join FROM channels ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query channels: %w", err)
	}
	defer rows.Close()

	var out []ChannelRow
	for rows.Next() {
		var ch ChannelRow
		if err := rows.Scan(&ch.Name, &ch.Topic, &ch.AutoJoin); err != nil {
			return nil, fmt.Errorf("failed to scan channel row: %w", err)
		}
		out = append(out, ch)
	}
	return out, rows.Err()
}

// UpsertChannel creates or updates a channel definition.
func (s *Store) UpsertChannel(ctx context.Context, ch ChannelRow) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO channels (name, topic, auto_join) VALUES (?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET topic = excluded.topic, auto_join = excluded.auto_join`,
		ch.Name, ch.Topic, ch.AutoJoin)
	return err
}
