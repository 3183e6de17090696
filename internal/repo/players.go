package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("repo: not found")

// Store provides access to persistent server data. It owns the schema
// and wraps the raw Database with typed queries.
type Store struct {
	db *Database
}

// Account represents a registered player account.
type Account struct {
	ID             int32     `json:"id"`
	Name           string    `json:"name"`
	SafeName       string    `json:"safe_name"`
	PasswordBcrypt string    `json:"-"`
	Privileges     uint64    `json:"privileges"`
	Country        string    `json:"country"`
	ClanID         int32     `json:"clan_id"`
	SilenceEnd     time.Time `json:"silence_end"`
	LatestActivity time.Time `json:"latest_activity"`
	CreatedAt      time.Time `json:"created_at"`
}

// AccountStats holds per-mode gameplay statistics for an account.
type AccountStats struct {
	AccountID   int32   `json:"account_id"`
	Mode        uint8   `json:"mode"`
	RankedScore int64   `json:"ranked_score"`
	TotalScore  int64   `json:"total_score"`
	Accuracy    float32 `json:"accuracy"`
	PlayCount   int32   `json:"play_count"`
	Rank        int32   `json:"rank"`
	PP          int16   `json:"pp"`
}

// NewStore creates and initializes the data store.
func NewStore(dbPath string) (*Store, error) {
	database, err := NewDatabase(dbPath)
	if err != nil {
		return nil, err
	}

	s := &Store{db: database}

	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	if err := s.seedDefaults(); err != nil {
		return nil, fmt.Errorf("failed to seed defaults: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS accounts (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT UNIQUE NOT NULL,
			safe_name TEXT UNIQUE NOT NULL,
			pw_bcrypt TEXT NOT NULL,
			privileges INTEGER NOT NULL DEFAULT 1,
			country TEXT NOT NULL DEFAULT 'XX',
			clan_id INTEGER NOT NULL DEFAULT 0,
			silence_end DATETIME,
			latest_activity DATETIME DEFAULT CURRENT_TIMESTAMP,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS stats (
			account_id INTEGER NOT NULL,
			mode INTEGER NOT NULL,
			ranked_score INTEGER NOT NULL DEFAULT 0,
			total_score INTEGER NOT NULL DEFAULT 0,
			accuracy REAL NOT NULL DEFAULT 0,
			play_count INTEGER NOT NULL DEFAULT 0,
			rank INTEGER NOT NULL DEFAULT 0,
			pp INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (account_id, mode),
			FOREIGN KEY (account_id) REFERENCES accounts(id) ON DELETE CASCADE
		);

		CREATE TABLE IF NOT EXISTS friendships (
			account_id INTEGER NOT NULL,
			friend_id INTEGER NOT NULL,
			PRIMARY KEY (account_id, friend_id),
			FOREIGN KEY (account_id) REFERENCES accounts(id) ON DELETE CASCADE,
			FOREIGN KEY (friend_id) REFERENCES accounts(id) ON DELETE CASCADE
		);

		CREATE TABLE IF NOT EXISTS channels (
			name TEXT PRIMARY KEY,
			topic TEXT NOT NULL DEFAULT '',
			auto_join INTEGER NOT NULL DEFAULT 0
		);

		CREATE TABLE IF NOT EXISTS clans (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT UNIQUE NOT NULL,
			tag TEXT UNIQUE NOT NULL,
			owner_id INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS mappools (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT UNIQUE NOT NULL,
			created_by INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);

		CREATE INDEX IF NOT EXISTS idx_accounts_safe_name ON accounts(safe_name);
		CREATE INDEX IF NOT EXISTS idx_friendships_account ON friendships(account_id);
	`

	_, err := s.db.Exec(context.Background(), schema)
	if err != nil {
		return fmt.Errorf("schema migration failed: %w", err)
	}

	log.Debug().Msg("database schema migrated")
	return nil
}

// seedDefaults creates the built-in channels and bot account if missing.
func (s *Store) seedDefaults() error {
	return s.db.Transaction(context.Background(), func(tx *sql.Tx) error {
		channels := []struct {
			name, topic string
			autoJoin    bool
		}{
			{"#osu", "General discussion.", true},
			{"#announce", "Score announcements and server news.", true},
			{"#lobby", "Find multiplayer games here.", false},
		}
		for _, ch := range channels {
			if _, err := tx.Exec(
				`INSERT OR IGNORE INTO channels (name, topic, auto_join) VALUES (?, ?, ?)`,
				ch.name, ch.topic, ch.autoJoin,
			); err != nil {
				return err
			}
		}

		// The bot occupies account id 1 so real accounts start at 2.
		if _, err := tx.Exec(
			`INSERT OR IGNORE INTO accounts (id, name, safe_name, pw_bcrypt, privileges, country)
			 VALUES (1, 'Lagoon', 'lagoon', '', 385, 'SH')`,
		); err != nil {
			return err
		}

		return nil
	})
}

// FetchAccountByName looks up an account by its safe (normalised) name.
func (s *Store) FetchAccountByName(ctx context.Context, name string) (*Account, error) {
	safeName := strings.ToLower(strings.ReplaceAll(name, " ", "_"))
	return s.scanAccount(s.db.QueryRow(ctx,
		`SELECT id, name, safe_name, pw_bcrypt, privileges, country, clan_id,
		        COALESCE(silence_end, '0001-01-01T00:00:00Z'), latest_activity, created_at
		 FROM accounts WHERE safe_name = ?`, safeName))
}

// FetchAccountByID looks up an account by id.
func (s *Store) FetchAccountByID(ctx context.Context, id int32) (*Account, error) {
	return s.scanAccount(s.db.QueryRow(ctx,
		`SELECT id, name, safe_name, pw_bcrypt, privileges, country, clan_id,
		        COALESCE(silence_end, '0001-01-01T00:00:00Z'), latest_activity, created_at
		 FROM accounts WHERE id = ?`, id))
}

func (s *Store) scanAccount(row *sql.Row) (*Account, error) {
	var a Account
	err := row.Scan(&a.ID, &a.Name, &a.SafeName, &a.PasswordBcrypt, &a.Privileges,
		&a.Country, &a.ClanID, &a.SilenceEnd, &a.LatestActivity, &a.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan account: %w", err)
	}
	return &a, nil
}

// CreateAccount registers a new account and its empty stats rows.
func (s *Store) CreateAccount(ctx context.Context, name, pwBcrypt, country string, privileges uint64) (int32, error) {
	safeName := strings.ToLower(strings.ReplaceAll(name, " ", "_"))

	var id int32
	err := s.db.Transaction(ctx, func(tx *sql.Tx) error {
		res, err := tx.Exec(
			`INSERT INTO accounts (name, safe_name, pw_bcrypt, privileges, country)
			 VALUES (?, ?, ?, ?, ?)`,
			name, safeName, pwBcrypt, privileges, country,
		)
		if err != nil {
			return err
		}
		lastID, err := res.LastInsertId()
		if err != nil {
			return err
		}
		id = int32(lastID)

		for mode := 0; mode < 4; mode++ {
			if _, err := tx.Exec(
				`INSERT INTO stats (account_id, mode) VALUES (?, ?)`, id, mode,
			); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to create account %s: %w", name, err)
	}

	log.Info().Int32("id", id).Str("name", name).Msg("account created")
	return id, nil
}

// FetchStats loads all per-mode stats rows for an account.
func (s *Store) FetchStats(ctx context.Context, accountID int32) ([]AccountStats, error) {
	rows, err := s.db.Query(ctx,
		`SELECT account_id, mode, ranked_score, total_score, accuracy, play_count, rank, pp
		 FROM stats WHERE account_id = ? ORDER BY mode`, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to query stats: %w", err)
	}
	defer rows.Close()

	var out []AccountStats
	for rows.Next() {
		var st AccountStats
		if err := rows.Scan(&st.AccountID, &st.Mode, &st.RankedScore, &st.TotalScore,
			&st.Accuracy, &st.PlayCount, &st.Rank, &st.PP); err != nil {
			return nil, fmt.Errorf("failed to scan stats row: %w", err)
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

// FetchFriendIDs loads an account's friend list.
func (s *Store) FetchFriendIDs(ctx context.Context, accountID int32) ([]int32, error) {
	rows, err := s.db.Query(ctx,
		`SELECT friend_id FROM friendships WHERE account_id = ?`, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to query friendships: %w", err)
	}
	defer rows.Close()

	var out []int32
	for rows.Next() {
		var id int32
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// AddFriend persists a friendship edge.
func (s *Store) AddFriend(ctx context.Context, accountID, friendID int32) error {
	_, err := s.db.Exec(ctx,
		`INSERT OR IGNORE INTO friendships (account_id, friend_id) VALUES (?, ?)`,
		accountID, friendID)
	return err
}

// RemoveFriend deletes a friendship edge.
func (s *Store) RemoveFriend(ctx context.Context, accountID, friendID int32) error {
	_, err := s.db.Exec(ctx,
		`DELETE FROM friendships WHERE account_id = ? AND friend_id = ?`,
		accountID, friendID)
	return err
}

// UpdateLatestActivity stamps an account's last seen time.
func (s *Store) UpdateLatestActivity(ctx context.Context, accountID int32) error {
	_, err := s.db.Exec(ctx,
		`UPDATE accounts SET latest_activity = CURRENT_TIMESTAMP WHERE id = ?`, accountID)
	return err
}

// UpdatePrivileges persists a privilege change.
func (s *Store) UpdatePrivileges(ctx context.Context, accountID int32, privileges uint64) error {
	_, err := s.db.Exec(ctx,
		`UPDATE accounts SET privileges = ? WHERE id = ?`, privileges, accountID)
	return err
}

// UpdateSilenceEnd persists a silence expiry time.
func (s *Store) UpdateSilenceEnd(ctx context.Context, accountID int32, until time.Time) error {
	_, err := s.db.Exec(ctx,
		`UPDATE accounts SET silence_end = ? WHERE id = ?`, until, accountID)
	return err
}
