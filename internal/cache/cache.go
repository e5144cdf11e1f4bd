// Package cache is a small SQLite-backed offline cache of the last known
// notification list and gamification summary. The in-memory stores stay the
// source of truth; the cache is only read back when the backend cannot be
// reached at startup.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	_ "modernc.org/sqlite"

	"github.com/famstack/famstack-client/internal/models"
)

type Cache struct {
	db *sqlx.DB
}

// Open opens (or creates) the cache database at dbPath, enables WAL mode,
// and runs any pending schema migrations.
func Open(dbPath string) (*Cache, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, errors.Wrap(err, "opening cache db")
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "enabling WAL mode")
	}

	c := &Cache{db: db}
	if err := c.runMigrations(); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "running cache migrations")
	}
	return c, nil
}

// Close closes the underlying database connection.
func (c *Cache) Close() error {
	return c.db.Close()
}

func (c *Cache) runMigrations() error {
	currentVersion := 0

	var tableCount int
	err := c.db.Get(
		&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	)
	if err != nil {
		return errors.Wrap(err, "checking schema_version table")
	}
	if tableCount > 0 {
		if err := c.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version"); err != nil {
			return errors.Wrap(err, "reading schema version")
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := c.db.Exec(m.sql); err != nil {
			return errors.Wrapf(err, "applying migration v%d", m.version)
		}
	}
	return nil
}

// SaveNotifications replaces the cached notification snapshot.
func (c *Cache) SaveNotifications(ctx context.Context, list []models.Notification) error {
	tx, err := c.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM notifications"); err != nil {
		return errors.Wrap(err, "clearing cached notifications")
	}

	const query = `
		INSERT OR REPLACE INTO notifications (
			id, user_id, type, title, message, priority, is_read, timestamp
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	stmt, err := tx.PreparexContext(ctx, query)
	if err != nil {
		return errors.Wrap(err, "preparing upsert statement")
	}
	defer stmt.Close()

	for _, n := range list {
		_, err := stmt.ExecContext(ctx,
			n.ID, n.UserID, string(n.Type), n.Title, n.Message,
			string(n.Priority), n.IsRead, n.Timestamp.UTC(),
		)
		if err != nil {
			return errors.Wrapf(err, "caching notification %s", n.ID)
		}
	}
	return tx.Commit()
}

// LoadNotifications returns the cached notification snapshot, newest first.
func (c *Cache) LoadNotifications(ctx context.Context, limit int) ([]models.Notification, error) {
	query := "SELECT * FROM notifications ORDER BY timestamp DESC"
	args := []interface{}{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	var list []models.Notification
	if err := c.db.SelectContext(ctx, &list, query, args...); err != nil {
		return nil, errors.Wrap(err, "loading cached notifications")
	}
	return list, nil
}

type summaryRow struct {
	UserID        string    `db:"user_id"`
	Points        int       `db:"points"`
	Level         int       `db:"level"`
	CurrentStreak int       `db:"current_streak"`
	LongestStreak int       `db:"longest_streak"`
	Achievements  string    `db:"achievements"`
	Badges        string    `db:"badges"`
	UpdatedAt     time.Time `db:"updated_at"`
}

// SaveGamificationSummary replaces the cached summary.
func (c *Cache) SaveGamificationSummary(ctx context.Context, summary models.GamificationSummary) error {
	achievements, err := json.Marshal(summary.AchievementsUnlocked)
	if err != nil {
		return errors.Wrap(err, "marshaling achievements")
	}
	badges, err := json.Marshal(summary.BadgesEarned)
	if err != nil {
		return errors.Wrap(err, "marshaling badges")
	}

	const query = `
		INSERT OR REPLACE INTO gamification_summary (
			user_id, points, level, current_streak, longest_streak,
			achievements, badges, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = c.db.ExecContext(ctx, query,
		summary.UserID, summary.Points, summary.Level,
		summary.CurrentStreak, summary.LongestStreak,
		string(achievements), string(badges),
		summary.UpdatedAt.UTC(),
	)
	return errors.Wrap(err, "caching gamification summary")
}

// LoadGamificationSummary returns the cached summary if one exists.
func (c *Cache) LoadGamificationSummary(ctx context.Context) (models.GamificationSummary, bool, error) {
	var rows []summaryRow
	err := c.db.SelectContext(ctx, &rows, "SELECT * FROM gamification_summary LIMIT 1")
	if err != nil {
		return models.GamificationSummary{}, false, errors.Wrap(err, "loading cached gamification summary")
	}
	if len(rows) == 0 {
		return models.GamificationSummary{}, false, nil
	}

	row := rows[0]
	summary := models.GamificationSummary{
		UserID:        row.UserID,
		Points:        row.Points,
		Level:         row.Level,
		CurrentStreak: row.CurrentStreak,
		LongestStreak: row.LongestStreak,
		UpdatedAt:     row.UpdatedAt,
	}
	if err := json.Unmarshal([]byte(row.Achievements), &summary.AchievementsUnlocked); err != nil {
		return models.GamificationSummary{}, false, errors.Wrap(err, "unmarshaling achievements")
	}
	if err := json.Unmarshal([]byte(row.Badges), &summary.BadgesEarned); err != nil {
		return models.GamificationSummary{}, false, errors.Wrap(err, "unmarshaling badges")
	}
	return summary, true, nil
}
