package db

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"

	"github.com/brettboylen/reaction-tracker/models"
)

// Database stores the latest fetched reaction list
type Database struct {
	db    *sql.DB
	mutex sync.RWMutex
	log   *logrus.Logger
}

// NewDatabase creates a new SQLite database connection
func NewDatabase(dbPath string, log *logrus.Logger) (*Database, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	database := &Database{
		db:  db,
		log: log,
	}

	if err := database.initTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize tables: %w", err)
	}

	return database, nil
}

// Close closes the database connection
func (d *Database) Close() error {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return d.db.Close()
}

// initTables creates the necessary tables if they don't exist
func (d *Database) initTables() error {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	query := `
	CREATE TABLE IF NOT EXISTS reactions (
		position INTEGER PRIMARY KEY,
		reaction_id TEXT NOT NULL,
		video_id TEXT NOT NULL,
		created_at TEXT,
		updated_at TEXT,
		report_count INTEGER NOT NULL,
		reaction_video_id TEXT NOT NULL,
		reaction_to_video_id TEXT NOT NULL,
		reaction_video TEXT NOT NULL,
		reaction_to_video TEXT NOT NULL
	);
	`

	_, err := d.db.Exec(query)
	return err
}

// SaveReactions replaces the stored reaction list.
// Rows are keyed by fetch position, so the list reloads in fetch order and
// repeated reaction ids are kept as they were fetched.
func (d *Database) SaveReactions(reactions []models.Reaction) error {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM reactions`); err != nil {
		return fmt.Errorf("failed to clear reactions: %w", err)
	}

	reactionStmt, err := tx.Prepare(`
	INSERT INTO reactions (
		reaction_id, position, video_id, created_at, updated_at, report_count,
		reaction_video_id, reaction_to_video_id, reaction_video, reaction_to_video
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare reaction insert: %w", err)
	}
	defer reactionStmt.Close()

	for i, r := range reactions {
		// each reaction keeps its own copy of the videos as they were reported
		reactionVideo, err := encodeVideo(r.Reaction)
		if err != nil {
			return err
		}
		reactionToVideo, err := encodeVideo(r.ReactionTo)
		if err != nil {
			return err
		}

		_, err = reactionStmt.Exec(
			r.ReactionID, i, r.VideoID, formatTime(r.CreatedAt), formatTime(r.UpdatedAt),
			r.ReportCount, r.Reaction.ID, r.ReactionTo.ID, reactionVideo, reactionToVideo,
		)
		if err != nil {
			return fmt.Errorf("failed to save reaction %s: %w", r.ReactionID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit reactions: %w", err)
	}

	d.log.WithField("count", len(reactions)).Debug("Saved reactions")
	return nil
}

// GetReactions returns the stored reaction list in fetch order
func (d *Database) GetReactions() ([]models.Reaction, error) {
	d.mutex.RLock()
	defer d.mutex.RUnlock()

	query := `
	SELECT reaction_id, video_id, created_at, updated_at, report_count,
		reaction_video, reaction_to_video
	FROM reactions
	ORDER BY position ASC
	`

	rows, err := d.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query reactions: %w", err)
	}
	defer rows.Close()

	reactions := make([]models.Reaction, 0)
	for rows.Next() {
		var r models.Reaction
		var createdAt, updatedAt, reactionVideo, reactionToVideo string

		err := rows.Scan(
			&r.ReactionID, &r.VideoID, &createdAt, &updatedAt, &r.ReportCount,
			&reactionVideo, &reactionToVideo,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan reaction: %w", err)
		}

		if r.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, fmt.Errorf("reaction %s: %w", r.ReactionID, err)
		}
		if r.UpdatedAt, err = parseTime(updatedAt); err != nil {
			return nil, fmt.Errorf("reaction %s: %w", r.ReactionID, err)
		}
		if r.Reaction, err = decodeVideo(reactionVideo); err != nil {
			return nil, err
		}
		if r.ReactionTo, err = decodeVideo(reactionToVideo); err != nil {
			return nil, err
		}
		reactions = append(reactions, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return reactions, nil
}

// GetTotalReactions returns the number of stored reactions
func (d *Database) GetTotalReactions() (int, error) {
	d.mutex.RLock()
	defer d.mutex.RUnlock()

	var count int
	err := d.db.QueryRow("SELECT COUNT(*) FROM reactions").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get total reactions: %w", err)
	}

	return count, nil
}

// zero times are stored as empty strings
func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse time %q: %w", s, err)
	}
	return t, nil
}

func encodeVideo(v models.Video) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to encode video %s: %w", v.ID, err)
	}
	return string(data), nil
}

func decodeVideo(s string) (models.Video, error) {
	var v models.Video
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return models.Video{}, fmt.Errorf("failed to decode video: %w", err)
	}
	return v, nil
}
