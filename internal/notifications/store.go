package notifications

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ziadkadry99/studyguide/internal/db"
)

// ListFilter controls which notifications are returned by List.
type ListFilter struct {
	Level  Level
	Source string
	Since  time.Time
	Limit  int
	Offset int
}

// Store keeps the notification history.
type Store struct {
	db *db.DB
}

// NewStore creates a Store backed by the given database.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// Create inserts a notification. If n.ID is empty a UUID is generated.
func (s *Store) Create(ctx context.Context, n Notification) error {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}

	var expires sql.NullString
	if !n.ExpiresAt.IsZero() {
		expires = sql.NullString{String: formatTime(n.ExpiresAt), Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO notifications (id, level, message, source, created_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		n.ID, string(n.Level), n.Message, n.Source, formatTime(n.CreatedAt), expires,
	)
	if err != nil {
		return fmt.Errorf("inserting notification: %w", err)
	}
	return nil
}

// GetByID retrieves a single notification.
func (s *Store) GetByID(ctx context.Context, id string) (*Notification, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, level, message, source, created_at, expires_at
		FROM notifications WHERE id = ?`, id)
	return scanInto(row)
}

// List returns notifications matching the filter, newest first.
func (s *Store) List(ctx context.Context, filter ListFilter) ([]Notification, error) {
	var (
		clauses []string
		args    []any
	)

	if filter.Level != "" {
		clauses = append(clauses, "level = ?")
		args = append(args, string(filter.Level))
	}
	if filter.Source != "" {
		clauses = append(clauses, "source = ?")
		args = append(args, filter.Source)
	}
	if !filter.Since.IsZero() {
		clauses = append(clauses, "created_at >= ?")
		args = append(args, formatTime(filter.Since))
	}

	query := "SELECT id, level, message, source, created_at, expires_at FROM notifications"
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY created_at DESC, id"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
		if filter.Offset > 0 {
			query += fmt.Sprintf(" OFFSET %d", filter.Offset)
		}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying notifications: %w", err)
	}
	defer rows.Close()

	var result []Notification
	for rows.Next() {
		n, err := scanInto(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *n)
	}
	return result, rows.Err()
}

// scanner is implemented by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanInto(sc scanner) (*Notification, error) {
	var (
		n       Notification
		level   string
		created string
		expires sql.NullString
	)
	if err := sc.Scan(&n.ID, &level, &n.Message, &n.Source, &created, &expires); err != nil {
		return nil, err
	}
	n.Level = Level(level)
	n.CreatedAt = parseTime(created)
	if expires.Valid {
		n.ExpiresAt = parseTime(expires.String)
	}
	return &n, nil
}

// Timestamps are stored as RFC 3339 text so they sort lexically.
const storedTime = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(storedTime)
}

func parseTime(s string) time.Time {
	for _, layout := range []string{time.RFC3339Nano, time.DateTime} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
