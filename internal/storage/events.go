package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dhima/audittrail/internal/models"
	"github.com/dhima/audittrail/pkg/audittrail"
)

const eventColumns = `id, user_id, user_description, ip_addr, event_time, request_path,
	event_description, content_type, object_id, request_id, method, status_code`

// SaveEvent lets a Client be used directly as an audittrail.Store.
func (c *Client) SaveEvent(ctx context.Context, event *audittrail.Event) error {
	return c.CreateEvent(ctx, event)
}

// CreateEvent inserts a new audit event.
func (c *Client) CreateEvent(ctx context.Context, event *audittrail.Event) error {
	query := c.dialect.rebind(`
		INSERT INTO audit_events (` + eventColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)

	_, err := c.db.ExecContext(ctx, query,
		event.ID,
		nullable(event.UserID),
		event.UserDescription,
		event.IPAddr,
		event.EventTime.UTC(),
		event.RequestPath,
		event.EventDescription,
		nullable(event.ContentType),
		nullable(event.ObjectID),
		event.RequestID,
		event.Method,
		event.StatusCode,
	)
	if err != nil {
		return fmt.Errorf("failed to create audit event: %w", err)
	}

	return nil
}

// GetEvent retrieves a single audit event by ID. It returns nil, nil when the
// event does not exist.
func (c *Client) GetEvent(ctx context.Context, eventID string) (*audittrail.Event, error) {
	query := c.dialect.rebind(`SELECT ` + eventColumns + ` FROM audit_events WHERE id = ?`)

	event, err := scanEvent(c.db.QueryRowContext(ctx, query, eventID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get audit event: %w", err)
	}
	return event, nil
}

// ListEvents retrieves audit events with filtering and pagination, newest
// first. Returns the page and the total count for pagination.
func (c *Client) ListEvents(ctx context.Context, query models.ListEventsQuery) ([]audittrail.Event, int64, error) {
	whereClauses := []string{}
	args := []interface{}{}

	if query.UserID != "" {
		whereClauses = append(whereClauses, "user_id = ?")
		args = append(args, query.UserID)
	}
	if query.ContentType != "" {
		whereClauses = append(whereClauses, "content_type = ?")
		args = append(args, query.ContentType)
	}
	if query.ObjectID != "" {
		whereClauses = append(whereClauses, "object_id = ?")
		args = append(args, query.ObjectID)
	}
	if query.RequestPath != "" {
		whereClauses = append(whereClauses, "request_path = ?")
		args = append(args, query.RequestPath)
	}

	whereClause := ""
	if len(whereClauses) > 0 {
		whereClause = "WHERE " + strings.Join(whereClauses, " AND ")
	}

	var totalCount int64
	countQuery := c.dialect.rebind(fmt.Sprintf("SELECT COUNT(*) FROM audit_events %s", whereClause))
	if err := c.db.QueryRowContext(ctx, countQuery, args...).Scan(&totalCount); err != nil {
		return nil, 0, fmt.Errorf("failed to count audit events: %w", err)
	}

	page, limit := query.Normalize()
	offset := (page - 1) * limit

	listQuery := c.dialect.rebind(fmt.Sprintf(`
		SELECT %s
		FROM audit_events
		%s
		ORDER BY event_time DESC, id DESC
		LIMIT ? OFFSET ?
	`, eventColumns, whereClause))
	args = append(args, limit, offset)

	rows, err := c.db.QueryContext(ctx, listQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list audit events: %w", err)
	}
	defer rows.Close()

	events := []audittrail.Event{}
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan audit event: %w", err)
		}
		events = append(events, *event)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating audit events: %w", err)
	}

	return events, totalCount, nil
}

// DeleteEventsBefore removes events recorded strictly before cutoff and
// reports how many rows were deleted.
func (c *Client) DeleteEventsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	query := c.dialect.rebind(`DELETE FROM audit_events WHERE event_time < ?`)

	res, err := c.db.ExecContext(ctx, query, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to delete audit events: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted audit events: %w", err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (*audittrail.Event, error) {
	var event audittrail.Event
	var userID, contentType, objectID sql.NullString

	err := row.Scan(
		&event.ID,
		&userID,
		&event.UserDescription,
		&event.IPAddr,
		&event.EventTime,
		&event.RequestPath,
		&event.EventDescription,
		&contentType,
		&objectID,
		&event.RequestID,
		&event.Method,
		&event.StatusCode,
	)
	if err != nil {
		return nil, err
	}

	event.EventTime = event.EventTime.UTC()
	if userID.Valid {
		event.UserID = &userID.String
	}
	if contentType.Valid && objectID.Valid {
		event.ContentType = &contentType.String
		event.ObjectID = &objectID.String
	}
	return &event, nil
}

func nullable(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
