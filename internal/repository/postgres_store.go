package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/civickit/grievance-service/internal/domain"
)

// postgresStore persists tickets one row each, with the timeline as a JSONB
// column on the row. A single-row SELECT is therefore a consistent snapshot
// of status, officer, version and timeline together, and the versioned
// UPDATE predicate is the compare-and-update.
type postgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore instantiates the durable TicketStore.
func NewPostgresStore(pool *pgxpool.Pool) TicketStore {
	return &postgresStore{pool: pool}
}

const ticketColumns = `id, service_type, category, subcategory, description, priority, status,
       latitude, longitude, address, filed_by, assigned_officer,
       created_at, sla_deadline, updated_at, version, timeline`

func (s *postgresStore) Create(ctx context.Context, ticket *domain.Ticket) error {
	timeline, err := json.Marshal(ticket.Timeline)
	if err != nil {
		return fmt.Errorf("marshal timeline: %w", err)
	}
	const query = `
        INSERT INTO tickets (id, service_type, category, subcategory, description, priority, status,
            latitude, longitude, address, filed_by, assigned_officer,
            created_at, sla_deadline, updated_at, version, timeline)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)`
	_, err = s.pool.Exec(ctx, query,
		ticket.ID,
		ticket.ServiceType,
		ticket.Category,
		ticket.Subcategory,
		ticket.Description,
		ticket.Priority,
		ticket.Status,
		ticket.Location.Latitude,
		ticket.Location.Longitude,
		ticket.Location.Address,
		ticket.FiledBy,
		ticket.AssignedOfficer,
		ticket.CreatedAt,
		ticket.SLADeadline,
		ticket.UpdatedAt,
		ticket.Version,
		timeline,
	)
	return err
}

func (s *postgresStore) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE id=$1`, ticketColumns)
	ticket, err := scanTicket(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return ticket, nil
}

func (s *postgresStore) List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.FiledBy != nil {
		args = append(args, *filter.FiledBy)
		clauses = append(clauses, fmt.Sprintf("filed_by=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(filter.ServiceTypes) > 0 {
		placeholders := make([]string, len(filter.ServiceTypes))
		for i, service := range filter.ServiceTypes {
			args = append(args, service)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("service_type IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(filter.Priorities) > 0 {
		placeholders := make([]string, len(filter.Priorities))
		for i, priority := range filter.Priorities {
			args = append(args, priority)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("priority IN (%s)", strings.Join(placeholders, ",")))
	}

	// An absent limit returns every match, same as the in-memory store.
	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE %s ORDER BY created_at DESC, id DESC`,
		ticketColumns, strings.Join(clauses, " AND "))
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Ticket
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *ticket)
	}
	return result, rows.Err()
}

func (s *postgresStore) UpdateVersioned(ctx context.Context, ticket *domain.Ticket, expectedVersion int64) error {
	timeline, err := json.Marshal(ticket.Timeline)
	if err != nil {
		return fmt.Errorf("marshal timeline: %w", err)
	}
	const query = `
        UPDATE tickets SET status=$1, assigned_officer=$2, updated_at=$3, version=$4, timeline=$5
        WHERE id=$6 AND version=$7`
	cmd, err := s.pool.Exec(ctx, query,
		ticket.Status,
		ticket.AssignedOfficer,
		ticket.UpdatedAt,
		ticket.Version,
		timeline,
		ticket.ID,
		expectedVersion,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		// Distinguish a missing row from a stale version.
		var exists bool
		if err := s.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM tickets WHERE id=$1)`, ticket.ID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return ErrNotFound
		}
		return ErrVersionConflict
	}
	return nil
}

func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	var ticket domain.Ticket
	var timeline []byte
	if err := row.Scan(
		&ticket.ID,
		&ticket.ServiceType,
		&ticket.Category,
		&ticket.Subcategory,
		&ticket.Description,
		&ticket.Priority,
		&ticket.Status,
		&ticket.Location.Latitude,
		&ticket.Location.Longitude,
		&ticket.Location.Address,
		&ticket.FiledBy,
		&ticket.AssignedOfficer,
		&ticket.CreatedAt,
		&ticket.SLADeadline,
		&ticket.UpdatedAt,
		&ticket.Version,
		&timeline,
	); err != nil {
		return nil, err
	}
	if len(timeline) > 0 {
		if err := json.Unmarshal(timeline, &ticket.Timeline); err != nil {
			return nil, fmt.Errorf("unmarshal timeline: %w", err)
		}
	}
	return &ticket, nil
}
