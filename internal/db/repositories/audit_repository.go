// audit_repository.go implements AuditRepository, writing audit entries for
// authenticated mutations and reading them back with optional filters.
package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/worknest/worknest/internal/db/models"
)

const auditColumns = `id, user_id, organisation_id, action, resource_type, metadata, ip_address, created_at`

// AuditRepository handles audit log database operations
type AuditRepository struct {
	db *sqlx.DB
}

// NewAuditRepository creates a new AuditRepository
func NewAuditRepository(db *sqlx.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// AuditFilters narrows ListAuditLogs. Nil fields are ignored.
type AuditFilters struct {
	UserID         *string
	OrganisationID *string
	Action         *string
	ResourceType   *string
	StartDate      *time.Time
	EndDate        *time.Time
}

// CreateAuditLog creates a new audit log entry
func (r *AuditRepository) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	log.ID = uuid.New().String()
	log.CreatedAt = time.Now()

	var metadataJSON []byte
	if log.Metadata != nil {
		var err error
		if metadataJSON, err = json.Marshal(log.Metadata); err != nil {
			return fmt.Errorf("failed to encode audit metadata: %w", err)
		}
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO audit_logs (`+auditColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`,
		log.ID,
		log.UserID,
		log.OrganisationID,
		log.Action,
		log.ResourceType,
		metadataJSON,
		log.IPAddress,
		log.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}

type auditScanner interface {
	Scan(dest ...interface{}) error
}

func scanAuditLog(s auditScanner) (*models.AuditLog, error) {
	log := &models.AuditLog{}
	var metadataJSON []byte
	if err := s.Scan(
		&log.ID,
		&log.UserID,
		&log.OrganisationID,
		&log.Action,
		&log.ResourceType,
		&metadataJSON,
		&log.IPAddress,
		&log.CreatedAt,
	); err != nil {
		return nil, err
	}
	if metadataJSON != nil {
		if err := json.Unmarshal(metadataJSON, &log.Metadata); err != nil {
			return nil, err
		}
	}
	return log, nil
}

// ListAuditLogs retrieves audit logs matching filters, newest first
func (r *AuditRepository) ListAuditLogs(ctx context.Context, filters AuditFilters, limit, offset int) ([]*models.AuditLog, int, error) {
	where := ` WHERE 1=1`
	args := make([]interface{}, 0, 8)
	add := func(clause string, v interface{}) {
		args = append(args, v)
		where += fmt.Sprintf(clause, len(args))
	}

	if filters.UserID != nil {
		add(` AND user_id = $%d`, *filters.UserID)
	}
	if filters.OrganisationID != nil {
		add(` AND organisation_id = $%d`, *filters.OrganisationID)
	}
	if filters.Action != nil {
		add(` AND action = $%d`, *filters.Action)
	}
	if filters.ResourceType != nil {
		add(` AND resource_type = $%d`, *filters.ResourceType)
	}
	if filters.StartDate != nil {
		add(` AND created_at >= $%d`, *filters.StartDate)
	}
	if filters.EndDate != nil {
		add(` AND created_at <= $%d`, *filters.EndDate)
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM audit_logs`+where, args...).Scan(&total); err != nil {
		if isMalformedID(err) {
			return []*models.AuditLog{}, 0, nil
		}
		return nil, 0, fmt.Errorf("failed to count audit logs: %w", err)
	}

	query := `SELECT ` + auditColumns + ` FROM audit_logs` + where +
		fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list audit logs: %w", err)
	}
	defer rows.Close()

	logs := make([]*models.AuditLog, 0)
	for rows.Next() {
		log, err := scanAuditLog(rows)
		if err != nil {
			return nil, 0, err
		}
		logs = append(logs, log)
	}
	return logs, total, rows.Err()
}

// GetAuditLog retrieves a single audit log entry by ID
func (r *AuditRepository) GetAuditLog(ctx context.Context, logID string) (*models.AuditLog, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+auditColumns+` FROM audit_logs WHERE id = $1`, logID)
	log, err := scanAuditLog(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return log, nil
}
