package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"rollbook/internal/membership/mapper"
	"rollbook/pkg/platform/sentinel"
)

// PostgresStore persists membership records in the memberships table.
// Uniqueness of (tenant_id, member_number) is enforced by the schema; the
// resulting violation surfaces as sentinel.ErrConflict.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const recordColumns = `id, tenant_id, member_number, display_name,
	contact_binding, organization_binding, category_code, eligibility_code,
	state_code, join_date, retirement_date, leave_from, leave_to,
	created_on, modified_on`

func (s *PostgresStore) Create(ctx context.Context, rec mapper.Record) (mapper.Record, error) {
	query := fmt.Sprintf(`
		INSERT INTO memberships (%s)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
		RETURNING %s`, recordColumns, recordColumns)

	row := s.db.QueryRowContext(ctx, query,
		rec.ID, rec.TenantID, rec.MemberNumber, rec.DisplayName,
		rec.ContactBinding, rec.OrganizationBinding, rec.CategoryCode,
		rec.EligibilityCode, rec.StateCode, rec.JoinDate, rec.RetirementDate,
		rec.LeaveFrom, rec.LeaveTo, rec.CreatedOn, rec.ModifiedOn)

	created, err := scanRecord(row)
	if err != nil {
		if isUniqueViolation(err) {
			return mapper.Record{}, sentinel.ErrConflict
		}
		return mapper.Record{}, fmt.Errorf("insert membership: %w", err)
	}
	return created, nil
}

func (s *PostgresStore) FindByID(ctx context.Context, tenantID, membershipID string) (mapper.Record, error) {
	query := fmt.Sprintf(`SELECT %s FROM memberships WHERE tenant_id = $1 AND id = $2`, recordColumns)
	return s.findOne(ctx, query, tenantID, membershipID)
}

func (s *PostgresStore) FindByBusinessID(ctx context.Context, tenantID, memberNumber string) (mapper.Record, error) {
	query := fmt.Sprintf(`SELECT %s FROM memberships WHERE tenant_id = $1 AND member_number = $2`, recordColumns)
	return s.findOne(ctx, query, tenantID, memberNumber)
}

func (s *PostgresStore) findOne(ctx context.Context, query string, args ...any) (mapper.Record, error) {
	rec, err := scanRecord(s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return mapper.Record{}, sentinel.ErrNotFound
		}
		return mapper.Record{}, fmt.Errorf("find membership: %w", err)
	}
	return rec, nil
}

func (s *PostgresStore) Update(ctx context.Context, rec mapper.Record) (mapper.Record, error) {
	query := fmt.Sprintf(`
		UPDATE memberships SET
			display_name = $3, contact_binding = $4, organization_binding = $5,
			category_code = $6, eligibility_code = $7, state_code = $8,
			join_date = $9, retirement_date = $10, leave_from = $11,
			leave_to = $12, modified_on = $13
		WHERE tenant_id = $1 AND id = $2
		RETURNING %s`, recordColumns)

	row := s.db.QueryRowContext(ctx, query,
		rec.TenantID, rec.ID, rec.DisplayName, rec.ContactBinding,
		rec.OrganizationBinding, rec.CategoryCode, rec.EligibilityCode,
		rec.StateCode, rec.JoinDate, rec.RetirementDate, rec.LeaveFrom,
		rec.LeaveTo, rec.ModifiedOn)

	updated, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return mapper.Record{}, sentinel.ErrNotFound
		}
		return mapper.Record{}, fmt.Errorf("update membership: %w", err)
	}
	return updated, nil
}

func (s *PostgresStore) List(ctx context.Context, filter Filter, page Page) ([]mapper.Record, int, error) {
	page = page.Normalize()

	where, args := buildWhere(filter)

	var total int
	countQuery := "SELECT COUNT(*) FROM memberships " + where
	if err := s.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count memberships: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM memberships %s ORDER BY member_number LIMIT $%d OFFSET $%d`,
		recordColumns, where, len(args)+1, len(args)+2)
	rows, err := s.db.QueryContext(ctx, query, append(args, page.Top, page.Skip)...)
	if err != nil {
		return nil, 0, fmt.Errorf("list memberships: %w", err)
	}
	defer rows.Close()

	var items []mapper.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan membership: %w", err)
		}
		items = append(items, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list memberships: %w", err)
	}
	return items, total, nil
}

func buildWhere(f Filter) (string, []any) {
	clauses := []string{"tenant_id = $1"}
	args := []any{f.TenantID}

	if !f.IncludeInactive {
		args = append(args, mapper.StateActive)
		clauses = append(clauses, fmt.Sprintf("state_code = $%d", len(args)))
	}
	if f.NameContains != "" {
		args = append(args, "%"+f.NameContains+"%")
		clauses = append(clauses, fmt.Sprintf("display_name ILIKE $%d", len(args)))
	}
	if len(f.CategoryCodes) > 0 {
		placeholders := make([]string, 0, len(f.CategoryCodes))
		for _, code := range f.CategoryCodes {
			args = append(args, code)
			placeholders = append(placeholders, fmt.Sprintf("$%d", len(args)))
		}
		clauses = append(clauses, fmt.Sprintf("category_code IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(f.MemberNumbers) > 0 {
		placeholders := make([]string, 0, len(f.MemberNumbers))
		for _, n := range f.MemberNumbers {
			args = append(args, n)
			placeholders = append(placeholders, fmt.Sprintf("$%d", len(args)))
		}
		clauses = append(clauses, fmt.Sprintf("member_number IN (%s)", strings.Join(placeholders, ",")))
	}
	return "WHERE " + strings.Join(clauses, " AND "), args
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (mapper.Record, error) {
	var rec mapper.Record
	var joinDate, retirementDate, leaveFrom, leaveTo sql.NullString
	var createdOn, modifiedOn sql.NullString

	err := row.Scan(&rec.ID, &rec.TenantID, &rec.MemberNumber, &rec.DisplayName,
		&rec.ContactBinding, &rec.OrganizationBinding, &rec.CategoryCode,
		&rec.EligibilityCode, &rec.StateCode, &joinDate, &retirementDate,
		&leaveFrom, &leaveTo, &createdOn, &modifiedOn)
	if err != nil {
		return mapper.Record{}, err
	}
	rec.JoinDate = joinDate.String
	rec.RetirementDate = retirementDate.String
	rec.LeaveFrom = leaveFrom.String
	rec.LeaveTo = leaveTo.String
	rec.CreatedOn = createdOn.String
	rec.ModifiedOn = modifiedOn.String
	return rec, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
