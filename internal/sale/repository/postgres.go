package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgconn"
	"github.com/jmoiron/sqlx"
	pkgerrors "github.com/pkg/errors"
	"github.com/wicaksana/pos-order-service/internal/apperr"
	"github.com/wicaksana/pos-order-service/internal/model"
	"github.com/wicaksana/pos-order-service/internal/sale/dto"
)

const pgUniqueViolation = "23505"

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

const insertSaleQuery = `
	INSERT INTO sales (
		id, display_id, customer_id, branch_id, total, sale_date, status,
		completed_at, cancelled_at, created_at, updated_at
	)
	VALUES (
		:id, :display_id, :customer_id, :branch_id, :total, :sale_date, :status,
		:completed_at, :cancelled_at, :created_at, :updated_at
	)
`

const insertSaleItemQuery = `
	INSERT INTO sale_items (id, sale_id, product_id, quantity, unit_price, line_total)
	VALUES (:id, :sale_id, :product_id, :quantity, :unit_price, :line_total)
`

func (r *PGRepository) Create(ctx context.Context, s *model.Sale) error {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return pkgerrors.Wrap(err, "begin sale create")
	}
	defer tx.Rollback()

	if _, err := tx.NamedExecContext(ctx, insertSaleQuery, s); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation && strings.Contains(pgErr.ConstraintName, "display_id") {
			return apperr.Wrap(apperr.ErrIdentifierConflict, "sale", s.DisplayID)
		}
		return pkgerrors.Wrap(err, "insert sale")
	}

	for _, item := range s.Items {
		if _, err := tx.NamedExecContext(ctx, insertSaleItemQuery, item); err != nil {
			return pkgerrors.Wrap(err, "insert sale item")
		}
	}

	return tx.Commit()
}

func (r *PGRepository) FindByDisplayID(ctx context.Context, displayID string) (*model.Sale, error) {
	var s model.Sale
	err := r.DB.GetContext(ctx, &s, `SELECT * FROM sales WHERE display_id = $1 LIMIT 1`, displayID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(err, "get sale")
	}

	err = r.DB.SelectContext(ctx, &s.Items, `SELECT * FROM sale_items WHERE sale_id = $1 ORDER BY id`, s.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "get sale items")
	}
	return &s, nil
}

func (r *PGRepository) FindAll(ctx context.Context, f *dto.SaleFilters) ([]model.Sale, int, error) {
	var sales []model.Sale
	var count int

	conditions := []string{}
	args := map[string]interface{}{}

	if f.CustomerID != "" {
		conditions = append(conditions, "customer_id = :customer_id")
		args["customer_id"] = f.CustomerID
	}
	if f.BranchID != "" {
		conditions = append(conditions, "branch_id = :branch_id")
		args["branch_id"] = f.BranchID
	}
	if f.Status != "" {
		conditions = append(conditions, "status = :status")
		args["status"] = f.Status
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := "SELECT count(*) FROM sales" + whereClause
	rows, err := r.DB.NamedQueryContext(ctx, countQuery, args)
	if err != nil {
		return nil, 0, pkgerrors.Wrap(err, "count sales")
	}
	defer rows.Close()
	if rows.Next() {
		rows.Scan(&count)
	}

	query := "SELECT * FROM sales" + whereClause + " ORDER BY created_at DESC"
	if f.PageSize > 0 {
		offset := (f.Page - 1) * f.PageSize
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.PageSize, offset)
	}

	nstmt, err := r.DB.PrepareNamedContext(ctx, query)
	if err != nil {
		return nil, 0, pkgerrors.Wrap(err, "list sales")
	}
	defer nstmt.Close()

	err = nstmt.SelectContext(ctx, &sales, args)
	return sales, count, err
}

func (r *PGRepository) SetStatus(ctx context.Context, s *model.Sale) error {
	query := `
		UPDATE sales
		SET status = :status,
		    completed_at = :completed_at,
		    cancelled_at = :cancelled_at,
		    updated_at = :updated_at
		WHERE id = :id
	`
	_, err := r.DB.NamedExecContext(ctx, query, s)
	return pkgerrors.Wrap(err, "set sale status")
}

func (r *PGRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return pkgerrors.Wrap(err, "begin sale delete")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM sale_items WHERE sale_id = $1`, id); err != nil {
		return pkgerrors.Wrap(err, "delete sale items")
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM sales WHERE id = $1`, id); err != nil {
		return pkgerrors.Wrap(err, "delete sale")
	}

	return tx.Commit()
}

func (r *PGRepository) HighestNumber(ctx context.Context, prefix string) (int, error) {
	var highest int
	query := `
		SELECT COALESCE(MAX(CAST(RIGHT(display_id, 2) AS INTEGER)), 0)
		FROM sales
		WHERE display_id ~ ('^' || $1 || '[0-9]{2}$')
	`
	err := r.DB.GetContext(ctx, &highest, query, prefix)
	if err != nil {
		return 0, pkgerrors.Wrap(err, "highest sale display id")
	}
	return highest, nil
}

func (r *PGRepository) Exists(ctx context.Context, displayID string) (bool, error) {
	var exists bool
	err := r.DB.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM sales WHERE display_id = $1)`, displayID)
	if err != nil {
		return false, pkgerrors.Wrap(err, "sale display id exists")
	}
	return exists, nil
}
