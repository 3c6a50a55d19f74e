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
	"github.com/wicaksana/pos-order-service/internal/purchase/dto"
)

const pgUniqueViolation = "23505"

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

const insertPurchaseQuery = `
	INSERT INTO purchases (
		id, display_id, provider_id, total, purchase_date, status,
		deactivation_reason, deactivated_at, deactivated_by,
		reactivation_reason, reactivated_at, reactivated_by,
		created_at, updated_at
	)
	VALUES (
		:id, :display_id, :provider_id, :total, :purchase_date, :status,
		:deactivation_reason, :deactivated_at, :deactivated_by,
		:reactivation_reason, :reactivated_at, :reactivated_by,
		:created_at, :updated_at
	)
`

const insertPurchaseItemQuery = `
	INSERT INTO purchase_items (id, purchase_id, product_id, quantity, unit_price, line_total)
	VALUES (:id, :purchase_id, :product_id, :quantity, :unit_price, :line_total)
`

func (r *PGRepository) Create(ctx context.Context, p *model.Purchase) error {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return pkgerrors.Wrap(err, "begin purchase create")
	}
	defer tx.Rollback()

	if _, err := tx.NamedExecContext(ctx, insertPurchaseQuery, p); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation && strings.Contains(pgErr.ConstraintName, "display_id") {
			return apperr.Wrap(apperr.ErrIdentifierConflict, "purchase", p.DisplayID)
		}
		return pkgerrors.Wrap(err, "insert purchase")
	}

	for _, item := range p.Items {
		if _, err := tx.NamedExecContext(ctx, insertPurchaseItemQuery, item); err != nil {
			return pkgerrors.Wrap(err, "insert purchase item")
		}
	}

	return tx.Commit()
}

func (r *PGRepository) FindByDisplayID(ctx context.Context, displayID string) (*model.Purchase, error) {
	var p model.Purchase
	err := r.DB.GetContext(ctx, &p, `SELECT * FROM purchases WHERE display_id = $1 LIMIT 1`, displayID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(err, "get purchase")
	}

	err = r.DB.SelectContext(ctx, &p.Items, `SELECT * FROM purchase_items WHERE purchase_id = $1 ORDER BY id`, p.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "get purchase items")
	}
	return &p, nil
}

func (r *PGRepository) FindAll(ctx context.Context, f *dto.PurchaseFilters) ([]model.Purchase, int, error) {
	var purchases []model.Purchase
	var count int

	conditions := []string{}
	args := map[string]interface{}{}

	if f.ProviderID != "" {
		conditions = append(conditions, "provider_id = :provider_id")
		args["provider_id"] = f.ProviderID
	}
	if f.Status != "" {
		conditions = append(conditions, "status = :status")
		args["status"] = f.Status
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := "SELECT count(*) FROM purchases" + whereClause
	rows, err := r.DB.NamedQueryContext(ctx, countQuery, args)
	if err != nil {
		return nil, 0, pkgerrors.Wrap(err, "count purchases")
	}
	defer rows.Close()
	if rows.Next() {
		rows.Scan(&count)
	}

	query := "SELECT * FROM purchases" + whereClause + " ORDER BY created_at DESC"
	if f.PageSize > 0 {
		offset := (f.Page - 1) * f.PageSize
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.PageSize, offset)
	}

	nstmt, err := r.DB.PrepareNamedContext(ctx, query)
	if err != nil {
		return nil, 0, pkgerrors.Wrap(err, "list purchases")
	}
	defer nstmt.Close()

	err = nstmt.SelectContext(ctx, &purchases, args)
	return purchases, count, err
}

func (r *PGRepository) SetStatus(ctx context.Context, p *model.Purchase) error {
	query := `
		UPDATE purchases
		SET status = :status,
		    deactivation_reason = :deactivation_reason,
		    deactivated_at = :deactivated_at,
		    deactivated_by = :deactivated_by,
		    reactivation_reason = :reactivation_reason,
		    reactivated_at = :reactivated_at,
		    reactivated_by = :reactivated_by,
		    updated_at = :updated_at
		WHERE id = :id
	`
	_, err := r.DB.NamedExecContext(ctx, query, p)
	return pkgerrors.Wrap(err, "set purchase status")
}

func (r *PGRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return pkgerrors.Wrap(err, "begin purchase delete")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM purchase_items WHERE purchase_id = $1`, id); err != nil {
		return pkgerrors.Wrap(err, "delete purchase items")
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM purchases WHERE id = $1`, id); err != nil {
		return pkgerrors.Wrap(err, "delete purchase")
	}

	return tx.Commit()
}

func (r *PGRepository) HighestNumber(ctx context.Context, prefix string) (int, error) {
	var highest int
	query := `
		SELECT COALESCE(MAX(CAST(RIGHT(display_id, 2) AS INTEGER)), 0)
		FROM purchases
		WHERE display_id ~ ('^' || $1 || '[0-9]{2}$')
	`
	err := r.DB.GetContext(ctx, &highest, query, prefix)
	if err != nil {
		return 0, pkgerrors.Wrap(err, "highest purchase display id")
	}
	return highest, nil
}

func (r *PGRepository) Exists(ctx context.Context, displayID string) (bool, error) {
	var exists bool
	err := r.DB.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM purchases WHERE display_id = $1)`, displayID)
	if err != nil {
		return false, pkgerrors.Wrap(err, "purchase display id exists")
	}
	return exists, nil
}
