package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	pkgerrors "github.com/pkg/errors"
	"github.com/wicaksana/pos-order-service/internal/apperr"
	"github.com/wicaksana/pos-order-service/internal/ledger/dto"
	"github.com/wicaksana/pos-order-service/internal/model"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) GetProduct(ctx context.Context, id string) (*model.Product, error) {
	var product model.Product
	query := `SELECT * FROM products WHERE id = $1 LIMIT 1`
	err := r.DB.GetContext(ctx, &product, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(err, "get product")
	}
	return &product, nil
}

func (r *PGRepository) ListProductsByIDs(ctx context.Context, ids []string) ([]model.Product, error) {
	if len(ids) == 0 {
		return []model.Product{}, nil
	}

	query, args, err := sqlx.In(`SELECT * FROM products WHERE id IN (?)`, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "list products")
	}
	query = r.DB.Rebind(query)

	var products []model.Product
	err = r.DB.SelectContext(ctx, &products, query, args...)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "list products")
	}
	return products, nil
}

// adjustQuery refuses to drive stock negative in a single atomic statement.
// RETURNING gives the post-update quantity for the audit row.
const adjustQuery = `
	UPDATE products
	SET stock = stock + $1, updated_at = NOW()
	WHERE id = $2 AND stock + $1 >= 0
	RETURNING stock
`

const insertMovementQuery = `
	INSERT INTO stock_movements (
		id, product_id, movement_type, quantity_change,
		quantity_before, quantity_after, reference_type, reference_id,
		notes, created_by, created_at
	)
	VALUES (
		:id, :product_id, :movement_type, :quantity_change,
		:quantity_before, :quantity_after, :reference_type, :reference_id,
		:notes, :created_by, :created_at
	)
`

func (r *PGRepository) ApplyChanges(ctx context.Context, changes []dto.StockChange) error {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return pkgerrors.Wrap(err, "begin stock batch")
	}
	defer tx.Rollback()

	for i := range changes {
		change := &changes[i]

		var after int64
		err := tx.QueryRowxContext(ctx, adjustQuery, change.Delta, change.ProductID).Scan(&after)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return r.classifyRefusal(ctx, tx, change)
			}
			return pkgerrors.Wrapf(err, "adjust stock for product %s", change.ProductID)
		}

		change.Movement.QuantityAfter = after
		change.Movement.QuantityBefore = after - change.Delta

		if _, err := tx.NamedExecContext(ctx, insertMovementQuery, change.Movement); err != nil {
			return pkgerrors.Wrapf(err, "log movement for product %s", change.ProductID)
		}
	}

	return tx.Commit()
}

// classifyRefusal tells a missing product apart from an insufficient one when
// the conditional update matched no row.
func (r *PGRepository) classifyRefusal(ctx context.Context, tx *sqlx.Tx, change *dto.StockChange) error {
	var exists bool
	err := tx.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM products WHERE id = $1)`, change.ProductID)
	if err != nil {
		return pkgerrors.Wrapf(err, "classify stock refusal for product %s", change.ProductID)
	}
	if !exists {
		return apperr.NotFound("product", change.ProductID)
	}
	return apperr.Wrapf(apperr.ErrInsufficientStock, "product",
		"%s cannot absorb delta %d", change.ProductID, change.Delta)
}

func (r *PGRepository) ListMovements(ctx context.Context, f *dto.MovementFilters) ([]model.StockMovement, int, error) {
	var items []model.StockMovement
	var count int

	conditions := []string{}
	args := map[string]interface{}{}

	if f.ProductID != "" {
		conditions = append(conditions, "product_id = :product_id")
		args["product_id"] = f.ProductID
	}
	if f.MovementType != "" {
		conditions = append(conditions, "movement_type = :movement_type")
		args["movement_type"] = f.MovementType
	}
	if f.ReferenceType != "" {
		conditions = append(conditions, "reference_type = :reference_type")
		args["reference_type"] = f.ReferenceType
	}
	if f.ReferenceID != "" {
		conditions = append(conditions, "reference_id = :reference_id")
		args["reference_id"] = f.ReferenceID
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := "SELECT count(*) FROM stock_movements" + whereClause
	rows, err := r.DB.NamedQueryContext(ctx, countQuery, args)
	if err != nil {
		return nil, 0, pkgerrors.Wrap(err, "count movements")
	}
	defer rows.Close()
	if rows.Next() {
		rows.Scan(&count)
	}

	query := "SELECT * FROM stock_movements" + whereClause + " ORDER BY created_at DESC"
	if f.PageSize > 0 {
		offset := (f.Page - 1) * f.PageSize
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.PageSize, offset)
	}

	nstmt, err := r.DB.PrepareNamedContext(ctx, query)
	if err != nil {
		return nil, 0, pkgerrors.Wrap(err, "list movements")
	}
	defer nstmt.Close()

	err = nstmt.SelectContext(ctx, &items, args)
	return items, count, err
}
