package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	pkgerrors "github.com/pkg/errors"
	"github.com/wicaksana/pos-order-service/internal/model"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) GetCustomer(ctx context.Context, id string) (*model.Customer, error) {
	var customer model.Customer
	err := r.DB.GetContext(ctx, &customer, `SELECT * FROM customers WHERE id = $1 LIMIT 1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(err, "get customer")
	}
	return &customer, nil
}

func (r *PGRepository) GetBranch(ctx context.Context, id string) (*model.Branch, error) {
	var branch model.Branch
	err := r.DB.GetContext(ctx, &branch, `SELECT * FROM branches WHERE id = $1 LIMIT 1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(err, "get branch")
	}
	return &branch, nil
}

func (r *PGRepository) GetProvider(ctx context.Context, id string) (*model.Provider, error) {
	var provider model.Provider
	err := r.DB.GetContext(ctx, &provider, `SELECT * FROM providers WHERE id = $1 LIMIT 1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(err, "get provider")
	}
	return &provider, nil
}
