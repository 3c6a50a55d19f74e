package model

// Master data consumed read-only by the order engine. CRUD for these lives in
// a separate service.

type Customer struct {
	BaseModel
	Name     string `db:"name" json:"name"`
	IsActive bool   `db:"is_active" json:"is_active"`
}

type Branch struct {
	BaseModel
	Name     string `db:"name" json:"name"`
	IsActive bool   `db:"is_active" json:"is_active"`
}

type Provider struct {
	BaseModel
	Name     string `db:"name" json:"name"`
	IsActive bool   `db:"is_active" json:"is_active"`
}
