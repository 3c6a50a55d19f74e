package dto

// ItemInput is one requested purchase line. The unit price comes from the
// caller (the negotiated supplier price) and is snapshotted onto the item.
type ItemInput struct {
	ProductID string `json:"product_id"`
	Quantity  int64  `json:"quantity"`
	UnitPrice int64  `json:"unit_price"`
}

type CreatePurchaseInput struct {
	ProviderID   string      `json:"provider_id"`
	PurchaseDate string      `json:"purchase_date"`
	Items        []ItemInput `json:"items"`
}

type PurchaseFilters struct {
	ProviderID string
	Status     string
	Page       int
	PageSize   int
}
