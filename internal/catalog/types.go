package catalog

// DefaultStock is reported for every product; the catalog service does not track inventory.
const DefaultStock = 50

// Product is the storefront projection of a catalog product.
type Product struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Price       int64    `json:"price"`
	PriceID     string   `json:"priceId,omitempty"`
	Images      []string `json:"images"`
	Description string   `json:"description"`
	Category    string   `json:"category,omitempty"`
	Stock       int      `json:"stock"`
	Sizes       []string `json:"sizes"`
}

// PriceQuote is a server-side price lookup used when totalling a checkout.
type PriceQuote struct {
	PriceID   string `json:"priceId"`
	ProductID string `json:"productId"`
	Name      string `json:"name"`
	UnitPrice int64  `json:"unitPrice"`
	Currency  string `json:"currency"`
}

// SyncItem carries admin edits for one product. Nil fields are left untouched.
type SyncItem struct {
	ProductID   string   `json:"productId" validate:"required,max=255"`
	Name        *string  `json:"name,omitempty" validate:"omitempty,min=1,max=250"`
	Description *string  `json:"description,omitempty" validate:"omitempty,max=5000"`
	Images      []string `json:"images,omitempty" validate:"omitempty,max=8,dive,url"`
	Sizes       []string `json:"sizes,omitempty" validate:"omitempty,dive,min=1,max=16"`
	Category    *string  `json:"category,omitempty" validate:"omitempty,max=64"`
	// Price in whole currency units; when set a new default price is created.
	Price *int64 `json:"price,omitempty" validate:"omitempty,gt=0"`
}

// SyncResult reports the outcome of one SyncItem.
type SyncResult struct {
	ProductID string `json:"productId"`
	OK        bool   `json:"ok"`
	PriceID   string `json:"priceId,omitempty"`
	Error     string `json:"error,omitempty"`
}
