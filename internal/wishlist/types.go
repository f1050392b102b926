package wishlist

// WishlistIDsDTO is the lightweight projection containing liked product ids.
type WishlistIDsDTO struct {
	ProductIDs []string `json:"productIds"`
}

// WishlistStatusDTO answers whether a single product is liked.
type WishlistStatusDTO struct {
	ProductID string `json:"productId"`
	Liked     bool   `json:"liked"`
}
