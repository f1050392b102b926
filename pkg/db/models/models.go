package models

// All lists every persisted model, in dependency order. Used by sqlite dev mode
// and tests; Postgres schemas come from the goose migrations.
func All() []any {
	return []any{
		&User{},
		&Order{},
		&LoyaltyCode{},
		&PlacementIntent{},
		&NewsletterSubscription{},
		&WishlistItem{},
		&OutboxEvent{},
	}
}
