package models

// All lists every model owned by the schema, in dependency order.
func All() []any {
	return []any{
		&User{},
		&Game{},
		&OwnedGame{},
		&CartItem{},
		&Order{},
		&OrderItem{},
		&CreditCard{},
		&Address{},
		&OutboxEvent{},
	}
}
