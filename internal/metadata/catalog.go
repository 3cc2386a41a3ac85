package metadata

// DefaultNow marks a timestamp field whose default is the insert time,
// rendered by the store dialect as the database's current-timestamp
// expression.
const DefaultNow = "now"

// Catalog returns the static entity catalog. Every entity except
// organizations is scoped to the calling identity through user_id.
func Catalog() []*Entity {
	return []*Entity{
		{
			Name:  "organizations",
			Table: "organizations",
			Fields: []Field{
				{Name: "name", Type: TypeString, Required: true},
				{Name: "slug", Type: TypeString, Required: true, Unique: true},
				{Name: "business_type", Type: TypeString, Nullable: true},
				{Name: "phone", Type: TypeString, Nullable: true},
				{Name: "email", Type: TypeString, Nullable: true},
				{Name: "address_line1", Type: TypeString, Nullable: true},
				{Name: "address_line2", Type: TypeString, Nullable: true},
				{Name: "city", Type: TypeString, Nullable: true},
				{Name: "state", Type: TypeString, Nullable: true},
				{Name: "postal_code", Type: TypeString, Nullable: true},
				{Name: "country", Type: TypeString, Nullable: true, Default: "US"},
				{Name: "timezone", Type: TypeString, Nullable: true, Default: "America/New_York"},
				{Name: "currency", Type: TypeString, Nullable: true, Default: "USD"},
				{Name: "helcim_merchant_id", Type: TypeString, Nullable: true},
				{Name: "helcim_api_token", Type: TypeString, Nullable: true},
				{Name: "helcim_connected_at", Type: TypeTimestamp, Nullable: true},
				{Name: "status", Type: TypeString, Nullable: true, Default: "active"},
				{Name: "created_at", Type: TypeTimestamp, Nullable: true, Default: DefaultNow},
			},
		},
		{
			Name:       "items",
			Table:      "items",
			OwnerField: "user_id",
			Fields: []Field{
				{Name: "user_id", Type: TypeString, Nullable: true},
				{Name: "organization_id", Type: TypeInteger, Required: true},
				{Name: "name", Type: TypeString, Required: true},
				{Name: "description", Type: TypeString, Nullable: true},
				{Name: "item_type", Type: TypeString, Required: true},
				{Name: "sku", Type: TypeString, Nullable: true},
				{Name: "base_price", Type: TypeFloat, Required: true},
				{Name: "cost", Type: TypeFloat, Nullable: true},
				{Name: "tax_rate", Type: TypeFloat, Nullable: true, Default: 0.0},
				{Name: "category", Type: TypeString, Nullable: true},
				{Name: "image_url", Type: TypeString, Nullable: true},
				{Name: "is_active", Type: TypeBoolean, Nullable: true, Default: true},
				{Name: "track_inventory", Type: TypeBoolean, Nullable: true, Default: false},
				{Name: "current_stock", Type: TypeInteger, Nullable: true, Default: 0},
				{Name: "low_stock_alert", Type: TypeInteger, Nullable: true},
			},
		},
		{
			Name:       "variants",
			Table:      "variants",
			OwnerField: "user_id",
			Fields: []Field{
				{Name: "user_id", Type: TypeString, Nullable: true},
				{Name: "item_id", Type: TypeInteger, Required: true},
				{Name: "name", Type: TypeString, Required: true},
				{Name: "price_adjustment", Type: TypeFloat, Nullable: true, Default: 0.0},
				{Name: "sku", Type: TypeString, Nullable: true},
				{Name: "is_active", Type: TypeBoolean, Nullable: true, Default: true},
				{Name: "sort_order", Type: TypeInteger, Nullable: true, Default: 0},
				{Name: "created_at", Type: TypeTimestamp, Nullable: true, Default: DefaultNow},
			},
		},
		{
			Name:       "modifier_groups",
			Table:      "modifier_groups",
			OwnerField: "user_id",
			Fields: []Field{
				{Name: "user_id", Type: TypeString, Nullable: true},
				{Name: "organization_id", Type: TypeInteger, Required: true},
				{Name: "name", Type: TypeString, Required: true},
				{Name: "selection_type", Type: TypeString, Required: true},
				{Name: "min_selections", Type: TypeInteger, Nullable: true, Default: 0},
				{Name: "max_selections", Type: TypeInteger, Nullable: true},
				{Name: "is_required", Type: TypeBoolean, Nullable: true, Default: false},
				{Name: "sort_order", Type: TypeInteger, Nullable: true, Default: 0},
				{Name: "created_at", Type: TypeTimestamp, Nullable: true},
			},
		},
		{
			Name:       "modifier_options",
			Table:      "modifier_options",
			OwnerField: "user_id",
			Fields: []Field{
				{Name: "user_id", Type: TypeString, Nullable: true},
				{Name: "modifier_group_id", Type: TypeInteger, Required: true},
				{Name: "name", Type: TypeString, Required: true},
				{Name: "price_adjustment", Type: TypeFloat, Nullable: true, Default: 0.0},
				{Name: "is_active", Type: TypeBoolean, Nullable: true, Default: true},
				{Name: "sort_order", Type: TypeInteger, Nullable: true, Default: 0},
				{Name: "created_at", Type: TypeTimestamp, Nullable: true},
			},
		},
		{
			Name:       "item_modifier_groups",
			Table:      "item_modifier_groups",
			OwnerField: "user_id",
			Fields: []Field{
				{Name: "user_id", Type: TypeString, Nullable: true},
				{Name: "item_id", Type: TypeInteger, Required: true},
				{Name: "modifier_group_id", Type: TypeInteger, Required: true},
				{Name: "sort_order", Type: TypeInteger, Nullable: true, Default: 0},
				{Name: "created_at", Type: TypeTimestamp, Nullable: true},
			},
		},
		{
			Name:       "orders",
			Table:      "orders",
			OwnerField: "user_id",
			Fields: []Field{
				{Name: "user_id", Type: TypeString, Nullable: true},
				{Name: "organization_id", Type: TypeInteger, Required: true},
				{Name: "order_number", Type: TypeString, Required: true},
				{Name: "cashier_id", Type: TypeInteger, Nullable: true},
				{Name: "customer_name", Type: TypeString, Nullable: true},
				{Name: "customer_email", Type: TypeString, Nullable: true},
				{Name: "customer_phone", Type: TypeString, Nullable: true},
				{Name: "subtotal", Type: TypeFloat, Required: true},
				{Name: "tax_amount", Type: TypeFloat, Nullable: true, Default: 0.0},
				{Name: "discount_amount", Type: TypeFloat, Nullable: true, Default: 0.0},
				{Name: "tip_amount", Type: TypeFloat, Nullable: true, Default: 0.0},
				{Name: "total_amount", Type: TypeFloat, Required: true},
				{Name: "status", Type: TypeString, Nullable: true, Default: "pending"},
				{Name: "payment_method", Type: TypeString, Nullable: true},
				{Name: "payment_status", Type: TypeString, Nullable: true, Default: "unpaid"},
				{Name: "notes", Type: TypeString, Nullable: true},
				{Name: "created_at", Type: TypeTimestamp, Nullable: true},
				{Name: "completed_at", Type: TypeTimestamp, Nullable: true},
			},
		},
		{
			Name:       "order_items",
			Table:      "order_items",
			OwnerField: "user_id",
			Fields: []Field{
				{Name: "user_id", Type: TypeString, Nullable: true},
				{Name: "order_id", Type: TypeInteger, Required: true},
				{Name: "item_id", Type: TypeInteger, Nullable: true},
				{Name: "variant_id", Type: TypeInteger, Nullable: true},
				{Name: "item_name", Type: TypeString, Required: true},
				{Name: "variant_name", Type: TypeString, Nullable: true},
				{Name: "quantity", Type: TypeInteger, Required: true, Default: 1},
				{Name: "unit_price", Type: TypeFloat, Required: true},
				{Name: "subtotal", Type: TypeFloat, Required: true},
				{Name: "notes", Type: TypeString, Nullable: true},
				{Name: "created_at", Type: TypeTimestamp, Nullable: true},
			},
		},
		{
			Name:       "order_item_modifiers",
			Table:      "order_item_modifiers",
			OwnerField: "user_id",
			Fields: []Field{
				{Name: "user_id", Type: TypeString, Nullable: true},
				{Name: "order_item_id", Type: TypeInteger, Required: true},
				{Name: "modifier_option_id", Type: TypeInteger, Nullable: true},
				{Name: "modifier_name", Type: TypeString, Required: true},
				{Name: "option_name", Type: TypeString, Required: true},
				{Name: "price_adjustment", Type: TypeFloat, Nullable: true, Default: 0.0},
				{Name: "created_at", Type: TypeTimestamp, Nullable: true, Default: DefaultNow},
			},
		},
		{
			Name:       "payments",
			Table:      "payments",
			OwnerField: "user_id",
			Fields: []Field{
				{Name: "user_id", Type: TypeString, Nullable: true},
				{Name: "organization_id", Type: TypeInteger, Required: true},
				{Name: "order_id", Type: TypeInteger, Required: true},
				{Name: "amount", Type: TypeFloat, Required: true},
				{Name: "payment_method", Type: TypeString, Required: true},
				{Name: "helcim_transaction_id", Type: TypeString, Nullable: true},
				{Name: "helcim_card_token", Type: TypeString, Nullable: true},
				{Name: "card_last_four", Type: TypeString, Nullable: true},
				{Name: "card_brand", Type: TypeString, Nullable: true},
				{Name: "status", Type: TypeString, Nullable: true, Default: "pending"},
				{Name: "error_message", Type: TypeString, Nullable: true},
				{Name: "processed_at", Type: TypeTimestamp, Nullable: true},
				{Name: "created_at", Type: TypeTimestamp, Nullable: true},
			},
		},
		{
			Name:       "user_profiles",
			Table:      "user_profiles",
			OwnerField: "user_id",
			Fields: []Field{
				{Name: "user_id", Type: TypeString, Required: true},
				{Name: "organization_id", Type: TypeInteger, Required: true},
				{Name: "role", Type: TypeString, Required: true},
				{Name: "first_name", Type: TypeString, Nullable: true},
				{Name: "last_name", Type: TypeString, Nullable: true},
				{Name: "phone", Type: TypeString, Nullable: true},
				{Name: "pin_code", Type: TypeString, Nullable: true},
				{Name: "is_active", Type: TypeBoolean, Nullable: true, Default: true},
				{Name: "created_at", Type: TypeTimestamp, Nullable: true},
				{Name: "updated_at", Type: TypeTimestamp, Nullable: true},
			},
		},
	}
}
