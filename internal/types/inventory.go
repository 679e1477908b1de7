package types

// InventoryModel is a row of /inventory/models. Only the manufacturer is
// needed to build the target model set.
type InventoryModel struct {
	ID             ID `json:"id"`
	ManufacturerID ID `json:"manufacturer_id"`
}

// InventoryField is one custom field value attached to an inventory item.
type InventoryField struct {
	Data string `json:"data"`
}

// InventoryItem is a row of /inventory/items.
type InventoryItem struct {
	ID           ID               `json:"id"`
	AssigneeType string           `json:"assignee_type"`
	AssigneeID   ID               `json:"assignee_id"`
	ModelID      ID               `json:"inventory_model_id"`
	Fields       []InventoryField `json:"fields"`
}

// DeviceRecord is an eligible inventory item reduced to who holds it and the
// MAC found in its fields. MAC keeps the field's original casing and
// separators.
type DeviceRecord struct {
	ItemID     ID
	AssigneeID ID
	MAC        string
}
