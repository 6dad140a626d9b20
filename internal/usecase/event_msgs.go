package usecase

const ChannelOrderPlaced = "order.placed"

// Written to the outbox in the checkout transaction, relayed to RabbitMQ.
type OrderPlacedMsg struct {
	Type        string `json:"type"` // "OrderPlacedV1"
	OrderID     string `json:"order_id"`
	UserID      string `json:"user_id"`
	TotalAmount string `json:"total_amount"`
	ItemCount   int    `json:"item_count"`
	Status      string `json:"status"`
}

// Sent by the fulfillment partner on Kafka
type FulfillmentStatusMsg struct {
	OrderID string `json:"order_id"`
	Status  string `json:"status"` // e.g. "shipped"
}
