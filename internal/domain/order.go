package domain

import "time"

// Order status label set. Transitions are validated by internal/order.
const (
	OrderPending    = "pending"
	OrderProcessing = "processing"
	OrderShipped    = "shipped"
	OrderDelivered  = "delivered"
	OrderCancelled  = "cancelled"
)

// ShippingAddress is embedded into an order at checkout
type ShippingAddress struct {
	FullName string `json:"fullName" form:"fullName"`
	Email    string `json:"email" form:"email"`
	Phone    string `json:"phone" form:"phone"`
	Address  string `json:"address" form:"address"`
	City     string `json:"city" form:"city"`
	State    string `json:"state" form:"state"`
	ZipCode  string `json:"zipCode" form:"zipCode"`
}

// Order is created at checkout from the cart snapshot.
// Items are frozen copies, only status and updated_at change afterwards.
type Order struct {
	ID              int64           `json:"id,string" form:"id"`
	UserID          int64           `gorm:"index" json:"user_id,string"`
	Items           []OrderItem     `gorm:"foreignKey:OrderID" json:"items"`
	TotalAmount     float64         `json:"totalAmount"`
	ShippingAddress ShippingAddress `gorm:"embedded;embeddedPrefix:ship_" json:"shippingAddress"`
	Status          string          `gorm:"size:16;index" json:"status"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// TableName Specify table name
func (Order) TableName() string {
	return "store_order"
}

// OrderItem is a frozen product snapshot, not a live reference
type OrderItem struct {
	ID        int64   `json:"id,string"`
	OrderID   int64   `gorm:"index" json:"order_id,string"`
	ProductID int64   `json:"productId,string"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
	Image     string  `gorm:"size:1024" json:"image"`
}

// TableName Specify table name
func (OrderItem) TableName() string {
	return "store_order_item"
}
