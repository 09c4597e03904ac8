package domain

import "time"

// Product represents a catalog item
type Product struct {
	ID          int64     `json:"id,string" form:"id"`
	Name        string    `gorm:"index" json:"name" form:"name"`
	Description string    `gorm:"size:4096" json:"description" form:"description"`
	Price       float64   `gorm:"index" json:"price" form:"price"` // price in main currency units, stored rounded to 2 decimals
	Category    string    `gorm:"index" json:"category" form:"category"`
	Brand       string    `gorm:"index" json:"brand" form:"brand"`
	Stock       int       `json:"stock" form:"stock"`
	Image       string    `gorm:"size:1024" json:"image" form:"image"` // URL to product image (optional)
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName Specify table name
func (Product) TableName() string {
	return "store_product"
}
