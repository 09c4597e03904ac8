package domain

import "time"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User represents a storefront account
type User struct {
	ID        int64     `json:"id,string" form:"id"`
	Name      string    `json:"name" form:"name"`
	Email     string    `gorm:"uniqueIndex" json:"email" form:"email"`
	Password  string    `json:"-" form:"-"` // bcrypt hash, never serialized
	Role      string    `gorm:"size:16" json:"role" form:"role"`
	Photo     string    `gorm:"size:1024" json:"photo" form:"photo"`
	LastLogin time.Time `json:"last_login"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName Specify table name
func (User) TableName() string {
	return "store_user"
}

func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
