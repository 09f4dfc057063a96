package models

import "time"

// User represents a storefront account. Authentication lives elsewhere; the
// backend only reads accounts and hangs owned data off them.
type User struct {
	ID        uint      `gorm:"column:id;primaryKey"`
	Username  string    `gorm:"column:username;size:30;not null;uniqueIndex"`
	Email     string    `gorm:"column:email;size:254;not null;uniqueIndex"`
	FirstName string    `gorm:"column:first_name;size:150;not null;default:''"`
	LastName  string    `gorm:"column:last_name;size:150;not null;default:''"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`

	CartItems []CartItem `gorm:"foreignKey:UserID"`
}

// DisplayName is "first last" when both are set, otherwise the username.
func (u User) DisplayName() string {
	if u.FirstName != "" && u.LastName != "" {
		return u.FirstName + " " + u.LastName
	}
	return u.Username
}
