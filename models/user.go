package models

import "time"

type User struct {
	ID        string  `gorm:"primaryKey" json:"id"`
	Email     string  `gorm:"unique;not null" json:"email"`
	Phone     string  `json:"phone,omitempty"`
	Name      string  `json:"name"`
	Orders    []Order `gorm:"foreignKey:UserID;constraint:OnDelete:SET NULL" json:"-"`
	CreatedAt time.Time
}

// Address is a snapshot taken at order time. Editing a saved profile address
// later must not alter past orders, so orders reference these rows and the
// rows are never updated.
type Address struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	UserID       string `gorm:"index" json:"user_id"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Phone        string `json:"phone"`
	AddressLine1 string `json:"address_line1"`
	AddressLine2 string `json:"address_line2,omitempty"`
	City         string `json:"city"`
	State        string `json:"state"`
	Pincode      string `json:"pincode"`
	Country      string `gorm:"default:'India'" json:"country"`
	CreatedAt    time.Time
}
