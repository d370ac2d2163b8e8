package models

import (
	"time"

	"gorm.io/gorm"
)

type Product struct {
	ID          uint    `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string  `gorm:"not null" json:"name"`
	Description string  `json:"description,omitempty"`
	Brand       string  `json:"brand,omitempty"`
	Image       string  `json:"image,omitempty"`
	Price       float64 `gorm:"not null" json:"price"`
	Stock       int     `json:"stock"`
	IsActive    bool    `gorm:"default:true" json:"is_active"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

type ReservationStatus string

const (
	ReservationReserved  ReservationStatus = "RESERVED"
	ReservationCommitted ReservationStatus = "COMMITTED"
	ReservationReleased  ReservationStatus = "RELEASED"
)

// StockReservation records one applied stock decrement for one order line.
// Restocking is keyed to these rows, not to a bare quantity, so a replayed
// release can never credit stock twice.
type StockReservation struct {
	ID          string            `gorm:"primaryKey" json:"id"`
	OrderNumber string            `gorm:"index;not null" json:"order_number"`
	ProductID   uint              `gorm:"not null" json:"product_id"`
	Quantity    int               `gorm:"not null" json:"quantity"`
	Status      ReservationStatus `gorm:"type:VARCHAR(20);default:'RESERVED'" json:"status"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
