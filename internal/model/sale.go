package model

import (
	"time"

	"github.com/google/uuid"
)

type BillStatus string

const (
	BillPending   BillStatus = "PENDING"
	BillGenerated BillStatus = "GENERATED"
	BillFailed    BillStatus = "FAILED"
)

// Sale is one line of a committed order. Core fields are immutable after
// insert; only BillStatus and PdfURL change once the bill upload settles.
type Sale struct {
	BaseModel
	OwnerID uuid.UUID `gorm:"type:uuid;not null;index" json:"owner_id"`
	Owner   *User     `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`

	Customer      string `gorm:"type:varchar(255);not null" json:"customer"`
	CustomerEmail string `gorm:"type:varchar(255);not null" json:"customermail"`

	// Product snapshot at sale time
	ProductID   uuid.UUID `gorm:"type:uuid;not null;index" json:"product_id"`
	ProductName string    `gorm:"type:varchar(255);not null" json:"product_name"`

	Quantity int     `gorm:"not null" json:"quantity"`
	Price    float64 `gorm:"type:decimal(10,2);not null" json:"price"`
	CP       float64 `gorm:"type:decimal(10,2);default:0" json:"cp"`
	Subtotal float64 `gorm:"type:decimal(10,2);not null" json:"subtotal"`
	Discount float64 `gorm:"type:decimal(5,2);default:0" json:"discount"` // percentage 0-100
	Amount   float64 `gorm:"type:decimal(10,2);not null" json:"amount"`
	Date     time.Time `gorm:"not null;index" json:"date"`

	BillStatus BillStatus `gorm:"type:varchar(10);default:'PENDING'" json:"bill_status"`
	PdfURL     *string    `gorm:"type:text" json:"pdf_url"`
}
