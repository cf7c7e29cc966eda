package models

import (
	"time"
)

type Ticket struct {
	ID           uint64    `json:"id"`
	EventID      uint64    `json:"event_id"`
	Owner        string    `json:"owner"`
	PurchaseTime time.Time `json:"purchase_time"`
	IsUsed       bool      `json:"is_used"`
	IsRefunded   bool      `json:"is_refunded"`
}
