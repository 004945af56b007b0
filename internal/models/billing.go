package models

import "github.com/shopspring/decimal"

// Checkin is one daily check-in. Date is the calendar day (YYYY-MM-DD) in the
// check-in timezone.
type Checkin struct {
	UserID    string
	Date      string
	Streak    int
	Reward    int64
	CreatedAt int64
}

// PurchaseStatus is the state of a credit purchase.
type PurchaseStatus string

const (
	PurchasePending   PurchaseStatus = "pending"
	PurchaseCompleted PurchaseStatus = "completed"
)

// CreditPurchase is a pending or completed purchase of a credit package.
// AmountMinor is the price in the currency's minor unit (halalas for SAR),
// the unit the payment gateway reports.
type CreditPurchase struct {
	ID          string
	UserID      string
	PackageCode string
	Credits     int64
	AmountMinor int64
	Currency    string
	Status      PurchaseStatus
	PaymentID   string
	CreatedAt   int64
	CompletedAt int64
}

// ReceiptScan persists one OCR run over an uploaded receipt.
type ReceiptScan struct {
	ID          string
	UserID      string
	FilePath    string
	RawText     string
	Merchant    string
	Total       decimal.NullDecimal
	VAT         decimal.NullDecimal
	ReceiptDate string
	CreatedAt   int64
}
