package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type User struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type Wallet struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Balance   int64     `json:"balance"`
	IsLocked  bool      `json:"is_locked"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// WalletTransaction is an immutable record of a single balance-affecting event.
type WalletTransaction struct {
	ID              int64     `json:"id"`
	WalletID        int64     `json:"wallet_id"`
	Type            string    `json:"type"`
	Amount          int64     `json:"amount"`
	Description     string    `json:"description"`
	OrderID         *int64    `json:"order_id,omitempty"`
	PayoutRequestID *int64    `json:"payout_request_id,omitempty"`
	AdminID         *int64    `json:"admin_id,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

type PayoutRequest struct {
	ID                 int64         `json:"id"`
	UserID             int64         `json:"user_id"`
	Amount             int64         `json:"amount"`
	Status             string        `json:"status"`
	BankAccountDetails string        `json:"bank_account_details"`
	AdminID            *int64        `json:"admin_id,omitempty"`
	AdminNotes         *string       `json:"admin_notes,omitempty"`
	RequestedAt        time.Time     `json:"requested_at"`
	ProcessedAt        *time.Time    `json:"processed_at,omitempty"`
	PaymentProof       *PaymentProof `json:"payment_proof,omitempty"`
}

// PaymentProof is the admin-supplied evidence that a payout was transferred.
type PaymentProof struct {
	ID              int64     `json:"id"`
	PayoutRequestID int64     `json:"payout_request_id"`
	ScreenshotPath  string    `json:"screenshot_path"`
	ReferenceNumber string    `json:"reference_number"`
	PaymentDate     time.Time `json:"payment_date"`
	AdminID         int64     `json:"admin_id"`
	Notes           *string   `json:"notes,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

type Order struct {
	ID                 int64      `json:"id"`
	OrderNumber        string     `json:"order_number"`
	ServiceID          int64      `json:"service_id"`
	ClientID           int64      `json:"client_id"`
	FreelancerID       int64      `json:"freelancer_id"`
	Status             string     `json:"status"`
	PaymentStatus      string     `json:"payment_status"`
	PackagePrice       int64      `json:"package_price"`
	ServiceFee         int64      `json:"service_fee"`
	TotalAmount        int64      `json:"total_amount"`
	Requirements       string     `json:"requirements,omitempty"`
	CancellationReason *string    `json:"cancellation_reason,omitempty"`
	PaymentVerifiedAt  *time.Time `json:"payment_verified_at,omitempty"`
	StartedAt          *time.Time `json:"started_at,omitempty"`
	DeliveredAt        *time.Time `json:"delivered_at,omitempty"`
	CompletedAt        *time.Time `json:"completed_at,omitempty"`
	CancelledAt        *time.Time `json:"cancelled_at,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

type Review struct {
	ID           int64     `json:"id"`
	OrderID      int64     `json:"order_id"`
	FreelancerID int64     `json:"freelancer_id"`
	Rating       int32     `json:"rating"`
	Comment      string    `json:"comment,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// FreelancerStats holds the aggregates maintained alongside order completion and reviews.
type FreelancerStats struct {
	UserID          int64           `json:"user_id"`
	CompletedOrders int64           `json:"completed_orders"`
	RatingSum       int64           `json:"rating_sum"`
	RatingCount     int64           `json:"rating_count"`
	AverageRating   decimal.Decimal `json:"average_rating"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// WalletExportRow is one line of the admin wallet CSV export.
type WalletExportRow struct {
	UserName  string
	Email     string
	Balance   int64
	IsLocked  bool
	UpdatedAt time.Time
}
