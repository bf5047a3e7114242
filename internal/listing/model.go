package listing

import "time"

// Status is the lifecycle state of a Listing.
type Status string

const (
	StatusDraftUnpaid         Status = "draft_unpaid"
	StatusPendingVerification Status = "pending_verification"
	StatusActive              Status = "active"
	StatusInactive            Status = "inactive"
)

// ReviewStatus is the admin-review state of a payment submission or
// renewal request.
type ReviewStatus string

const (
	ReviewPending  ReviewStatus = "pending"
	ReviewVerified ReviewStatus = "verified"
	ReviewRejected ReviewStatus = "rejected"
)

// MethodYape is the only payment channel; payments happen out of band
// and are reconciled by an admin against the operation code.
const MethodYape = "yape"

type Listing struct {
	ID         uint64 `gorm:"primaryKey" json:"id"`
	EmployerID uint64 `gorm:"index;not null" json:"employer_id"`

	Title        string  `gorm:"type:text;not null" json:"title"`
	Description  string  `gorm:"type:text;not null" json:"description"`
	Category     string  `gorm:"index;not null" json:"category"`
	EstimatedPay *string `gorm:"type:text" json:"estimated_pay"`
	Location     *string `gorm:"type:text" json:"location"`
	ContactNote  *string `gorm:"type:text" json:"contact_note"`

	// ContactPhone is resolved once at creation (owner profile or admin
	// override) and never changes afterwards.
	ContactPhone string `gorm:"not null" json:"contact_phone"`

	Status Status `gorm:"index;not null" json:"status"`

	// ExpiresAt is nil until a privileged creation or a verified
	// renewal assigns one; nil listings are never swept.
	ExpiresAt *time.Time `gorm:"index" json:"expires_at"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

// PaymentSubmission is an employer's claim that the listing fee was
// paid. At most one row per listing may be pending at a time; the
// partial unique index in db.AutoMigrateAndIndexes backs this up.
type PaymentSubmission struct {
	ID         uint64 `gorm:"primaryKey" json:"id"`
	ListingID  uint64 `gorm:"index;not null" json:"listing_id"`
	EmployerID uint64 `gorm:"index;not null" json:"employer_id"`

	// AmountMinor is the configured price in minor units (cents),
	// snapshotted at submission time.
	AmountMinor   int64  `gorm:"not null" json:"amount_minor"`
	Method        string `gorm:"not null" json:"method"`
	OperationCode string `gorm:"not null" json:"operation_code"`

	Status      ReviewStatus `gorm:"index;not null" json:"status"`
	SubmittedAt time.Time    `gorm:"not null" json:"submitted_at"`
	VerifiedAt  *time.Time   `json:"verified_at"`
	Notes       *string      `gorm:"type:text" json:"notes"`
}

// RenewalRequest extends a listing's expiration by one term once an
// admin verifies the out-of-band payment.
type RenewalRequest struct {
	ID         uint64 `gorm:"primaryKey" json:"id"`
	ListingID  uint64 `gorm:"index;not null" json:"listing_id"`
	EmployerID uint64 `gorm:"index;not null" json:"employer_id"`

	AmountMinor   int64   `gorm:"not null" json:"amount_minor"`
	OperationCode *string `json:"operation_code"`

	// NewExpiresAt is fixed at request time: one term past the current
	// expiration, or past now if the listing already lapsed.
	NewExpiresAt time.Time `gorm:"not null" json:"new_expires_at"`

	Status      ReviewStatus `gorm:"index;not null" json:"status"`
	RequestedAt time.Time    `gorm:"not null" json:"requested_at"`
	VerifiedAt  *time.Time   `json:"verified_at"`
	Notes       *string      `gorm:"type:text" json:"notes"`
}
