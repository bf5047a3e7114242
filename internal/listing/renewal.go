package listing

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

type RenewalService struct {
	DB      *gorm.DB
	Pricing Pricing
}

// Request records an owner's claim that a renewal fee was paid. Any
// listing the caller owns qualifies, whatever its status; a lapsed
// listing comes back to life when the admin verifies. The listing row
// itself is not touched here.
//
// The new expiration is fixed now: one term past the current
// expiration if it is still in the future, otherwise one term from
// now. Multiple pending requests may coexist; whichever verdict lands
// last wins.
func (s *RenewalService) Request(ctx context.Context, listingID, employerID uint64, operationCode string) (*RenewalRequest, error) {
	var req RenewalRequest
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var l Listing
		if err := tx.Where("id = ?", listingID).First(&l).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if l.EmployerID != employerID {
			return ErrForbidden
		}

		now := time.Now()
		base := now
		if l.ExpiresAt != nil && l.ExpiresAt.After(now) {
			base = *l.ExpiresAt
		}

		price, err := s.Pricing.PriceMinor(ctx)
		if err != nil {
			return err
		}

		req = RenewalRequest{
			ListingID:     listingID,
			EmployerID:    employerID,
			AmountMinor:   price,
			OperationCode: trimOptional(&operationCode),
			NewExpiresAt:  base.Add(listingTerm),
			Status:        ReviewPending,
			RequestedAt:   now,
		}
		return tx.Create(&req).Error
	})
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// Verdict finalizes a pending renewal request. Verify applies the
// request's precomputed expiration through the reactivate transition,
// forcing the listing active whatever state it lapsed into. Reject
// leaves the listing untouched.
func (s *RenewalService) Verdict(ctx context.Context, requestID uint64, decision Decision, notes string) error {
	var reviewTo ReviewStatus
	switch decision {
	case DecisionVerify:
		reviewTo = ReviewVerified
	case DecisionReject:
		reviewTo = ReviewRejected
	default:
		return &ValidationError{Field: "decision", Reason: "must be verify or reject"}
	}

	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var req RenewalRequest
		if err := tx.Where("id = ?", requestID).First(&req).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		res := tx.Model(&RenewalRequest{}).
			Where("id = ? AND status = ?", requestID, ReviewPending).
			Updates(map[string]any{
				"status":      reviewTo,
				"verified_at": time.Now(),
				"notes":       trimOptional(&notes),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return &InvalidStateError{Entity: "renewal request", Current: string(req.Status)}
		}

		if decision == DecisionReject {
			return nil
		}
		return reactivate(tx, req.ListingID, req.NewExpiresAt)
	})
}

// PendingRenewal is one row of the admin renewal queue.
type PendingRenewal struct {
	ID            uint64    `json:"id"`
	ListingID     uint64    `json:"listing_id"`
	ListingTitle  string    `json:"listing_title"`
	EmployerID    uint64    `json:"employer_id"`
	EmployerName  string    `json:"employer_name"`
	EmployerEmail string    `json:"employer_email"`
	AmountMinor   int64     `json:"amount_minor"`
	OperationCode *string   `json:"operation_code"`
	NewExpiresAt  time.Time `json:"new_expires_at"`
	RequestedAt   time.Time `json:"requested_at"`
}

func (s *RenewalService) Pending(ctx context.Context) ([]PendingRenewal, error) {
	var out []PendingRenewal
	err := s.DB.WithContext(ctx).Raw(`
select r.id, r.listing_id, l.title as listing_title,
       r.employer_id, u.name as employer_name, u.email as employer_email,
       r.amount_minor, r.operation_code, r.new_expires_at, r.requested_at
from renewal_requests r
join listings l on l.id = r.listing_id
join users u on u.id = r.employer_id
where r.status = 'pending'
order by r.requested_at desc`).Scan(&out).Error
	return out, err
}
