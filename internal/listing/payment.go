package listing

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
)

// Pricing exposes the configured listing price. The value is read once
// per submission and snapshotted; it is never re-read for that row.
type Pricing interface {
	PriceMinor(ctx context.Context) (int64, error)
}

// Decision is an admin's binary verdict on a submission or renewal.
type Decision string

const (
	DecisionVerify Decision = "verify"
	DecisionReject Decision = "reject"
)

const minOperationCodeLen = 4

type PaymentService struct {
	DB      *gorm.DB
	Pricing Pricing
}

// Submit records the employer's claim that the listing fee was paid out
// of band. The insert and the flip to pending_verification commit
// together; the loser of two concurrent submits fails on the status
// guard and its insert rolls back.
func (s *PaymentService) Submit(ctx context.Context, listingID, employerID uint64, operationCode string) (uint64, error) {
	code := strings.TrimSpace(operationCode)
	if len(code) < minOperationCodeLen {
		return 0, &ValidationError{Field: "operation_code", Reason: "must be at least 4 characters"}
	}

	var submissionID uint64
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
		if l.Status != StatusDraftUnpaid {
			return &InvalidStateError{Entity: "listing", Current: string(l.Status)}
		}

		price, err := s.Pricing.PriceMinor(ctx)
		if err != nil {
			return err
		}

		sub := PaymentSubmission{
			ListingID:     listingID,
			EmployerID:    employerID,
			AmountMinor:   price,
			Method:        MethodYape,
			OperationCode: code,
			Status:        ReviewPending,
			SubmittedAt:   time.Now(),
		}
		if err := tx.Create(&sub).Error; err != nil {
			return err
		}
		submissionID = sub.ID

		return transition(tx, listingID, StatusDraftUnpaid, StatusPendingVerification)
	})
	if err != nil {
		return 0, err
	}
	return submissionID, nil
}

// Verdict finalizes a pending submission and moves its listing in the
// same transaction: verify publishes it, reject sends it back to
// draft_unpaid so the employer can submit again.
func (s *PaymentService) Verdict(ctx context.Context, submissionID uint64, decision Decision, notes string) error {
	var listingTo Status
	var reviewTo ReviewStatus
	switch decision {
	case DecisionVerify:
		listingTo, reviewTo = StatusActive, ReviewVerified
	case DecisionReject:
		listingTo, reviewTo = StatusDraftUnpaid, ReviewRejected
	default:
		return &ValidationError{Field: "decision", Reason: "must be verify or reject"}
	}

	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var sub PaymentSubmission
		if err := tx.Where("id = ?", submissionID).First(&sub).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		res := tx.Model(&PaymentSubmission{}).
			Where("id = ? AND status = ?", submissionID, ReviewPending).
			Updates(map[string]any{
				"status":      reviewTo,
				"verified_at": time.Now(),
				"notes":       trimOptional(&notes),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return &InvalidStateError{Entity: "payment submission", Current: string(sub.Status)}
		}

		return transition(tx, sub.ListingID, StatusPendingVerification, listingTo)
	})
}

// PaymentStatus is the owner's view of their most recent submission.
type PaymentStatus struct {
	Submission    PaymentSubmission `json:"submission"`
	ListingStatus Status            `json:"listing_status"`
}

func (s *PaymentService) Status(ctx context.Context, listingID, employerID uint64) (*PaymentStatus, error) {
	var sub PaymentSubmission
	err := s.DB.WithContext(ctx).
		Where("listing_id = ? AND employer_id = ?", listingID, employerID).
		Order("id desc").
		First(&sub).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var l Listing
	if err := s.DB.WithContext(ctx).Select("status").Where("id = ?", listingID).First(&l).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return &PaymentStatus{Submission: sub, ListingStatus: l.Status}, nil
}

// PendingPayment is one row of the admin verification queue.
type PendingPayment struct {
	ID            uint64    `json:"id"`
	ListingID     uint64    `json:"listing_id"`
	ListingTitle  string    `json:"listing_title"`
	EmployerID    uint64    `json:"employer_id"`
	EmployerName  string    `json:"employer_name"`
	EmployerEmail string    `json:"employer_email"`
	AmountMinor   int64     `json:"amount_minor"`
	OperationCode string    `json:"operation_code"`
	SubmittedAt   time.Time `json:"submitted_at"`
}

func (s *PaymentService) Pending(ctx context.Context) ([]PendingPayment, error) {
	var out []PendingPayment
	err := s.DB.WithContext(ctx).Raw(`
select p.id, p.listing_id, l.title as listing_title,
       p.employer_id, u.name as employer_name, u.email as employer_email,
       p.amount_minor, p.operation_code, p.submitted_at
from payment_submissions p
join listings l on l.id = p.listing_id
join users u on u.id = p.employer_id
where p.status = 'pending'
order by p.submitted_at desc`).Scan(&out).Error
	return out, err
}
