package listing

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"gorm.io/gorm"
)

// listingTerm is the paid visibility window. Privileged creations and
// verified renewals both grant one term.
const listingTerm = 7 * 24 * time.Hour

// Profiles resolves the stored contact phone of a listing owner.
type Profiles interface {
	ContactPhone(ctx context.Context, userID uint64) (string, error)
}

type Service struct {
	DB       *gorm.DB
	Profiles Profiles
}

type CreateInput struct {
	Title        string
	Description  string
	Category     string
	EstimatedPay *string
	Location     *string
	ContactNote  *string
}

func (in *CreateInput) validate() error {
	if strings.TrimSpace(in.Title) == "" {
		return &ValidationError{Field: "title", Reason: "required"}
	}
	if strings.TrimSpace(in.Description) == "" {
		return &ValidationError{Field: "description", Reason: "required"}
	}
	if strings.TrimSpace(in.Category) == "" {
		return &ValidationError{Field: "category", Reason: "required"}
	}
	return nil
}

func (in *CreateInput) listing(employerID uint64, phone string, status Status) Listing {
	return Listing{
		EmployerID:   employerID,
		Title:        strings.TrimSpace(in.Title),
		Description:  strings.TrimSpace(in.Description),
		Category:     strings.TrimSpace(in.Category),
		EstimatedPay: trimOptional(in.EstimatedPay),
		Location:     trimOptional(in.Location),
		ContactNote:  trimOptional(in.ContactNote),
		ContactPhone: phone,
		Status:       status,
	}
}

// Create inserts an employer's listing as an unpaid draft. It becomes
// visible only after a payment submission is verified.
func (s *Service) Create(ctx context.Context, employerID uint64, in CreateInput) (uint64, error) {
	if err := in.validate(); err != nil {
		return 0, err
	}

	phone, err := s.Profiles.ContactPhone(ctx, employerID)
	if err != nil {
		return 0, err
	}
	if phone == "" {
		return 0, &ValidationError{Field: "contact_phone", Reason: "owner profile has no phone"}
	}

	l := in.listing(employerID, phone, StatusDraftUnpaid)
	if err := s.DB.WithContext(ctx).Create(&l).Error; err != nil {
		return 0, err
	}
	return l.ID, nil
}

// CreateByAdmin publishes a listing immediately, skipping payment. The
// admin must supply the contact phone since the listing is posted on
// someone else's behalf.
func (s *Service) CreateByAdmin(ctx context.Context, adminID uint64, in CreateInput, contactPhone string) (*Listing, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	contactPhone = strings.TrimSpace(contactPhone)
	if contactPhone == "" {
		return nil, &ValidationError{Field: "contact_phone", Reason: "required for admin listings"}
	}

	exp := time.Now().Add(listingTerm)
	l := in.listing(adminID, contactPhone, StatusActive)
	l.ExpiresAt = &exp

	if err := s.DB.WithContext(ctx).Create(&l).Error; err != nil {
		return nil, err
	}
	return &l, nil
}

// transition moves a listing from exactly one status to another. The
// conditional update is the row-level guard: a concurrent transaction
// that got there first leaves zero rows for this one, which surfaces
// as InvalidStateError instead of a silent overwrite.
func transition(tx *gorm.DB, id uint64, from, to Status) error {
	res := tx.Model(&Listing{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var cur Listing
		if err := tx.Select("status").Where("id = ?", id).First(&cur).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		return &InvalidStateError{Entity: "listing", Current: string(cur.Status)}
	}
	return nil
}

// reactivate forces a listing active with a fresh expiration no matter
// what state it lapsed into. Verified renewals are the only caller;
// every other status change goes through transition.
func reactivate(tx *gorm.DB, id uint64, expiresAt time.Time) error {
	res := tx.Model(&Listing{}).Where("id = ?", id).Updates(map[string]any{
		"status":     StatusActive,
		"expires_at": expiresAt,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Patch enumerates the fields an owner may change on their listing.
// Nil means "leave as is"; optional fields set to an empty string are
// cleared.
type Patch struct {
	Title        *string
	Description  *string
	Category     *string
	EstimatedPay *string
	Location     *string
	ContactNote  *string

	// Status lets the owner manually pause or resume a listing; only
	// active and inactive are accepted.
	Status *Status
}

func (p *Patch) changes() (map[string]any, error) {
	out := map[string]any{}

	set := func(field string, v *string, required bool) error {
		if v == nil {
			return nil
		}
		t := strings.TrimSpace(*v)
		if t == "" {
			if required {
				return &ValidationError{Field: field, Reason: "cannot be empty"}
			}
			out[field] = nil
			return nil
		}
		out[field] = t
		return nil
	}

	if err := set("title", p.Title, true); err != nil {
		return nil, err
	}
	if err := set("description", p.Description, true); err != nil {
		return nil, err
	}
	if err := set("category", p.Category, true); err != nil {
		return nil, err
	}
	if err := set("estimated_pay", p.EstimatedPay, false); err != nil {
		return nil, err
	}
	if err := set("location", p.Location, false); err != nil {
		return nil, err
	}
	if err := set("contact_note", p.ContactNote, false); err != nil {
		return nil, err
	}

	if p.Status != nil {
		if *p.Status != StatusActive && *p.Status != StatusInactive {
			return nil, &ValidationError{Field: "status", Reason: "owners may only set active or inactive"}
		}
		out["status"] = *p.Status
	}

	return out, nil
}

// Update applies an owner's patch inside one transaction so it cannot
// interleave with a verdict landing on the same row.
func (s *Service) Update(ctx context.Context, id, employerID uint64, p Patch) error {
	changes, err := p.changes()
	if err != nil {
		return err
	}
	if len(changes) == 0 {
		return nil
	}

	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var l Listing
		if err := tx.Where("id = ?", id).First(&l).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if l.EmployerID != employerID {
			return ErrForbidden
		}
		return tx.Model(&Listing{}).Where("id = ?", id).Updates(changes).Error
	})
}

// Delete removes an owner's listing and every dependent submission and
// renewal row in one transaction.
func (s *Service) Delete(ctx context.Context, id, employerID uint64) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var l Listing
		if err := tx.Where("id = ?", id).First(&l).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if l.EmployerID != employerID {
			return ErrForbidden
		}
		return deleteCascade(tx, id)
	})
}

// AdminDelete removes any listing regardless of owner.
func (s *Service) AdminDelete(ctx context.Context, id uint64) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var l Listing
		if err := tx.Select("id").Where("id = ?", id).First(&l).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		return deleteCascade(tx, id)
	})
}

// deleteCascade mirrors the ON DELETE CASCADE the schema declares, for
// drivers that do not enforce foreign keys.
func deleteCascade(tx *gorm.DB, id uint64) error {
	if err := tx.Where("listing_id = ?", id).Delete(&PaymentSubmission{}).Error; err != nil {
		return err
	}
	if err := tx.Where("listing_id = ?", id).Delete(&RenewalRequest{}).Error; err != nil {
		return err
	}
	return tx.Where("id = ?", id).Delete(&Listing{}).Error
}

// employerRow maps the columns of the users table this package reads
// for its public views.
type employerRow struct {
	ID    uint64
	Name  string
	Email string
	Phone *string
}

func (employerRow) TableName() string { return "users" }

// Detail is a single listing joined with its employer's contact data.
type Detail struct {
	Listing
	EmployerName  string `json:"employer_name"`
	EmployerPhone string `json:"employer_phone"`
	EmployerEmail string `json:"employer_email"`
}

func (s *Service) Get(ctx context.Context, id uint64) (*Detail, error) {
	var l Listing
	if err := s.DB.WithContext(ctx).Where("id = ?", id).First(&l).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var u employerRow
	if err := s.DB.WithContext(ctx).Where("id = ?", l.EmployerID).First(&u).Error; err != nil {
		return nil, err
	}

	d := Detail{Listing: l, EmployerName: u.Name, EmployerEmail: u.Email}
	if u.Phone != nil {
		d.EmployerPhone = *u.Phone
	}
	return &d, nil
}

type PageInput struct {
	Page     int
	Limit    int
	Category string
	Search   string
}

type Page struct {
	Listings   []Detail `json:"listings"`
	Page       int      `json:"page"`
	Limit      int      `json:"limit"`
	Total      int64    `json:"total"`
	TotalPages int      `json:"total_pages"`
}

// PublicList returns the active-listing page shown to job seekers.
func (s *Service) PublicList(ctx context.Context, in PageInput) (*Page, error) {
	if in.Page < 1 {
		in.Page = 1
	}
	if in.Limit < 1 || in.Limit > 100 {
		in.Limit = 10
	}

	base := func() *gorm.DB {
		q := s.DB.WithContext(ctx).Model(&Listing{}).Where("status = ?", StatusActive)
		if in.Category != "" {
			q = q.Where("category = ?", in.Category)
		}
		if in.Search != "" {
			term := "%" + strings.ToLower(in.Search) + "%"
			q = q.Where("(lower(title) LIKE ? OR lower(description) LIKE ? OR lower(location) LIKE ?)",
				term, term, term)
		}
		return q
	}

	var total int64
	if err := base().Count(&total).Error; err != nil {
		return nil, err
	}

	var rows []Listing
	if err := base().
		Order("created_at desc").
		Limit(in.Limit).
		Offset((in.Page - 1) * in.Limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}

	out := &Page{
		Listings:   make([]Detail, 0, len(rows)),
		Page:       in.Page,
		Limit:      in.Limit,
		Total:      total,
		TotalPages: int(math.Ceil(float64(total) / float64(in.Limit))),
	}

	// batch the employer lookups for the page
	contacts, err := s.employerContacts(ctx, rows)
	if err != nil {
		return nil, err
	}
	for _, l := range rows {
		d := Detail{Listing: l}
		if u, ok := contacts[l.EmployerID]; ok {
			d.EmployerName = u.Name
			d.EmployerEmail = u.Email
			if u.Phone != nil {
				d.EmployerPhone = *u.Phone
			}
		}
		out.Listings = append(out.Listings, d)
	}
	return out, nil
}

func (s *Service) employerContacts(ctx context.Context, rows []Listing) (map[uint64]employerRow, error) {
	ids := make([]uint64, 0, len(rows))
	seen := map[uint64]struct{}{}
	for _, l := range rows {
		if _, ok := seen[l.EmployerID]; ok {
			continue
		}
		seen[l.EmployerID] = struct{}{}
		ids = append(ids, l.EmployerID)
	}
	out := map[uint64]employerRow{}
	if len(ids) == 0 {
		return out, nil
	}
	var users []employerRow
	if err := s.DB.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, err
	}
	for _, u := range users {
		out[u.ID] = u
	}
	return out, nil
}

// Expiry levels for the owner's dashboard.
const (
	ExpiryNone     = "none"
	ExpiryExpired  = "expired"
	ExpiryCritical = "critical"
	ExpiryWarning  = "warning"
	ExpiryNormal   = "normal"
)

type OwnerRow struct {
	Listing
	DaysLeft    *int   `json:"days_left"`
	ExpiryLevel string `json:"expiry_level"`
}

// OwnerList returns the employer's own listings annotated with how
// close each one is to expiring.
func (s *Service) OwnerList(ctx context.Context, employerID uint64) ([]OwnerRow, error) {
	var rows []Listing
	if err := s.DB.WithContext(ctx).
		Where("employer_id = ?", employerID).
		Order("created_at desc").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	now := time.Now()
	out := make([]OwnerRow, 0, len(rows))
	for _, l := range rows {
		level, days := expiryLevel(l.ExpiresAt, now)
		out = append(out, OwnerRow{Listing: l, DaysLeft: days, ExpiryLevel: level})
	}
	return out, nil
}

func expiryLevel(expiresAt *time.Time, now time.Time) (string, *int) {
	if expiresAt == nil {
		return ExpiryNone, nil
	}
	days := int(expiresAt.Sub(now).Hours() / 24)
	switch {
	case expiresAt.Before(now):
		return ExpiryExpired, &days
	case days <= 1:
		return ExpiryCritical, &days
	case days <= 3:
		return ExpiryWarning, &days
	default:
		return ExpiryNormal, &days
	}
}

func trimOptional(v *string) *string {
	if v == nil {
		return nil
	}
	t := strings.TrimSpace(*v)
	if t == "" {
		return nil
	}
	return &t
}
