// Package payconfig is the read-only settings store the payment flow
// consults: the listing price and the out-of-band payment channel
// details shown to employers. Nothing in the core mutates it.
package payconfig

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"gorm.io/gorm"
)

type Setting struct {
	ID    uint64 `gorm:"primaryKey"`
	Name  string `gorm:"uniqueIndex;not null"`
	Value string `gorm:"not null"`
}

const (
	KeyListingPriceMinor = "listing_price_minor"
	KeyPaymentPhone      = "payment_phone"
	KeyPaymentName       = "payment_name"
)

type Store struct {
	DB *gorm.DB
}

func (s *Store) get(ctx context.Context, name string) (string, error) {
	var row Setting
	err := s.DB.WithContext(ctx).Where("name = ?", name).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", fmt.Errorf("setting %q not seeded", name)
		}
		return "", err
	}
	return row.Value, nil
}

// PriceMinor is the current listing price in minor units.
func (s *Store) PriceMinor(ctx context.Context) (int64, error) {
	v, err := s.get(ctx, KeyListingPriceMinor)
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("setting %q: %w", KeyListingPriceMinor, err)
	}
	return n, nil
}

// Channel is what an employer needs to pay out of band.
type Channel struct {
	PriceMinor   int64  `json:"price_minor"`
	PaymentPhone string `json:"payment_phone"`
	PaymentName  string `json:"payment_name"`
}

func (s *Store) Channel(ctx context.Context) (*Channel, error) {
	price, err := s.PriceMinor(ctx)
	if err != nil {
		return nil, err
	}
	phone, err := s.get(ctx, KeyPaymentPhone)
	if err != nil {
		return nil, err
	}
	name, err := s.get(ctx, KeyPaymentName)
	if err != nil {
		return nil, err
	}
	return &Channel{PriceMinor: price, PaymentPhone: phone, PaymentName: name}, nil
}

// Seed inserts default settings where missing. Values already present
// are left alone.
func Seed(gdb *gorm.DB) error {
	defaults := []Setting{
		{Name: KeyListingPriceMinor, Value: "1000"}, // S/ 10.00
		{Name: KeyPaymentPhone, Value: "999999999"},
		{Name: KeyPaymentName, Value: "Chamba"},
	}
	for _, d := range defaults {
		if err := gdb.Where(Setting{Name: d.Name}).FirstOrCreate(&d).Error; err != nil {
			return err
		}
	}
	return nil
}
