package auth

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// ProfileStore resolves stored contact details. The listing core
// consumes it to fix a listing's contact phone at creation time.
type ProfileStore struct {
	DB *gorm.DB
}

// ContactPhone returns the user's phone, or "" if none is stored.
func (p *ProfileStore) ContactPhone(ctx context.Context, userID uint64) (string, error) {
	var u User
	err := p.DB.WithContext(ctx).Select("phone").Where("id = ?", userID).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", err
	}
	if u.Phone == nil {
		return "", nil
	}
	return *u.Phone, nil
}
