package auth

import "time"

type Role string

const (
	RoleEmployer Role = "employer"
	RoleWorker   Role = "worker"
	RoleAdmin    Role = "admin"
)

// Employer identity documents. DNI is the 8-digit national id, RUC the
// 11-digit tax id.
const (
	DocumentDNI = "DNI"
	DocumentRUC = "RUC"
)

type User struct {
	ID           uint64 `gorm:"primaryKey" json:"id"`
	Name         string `gorm:"not null" json:"name"`
	Email        string `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string `gorm:"not null" json:"-"`
	Role         Role   `gorm:"index;not null" json:"role"`

	Phone *string `json:"phone"`

	// Document fields are required for employers, absent otherwise.
	DocumentType   *string `json:"document_type"`
	DocumentNumber *string `gorm:"index" json:"document_number"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}
