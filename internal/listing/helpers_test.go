package listing_test

import (
	"path/filepath"
	"testing"

	"chamba/internal/auth"
	"chamba/internal/db"
	"chamba/internal/listing"
	"chamba/internal/payconfig"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// seeded price, see payconfig.Seed
const priceMinor = int64(1000)

type env struct {
	db      *gorm.DB
	svc     *listing.Service
	pay     *listing.PaymentService
	renew   *listing.RenewalService
	sweeper *listing.Sweeper
}

func newEnv(t *testing.T) *env {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "chamba.db") + "?_busy_timeout=5000"
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrateAndIndexes(gdb))

	settings := &payconfig.Store{DB: gdb}
	return &env{
		db:      gdb,
		svc:     &listing.Service{DB: gdb, Profiles: &auth.ProfileStore{DB: gdb}},
		pay:     &listing.PaymentService{DB: gdb, Pricing: settings},
		renew:   &listing.RenewalService{DB: gdb, Pricing: settings},
		sweeper: &listing.Sweeper{DB: gdb},
	}
}

func (e *env) user(t *testing.T, email string, role auth.Role, phone string) *auth.User {
	t.Helper()
	u := auth.User{Name: "Test User", Email: email, PasswordHash: "x", Role: role}
	if phone != "" {
		u.Phone = &phone
	}
	require.NoError(t, e.db.Create(&u).Error)
	return &u
}

func (e *env) employer(t *testing.T, email string) *auth.User {
	return e.user(t, email, auth.RoleEmployer, "987654321")
}

func (e *env) draft(t *testing.T, ownerID uint64) uint64 {
	t.Helper()
	id, err := e.svc.Create(t.Context(), ownerID, listing.CreateInput{
		Title:       "Bricklayer needed",
		Description: "Two weeks of wall work",
		Category:    "construction",
	})
	require.NoError(t, err)
	return id
}

func (e *env) reload(t *testing.T, id uint64) listing.Listing {
	t.Helper()
	var l listing.Listing
	require.NoError(t, e.db.Where("id = ?", id).First(&l).Error)
	return l
}
