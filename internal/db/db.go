package db

import (
	"fmt"

	"chamba/internal/auth"
	"chamba/internal/jobs"
	"chamba/internal/listing"
	"chamba/internal/payconfig"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func Connect(dsn string) (*gorm.DB, error) {
	// TranslateError turns driver unique-violation errors into
	// gorm.ErrDuplicatedKey so handlers can tell conflicts from outages.
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, err
	}
	return gdb, nil
}

func AutoMigrateAndIndexes(gdb *gorm.DB) error {
	// Tables
	if err := gdb.AutoMigrate(
		&auth.User{},
		&payconfig.Setting{},
		&listing.Listing{},
		&listing.PaymentSubmission{},
		&listing.RenewalRequest{},
		&jobs.Job{},
	); err != nil {
		return err
	}

	// Money reconciles to exactly one listing: at most one pending
	// submission per listing, whatever the application layer does.
	if err := gdb.Exec(`
create unique index if not exists uq_payment_pending
on payment_submissions(listing_id)
where status = 'pending';
`).Error; err != nil {
		return err
	}

	// Helpful indexes
	stmts := []string{
		`create index if not exists idx_listings_sweep on listings(status, expires_at);`,
		`create index if not exists idx_listings_public on listings(status, category, created_at desc);`,
		`create index if not exists idx_payments_listing on payment_submissions(listing_id, id desc);`,
		`create index if not exists idx_renewals_pending on renewal_requests(status, requested_at desc);`,
		`create index if not exists idx_jobs_due on jobs(status, run_at);`,
		`create index if not exists idx_jobs_lock on jobs(status, locked_at);`,
	}
	for _, s := range stmts {
		if err := gdb.Exec(s).Error; err != nil {
			return fmt.Errorf("index exec failed: %w (sql=%s)", err, s)
		}
	}

	return payconfig.Seed(gdb)
}
