package listing_test

import (
	"testing"
	"time"

	"chamba/internal/listing"

	"github.com/stretchr/testify/require"
)

func (e *env) activeWithExpiry(t *testing.T, ownerID uint64, exp time.Time) uint64 {
	t.Helper()
	l := listing.Listing{
		EmployerID:   ownerID,
		Title:        "Delivery driver",
		Description:  "Own motorbike required",
		Category:     "delivery",
		ContactPhone: "987654321",
		Status:       listing.StatusActive,
		ExpiresAt:    &exp,
	}
	require.NoError(t, e.db.Create(&l).Error)
	return l.ID
}

func TestRenewalExtendsFromFutureExpiration(t *testing.T) {
	e := newEnv(t)
	owner := e.employer(t, "owner@test.pe")

	exp := time.Now().Add(24 * time.Hour)
	id := e.activeWithExpiry(t, owner.ID, exp)

	req, err := e.renew.Request(t.Context(), id, owner.ID, "REN1234")
	require.NoError(t, err)
	require.WithinDuration(t, exp.Add(7*24*time.Hour), req.NewExpiresAt, time.Minute,
		"extends from the remaining expiration, not from now")
	require.Equal(t, priceMinor, req.AmountMinor)

	// request alone must not touch the listing
	l := e.reload(t, id)
	require.Equal(t, listing.StatusActive, l.Status)
	require.WithinDuration(t, exp, *l.ExpiresAt, time.Second)

	require.NoError(t, e.renew.Verdict(t.Context(), req.ID, listing.DecisionVerify, ""))

	l = e.reload(t, id)
	require.Equal(t, listing.StatusActive, l.Status)
	require.WithinDuration(t, exp.Add(7*24*time.Hour), *l.ExpiresAt, time.Minute)
}

func TestRenewalReactivatesLapsedListing(t *testing.T) {
	e := newEnv(t)
	owner := e.employer(t, "owner@test.pe")

	exp := time.Now().Add(-3 * 24 * time.Hour)
	id := e.activeWithExpiry(t, owner.ID, exp)
	require.NoError(t, e.db.Model(&listing.Listing{}).Where("id = ?", id).
		Update("status", listing.StatusInactive).Error)

	req, err := e.renew.Request(t.Context(), id, owner.ID, "REN1234")
	require.NoError(t, err)
	require.WithinDuration(t, time.Now().Add(7*24*time.Hour), req.NewExpiresAt, time.Minute,
		"lapsed expiration extends from now")

	require.NoError(t, e.renew.Verdict(t.Context(), req.ID, listing.DecisionVerify, ""))

	l := e.reload(t, id)
	require.Equal(t, listing.StatusActive, l.Status, "verified renewal forces the listing active")
	require.WithinDuration(t, req.NewExpiresAt, *l.ExpiresAt, time.Second)
}

func TestRenewalOwnershipChecks(t *testing.T) {
	e := newEnv(t)
	owner := e.employer(t, "owner@test.pe")
	other := e.employer(t, "other@test.pe")
	id := e.activeWithExpiry(t, owner.ID, time.Now().Add(24*time.Hour))

	_, err := e.renew.Request(t.Context(), id, other.ID, "REN1234")
	require.ErrorIs(t, err, listing.ErrForbidden)

	_, err = e.renew.Request(t.Context(), 99999, owner.ID, "REN1234")
	require.ErrorIs(t, err, listing.ErrNotFound)
}

func TestRenewalRejectLeavesListingUntouched(t *testing.T) {
	e := newEnv(t)
	owner := e.employer(t, "owner@test.pe")

	exp := time.Now().Add(24 * time.Hour)
	id := e.activeWithExpiry(t, owner.ID, exp)

	req, err := e.renew.Request(t.Context(), id, owner.ID, "REN1234")
	require.NoError(t, err)

	require.NoError(t, e.renew.Verdict(t.Context(), req.ID, listing.DecisionReject, "code unknown"))

	l := e.reload(t, id)
	require.Equal(t, listing.StatusActive, l.Status)
	require.WithinDuration(t, exp, *l.ExpiresAt, time.Second)

	var ren listing.RenewalRequest
	require.NoError(t, e.db.Where("id = ?", req.ID).First(&ren).Error)
	require.Equal(t, listing.ReviewRejected, ren.Status)
	require.NotNil(t, ren.VerifiedAt)
}

// Multiple pending renewals for one listing are allowed; whichever
// verdict lands last wins. This pins the chosen semantics.
func TestRenewalLastVerdictWins(t *testing.T) {
	e := newEnv(t)
	owner := e.employer(t, "owner@test.pe")

	exp := time.Now().Add(24 * time.Hour)
	id := e.activeWithExpiry(t, owner.ID, exp)

	first, err := e.renew.Request(t.Context(), id, owner.ID, "REN0001")
	require.NoError(t, err)
	second, err := e.renew.Request(t.Context(), id, owner.ID, "REN0002")
	require.NoError(t, err)

	require.NoError(t, e.renew.Verdict(t.Context(), second.ID, listing.DecisionVerify, ""))
	require.NoError(t, e.renew.Verdict(t.Context(), first.ID, listing.DecisionVerify, ""))

	l := e.reload(t, id)
	require.WithinDuration(t, first.NewExpiresAt, *l.ExpiresAt, time.Second,
		"the later verdict overwrites the earlier one")
}

func TestRenewalVerdictRequiresPendingRequest(t *testing.T) {
	e := newEnv(t)
	owner := e.employer(t, "owner@test.pe")
	id := e.activeWithExpiry(t, owner.ID, time.Now().Add(24*time.Hour))

	req, err := e.renew.Request(t.Context(), id, owner.ID, "REN1234")
	require.NoError(t, err)
	require.NoError(t, e.renew.Verdict(t.Context(), req.ID, listing.DecisionVerify, ""))

	err = e.renew.Verdict(t.Context(), req.ID, listing.DecisionVerify, "")
	var ise *listing.InvalidStateError
	require.ErrorAs(t, err, &ise)
	require.Equal(t, string(listing.ReviewVerified), ise.Current)
}

// A renewal may be verified while the listing still sits in
// pending_verification. The verdict force-activates it, and the
// stranded payment submission's verdict then fails on the listing-state
// guard instead of silently re-running the activation.
func TestRenewalVerdictDuringPaymentVerification(t *testing.T) {
	e := newEnv(t)
	owner := e.employer(t, "owner@test.pe")
	id := e.draft(t, owner.ID)

	subID, err := e.pay.Submit(t.Context(), id, owner.ID, "ABCD1234")
	require.NoError(t, err)

	req, err := e.renew.Request(t.Context(), id, owner.ID, "REN1234")
	require.NoError(t, err)
	require.NoError(t, e.renew.Verdict(t.Context(), req.ID, listing.DecisionVerify, ""))

	l := e.reload(t, id)
	require.Equal(t, listing.StatusActive, l.Status)
	require.WithinDuration(t, req.NewExpiresAt, *l.ExpiresAt, time.Second)

	err = e.pay.Verdict(t.Context(), subID, listing.DecisionVerify, "")
	var ise *listing.InvalidStateError
	require.ErrorAs(t, err, &ise)
	require.Equal(t, string(listing.StatusActive), ise.Current)

	var sub listing.PaymentSubmission
	require.NoError(t, e.db.Where("id = ?", subID).First(&sub).Error)
	require.Equal(t, listing.ReviewPending, sub.Status, "failed verdict rolled back")
}

func TestRenewalPendingQueue(t *testing.T) {
	e := newEnv(t)
	owner := e.employer(t, "owner@test.pe")
	id := e.activeWithExpiry(t, owner.ID, time.Now().Add(24*time.Hour))

	req, err := e.renew.Request(t.Context(), id, owner.ID, "REN1234")
	require.NoError(t, err)

	rows, err := e.renew.Pending(t.Context())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, req.ID, rows[0].ID)
	require.Equal(t, "Delivery driver", rows[0].ListingTitle)
	require.Equal(t, "owner@test.pe", rows[0].EmployerEmail)
}
