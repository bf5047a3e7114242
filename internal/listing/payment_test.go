package listing_test

import (
	"sync"
	"testing"

	"chamba/internal/listing"

	"github.com/stretchr/testify/require"
)

func TestPaymentVerifyPublishesListing(t *testing.T) {
	e := newEnv(t)
	owner := e.employer(t, "owner@test.pe")
	id := e.draft(t, owner.ID)

	subID, err := e.pay.Submit(t.Context(), id, owner.ID, "ABCD1234")
	require.NoError(t, err)

	require.Equal(t, listing.StatusPendingVerification, e.reload(t, id).Status)

	var sub listing.PaymentSubmission
	require.NoError(t, e.db.Where("id = ?", subID).First(&sub).Error)
	require.Equal(t, listing.ReviewPending, sub.Status)
	require.Equal(t, priceMinor, sub.AmountMinor, "price snapshotted at submission time")
	require.Equal(t, "ABCD1234", sub.OperationCode)
	require.Equal(t, listing.MethodYape, sub.Method)

	require.NoError(t, e.pay.Verdict(t.Context(), subID, listing.DecisionVerify, "checked against the app"))

	require.Equal(t, listing.StatusActive, e.reload(t, id).Status)
	require.NoError(t, e.db.Where("id = ?", subID).First(&sub).Error)
	require.Equal(t, listing.ReviewVerified, sub.Status)
	require.NotNil(t, sub.VerifiedAt)
	require.NotNil(t, sub.Notes)
}

func TestPaymentRejectAllowsResubmission(t *testing.T) {
	e := newEnv(t)
	owner := e.employer(t, "owner@test.pe")
	id := e.draft(t, owner.ID)

	subID, err := e.pay.Submit(t.Context(), id, owner.ID, "ABCD1234")
	require.NoError(t, err)

	require.NoError(t, e.pay.Verdict(t.Context(), subID, listing.DecisionReject, "code not found"))

	l := e.reload(t, id)
	require.Equal(t, listing.StatusDraftUnpaid, l.Status, "rejection returns the listing to draft")

	var sub listing.PaymentSubmission
	require.NoError(t, e.db.Where("id = ?", subID).First(&sub).Error)
	require.Equal(t, listing.ReviewRejected, sub.Status)

	// the employer can try again
	_, err = e.pay.Submit(t.Context(), id, owner.ID, "EFGH5678")
	require.NoError(t, err)
	require.Equal(t, listing.StatusPendingVerification, e.reload(t, id).Status)
}

func TestSubmitValidation(t *testing.T) {
	e := newEnv(t)
	owner := e.employer(t, "owner@test.pe")
	other := e.employer(t, "other@test.pe")
	id := e.draft(t, owner.ID)

	_, err := e.pay.Submit(t.Context(), id, owner.ID, " AB ")
	var ve *listing.ValidationError
	require.ErrorAs(t, err, &ve)
	require.Equal(t, "operation_code", ve.Field)

	_, err = e.pay.Submit(t.Context(), id, other.ID, "ABCD1234")
	require.ErrorIs(t, err, listing.ErrForbidden)

	_, err = e.pay.Submit(t.Context(), 99999, owner.ID, "ABCD1234")
	require.ErrorIs(t, err, listing.ErrNotFound)

	var count int64
	require.NoError(t, e.db.Model(&listing.PaymentSubmission{}).Count(&count).Error)
	require.Zero(t, count, "failed submits leave no rows")
}

func TestSecondSubmitFailsWithCurrentState(t *testing.T) {
	e := newEnv(t)
	owner := e.employer(t, "owner@test.pe")
	id := e.draft(t, owner.ID)

	_, err := e.pay.Submit(t.Context(), id, owner.ID, "ABCD1234")
	require.NoError(t, err)

	_, err = e.pay.Submit(t.Context(), id, owner.ID, "EFGH5678")
	var ise *listing.InvalidStateError
	require.ErrorAs(t, err, &ise)
	require.Equal(t, string(listing.StatusPendingVerification), ise.Current)

	var count int64
	require.NoError(t, e.db.Model(&listing.PaymentSubmission{}).Where("listing_id = ?", id).Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestConcurrentSubmitsHaveOneWinner(t *testing.T) {
	e := newEnv(t)
	owner := e.employer(t, "owner@test.pe")
	id := e.draft(t, owner.ID)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = e.pay.Submit(t.Context(), id, owner.ID, "ABCD1234")
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
		}
	}
	require.Equal(t, 1, wins, "exactly one submit succeeds")

	var count int64
	require.NoError(t, e.db.Model(&listing.PaymentSubmission{}).Where("listing_id = ?", id).Count(&count).Error)
	require.EqualValues(t, 1, count, "the loser's insert rolled back")
	require.Equal(t, listing.StatusPendingVerification, e.reload(t, id).Status)
}

func TestVerdictRequiresPendingSubmission(t *testing.T) {
	e := newEnv(t)
	owner := e.employer(t, "owner@test.pe")
	id := e.draft(t, owner.ID)

	subID, err := e.pay.Submit(t.Context(), id, owner.ID, "ABCD1234")
	require.NoError(t, err)
	require.NoError(t, e.pay.Verdict(t.Context(), subID, listing.DecisionVerify, ""))

	// a second verdict must not silently re-run the transition
	err = e.pay.Verdict(t.Context(), subID, listing.DecisionReject, "")
	var ise *listing.InvalidStateError
	require.ErrorAs(t, err, &ise)
	require.Equal(t, string(listing.ReviewVerified), ise.Current)
	require.Equal(t, listing.StatusActive, e.reload(t, id).Status)
}

func TestVerdictGuardsListingState(t *testing.T) {
	e := newEnv(t)
	owner := e.employer(t, "owner@test.pe")
	id := e.draft(t, owner.ID)

	subID, err := e.pay.Submit(t.Context(), id, owner.ID, "ABCD1234")
	require.NoError(t, err)

	// listing mutated behind the reconciler's back
	require.NoError(t, e.db.Model(&listing.Listing{}).Where("id = ?", id).
		Update("status", listing.StatusInactive).Error)

	err = e.pay.Verdict(t.Context(), subID, listing.DecisionVerify, "")
	var ise *listing.InvalidStateError
	require.ErrorAs(t, err, &ise)
	require.Equal(t, string(listing.StatusInactive), ise.Current)

	// the whole verdict rolled back, submission still pending
	var sub listing.PaymentSubmission
	require.NoError(t, e.db.Where("id = ?", subID).First(&sub).Error)
	require.Equal(t, listing.ReviewPending, sub.Status)
}

func TestVerdictDecisionValidated(t *testing.T) {
	e := newEnv(t)
	owner := e.employer(t, "owner@test.pe")
	id := e.draft(t, owner.ID)

	subID, err := e.pay.Submit(t.Context(), id, owner.ID, "ABCD1234")
	require.NoError(t, err)

	err = e.pay.Verdict(t.Context(), subID, listing.Decision("approve"), "")
	var ve *listing.ValidationError
	require.ErrorAs(t, err, &ve)
	require.Equal(t, "decision", ve.Field)
}

func TestPaymentStatusIsOwnerScoped(t *testing.T) {
	e := newEnv(t)
	owner := e.employer(t, "owner@test.pe")
	other := e.employer(t, "other@test.pe")
	id := e.draft(t, owner.ID)

	_, err := e.pay.Submit(t.Context(), id, owner.ID, "ABCD1234")
	require.NoError(t, err)

	st, err := e.pay.Status(t.Context(), id, owner.ID)
	require.NoError(t, err)
	require.Equal(t, listing.ReviewPending, st.Submission.Status)
	require.Equal(t, listing.StatusPendingVerification, st.ListingStatus)

	_, err = e.pay.Status(t.Context(), id, other.ID)
	require.ErrorIs(t, err, listing.ErrNotFound)
}

func TestPendingQueueJoinsListingAndEmployer(t *testing.T) {
	e := newEnv(t)
	owner := e.employer(t, "owner@test.pe")
	id := e.draft(t, owner.ID)

	_, err := e.pay.Submit(t.Context(), id, owner.ID, "ABCD1234")
	require.NoError(t, err)

	rows, err := e.pay.Pending(t.Context())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, "Bricklayer needed", rows[0].ListingTitle)
	require.Equal(t, "owner@test.pe", rows[0].EmployerEmail)
	require.Equal(t, priceMinor, rows[0].AmountMinor)
}
