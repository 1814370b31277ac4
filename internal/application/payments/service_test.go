package payments

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"studio-backend/internal/application/bookings"
	"studio-backend/internal/domain"
	"studio-backend/internal/infrastructure/database"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeGateway struct {
	mu      sync.Mutex
	intents map[string]*Intent
	seq     int
	err     error
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{intents: map[string]*Intent{}}
}

func (g *fakeGateway) CreateIntent(_ context.Context, amountCents int64, currency string, metadata map[string]string) (*Intent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return nil, g.err
	}
	g.seq++
	id := fmt.Sprintf("pi_test_%d", g.seq)
	in := &Intent{ID: id, ClientSecret: id + "_secret", AmountCents: amountCents, Currency: currency,
		Status: "requires_payment_method", Metadata: metadata}
	g.intents[id] = in
	return in, nil
}

func (g *fakeGateway) RetrieveIntent(_ context.Context, id string) (*Intent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	in, ok := g.intents[id]
	if !ok {
		return nil, errors.New("No such payment_intent")
	}
	cp := *in
	return &cp, nil
}

func (g *fakeGateway) set(id, status string, received int64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.intents[id].Status = status
	g.intents[id].AmountReceived = received
}

func setup(t *testing.T) (*Service, *bookings.Service, *fakeGateway, *gorm.DB) {
	t.Helper()
	db, err := database.Open("sqlite::memory:")
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	t.Cleanup(func() { _ = database.Close(db) })
	b := bookings.NewService(bookings.NewGormStore(db), nil, 4, "")
	gw := newFakeGateway()
	return NewService(b, gw, "AUD"), b, gw, db
}

func createBooking(t *testing.T, b *bookings.Service, approve bool) uuid.UUID {
	t.Helper()
	month := "2025-08"
	total := decimal.RequireFromString("1234.50")
	res, err := b.CreateBooking(context.Background(), bookings.CreateBookingInput{
		ClientName: "Ada", ClientEmail: "ada@example.com", ProjectType: "business",
		BookingMonth: &month, TotalPrice: &total,
	})
	require.NoError(t, err)
	if approve {
		_, err = b.ApproveBooking(context.Background(), res.ProjectID)
		require.NoError(t, err)
	}
	return res.ProjectID
}

func TestCreateIntent_ApprovedBooking(t *testing.T) {
	svc, b, gw, db := setup(t)
	id := createBooking(t, b, true)

	res, err := svc.CreateIntent(context.Background(), id, "")
	require.NoError(t, err)
	assert.Equal(t, "pi_test_1", res.PaymentIntentID)
	assert.Equal(t, "pi_test_1_secret", res.ClientSecret)
	assert.Equal(t, "aud", res.Currency)

	in, _ := gw.RetrieveIntent(context.Background(), res.PaymentIntentID)
	assert.EqualValues(t, 123450, in.AmountCents)
	assert.Equal(t, id.String(), in.Metadata["project_id"])

	var p domain.Payment
	require.NoError(t, db.Where("gateway_reference = ?", "pi_test_1").First(&p).Error)
	assert.Equal(t, domain.PaymentPending, p.PaymentStatus)
	assert.True(t, p.Amount.Equal(decimal.RequireFromString("1234.50")))
}

func TestCreateIntent_RejectsUnapprovedBookings(t *testing.T) {
	svc, b, gw, _ := setup(t)
	pending := createBooking(t, b, false)

	_, err := svc.CreateIntent(context.Background(), pending, "")
	var ite *bookings.InvalidTransitionError
	require.True(t, errors.As(err, &ite))

	_, err = b.DeclineBooking(context.Background(), pending)
	require.NoError(t, err)
	_, err = svc.CreateIntent(context.Background(), pending, "")
	require.True(t, errors.As(err, &ite))
	assert.Empty(t, gw.intents, "declined bookings never reach the gateway")

	_, err = svc.CreateIntent(context.Background(), uuid.New(), "")
	assert.ErrorIs(t, err, bookings.ErrNotFound)
}

func TestCreateIntent_GatewayFailure(t *testing.T) {
	svc, b, gw, db := setup(t)
	id := createBooking(t, b, true)
	gw.err = errors.New("card_error")

	_, err := svc.CreateIntent(context.Background(), id, domain.MethodStripe)
	require.Error(t, err)
	var n int64
	require.NoError(t, db.Model(&domain.Payment{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestCreateIntent_OfflineMethodRejected(t *testing.T) {
	svc, b, _, _ := setup(t)
	id := createBooking(t, b, true)
	_, err := svc.CreateIntent(context.Background(), id, domain.MethodPaypal)
	var ve *bookings.ValidationError
	assert.True(t, errors.As(err, &ve))
}

func TestSyncIntent(t *testing.T) {
	svc, b, gw, _ := setup(t)
	id := createBooking(t, b, true)
	res, err := svc.CreateIntent(context.Background(), id, "")
	require.NoError(t, err)

	intent, rec, err := svc.SyncIntent(context.Background(), res.PaymentIntentID)
	require.NoError(t, err)
	assert.Equal(t, "requires_payment_method", intent.Status)
	assert.Nil(t, rec, "open intents record nothing")

	gw.set(res.PaymentIntentID, "succeeded", 123450)
	_, rec, err = svc.SyncIntent(context.Background(), res.PaymentIntentID)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, domain.PaymentCompleted, rec.Payment.PaymentStatus)
	assert.Equal(t, domain.StatusInProgress, rec.ProjectStatus)

	_, rec, err = svc.SyncIntent(context.Background(), res.PaymentIntentID)
	require.NoError(t, err)
	assert.True(t, rec.Replayed)
}

func TestRecordIntentOutcome_MissingMetadata(t *testing.T) {
	svc, _, _, _ := setup(t)
	_, err := svc.RecordIntentOutcome(context.Background(), &Intent{ID: "pi_x"}, domain.OutcomeSucceeded, nil)
	assert.ErrorIs(t, err, ErrUnknownIntent)
}

func TestOutcomeForIntent(t *testing.T) {
	cases := []struct {
		intent Intent
		want   domain.PaymentOutcome
		final  bool
	}{
		{Intent{Status: "succeeded"}, domain.OutcomeSucceeded, true},
		{Intent{Status: "canceled"}, domain.OutcomeCanceled, true},
		{Intent{Status: "requires_payment_method", LastPaymentFailed: true}, domain.OutcomeFailed, true},
		{Intent{Status: "requires_payment_method"}, "", false},
		{Intent{Status: "processing"}, "", false},
	}
	for _, tc := range cases {
		got, final := OutcomeForIntent(&tc.intent)
		assert.Equal(t, tc.want, got, tc.intent.Status)
		assert.Equal(t, tc.final, final, tc.intent.Status)
	}
}

func TestCents(t *testing.T) {
	assert.EqualValues(t, 50000, ToCents(decimal.NewFromInt(500)))
	assert.EqualValues(t, 1999, ToCents(decimal.RequireFromString("19.99")))
	assert.True(t, FromCents(123450).Equal(decimal.RequireFromString("1234.50")))
}

func TestStripeGateway_NotConfigured(t *testing.T) {
	g := NewStripeGateway("")
	assert.False(t, g.Configured())
	_, err := g.CreateIntent(context.Background(), 100, "aud", nil)
	assert.ErrorIs(t, err, ErrGatewayNotConfigured)
	_, err = g.RetrieveIntent(context.Background(), "pi_1")
	assert.ErrorIs(t, err, ErrGatewayNotConfigured)
}
