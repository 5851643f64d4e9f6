package services

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/pawaaan9/ictb-donations/config"
	apperrors "github.com/pawaaan9/ictb-donations/errors"
	"github.com/pawaaan9/ictb-donations/models"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v80"
	"go.uber.org/zap"
)

type mockGateway struct {
	createFn    func(ctx context.Context, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
	getFn       func(ctx context.Context, sessionID string) (*stripe.CheckoutSession, error)
	constructFn func(payload []byte, header string) (stripe.Event, error)
	createCalls int
}

func (m *mockGateway) CreateCheckoutSession(ctx context.Context, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	m.createCalls++
	if m.createFn != nil {
		return m.createFn(ctx, params)
	}
	return &stripe.CheckoutSession{ID: "cs_test_default"}, nil
}

func (m *mockGateway) GetCheckoutSession(ctx context.Context, sessionID string) (*stripe.CheckoutSession, error) {
	if m.getFn != nil {
		return m.getFn(ctx, sessionID)
	}
	return nil, errors.New("not implemented")
}

func (m *mockGateway) ConstructEvent(payload []byte, header string) (stripe.Event, error) {
	if m.constructFn != nil {
		return m.constructFn(payload, header)
	}
	return stripe.Event{}, errors.New("not implemented")
}

func newCheckout(gw StripeGateway) CheckoutService {
	return NewCheckoutService(gw, config.NewTestConfig().Stripe, nil, zap.NewNop())
}

func TestCreatePaymentSession_BuildsLineItems(t *testing.T) {
	var captured *stripe.CheckoutSessionParams
	gw := &mockGateway{createFn: func(_ context.Context, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
		captured = params
		return &stripe.CheckoutSession{ID: "cs_test_abc"}, nil
	}}

	req := &models.CreateSessionRequest{
		Items: []models.CartItem{
			{ID: "b1", Section: "North", Price: 10.005},
			{ID: "b2", Section: "South", Price: 1500},
			{ID: "b3", Section: "East", Price: 0.1},
		},
		Metadata: map[string]any{"donor": "Nimal", "totalBricks": "99", "campaign": 7},
	}

	id, err := newCheckout(gw).CreatePaymentSession(context.Background(), req, "https://ictb.lk")
	require.NoError(t, err)
	assert.Equal(t, "cs_test_abc", id)
	require.NotNil(t, captured)

	require.Len(t, captured.LineItems, 3)
	for i, item := range req.Items {
		li := captured.LineItems[i]
		assert.Equal(t, int64(1), *li.Quantity)
		assert.Equal(t, "lkr", *li.PriceData.Currency)
		assert.Equal(t, UnitAmount(item.Price), *li.PriceData.UnitAmount)
		assert.Equal(t, "Sacred Brick - "+item.Section, *li.PriceData.ProductData.Name)
		assert.Equal(t, "Sponsoring a brick in the "+item.Section+" section of the Sacred Chaithya", *li.PriceData.ProductData.Description)
	}
	assert.Equal(t, int64(150000), *captured.LineItems[1].PriceData.UnitAmount)
	assert.Equal(t, int64(10), *captured.LineItems[2].PriceData.UnitAmount)

	assert.Equal(t, "https://ictb.lk/success?session_id={CHECKOUT_SESSION_ID}", *captured.SuccessURL)
	assert.Equal(t, "https://ictb.lk", *captured.CancelURL)
	assert.Equal(t, "payment", *captured.Mode)
	assert.Equal(t, "required", *captured.BillingAddressCollection)
	assert.Equal(t, "LK", *captured.ShippingAddressCollection.AllowedCountries[0])
	require.Len(t, captured.CustomFields, 1)
	assert.Equal(t, "donor_message", *captured.CustomFields[0].Key)
	assert.True(t, *captured.CustomFields[0].Optional)

	wantMetadata := map[string]string{
		"donor":              "Nimal",
		"campaign":           "7",
		MetadataTotalBricks:  "3",
		MetadataBrickCount:   "3",
		MetadataDonationType: DonationType,
	}
	if diff := cmp.Diff(wantMetadata, captured.Metadata); diff != "" {
		t.Errorf("metadata mismatch (-want +got):\n%s", diff)
	}
}

func TestUnitAmount_Rounds(t *testing.T) {
	assert.Equal(t, int64(1999), UnitAmount(19.99))
	assert.Equal(t, int64(13), UnitAmount(0.125))
	assert.Equal(t, int64(100000), UnitAmount(1000))
}

func TestCreatePaymentSession_EmptyCartMakesNoCall(t *testing.T) {
	gw := &mockGateway{}
	svc := newCheckout(gw)

	for _, req := range []*models.CreateSessionRequest{nil, {}, {Items: []models.CartItem{}}} {
		_, err := svc.CreatePaymentSession(context.Background(), req, "http://localhost:3000")
		require.Error(t, err)
		assert.True(t, apperrors.IsInvalidRequest(err))
	}
	assert.Equal(t, 0, gw.createCalls)
}

func TestCreatePaymentSession_RejectsNonPositivePrice(t *testing.T) {
	gw := &mockGateway{}
	_, err := newCheckout(gw).CreatePaymentSession(context.Background(), &models.CreateSessionRequest{
		Items: []models.CartItem{{ID: "b1", Section: "North", Price: 0}},
	}, "http://localhost:3000")
	assert.True(t, apperrors.IsInvalidRequest(err))
	assert.Equal(t, 0, gw.createCalls)
}

func TestCreatePaymentSession_MissingSecretKey(t *testing.T) {
	gw := &mockGateway{}
	cfg := config.NewTestConfig().Stripe
	cfg.SecretKey = ""
	svc := NewCheckoutService(gw, cfg, nil, zap.NewNop())

	_, err := svc.CreatePaymentSession(context.Background(), &models.CreateSessionRequest{
		Items: []models.CartItem{{ID: "b1", Section: "North", Price: 10}},
	}, "http://localhost:3000")
	assert.True(t, apperrors.IsConfiguration(err))
	assert.Equal(t, 0, gw.createCalls)
}

func TestCreatePaymentSession_UpstreamFailure(t *testing.T) {
	cause := errors.New("card_declined")
	gw := &mockGateway{createFn: func(context.Context, *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
		return nil, cause
	}}

	_, err := newCheckout(gw).CreatePaymentSession(context.Background(), &models.CreateSessionRequest{
		Items: []models.CartItem{{ID: "b1", Section: "North", Price: 10}},
	}, "http://localhost:3000")
	assert.True(t, apperrors.IsUpstream(err))
	assert.ErrorIs(t, err, cause)
}

func TestVerifyPayment(t *testing.T) {
	gw := &mockGateway{getFn: func(_ context.Context, id string) (*stripe.CheckoutSession, error) {
		return &stripe.CheckoutSession{
			ID:              id,
			PaymentStatus:   stripe.CheckoutSessionPaymentStatusPaid,
			AmountTotal:     250000,
			Currency:        stripe.CurrencyLKR,
			CustomerDetails: &stripe.CheckoutSessionCustomerDetails{Email: "donor@example.com"},
			Metadata:        map[string]string{"brickCount": "2"},
			Created:         1700000000,
		}, nil
	}}

	v, err := newCheckout(gw).VerifyPayment(context.Background(), "cs_test_paid")
	require.NoError(t, err)
	assert.Equal(t, &models.PaymentVerification{
		SessionID:     "cs_test_paid",
		PaymentStatus: models.PaymentStatusPaid,
		AmountTotal:   250000,
		Currency:      "lkr",
		CustomerEmail: "donor@example.com",
		Metadata:      map[string]string{"brickCount": "2"},
		Created:       1700000000,
	}, v)
}

func TestVerifyPayment_Errors(t *testing.T) {
	gw := &mockGateway{getFn: func(context.Context, string) (*stripe.CheckoutSession, error) {
		return nil, &stripe.Error{HTTPStatusCode: http.StatusNotFound, Msg: "No such checkout.session"}
	}}
	svc := newCheckout(gw)

	_, err := svc.VerifyPayment(context.Background(), "")
	assert.True(t, apperrors.IsInvalidRequest(err))

	_, err = svc.VerifyPayment(context.Background(), "cs_missing")
	assert.True(t, apperrors.IsUpstream(err))
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, "Failed to verify payment session", appErr.Message)
}

func TestNormalizeUnknownPaymentStatus(t *testing.T) {
	gw := &mockGateway{getFn: func(_ context.Context, id string) (*stripe.CheckoutSession, error) {
		return &stripe.CheckoutSession{ID: id, PaymentStatus: "something_new"}, nil
	}}

	v, err := newCheckout(gw).VerifyPayment(context.Background(), "cs_x")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusOther, v.PaymentStatus)
	assert.Empty(t, v.CustomerEmail)
	assert.NotNil(t, v.Metadata)
}
