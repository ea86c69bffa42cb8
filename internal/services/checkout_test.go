package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/gramtop961/frontend-repo-h3cay28k-qxicje/internal/apiclient"
	"github.com/gramtop961/frontend-repo-h3cay28k-qxicje/internal/fakeapi"
	"github.com/gramtop961/frontend-repo-h3cay28k-qxicje/internal/logger"
	"github.com/gramtop961/frontend-repo-h3cay28k-qxicje/internal/models"
	"github.com/gramtop961/frontend-repo-h3cay28k-qxicje/internal/repositories"
	"github.com/gramtop961/frontend-repo-h3cay28k-qxicje/internal/storage"
)

const testSession = "sess-1"

// countingCarts records how often the cart is cleared
type countingCarts struct {
	CartStore
	clears int
}

func (c *countingCarts) ClearCart(ctx context.Context, sessionID string) error {
	c.clears++
	return c.CartStore.ClearCart(ctx, sessionID)
}

type checkoutFixture struct {
	api     *fakeapi.Server
	client  *apiclient.Client
	creds   *repositories.CredentialRepository
	carts   *countingCarts
	records *repositories.CheckoutRepository
	svc     *CheckoutService
}

func newCheckoutFixture(t *testing.T) *checkoutFixture {
	t.Helper()

	api := fakeapi.New(fakeapi.Options{ServiceFeeBasisPoints: 750, Seed: true}, logger.Discard())
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	client := apiclient.New(apiclient.Config{BaseURL: srv.URL}, logger.Discard())
	backend := storage.NewMemoryBackend(time.Hour)

	f := &checkoutFixture{
		api:     api,
		client:  client,
		creds:   repositories.NewCredentialRepository(backend),
		carts:   &countingCarts{CartStore: repositories.NewCartRepository(backend)},
		records: repositories.NewCheckoutRepository(backend),
	}
	f.svc = NewCheckoutService(client, f.creds, f.carts, f.records, fakeapi.PaymentProviderTest, logger.Discard())
	return f
}

func (f *checkoutFixture) login(t *testing.T) string {
	t.Helper()
	token, err := f.api.IssueToken("jane@example.com")
	require.NoError(t, err)
	require.NoError(t, f.creds.SetCredential(context.Background(), testSession, token))
	return token
}

func (f *checkoutFixture) setCart(t *testing.T, items ...models.CartItem) {
	t.Helper()
	require.NoError(t, f.carts.SetCart(context.Background(), testSession, items))
}

func (f *checkoutFixture) record(t *testing.T) *models.CheckoutRecord {
	t.Helper()
	rec, err := f.records.Get(context.Background(), testSession)
	require.NoError(t, err)
	return rec
}

func (f *checkoutFixture) cart(t *testing.T) models.Cart {
	t.Helper()
	cart, err := f.carts.GetCart(context.Background(), testSession)
	require.NoError(t, err)
	return cart
}

func twoGA() models.CartItem {
	return models.CartItem{TicketTypeID: "tt1", Quantity: 2}
}

func TestCheckout_EmptyCartStaysIdle(t *testing.T) {
	f := newCheckoutFixture(t)

	view, err := f.svc.Open(context.Background(), testSession)
	require.NoError(t, err)

	assert.Equal(t, models.CheckoutIdle, view.State)
	assert.Nil(t, view.Quote)
	assert.False(t, view.CanPay)
	assert.Zero(t, f.api.Calls(fakeapi.EndpointPriceCheck))

	view, err = f.svc.Pay(context.Background(), testSession)
	require.NoError(t, err)
	assert.Equal(t, models.CheckoutIdle, view.State)
	assert.Zero(t, f.api.Calls(fakeapi.EndpointCreateOrder))
}

func TestCheckout_OpenPricesCart(t *testing.T) {
	f := newCheckoutFixture(t)
	f.setCart(t, twoGA())

	view, err := f.svc.Open(context.Background(), testSession)
	require.NoError(t, err)

	assert.Equal(t, models.CheckoutPriced, view.State)
	require.NotNil(t, view.Quote)
	assert.Equal(t, 4000, view.Quote.SubtotalCents)
	assert.Equal(t, 300, view.Quote.ServiceFeeCents)
	assert.Equal(t, 4300, view.Quote.TotalCents)
	assert.Equal(t, "$43.00", view.Quote.Total)
	assert.True(t, view.CanPay)
	assert.Equal(t, []models.CartItem{twoGA()}, view.Items)
	assert.Equal(t, 1, f.api.Calls(fakeapi.EndpointPriceCheck))
}

func TestCheckout_PriceCheckIsRepeatable(t *testing.T) {
	f := newCheckoutFixture(t)
	f.setCart(t, twoGA(), models.CartItem{TicketTypeID: "tt4", Quantity: 10})

	first, err := f.svc.Open(context.Background(), testSession)
	require.NoError(t, err)
	second, err := f.svc.Open(context.Background(), testSession)
	require.NoError(t, err)

	require.NotNil(t, first.Quote)
	require.NotNil(t, second.Quote)
	assert.Equal(t, first.Quote.TotalCents, second.Quote.TotalCents)
	assert.Equal(t, first.Quote.TotalCents, first.Quote.SubtotalCents+first.Quote.ServiceFeeCents)
	assert.Equal(t, 2, f.api.Calls(fakeapi.EndpointPriceCheck))
}

func TestCheckout_PayWithoutCredentialSendsNothing(t *testing.T) {
	f := newCheckoutFixture(t)
	f.setCart(t, twoGA())

	_, err := f.svc.Open(context.Background(), testSession)
	require.NoError(t, err)

	view, err := f.svc.Pay(context.Background(), testSession)
	require.NoError(t, err)

	assert.Equal(t, models.OutcomeAuthRequired, view.Outcome)
	assert.Equal(t, RedirectLogin, view.Redirect)
	assert.Equal(t, models.CheckoutPriced, view.State)
	assert.Zero(t, f.api.Calls(fakeapi.EndpointCreateOrder))
	assert.Zero(t, f.api.Calls(fakeapi.EndpointConfirmOrder))
}

func TestCheckout_PayPlacesAndConfirms(t *testing.T) {
	f := newCheckoutFixture(t)
	token := f.login(t)
	f.setCart(t, twoGA())

	_, err := f.svc.Open(context.Background(), testSession)
	require.NoError(t, err)

	view, err := f.svc.Pay(context.Background(), testSession)
	require.NoError(t, err)

	assert.Equal(t, models.CheckoutConfirmed, view.State)
	assert.Equal(t, models.OutcomeConfirmed, view.Outcome)
	assert.Equal(t, RedirectTickets, view.Redirect)
	assert.NotEmpty(t, view.OrderID)
	assert.Equal(t, []models.CartItem{twoGA()}, view.Items)

	assert.Equal(t, 1, f.api.Calls(fakeapi.EndpointCreateOrder))
	assert.Equal(t, 1, f.api.Calls(fakeapi.EndpointConfirmOrder))
	assert.True(t, f.cart(t).IsEmpty())
	assert.Equal(t, 1, f.carts.clears)

	order, ok := f.api.Order(view.OrderID)
	require.True(t, ok)
	assert.True(t, order.IsConfirmed())

	tickets, err := f.client.MyTickets(context.Background(), token)
	require.NoError(t, err)
	assert.Len(t, tickets, 2)
}

func TestCheckout_StaleQuoteIsRepricedBeforePlacing(t *testing.T) {
	f := newCheckoutFixture(t)
	f.login(t)
	f.setCart(t, twoGA())

	_, err := f.svc.Open(context.Background(), testSession)
	require.NoError(t, err)

	f.setCart(t, models.CartItem{TicketTypeID: "tt1", Quantity: 3})

	status, err := f.svc.Status(context.Background(), testSession)
	require.NoError(t, err)
	assert.False(t, status.CanPay)

	view, err := f.svc.Pay(context.Background(), testSession)
	require.NoError(t, err)

	assert.Equal(t, models.OutcomeRepriced, view.Outcome)
	assert.Equal(t, models.CheckoutPriced, view.State)
	assert.Equal(t, "$64.50", view.Quote.Total)
	assert.Equal(t, 2, f.api.Calls(fakeapi.EndpointPriceCheck))
	assert.Zero(t, f.api.Calls(fakeapi.EndpointCreateOrder))

	view, err = f.svc.Pay(context.Background(), testSession)
	require.NoError(t, err)
	assert.Equal(t, models.CheckoutConfirmed, view.State)
	assert.Equal(t, 1, f.api.Calls(fakeapi.EndpointCreateOrder))
}

func TestCheckout_StrandedOrderOffersResumeNotPlacing(t *testing.T) {
	f := newCheckoutFixture(t)
	token := f.login(t)
	f.setCart(t, twoGA())
	ctx := context.Background()

	_, err := f.svc.Open(ctx, testSession)
	require.NoError(t, err)

	// placement succeeded, then the user navigated away before confirming
	order, err := f.client.CreateOrder(ctx, token, models.OrderRequest{
		Items:           []models.CartItem{twoGA()},
		PaymentProvider: fakeapi.PaymentProviderTest,
	}, "key-1")
	require.NoError(t, err)

	rec := f.record(t)
	rec.State = models.CheckoutPlaced
	rec.OrderID = order.ID
	rec.IdemKey = "key-1"
	require.NoError(t, f.records.Save(ctx, testSession, rec))
	f.api.ResetCalls()

	view, err := f.svc.Open(ctx, testSession)
	require.NoError(t, err)

	assert.Equal(t, models.OutcomeResumable, view.Outcome)
	assert.Equal(t, models.CheckoutPlaced, view.State)
	assert.Equal(t, order.ID, view.OrderID)
	assert.True(t, view.CanResume)
	assert.True(t, view.CanAbandon)
	assert.False(t, view.CanPay)
	assert.Zero(t, f.api.Calls(fakeapi.EndpointPriceCheck))
	assert.Zero(t, f.api.Calls(fakeapi.EndpointCreateOrder))

	// pay on a held order confirms it rather than placing again
	view, err = f.svc.Pay(ctx, testSession)
	require.NoError(t, err)
	assert.Equal(t, models.CheckoutConfirmed, view.State)
	assert.Zero(t, f.api.Calls(fakeapi.EndpointCreateOrder))
	assert.Equal(t, 1, f.api.Calls(fakeapi.EndpointConfirmOrder))
	assert.Equal(t, 1, f.api.OrderCount())
}

func TestCheckout_InterruptedConfirmIsResumable(t *testing.T) {
	f := newCheckoutFixture(t)
	f.login(t)
	f.setCart(t, twoGA())
	ctx := context.Background()

	_, err := f.svc.Open(ctx, testSession)
	require.NoError(t, err)

	rec := f.record(t)
	rec.State = models.CheckoutConfirming
	rec.OrderID = "o1"
	require.NoError(t, f.records.Save(ctx, testSession, rec))

	view, err := f.svc.Open(ctx, testSession)
	require.NoError(t, err)
	assert.Equal(t, models.CheckoutPlaced, view.State)
	assert.Equal(t, models.OutcomeResumable, view.Outcome)
	assert.Equal(t, "o1", view.OrderID)
}

func TestCheckout_ConfirmFailsOnceThenRetrySucceeds(t *testing.T) {
	f := newCheckoutFixture(t)
	f.login(t)
	f.setCart(t, twoGA())
	ctx := context.Background()

	_, err := f.svc.Open(ctx, testSession)
	require.NoError(t, err)

	f.api.FailNext(fakeapi.EndpointConfirmOrder, http.StatusServiceUnavailable, "")

	view, err := f.svc.Pay(ctx, testSession)
	require.NoError(t, err)
	assert.Equal(t, models.CheckoutErrored, view.State)
	assert.Equal(t, models.StepConfirming, view.FailedStep)
	assert.Equal(t, models.OutcomeFailed, view.Outcome)
	assert.Equal(t, "server_error", view.ErrorCode)
	assert.True(t, view.CanRetry)
	assert.True(t, view.CanResume)
	assert.NotEmpty(t, view.OrderID)
	assert.Zero(t, f.carts.clears)
	assert.False(t, f.cart(t).IsEmpty())

	orderID := view.OrderID

	view, err = f.svc.Retry(ctx, testSession)
	require.NoError(t, err)
	assert.Equal(t, models.CheckoutConfirmed, view.State)
	assert.Equal(t, orderID, view.OrderID)

	assert.Equal(t, 1, f.api.Calls(fakeapi.EndpointCreateOrder))
	assert.Equal(t, 2, f.api.Calls(fakeapi.EndpointConfirmOrder))
	assert.Equal(t, 1, f.carts.clears)
	assert.True(t, f.cart(t).IsEmpty())
}

func TestCheckout_RetryKeepsCartReplacedWhileOrderHeld(t *testing.T) {
	f := newCheckoutFixture(t)
	f.login(t)
	f.setCart(t, twoGA())
	ctx := context.Background()

	_, err := f.svc.Open(ctx, testSession)
	require.NoError(t, err)

	f.api.FailNext(fakeapi.EndpointConfirmOrder, http.StatusServiceUnavailable, "")
	view, err := f.svc.Pay(ctx, testSession)
	require.NoError(t, err)
	require.Equal(t, models.CheckoutErrored, view.State)
	orderID := view.OrderID

	next := models.CartItem{TicketTypeID: "tt2", Quantity: 1}
	f.setCart(t, next)

	view, err = f.svc.Retry(ctx, testSession)
	require.NoError(t, err)
	assert.Equal(t, models.CheckoutConfirmed, view.State)
	assert.Equal(t, orderID, view.OrderID)
	assert.Equal(t, []models.CartItem{twoGA()}, view.Items)

	assert.Zero(t, f.carts.clears)
	assert.Equal(t, []models.CartItem{next}, f.cart(t).Items)
	assert.Equal(t, orderID, f.record(t).ClearedFor)

	// Confirming again does not revisit the cart
	_, err = f.svc.Confirm(ctx, testSession)
	require.NoError(t, err)
	assert.Equal(t, []models.CartItem{next}, f.cart(t).Items)

	view, err = f.svc.Open(ctx, testSession)
	require.NoError(t, err)
	assert.Equal(t, models.CheckoutPriced, view.State)
	assert.Empty(t, view.OrderID)
	assert.Equal(t, []models.CartItem{next}, view.Items)
	assert.Equal(t, 1, f.api.Calls(fakeapi.EndpointCreateOrder))
}

func TestCheckout_ConfirmTwiceIsSafe(t *testing.T) {
	f := newCheckoutFixture(t)
	f.login(t)
	f.setCart(t, twoGA())
	ctx := context.Background()

	_, err := f.svc.Open(ctx, testSession)
	require.NoError(t, err)
	first, err := f.svc.Pay(ctx, testSession)
	require.NoError(t, err)
	require.Equal(t, models.CheckoutConfirmed, first.State)

	second, err := f.svc.Confirm(ctx, testSession)
	require.NoError(t, err)
	assert.Equal(t, models.CheckoutConfirmed, second.State)
	assert.Equal(t, models.OutcomeConfirmed, second.Outcome)
	assert.Empty(t, second.Error)
	assert.Equal(t, first.OrderID, second.OrderID)

	third, err := f.svc.Pay(ctx, testSession)
	require.NoError(t, err)
	assert.Equal(t, models.CheckoutConfirmed, third.State)

	assert.Equal(t, 1, f.api.Calls(fakeapi.EndpointConfirmOrder))
	assert.Equal(t, 1, f.carts.clears)
}

func TestCheckout_ServerSideAlreadyConfirmedCountsAsSuccess(t *testing.T) {
	f := newCheckoutFixture(t)
	token := f.login(t)
	f.setCart(t, twoGA())
	ctx := context.Background()

	_, err := f.svc.Open(ctx, testSession)
	require.NoError(t, err)

	order, err := f.client.CreateOrder(ctx, token, models.OrderRequest{
		Items:           []models.CartItem{twoGA()},
		PaymentProvider: fakeapi.PaymentProviderTest,
	}, "key-2")
	require.NoError(t, err)
	_, err = f.client.ConfirmOrder(ctx, token, order.ID)
	require.NoError(t, err)

	// the confirm response was lost before it was recorded
	rec := f.record(t)
	rec.State = models.CheckoutErrored
	rec.FailedStep = models.StepConfirming
	rec.OrderID = order.ID
	require.NoError(t, f.records.Save(ctx, testSession, rec))

	view, err := f.svc.Confirm(ctx, testSession)
	require.NoError(t, err)
	assert.Equal(t, models.CheckoutConfirmed, view.State)
	assert.Empty(t, view.Error)
	assert.Equal(t, 1, f.carts.clears)
}

func TestCheckout_SoldOutIsPlacingFailure(t *testing.T) {
	f := newCheckoutFixture(t)
	f.login(t)
	f.setCart(t, twoGA())
	ctx := context.Background()

	_, err := f.svc.Open(ctx, testSession)
	require.NoError(t, err)

	f.api.SetCapacity("tt1", 1)

	view, err := f.svc.Pay(ctx, testSession)
	require.NoError(t, err)
	assert.Equal(t, models.CheckoutErrored, view.State)
	assert.Equal(t, models.StepPlacing, view.FailedStep)
	assert.Equal(t, "sold_out", view.ErrorCode)
	assert.Empty(t, view.OrderID)
	assert.Zero(t, f.api.OrderCount())

	f.api.SetCapacity("tt1", 10)

	view, err = f.svc.Retry(ctx, testSession)
	require.NoError(t, err)
	assert.Equal(t, models.CheckoutConfirmed, view.State)
	assert.Equal(t, 1, f.api.Calls(fakeapi.EndpointPriceCheck))
	assert.Equal(t, 2, f.api.Calls(fakeapi.EndpointCreateOrder))
	assert.Equal(t, 1, f.api.OrderCount())
}

func TestCheckout_RetryPlacingReusesIdempotencyKey(t *testing.T) {
	f := newCheckoutFixture(t)
	f.login(t)
	f.setCart(t, twoGA())
	ctx := context.Background()

	_, err := f.svc.Open(ctx, testSession)
	require.NoError(t, err)

	f.api.FailNext(fakeapi.EndpointCreateOrder, http.StatusBadGateway, "")

	view, err := f.svc.Pay(ctx, testSession)
	require.NoError(t, err)
	require.Equal(t, models.CheckoutErrored, view.State)
	assert.Equal(t, models.StepPlacing, view.FailedStep)
	assert.False(t, view.CanResume)

	key := f.record(t).IdemKey
	require.NotEmpty(t, key)

	// opening again does not silently retry a failed placement
	view, err = f.svc.Open(ctx, testSession)
	require.NoError(t, err)
	assert.Equal(t, models.CheckoutErrored, view.State)
	assert.Equal(t, 1, f.api.Calls(fakeapi.EndpointCreateOrder))

	view, err = f.svc.Retry(ctx, testSession)
	require.NoError(t, err)
	assert.Equal(t, models.CheckoutConfirmed, view.State)
	assert.Equal(t, key, f.record(t).IdemKey)
	assert.Equal(t, 1, f.api.Calls(fakeapi.EndpointPriceCheck))
	assert.Equal(t, 2, f.api.Calls(fakeapi.EndpointCreateOrder))
}

func TestCheckout_CrashDuringPlacingRecoversSameOrder(t *testing.T) {
	f := newCheckoutFixture(t)
	token := f.login(t)
	f.setCart(t, twoGA())
	ctx := context.Background()

	_, err := f.svc.Open(ctx, testSession)
	require.NoError(t, err)

	// the server created the order but the process died before recording it
	rec := f.record(t)
	rec.State = models.CheckoutPlacing
	rec.IdemKey = "crash-key"
	require.NoError(t, f.records.Save(ctx, testSession, rec))
	order, err := f.client.CreateOrder(ctx, token, models.OrderRequest{
		Items:           []models.CartItem{twoGA()},
		PaymentProvider: fakeapi.PaymentProviderTest,
	}, "crash-key")
	require.NoError(t, err)

	view, err := f.svc.Open(ctx, testSession)
	require.NoError(t, err)
	assert.Equal(t, models.CheckoutErrored, view.State)
	assert.Equal(t, models.StepPlacing, view.FailedStep)
	assert.Equal(t, "interrupted", view.ErrorCode)

	view, err = f.svc.Retry(ctx, testSession)
	require.NoError(t, err)
	assert.Equal(t, models.CheckoutConfirmed, view.State)
	assert.Equal(t, order.ID, view.OrderID)
	assert.Equal(t, 1, f.api.OrderCount())
}

func TestCheckout_RetryPlacingWithChangedCartReprices(t *testing.T) {
	f := newCheckoutFixture(t)
	f.login(t)
	f.setCart(t, twoGA())
	ctx := context.Background()

	_, err := f.svc.Open(ctx, testSession)
	require.NoError(t, err)

	f.api.FailNext(fakeapi.EndpointCreateOrder, http.StatusServiceUnavailable, "")
	_, err = f.svc.Pay(ctx, testSession)
	require.NoError(t, err)
	oldKey := f.record(t).IdemKey

	f.setCart(t, models.CartItem{TicketTypeID: "tt4", Quantity: 1})

	view, err := f.svc.Retry(ctx, testSession)
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeRepriced, view.Outcome)
	assert.Equal(t, models.CheckoutPriced, view.State)
	assert.Equal(t, 1, f.api.Calls(fakeapi.EndpointCreateOrder))
	assert.Empty(t, f.record(t).IdemKey)
	assert.NotEqual(t, oldKey, f.record(t).IdemKey)
}

func TestCheckout_PricingFailureAndRetry(t *testing.T) {
	f := newCheckoutFixture(t)
	f.setCart(t, twoGA())
	ctx := context.Background()

	f.api.FailNext(fakeapi.EndpointPriceCheck, http.StatusInternalServerError, "")

	view, err := f.svc.Open(ctx, testSession)
	require.NoError(t, err)
	assert.Equal(t, models.CheckoutErrored, view.State)
	assert.Equal(t, models.StepPricing, view.FailedStep)
	assert.Nil(t, view.Quote)

	view, err = f.svc.Retry(ctx, testSession)
	require.NoError(t, err)
	assert.Equal(t, models.CheckoutPriced, view.State)
	assert.Equal(t, "$43.00", view.Quote.Total)
	assert.Equal(t, 2, f.api.Calls(fakeapi.EndpointPriceCheck))
}

func TestCheckout_UnknownTicketTypeFailsPricing(t *testing.T) {
	f := newCheckoutFixture(t)
	f.setCart(t, models.CartItem{TicketTypeID: "nope", Quantity: 1})

	view, err := f.svc.Open(context.Background(), testSession)
	require.NoError(t, err)
	assert.Equal(t, models.CheckoutErrored, view.State)
	assert.Equal(t, models.StepPricing, view.FailedStep)
	assert.Equal(t, "unknown_ticket_type", view.ErrorCode)
}

func TestCheckout_ExpiredCredentialAtPlacing(t *testing.T) {
	f := newCheckoutFixture(t)
	require.NoError(t, f.creds.SetCredential(context.Background(), testSession, "expired-token"))
	f.setCart(t, twoGA())
	ctx := context.Background()

	_, err := f.svc.Open(ctx, testSession)
	require.NoError(t, err)

	view, err := f.svc.Pay(ctx, testSession)
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeAuthRequired, view.Outcome)
	assert.Equal(t, RedirectLogin, view.Redirect)
	assert.Equal(t, models.CheckoutPriced, view.State)
	assert.Zero(t, f.api.OrderCount())

	_, present, err := f.creds.GetCredential(ctx, testSession)
	require.NoError(t, err)
	assert.True(t, present)
}

func TestCheckout_AbandonForfeitsHeldOrder(t *testing.T) {
	f := newCheckoutFixture(t)
	f.login(t)
	f.setCart(t, twoGA())
	ctx := context.Background()

	_, err := f.svc.Open(ctx, testSession)
	require.NoError(t, err)

	f.api.FailNext(fakeapi.EndpointConfirmOrder, http.StatusServiceUnavailable, "")
	view, err := f.svc.Pay(ctx, testSession)
	require.NoError(t, err)
	stranded := view.OrderID
	require.NotEmpty(t, stranded)

	view, err = f.svc.Abandon(ctx, testSession)
	require.NoError(t, err)
	assert.Equal(t, models.CheckoutIdle, view.State)
	assert.Empty(t, view.OrderID)
	assert.True(t, f.cart(t).IsEmpty())

	// a fresh cycle may now place a new order
	f.setCart(t, twoGA())
	_, err = f.svc.Open(ctx, testSession)
	require.NoError(t, err)
	view, err = f.svc.Pay(ctx, testSession)
	require.NoError(t, err)
	assert.Equal(t, models.CheckoutConfirmed, view.State)
	assert.NotEqual(t, stranded, view.OrderID)
	assert.Equal(t, 2, f.api.OrderCount())
}

func TestCheckout_ConfirmedThenNewCartStartsOver(t *testing.T) {
	f := newCheckoutFixture(t)
	f.login(t)
	f.setCart(t, twoGA())
	ctx := context.Background()

	_, err := f.svc.Open(ctx, testSession)
	require.NoError(t, err)
	_, err = f.svc.Pay(ctx, testSession)
	require.NoError(t, err)

	view, err := f.svc.Open(ctx, testSession)
	require.NoError(t, err)
	assert.Equal(t, models.CheckoutConfirmed, view.State)
	assert.Equal(t, 1, f.api.Calls(fakeapi.EndpointPriceCheck))

	f.setCart(t, models.CartItem{TicketTypeID: "tt4", Quantity: 1})
	view, err = f.svc.Open(ctx, testSession)
	require.NoError(t, err)
	assert.Equal(t, models.CheckoutPriced, view.State)
	assert.Empty(t, view.OrderID)
}

func TestCheckout_InvalidTransitions(t *testing.T) {
	f := newCheckoutFixture(t)
	ctx := context.Background()

	_, err := f.svc.Retry(ctx, testSession)
	assert.ErrorIs(t, err, models.ErrInvalidTransition)

	_, err = f.svc.Confirm(ctx, testSession)
	assert.ErrorIs(t, err, models.ErrInvalidTransition)

	f.setCart(t, twoGA())
	_, err = f.svc.Pay(ctx, testSession)
	assert.ErrorIs(t, err, models.ErrInvalidTransition)
	assert.Zero(t, f.api.Calls(fakeapi.EndpointCreateOrder))
}

// mockOrderAPI lets tests hold a request open
type mockOrderAPI struct {
	mock.Mock
}

func (m *mockOrderAPI) PriceCheck(ctx context.Context, items []models.CartItem) (*models.PriceQuote, error) {
	args := m.Called(ctx, items)
	quote, _ := args.Get(0).(*models.PriceQuote)
	return quote, args.Error(1)
}

func (m *mockOrderAPI) CreateOrder(ctx context.Context, token string, req models.OrderRequest, key string) (*models.Order, error) {
	args := m.Called(ctx, token, req, key)
	order, _ := args.Get(0).(*models.Order)
	return order, args.Error(1)
}

func (m *mockOrderAPI) ConfirmOrder(ctx context.Context, token, orderID string) (*models.Order, error) {
	args := m.Called(ctx, token, orderID)
	order, _ := args.Get(0).(*models.Order)
	return order, args.Error(1)
}

func newMockCheckout(t *testing.T, api *mockOrderAPI) (*CheckoutService, *repositories.CredentialRepository, *repositories.CartRepository) {
	t.Helper()
	backend := storage.NewMemoryBackend(time.Hour)
	creds := repositories.NewCredentialRepository(backend)
	carts := repositories.NewCartRepository(backend)
	records := repositories.NewCheckoutRepository(backend)
	return NewCheckoutService(api, creds, carts, records, "test", logger.Discard()), creds, carts
}

func TestCheckout_InFlightGuardRejectsSecondTrigger(t *testing.T) {
	api := new(mockOrderAPI)
	svc, creds, carts := newMockCheckout(t, api)
	ctx := context.Background()

	require.NoError(t, creds.SetCredential(ctx, testSession, "token"))
	require.NoError(t, carts.SetCart(ctx, testSession, []models.CartItem{twoGA()}))

	api.On("PriceCheck", mock.Anything, mock.Anything).
		Return(&models.PriceQuote{SubtotalCents: 4000, ServiceFeeCents: 300, TotalCents: 4300}, nil).Once()
	_, err := svc.Open(ctx, testSession)
	require.NoError(t, err)

	started := make(chan struct{})
	unblock := make(chan struct{})
	api.On("CreateOrder", mock.Anything, "token", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) {
			close(started)
			<-unblock
		}).
		Return(&models.Order{ID: "o1", Status: models.OrderPending}, nil).Once()
	api.On("ConfirmOrder", mock.Anything, "token", "o1").
		Return(&models.Order{ID: "o1", Status: models.OrderConfirmed}, nil).Once()

	type result struct {
		view *models.CheckoutView
		err  error
	}
	done := make(chan result, 1)
	go func() {
		view, err := svc.Pay(ctx, testSession)
		done <- result{view, err}
	}()

	<-started

	_, err = svc.Pay(ctx, testSession)
	assert.ErrorIs(t, err, models.ErrTransitionInFlight)
	_, err = svc.Open(ctx, testSession)
	assert.ErrorIs(t, err, models.ErrTransitionInFlight)

	status, err := svc.Status(ctx, testSession)
	require.NoError(t, err)
	assert.True(t, status.InFlight)
	assert.Equal(t, models.CheckoutPlacing, status.State)

	close(unblock)
	res := <-done
	require.NoError(t, res.err)
	assert.Equal(t, models.CheckoutConfirmed, res.view.State)

	api.AssertNumberOfCalls(t, "CreateOrder", 1)
	api.AssertNumberOfCalls(t, "ConfirmOrder", 1)
	api.AssertExpectations(t)
}

func TestCheckout_GuardIsPerSession(t *testing.T) {
	api := new(mockOrderAPI)
	svc, _, carts := newMockCheckout(t, api)
	ctx := context.Background()

	require.NoError(t, carts.SetCart(ctx, "a", []models.CartItem{twoGA()}))
	require.NoError(t, carts.SetCart(ctx, "b", []models.CartItem{twoGA()}))

	started := make(chan struct{})
	unblock := make(chan struct{})
	quote := &models.PriceQuote{SubtotalCents: 4000, ServiceFeeCents: 300, TotalCents: 4300}
	api.On("PriceCheck", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) {
			close(started)
			<-unblock
		}).
		Return(quote, nil).Once()
	api.On("PriceCheck", mock.Anything, mock.Anything).Return(quote, nil).Once()

	done := make(chan error, 1)
	go func() {
		_, err := svc.Open(ctx, "a")
		done <- err
	}()
	<-started

	view, err := svc.Open(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, models.CheckoutPriced, view.State)

	close(unblock)
	require.NoError(t, <-done)
}

func TestCheckout_InconsistentQuoteFailsPricing(t *testing.T) {
	api := new(mockOrderAPI)
	svc, _, carts := newMockCheckout(t, api)
	ctx := context.Background()

	require.NoError(t, carts.SetCart(ctx, testSession, []models.CartItem{twoGA()}))
	api.On("PriceCheck", mock.Anything, mock.Anything).Return(nil, models.ErrInvalidQuote).Once()

	view, err := svc.Open(ctx, testSession)
	require.NoError(t, err)
	assert.Equal(t, models.CheckoutErrored, view.State)
	assert.Equal(t, "invalid_quote", view.ErrorCode)
}

func TestCheckout_ConfirmResponseStatus(t *testing.T) {
	tests := []struct {
		name      string
		status    models.OrderStatus
		wantState models.CheckoutState
		wantCode  string
	}{
		{"confirmed", models.OrderConfirmed, models.CheckoutConfirmed, ""},
		{"no status in body", "", models.CheckoutConfirmed, ""},
		{"still pending", models.OrderPending, models.CheckoutErrored, "order_pending"},
		{"failed", models.OrderFailed, models.CheckoutErrored, "failed"},
		{"unknown status", "on_hold", models.CheckoutErrored, "unexpected_status"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := new(mockOrderAPI)
			svc, creds, carts := newMockCheckout(t, api)
			ctx := context.Background()

			require.NoError(t, creds.SetCredential(ctx, testSession, "token"))
			require.NoError(t, carts.SetCart(ctx, testSession, []models.CartItem{twoGA()}))

			api.On("PriceCheck", mock.Anything, mock.Anything).
				Return(&models.PriceQuote{SubtotalCents: 4000, ServiceFeeCents: 300, TotalCents: 4300}, nil).Once()
			api.On("CreateOrder", mock.Anything, "token", mock.Anything, mock.Anything).
				Return(&models.Order{ID: "o1", Status: models.OrderPending}, nil).Once()
			api.On("ConfirmOrder", mock.Anything, "token", "o1").
				Return(&models.Order{ID: "o1", Status: tt.status}, nil).Once()

			_, err := svc.Open(ctx, testSession)
			require.NoError(t, err)
			view, err := svc.Pay(ctx, testSession)
			require.NoError(t, err)

			assert.Equal(t, tt.wantState, view.State)
			assert.Equal(t, tt.wantCode, view.ErrorCode)
			assert.Equal(t, "o1", view.OrderID)
			if tt.wantState == models.CheckoutErrored {
				assert.Equal(t, models.StepConfirming, view.FailedStep)
				assert.True(t, view.CanResume)
			}
			api.AssertExpectations(t)
		})
	}
}
