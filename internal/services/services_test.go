package services

import (
	"bytes"
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gramtop961/frontend-repo-h3cay28k-qxicje/internal/apiclient"
	"github.com/gramtop961/frontend-repo-h3cay28k-qxicje/internal/fakeapi"
	"github.com/gramtop961/frontend-repo-h3cay28k-qxicje/internal/logger"
	"github.com/gramtop961/frontend-repo-h3cay28k-qxicje/internal/models"
	"github.com/gramtop961/frontend-repo-h3cay28k-qxicje/internal/repositories"
	"github.com/gramtop961/frontend-repo-h3cay28k-qxicje/internal/storage"
)

func newTestAPI(t *testing.T) (*fakeapi.Server, *apiclient.Client) {
	t.Helper()
	api := fakeapi.New(fakeapi.Options{ServiceFeeBasisPoints: 750, Seed: true}, logger.Discard())
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)
	return api, apiclient.New(apiclient.Config{BaseURL: srv.URL}, logger.Discard())
}

func TestCatalogService_ListEvents(t *testing.T) {
	api, client := newTestAPI(t)
	svc := NewCatalogService(client, "Austin")
	ctx := context.Background()

	tests := []struct {
		name     string
		filters  EventSearchFilters
		expected int
	}{
		{"default city", EventSearchFilters{}, 3},
		{"explicit city", EventSearchFilters{City: "Denver"}, 1},
		{"category", EventSearchFilters{Category: "Music"}, 1},
		{"search", EventSearchFilters{Search: "  standup "}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events, err := svc.ListEvents(ctx, tt.filters)
			require.NoError(t, err)
			assert.Len(t, events, tt.expected)
		})
	}
	assert.Equal(t, len(tests), api.Calls(fakeapi.EndpointListEvents))
}

func TestCatalogService_InvalidCategoryMakesNoRequest(t *testing.T) {
	api, client := newTestAPI(t)
	svc := NewCatalogService(client, "Austin")

	_, err := svc.ListEvents(context.Background(), EventSearchFilters{Category: "opera"})
	assert.ErrorIs(t, err, models.ErrInvalidCategory)
	assert.Zero(t, api.Calls(fakeapi.EndpointListEvents))
}

func TestCatalogService_GetEvent(t *testing.T) {
	_, client := newTestAPI(t)
	svc := NewCatalogService(client, "Austin")
	ctx := context.Background()

	event, err := svc.GetEvent(ctx, "e1")
	require.NoError(t, err)
	_, tt, ok := event.FindTicketType("tt2")
	require.True(t, ok)
	assert.Equal(t, "$65.00", tt.Price())

	_, err = svc.GetEvent(ctx, "nope")
	assert.ErrorIs(t, err, models.ErrEventNotFound)

	_, err = svc.GetEvent(ctx, " ")
	assert.ErrorIs(t, err, models.ErrEventNotFound)

	assert.Len(t, svc.Categories(), 5)
}

func newSessionFixture(t *testing.T) (*fakeapi.Server, *SessionService, *TicketService, *repositories.CredentialRepository) {
	t.Helper()
	api, client := newTestAPI(t)
	creds := repositories.NewCredentialRepository(storage.NewMemoryBackend(time.Hour))
	return api,
		NewSessionService(client, creds, logger.Discard()),
		NewTicketService(client, creds),
		creds
}

func TestSessionService_LoginMeLogout(t *testing.T) {
	_, svc, _, creds := newSessionFixture(t)
	ctx := context.Background()

	_, err := svc.Me(ctx, testSession)
	assert.ErrorIs(t, err, models.ErrAuthRequired)

	identity, err := svc.Login(ctx, testSession, &models.LoginRequest{Email: "jane@example.com", Password: "password"})
	require.NoError(t, err)
	assert.Equal(t, "Jane", identity.FirstName())

	ok, err := svc.IsAuthenticated(ctx, testSession)
	require.NoError(t, err)
	assert.True(t, ok)

	me, err := svc.Me(ctx, testSession)
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", me.Name)

	require.NoError(t, svc.Logout(ctx, testSession))
	_, present, err := creds.GetCredential(ctx, testSession)
	require.NoError(t, err)
	assert.False(t, present)
}

func TestSessionService_LoginRejections(t *testing.T) {
	api, svc, _, creds := newSessionFixture(t)
	ctx := context.Background()

	_, err := svc.Login(ctx, testSession, &models.LoginRequest{Email: "not-an-email", Password: "x"})
	assert.ErrorIs(t, err, models.ErrInvalidInput)
	assert.Zero(t, api.Calls(fakeapi.EndpointLogin))

	_, err = svc.Login(ctx, testSession, &models.LoginRequest{Email: "jane@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, models.ErrInvalidCredentials)

	_, present, err := creds.GetCredential(ctx, testSession)
	require.NoError(t, err)
	assert.False(t, present)
}

func TestTicketService_RequiresCredential(t *testing.T) {
	api, _, svc, _ := newSessionFixture(t)

	_, err := svc.ListTickets(context.Background(), testSession)
	assert.ErrorIs(t, err, models.ErrAuthRequired)
	assert.Zero(t, api.Calls(fakeapi.EndpointMyTickets))
}

func TestTicketService_ListAndQRCode(t *testing.T) {
	api, sessions, svc, _ := newSessionFixture(t)
	ctx := context.Background()

	_, err := sessions.Login(ctx, testSession, &models.LoginRequest{Email: "jane@example.com", Password: "password"})
	require.NoError(t, err)

	tickets, err := svc.ListTickets(ctx, testSession)
	require.NoError(t, err)
	assert.Empty(t, tickets)

	token, err := api.IssueToken("jane@example.com")
	require.NoError(t, err)
	srv := httptest.NewServer(api)
	defer srv.Close()
	client := apiclient.New(apiclient.Config{BaseURL: srv.URL}, logger.Discard())
	order, err := client.CreateOrder(ctx, token, models.OrderRequest{
		Items:           []models.CartItem{{TicketTypeID: "tt4", Quantity: 1}},
		PaymentProvider: fakeapi.PaymentProviderTest,
	}, "")
	require.NoError(t, err)
	_, err = client.ConfirmOrder(ctx, token, order.ID)
	require.NoError(t, err)

	tickets, err = svc.ListTickets(ctx, testSession)
	require.NoError(t, err)
	require.Len(t, tickets, 1)
	assert.Equal(t, "Late Show Standup", tickets[0].Event.Title)

	png, err := svc.QRCode(ctx, testSession, tickets[0].ID, 0)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, []byte("\x89PNG")))

	_, err = svc.QRCode(ctx, testSession, "missing", 0)
	assert.ErrorIs(t, err, models.ErrTicketNotFound)
}
