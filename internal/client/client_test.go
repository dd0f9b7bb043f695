package client

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edwinbf09/daily-activities/internal/activity"
	"github.com/edwinbf09/daily-activities/internal/apitest"
	"github.com/edwinbf09/daily-activities/internal/auth"
	"github.com/edwinbf09/daily-activities/internal/report"
)

func signedIn(t *testing.T) (*Client, *apitest.Server) {
	t.Helper()

	srv := apitest.New(t)
	c := New(srv.URL + "/")
	_, err := c.Register(context.Background(), "ana@example.com", "secret123", "Ana")
	require.NoError(t, err)
	return c, srv
}

func TestClient_AuthFlow(t *testing.T) {
	ctx := context.Background()
	srv := apitest.New(t)
	c := New(srv.URL)

	_, err := c.Me(ctx)
	assert.ErrorIs(t, err, ErrUnauthorized)

	session, err := c.Register(ctx, "ana@example.com", "secret123", "Ana")
	require.NoError(t, err)
	assert.Equal(t, session.Token, c.Token())
	assert.Equal(t, "Bearer", session.TokenType)

	me, err := c.Me(ctx)
	require.NoError(t, err)
	assert.Equal(t, session.User.ID, me.UserID)

	require.NoError(t, c.Logout(ctx))
	assert.Empty(t, c.Token())

	_, err = c.Login(ctx, "ana@example.com", "wrong1")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, "INVALID_CREDENTIALS", apiErr.Code)
	assert.Empty(t, c.Token())

	_, err = c.Login(ctx, "ana@example.com", "secret123")
	require.NoError(t, err)
	assert.NotEmpty(t, c.Token())
}

func TestClient_PasswordReset(t *testing.T) {
	ctx := context.Background()
	c, srv := signedIn(t)

	msg, err := c.RequestPasswordReset(ctx, "ana@example.com")
	require.NoError(t, err)
	assert.Equal(t, auth.ResetRequestedMessage, msg)

	token := srv.ResetToken("ana@example.com")
	require.NotEmpty(t, token)

	_, err = c.ConfirmPasswordReset(ctx, "bogus", "brand-new")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.Permanent())

	_, err = c.ConfirmPasswordReset(ctx, token, "brand-new")
	require.NoError(t, err)

	// The reset signed out the old session.
	_, err = c.List(ctx)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestClient_Activities(t *testing.T) {
	ctx := context.Background()
	c, _ := signedIn(t)

	empty, err := c.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, empty)

	desc := "cleaning"
	created, err := c.Create(ctx, activity.Activity{
		Name:        "Dentist",
		Description: &desc,
		Date:        activity.NewDate(2024, time.May, 3),
		Amount:      90,
		Category:    activity.CategoryHealth,
	})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, created.ID)
	assert.Equal(t, "cleaning", created.DescriptionOr(""))

	clientID := uuid.New()
	withID, err := c.Create(ctx, activity.Activity{
		ID:       clientID,
		Name:     "Rent",
		Date:     activity.NewDate(2024, time.May, 1),
		Amount:   900,
		Category: activity.CategoryFinance,
		IsPaid:   true,
	})
	require.NoError(t, err)
	assert.Equal(t, clientID, withID.ID)
	assert.True(t, withID.IsPaid)

	_, err = c.Create(ctx, withID)
	assert.ErrorIs(t, err, activity.ErrDuplicateID)

	list, err := c.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, clientID, list[0].ID)

	health, err := c.ListByCategory(ctx, activity.CategoryHealth)
	require.NoError(t, err)
	require.Len(t, health, 1)
	assert.Equal(t, created.ID, health[0].ID)

	name := "Dentist (follow-up)"
	updated, err := c.Update(ctx, created.ID, activity.Patch{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, name, updated.Name)
	assert.InDelta(t, 90, updated.Amount, 0.001)

	toggled, err := c.TogglePaid(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, toggled.IsPaid)

	require.NoError(t, c.Delete(ctx, created.ID))
	assert.ErrorIs(t, c.Delete(ctx, created.ID), activity.ErrNotFound)

	_, err = c.TogglePaid(ctx, created.ID)
	assert.ErrorIs(t, err, activity.ErrNotFound)

	_, err = c.Create(ctx, activity.Activity{Name: "x", Date: activity.NewDate(2024, 1, 1), Category: "food"})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.Permanent())
	assert.NotErrorIs(t, err, activity.ErrNotFound)
}

func TestClient_Reports(t *testing.T) {
	ctx := context.Background()
	c, _ := signedIn(t)

	_, err := c.Report(ctx, "")
	assert.ErrorIs(t, err, report.ErrNoData)

	_, err = c.Create(ctx, activity.Activity{
		Name:     "Flight",
		Date:     activity.NewDate(2024, time.July, 20),
		Amount:   412.35,
		Category: activity.CategoryTravel,
	})
	require.NoError(t, err)

	today := time.Now().Format(activity.DateLayout)

	doc, err := c.Report(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, "reporte-completo-"+today+".pdf", doc.Filename)
	assert.True(t, bytes.HasPrefix(doc.Content, []byte("%PDF-")))

	doc, err = c.Report(ctx, activity.CategoryTravel)
	require.NoError(t, err)
	assert.Equal(t, "reporte-travel-"+today+".pdf", doc.Filename)

	_, err = c.Report(ctx, activity.CategoryFamily)
	assert.ErrorIs(t, err, report.ErrNoData)
}

func TestClient_ReportFilenameFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		w.Write([]byte("%PDF-1.3"))
	}))
	t.Cleanup(srv.Close)

	doc, err := New(srv.URL).Report(context.Background(), activity.CategoryHealth)
	require.NoError(t, err)
	assert.Equal(t, report.Filename("health", time.Now()), doc.Filename)
}

func TestClient_NonJSONError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream exploded", http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)

	_, err := New(srv.URL, WithToken("abc")).List(context.Background())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)
	assert.Equal(t, "Bad Gateway", apiErr.Message)
	assert.False(t, apiErr.Permanent())
}

func TestClient_SendsBearerToken(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[]`))
	}))
	t.Cleanup(srv.Close)

	_, err := New(srv.URL, WithToken("abc")).List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer abc", got)
}

func TestClient_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := New(url).List(context.Background())
	require.Error(t, err)
	var apiErr *APIError
	assert.False(t, errors.As(err, &apiErr))
}

func TestAPIError_Is(t *testing.T) {
	tests := []struct {
		err    *APIError
		target error
		want   bool
	}{
		{&APIError{Status: 404, Code: "ACTIVITY_NOT_FOUND"}, activity.ErrNotFound, true},
		{&APIError{Status: 404, Code: "NO_DATA"}, activity.ErrNotFound, false},
		{&APIError{Status: 404, Code: "NO_DATA"}, report.ErrNoData, true},
		{&APIError{Status: 409, Code: "DUPLICATE_ID"}, activity.ErrDuplicateID, true},
		{&APIError{Status: 401}, ErrUnauthorized, true},
		{&APIError{Status: 500}, ErrUnauthorized, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, errors.Is(tt.err, tt.target), "%v vs %v", tt.err, tt.target)
	}
}
