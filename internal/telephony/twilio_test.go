package telephony

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"speakai-platform/internal/calls"
	"speakai-platform/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSID = "AC123"

func newTestProvider(t *testing.T, h http.HandlerFunc) *TwilioProvider {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	p, err := NewTwilioProvider(config.TwilioConfig{AccountSID: testSID, AuthToken: "tok", BaseURL: srv.URL}, 5*time.Second)
	require.NoError(t, err)
	return p
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestBuyNumberSearchesThenPurchases(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, testSID, user)
		assert.Equal(t, "tok", pass)

		switch r.URL.Path {
		case "/Accounts/AC123/AvailablePhoneNumbers/US/Local.json":
			assert.Equal(t, "1", r.URL.Query().Get("PageSize"))
			writeJSON(w, 200, map[string]any{"available_phone_numbers": []map[string]string{{"phone_number": "+15550001111"}}})
		case "/Accounts/AC123/IncomingPhoneNumbers.json":
			assert.Equal(t, http.MethodPost, r.Method)
			assert.NoError(t, r.ParseForm())
			assert.Equal(t, "+15550001111", r.PostForm.Get("PhoneNumber"))
			assert.Equal(t, "sales Line", r.PostForm.Get("FriendlyName"))
			writeJSON(w, 201, map[string]string{"sid": "PN1", "phone_number": "+15550001111"})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	})

	res, err := p.BuyNumber(context.Background(), BuyNumberRequest{FriendlyName: "sales Line"})
	require.NoError(t, err)
	assert.Equal(t, "+15550001111", res.Number)
	assert.Equal(t, "PN1", res.ProviderNumberID)
}

func TestBuyNumberUsesConfiguredInventory(t *testing.T) {
	var searched string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			searched = r.URL.Path
			writeJSON(w, 200, map[string]any{"available_phone_numbers": []map[string]string{{"phone_number": "+447700900123"}}})
			return
		}
		writeJSON(w, 201, map[string]string{"sid": "PN2", "phone_number": "+447700900123"})
	}))
	t.Cleanup(srv.Close)

	p, err := NewTwilioProvider(config.TwilioConfig{
		AccountSID: testSID, AuthToken: "tok", BaseURL: srv.URL,
		NumberCountry: "gb", NumberType: "Mobile",
	}, 5*time.Second)
	require.NoError(t, err)

	res, err := p.BuyNumber(context.Background(), BuyNumberRequest{})
	require.NoError(t, err)
	assert.Equal(t, "/Accounts/AC123/AvailablePhoneNumbers/GB/Mobile.json", searched)
	assert.Equal(t, "+447700900123", res.Number)
}

func TestBuyNumberEmptyInventory(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 200, map[string]any{"available_phone_numbers": []any{}})
	})
	_, err := p.BuyNumber(context.Background(), BuyNumberRequest{})
	require.ErrorIs(t, err, ErrNoNumbersAvailable)
}

func TestReleaseNumberScansOwnedNumbers(t *testing.T) {
	var deleted string
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/Accounts/AC123/IncomingPhoneNumbers.json":
			writeJSON(w, 200, map[string]any{"incoming_phone_numbers": []map[string]string{
				{"sid": "PN0", "phone_number": "+15550000000"},
				{"sid": "PN1", "phone_number": "+15550001111"},
			}})
		case r.Method == http.MethodDelete:
			deleted = r.URL.Path
			w.WriteHeader(http.StatusNoContent)
		default:
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
	})

	res, err := p.ReleaseNumber(context.Background(), ReleaseNumberRequest{Number: "+15550001111"})
	require.NoError(t, err)
	assert.True(t, res.Released)
	assert.Equal(t, "/Accounts/AC123/IncomingPhoneNumbers/PN1.json", deleted)

	res, err = p.ReleaseNumber(context.Background(), ReleaseNumberRequest{Number: "+19999999999"})
	require.NoError(t, err)
	assert.True(t, res.NotFound)
}

func TestReleaseNumberTreats404AsAbsent(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	res, err := p.ReleaseNumber(context.Background(), ReleaseNumberRequest{ProviderNumberID: "PN404"})
	require.NoError(t, err)
	assert.True(t, res.NotFound)
}

func TestListCallsNormalizesRecords(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/Accounts/AC123/Calls.json", r.URL.Path)
		assert.Equal(t, "+15550001111", r.URL.Query().Get("From"))
		assert.Equal(t, "100", r.URL.Query().Get("PageSize"))
		writeJSON(w, 200, map[string]any{"calls": []map[string]string{
			{"sid": "CA1", "from": "+15550001111", "to": "+15552223333", "status": "completed", "direction": "outbound-api", "duration": "65", "date_created": "Tue, 31 Aug 2021 20:36:28 +0000"},
			{"sid": "CA2", "from": "+15550001111", "to": "+15552223333", "status": "no-answer", "direction": "outbound-api", "duration": "", "date_created": "Wed, 01 Sep 2021 09:00:00 +0000"},
		}})
	})

	got, err := p.ListCalls(context.Background(), HistoryFilter{From: "+15550001111", PageSize: 100})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, calls.CallStatusCompleted, got[0].Status)
	require.NotNil(t, got[0].DurationSeconds)
	assert.Equal(t, 65, *got[0].DurationSeconds)
	assert.Equal(t, time.Date(2021, 8, 31, 20, 36, 28, 0, time.UTC), got[0].DateCreated)
	assert.Equal(t, calls.CallStatusNoAnswer, got[1].Status)
	assert.Nil(t, got[1].DurationSeconds)
}

func TestListMessagesAppliesSince(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "2021-09-01", r.URL.Query().Get("DateSent>="))
		writeJSON(w, 200, map[string]any{"messages": []map[string]string{
			{"sid": "SM1", "status": "delivered", "date_created": "Wed, 01 Sep 2021 10:00:00 +0000"},
			{"sid": "SM0", "status": "sent", "date_created": "Tue, 31 Aug 2021 10:00:00 +0000"},
		}})
	})
	got, err := p.ListMessages(context.Background(), HistoryFilter{To: "+1555", Since: time.Date(2021, 9, 1, 0, 0, 0, 0, time.UTC)})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, calls.MessageStatusDelivered, got[0].Status)
}

func TestNewTwilioProviderRequiresCredentials(t *testing.T) {
	_, err := NewTwilioProvider(config.TwilioConfig{}, time.Second)
	require.Error(t, err)
}
