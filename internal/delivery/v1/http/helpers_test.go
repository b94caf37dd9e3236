package http

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zapeame/nostr-market/internal/domain"
	"github.com/zapeame/nostr-market/pkg/e"
)

func TestValidatePrice(t *testing.T) {
	tests := []struct {
		name     string
		price    string
		currency domain.Currency
		want     string
		wantErr  error
	}{
		{"sats integer", "15000", domain.CurrencySATS, "15000", nil},
		{"sats with spaces", " 15000 ", domain.CurrencySATS, "15000", nil},
		{"sats fractional", "15000.5", domain.CurrencySATS, "", e.ErrPricePrecision},
		{"sats above supply", "2100000000000001", domain.CurrencySATS, "", e.ErrInvalidPrice},
		{"btc 8 decimals", "0.00000001", domain.CurrencyBTC, "0.00000001", nil},
		{"btc 9 decimals", "0.000000001", domain.CurrencyBTC, "", e.ErrPricePrecision},
		{"btc normalized", "1.50", domain.CurrencyBTC, "1.5", nil},
		{"btc above supply", "21000001", domain.CurrencyBTC, "", e.ErrInvalidPrice},
		{"zero", "0", domain.CurrencyBTC, "0", nil},
		{"negative", "-1", domain.CurrencySATS, "", e.ErrInvalidPrice},
		{"empty", "", domain.CurrencySATS, "", e.ErrInvalidPrice},
		{"not a number", "abc", domain.CurrencySATS, "", e.ErrInvalidPrice},
		{"unknown currency", "1", domain.Currency("USD"), "", e.ErrInvalidCurrency},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := validatePrice(tt.price, tt.currency)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestToHTTPResponse(t *testing.T) {
	tests := []struct {
		err  error
		code int
	}{
		{e.Wrap("op", e.ErrTitleRequired), 400},
		{e.Wrap("op", e.ErrInvalidSellerKey), 400},
		{e.Wrap("op", e.ErrSigningRejected), 403},
		{e.Wrap("op", e.ErrQuorumNotMet), 502},
		{e.Wrap("op", e.ErrBroadcastFailed), 502},
		{e.Wrap("op", e.ErrSignerUnavailable), 503},
		{e.Wrap("op", assert.AnError), 500},
	}

	for _, tt := range tests {
		code, msg := ToHTTPResponse(tt.err)
		assert.Equal(t, tt.code, code)
		assert.NotEmpty(t, msg)
	}
}
