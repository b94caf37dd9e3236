package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/zapeame/nostr-market/internal/domain"
	"github.com/zapeame/nostr-market/pkg/e"
)

type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func NewErrorResponse(code int, message string) *ErrorResponse {
	return &ErrorResponse{
		Code:    code,
		Message: message,
	}
}

func ToHTTPResponse(err error) (int, string) {
	switch {
	case errors.Is(err, e.ErrStatusBadRequest):
		return http.StatusBadRequest, e.ErrStatusBadRequest.Error()
	case errors.Is(err, e.ErrMissingFields):
		return http.StatusBadRequest, e.ErrMissingFields.Error()
	case errors.Is(err, e.ErrTitleRequired):
		return http.StatusBadRequest, e.ErrTitleRequired.Error()
	case errors.Is(err, e.ErrDescriptionRequired):
		return http.StatusBadRequest, e.ErrDescriptionRequired.Error()
	case errors.Is(err, e.ErrContactRequired):
		return http.StatusBadRequest, e.ErrContactRequired.Error()
	case errors.Is(err, e.ErrInvalidPrice):
		return http.StatusBadRequest, e.ErrInvalidPrice.Error()
	case errors.Is(err, e.ErrPricePrecision):
		return http.StatusBadRequest, e.ErrPricePrecision.Error()
	case errors.Is(err, e.ErrInvalidCurrency):
		return http.StatusBadRequest, e.ErrInvalidCurrency.Error()
	case errors.Is(err, e.ErrInvalidPaymentMethod):
		return http.StatusBadRequest, e.ErrInvalidPaymentMethod.Error()
	case errors.Is(err, e.ErrInvalidDeliveryMethod):
		return http.StatusBadRequest, e.ErrInvalidDeliveryMethod.Error()
	case errors.Is(err, e.ErrTooManyImages):
		return http.StatusBadRequest, e.ErrTooManyImages.Error()
	case errors.Is(err, e.ErrInvalidSellerKey):
		return http.StatusBadRequest, e.ErrInvalidSellerKey.Error()
	case errors.Is(err, e.ErrSigningRejected):
		return http.StatusForbidden, e.ErrSigningRejected.Error()
	case errors.Is(err, e.ErrSignerUnavailable):
		return http.StatusServiceUnavailable, e.ErrSignerUnavailable.Error()
	case errors.Is(err, e.ErrQuorumNotMet):
		return http.StatusBadGateway, e.ErrQuorumNotMet.Error()
	case errors.Is(err, e.ErrNoActiveRelays):
		return http.StatusBadGateway, e.ErrNoActiveRelays.Error()
	case errors.Is(err, e.ErrBroadcastFailed):
		return http.StatusBadGateway, e.ErrBroadcastFailed.Error()
	default:
		return http.StatusInternalServerError, e.ErrInternalServerError.Error()
	}
}

func WriteError(w http.ResponseWriter, err error) {
	code, msg := ToHTTPResponse(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(NewErrorResponse(code, msg))
}

func WriteSuccess(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// validatePrice проверяет строку цены с учетом валюты.
// Возвращает нормализованную строку без лишних нулей. Ошибка, если:
// - формат некорректен
// - значение отрицательное
// - BTC: больше 8 знаков после запятой или свыше 21 миллиона
// - SATS: дробное значение или свыше 2.1e15
func validatePrice(s string, currency domain.Currency) (string, error) {
	if strings.TrimSpace(s) == "" {
		return "", e.ErrInvalidPrice
	}

	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return "", e.ErrInvalidPrice
	}

	if d.LessThan(decimal.Zero) {
		return "", e.ErrInvalidPrice
	}

	switch currency {
	case domain.CurrencyBTC:
		if d.Exponent() < -8 {
			return "", e.ErrPricePrecision
		}
		if d.GreaterThan(decimal.NewFromInt(21_000_000)) {
			return "", e.ErrInvalidPrice
		}
	case domain.CurrencySATS:
		if !d.IsInteger() {
			return "", e.ErrPricePrecision
		}
		if d.GreaterThan(decimal.NewFromInt(2_100_000_000_000_000)) {
			return "", e.ErrInvalidPrice
		}
	default:
		return "", e.ErrInvalidCurrency
	}

	return d.String(), nil
}
