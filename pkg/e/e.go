package e

import "fmt"

var (
	// Внутренние ошибки конфигурации
	ErrIncorrectEnvVariable = fmt.Errorf("incorrect env variable")

	// Ошибки связности с реле
	ErrQuorumNotMet    = fmt.Errorf("relay quorum not met")
	ErrNoActiveRelays  = fmt.Errorf("no active relays")
	ErrBroadcastFailed = fmt.Errorf("broadcast rejected by all relays")

	// Ошибки внешнего подписанта
	ErrSignerUnavailable = fmt.Errorf("signer unavailable")
	ErrSigningRejected   = fmt.Errorf("signing rejected by user")

	// 400 Bad Request
	ErrStatusBadRequest      = fmt.Errorf("bad request")
	ErrMissingFields         = fmt.Errorf("missing required fields")
	ErrTitleRequired         = fmt.Errorf("listing title is required")
	ErrDescriptionRequired   = fmt.Errorf("listing description is required")
	ErrContactRequired       = fmt.Errorf("contact info is required")
	ErrInvalidPrice          = fmt.Errorf("invalid price")
	ErrPricePrecision        = fmt.Errorf("too many decimal places in price")
	ErrInvalidCurrency       = fmt.Errorf("unsupported currency")
	ErrInvalidPaymentMethod  = fmt.Errorf("unsupported payment method")
	ErrInvalidDeliveryMethod = fmt.Errorf("unsupported delivery method")
	ErrTooManyImages         = fmt.Errorf("too many images")
	ErrInvalidSellerKey      = fmt.Errorf("invalid seller pubkey")
	ErrInternalServerError   = fmt.Errorf("internal server error")
)

// Wrap оборачивает ошибку
func Wrap(msg string, err error) error {
	return fmt.Errorf("%s: %w", msg, err)
}
