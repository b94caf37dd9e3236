package domain

// Currency — валюта цены объявления
type Currency string

const (
	CurrencyBTC  Currency = "BTC"
	CurrencySATS Currency = "SATS"
)

// Valid сообщает, поддерживается ли валюта
func (c Currency) Valid() bool {
	return c == CurrencyBTC || c == CurrencySATS
}

// PaymentMethod — способ оплаты, допустимый в объявлении
type PaymentMethod string

const (
	PaymentLightning PaymentMethod = "Lightning"
	PaymentOnChain   PaymentMethod = "On-chain Bitcoin"
)

func (p PaymentMethod) Valid() bool {
	return p == PaymentLightning || p == PaymentOnChain
}

// DeliveryMethod — способ передачи товара покупателю
type DeliveryMethod string

const (
	DeliveryInPerson DeliveryMethod = "Presencial"
	DeliveryDigital  DeliveryMethod = "Digital"
	DeliveryShipping DeliveryMethod = "Envio"
)

func (d DeliveryMethod) Valid() bool {
	return d == DeliveryInPerson || d == DeliveryDigital || d == DeliveryShipping
}

// MaxListingImages — максимум изображений в одном объявлении
const MaxListingImages = 3

// Product — объявление маркетплейса. Не хранится локально:
// каждый раз восстанавливается из подписанного события реле.
type Product struct {
	ID              string // идентификатор события
	AuthorKey       string // pubkey продавца
	Title           string
	Summary         string
	Description     string
	Notes           string
	Price           string // числовая строка, точность проверяется на входе
	Currency        Currency
	Location        string
	PaymentMethods  []PaymentMethod
	DeliveryMethods []DeliveryMethod
	Images          []string // проверенные URL, на публикации не больше MaxListingImages
	Website         string
	ContactInfo     string
	Categories      []string
	CreatedAt       int64      // unix-секунды публикации
	RawTags         [][]string // исходные теги события, для прямой совместимости
}
