package converter

// ProductRedisModel — представление объявления в кэше
type ProductRedisModel struct {
	ID              string     `json:"id"`
	AuthorKey       string     `json:"author_key"`
	Title           string     `json:"title"`
	Summary         string     `json:"summary,omitempty"`
	Description     string     `json:"description"`
	Notes           string     `json:"notes,omitempty"`
	Price           string     `json:"price"`
	Currency        string     `json:"currency"`
	Location        string     `json:"location,omitempty"`
	PaymentMethods  []string   `json:"payment_methods,omitempty"`
	DeliveryMethods []string   `json:"delivery_methods,omitempty"`
	Images          []string   `json:"images,omitempty"`
	Website         string     `json:"website,omitempty"`
	ContactInfo     string     `json:"contact_info"`
	Categories      []string   `json:"categories,omitempty"`
	CreatedAt       int64      `json:"created_at"`
	RawTags         [][]string `json:"raw_tags,omitempty"`
}
