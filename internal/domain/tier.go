package domain

// TierName is the closed set of sellable ticket tiers.
type TierName string

const (
	TierVIP      TierName = "VIP"
	TierFrontRow TierName = "FRONT_ROW"
	TierGA       TierName = "GA"
)

// AllTierNames returns every tier in display order.
func AllTierNames() []TierName {
	return []TierName{TierVIP, TierFrontRow, TierGA}
}

func (n TierName) Valid() bool {
	switch n {
	case TierVIP, TierFrontRow, TierGA:
		return true
	default:
		return false
	}
}

func (n TierName) String() string {
	return string(n)
}

// ParseTierName maps a wire value onto the enumeration.
func ParseTierName(s string) (TierName, error) {
	if s == "" {
		return "", ErrTierRequired
	}
	name := TierName(s)
	if !name.Valid() {
		return "", ErrTierNotFound
	}
	return name, nil
}

// TicketTier is immutable after seeding except for catalog price maintenance.
type TicketTier struct {
	ID    string
	Name  TierName
	Price int64
}

type Inventory struct {
	TierID            string
	QuantityAvailable int
}

// CatalogEntry is the read-only projection of a tier joined with its inventory.
type CatalogEntry struct {
	TierID            string   `json:"id"`
	Name              TierName `json:"name"`
	Price             int64    `json:"price"`
	QuantityAvailable int      `json:"quantityAvailable"`
}

type TierSeed struct {
	Name     TierName `yaml:"name"`
	Price    int64    `yaml:"price"`
	Quantity int      `yaml:"quantity"`
}

// DefaultSeed is the stock the service ships with.
func DefaultSeed() []TierSeed {
	return []TierSeed{
		{Name: TierVIP, Price: 100, Quantity: 100},
		{Name: TierFrontRow, Price: 50, Quantity: 200},
		{Name: TierGA, Price: 10, Quantity: 500},
	}
}

func (s TierSeed) Validate() error {
	if !s.Name.Valid() {
		return ErrTierNotFound
	}
	if s.Price < 0 {
		return ErrInvalidPrice
	}
	if s.Quantity < 0 {
		return ErrInvalidQuantity
	}
	return nil
}
