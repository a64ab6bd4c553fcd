package extraction

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/costkeep/costkeep/internal/receipt"
)

// DefaultCurrency is the sentinel symbol applied when the model omits the
// currency. Yen matches the application's primary target locale; the
// Normalizer accepts a different default via NewNormalizer.
const DefaultCurrency = "¥"

// IDGenerator produces identifiers for newly normalized receipts
type IDGenerator interface {
	Generate() string
}

type uuidGenerator struct{}

func (uuidGenerator) Generate() string {
	return uuid.NewString()
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

type systemTimeSource struct{}

func (systemTimeSource) Now() time.Time {
	return time.Now()
}

// Normalizer converts an Intermediate record, all fields still display
// strings, into a canonical Receipt
type Normalizer struct {
	defaultCurrency string
	idGenerator     IDGenerator
	timeSource      TimeSource
}

// NewNormalizer creates a Normalizer with the given fallback currency
// symbol. An empty symbol selects DefaultCurrency.
func NewNormalizer(defaultCurrency string) *Normalizer {
	return NewNormalizerWithDeps(defaultCurrency, uuidGenerator{}, systemTimeSource{})
}

// NewNormalizerWithDeps creates a Normalizer with custom dependencies for
// testing
func NewNormalizerWithDeps(defaultCurrency string, idGen IDGenerator, timeSrc TimeSource) *Normalizer {
	if defaultCurrency == "" {
		defaultCurrency = DefaultCurrency
	}
	return &Normalizer{
		defaultCurrency: defaultCurrency,
		idGenerator:     idGen,
		timeSource:      timeSrc,
	}
}

// Normalize validates and converts an Intermediate into a canonical Receipt.
// A date that matches no known format fails the whole conversion; malformed
// prices degrade to zero per line. The receipt gets a fresh identity; the
// image reference is attached later by the orchestrator.
func (n *Normalizer) Normalize(in *Intermediate) (*receipt.Receipt, error) {
	date, err := ResolveDate(in.Date)
	if err != nil {
		return nil, err
	}

	currency := n.defaultCurrency
	if in.Currency != nil && strings.TrimSpace(*in.Currency) != "" {
		currency = strings.TrimSpace(*in.Currency)
	}

	storeName := receipt.UnknownStoreName
	if in.StoreName != nil && strings.TrimSpace(*in.StoreName) != "" {
		storeName = strings.TrimSpace(*in.StoreName)
	}

	items := make([]string, 0, len(in.Items))
	for _, item := range in.Items {
		price := ParseAmount(item.Price)
		items = append(items, fmt.Sprintf("%s: %s%s", item.Name, currency, price.StringFixed(2)))
	}

	now := n.timeSource.Now()
	return &receipt.Receipt{
		ID:        n.idGenerator.Generate(),
		Date:      date,
		Total:     ParseAmount(in.Total),
		Items:     items,
		StoreName: storeName,
		Currency:  currency,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}
