package listings

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Aymen-ml/TrunkLogistics-MVP-sub000/pkg/enums"
	"github.com/Aymen-ml/TrunkLogistics-MVP-sub000/pkg/visibility"
)

// Predicate narrows the grouped listing query. Predicates only ever bind
// values as parameters.
type Predicate interface {
	Apply(q *gorm.DB) *gorm.DB
}

// Filters are the optional search inputs shared by every role.
type Filters struct {
	Search       string
	ServiceType  *enums.ServiceType
	TruckType    string
	MinCapacity  *decimal.Decimal
	MaxPrice     *decimal.Decimal
	PricingType  *enums.PricingType
	Location     string
	ProviderName string
	ProviderID   *uuid.UUID
}

// Predicates folds the filters and the role's visibility rules into an
// ordered predicate list.
func (f Filters) Predicates(role enums.Role) []Predicate {
	var preds []Predicate

	switch role {
	case enums.RoleAdmin:
	case enums.RoleProvider:
		preds = append(preds, StatusIn(visibility.ProviderBrowsableStatuses))
	default:
		preds = append(preds,
			StatusIn{enums.ListingStatusActive},
			OwnerEligible{},
		)
	}

	if f.ServiceType != nil {
		preds = append(preds, ServiceTypeIs{Type: *f.ServiceType})
	}
	if text := strings.TrimSpace(f.Search); text != "" {
		preds = append(preds, TextMatch{Text: text})
	}
	if category := strings.TrimSpace(f.TruckType); category != "" {
		preds = append(preds, CategoryIs{Category: category})
	}
	if f.MinCapacity != nil {
		preds = append(preds, CapacityAtLeast{Min: *f.MinCapacity})
	}
	if f.PricingType != nil {
		preds = append(preds, PricingTypeIs{Type: *f.PricingType, ServiceType: f.ServiceType})
	}
	if f.MaxPrice != nil {
		preds = append(preds, PriceAtMost{Max: *f.MaxPrice, PricingType: f.PricingType, ServiceType: f.ServiceType})
	}
	if location := strings.TrimSpace(f.Location); location != "" {
		preds = append(preds, LocationContains{Text: location})
	}
	if name := strings.TrimSpace(f.ProviderName); name != "" && !strings.EqualFold(name, "all") {
		preds = append(preds, ProviderNameIs{Name: name})
	}
	if f.ProviderID != nil {
		preds = append(preds, ProviderIDIs{ID: *f.ProviderID})
	}

	if role != enums.RoleAdmin && role != enums.RoleProvider {
		preds = append(preds, DocumentsAllApproved{})
	}
	return preds
}

// StatusIn keeps listings in one of the given statuses.
type StatusIn []enums.ListingStatus

func (s StatusIn) Apply(q *gorm.DB) *gorm.DB {
	if len(s) == 1 {
		return q.Where("l.status = ?", s[0])
	}
	return q.Where("l.status IN ?", []enums.ListingStatus(s))
}

// OwnerEligible requires a verified provider whose account is active.
type OwnerEligible struct{}

func (OwnerEligible) Apply(q *gorm.DB) *gorm.DB {
	return q.Where("p.is_verified = ? AND u.is_active = ?", true, true)
}

// DocumentsAllApproved is the customer HAVING clause: at least one document
// and every document approved.
type DocumentsAllApproved struct{}

func (DocumentsAllApproved) Apply(q *gorm.DB) *gorm.DB {
	return q.Having(visibility.CustomerHaving, enums.VerificationStatusApproved)
}

type ServiceTypeIs struct {
	Type enums.ServiceType
}

func (s ServiceTypeIs) Apply(q *gorm.DB) *gorm.DB {
	return q.Where("l.service_type = ?", s.Type)
}

// TextMatch is a case-insensitive substring match over plate, make and model.
type TextMatch struct {
	Text string
}

func (t TextMatch) Apply(q *gorm.DB) *gorm.DB {
	pattern := likePattern(t.Text)
	return q.Where(
		`(LOWER(l.license_plate) LIKE ? ESCAPE '\' OR LOWER(l.make) LIKE ? ESCAPE '\' OR LOWER(l.model) LIKE ? ESCAPE '\')`,
		pattern, pattern, pattern,
	)
}

// CategoryIs matches the truck type exactly.
type CategoryIs struct {
	Category string
}

func (c CategoryIs) Apply(q *gorm.DB) *gorm.DB {
	return q.Where("l.truck_type = ?", c.Category)
}

type CapacityAtLeast struct {
	Min decimal.Decimal
}

func (c CapacityAtLeast) Apply(q *gorm.DB) *gorm.DB {
	return q.Where("l.capacity_weight >= ?", c.Min)
}

// PricingTypeIs filters on pricing type. Rental equipment is only priced
// monthly, so a monthly filter on rentals checks the monthly rate instead.
type PricingTypeIs struct {
	Type        enums.PricingType
	ServiceType *enums.ServiceType
}

func (p PricingTypeIs) Apply(q *gorm.DB) *gorm.DB {
	if isRental(p.ServiceType) {
		if p.Type == enums.PricingTypeMonthly {
			return q.Where("l.monthly_rate IS NOT NULL")
		}
		return q
	}
	return q.Where("l.pricing_type = ?", p.Type)
}

// PriceAtMost applies a price ceiling to the rate column matching the
// pricing model: monthly for rentals, per-km or fixed for transport, and
// either of the two when no pricing type is given.
type PriceAtMost struct {
	Max         decimal.Decimal
	PricingType *enums.PricingType
	ServiceType *enums.ServiceType
}

func (p PriceAtMost) Apply(q *gorm.DB) *gorm.DB {
	if isRental(p.ServiceType) {
		return q.Where("l.monthly_rate IS NOT NULL AND l.monthly_rate <= ?", p.Max)
	}
	if p.PricingType != nil {
		switch *p.PricingType {
		case enums.PricingTypePerKM:
			return q.Where("l.price_per_km <= ?", p.Max)
		case enums.PricingTypeFixed:
			return q.Where("l.fixed_price <= ?", p.Max)
		}
	}
	return q.Where("(l.price_per_km <= ? OR l.fixed_price <= ?)", p.Max, p.Max)
}

// LocationContains is a case-insensitive substring match on the work location.
type LocationContains struct {
	Text string
}

func (l LocationContains) Apply(q *gorm.DB) *gorm.DB {
	return q.Where(`LOWER(l.work_location) LIKE ? ESCAPE '\'`, likePattern(l.Text))
}

// ProviderNameIs matches the provider's company name exactly.
type ProviderNameIs struct {
	Name string
}

func (p ProviderNameIs) Apply(q *gorm.DB) *gorm.DB {
	return q.Where("p.company_name = ?", p.Name)
}

type ProviderIDIs struct {
	ID uuid.UUID
}

func (p ProviderIDIs) Apply(q *gorm.DB) *gorm.DB {
	return q.Where("l.provider_id = ?", p.ID)
}

func isRental(serviceType *enums.ServiceType) bool {
	return serviceType != nil && *serviceType == enums.ServiceTypeRental
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likePattern lowercases and escapes user text for a contains match.
func likePattern(text string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(text)) + "%"
}
