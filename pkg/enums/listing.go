package enums

import "fmt"

// ServiceType maps to the service_type enum in Postgres.
type ServiceType string

const (
	ServiceTypeTransport ServiceType = "transport"
	ServiceTypeRental    ServiceType = "rental"
)

var validServiceTypes = []ServiceType{
	ServiceTypeTransport,
	ServiceTypeRental,
}

// String implements fmt.Stringer.
func (s ServiceType) String() string {
	return string(s)
}

// IsValid reports whether the value matches the canonical service_type enum.
func (s ServiceType) IsValid() bool {
	for _, candidate := range validServiceTypes {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseServiceType converts raw input into ServiceType.
func ParseServiceType(value string) (ServiceType, error) {
	for _, candidate := range validServiceTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid service type %q", value)
}

// ListingStatus maps to the listing_status enum in Postgres.
type ListingStatus string

const (
	ListingStatusActive      ListingStatus = "active"
	ListingStatusInactive    ListingStatus = "inactive"
	ListingStatusMaintenance ListingStatus = "maintenance"
)

var validListingStatuses = []ListingStatus{
	ListingStatusActive,
	ListingStatusInactive,
	ListingStatusMaintenance,
}

// String implements fmt.Stringer.
func (l ListingStatus) String() string {
	return string(l)
}

// IsValid reports whether the value matches the canonical listing_status enum.
func (l ListingStatus) IsValid() bool {
	for _, candidate := range validListingStatuses {
		if candidate == l {
			return true
		}
	}
	return false
}

// ParseListingStatus converts raw input into ListingStatus.
func ParseListingStatus(value string) (ListingStatus, error) {
	for _, candidate := range validListingStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid listing status %q", value)
}

// PricingType maps to the pricing_type enum in Postgres.
type PricingType string

const (
	PricingTypePerKM   PricingType = "per_km"
	PricingTypeFixed   PricingType = "fixed"
	PricingTypeHourly  PricingType = "hourly"
	PricingTypeDaily   PricingType = "daily"
	PricingTypeWeekly  PricingType = "weekly"
	PricingTypeMonthly PricingType = "monthly"
)

var validPricingTypes = []PricingType{
	PricingTypePerKM,
	PricingTypeFixed,
	PricingTypeHourly,
	PricingTypeDaily,
	PricingTypeWeekly,
	PricingTypeMonthly,
}

// String implements fmt.Stringer.
func (p PricingType) String() string {
	return string(p)
}

// IsValid reports whether the value matches the canonical pricing_type enum.
func (p PricingType) IsValid() bool {
	for _, candidate := range validPricingTypes {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePricingType converts raw input into PricingType.
func ParsePricingType(value string) (PricingType, error) {
	for _, candidate := range validPricingTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid pricing type %q", value)
}
