package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	dbtypes "github.com/Aymen-ml/TrunkLogistics-MVP-sub000/pkg/db/types"
	"github.com/Aymen-ml/TrunkLogistics-MVP-sub000/pkg/enums"
)

// Listing is a truck or piece of rental equipment offered by a provider.
type Listing struct {
	ID             uuid.UUID               `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	ProviderID     uuid.UUID               `gorm:"column:provider_id;type:uuid;not null;index" json:"provider_id"`
	ServiceType    enums.ServiceType       `gorm:"column:service_type;type:service_type;not null" json:"service_type"`
	Status         enums.ListingStatus     `gorm:"column:status;type:listing_status;not null;default:active" json:"status"`
	TruckType      string                  `gorm:"column:truck_type;not null" json:"truck_type"`
	LicensePlate   string                  `gorm:"column:license_plate;not null;uniqueIndex" json:"license_plate"`
	Make           *string                 `gorm:"column:make" json:"make,omitempty"`
	Model          *string                 `gorm:"column:model" json:"model,omitempty"`
	Year           *int                    `gorm:"column:year" json:"year,omitempty"`
	CapacityWeight *decimal.Decimal        `gorm:"column:capacity_weight;type:numeric(10,2)" json:"capacity_weight,omitempty"`
	CapacityVolume *decimal.Decimal        `gorm:"column:capacity_volume;type:numeric(10,2)" json:"capacity_volume,omitempty"`
	PricingType    *enums.PricingType      `gorm:"column:pricing_type;type:pricing_type" json:"pricing_type,omitempty"`
	PricePerKM     *decimal.Decimal        `gorm:"column:price_per_km;type:numeric(10,2)" json:"price_per_km,omitempty"`
	FixedPrice     *decimal.Decimal        `gorm:"column:fixed_price;type:numeric(10,2)" json:"fixed_price,omitempty"`
	HourlyRate     *decimal.Decimal        `gorm:"column:hourly_rate;type:numeric(10,2)" json:"hourly_rate,omitempty"`
	DailyRate      *decimal.Decimal        `gorm:"column:daily_rate;type:numeric(10,2)" json:"daily_rate,omitempty"`
	WeeklyRate     *decimal.Decimal        `gorm:"column:weekly_rate;type:numeric(10,2)" json:"weekly_rate,omitempty"`
	MonthlyRate    *decimal.Decimal        `gorm:"column:monthly_rate;type:numeric(10,2)" json:"monthly_rate,omitempty"`
	WorkLocation   *string                 `gorm:"column:work_location" json:"work_location,omitempty"`
	Images         dbtypes.FileDescriptors `gorm:"column:images;type:jsonb;not null;default:'[]'" json:"images"`
	CreatedAt      time.Time               `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time               `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (l *Listing) BeforeCreate(*gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	if l.Images == nil {
		l.Images = dbtypes.FileDescriptors{}
	}
	return nil
}
