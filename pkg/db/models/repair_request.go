package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/reparalo-app/reparalo-backend/pkg/enums"
)

// RepairRequest is the root aggregate of the marketplace: one broken device
// posted by a customer, carried through the full repair lifecycle.
type RepairRequest struct {
	ID                 uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID             uuid.UUID          `gorm:"column:user_id;type:uuid;not null"`
	DeviceBrand        string             `gorm:"column:device_brand;type:text;not null"`
	DeviceModel        string             `gorm:"column:device_model;type:text;not null"`
	DeviceType         enums.DeviceType   `gorm:"column:device_type;type:device_type;not null"`
	ProblemDescription string             `gorm:"column:problem_description;type:text;not null"`
	ProblemCategory    *string            `gorm:"column:problem_category;type:text"`
	City               string             `gorm:"column:city;type:text;not null"`
	Images             pq.StringArray     `gorm:"column:images;type:text[]"`
	Status             enums.RepairStatus `gorm:"column:status;type:repair_status;not null;default:'esperando_ofertas'"`
	SelectedOfferID    *uuid.UUID         `gorm:"column:selected_offer_id;type:uuid"`
	CounterOfferCount  int                `gorm:"column:counter_offer_count;not null;default:0"`
	DiagnosisPaid      bool               `gorm:"column:diagnosis_paid;not null;default:false"`
	FinalQuotePaid     bool               `gorm:"column:final_quote_paid;not null;default:false"`
	Offers             []Offer            `gorm:"foreignKey:RequestID;constraint:OnDelete:CASCADE"`
	Shipments          []Shipment         `gorm:"foreignKey:RequestID;constraint:OnDelete:CASCADE"`
	CreatedAt          time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}
