package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/reparalo-app/reparalo-backend/pkg/enums"
)

// Shipment tracks one physical leg of a repair. At most one row exists per
// (request, type) pair.
type Shipment struct {
	ID                uuid.UUID               `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	RequestID         uuid.UUID               `gorm:"column:request_id;type:uuid;not null;uniqueIndex:ux_shipments_request_type"`
	Type              enums.ShipmentType      `gorm:"column:type;type:shipment_type;not null;uniqueIndex:ux_shipments_request_type"`
	TrackingNumber    string                  `gorm:"column:tracking_number;type:text;not null;uniqueIndex"`
	Status            enums.ShipmentStatus    `gorm:"column:status;type:shipment_status;not null;default:'created'"`
	OriginName        string                  `gorm:"column:origin_name;type:text;not null"`
	OriginCity        string                  `gorm:"column:origin_city;type:text;not null"`
	DestinationName   string                  `gorm:"column:destination_name;type:text;not null"`
	DestinationCity   string                  `gorm:"column:destination_city;type:text;not null"`
	EstimatedDelivery *time.Time              `gorm:"column:estimated_delivery"`
	DeliveredAt       *time.Time              `gorm:"column:delivered_at"`
	History           []ShipmentStatusHistory `gorm:"foreignKey:ShipmentID;constraint:OnDelete:CASCADE"`
	CreatedAt         time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}

// ShipmentStatusHistory is the append-only audit trail of a shipment. Rows
// are never updated or deleted.
type ShipmentStatusHistory struct {
	ID         uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ShipmentID uuid.UUID            `gorm:"column:shipment_id;type:uuid;not null"`
	Status     enums.ShipmentStatus `gorm:"column:status;type:shipment_status;not null"`
	Location   *string              `gorm:"column:location;type:text"`
	Notes      *string              `gorm:"column:notes;type:text"`
	CreatedAt  time.Time            `gorm:"column:created_at;autoCreateTime"`
}
