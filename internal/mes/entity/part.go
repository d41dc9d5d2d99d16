package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Part types
const (
	PartTypeManufactured = "manufactured"
	PartTypePurchased    = "purchased"
	PartTypeAssembly     = "assembly"
	PartTypeRaw          = "raw_material"
	PartTypeHardware     = "hardware"
	PartTypeConsumable   = "consumable"
)

// Part statuses
const (
	PartStatusActive   = "active"
	PartStatusInactive = "inactive"
	PartStatusObsolete = "obsolete"
)

// Part is a catalog entry in the part master. Part numbers are
// human-assigned and stored upper-cased; parts are never hard-deleted,
// deletion marks them obsolete.
type Part struct {
	ID            string           `json:"id" gorm:"primaryKey;size:32"`
	PartNumber    string           `json:"part_number" gorm:"size:64;not null;index:idx_mes_parts_number,unique,where:status <> 'obsolete'"`
	Name          string           `json:"name" gorm:"size:128;not null"`
	Description   string           `json:"description,omitempty"`
	Revision      string           `json:"revision,omitempty" gorm:"size:16;default:A"`
	PartType      string           `json:"part_type" gorm:"size:16;not null;default:purchased"` // manufactured/purchased/assembly/raw_material/hardware/consumable
	UnitOfMeasure string           `json:"unit_of_measure" gorm:"size:16;not null;default:ea"`
	Status        string           `json:"status" gorm:"size:16;not null;default:active"` // active/inactive/obsolete
	StandardCost  *decimal.Decimal `json:"standard_cost,omitempty" gorm:"type:numeric(15,4)"`
	LeadTimeDays  *int             `json:"lead_time_days,omitempty"`
	Supplier      string           `json:"supplier,omitempty" gorm:"size:128"`
	DrawingNo     string           `json:"drawing_no,omitempty" gorm:"size:64"`
	CreatedBy     string           `json:"created_by,omitempty" gorm:"size:32"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`

	// HasBOM is derived at read time: true when an active BOM exists for this part.
	HasBOM bool `json:"has_bom" gorm:"-"`
}

func (Part) TableName() string {
	return "mes_parts"
}
