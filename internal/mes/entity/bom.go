package entity

import "time"

// BOM statuses
const (
	BOMStatusDraft    = "draft"
	BOMStatusReleased = "released"
	BOMStatusActive   = "active"
	BOMStatusObsolete = "obsolete"
)

// BOM types
const (
	BOMTypeStandard     = "standard"
	BOMTypePhantom      = "phantom"
	BOMTypeConfigurable = "configurable"
)

// BOM item types
const (
	ItemTypeMake    = "make"
	ItemTypeBuy     = "buy"
	ItemTypePhantom = "phantom"
)

// BOM item line types
const (
	LineTypeComponent  = "component"
	LineTypeHardware   = "hardware"
	LineTypeConsumable = "consumable"
	LineTypeReference  = "reference"
)

// BOM is one revisioned structure definition for a parent part. A part may
// carry many BOM revisions but at most one in active status.
type BOM struct {
	ID          string     `json:"id" gorm:"primaryKey;size:32"`
	PartID      string     `json:"part_id" gorm:"size:32;not null;index"`
	Revision    string     `json:"revision" gorm:"size:16;not null;default:A"`
	BOMType     string     `json:"bom_type" gorm:"size:16;not null;default:standard"` // standard/phantom/configurable
	Status      string     `json:"status" gorm:"size:16;not null;default:draft"`      // draft/released/active/obsolete
	Description string     `json:"description,omitempty"`
	Notes       string     `json:"notes,omitempty"`
	ReleasedBy  *string    `json:"released_by,omitempty" gorm:"size:32"`
	ReleasedAt  *time.Time `json:"released_at,omitempty"`
	ActivatedAt *time.Time `json:"activated_at,omitempty"`
	CreatedBy   string     `json:"created_by,omitempty" gorm:"size:32"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	// Relations
	Part  *Part     `json:"part,omitempty" gorm:"foreignKey:PartID"`
	Items []BOMItem `json:"items,omitempty" gorm:"foreignKey:BOMID"`
}

func (BOM) TableName() string {
	return "mes_boms"
}

// BOMItem is one component line on a BOM. Item numbers define presentation
// and explosion order, not uniqueness.
type BOMItem struct {
	ID                  string    `json:"id" gorm:"primaryKey;size:32"`
	BOMID               string    `json:"bom_id" gorm:"size:32;not null;index"`
	ItemNumber          int       `json:"item_number" gorm:"not null;default:0"`
	ComponentPartID     string    `json:"component_part_id" gorm:"size:32;not null"`
	Quantity            float64   `json:"quantity" gorm:"type:numeric(15,6);not null;default:1"`
	UnitOfMeasure       string    `json:"unit_of_measure" gorm:"size:16;not null;default:ea"`
	ItemType            string    `json:"item_type" gorm:"size:16;not null;default:buy"`       // make/buy/phantom
	LineType            string    `json:"line_type" gorm:"size:16;not null;default:component"` // component/hardware/consumable/reference
	ScrapFactor         float64   `json:"scrap_factor" gorm:"type:numeric(8,6);not null;default:0"`
	IsOptional          bool      `json:"is_optional" gorm:"default:false"`
	FindNumber          string    `json:"find_number,omitempty" gorm:"size:32"`
	ReferenceDesignator string    `json:"reference_designator,omitempty" gorm:"size:512"`
	Notes               string    `json:"notes,omitempty"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`

	// Relations
	ComponentPart *Part `json:"component_part,omitempty" gorm:"foreignKey:ComponentPartID"`
}

func (BOMItem) TableName() string {
	return "mes_bom_items"
}
