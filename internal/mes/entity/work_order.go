package entity

import "time"

// Work order statuses
const (
	WorkOrderStatusCreated    = "created"
	WorkOrderStatusReleased   = "released"
	WorkOrderStatusInProgress = "in_progress"
	WorkOrderStatusCompleted  = "completed"
	WorkOrderStatusCancelled  = "cancelled"
)

// WorkOrder is a production order for a quantity of a manufactured part.
// Material lines are snapshotted from the part's active BOM at release time.
type WorkOrder struct {
	ID          string     `json:"id" gorm:"primaryKey;size:32"`
	OrderNumber string     `json:"order_number" gorm:"size:64;not null;uniqueIndex"`
	PartID      string     `json:"part_id" gorm:"size:32;not null;index"`
	BOMID       *string    `json:"bom_id,omitempty" gorm:"size:32"`
	Quantity    float64    `json:"quantity" gorm:"type:numeric(15,6);not null"`
	Status      string     `json:"status" gorm:"size:16;not null;default:created"` // created/released/in_progress/completed/cancelled
	DueDate     *time.Time `json:"due_date,omitempty"`
	ReleasedAt  *time.Time `json:"released_at,omitempty"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Notes       string     `json:"notes,omitempty"`
	CreatedBy   string     `json:"created_by,omitempty" gorm:"size:32"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	// Relations
	Part      *Part               `json:"part,omitempty" gorm:"foreignKey:PartID"`
	Materials []WorkOrderMaterial `json:"materials,omitempty" gorm:"foreignKey:WorkOrderID"`
}

func (WorkOrder) TableName() string {
	return "mes_work_orders"
}

// WorkOrderMaterial is one required material line, frozen from the BOM
// explosion when the order is released.
type WorkOrderMaterial struct {
	ID               string    `json:"id" gorm:"primaryKey;size:32"`
	WorkOrderID      string    `json:"work_order_id" gorm:"size:32;not null;index"`
	PartID           string    `json:"part_id" gorm:"size:32;not null"`
	RequiredQuantity float64   `json:"required_quantity" gorm:"type:numeric(15,6);not null"`
	ScrapQuantity    float64   `json:"scrap_quantity" gorm:"type:numeric(15,6);not null;default:0"`
	TotalQuantity    float64   `json:"total_quantity" gorm:"type:numeric(15,6);not null"`
	Unit             string    `json:"unit" gorm:"size:16;not null;default:ea"`
	IssuedQuantity   float64   `json:"issued_quantity" gorm:"type:numeric(15,6);not null;default:0"`
	CreatedAt        time.Time `json:"created_at"`

	// Relations
	Part *Part `json:"part,omitempty" gorm:"foreignKey:PartID"`
}

func (WorkOrderMaterial) TableName() string {
	return "mes_work_order_materials"
}
