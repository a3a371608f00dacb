package model

// ShippingZone prices delivery to a set of states.
type ShippingZone struct {
	ID                    uint       `gorm:"primarykey" json:"id"`
	Name                  string     `gorm:"uniqueIndex;not null" json:"name"`
	Description           string     `json:"description"`
	States                StringList `gorm:"type:text" json:"states"`           // state codes, e.g. DL,UP,HR
	BaseCost              float64    `gorm:"not null" json:"base_cost"`
	FreeShippingThreshold float64    `json:"free_shipping_threshold"`          // 0 disables
	IsDefault             bool       `json:"is_default"`                       // fallback for unknown states
}

func (ShippingZone) TableName() string {
	return "shipping_zones"
}

// Covers reports whether the zone serves state.
func (z *ShippingZone) Covers(state string) bool {
	return z.States.Contains(state)
}

type ShippingMethod struct {
	ID             uint    `gorm:"primarykey" json:"id"`
	Name           string  `gorm:"uniqueIndex;not null" json:"name"`
	Description    string  `json:"description"`
	CostMultiplier float64 `gorm:"not null;default:1" json:"cost_multiplier"`
	EstimatedDays  string  `json:"estimated_days"`
	IsActive       bool    `json:"-"`
}

func (ShippingMethod) TableName() string {
	return "shipping_methods"
}
