package entities

type FarmStatus string

const (
	FarmActive   FarmStatus = "active"
	FarmInactive FarmStatus = "inactive"
)

// Farm is a registered tract of land owned by a user.
type Farm struct {
	ID             int64      `db:"id" json:"id"`
	UserID         int64      `db:"user_id" json:"user_id"`
	Name           string     `db:"name" json:"name"`
	Location       string     `db:"location" json:"location"`
	AreaHectares   float64    `db:"area_hectares" json:"area_hectares"`
	CropType       string     `db:"crop_type" json:"crop_type,omitempty"`
	SoilType       string     `db:"soil_type" json:"soil_type,omitempty"`
	IrrigationType string     `db:"irrigation_type" json:"irrigation_type,omitempty"`
	Status         FarmStatus `db:"status" json:"status"`
	CreatedAt      string     `db:"created_at" json:"created_at"`
	UpdatedAt      string     `db:"updated_at" json:"updated_at"`
	OwnerName      string     `db:"owner_name" json:"owner_name,omitempty"` // solo in lettura (join users)
}
