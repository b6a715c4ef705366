package entities

type Insight struct {
	ID          int64  `db:"id" json:"id"`
	FarmID      int64  `db:"farm_id" json:"farm_id"`
	InsightType string `db:"insight_type" json:"insight_type"`
	Title       string `db:"title" json:"title"`
	Description string `db:"description" json:"description"`
	ImpactLevel string `db:"impact_level" json:"impact_level"`
	Status      string `db:"status" json:"status"` // pending|done
	CreatedAt   string `db:"created_at" json:"created_at"`
}
