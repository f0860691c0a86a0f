package model

type Incident struct {
	ID        string `gorm:"column:id;primaryKey"`
	Kind      string `gorm:"column:kind;type:text;not null"`
	Target    string `gorm:"column:target;type:text;not null"`
	CreatedAt string `gorm:"column:created_at;type:text;not null;index"`
	RiskScore int    `gorm:"column:risk_score;not null"`
	Patterns  string `gorm:"column:patterns;type:text;not null"`
}

func (Incident) TableName() string {
	return "incidents"
}
