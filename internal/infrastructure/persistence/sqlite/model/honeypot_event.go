package model

type HoneypotEvent struct {
	ID         string `gorm:"column:id;primaryKey"`
	ScamType   string `gorm:"column:scam_type;type:text;not null"`
	IncidentID string `gorm:"column:incident_id;type:text;not null;index"`
	Intel      string `gorm:"column:intel_extracted;type:text;not null"`
	CreatedAt  string `gorm:"column:created_at;type:text;not null;index"`
}

func (HoneypotEvent) TableName() string {
	return "honeypot_events"
}
