package model

type VerdictKV struct {
	Key       string `gorm:"column:key;primaryKey"`
	Value     string `gorm:"column:value;type:text;not null"`
	ExpiresAt string `gorm:"column:expires_at;type:text;not null"`
	UpdatedAt string `gorm:"column:updated_at;type:text;not null"`
}

func (VerdictKV) TableName() string {
	return "verdict_kv"
}
