package model

import "time"

type GlobalConfig struct {
	ID         uint64 `gorm:"primaryKey;autoIncrement:true"`
	SuperAdmin string `gorm:"type:varchar(64)"`
	CreatedAt  time.Time
}

func (GlobalConfig) TableName() string {
	return "global_config"
}
