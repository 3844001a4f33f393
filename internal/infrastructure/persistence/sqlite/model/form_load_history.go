package model

import "time"

type FormLoadHistory struct {
	LoadID       uint64    `gorm:"column:load_id;primaryKey;autoIncrement"`
	FormID       uint64    `gorm:"column:form_id;not null;index"`
	LoadedAt     time.Time `gorm:"column:loaded_at;not null"`
	IPAddress    *string   `gorm:"column:ip_address;type:varchar(45)"`
	UserAgent    *string   `gorm:"column:user_agent;type:varchar(255)"`
	Success      bool      `gorm:"column:success;not null"`
	ErrorMessage *string   `gorm:"column:error_message;type:text"`
}

func (FormLoadHistory) TableName() string {
	return "form_load_history"
}
