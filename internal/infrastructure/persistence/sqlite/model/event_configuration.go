package model

import (
	"time"

	"gorm.io/datatypes"
)

type EventDates struct {
	Dates []string `json:"dates"`
}

type EventConfiguration struct {
	EventConfigID     uint64                                `gorm:"column:event_config_id;primaryKey;autoIncrement"`
	EventReference    string                                `gorm:"column:event_reference;type:text;not null"`
	EventType         string                                `gorm:"column:event_type;type:text;not null"`
	EventDescription  *string                               `gorm:"column:event_description;type:text"`
	EventMetadata     datatypes.JSONType[map[string]string] `gorm:"column:event_metadata;not null"`
	EventTypeMetadata datatypes.JSONType[map[string]string] `gorm:"column:event_type_metadata;not null"`
	EventDates        datatypes.JSONType[EventDates]        `gorm:"column:event_dates;not null"`
	ValidityStartDate *time.Time                            `gorm:"column:validity_start_date"`
	ValidityEndDate   *time.Time                            `gorm:"column:validity_end_date"`
	RegistrationDate  time.Time                             `gorm:"column:registration_date;not null"`
	LastUpdateDate    time.Time                             `gorm:"column:last_update_date;not null"`
}

func (EventConfiguration) TableName() string {
	return "event_configurations"
}
