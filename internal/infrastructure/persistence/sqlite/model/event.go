package model

import (
	"time"

	"gorm.io/datatypes"
)

// Event is the append-only mutation log. Only processed, error and the
// created target id change after insert.
type Event struct {
	EventID       uint64                                `gorm:"column:event_id;primaryKey;autoIncrement"`
	Type          string                                `gorm:"column:type;type:varchar(50);not null;index"`
	Data          datatypes.JSON                        `gorm:"column:data;not null"`
	EventMetadata datatypes.JSONType[map[string]string] `gorm:"column:event_metadata;not null"`
	CreatedAt     time.Time                             `gorm:"column:created_at;not null;autoCreateTime"`
	Processed     bool                                  `gorm:"column:processed;not null;default:false;index"`
	Error         *string                               `gorm:"column:error;type:text"`
	TargetKind    string                                `gorm:"column:target_kind;type:varchar(20);not null"`
	FormID        *uint64                               `gorm:"column:form_id;index"`
	EventConfigID *uint64                               `gorm:"column:event_config_id;index"`
}

func (Event) TableName() string {
	return "events"
}
