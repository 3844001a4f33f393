package model

import (
	"time"

	"gorm.io/datatypes"
)

type FormConfiguration struct {
	FormID              uint64                                `gorm:"column:form_id;primaryKey;autoIncrement"`
	Title               string                                `gorm:"column:title;type:varchar(200);not null"`
	Category            string                                `gorm:"column:category;type:varchar(100);not null"`
	Subcategory         *string                               `gorm:"column:subcategory;type:varchar(100)"`
	CategoryMetadata    datatypes.JSONType[map[string]string] `gorm:"column:category_metadata;not null"`
	SubcategoryMetadata datatypes.JSONType[map[string]string] `gorm:"column:subcategory_metadata;not null"`
	CreatedAt           time.Time                             `gorm:"column:created_at;not null;autoCreateTime"`
	UpdatedAt           time.Time                             `gorm:"column:updated_at;not null;autoUpdateTime"`
}

func (FormConfiguration) TableName() string {
	return "form_configurations"
}
