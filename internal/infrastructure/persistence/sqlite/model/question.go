package model

import "gorm.io/datatypes"

type Question struct {
	QuestionID       uint64                                `gorm:"column:question_id;primaryKey;autoIncrement"`
	FormID           uint64                                `gorm:"column:form_id;not null;index"`
	Reference        string                                `gorm:"column:reference;type:varchar(50);not null"`
	Content          string                                `gorm:"column:content;type:text;not null"`
	AnswerType       string                                `gorm:"column:answer_type;type:varchar(20);not null"`
	Options          datatypes.JSONType[[]string]          `gorm:"column:options;not null"`
	QuestionMetadata datatypes.JSONType[map[string]string] `gorm:"column:question_metadata;not null"`
	Required         bool                                  `gorm:"column:required;not null;default:false"`
	OrderIndex       int                                   `gorm:"column:order_index;not null;default:0"`
	AIInstructions   *string                               `gorm:"column:ai_instructions;type:text"`
}

func (Question) TableName() string {
	return "questions"
}
