package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"formcfg/internal/infrastructure/persistence/sqlite/model"
	"formcfg/internal/ports"
)

type FormRepository struct {
	db *gorm.DB
}

var _ ports.FormRepository = (*FormRepository)(nil)

func NewFormRepository(db *gorm.DB) *FormRepository {
	return &FormRepository{db: db}
}

func (r *FormRepository) CreateForm(ctx context.Context, form ports.Form) (ports.Form, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return ports.Form{}, err
	}

	row := model.FormConfiguration{
		Title:               form.Title,
		Category:            form.Category,
		Subcategory:         form.Subcategory,
		CategoryMetadata:    datatypes.NewJSONType(nonNilMap(form.CategoryMetadata)),
		SubcategoryMetadata: datatypes.NewJSONType(nonNilMap(form.SubcategoryMetadata)),
		CreatedAt:           form.CreatedAt,
		UpdatedAt:           form.UpdatedAt,
	}
	if err := db.Create(&row).Error; err != nil {
		return ports.Form{}, storeErr(err, "insert form")
	}
	return mapForm(row), nil
}

func (r *FormRepository) GetForm(ctx context.Context, formID uint64) (ports.Form, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return ports.Form{}, err
	}

	var row model.FormConfiguration
	if err := db.Where("form_id = ?", formID).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.Form{}, ports.ErrFormNotFound
		}
		return ports.Form{}, storeErr(err, "query form")
	}

	questions, err := listQuestions(db, formID)
	if err != nil {
		return ports.Form{}, err
	}

	form := mapForm(row)
	form.Questions = questions
	return form, nil
}

func (r *FormRepository) ListForms(ctx context.Context) ([]ports.Form, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return nil, err
	}

	var rows []model.FormConfiguration
	if err := db.Order("form_id asc").Find(&rows).Error; err != nil {
		return nil, storeErr(err, "query forms")
	}

	items := make([]ports.Form, 0, len(rows))
	for _, row := range rows {
		items = append(items, mapForm(row))
	}
	return items, nil
}

func (r *FormRepository) UpdateForm(ctx context.Context, form ports.Form) error {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return err
	}

	updatedAt := form.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}

	result := db.Model(&model.FormConfiguration{}).
		Where("form_id = ?", form.FormID).
		Updates(map[string]any{
			"title":                form.Title,
			"category":             form.Category,
			"subcategory":          form.Subcategory,
			"category_metadata":    datatypes.NewJSONType(nonNilMap(form.CategoryMetadata)),
			"subcategory_metadata": datatypes.NewJSONType(nonNilMap(form.SubcategoryMetadata)),
			"updated_at":           updatedAt,
		})
	if result.Error != nil {
		return storeErr(result.Error, "update form")
	}
	if result.RowsAffected == 0 {
		return ports.ErrFormNotFound
	}
	return nil
}

func (r *FormRepository) TouchForm(ctx context.Context, formID uint64, updatedAt time.Time) error {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return err
	}

	result := db.Model(&model.FormConfiguration{}).
		Where("form_id = ?", formID).
		Update("updated_at", updatedAt)
	if result.Error != nil {
		return storeErr(result.Error, "touch form updated_at")
	}
	if result.RowsAffected == 0 {
		return ports.ErrFormNotFound
	}
	return nil
}

func (r *FormRepository) DeleteForm(ctx context.Context, formID uint64) (bool, error) {
	if ports.InTx(ctx) {
		db, err := dbFromContext(ctx, r.db)
		if err != nil {
			return false, err
		}

		if err := db.Where("form_id = ?", formID).Delete(&model.Question{}).Error; err != nil {
			return false, storeErr(err, "delete form questions")
		}
		result := db.Where("form_id = ?", formID).Delete(&model.FormConfiguration{})
		if result.Error != nil {
			return false, storeErr(result.Error, "delete form")
		}
		return result.RowsAffected > 0, nil
	}

	var existed bool
	if err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ok, err := r.DeleteForm(ports.WithTxContext(ctx, tx), formID)
		if err != nil {
			return err
		}
		existed = ok
		return nil
	}); err != nil {
		return false, err
	}
	return existed, nil
}

func (r *FormRepository) AddQuestion(ctx context.Context, question ports.Question) (ports.Question, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return ports.Question{}, err
	}

	row := model.Question{
		FormID:           question.FormID,
		Reference:        question.Reference,
		Content:          question.Content,
		AnswerType:       question.AnswerType,
		Options:          datatypes.NewJSONType(nonNilSlice(question.Options)),
		QuestionMetadata: datatypes.NewJSONType(nonNilMap(question.QuestionMetadata)),
		Required:         question.Required,
		OrderIndex:       question.Order,
		AIInstructions:   question.AIInstructions,
	}
	if err := db.Create(&row).Error; err != nil {
		return ports.Question{}, storeErr(err, "insert question")
	}
	return mapQuestion(row), nil
}

func (r *FormRepository) GetQuestion(ctx context.Context, questionID uint64) (ports.Question, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return ports.Question{}, err
	}

	var row model.Question
	if err := db.Where("question_id = ?", questionID).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.Question{}, ports.ErrQuestionNotFound
		}
		return ports.Question{}, storeErr(err, "query question")
	}
	return mapQuestion(row), nil
}

func (r *FormRepository) ListQuestions(ctx context.Context, formID uint64) ([]ports.Question, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return nil, err
	}
	return listQuestions(db, formID)
}

func (r *FormRepository) UpdateQuestion(ctx context.Context, question ports.Question) error {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return err
	}

	result := db.Model(&model.Question{}).
		Where("question_id = ?", question.QuestionID).
		Updates(map[string]any{
			"reference":         question.Reference,
			"content":           question.Content,
			"answer_type":       question.AnswerType,
			"options":           datatypes.NewJSONType(nonNilSlice(question.Options)),
			"question_metadata": datatypes.NewJSONType(nonNilMap(question.QuestionMetadata)),
			"required":          question.Required,
			"order_index":       question.Order,
			"ai_instructions":   question.AIInstructions,
		})
	if result.Error != nil {
		return storeErr(result.Error, "update question")
	}
	if result.RowsAffected == 0 {
		return ports.ErrQuestionNotFound
	}
	return nil
}

func (r *FormRepository) DeleteQuestion(ctx context.Context, questionID uint64) (bool, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return false, err
	}

	result := db.Where("question_id = ?", questionID).Delete(&model.Question{})
	if result.Error != nil {
		return false, storeErr(result.Error, "delete question")
	}
	return result.RowsAffected > 0, nil
}

func listQuestions(db *gorm.DB, formID uint64) ([]ports.Question, error) {
	var rows []model.Question
	if err := db.
		Where("form_id = ?", formID).
		Order("order_index asc").
		Order("question_id asc").
		Find(&rows).Error; err != nil {
		return nil, storeErr(err, "query questions")
	}

	items := make([]ports.Question, 0, len(rows))
	for _, row := range rows {
		items = append(items, mapQuestion(row))
	}
	return items, nil
}

func mapForm(row model.FormConfiguration) ports.Form {
	return ports.Form{
		FormID:              row.FormID,
		Title:               row.Title,
		Category:            row.Category,
		Subcategory:         row.Subcategory,
		CategoryMetadata:    nonNilMap(row.CategoryMetadata.Data()),
		SubcategoryMetadata: nonNilMap(row.SubcategoryMetadata.Data()),
		CreatedAt:           row.CreatedAt,
		UpdatedAt:           row.UpdatedAt,
	}
}

func mapQuestion(row model.Question) ports.Question {
	return ports.Question{
		QuestionID:       row.QuestionID,
		FormID:           row.FormID,
		Reference:        row.Reference,
		Content:          row.Content,
		AnswerType:       row.AnswerType,
		Options:          nonNilSlice(row.Options.Data()),
		QuestionMetadata: nonNilMap(row.QuestionMetadata.Data()),
		Required:         row.Required,
		Order:            row.OrderIndex,
		AIInstructions:   row.AIInstructions,
	}
}
