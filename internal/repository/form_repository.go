package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Koyo-os/questionnaire-service/internal/entity"
	"github.com/Koyo-os/questionnaire-service/pkg/logger"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

type (
	formRecord struct {
		ID          string `gorm:"primaryKey;size:64"`
		OwnerID     string `gorm:"index;size:128"`
		Title       string
		Description string
		Status      string `gorm:"size:16"`
		CreatedAt   time.Time
		UpdatedAt   time.Time
	}

	questionRecord struct {
		FormID   string `gorm:"primaryKey;size:64"`
		ID       string `gorm:"primaryKey;size:64"`
		Position int
		Title    string
		Required bool
		Type     string `gorm:"size:16"`
	}

	optionRecord struct {
		FormID     string `gorm:"primaryKey;size:64"`
		QuestionID string `gorm:"primaryKey;size:64"`
		ID         string `gorm:"primaryKey;size:64"`
		Position   int
		Label      string
	}

	responseRecord struct {
		Seq         uint   `gorm:"primaryKey;autoIncrement"`
		ID          string `gorm:"uniqueIndex;size:64"`
		FormID      string `gorm:"index;size:64"`
		SubmittedAt time.Time
		Answers     string `gorm:"type:text"` // JSON encoded entity.Answers
	}
)

func (formRecord) TableName() string     { return "forms" }
func (questionRecord) TableName() string { return "questions" }
func (optionRecord) TableName() string   { return "question_options" }
func (responseRecord) TableName() string { return "responses" }

// OpenDB connects to the configured SQL backend. driver is "sqlite" or "mysql".
func OpenDB(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "sqlite":
		dialector = sqlite.Open(dsn)
	case "mysql":
		dialector = mysql.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported sql driver %q", driver)
	}

	return gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
}

// Repository stores forms and responses in SQL tables using GORM
type Repository struct {
	db     *gorm.DB
	logger *logger.Logger
}

// Init creates a Repository and migrates its tables
// Parameters:
//   - db: Open GORM connection, owned by the repository from now on
//   - logger: Component logger
//
// Returns error if the migration fails. The connection pool is closed in
// that case so a retried connect does not leak it.
func Init(db *gorm.DB, logger *logger.Logger) (*Repository, error) {
	if err := db.AutoMigrate(&formRecord{}, &questionRecord{}, &optionRecord{}, &responseRecord{}); err != nil {
		logger.Error("error migrate tables", zap.Error(err))
		if sqlDB, dbErr := db.DB(); dbErr == nil {
			if closeErr := sqlDB.Close(); closeErr != nil {
				logger.Warn("error close connection pool", zap.Error(closeErr))
			}
		}
		return nil, err
	}

	return &Repository{
		db:     db,
		logger: logger,
	}, nil
}

// ListForms returns the forms of one owner in creation order
// Parameters:
//   - ownerID: Identifier of the owner
//
// Returns:
//   - []entity.FormDefinition: Forms with their questions, empty when the owner has none
//   - error: Any error that occurred during the query
func (repo *Repository) ListForms(ctx context.Context, ownerID string) ([]entity.FormDefinition, error) {
	var records []formRecord

	res := repo.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at, id").
		Find(&records)
	if err := res.Error; err != nil {
		repo.logger.Error("error list forms",
			zap.String("owner_id", ownerID),
			zap.Error(err))
		return nil, err
	}

	ids := make([]string, len(records))
	for i, r := range records {
		ids[i] = r.ID
	}

	questions, err := repo.loadQuestions(ctx, ids)
	if err != nil {
		return nil, err
	}

	forms := make([]entity.FormDefinition, len(records))
	for i, r := range records {
		forms[i] = r.toEntity(questions[r.ID])
	}
	return forms, nil
}

// GetForm retrieves a form by its ID
// Parameters:
//   - formID: ID of the form to retrieve
//
// Returns:
//   - entity.FormDefinition: Retrieved form with ordered questions and options
//   - error: entity.ErrNotFound for an unknown id, or the query error
func (repo *Repository) GetForm(ctx context.Context, formID string) (entity.FormDefinition, error) {
	var record formRecord

	res := repo.db.WithContext(ctx).Where("id = ?", formID).First(&record)
	if err := res.Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entity.FormDefinition{}, entity.ErrNotFound
		}
		repo.logger.Error("error get form",
			zap.String("form_id", formID),
			zap.Error(err))
		return entity.FormDefinition{}, err
	}

	questions, err := repo.loadQuestions(ctx, []string{formID})
	if err != nil {
		return entity.FormDefinition{}, err
	}

	return record.toEntity(questions[formID]), nil
}

// SaveForm upserts the form row and replaces its questions and options in one transaction
// Parameters:
//   - form: Complete form definition to store
//
// Returns error if any statement of the transaction fails
func (repo *Repository) SaveForm(ctx context.Context, form entity.FormDefinition) error {
	err := repo.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		record := formRecord{
			ID:          form.ID,
			OwnerID:     form.OwnerID,
			Title:       form.Title,
			Description: form.Description,
			Status:      string(form.Status),
		}

		upsert := clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"owner_id", "title", "description", "status", "updated_at"}),
		}
		if err := tx.Clauses(upsert).Create(&record).Error; err != nil {
			return fmt.Errorf("upsert form: %w", err)
		}

		if err := tx.Where("form_id = ?", form.ID).Delete(&optionRecord{}).Error; err != nil {
			return fmt.Errorf("delete options: %w", err)
		}
		if err := tx.Where("form_id = ?", form.ID).Delete(&questionRecord{}).Error; err != nil {
			return fmt.Errorf("delete questions: %w", err)
		}

		questions, options := toRecords(form)
		if len(questions) > 0 {
			if err := tx.Create(&questions).Error; err != nil {
				return fmt.Errorf("insert questions: %w", err)
			}
		}
		if len(options) > 0 {
			if err := tx.Create(&options).Error; err != nil {
				return fmt.Errorf("insert options: %w", err)
			}
		}
		return nil
	})

	if err != nil {
		repo.logger.Error("error save form",
			zap.String("form_id", form.ID),
			zap.Error(err))
		return err
	}

	return nil
}

// AppendResponse stores a response after the existing ones of its form
// Parameters:
//   - resp: Response to store, its FormID must name a stored form
//
// Returns entity.ErrNotFound for an unknown form, or the insert error
func (repo *Repository) AppendResponse(ctx context.Context, resp entity.Response) error {
	if err := repo.ensureForm(ctx, resp.FormID); err != nil {
		return err
	}

	answers, err := json.Marshal(resp.Answers)
	if err != nil {
		return fmt.Errorf("encode answers: %w", err)
	}

	record := responseRecord{
		ID:          resp.ID,
		FormID:      resp.FormID,
		SubmittedAt: resp.SubmittedAt,
		Answers:     string(answers),
	}
	if err := repo.db.WithContext(ctx).Create(&record).Error; err != nil {
		repo.logger.Error("error create response",
			zap.String("form_id", resp.FormID),
			zap.Error(err))
		return err
	}

	return nil
}

// ListResponses returns the responses of a form in submission order
// Parameters:
//   - formID: ID of the form
//
// Returns:
//   - []entity.Response: Responses with decoded answers
//   - error: entity.ErrNotFound for an unknown form, or the query error
func (repo *Repository) ListResponses(ctx context.Context, formID string) ([]entity.Response, error) {
	if err := repo.ensureForm(ctx, formID); err != nil {
		return nil, err
	}

	var records []responseRecord
	res := repo.db.WithContext(ctx).Where("form_id = ?", formID).Order("seq").Find(&records)
	if err := res.Error; err != nil {
		repo.logger.Error("error list responses",
			zap.String("form_id", formID),
			zap.Error(err))
		return nil, err
	}

	out := make([]entity.Response, len(records))
	for i, r := range records {
		var answers entity.Answers
		if err := json.Unmarshal([]byte(r.Answers), &answers); err != nil {
			return nil, fmt.Errorf("decode answers of response %s: %w", r.ID, err)
		}
		out[i] = entity.Response{
			ID:          r.ID,
			FormID:      r.FormID,
			SubmittedAt: r.SubmittedAt,
			Answers:     answers,
		}
	}
	return out, nil
}

// IsHealthy pings the underlying connection pool
func (repo *Repository) IsHealthy() bool {
	sqlDB, err := repo.db.DB()
	if err != nil {
		return false
	}
	return sqlDB.Ping() == nil
}

// Close releases the connection pool
func (repo *Repository) Close() error {
	sqlDB, err := repo.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (repo *Repository) ensureForm(ctx context.Context, formID string) error {
	var count int64
	if err := repo.db.WithContext(ctx).Model(&formRecord{}).Where("id = ?", formID).Count(&count).Error; err != nil {
		repo.logger.Error("error check form",
			zap.String("form_id", formID),
			zap.Error(err))
		return err
	}
	if count == 0 {
		return entity.ErrNotFound
	}
	return nil
}

// loadQuestions returns the ordered questions of the given forms keyed by form id
func (repo *Repository) loadQuestions(ctx context.Context, formIDs []string) (map[string][]entity.Question, error) {
	out := make(map[string][]entity.Question, len(formIDs))
	if len(formIDs) == 0 {
		return out, nil
	}

	var questions []questionRecord
	if err := repo.db.WithContext(ctx).
		Where("form_id IN ?", formIDs).
		Order("form_id, position").
		Find(&questions).Error; err != nil {
		repo.logger.Error("error load questions", zap.Error(err))
		return nil, err
	}

	var options []optionRecord
	if err := repo.db.WithContext(ctx).
		Where("form_id IN ?", formIDs).
		Order("form_id, question_id, position").
		Find(&options).Error; err != nil {
		repo.logger.Error("error load options", zap.Error(err))
		return nil, err
	}

	type key struct{ form, question string }
	optionsByQuestion := make(map[key][]entity.QuestionOption)
	for _, o := range options {
		k := key{o.FormID, o.QuestionID}
		optionsByQuestion[k] = append(optionsByQuestion[k], entity.QuestionOption{ID: o.ID, Label: o.Label})
	}

	for _, q := range questions {
		question := entity.Question{
			ID:       q.ID,
			Title:    q.Title,
			Required: q.Required,
			Type:     entity.QuestionType(q.Type),
		}
		if question.Type != entity.QuestionText {
			question.Options = optionsByQuestion[key{q.FormID, q.ID}]
			if question.Options == nil {
				question.Options = []entity.QuestionOption{}
			}
		}
		out[q.FormID] = append(out[q.FormID], question)
	}
	return out, nil
}

func (r formRecord) toEntity(questions []entity.Question) entity.FormDefinition {
	if questions == nil {
		questions = []entity.Question{}
	}
	return entity.FormDefinition{
		ID:          r.ID,
		OwnerID:     r.OwnerID,
		Title:       r.Title,
		Description: r.Description,
		Status:      entity.FormStatus(r.Status),
		Questions:   questions,
	}
}

func toRecords(form entity.FormDefinition) ([]questionRecord, []optionRecord) {
	questions := make([]questionRecord, 0, len(form.Questions))
	var options []optionRecord

	for qi, q := range form.Questions {
		questions = append(questions, questionRecord{
			FormID:   form.ID,
			ID:       q.ID,
			Position: qi,
			Title:    q.Title,
			Required: q.Required,
			Type:     string(q.Type),
		})
		for oi, o := range q.Options {
			options = append(options, optionRecord{
				FormID:     form.ID,
				QuestionID: q.ID,
				ID:         o.ID,
				Position:   oi,
				Label:      o.Label,
			})
		}
	}
	return questions, options
}
