package repository

import "github.com/Koyo-os/questionnaire-service/internal/entity"

// DemoFormID identifies the published sample form
const DemoFormID = "demo-form"

// DemoForm is the published product survey used to seed fresh stores
func DemoForm(ownerID string) entity.FormDefinition {
	return entity.FormDefinition{
		ID:          DemoFormID,
		OwnerID:     ownerID,
		Title:       "製品アンケート",
		Description: "新機能の満足度を教えてください。",
		Status:      entity.StatusPublished,
		Questions: []entity.Question{
			{
				ID:       "q1",
				Title:    "今回の新機能にどの程度満足しましたか？",
				Required: true,
				Type:     entity.QuestionSingleChoice,
				Options: []entity.QuestionOption{
					{ID: "q1o1", Label: "とても満足"},
					{ID: "q1o2", Label: "満足"},
					{ID: "q1o3", Label: "普通"},
					{ID: "q1o4", Label: "不満"},
				},
			},
			{
				ID:       "q2",
				Title:    "よかったポイントを選んでください",
				Required: false,
				Type:     entity.QuestionMultiChoice,
				Options: []entity.QuestionOption{
					{ID: "q2o1", Label: "操作性"},
					{ID: "q2o2", Label: "表示速度"},
					{ID: "q2o3", Label: "デザイン"},
				},
			},
			{
				ID:       "q3",
				Title:    "改善してほしい点があれば教えてください",
				Required: false,
				Type:     entity.QuestionText,
			},
		},
	}
}
