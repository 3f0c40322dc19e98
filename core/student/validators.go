package student

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/Smarcastic/studesq-mvp/core"
)

var (
	achievementTypeTag  = "achievementtype"
	achievementTypeText = "invalid achievement type"
)

func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(achievementTypeTag, achievementTypeValidation)
	core.RegisterCustomTranslation(validate, translator, achievementTypeTag, achievementTypeText)
}

func achievementTypeValidation(fl validator.FieldLevel) bool {
	return AchievementType(fl.Field().String()).Valid()
}
