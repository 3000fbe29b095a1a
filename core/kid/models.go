package kid

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/mwalimu/core"
)

var (
	Genders        = []string{"male", "female", "other"}
	LearningStyles = []string{"visual", "auditory", "reading", "kinesthetic", "mixed"}
)

// Kid is a child profile managed by the parent.
type Kid struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Age           int       `json:"age"`
	Gender        string    `json:"gender"`
	Interests     []string  `json:"interests"`
	Personality   string    `json:"personality"`
	LearningStyle string    `json:"learning_style"`
	CreatedAt     time.Time `json:"created_at"` // UTC
}

// NewKid contains information needed to create a new Kid.
type NewKid struct {
	Name          string   `json:"name" validate:"required,max=50"`
	Age           int      `json:"age" validate:"required,min=1,max=18"`
	Gender        string   `json:"gender" validate:"omitempty,oneof=male female other"`
	Interests     []string `json:"interests" validate:"omitempty,max=20,dive,max=50"`
	Personality   string   `json:"personality" validate:"max=500"`
	LearningStyle string   `json:"learning_style" validate:"omitempty,oneof=visual auditory reading kinesthetic mixed"`
}

func (nk *NewKid) Validate(validate *validator.Validate) error {
	nk.Name = core.CleanString(nk.Name)
	nk.Gender = core.CleanString(nk.Gender, true /* lower */)
	nk.Interests = core.CleanStrings(nk.Interests)
	nk.Personality = core.CleanString(nk.Personality)
	nk.LearningStyle = core.CleanString(nk.LearningStyle, true /* lower */)
	return validate.Struct(nk)
}

// UpdateKid defines what information may be provided to modify an existing Kid.
// Zero values keep the current value.
type UpdateKid struct {
	Name          string   `json:"name" validate:"max=50"`
	Age           int      `json:"age" validate:"omitempty,min=1,max=18"`
	Gender        string   `json:"gender" validate:"omitempty,oneof=male female other"`
	Interests     []string `json:"interests" validate:"omitempty,max=20,dive,max=50"`
	Personality   *string  `json:"personality" validate:"omitempty,max=500"`
	LearningStyle string   `json:"learning_style" validate:"omitempty,oneof=visual auditory reading kinesthetic mixed"`
}

func (uk *UpdateKid) Validate(validate *validator.Validate) error {
	uk.Name = core.CleanString(uk.Name)
	uk.Gender = core.CleanString(uk.Gender, true /* lower */)
	uk.Interests = core.CleanStrings(uk.Interests)
	if uk.Personality != nil {
		p := core.CleanString(*uk.Personality)
		uk.Personality = &p
	}
	uk.LearningStyle = core.CleanString(uk.LearningStyle, true /* lower */)
	return validate.Struct(uk)
}

// Apply returns k updated with the set fields of uk.
func (uk UpdateKid) Apply(k Kid) Kid {
	if uk.Name != "" {
		k.Name = uk.Name
	}
	if uk.Age != 0 {
		k.Age = uk.Age
	}
	if uk.Gender != "" {
		k.Gender = uk.Gender
	}
	if uk.Interests != nil {
		k.Interests = uk.Interests
	}
	if uk.Personality != nil {
		k.Personality = *uk.Personality
	}
	if uk.LearningStyle != "" {
		k.LearningStyle = uk.LearningStyle
	}
	return k
}

type QueryFilter struct {
	Search string `query:"search"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf == nil || qf.Search == ""
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
}
