package attendance

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Submission is the user input behind a "mark attendance" action.
type Submission struct {
	StudentID string `json:"student_id" validate:"required"`
	Name      string `json:"name" validate:"required"`
	Status    string `json:"status" validate:"required"`
}

var validate = func() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}()

// Validate trims every field and checks that none is empty. The trimmed
// submission is returned even on failure so forms can be re-filled.
func (s Submission) Validate() (Submission, error) {
	s.StudentID = strings.TrimSpace(s.StudentID)
	s.Name = strings.TrimSpace(s.Name)
	s.Status = strings.TrimSpace(s.Status)

	if err := validate.Struct(s); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fe.Field())
			}
			return s, NewValidationError(fields...)
		}
		return s, err
	}
	return s, nil
}
