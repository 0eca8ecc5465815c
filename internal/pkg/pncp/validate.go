package pncp

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"
	"time"

	"pncp/internal/apperrors"

	"github.com/go-playground/validator/v10"
)

const (
	dateLayout = "20060102"

	invalidDateMessage = "Formato de data inválido. Use AAAAMMDD (ex: 20231201)"
)

var dateRegex = regexp.MustCompile(`^\d{8}$`)

var requiredFields = map[ReportType][]string{
	ReportHistorico:     {"dataInicial", "dataFinal", "codigoModalidadeContratacao"},
	ReportOportunidades: {"dataFinal", "codigoModalidadeContratacao"},
	ReportAtas:          {"dataInicial", "dataFinal"},
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		_ = validate.RegisterValidation("pncpdate", func(fl validator.FieldLevel) bool {
			return IsDate(fl.Field().String())
		})
	})
	return validate
}

// IsDate reports whether s is an AAAAMMDD date as the upstream API expects.
func IsDate(s string) bool {
	return dateRegex.MatchString(s)
}

// FormatDate renders t as AAAAMMDD.
func FormatDate(t time.Time) string {
	return t.Format(dateLayout)
}

// RequiredFields lists the mandatory filters of a report, in message order.
func RequiredFields(rt ReportType) []string {
	return requiredFields[rt]
}

// Prepare fills pagination defaults and validates p. Failures are
// *apperrors.ValidationError.
func Prepare(p Params) error {
	p.pagination().applyDefaults()

	err := getValidator().Struct(p)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return &apperrors.ValidationError{Message: err.Error()}
	}

	var missing, badDates, other []string
	for _, fe := range fieldErrs {
		switch fe.Tag() {
		case "required":
			missing = append(missing, fe.Field())
		case "pncpdate":
			badDates = append(badDates, fe.Field())
		default:
			other = append(other, describe(fe))
		}
	}

	switch {
	case len(missing) > 0:
		return &apperrors.ValidationError{
			Message: "Parâmetros obrigatórios: " + strings.Join(RequiredFields(p.Report()), ", "),
			Fields:  missing,
		}
	case len(badDates) > 0:
		return &apperrors.ValidationError{Message: invalidDateMessage, Fields: badDates}
	default:
		return &apperrors.ValidationError{Message: "Parâmetro inválido: " + strings.Join(other, "; ")}
	}
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "gte":
		return fmt.Sprintf("%s deve ser maior ou igual a %s", fe.Field(), fe.Param())
	case "lte":
		return fmt.Sprintf("%s deve ser menor ou igual a %s", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s (%s)", fe.Field(), fe.Tag())
	}
}
