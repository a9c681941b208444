package session

import (
	"errors"
	"math"

	"github.com/go-playground/validator/v10"
	"github.com/san-kum/slopeviz/internal/stats"
)

// Field names as reported in FieldError.
const (
	FieldN      = "n"
	FieldVarX   = "var_x"
	FieldVarErr = "var_err"
)

var messages = map[string]string{
	FieldN:      "Must be an integer greater than 2",
	FieldVarX:   "Must be greater than 0 and less than 6",
	FieldVarErr: "Must be greater than 0",
}

var fieldNames = map[string]string{
	"N":      FieldN,
	"VarX":   FieldVarX,
	"VarErr": FieldVarErr,
}

var validate *validator.Validate

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())
	_ = validate.RegisterValidation("finite", validateFinite)
	validate.RegisterStructValidation(validateSpread, stats.Params{})
}

func validateFinite(fl validator.FieldLevel) bool {
	return finite(fl.Field().Float())
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

// validateSpread rejects in-range inputs whose standard error or slope
// bounds overflow. Out-of-range fields are left to the field rules.
func validateSpread(sl validator.StructLevel) {
	p := sl.Current().Interface().(stats.Params)
	if p.N < 3 || !(p.VarX > 0 && p.VarX < 6) || !(p.VarErr > 0) || !finite(p.VarErr) {
		return
	}
	se := stats.Compute(p).SE
	b := stats.NewBounds(stats.OriginalSlope, se)
	if !finite(se) || !finite(b.Width()) {
		sl.ReportError(p.VarErr, "var_err", "VarErr", "finite_se", "")
	}
}

// FieldMessage is the message shown when the named field is rejected.
func FieldMessage(field string) string { return messages[field] }

// Validate checks p against the accepted input domain.
func Validate(p stats.Params) error {
	err := validate.Struct(p)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	ve := &ValidationError{}
	for _, fe := range verrs {
		name := fieldNames[fe.StructField()]
		ve.Fields = append(ve.Fields, FieldError{
			Field:   name,
			Value:   fe.Value(),
			Message: messages[name],
		})
	}
	return ve
}
