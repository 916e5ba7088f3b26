package filter

import (
	"errors"

	"github.com/asaidimu/go-sieve/utils"
	"go.uber.org/zap"
)

// Validator checks request entries against a Definition.
type Validator struct {
	def    *Definition
	logger *zap.Logger
}

// NewValidator returns a validator for def. A nil logger disables logging.
func NewValidator(def *Definition, logger *zap.Logger) *Validator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Validator{def: def, logger: logger}
}

// Validate groups entries by field and checks every group. The first failure
// aborts validation and is returned as a *FieldError.
func (v *Validator) Validate(entries []Entry) error {
	fields, groups := utils.GroupBy(entries, func(e Entry) string { return e.Field })
	for _, name := range fields {
		if err := v.validateGroup(name, groups[name]); err != nil {
			v.logger.Debug("Filter validation failed",
				zap.String("definition", v.def.Name()),
				zap.String("field", name),
				zap.Error(err),
			)
			return err
		}
	}
	return nil
}

func (v *Validator) validateGroup(name string, group []Entry) error {
	field, ok := v.def.Field(name)
	if !ok {
		return newFieldError(name, ErrUnknownField, "not declared by %q", v.def.Name())
	}
	if err := field.Kind.Validate(group, field.ValueType); err != nil {
		return err
	}
	for _, fn := range v.def.validators[name] {
		for _, entry := range group {
			if err := fn(v.def, entry); err != nil {
				var fe *FieldError
				if errors.As(err, &fe) && errors.Is(err, ErrUserValidation) {
					return err
				}
				return &FieldError{Field: name, Err: ErrUserValidation, Cause: err}
			}
		}
	}
	return nil
}
