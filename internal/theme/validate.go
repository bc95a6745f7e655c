package theme

import (
	stdErrors "errors"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/viewfinder/viewfinder/pkg/errors"
)

var (
	validatorInstance *validator.Validate
	validatorOnce     sync.Once
)

var (
	themeNameRegex = regexp.MustCompile(`^[a-z0-9_-]+$`)
	semverRegex    = regexp.MustCompile(`^\d+\.\d+\.\d+(?:-[0-9A-Za-z-.]+)?(?:\+[0-9A-Za-z-.]+)?$`)
)

var fontWeights = map[string]struct{}{
	"normal": {}, "bold": {}, "lighter": {}, "bolder": {},
	"100": {}, "200": {}, "300": {}, "400": {}, "500": {},
	"600": {}, "700": {}, "800": {}, "900": {},
}

var fontStyles = map[string]struct{}{
	"normal": {}, "italic": {}, "oblique": {},
}

// getValidator returns the shared validator instance with theme-specific
// validations registered. Registration happens once.
func getValidator() *validator.Validate {
	validatorOnce.Do(func() {
		validatorInstance = validator.New()

		_ = validatorInstance.RegisterValidation("theme_name", validateThemeName)
		_ = validatorInstance.RegisterValidation("semver", validateSemver)
		_ = validatorInstance.RegisterValidation("color", validateColor)
		_ = validatorInstance.RegisterValidation("font_weight", validateFontWeight)
		_ = validatorInstance.RegisterValidation("font_style", validateFontStyle)
	})
	return validatorInstance
}

func validateThemeName(fl validator.FieldLevel) bool {
	return themeNameRegex.MatchString(fl.Field().String())
}

func validateSemver(fl validator.FieldLevel) bool {
	return semverRegex.MatchString(fl.Field().String())
}

func validateColor(fl validator.FieldLevel) bool {
	_, _, _, _, err := ParseColor(fl.Field().String())
	return err == nil
}

func validateFontWeight(fl validator.FieldLevel) bool {
	_, ok := fontWeights[strings.ToLower(fl.Field().String())]
	return ok
}

func validateFontStyle(fl validator.FieldLevel) bool {
	_, ok := fontStyles[strings.ToLower(fl.Field().String())]
	return ok
}

// Validate checks a configuration against the theme schema. It returns a
// *errors.ValidationError naming the theme and the first offending fields.
func Validate(cfg *Configuration) error {
	if cfg == nil {
		return errors.NewValidationError("theme", errors.ReasonThemeInvalid, "configuration is nil")
	}

	err := getValidator().Struct(cfg)
	if err == nil {
		return nil
	}

	subject := cfg.Name
	if subject == "" {
		subject = "theme"
	}

	var fieldErrs validator.ValidationErrors
	if !stdErrors.As(err, &fieldErrs) {
		return errors.WrapValidationError(subject, errors.ReasonThemeInvalid, err)
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, describeFieldError(fe))
	}
	return errors.NewValidationError(subject, errors.ReasonThemeInvalid, strings.Join(msgs, "; "))
}

func describeFieldError(fe validator.FieldError) string {
	field := strings.TrimPrefix(fe.Namespace(), "Configuration.")
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "theme_name":
		return fmt.Sprintf("%s must contain only lowercase letters, digits, hyphens, and underscores", field)
	case "semver":
		return fmt.Sprintf("%s must be a semantic version (e.g. 1.0.0)", field)
	case "color":
		return fmt.Sprintf("%s is not a valid color value", field)
	case "font_weight":
		return fmt.Sprintf("%s is not a valid font weight", field)
	case "font_style":
		return fmt.Sprintf("%s is not a valid font style", field)
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}
