package config

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/robfig/cron/v3"
)

var (
	validate   *validator.Validate
	translator ut.Translator
)

func init() {
	validate = validator.New()
	var ok bool
	translator, ok = ut.New(en.New(), en.New()).GetTranslator("en")
	if !ok {
		panic("config: failed to get 'en' translator")
	}

	if err := en_translations.RegisterDefaultTranslations(validate, translator); err != nil {
		panic(err)
	}

	// Report fields by their YAML names so messages match the file.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// Validate validates the configuration and returns a ConfigurationError
// wrapping a ValidationError if any rule fails. All failures are collected
// and returned together.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, ValidateStruct(cfg)...)

	if cfg.Journal.Enabled && cfg.Journal.Retention.PruneSchedule != "" {
		if _, err := cron.ParseStandard(cfg.Journal.Retention.PruneSchedule); err != nil {
			errs = append(errs, FieldError{
				Field:   "journal.retention.prune_schedule",
				Message: "invalid cron expression: " + err.Error(),
			})
		}
	}

	if cfg.Journal.Enabled && cfg.Journal.Backend != "memory" && cfg.Journal.Path == "" {
		errs = append(errs, FieldError{
			Field:   "journal.path",
			Message: "path is required for the sqlite backends",
		})
	}

	if len(errs) > 0 {
		return &ConfigurationError{
			Message: "invalid configuration",
			Err:     ValidationError{Errors: errs},
		}
	}
	return nil
}

// ValidateStruct checks v against its declared validate tags and returns one
// FieldError per failing field. Field paths use the yaml names and omit the
// root struct name.
func ValidateStruct(v any) []FieldError {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrors validator.ValidationErrors
	if !errors.As(err, &verrors) {
		return []FieldError{{Field: "", Message: err.Error()}}
	}

	fields := make([]FieldError, 0, len(verrors))
	for _, verror := range verrors {
		fields = append(fields, FieldError{
			Field:   fieldPath(verror.Namespace()),
			Message: verror.Translate(translator),
		})
	}
	return fields
}

// fieldPath turns "Config.server.port" into "server.port".
func fieldPath(namespace string) string {
	if i := strings.Index(namespace, "."); i >= 0 {
		return namespace[i+1:]
	}
	return namespace
}
