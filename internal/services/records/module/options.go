package module

import (
	"regexp"
	"sync"
	"time"

	"vqamerge/internal/platform/config"
	perr "vqamerge/internal/platform/errors"
	"vqamerge/internal/platform/validate"
	"vqamerge/internal/services/records/domain"
)

// Options holds configuration settings for the records module
type Options struct {
	Output     string        `json:"output" validate:"required_if_jsonl"`
	Sinks      []string      `json:"sinks" validate:"min=1,dive,oneof=jsonl pg ch"`
	Batch      int           `json:"batch" validate:"min=1,max=10000"`
	PGTable    string        `json:"pg_table" validate:"required,sqlident"`
	CHTable    string        `json:"ch_table" validate:"required,sqlident"`
	Fsync      bool          `json:"fsync"`
	FlushEvery int           `json:"flush_every" validate:"min=0"`
	DBTimeout  time.Duration `json:"db_timeout" validate:"min=0"`
}

// FromConfig extracts Options from the given config.Conf
func FromConfig(cfg config.Conf) Options {
	rc := cfg.Prefix("CORE_RECORDS_")
	return Options{
		Output:     rc.MayString("OUTPUT", "merged_vqa.jsonl"),
		Sinks:      rc.MayEnumCSV("SINKS", []string{domain.SinkJSONL}, domain.SinkNames...),
		Batch:      rc.MayInt("BATCH", 1000),
		PGTable:    rc.MayString("PG_TABLE", "vqa_merged"),
		CHTable:    rc.MayString("CH_TABLE", "vqa_merged"),
		Fsync:      rc.MayBool("FSYNC", false),
		FlushEvery: rc.MayNonNegInt("FLUSH_EVERY", 0),
		DBTimeout:  rc.MayDuration("DB_TIMEOUT", 30*time.Second),
	}
}

// Has reports whether sink is enabled
func (o Options) Has(sink string) bool {
	for _, s := range o.Sinks {
		if s == sink {
			return true
		}
	}
	return false
}

// table names are spliced into DDL, so only plain or schema-qualified identifiers pass
var sqlIdent = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,62}(\.[A-Za-z_][A-Za-z0-9_]{0,62})?$`)

var registerOnce sync.Once

func registerRules() {
	registerOnce.Do(func() {
		_ = validate.RegisterRule("sqlident", "{0} must be a plain sql identifier", func(fl validate.FieldLevel) bool {
			return sqlIdent.MatchString(fl.Field().String())
		})
		_ = validate.RegisterRule("required_if_jsonl", "{0} is required when the jsonl sink is enabled", func(fl validate.FieldLevel) bool {
			o, ok := fl.Top().Interface().(Options)
			if !ok {
				o2, ok2 := fl.Top().Interface().(*Options)
				if !ok2 {
					return true
				}
				o = *o2
			}
			return !o.Has(domain.SinkJSONL) || fl.Field().String() != ""
		})
	})
}

// Validate reports the first invalid option as an InvalidArgument error
func (o Options) Validate() error {
	registerRules()
	return validate.Struct(o, perr.ErrorCodeInvalidArgument)
}
