package locale

import (
	"fmt"
	"os"

	"cloudeng.io/errors"
	"gopkg.in/yaml.v3"

	"github.com/klabast/wb-services/widecal/internal/calendar"
)

type fileTable struct {
	Months      []string `yaml:"months"`
	MonthsShort []string `yaml:"months_short"`
}

// ParseYAML parses locale tables of the form
//
//	nl:
//	  months: [januari, februari, ...]
//	  months_short: [jan, feb, ...]
//
// Every table must list twelve months; months_short is optional.
func ParseYAML(data []byte) (Tables, error) {
	var raw map[string]fileTable
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse locale tables: %w", err)
	}
	tables := Tables{}
	errs := &errors.M{}
	for code, ft := range raw {
		if len(ft.Months) != 12 {
			errs.Append(fmt.Errorf("locale %q: %d months, want 12", code, len(ft.Months)))
			continue
		}
		if n := len(ft.MonthsShort); n != 0 && n != 12 {
			errs.Append(fmt.Errorf("locale %q: %d short months, want 12", code, n))
			continue
		}
		tables[code] = calendar.LocaleTable{Months: ft.Months, MonthsShort: ft.MonthsShort}
	}
	return tables, errs.Err()
}

// LoadFile reads locale tables from a YAML file. Valid tables are
// returned even when others in the file are rejected.
func LoadFile(path string) (Tables, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseYAML(data)
}
