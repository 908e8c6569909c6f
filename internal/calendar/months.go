package calendar

// DefaultLanguage is used when a picker has no language configured.
const DefaultLanguage = "en"

// LocaleTable holds the month names of one language.
type LocaleTable struct {
	Months      []string
	MonthsShort []string
}

// LocaleSource looks up locale tables by language code.
type LocaleSource interface {
	LocaleTable(lang string) (LocaleTable, bool)
}

// MonthNames returns the twelve labels of the month picker. Abbreviated
// names are preferred; otherwise the full names are cut to three
// characters. Labels are empty when the language is unknown.
func MonthNames(src LocaleSource, lang string) []string {
	names := make([]string, 12)
	if src == nil {
		return names
	}
	if lang == "" {
		lang = DefaultLanguage
	}
	table, ok := src.LocaleTable(lang)
	if !ok {
		return names
	}
	switch {
	case len(table.MonthsShort) == 12:
		copy(names, table.MonthsShort)
	case len(table.Months) == 12:
		for i, m := range table.Months {
			names[i] = abbreviate(m, 3)
		}
	}
	return names
}

func abbreviate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
