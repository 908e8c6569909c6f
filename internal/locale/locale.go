// Package locale holds the month name tables the calendar labels its
// month picker with.
package locale

import (
	"sort"
	"strings"

	"github.com/klabast/wb-services/widecal/internal/calendar"
)

// Tables maps language codes to month names. Lookups fall back from a
// regional code such as "fr-CH" to its base language "fr".
type Tables map[string]calendar.LocaleTable

// LocaleTable implements calendar.LocaleSource.
func (t Tables) LocaleTable(lang string) (calendar.LocaleTable, bool) {
	if table, ok := t[lang]; ok {
		return table, true
	}
	lang = strings.ReplaceAll(lang, "_", "-")
	if table, ok := t[lang]; ok {
		return table, true
	}
	for code, table := range t {
		if strings.EqualFold(code, lang) {
			return table, true
		}
	}
	if base, _, ok := strings.Cut(lang, "-"); ok {
		return t.LocaleTable(base)
	}
	return calendar.LocaleTable{}, false
}

// Languages returns the known language codes, sorted.
func (t Tables) Languages() []string {
	codes := make([]string, 0, len(t))
	for code := range t {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// Merge returns a copy of t with the tables of other added, replacing
// tables of the same code.
func (t Tables) Merge(other Tables) Tables {
	merged := make(Tables, len(t)+len(other))
	for code, table := range t {
		merged[code] = table
	}
	for code, table := range other {
		merged[code] = table
	}
	return merged
}

// Builtin returns the tables shipped with the calendar.
func Builtin() Tables {
	return Tables{
		"en": {
			Months: []string{"January", "February", "March", "April", "May", "June",
				"July", "August", "September", "October", "November", "December"},
			MonthsShort: []string{"Jan", "Feb", "Mar", "Apr", "May", "Jun",
				"Jul", "Aug", "Sep", "Oct", "Nov", "Dec"},
		},
		"de": {
			Months: []string{"Januar", "Februar", "März", "April", "Mai", "Juni",
				"Juli", "August", "September", "Oktober", "November", "Dezember"},
			MonthsShort: []string{"Jan", "Feb", "Mär", "Apr", "Mai", "Jun",
				"Jul", "Aug", "Sep", "Okt", "Nov", "Dez"},
		},
		// Only full names, the picker abbreviates them.
		"pl": {
			Months: []string{"styczeń", "luty", "marzec", "kwiecień", "maj", "czerwiec",
				"lipiec", "sierpień", "wrzesień", "październik", "listopad", "grudzień"},
		},
		"fi": {
			Months: []string{"tammikuu", "helmikuu", "maaliskuu", "huhtikuu", "toukokuu", "kesäkuu",
				"heinäkuu", "elokuu", "syyskuu", "lokakuu", "marraskuu", "joulukuu"},
			MonthsShort: []string{"tam", "hel", "maa", "huh", "tou", "kes",
				"hei", "elo", "syy", "lok", "mar", "jou"},
		},
		"fr-CH": {
			Months: []string{"Janvier", "Février", "Mars", "Avril", "Mai", "Juin",
				"Juillet", "Août", "Septembre", "Octobre", "Novembre", "Décembre"},
			MonthsShort: []string{"Jan", "Fév", "Mar", "Avr", "Mai", "Jui",
				"Jul", "Aou", "Sep", "Oct", "Nov", "Déc"},
		},
		"hy": {
			Months: []string{"Հունվար", "Փետրվար", "Մարտ", "Ապրիլ", "Մայիս", "Հունիս",
				"Հուլիս", "Օգոստոս", "Սեպտեմբեր", "Հոկտեմբեր", "Նոյեմբեր", "Դեկտեմբեր"},
			MonthsShort: []string{"Հնվ", "Փետ", "Մար", "Ապր", "Մայ", "Հուն",
				"Հուլ", "Օգս", "Սեպ", "Հոկ", "Նոյ", "Դեկ"},
		},
		"ka": {
			Months: []string{"იანვარი", "თებერვალი", "მარტი", "აპრილი", "მაისი", "ივნისი",
				"ივლისი", "აგვისტო", "სექტემბერი", "ოქტომბერი", "ნოემბერი", "დეკემბერი"},
			MonthsShort: []string{"იან", "თებ", "მარ", "აპრ", "მაი", "ივნ",
				"ივლ", "აგვ", "სექ", "ოქტ", "ნოე", "დეკ"},
		},
	}
}
