package conversation

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/example/medication-assistant/internal/dosing"
)

// The extractor is a best-effort helper over one free-text description. A
// field it cannot find is simply missing, never an error; the guided flow
// prompts for whatever is left.

var (
	timePattern     = regexp.MustCompile(`\b([0-9]{1,2}[:h][0-9]{2})\b`)
	dosePattern     = regexp.MustCompile(`(?i)\b([0-9]+(?:[.,][0-9]+)?)\s*(mg|mcg|g|ml|ui)\b`)
	countPattern    = regexp.MustCompile(`(?i)\b([0-9]{1,2})\s*(?:vezes|x)\s*(?:ao|por)\s+dia\b`)
	intervalPattern = regexp.MustCompile(`(?i)\ba\s+cada\s+([0-9]{1,2})\s*(?:horas?|h)\b`)
	repeatPattern   = regexp.MustCompile(`(?i)\bde\s+([0-9]{1,2})\s+em\s+[0-9]{1,2}\s*(?:horas?|h)\b`)
	totalPattern    = regexp.MustCompile(`(?i)\b([0-9]{1,3})\s+doses\b`)
	quantityPattern = regexp.MustCompile(`(?i)\b([0-9]+|meio|meia)\s+(?:comprimidos?|capsulas?|cápsulas?|gotas?|ampolas?)\b`)
	namePattern     = regexp.MustCompile(`^\s*([\pL][\pL ]*?)\s*(?:[0-9,]|$)`)
)

var formKeywords = []struct {
	keyword string
	label   string
}{
	{"comprimido", "comprimido"},
	{"capsula", "capsula"},
	{"gotas", "gotas"},
	{"gota", "gotas"},
	{"xarope", "liquido"},
	{"liquido", "liquido"},
	{"injecao", "injecao"},
}

// extractFields scans one free-text description and fills whatever fields it
// can recognize. The result feeds the same first-missing-field resumption
// used by the guided flow.
func extractFields(text string) scratch {
	var sc scratch
	folded := normalize(text)

	if m := timePattern.FindStringSubmatch(text); m != nil {
		candidate := normalizeTime(m[1])
		if _, err := dosing.ToMinutes(candidate); err == nil {
			sc.FirstTime = candidate
		}
	}
	if m := dosePattern.FindStringSubmatch(text); m != nil {
		sc.Dose = strings.ReplaceAll(m[1], ",", ".") + strings.ToLower(m[2])
	}
	// A recognized number outside the accepted bounds keeps the mode but
	// stays unset, so the guided flow asks for it again.
	if m := countPattern.FindStringSubmatch(text); m != nil {
		sc.Mode = modeDaily
		if count, err := strconv.Atoi(m[1]); err == nil && count >= 1 && count <= dosing.MaxDailyCount {
			sc.CountPerDay = count
		}
	}
	interval := intervalPattern.FindStringSubmatch(text)
	if interval == nil {
		interval = repeatPattern.FindStringSubmatch(text)
	}
	if interval != nil && sc.Mode == "" {
		sc.Mode = modeInterval
		if hours, err := strconv.Atoi(interval[1]); err == nil && hours >= 1 && hours <= dosing.MaxIntervalHours {
			sc.IntervalHours = hours
		}
	}
	if m := totalPattern.FindStringSubmatch(text); m != nil {
		if total, err := strconv.Atoi(m[1]); err == nil && total >= 1 && total <= dosing.MaxTotalDoses {
			sc.TotalDoses = total
		}
	}
	if m := quantityPattern.FindStringSubmatch(text); m != nil {
		sc.Quantity = strings.ToLower(m[1])
	}
	for _, form := range formKeywords {
		if strings.Contains(folded, form.keyword) {
			sc.Form = form.label
			break
		}
	}
	if strings.Contains(folded, "essencial") {
		sc.Category = "essencial"
	} else if strings.Contains(folded, "normal") {
		sc.Category = "normal"
	}
	if m := namePattern.FindStringSubmatch(text); m != nil {
		sc.MedName = strings.TrimSpace(m[1])
	}
	return sc
}
