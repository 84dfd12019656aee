package models

import (
	"strings"

	"github.com/claude/liftlog/internal/load"
)

// exerciseTypeMap maps lowercased exercise type spellings, as they show up in
// forms and CSV files, to the canonical type names. Covers English and
// Portuguese.
var exerciseTypeMap = map[string]string{
	// English
	"weight":       load.TypeWeight,
	"weights":      load.TypeWeight,
	"weighted":     load.TypeWeight,
	"free weight":  load.TypeWeight,
	"machine":      load.TypeWeight,
	"bodyweight":   load.TypeBodyweight,
	"body weight":  load.TypeBodyweight,
	"body-weight":  load.TypeBodyweight,
	"calisthenics": load.TypeBodyweight,

	// Portuguese
	"peso":          load.TypeWeight,
	"peso livre":    load.TypeWeight,
	"carga":         load.TypeWeight,
	"máquina":       load.TypeWeight,
	"maquina":       load.TypeWeight,
	"peso corporal": load.TypeBodyweight,
	"peso do corpo": load.TypeBodyweight,
	"calistenia":    load.TypeBodyweight,
}

// NormalizeExerciseType maps a possibly-localized exercise type to its
// canonical name. Returns the canonical name and true if recognized, or the
// original string and false if unknown.
func NormalizeExerciseType(raw string) (string, bool) {
	lower := strings.ToLower(strings.TrimSpace(raw))
	if canonical, ok := exerciseTypeMap[lower]; ok {
		return canonical, true
	}
	return raw, false
}

// Weekdays in plan order.
var Weekdays = []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}

var weekdayMap = map[string]string{
	"monday": "monday", "mon": "monday", "segunda": "monday", "segunda-feira": "monday",
	"tuesday": "tuesday", "tue": "tuesday", "terça": "tuesday", "terca": "tuesday", "terça-feira": "tuesday",
	"wednesday": "wednesday", "wed": "wednesday", "quarta": "wednesday", "quarta-feira": "wednesday",
	"thursday": "thursday", "thu": "thursday", "quinta": "thursday", "quinta-feira": "thursday",
	"friday": "friday", "fri": "friday", "sexta": "friday", "sexta-feira": "friday",
	"saturday": "saturday", "sat": "saturday", "sábado": "saturday", "sabado": "saturday",
	"sunday": "sunday", "sun": "sunday", "domingo": "sunday",
}

// NormalizeWeekday maps an English or Portuguese weekday name to its
// lowercase English form.
func NormalizeWeekday(raw string) (string, bool) {
	lower := strings.ToLower(strings.TrimSpace(raw))
	if canonical, ok := weekdayMap[lower]; ok {
		return canonical, true
	}
	return raw, false
}
