package whatsapp

import (
	"strings"
	"time"
)

// MessageKind identifies which notification a message belongs to.
type MessageKind string

const (
	KindConfirmation MessageKind = "confirmation"
	KindReminder     MessageKind = "reminder"
	KindFollowUp     MessageKind = "followup"
)

// Default message templates. Hospitals may override any of them; an empty
// override falls back to the default.
const (
	DefaultConfirmationTemplate = "Hello {{patient_name}},\n" +
		"Your appointment with {{doctor_name}} is confirmed:\n" +
		"\U0001F5D3 Date: {{date}}\n" +
		"⏰ Time: {{time_slot}}\n" +
		"– {{hospital_name}}"

	DefaultReminderTemplate = "Hello {{patient_name}},\n" +
		"Reminder: Your appointment with {{doctor_name}} is scheduled for:\n" +
		"\U0001F5D3 Date: {{date}}\n" +
		"⏰ Time: {{time_slot}}\n" +
		"Please arrive on time.\n" +
		"– {{hospital_name}}"

	DefaultFollowUpTemplate = "Hello {{patient_name}},\n" +
		"This is a reminder for your follow-up visit with {{doctor_name}}.\n" +
		"\U0001F4C5 Date: {{followup_date}}\n" +
		"– {{hospital_name}}"
)

func defaultTemplate(kind MessageKind) string {
	switch kind {
	case KindConfirmation:
		return DefaultConfirmationTemplate
	case KindReminder:
		return DefaultReminderTemplate
	case KindFollowUp:
		return DefaultFollowUpTemplate
	default:
		return ""
	}
}

// Render expands {{placeholder}} markers in the template for the given kind.
// A non-empty override replaces the default template wholesale.
func Render(kind MessageKind, override string, data map[string]string) string {
	tmpl := override
	if tmpl == "" {
		tmpl = defaultTemplate(kind)
	}
	for k, v := range data {
		tmpl = strings.ReplaceAll(tmpl, "{{"+k+"}}", v)
	}
	return tmpl
}

// FormatDate renders a date the way it appears in messages, e.g. "05 Sep 2026".
func FormatDate(d time.Time) string {
	return d.Format("02 Jan 2006")
}

// FormatTime converts a 24-hour slot like "14:30" to "2:30 PM". Unparseable
// input is returned unchanged.
func FormatTime(slot string) string {
	t, err := time.Parse("15:04", slot)
	if err != nil {
		return slot
	}
	return t.Format("3:04 PM")
}
