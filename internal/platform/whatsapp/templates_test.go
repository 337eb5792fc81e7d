package whatsapp

import (
	"strings"
	"testing"
	"time"
)

func TestRenderConfirmationDefault(t *testing.T) {
	msg := Render(KindConfirmation, "", map[string]string{
		"patient_name":  "Asha",
		"doctor_name":   "Dr. Rao",
		"date":          "05 Sep 2026",
		"time_slot":     "10:30 AM",
		"hospital_name": "City Care",
	})

	for _, want := range []string{"Asha", "Dr. Rao", "05 Sep 2026", "10:30 AM", "City Care"} {
		if !strings.Contains(msg, want) {
			t.Errorf("message missing %q:\n%s", want, msg)
		}
	}
	if strings.Contains(msg, "{{") {
		t.Errorf("unexpanded placeholder in message:\n%s", msg)
	}
}

func TestRenderHospitalOverride(t *testing.T) {
	msg := Render(KindConfirmation, "Namaste {{patient_name}}, see you at {{hospital_name}}!", map[string]string{
		"patient_name":  "Asha",
		"hospital_name": "City Care",
	})
	if msg != "Namaste Asha, see you at City Care!" {
		t.Errorf("unexpected message: %s", msg)
	}
}

func TestRenderLeavesUnknownPlaceholders(t *testing.T) {
	msg := Render(KindFollowUp, "", map[string]string{"patient_name": "Asha"})
	if !strings.Contains(msg, "{{doctor_name}}") {
		t.Error("placeholders without data should be left intact")
	}
}

func TestFormatTime(t *testing.T) {
	tests := []struct{ in, want string }{
		{"09:30", "9:30 AM"},
		{"12:30", "12:30 PM"},
		{"14:30", "2:30 PM"},
		{"20:30", "8:30 PM"},
		{"garbage", "garbage"},
	}
	for _, tt := range tests {
		if got := FormatTime(tt.in); got != tt.want {
			t.Errorf("FormatTime(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatDate(t *testing.T) {
	d := time.Date(2026, time.September, 5, 0, 0, 0, 0, time.UTC)
	if got := FormatDate(d); got != "05 Sep 2026" {
		t.Errorf("FormatDate = %q", got)
	}
}
