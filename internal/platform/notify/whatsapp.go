package notify

import (
	"fmt"
	"net/url"
	"strings"
	"unicode"
)

// WhatsAppLink builds a click-to-chat link to phone with text prefilled.
// Non-digits are stripped from phone; it returns "" when none remain.
func WhatsAppLink(phone, text string) string {
	digits := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, phone)
	if digits == "" {
		return ""
	}
	link := "https://wa.me/" + digits
	if text != "" {
		link += "?text=" + strings.ReplaceAll(url.QueryEscape(text), "+", "%20")
	}
	return link
}

func confirmationText(a Appointment) string {
	return fmt.Sprintf("Hello, I would like to confirm my appointment.\n\nClinic: %s\nPatient: %s\nDate: %s\nTime: %s\nRef: %s",
		a.ClinicName, a.PatientName, a.Date, a.Time, a.Reference)
}

func statusText(a Appointment) string {
	return fmt.Sprintf("Your appointment %s at %s on %s %s is now %s.",
		a.Reference, a.ClinicName, a.Date, a.Time, a.Status)
}

func reminderText(a Appointment) string {
	return fmt.Sprintf("Reminder: you have an appointment at %s on %s at %s (ref %s).",
		a.ClinicName, a.Date, a.Time, a.Reference)
}

// ConfirmationLink is the link a patient opens right after booking to
// message the clinic.
func ConfirmationLink(a Appointment) string {
	return WhatsAppLink(a.ClinicPhone, confirmationText(a))
}
