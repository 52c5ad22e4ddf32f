package attendance

import (
	"fmt"
	"strings"
)

const (
	defaultJoinCode = "join-code"
	defaultSender   = "your_twilio_number"
)

// Format renders a report as the WhatsApp message body.
func Format(r Report) string {
	total := "N/A"
	if r.HasTotal() {
		total = r.TotalPercentage
	}

	var b strings.Builder
	b.WriteString("📚 *Daily Attendance Report* 📚\n\n")
	fmt.Fprintf(&b, "✅ Total Attendance: *%s*\n\n", total)
	b.WriteString("*Subject-wise Breakdown:*\n")
	for _, s := range r.Subjects {
		fmt.Fprintf(&b, "- %s: %s\n", s.Name, s.Status.Label())
	}
	return b.String()
}

// OptInInstruction is appended to every report; the recipient has to join the
// sandbox before WhatsApp delivers anything from sender.
func OptInInstruction(joinCode, sender string) string {
	if joinCode == "" {
		joinCode = defaultJoinCode
	}
	if sender == "" {
		sender = defaultSender
	}
	return fmt.Sprintf("\n\n📢 Send the code \"%s\" to %s to opt-in.", joinCode, sender)
}
