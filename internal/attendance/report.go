package attendance

// TotalUnavailable is stored in Report.TotalPercentage when the portal did not
// show an overall percentage.
const TotalUnavailable = "unavailable"

// Credentials are the portal login supplied with a single request.
type Credentials struct {
	Username string
	Password string
}

// Status is the attendance mark of one subject. Values other than
// StatusPresent and StatusAbsent are carried verbatim from the portal.
type Status string

const (
	StatusPresent Status = "Present"
	StatusAbsent  Status = "Absent"
)

// Label renders the status for a message.
func (s Status) Label() string {
	switch s {
	case StatusPresent:
		return "✅ Present"
	case StatusAbsent:
		return "❌ Absent"
	default:
		return string(s)
	}
}

// Subject is one row of the portal's attendance list.
type Subject struct {
	Name     string `json:"subject"`
	TimeSlot string `json:"time_slot"`
	Faculty  string `json:"faculty"`
	Status   Status `json:"status"`
}

// Report is the result of one successful scrape. Subjects keep page order.
type Report struct {
	TotalPercentage string    `json:"total_percentage"`
	Subjects        []Subject `json:"subjects"`
}

// HasTotal reports whether the overall percentage was read from the portal.
func (r Report) HasTotal() bool {
	return r.TotalPercentage != "" && r.TotalPercentage != TotalUnavailable
}
