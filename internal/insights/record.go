package insights

// Status labels for the holiday dimension.
const (
	StatusNormal        = "Normal Period"
	StatusSchoolHoliday = "School Holiday"
)

// Summary sentinels. Consumers must treat these as values, not time encodings.
const (
	RarelyFull = "Rarely full"
	Available  = "Available"
)

// Record is the published insight for one facility, holiday status and weekday.
type Record struct {
	Facility       string  `json:"facility"`
	Day            string  `json:"day"`
	DayPriority    int     `json:"day_priority"`
	Status         string  `json:"status"`
	LowDataWarning bool    `json:"low_data_warning"`
	Summary        Summary `json:"summary"`
	Series         []Point `json:"series"`
}

// Summary holds the derived fill and empty times for a record.
type Summary struct {
	FillTime    string  `json:"fill_time"`
	EmptyTime   string  `json:"empty_time"`
	MaxFullProb float64 `json:"max_full_prob"`
}

// Point is one ten-minute slot of the intraday curve.
type Point struct {
	Bin      int     `json:"bin"`
	Label    string  `json:"label"`
	Avg      float64 `json:"avg"`
	SE       float64 `json:"se"`
	FullProb float64 `json:"full_prob"`
	Low      float64 `json:"low"`
	High     float64 `json:"high"`
}

// StatusLabel maps the holiday flag to its display label.
func StatusLabel(schoolHoliday bool) string {
	if schoolHoliday {
		return StatusSchoolHoliday
	}
	return StatusNormal
}
