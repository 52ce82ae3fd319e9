package timebin

import "fmt"

var dayNames = [DaysPerWeek]string{
	"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday",
}

// DayName returns the English name for a Monday=0 day index.
func DayName(dow int) string {
	if dow < 0 || dow >= DaysPerWeek {
		return fmt.Sprintf("Day %d", dow)
	}
	return dayNames[dow]
}

// Label renders a bin as a 12-hour clock time, e.g. 45 -> "7:30 AM".
func Label(bin int) string {
	hour := bin / 6
	minute := (bin % 6) * binMinutes
	period := "AM"
	if hour >= 12 {
		period = "PM"
	}
	displayHour := hour % 12
	if displayHour == 0 {
		displayHour = 12
	}
	return fmt.Sprintf("%d:%02d %s", displayHour, minute, period)
}
