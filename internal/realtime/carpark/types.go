package carpark

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Reading statuses, as archived alongside each observation
const (
	StatusAvailable   = "Available"
	StatusAlmostFull  = "Almost Full"
	StatusFull        = "Full"
	StatusSensorError = "Unknown (Sensor Error)"
)

// FacilityResponse is the car park API payload for a single facility.
type FacilityResponse struct {
	FacilityID      string    `json:"facility_id"`
	FacilityName    string    `json:"facility_name"`
	TfNSWFacilityID string    `json:"tfnsw_facility_id"`
	Spots           FlexInt   `json:"spots"`
	Location        Location  `json:"location"`
	Occupancy       Occupancy `json:"occupancy"`
	MessageDate     string    `json:"MessageDate"`
}

// Location holds the facility address fields we archive.
type Location struct {
	Suburb    string     `json:"suburb"`
	Latitude  FlexString `json:"latitude"`
	Longitude FlexString `json:"longitude"`
}

// Occupancy holds the occupied space count. Total is absent or -1 when the
// sensors are not reporting.
type Occupancy struct {
	Total FlexInt `json:"total"`
}

// FlexInt decodes integers the API sends either as numbers or numeric strings.
type FlexInt struct {
	Value int
	Valid bool
}

// UnmarshalJSON accepts 12, "12", 12.0, "" and null.
func (f *FlexInt) UnmarshalJSON(data []byte) error {
	*f = FlexInt{}
	s := strings.Trim(strings.TrimSpace(string(data)), `"`)
	if s == "" || s == "null" {
		return nil
	}
	if v, err := strconv.Atoi(s); err == nil {
		f.Value, f.Valid = v, true
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	f.Value, f.Valid = int(v), true
	return nil
}

// FlexString keeps a JSON scalar as text, whether it arrived as a string or a number.
type FlexString string

// UnmarshalJSON accepts strings, numbers and null.
func (f *FlexString) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = FlexString(s)
		return nil
	}
	*f = FlexString(strings.TrimSpace(string(data)))
	return nil
}
