package insights

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// NameMapper turns raw facility names into display names.
type NameMapper interface {
	DisplayName(raw string) string
}

// parkAndRidePrefix is carried by every facility name in the TfNSW feed.
const parkAndRidePrefix = "Park&Ride - "

// Names is a lookup table with prefix stripping as the fallback.
type Names map[string]string

// DisplayName returns the mapped name, else raw without the Park&Ride prefix.
func (n Names) DisplayName(raw string) string {
	if name, ok := n[raw]; ok {
		return name
	}
	return strings.TrimPrefix(raw, parkAndRidePrefix)
}

// LoadNames reads a JSON object of raw name to display name. An empty path
// returns an empty table.
func LoadNames(path string) (Names, error) {
	if path == "" {
		return Names{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read names file: %w", err)
	}
	var names Names
	if err := json.Unmarshal(data, &names); err != nil {
		return nil, fmt.Errorf("failed to parse names file: %w", err)
	}
	return names, nil
}
