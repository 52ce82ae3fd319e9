// Package carpark polls the Transport for NSW car park API and stores each
// facility's availability as an observation.
package carpark

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/park-ride-insights/occupancy/internal/observation"
)

// Store persists a poll cycle. *db.DB implements it.
type Store interface {
	CreatePollBatch(ctx context.Context, polledAt time.Time, facilityCount, errorCount int) (string, error)
	InsertReadings(ctx context.Context, pollID string, readings []observation.Reading) (int, error)
}

// Archiver appends readings to the raw CSV history. *observation.Archive implements it.
type Archiver interface {
	Append(polledAt time.Time, readings []observation.Reading) error
}

// Options configures a Poller.
type Options struct {
	BaseURL     string
	APIKey      string
	FacilityIDs []string

	// RequestDelay spaces consecutive facility requests.
	RequestDelay time.Duration
	HTTPClient   *http.Client
}

// Poller fetches every configured facility once per Poll.
type Poller struct {
	store   Store
	archive Archiver // optional
	opts    Options
	client  *http.Client
	now     func() time.Time
}

// NewPoller creates a car park poller. archive may be nil.
func NewPoller(store Store, archive Archiver, opts Options) *Poller {
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{
			Timeout: 10 * time.Second,
		}
	}
	return &Poller{
		store:   store,
		archive: archive,
		opts:    opts,
		client:  client,
		now:     time.Now,
	}
}

// Poll fetches all facilities, stores the readings and appends them to the
// archive. A failing facility is logged and skipped.
func (p *Poller) Poll(ctx context.Context) error {
	polledAt := p.now().UTC()

	readings := make([]observation.Reading, 0, len(p.opts.FacilityIDs))
	errorCount := 0
	for i, id := range p.opts.FacilityIDs {
		if i > 0 && p.opts.RequestDelay > 0 {
			select {
			case <-time.After(p.opts.RequestDelay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		resp, err := p.fetchFacility(ctx, id)
		if err != nil {
			errorCount++
			log.Printf("Carpark: error fetching facility %s: %v", id, err)
			continue
		}
		readings = append(readings, ToReading(id, resp, polledAt))
	}

	if len(readings) == 0 {
		return fmt.Errorf("no facilities returned data (%d errors)", errorCount)
	}

	pollID, err := p.store.CreatePollBatch(ctx, polledAt, len(readings), errorCount)
	if err != nil {
		return fmt.Errorf("failed to create poll batch: %w", err)
	}

	inserted, err := p.store.InsertReadings(ctx, pollID, readings)
	if err != nil {
		return fmt.Errorf("failed to write readings: %w", err)
	}

	if p.archive != nil {
		if err := p.archive.Append(polledAt, readings); err != nil {
			return fmt.Errorf("failed to archive readings: %w", err)
		}
	}

	log.Printf("Carpark: polled %d facilities (%d new, %d errors)", len(readings), inserted, errorCount)
	return nil
}

func (p *Poller) fetchFacility(ctx context.Context, id string) (*FacilityResponse, error) {
	u, err := url.Parse(p.opts.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	q := u.Query()
	q.Set("facility", id)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, "GET", u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "apikey "+p.opts.APIKey)
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch facility: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var out FacilityResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return &out, nil
}

// ToReading converts an API payload into an archived reading. Availability is
// spots minus occupied, floored at zero; a missing or -1 occupancy is unknown.
func ToReading(id string, resp *FacilityResponse, polledAt time.Time) observation.Reading {
	observedAt := polledAt
	if resp.MessageDate != "" {
		if t, err := observation.ParseTimestamp(resp.MessageDate); err == nil {
			observedAt = t
		}
	}

	spots := 0
	if resp.Spots.Valid {
		spots = resp.Spots.Value
	}

	r := observation.Reading{
		Observation: observation.Observation{
			FacilityID:   id,
			FacilityName: resp.FacilityName,
			ObservedAt:   observedAt,
		},
		TfNSWFacilityID: resp.TfNSWFacilityID,
		Suburb:          resp.Location.Suburb,
		Latitude:        string(resp.Location.Latitude),
		Longitude:       string(resp.Location.Longitude),
		Spots:           spots,
	}

	if !resp.Occupancy.Total.Valid || resp.Occupancy.Total.Value == -1 {
		r.Status = StatusSensorError
		return r
	}

	occupied := resp.Occupancy.Total.Value
	available := spots - occupied
	if available < 0 {
		available = 0
	}
	r.Occupied = &occupied
	r.Available = &available
	r.Status = Status(available, spots)
	return r
}

// Status labels availability: Full below one space, Almost Full below 10% of spots.
func Status(available, spots int) string {
	switch {
	case available < 1:
		return StatusFull
	case float64(available) < float64(spots)*0.1:
		return StatusAlmostFull
	default:
		return StatusAvailable
	}
}
