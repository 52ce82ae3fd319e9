package handlers

import (
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/park-ride-insights/occupancy/internal/insights"
)

// InsightSource provides the published insight records.
type InsightSource interface {
	Records() ([]insights.Record, time.Time, error)
}

// InsightsHandler handles HTTP requests for occupancy insights
type InsightsHandler struct {
	source  InsightSource
	metrics *Metrics // optional
}

// NewInsightsHandler creates a new handler over the given snapshot source
func NewInsightsHandler(source InsightSource, metrics *Metrics) *InsightsHandler {
	return &InsightsHandler{source: source, metrics: metrics}
}

// GetInsightsResponse is the JSON response structure for GET /api/insights
type GetInsightsResponse struct {
	Insights    []insights.Record `json:"insights"`
	Count       int               `json:"count"`
	PublishedAt time.Time         `json:"publishedAt"`
}

// FacilitySummary lists what is published for one facility.
type FacilitySummary struct {
	Facility string   `json:"facility"`
	Records  int      `json:"records"`
	Statuses []string `json:"statuses"`
}

// GetFacilitiesResponse is the JSON response structure for GET /api/insights/facilities
type GetFacilitiesResponse struct {
	Facilities  []FacilitySummary `json:"facilities"`
	Count       int               `json:"count"`
	PublishedAt time.Time         `json:"publishedAt"`
}

// GetInsights handles GET /api/insights
// Optional filters: facility (exact display name), status ("normal", "holiday"
// or the full label) and day (name or day_priority).
func (h *InsightsHandler) GetInsights(w http.ResponseWriter, r *http.Request) {
	records, publishedAt, ok := h.load(w)
	if !ok {
		return
	}

	q := r.URL.Query()
	filter, err := parseFilter(q.Get("facility"), q.Get("status"), q.Get("day"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	out := make([]insights.Record, 0, len(records))
	for _, rec := range records {
		if filter.match(rec) {
			out = append(out, rec)
		}
	}

	w.Header().Set("Cache-Control", "public, max-age=300")
	writeJSON(w, http.StatusOK, GetInsightsResponse{
		Insights:    out,
		Count:       len(out),
		PublishedAt: publishedAt.UTC(),
	})
}

// GetFacilities handles GET /api/insights/facilities
func (h *InsightsHandler) GetFacilities(w http.ResponseWriter, r *http.Request) {
	records, publishedAt, ok := h.load(w)
	if !ok {
		return
	}

	byFacility := make(map[string]*FacilitySummary)
	for _, rec := range records {
		fs, exists := byFacility[rec.Facility]
		if !exists {
			fs = &FacilitySummary{Facility: rec.Facility}
			byFacility[rec.Facility] = fs
		}
		fs.Records++
		if !containsString(fs.Statuses, rec.Status) {
			fs.Statuses = append(fs.Statuses, rec.Status)
		}
	}

	facilities := make([]FacilitySummary, 0, len(byFacility))
	for _, fs := range byFacility {
		sort.Strings(fs.Statuses)
		facilities = append(facilities, *fs)
	}
	sort.Slice(facilities, func(i, j int) bool {
		return facilities[i].Facility < facilities[j].Facility
	})

	w.Header().Set("Cache-Control", "public, max-age=300")
	writeJSON(w, http.StatusOK, GetFacilitiesResponse{
		Facilities:  facilities,
		Count:       len(facilities),
		PublishedAt: publishedAt.UTC(),
	})
}

func (h *InsightsHandler) load(w http.ResponseWriter) ([]insights.Record, time.Time, bool) {
	records, publishedAt, err := h.source.Records()
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "Insights snapshot not available", map[string]interface{}{
			"internal": err.Error(),
		})
		return nil, time.Time{}, false
	}
	if h.metrics != nil {
		h.metrics.ObserveSnapshot(len(records), publishedAt)
	}
	return records, publishedAt, true
}

type recordFilter struct {
	facility string
	status   string
	day      int // -1 matches every day
}

func parseFilter(facility, status, day string) (recordFilter, error) {
	f := recordFilter{facility: facility, day: -1}

	switch strings.ToLower(status) {
	case "":
	case "normal", strings.ToLower(insights.StatusNormal):
		f.status = insights.StatusNormal
	case "holiday", "school_holiday", strings.ToLower(insights.StatusSchoolHoliday):
		f.status = insights.StatusSchoolHoliday
	default:
		return f, errInvalidParam("status", status)
	}

	if day != "" {
		d, ok := parseDay(day)
		if !ok {
			return f, errInvalidParam("day", day)
		}
		f.day = d
	}
	return f, nil
}

func parseDay(s string) (int, bool) {
	if n, err := strconv.Atoi(s); err == nil {
		return n, n >= 0 && n < 7
	}
	for i, name := range []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"} {
		if strings.EqualFold(s, name) || strings.EqualFold(s, name[:3]) {
			return i, true
		}
	}
	return 0, false
}

func (f recordFilter) match(r insights.Record) bool {
	if f.facility != "" && r.Facility != f.facility {
		return false
	}
	if f.status != "" && r.Status != f.status {
		return false
	}
	if f.day >= 0 && r.DayPriority != f.day {
		return false
	}
	return true
}

type paramError struct {
	name, value string
}

func (e paramError) Error() string {
	return "invalid " + e.name + " parameter: " + strconv.Quote(e.value)
}

func errInvalidParam(name, value string) error {
	return paramError{name: name, value: value}
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
