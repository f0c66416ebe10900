package quality

import "github.com/goccy/go-json"

// Report is the outcome of validating one batch. It is never persisted.
type Report struct {
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
	Info     []string `json:"info"`
	Stats    *Stats   `json:"statistics"`
}

type Stats struct {
	TotalRecords int        `json:"total_records"`
	DateRange    DateRange  `json:"date_range"`
	PriceStats   PriceStats `json:"price_stats"`
	UniqueHotels int        `json:"unique_hotels"`
	UniqueRooms  int        `json:"unique_rooms"`
}

type DateRange struct {
	Earliest *string `json:"earliest"`
	Latest   *string `json:"latest"`
}

type PriceStats struct {
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
}

func NewReport() *Report {
	return &Report{Errors: []string{}, Warnings: []string{}, Info: []string{}}
}

func (r *Report) AddError(msg string)   { r.Errors = append(r.Errors, msg) }
func (r *Report) AddWarning(msg string) { r.Warnings = append(r.Warnings, msg) }
func (r *Report) AddInfo(msg string)    { r.Info = append(r.Info, msg) }

// IsValid is true when the report holds no errors; warnings and info never block.
func (r *Report) IsValid() bool { return len(r.Errors) == 0 }

func (r *Report) MarshalJSON() ([]byte, error) {
	type plain Report
	return json.Marshal(struct {
		IsValid bool `json:"is_valid"`
		*plain
	}{IsValid: r.IsValid(), plain: (*plain)(r)})
}
