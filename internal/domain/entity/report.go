package entity

import "time"

// Report is a generated leadership report.
type Report struct {
	ID          string
	GeneratedAt time.Time
	Markdown    string

	HealthScore float64
	Revenue     float64
	Pipeline    float64
	Status      string
}
