package storage

import "time"

// Run is one stored simulation run.
type Run struct {
	ID          string             `gorm:"primaryKey" json:"id"`
	Name        string             `gorm:"index" json:"name"`
	CreatedAt   time.Time          `json:"createdAt"`
	G           float64            `json:"g"`
	Step        float64            `json:"step"`
	Duration    float64            `json:"duration"`
	NumBodies   int                `json:"numBodies"`
	Masses      []float64          `gorm:"serializer:json" json:"masses"`
	StepsTaken  int                `json:"stepsTaken"`
	EnergyDrift float64            `json:"energyDrift"`
	Metrics     map[string]float64 `gorm:"serializer:json" json:"metrics"`
	Failed      string             `json:"failed,omitempty"`
}

// Sample is the condition of one body at one recorded time.
type Sample struct {
	ID    uint    `gorm:"primaryKey;autoIncrement"`
	RunID string  `gorm:"index:idx_sample_order,priority:1"`
	Seq   int     `gorm:"index:idx_sample_order,priority:2"`
	Body  int     `gorm:"index:idx_sample_order,priority:3"`
	Time  float64 `gorm:"index"`
	X     float64
	Y     float64
	XDot  float64
	YDot  float64
}

// Models lists the tables managed by Init.
var Models = []any{
	&Run{},
	&Sample{},
}
