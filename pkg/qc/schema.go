package qc

import (
	"strings"
	"time"

	"github.com/matzehuels/ophysqc/pkg/errors"
)

// Status is the outcome of a metric or evaluation.
type Status string

// Metric statuses.
const (
	StatusPass    Status = "Pass"
	StatusFail    Status = "Fail"
	StatusPending Status = "Pending"
)

// Stage is the processing stage an evaluation belongs to.
type Stage string

// Evaluation stages.
const (
	StageRaw        Stage = "Raw data"
	StageProcessing Stage = "Processing"
	StageAnalysis   Stage = "Analysis"
	StageMultiAsset Stage = "Multi-asset"
)

// ParseStage accepts a stage by its value ("Processing") or a short
// lowercase alias ("processing", "raw", "analysis", "multi-asset").
func ParseStage(s string) (Stage, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "raw", "raw data":
		return StageRaw, nil
	case "processing":
		return StageProcessing, nil
	case "analysis":
		return StageAnalysis, nil
	case "multi-asset", "multi asset":
		return StageMultiAsset, nil
	}
	return "", errors.New(errors.ErrCodeInvalidInput, "unknown stage %q", s)
}

// Modality identifies the acquisition modality.
type Modality struct {
	Name         string `json:"name"`
	Abbreviation string `json:"abbreviation"`
}

// Known modalities.
var (
	ModalityPophys = Modality{Name: "Planar optical physiology", Abbreviation: "pophys"}
	ModalitySlap   = Modality{Name: "Scanned line projection imaging", Abbreviation: "slap"}
	ModalityBehav  = Modality{Name: "Behavior videos", Abbreviation: "behavior-videos"}
)

var modalities = []Modality{ModalityPophys, ModalitySlap, ModalityBehav}

// ModalityFromAbbreviation looks up a modality by its abbreviation.
func ModalityFromAbbreviation(abbr string) (Modality, error) {
	for _, m := range modalities {
		if strings.EqualFold(m.Abbreviation, abbr) {
			return m, nil
		}
	}
	return Modality{}, errors.New(errors.ErrCodeInvalidInput, "unknown modality abbreviation %q", abbr)
}

// StatusRecord is one entry of a metric's status history.
type StatusRecord struct {
	Evaluator string    `json:"evaluator"`
	Status    Status    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// PendingReview returns the initial history of a metric that a person
// still has to look at.
func PendingReview(now time.Time) []StatusRecord {
	return []StatusRecord{{Evaluator: "Pending review", Status: StatusPending, Timestamp: now}}
}

// Automated returns a history with a single automated verdict.
func Automated(evaluator string, pass bool, now time.Time) []StatusRecord {
	s := StatusFail
	if pass {
		s = StatusPass
	}
	return []StatusRecord{{Evaluator: evaluator, Status: s, Timestamp: now}}
}

// CheckboxMetric is a metric value resolved by a reviewer ticking one or
// more options. Status[i] is the outcome implied by Options[i].
type CheckboxMetric struct {
	Value   string   `json:"value"`
	Options []string `json:"options"`
	Status  []Status `json:"status"`
	Type    string   `json:"type"`
}

// NewCheckbox builds a checkbox value. options and statuses must have the
// same length.
func NewCheckbox(value string, options []string, statuses []Status) (CheckboxMetric, error) {
	if len(options) != len(statuses) {
		return CheckboxMetric{}, errors.New(errors.ErrCodeInvalidInput,
			"checkbox %q has %d options but %d statuses", value, len(options), len(statuses))
	}
	return CheckboxMetric{Value: value, Options: options, Status: statuses, Type: "checkbox"}, nil
}

// Metric is a single QC measurement.
type Metric struct {
	Name          string         `json:"name"`
	Value         any            `json:"value"`
	Description   *string        `json:"description"`
	Reference     []string       `json:"reference"`
	StatusHistory []StatusRecord `json:"status_history"`
}

// Status returns the most recent status, or Pending without history.
func (m Metric) Status() Status {
	if len(m.StatusHistory) == 0 {
		return StatusPending
	}
	return m.StatusHistory[len(m.StatusHistory)-1].Status
}

// Evaluation groups the metrics of one QC summary.
type Evaluation struct {
	Modality           Modality `json:"modality"`
	Stage              Stage    `json:"stage"`
	Name               string   `json:"name"`
	Description        *string  `json:"description"`
	Metrics            []Metric `json:"metrics"`
	Notes              *string  `json:"notes"`
	AllowFailedMetrics bool     `json:"allow_failed_metrics"`
}

// Status rolls up the metric statuses. A failing metric fails the
// evaluation unless failures are allowed; otherwise any pending metric
// keeps it pending.
func (e Evaluation) Status() Status {
	pending := false
	for _, m := range e.Metrics {
		switch m.Status() {
		case StatusFail:
			if !e.AllowFailedMetrics {
				return StatusFail
			}
		case StatusPending:
			pending = true
		}
	}
	if pending {
		return StatusPending
	}
	return StatusPass
}

// QualityControl is the aggregated report.
type QualityControl struct {
	Evaluations []Evaluation `json:"evaluations"`
	Notes       *string      `json:"notes"`
}

// Status is Fail if any evaluation fails, Pending if any is pending, and
// Pass otherwise. An empty report is Pending.
func (q QualityControl) Status() Status {
	if len(q.Evaluations) == 0 {
		return StatusPending
	}
	pending := false
	for _, e := range q.Evaluations {
		switch e.Status() {
		case StatusFail:
			return StatusFail
		case StatusPending:
			pending = true
		}
	}
	if pending {
		return StatusPending
	}
	return StatusPass
}

// StatusCounts tallies evaluation statuses, for summaries.
func (q QualityControl) StatusCounts() map[Status]int {
	counts := make(map[Status]int, 3)
	for _, e := range q.Evaluations {
		counts[e.Status()]++
	}
	return counts
}
