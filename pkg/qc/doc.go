// Package qc defines the quality-control records ophysqc emits and reads.
//
// A [Metric] carries a value (a boolean, a number, or a [CheckboxMetric]
// awaiting manual review), the files it refers to, and a status history.
// Metrics are grouped into an [Evaluation], which is written per summary as
// quality_evaluation.json. All evaluations found under the output and input
// trees are aggregated into a single [QualityControl] report,
// quality_control.json.
//
// The JSON field names follow the snake_case schema consumed by the QC
// portal, so records written here can be mixed with evaluations produced by
// other pipeline steps.
package qc
