package models

// These structs define the JSON payloads exchanged with the function
// entry points and the downstream workflow.

// GCSEvent is the data payload of a Cloud Storage object event.
type GCSEvent struct {
	Bucket      string `json:"bucket"`
	Name        string `json:"name"`
	ContentType string `json:"contentType"`
}

// BatchResponse is the output of the blank-inserter HTTP function.
type BatchResponse struct {
	BatchID string         `json:"batchId"`
	Jobs    []TransformJob `json:"jobs"`
}

// BatchSummary is the argument passed to the workflow triggered when a
// batch finishes.
type BatchSummary struct {
	BatchID string `json:"batchId"`
	Saved   int    `json:"saved"`
	Failed  int    `json:"failed"`

	// Undelivered counts saved jobs whose artifact could not be delivered.
	Undelivered int      `json:"undelivered"`
	Artifacts   []string `json:"artifacts"`
}
