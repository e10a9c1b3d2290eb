package models

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// PDFContentType is the MIME type every artifact is delivered with.
const PDFContentType = "application/pdf;charset=utf-8"

// InputFile is a named PDF handed over by an intake producer.
// It is never modified once created.
type InputFile struct {
	Name     string
	Size     int64
	MimeType string
	Content  []byte
}

// Hash returns the hex-encoded sha256 digest of the file content.
func (f InputFile) Hash() string {
	sum := sha256.Sum256(f.Content)
	return hex.EncodeToString(sum[:])
}

// Artifact is the output of one successful transform.
type Artifact struct {
	Filename string
	Content  []byte
}

// JobState is the lifecycle state of a TransformJob.
type JobState string

const (
	JobPending JobState = "PENDING"
	JobRunning JobState = "RUNNING"
	JobSaved   JobState = "SAVED"
	JobFailed  JobState = "FAILED"
)

// Terminal reports whether no further transition can leave the state.
func (s JobState) Terminal() bool {
	return s == JobSaved || s == JobFailed
}

// TransformJob tracks the transformation of one InputFile.
// It doubles as the Firestore record mirrored for each job.
type TransformJob struct {
	ID             string    `firestore:"-" json:"id"`
	BatchID        string    `firestore:"batchId,omitempty" json:"batchId"`
	Sequence       int       `firestore:"sequence" json:"sequence"`
	SourceName     string    `firestore:"sourceName,omitempty" json:"sourceName"`
	SourceSize     int64     `firestore:"sourceSize,omitempty" json:"sourceSize"`
	SourceType     string    `firestore:"sourceType,omitempty" json:"sourceType,omitempty"`
	FileHash       string    `firestore:"fileHash,omitempty" json:"fileHash,omitempty"`
	State          JobState  `firestore:"state,omitempty" json:"state"`
	PageCount      int       `firestore:"pageCount,omitempty" json:"pageCount,omitempty"`
	OutputFilename string    `firestore:"outputFilename,omitempty" json:"outputFilename,omitempty"`
	OutputLocation string    `firestore:"outputLocation,omitempty" json:"outputLocation,omitempty"`
	ErrorDetails   string    `firestore:"errorDetails,omitempty" json:"error,omitempty"`
	DeliveryError  string    `firestore:"deliveryError,omitempty" json:"deliveryError,omitempty"`
	CreatedAt      time.Time `firestore:"createdAt,omitempty" json:"createdAt"`
	StartedAt      time.Time `firestore:"startedAt,omitempty" json:"startedAt,omitempty"`
	CompletedAt    time.Time `firestore:"completedAt,omitempty" json:"completedAt,omitempty"`

	Artifact *Artifact `firestore:"-" json:"-"`
}
