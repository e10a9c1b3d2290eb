package main

import (
	"testing"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeEvent(t *testing.T) {
	e := cloudevents.NewEvent()
	e.SetID("1")
	e.SetSource("//storage.googleapis.com/projects/_/buckets/uploads")
	e.SetType("google.cloud.storage.object.v1.finalized")
	require.NoError(t, e.SetData(cloudevents.ApplicationJSON, map[string]string{
		"bucket":      "uploads",
		"name":        "manuals/pump.pdf",
		"contentType": "application/pdf",
	}))

	got, err := decodeEvent(e)
	require.NoError(t, err)

	assert.Equal(t, "uploads", got.Bucket)
	assert.Equal(t, "manuals/pump.pdf", got.Name)
	assert.Equal(t, "application/pdf", got.ContentType)
}

func TestDecodeEvent_BadPayload(t *testing.T) {
	e := cloudevents.NewEvent()
	e.SetID("1")
	e.SetSource("test")
	e.SetType("google.cloud.storage.object.v1.finalized")
	require.NoError(t, e.SetData(cloudevents.TextPlain, "not json"))

	_, err := decodeEvent(e)
	assert.Error(t, err)
}
