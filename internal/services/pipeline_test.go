package services

import (
	"context"
	"testing"

	"github.com/Lllllllleong/pdfinterleaver/internal/codec"
	"github.com/Lllllllleong/pdfinterleaver/internal/models"
	"github.com/Lllllllleong/pdfinterleaver/internal/pdftest"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunBatch_WithPDFCodec(t *testing.T) {
	pdfCodec, err := codec.New(codec.Config{})
	require.NoError(t, err)
	store := NewJobStore()
	signal := &CompletionSignal{}
	emitter := DirEmitter{Dir: t.TempDir()}
	orch := NewOrchestrator(NewTransformer(pdfCodec, NamingSuffix), emitter, store, signal, 2)

	content := pdftest.Build(2)
	jobs := orch.RunBatch(context.Background(), []models.InputFile{
		{Name: "manual.pdf", Size: int64(len(content)), Content: content},
		{Name: "broken.pdf", Size: 3, Content: []byte("%PD")},
	}).Jobs()

	require.Len(t, jobs, 2)
	assert.Equal(t, models.JobSaved, jobs[0].State)
	assert.Equal(t, "manual_dop.pdf", jobs[0].OutputFilename)
	assert.Equal(t, 2, jobs[0].PageCount)
	assert.Equal(t, models.JobFailed, jobs[1].State)
	assert.True(t, signal.Raised())

	dims, err := pdftest.PageDims(jobs[0].Artifact.Content)
	require.NoError(t, err)
	letter := types.Dim{Width: 612, Height: 792}
	assert.Equal(t, []types.Dim{
		{Width: pdftest.PageWidth(0), Height: pdftest.PageHeight}, letter,
		{Width: pdftest.PageWidth(1), Height: pdftest.PageHeight}, letter,
	}, dims)
}

func TestRunBatch_WithPDFCodecZeroPages(t *testing.T) {
	pdfCodec, err := codec.New(codec.Config{})
	require.NoError(t, err)
	orch := NewOrchestrator(NewTransformer(pdfCodec, NamingSuffix), nil, NewJobStore(), &CompletionSignal{}, 1)

	content := pdftest.Build(0)
	jobs := orch.RunBatch(context.Background(), []models.InputFile{
		{Name: "cover.pdf", Size: int64(len(content)), Content: content},
	}).Jobs()

	require.Len(t, jobs, 1)
	require.Equal(t, models.JobSaved, jobs[0].State, jobs[0].ErrorDetails)
	out, err := pdfCodec.Load(context.Background(), jobs[0].Artifact.Content)
	require.NoError(t, err)
	assert.Equal(t, 0, out.PageCount())
}
