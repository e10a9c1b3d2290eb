package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	executions "cloud.google.com/go/workflows/executions/apiv1"
	"cloud.google.com/go/workflows/executions/apiv1/executionspb"
	"github.com/Lllllllleong/pdfinterleaver/internal/models"
)

// WorkflowNotifier starts a Cloud Workflows execution for every finished batch.
type WorkflowNotifier struct {
	client   *executions.Client
	workflow string
}

// NewWorkflowNotifier targets projects/<project>/locations/<location>/workflows/<id>.
func NewWorkflowNotifier(client *executions.Client, projectID, location, workflowID string) *WorkflowNotifier {
	return &WorkflowNotifier{
		client:   client,
		workflow: fmt.Sprintf("projects/%s/locations/%s/workflows/%s", projectID, location, workflowID),
	}
}

// Summarize counts the terminal states of a finished batch.
func Summarize(batchID string, jobs []models.TransformJob) models.BatchSummary {
	summary := models.BatchSummary{BatchID: batchID, Artifacts: []string{}}
	for _, j := range jobs {
		switch j.State {
		case models.JobSaved:
			summary.Saved++
			if j.DeliveryError != "" {
				summary.Undelivered++
			}
			if j.OutputLocation != "" {
				summary.Artifacts = append(summary.Artifacts, j.OutputLocation)
			}
		case models.JobFailed:
			summary.Failed++
		}
	}
	return summary
}

// Notify triggers the workflow with the batch summary as its argument.
func (n *WorkflowNotifier) Notify(ctx context.Context, summary models.BatchSummary) error {
	payload, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to marshal workflow payload: %w", err)
	}
	req := &executionspb.CreateExecutionRequest{
		Parent: n.workflow,
		Execution: &executionspb.Execution{
			Argument: string(payload),
		},
	}
	exec, err := n.client.CreateExecution(ctx, req)
	if err != nil {
		return fmt.Errorf("failed to trigger workflow execution: %w", err)
	}
	slog.Info("Workflow triggered.", "batchId", summary.BatchID, "execution", exec.GetName())
	return nil
}
