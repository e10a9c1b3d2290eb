package gcp

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/storage"
	executions "cloud.google.com/go/workflows/executions/apiv1"
)

// Clients bundles the Google Cloud clients an entry point needs.
// Firestore and Executions are nil when not requested.
type Clients struct {
	Storage    *storage.Client
	Firestore  *firestore.Client
	Executions *executions.Client
}

// ClientOptions selects which optional clients NewClients creates.
type ClientOptions struct {
	ProjectID string
	Firestore bool
	Workflows bool
}

// NewClients creates the storage client and, as requested, the Firestore
// and Workflows Executions clients.
func NewClients(ctx context.Context, opts ClientOptions) (*Clients, error) {
	c := &Clients{}
	var err error

	if c.Storage, err = storage.NewClient(ctx); err != nil {
		return nil, fmt.Errorf("failed to create Storage client: %w", err)
	}
	if opts.Firestore {
		if opts.ProjectID == "" {
			c.Close()
			return nil, fmt.Errorf("projectID must be provided to create a firestore client")
		}
		if c.Firestore, err = firestore.NewClient(ctx, opts.ProjectID); err != nil {
			c.Close()
			return nil, fmt.Errorf("failed to create Firestore client: %w", err)
		}
	}
	if opts.Workflows {
		if c.Executions, err = executions.NewClient(ctx); err != nil {
			c.Close()
			return nil, fmt.Errorf("failed to create Workflows Executions client: %w", err)
		}
	}
	return c, nil
}

// Close closes every client that was created.
func (c *Clients) Close() error {
	var errs []error
	if c.Storage != nil {
		errs = append(errs, c.Storage.Close())
	}
	if c.Firestore != nil {
		errs = append(errs, c.Firestore.Close())
	}
	if c.Executions != nil {
		errs = append(errs, c.Executions.Close())
	}
	return errors.Join(errs...)
}
