package async

import (
	"context"
	"time"
)

// Job is one document handed to a worker. Index is the document's position in
// the submitted batch; handlers use it to store results in input order.
type Job struct {
	Index       int
	Path        string
	SubmittedAt time.Time
}

// Handler processes one job. It must not retain ctx after returning.
type Handler func(ctx context.Context, job Job)
