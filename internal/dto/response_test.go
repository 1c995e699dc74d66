package dto

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/prodpix/prodpix/internal/domain"
)

// FAILED JOB - PARAMS ECHOED FOR A CLIENT-SIDE RETRY
func TestMapJobToResponse_FailedJobCarriesParams(t *testing.T) {
	now := time.Now()
	job := &domain.ProcessingJob{
		ID:        "job-1",
		ImageID:   "img-1",
		Operation: domain.OperationResize,
		Params: domain.JobParams{
			Op:     domain.OperationResize,
			Resize: &domain.ResizeParams{Width: 800, Height: 600, Fit: domain.FitCover},
		},
		Status:       domain.StatusFailed,
		Attempt:      3,
		ErrorMessage: "model overloaded",
		CompletedAt:  &now,
	}

	resp := MapJobToResponse(job, "http://api.local")
	require.NotNil(t, resp.Params)
	require.Equal(t, domain.OperationResize, resp.Params.Op)
	require.Equal(t, 800, resp.Params.Resize.Width)
	require.Equal(t, "model overloaded", resp.ErrorMessage)
	require.Empty(t, resp.OutputURL)
	require.Zero(t, resp.QualityScore)
}

// COMPLETED JOB - OUTPUT URL AND QUALITY SCORE
func TestMapJobToResponse_CompletedJobCarriesQualityScore(t *testing.T) {
	job := &domain.ProcessingJob{
		ID:           "job-2",
		ImageID:      "img-1",
		Operation:    domain.OperationTextRemoval,
		Params:       domain.JobParams{Op: domain.OperationTextRemoval},
		Status:       domain.StatusCompleted,
		Attempt:      1,
		OutputKey:    "outputs/x.jpg",
		QualityScore: 4.2,
	}

	resp := MapJobToResponse(job, "http://api.local")
	require.Equal(t, "http://api.local/api/v1/jobs/job-2/output", resp.OutputURL)
	require.Equal(t, 4.2, resp.QualityScore)
	require.NotNil(t, resp.Params)
}
