package dto

import "github.com/yigit/curricula/internal/app/models"

// AnalysisJobResponse wraps a job for the submit and poll endpoints
type AnalysisJobResponse struct {
	JobID  string              `json:"job_id" example:"0b9e6a4c-2f4d-4c1e-9a3b-5d6e7f8a9b0c"`
	Status models.JobStatus    `json:"status" example:"queued"`
	Job    *models.AnalysisJob `json:"job"`
}

// NewAnalysisJobResponse builds the response for job
func NewAnalysisJobResponse(job *models.AnalysisJob) AnalysisJobResponse {
	return AnalysisJobResponse{JobID: job.ID.String(), Status: job.Status, Job: job}
}
