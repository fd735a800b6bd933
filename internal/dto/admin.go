package dto

// HistoricalSyncRequest asks for a backfill of the inclusive date range.
type HistoricalSyncRequest struct {
	StartDate string `json:"startDate" binding:"required,datetime=2006-01-02"`
	EndDate   string `json:"endDate" binding:"required,datetime=2006-01-02"`
}

// HistoricalSyncAcceptedResponse acknowledges a queued backfill.
type HistoricalSyncAcceptedResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	JobID   string `json:"jobId"`
}
