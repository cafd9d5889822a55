package dto

// InfoRequest asks for metadata about a media URL.
type InfoRequest struct {
	URL string `json:"url" binding:"required"`
}

// InfoResponse carries media metadata or the lookup error.
type InfoResponse struct {
	Success   bool   `json:"success"`
	Title     string `json:"title,omitempty"`
	Duration  int    `json:"duration,omitempty"`
	Thumbnail string `json:"thumbnail,omitempty"`
	Uploader  string `json:"uploader,omitempty"`
	Error     string `json:"error,omitempty"`
}

// DownloadRequest starts a fetch job. Quality defaults to the configured
// preset when empty.
type DownloadRequest struct {
	URL     string `json:"url" binding:"required"`
	Quality string `json:"quality"`
}

// DownloadResponse returns the id of the job driving the fetch.
type DownloadResponse struct {
	Success bool   `json:"success"`
	JobID   string `json:"job_id,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// StatusResponse reports job progress. Token is present once the job has
// completed; Error once it has failed.
type StatusResponse struct {
	Status   string `json:"status"`
	Progress int    `json:"progress"`
	Token    string `json:"token,omitempty"`
	Error    string `json:"error,omitempty"`
}
