package domain

// DocumentUploadResponse confirms a successful ingestion.
type DocumentUploadResponse struct {
	Success  bool   `json:"success"`
	Filename string `json:"filename"`
}

// DocumentListResponse is the paginated, source-deduplicated listing.
type DocumentListResponse struct {
	Documents []DocumentInfo `json:"documents"`
}

// DocumentDeleteResponse confirms a deletion and echoes the name.
type DocumentDeleteResponse struct {
	Success bool   `json:"success"`
	Deleted string `json:"deleted"`
}
