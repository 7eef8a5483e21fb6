package dto

import (
	"time"

	"github.com/noah-isme/course-market-api/internal/models"
)

// UploadResponse describes a stored course thumbnail.
type UploadResponse struct {
	ID        uint      `json:"id"`
	URL       string    `json:"url"`
	SizeBytes int64     `json:"size_bytes"`
	MimeType  string    `json:"mime_type"`
	Checksum  string    `json:"checksum"`
	FileName  string    `json:"file_name"`
	Reused    bool      `json:"reused"`
	CreatedAt time.Time `json:"created_at"`
}

// NewUploadResponse converts an upload record.
func NewUploadResponse(record models.UploadRecord, reused bool) UploadResponse {
	return UploadResponse{
		ID:        record.ID,
		URL:       record.URL,
		SizeBytes: record.SizeBytes,
		MimeType:  record.MimeType,
		Checksum:  record.Checksum,
		FileName:  record.FileName,
		Reused:    reused,
		CreatedAt: record.CreatedAt,
	}
}
