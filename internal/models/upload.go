package models

import "time"

// UploadRecord remembers a course thumbnail an instructor stored on the CDN.
// The same image uploaded twice by one instructor resolves to the first record.
type UploadRecord struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    string    `gorm:"size:64;not null;index:idx_upload_owner_checksum,priority:1" json:"user_id"`
	FileName  string    `gorm:"size:255;not null" json:"file_name"`
	URL       string    `gorm:"size:512;not null" json:"url"`
	MimeType  string    `gorm:"size:64;not null" json:"mime_type"`
	SizeBytes int64     `gorm:"not null" json:"size_bytes"`
	Checksum  string    `gorm:"size:64;not null;index:idx_upload_owner_checksum,priority:2" json:"checksum"`
	CreatedAt time.Time `json:"created_at"`
}
