package domain

import "time"

// MaxWritingSamples caps stored samples per shop.
const MaxWritingSamples = 3

// WritingSample is a shop-owned uploaded or pasted text artifact used as
// additional brand-voice reference. Created by upload, deleted explicitly;
// there is no update operation.
type WritingSample struct {
	ID        string    `json:"id"`
	ShopID    string    `json:"shop_id"`
	FileName  string    `json:"file_name"`
	FileType  string    `json:"file_type"`
	SizeBytes int       `json:"size_bytes"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateWritingSampleRequest is the body for POST /v1/writing-samples.
type CreateWritingSampleRequest struct {
	FileName string `json:"file_name"`
	FileType string `json:"file_type"`
	Content  string `json:"content"`
}
