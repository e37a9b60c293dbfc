package model

import "time"

// FileCategory : раздел, в котором хранится файл
type FileCategory string

const (
	CategoryDocuments FileCategory = "documents"
	CategoryPhotos    FileCategory = "photos"
	CategoryVideos    FileCategory = "videos"
	CategoryMusic     FileCategory = "music"
	CategoryOther     FileCategory = "other"
)

// Valid : true, если категория входит в фиксированный набор
func (c FileCategory) Valid() bool {
	switch c {
	case CategoryDocuments, CategoryPhotos, CategoryVideos, CategoryMusic, CategoryOther:
		return true
	}
	return false
}

type File struct {
	UUID          string       `db:"uuid" json:"uuid"`
	OwnerUUID     string       `db:"owner_uuid" json:"owner_uuid"`
	Name          string       `db:"name" json:"name"`
	Category      FileCategory `db:"category" json:"category"`
	SizeBytes     int64        `db:"size_bytes" json:"size_bytes"`
	MimeType      string       `db:"mime_type" json:"mime_type"`
	StorageKey    string       `db:"storage_key" json:"-"`
	DownloadCount int64        `db:"download_count" json:"download_count"`
	CreatedAt     time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time    `db:"updated_at" json:"updated_at"`
}

type GetFileResult struct {
	File   *File
	GetURL string // pre-signed URL на скачивание
}
