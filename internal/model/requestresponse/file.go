package requestresponse

import (
	"time"

	"file-sharing-server/internal/model"
)

// CreateFileRequest : тело запроса на регистрацию файла перед загрузкой
type CreateFileRequest struct {
	Name      string `json:"name" example:"photo.jpg"`
	Category  string `json:"category" example:"photos"`
	MimeType  string `json:"mime" example:"image/jpg"`
	SizeBytes int64  `json:"size_bytes" example:"204800"`
}

// CreateFileResponse : ответ при загрузке файла
type CreateFileResponse struct {
	Data struct {
		File   FileResponse `json:"file"`
		PutURL string       `json:"put_url"`
	} `json:"data"`
}

// FileResponse : описывает файл для JSON-ответа
type FileResponse struct {
	UUID          string `json:"id" example:"qwdj1q4o34u34ih759ou1"`
	Name          string `json:"name" example:"photo.jpg"`
	Category      string `json:"category" example:"photos"`
	MimeType      string `json:"mime" example:"image/jpg"`
	SizeBytes     int64  `json:"size_bytes" example:"204800"`
	DownloadCount int64  `json:"download_count" example:"3"`
	CreatedAt     string `json:"created" example:"2025-08-23T12:34:56Z"`
	GetURL        string `json:"get_url,omitempty"`
}

// FileResponseFromModel : конвертирует model.File в FileResponse
func FileResponseFromModel(file *model.File, getURL string) FileResponse {
	return FileResponse{
		UUID:          file.UUID,
		Name:          file.Name,
		Category:      string(file.Category),
		MimeType:      file.MimeType,
		SizeBytes:     file.SizeBytes,
		DownloadCount: file.DownloadCount,
		CreatedAt:     file.CreatedAt.Format(time.RFC3339),
		GetURL:        getURL,
	}
}

// GetFileResponse : ответ для одного файла
type GetFileResponse struct {
	Data struct {
		File FileResponse `json:"file"`
	} `json:"data"`
	ExpiresIn string `json:"expires_in,omitempty"`
}

// RenameFileRequest : тело запроса на переименование
type RenameFileRequest struct {
	Name string `json:"name" example:"report-final.pdf"`
}

// MoveFileRequest : тело запроса на смену категории
type MoveFileRequest struct {
	Category string `json:"category" example:"documents"`
}

// ListFilesResponse : ответ API со списком файлов
type ListFilesResponse struct {
	Data struct {
		Files []FileResponse `json:"files"`
	} `json:"data"`
	NextCursor string `json:"next_cursor,omitempty" example:"2025-08-23T12:34:56.999999Z"`
	Count      int    `json:"count" example:"10"`
}

// DeleteFileResponse : счётчики каскадного удаления файла
type DeleteFileResponse struct {
	Response model.FileDeletionResult `json:"response"`
}

// FileHistoryResponse : журнал действий по файлу
type FileHistoryResponse struct {
	Data struct {
		Entries []model.AuditLogEntry `json:"entries"`
	} `json:"data"`
}

// ErrorResponseFile : общий объект ошибки
type ErrorResponseFile struct {
	Code int    `json:"code" example:"400"`
	Text string `json:"text" example:"описание ошибки"`
}

// ResponseMessage : общий ответ для подтверждения действий
type ResponseMessage struct {
	Response map[string]interface{} `json:"response,omitempty"`
	Error    *ErrorResponse         `json:"error,omitempty"`
	Data     interface{}            `json:"data,omitempty"`
}

// SuccessResponse : стандартный ответ успешного выполнения операции
type SuccessResponse struct {
	Message string `json:"message" example:"Операция выполнена успешно"`
}
