package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"file-sharing-server/internal/model"
	"file-sharing-server/internal/model/requestresponse"
	"file-sharing-server/internal/ports"
	"file-sharing-server/internal/security"
	"github.com/go-chi/chi/v5"
)

type FileHandler struct {
	ports.FileService
	ports.DeletionService
}

func NewFileHandler(fileService ports.FileService, deletionService ports.DeletionService) *FileHandler {
	return &FileHandler{fileService, deletionService}
}

// accessInfoFromRequest собирает данные об акторе для журнала.
// Для анонимных запросов (публичная ссылка) claims отсутствуют — ActorUUID остаётся nil
func accessInfoFromRequest(r *http.Request) model.AccessInfo {
	access := model.AccessInfo{
		IPAddress: r.RemoteAddr,
		UserAgent: r.UserAgent(),
	}

	claims, ok := r.Context().Value(security.UserContextKey).(*security.Claims)
	if ok && claims != nil {
		actorUUID := claims.UserUUID
		access.ActorUUID = &actorUUID
		access.ActorName = claims.Login
	}

	return access
}

// CreateFile godoc
// @Summary Регистрация нового файла
// @Description Создаёт запись о файле и возвращает pre-signed URL для загрузки содержимого в хранилище.
// @Tags Files
// @Accept json
// @Produce json
// @Param body body requestresponse.CreateFileRequest true "Тело запроса"
// @Param Authorization header string true "Bearer токен" default(Bearer <access_token>)
// @Success 201 {object} requestresponse.CreateFileResponse
// @Failure 400 {object} requestresponse.ErrorResponse
// @Failure 401 {object} requestresponse.ErrorResponse
// @Failure 500 {object} requestresponse.ErrorResponse
// @Router /api/files [post]
// @Security BearerAuth
func (h *FileHandler) CreateFile(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	claims, ok := r.Context().Value(security.UserContextKey).(*security.Claims)
	if ok == false || claims == nil {
		sendErrorResponse(w, 401, "unauthorized")
		return
	}

	var req requestresponse.CreateFileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return
	}

	if req.Name == "" {
		sendErrorResponse(w, 400, "имя файла обязательно")
		return
	}

	file := &model.File{
		OwnerUUID: claims.UserUUID,
		Name:      req.Name,
		Category:  model.FileCategory(req.Category),
		MimeType:  req.MimeType,
		SizeBytes: req.SizeBytes,
	}

	putURL, err := h.FileService.CreateFile(r.Context(), file, accessInfoFromRequest(r))
	if err != nil {
		log.Println(err)
		sendErrorResponse(w, 500, "внутренняя ошибка сервера")
		return
	}

	resp := requestresponse.CreateFileResponse{}
	resp.Data.File = requestresponse.FileResponseFromModel(file, "")
	resp.Data.PutURL = putURL

	w.WriteHeader(201)
	json.NewEncoder(w).Encode(resp)
}

// GetFile godoc
// @Summary Получение файла
// @Description Возвращает метаданные файла и pre-signed URL на скачивание. Доступен только владельцу.
// @Tags Files
// @Produce json
// @Param uuid path string true "UUID файла"
// @Param Authorization header string true "Bearer токен" default(Bearer <access_token>)
// @Success 200 {object} requestresponse.GetFileResponse
// @Failure 401 {object} requestresponse.ErrorResponse
// @Failure 404 {object} requestresponse.ErrorResponse
// @Failure 500 {object} requestresponse.ErrorResponse
// @Router /api/files/{uuid} [get]
// @Security BearerAuth
func (h *FileHandler) GetFile(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	claims, ok := r.Context().Value(security.UserContextKey).(*security.Claims)
	if ok == false || claims == nil {
		sendErrorResponse(w, 401, "unauthorized")
		return
	}

	fileUUID := chi.URLParam(r, "uuid")

	result, err := h.FileService.GetFile(r.Context(), fileUUID, claims.UserUUID)
	if err != nil {
		log.Println(err)
		switch {
		case errors.Is(err, model.ErrFileNotFound):
			sendErrorResponse(w, 404, "файл не найден")
		default:
			sendErrorResponse(w, 500, "внутренняя ошибка сервера")
		}
		return
	}

	if r.Method == http.MethodHead {
		w.WriteHeader(http.StatusOK)
		return
	}

	resp := requestresponse.GetFileResponse{}
	resp.Data.File = requestresponse.FileResponseFromModel(result.File, result.GetURL)

	w.WriteHeader(200)
	json.NewEncoder(w).Encode(resp)
}

// GetFileHead godoc
// @Summary Получение файла
// @Description Возвращает метаданные файла. Доступен только владельцу.
// @Tags Files
// @Produce json
// @Param uuid path string true "UUID файла"
// @Param Authorization header string true "Bearer токен" default(Bearer <access_token>)
// @Success 200 {object} requestresponse.GetFileResponse
// @Failure 404 {object} requestresponse.ErrorResponse
// @Router /api/files/{uuid} [head]
// @Security BearerAuth
func (h *FileHandler) GetFileHead(w http.ResponseWriter, r *http.Request) {
	h.GetFile(w, r)
}

// ListFiles godoc
// @Summary Список файлов пользователя
// @Description Возвращает файлы текущего пользователя с постраничной навигацией (cursor-based).
// @Tags Files
// @Produce json
// @Param cursor query string false "Курсор для пагинации"
// @Param limit query int false "Количество файлов в списке" default(50) minimum(1) maximum(100)
// @Param Authorization header string true "Bearer токен" default(Bearer <access_token>)
// @Success 200 {object} requestresponse.ListFilesResponse
// @Failure 401 {object} requestresponse.ErrorResponse
// @Failure 500 {object} requestresponse.ErrorResponse
// @Router /api/files [get]
// @Security BearerAuth
func (h *FileHandler) ListFiles(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	claims, ok := r.Context().Value(security.UserContextKey).(*security.Claims)
	if ok == false || claims == nil {
		sendErrorResponse(w, 401, "unauthorized")
		return
	}

	cursor := r.URL.Query().Get("cursor")
	limit := 50
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			if l > 100 {
				limit = 100
			} else {
				limit = l
			}
		}
	}

	files, nextCursor, err := h.FileService.ListFiles(r.Context(), claims.UserUUID, cursor, limit)
	if err != nil {
		log.Println(err)
		sendErrorResponse(w, 500, "внутренняя ошибка сервера")
		return
	}

	resp := requestresponse.ListFilesResponse{}
	resp.Data.Files = make([]requestresponse.FileResponse, 0, len(files))
	for i := range files {
		resp.Data.Files = append(resp.Data.Files, requestresponse.FileResponseFromModel(&files[i], ""))
	}
	resp.NextCursor = nextCursor
	resp.Count = len(files)

	w.WriteHeader(200)
	json.NewEncoder(w).Encode(resp)
}

// RenameFile godoc
// @Summary Переименование файла
// @Description Меняет имя файла. Доступен только владельцу.
// @Tags Files
// @Accept json
// @Produce json
// @Param uuid path string true "UUID файла"
// @Param body body requestresponse.RenameFileRequest true "Тело запроса"
// @Param Authorization header string true "Bearer токен" default(Bearer <access_token>)
// @Success 200 {object} requestresponse.SuccessResponse
// @Failure 400 {object} requestresponse.ErrorResponse
// @Failure 404 {object} requestresponse.ErrorResponse
// @Failure 500 {object} requestresponse.ErrorResponse
// @Router /api/files/{uuid}/name [put]
// @Security BearerAuth
func (h *FileHandler) RenameFile(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	claims, ok := r.Context().Value(security.UserContextKey).(*security.Claims)
	if ok == false || claims == nil {
		sendErrorResponse(w, 401, "unauthorized")
		return
	}

	fileUUID := chi.URLParam(r, "uuid")

	var req requestresponse.RenameFileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return
	}

	err := h.FileService.RenameFile(r.Context(), fileUUID, claims.UserUUID, req.Name, accessInfoFromRequest(r))
	if err != nil {
		log.Println(err)
		switch {
		case errors.Is(err, model.ErrFileNotFound):
			sendErrorResponse(w, 404, "файл не найден")
		case errors.Is(err, model.ErrEmptyFileName):
			sendErrorResponse(w, 400, "имя файла обязательно")
		default:
			sendErrorResponse(w, 500, "внутренняя ошибка сервера")
		}
		return
	}

	w.WriteHeader(200)
	json.NewEncoder(w).Encode(requestresponse.SuccessResponse{Message: "файл переименован"})
}

// MoveFile godoc
// @Summary Перемещение файла между категориями
// @Description Меняет категорию файла. Доступен только владельцу.
// @Tags Files
// @Accept json
// @Produce json
// @Param uuid path string true "UUID файла"
// @Param body body requestresponse.MoveFileRequest true "Тело запроса"
// @Param Authorization header string true "Bearer токен" default(Bearer <access_token>)
// @Success 200 {object} requestresponse.SuccessResponse
// @Failure 400 {object} requestresponse.ErrorResponse
// @Failure 404 {object} requestresponse.ErrorResponse
// @Failure 500 {object} requestresponse.ErrorResponse
// @Router /api/files/{uuid}/category [put]
// @Security BearerAuth
func (h *FileHandler) MoveFile(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	claims, ok := r.Context().Value(security.UserContextKey).(*security.Claims)
	if ok == false || claims == nil {
		sendErrorResponse(w, 401, "unauthorized")
		return
	}

	fileUUID := chi.URLParam(r, "uuid")

	var req requestresponse.MoveFileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return
	}

	category := model.FileCategory(req.Category)
	if category.Valid() == false {
		sendErrorResponse(w, 400, "неизвестная категория")
		return
	}

	err := h.FileService.MoveFile(r.Context(), fileUUID, claims.UserUUID, category, accessInfoFromRequest(r))
	if err != nil {
		log.Println(err)
		switch {
		case errors.Is(err, model.ErrFileNotFound):
			sendErrorResponse(w, 404, "файл не найден")
		default:
			sendErrorResponse(w, 500, "внутренняя ошибка сервера")
		}
		return
	}

	w.WriteHeader(200)
	json.NewEncoder(w).Encode(requestresponse.SuccessResponse{Message: "категория изменена"})
}

// DeleteFile godoc
// @Summary Удаление файла
// @Description Каскадно удаляет файл вместе со всеми доступами и журналом. Возвращает счётчики удалённого.
// @Tags Files
// @Produce json
// @Param uuid path string true "UUID файла"
// @Param Authorization header string true "Bearer токен" default(Bearer <access_token>)
// @Success 200 {object} requestresponse.DeleteFileResponse
// @Failure 401 {object} requestresponse.ErrorResponse
// @Failure 404 {object} requestresponse.ErrorResponse
// @Failure 500 {object} requestresponse.ErrorResponse
// @Router /api/files/{uuid} [delete]
// @Security BearerAuth
func (h *FileHandler) DeleteFile(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	claims, ok := r.Context().Value(security.UserContextKey).(*security.Claims)
	if ok == false || claims == nil {
		sendErrorResponse(w, 401, "unauthorized")
		return
	}

	fileUUID := chi.URLParam(r, "uuid")

	result, err := h.DeletionService.DeleteFile(r.Context(), fileUUID, claims.UserUUID, accessInfoFromRequest(r))
	if err != nil {
		log.Println(err)
		switch {
		case errors.Is(err, model.ErrFileNotFound):
			sendErrorResponse(w, 404, "файл не найден")
		default:
			sendErrorResponse(w, 500, "внутренняя ошибка сервера")
		}
		return
	}

	resp := requestresponse.DeleteFileResponse{Response: *result}

	w.WriteHeader(200)
	json.NewEncoder(w).Encode(resp)
}

// FileHistory godoc
// @Summary Журнал действий по файлу
// @Description Возвращает записи журнала для файла, свежие первыми. Доступен только владельцу.
// @Tags Files
// @Produce json
// @Param uuid path string true "UUID файла"
// @Param limit query int false "Количество записей" default(50) minimum(1) maximum(200)
// @Param Authorization header string true "Bearer токен" default(Bearer <access_token>)
// @Success 200 {object} requestresponse.FileHistoryResponse
// @Failure 401 {object} requestresponse.ErrorResponse
// @Failure 404 {object} requestresponse.ErrorResponse
// @Failure 500 {object} requestresponse.ErrorResponse
// @Router /api/files/{uuid}/history [get]
// @Security BearerAuth
func (h *FileHandler) FileHistory(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	claims, ok := r.Context().Value(security.UserContextKey).(*security.Claims)
	if ok == false || claims == nil {
		sendErrorResponse(w, 401, "unauthorized")
		return
	}

	fileUUID := chi.URLParam(r, "uuid")

	limit := 50
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			if l > 200 {
				limit = 200
			} else {
				limit = l
			}
		}
	}

	entries, err := h.FileService.FileHistory(r.Context(), fileUUID, claims.UserUUID, limit)
	if err != nil {
		log.Println(err)
		switch {
		case errors.Is(err, model.ErrFileNotFound):
			sendErrorResponse(w, 404, "файл не найден")
		default:
			sendErrorResponse(w, 500, "внутренняя ошибка сервера")
		}
		return
	}

	resp := requestresponse.FileHistoryResponse{}
	resp.Data.Entries = entries

	w.WriteHeader(200)
	json.NewEncoder(w).Encode(resp)
}
