package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"file-sharing-server/internal/model"
	"file-sharing-server/internal/model/requestresponse"
	"file-sharing-server/internal/ports"
	"file-sharing-server/internal/security"
	"github.com/go-chi/chi/v5"
)

type ShareHandler struct {
	ports.ShareService
}

func NewShareHandler(shareService ports.ShareService) *ShareHandler {
	return &ShareHandler{shareService}
}

// sendShareError сопоставляет сентинельные ошибки бизнес-логики статус кодам.
// Для отказа в доступе наружу уходит один и тот же ответ независимо от причины
func sendShareError(w http.ResponseWriter, err error) {
	log.Println(err)
	switch {
	case errors.Is(err, model.ErrShareLimitsMissing):
		sendErrorResponse(w, 400, "нужно указать срок действия или лимит скачиваний")
	case errors.Is(err, model.ErrSelfShare):
		sendErrorResponse(w, 400, "нельзя выдать доступ самому себе")
	case errors.Is(err, model.ErrUserNotFound):
		sendErrorResponse(w, 404, "пользователь не найден")
	case errors.Is(err, model.ErrFileNotFound):
		sendErrorResponse(w, 404, "файл не найден")
	case errors.Is(err, model.ErrShareNotFound):
		sendErrorResponse(w, 404, "доступ не найден")
	case errors.Is(err, model.ErrShareExpired):
		sendErrorResponse(w, 403, "доступ запрещён")
	default:
		sendErrorResponse(w, 500, "внутренняя ошибка сервера")
	}
}

// CreateLinkShare godoc
// @Summary Создание публичной ссылки
// @Description Выпускает токен публичного доступа к файлу. Обязательно хотя бы одно ограничение: срок или лимит скачиваний.
// @Tags Shares
// @Accept json
// @Produce json
// @Param uuid path string true "UUID файла"
// @Param body body requestresponse.CreateLinkShareRequest true "Тело запроса"
// @Param Authorization header string true "Bearer токен" default(Bearer <access_token>)
// @Success 201 {object} requestresponse.CreateLinkShareResponse
// @Failure 400 {object} requestresponse.ErrorResponse
// @Failure 401 {object} requestresponse.ErrorResponse
// @Failure 404 {object} requestresponse.ErrorResponse
// @Failure 500 {object} requestresponse.ErrorResponse
// @Router /api/files/{uuid}/shares/link [post]
// @Security BearerAuth
func (h *ShareHandler) CreateLinkShare(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	claims, ok := r.Context().Value(security.UserContextKey).(*security.Claims)
	if ok == false || claims == nil {
		sendErrorResponse(w, 401, "unauthorized")
		return
	}

	fileUUID := chi.URLParam(r, "uuid")

	var req requestresponse.CreateLinkShareRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return
	}

	share, err := h.ShareService.CreateLinkShare(r.Context(), fileUUID, claims.UserUUID, req.ExpiresAt, req.MaxCount, accessInfoFromRequest(r))
	if err != nil {
		sendShareError(w, err)
		return
	}

	resp := requestresponse.CreateLinkShareResponse{}
	resp.Response.ShareUUID = share.UUID
	resp.Response.Token = share.Token
	resp.Response.ExpiresAt = share.ExpiresAt
	resp.Response.MaxCount = share.MaxCount

	w.WriteHeader(201)
	json.NewEncoder(w).Encode(resp)
}

// CreateUserShare godoc
// @Summary Выдача доступа пользователю
// @Description Выдаёт именной доступ к файлу конкретному пользователю. Повторная выдача тому же получателю деактивирует предыдущую.
// @Tags Shares
// @Accept json
// @Produce json
// @Param uuid path string true "UUID файла"
// @Param body body requestresponse.CreateUserShareRequest true "Тело запроса"
// @Param Authorization header string true "Bearer токен" default(Bearer <access_token>)
// @Success 201 {object} requestresponse.CreateUserShareResponse
// @Failure 400 {object} requestresponse.ErrorResponse
// @Failure 401 {object} requestresponse.ErrorResponse
// @Failure 404 {object} requestresponse.ErrorResponse
// @Failure 500 {object} requestresponse.ErrorResponse
// @Router /api/files/{uuid}/shares/user [post]
// @Security BearerAuth
func (h *ShareHandler) CreateUserShare(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	claims, ok := r.Context().Value(security.UserContextKey).(*security.Claims)
	if ok == false || claims == nil {
		sendErrorResponse(w, 401, "unauthorized")
		return
	}

	fileUUID := chi.URLParam(r, "uuid")

	var req requestresponse.CreateUserShareRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return
	}

	if req.RecipientUUID == "" {
		sendErrorResponse(w, 400, "recipient_uuid обязателен")
		return
	}

	share, err := h.ShareService.CreateUserShare(r.Context(), fileUUID, claims.UserUUID, req.RecipientUUID, req.ExpiresAt, req.MaxCount, accessInfoFromRequest(r))
	if err != nil {
		sendShareError(w, err)
		return
	}

	resp := requestresponse.CreateUserShareResponse{}
	resp.Response.ShareUUID = share.UUID
	resp.Response.RecipientUUID = share.RecipientUUID

	w.WriteHeader(201)
	json.NewEncoder(w).Encode(resp)
}

// ConsumeLinkShare godoc
// @Summary Скачивание по публичной ссылке
// @Description Погашает одно использование публичной ссылки и возвращает pre-signed URL на скачивание. Авторизация не требуется.
// @Tags Shares
// @Produce json
// @Param token path string true "Токен публичной ссылки"
// @Success 200 {object} requestresponse.ConsumeShareResponse
// @Failure 403 {object} requestresponse.ErrorResponse "Доступ запрещён"
// @Failure 404 {object} requestresponse.ErrorResponse
// @Failure 500 {object} requestresponse.ErrorResponse
// @Router /public/shares/{token} [post]
func (h *ShareHandler) ConsumeLinkShare(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	token := chi.URLParam(r, "token")
	if token == "" {
		sendErrorResponse(w, 404, "доступ не найден")
		return
	}

	result, err := h.ShareService.ConsumeLinkShare(r.Context(), token, accessInfoFromRequest(r))
	if err != nil {
		sendShareError(w, err)
		return
	}

	resp := requestresponse.ConsumeShareResponse{}
	resp.Data.File = requestresponse.FileResponseFromModel(result.File, "")
	resp.Data.GetURL = result.GetURL

	w.WriteHeader(200)
	json.NewEncoder(w).Encode(resp)
}

// ConsumeUserShare godoc
// @Summary Скачивание по именному доступу
// @Description Погашает одно использование доступа, выданного текущему пользователю, и возвращает pre-signed URL.
// @Tags Shares
// @Produce json
// @Param uuid path string true "UUID файла"
// @Param Authorization header string true "Bearer токен" default(Bearer <access_token>)
// @Success 200 {object} requestresponse.ConsumeShareResponse
// @Failure 401 {object} requestresponse.ErrorResponse
// @Failure 403 {object} requestresponse.ErrorResponse "Доступ запрещён"
// @Failure 404 {object} requestresponse.ErrorResponse
// @Failure 500 {object} requestresponse.ErrorResponse
// @Router /api/shared/{uuid}/download [post]
// @Security BearerAuth
func (h *ShareHandler) ConsumeUserShare(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	claims, ok := r.Context().Value(security.UserContextKey).(*security.Claims)
	if ok == false || claims == nil {
		sendErrorResponse(w, 401, "unauthorized")
		return
	}

	fileUUID := chi.URLParam(r, "uuid")

	result, err := h.ShareService.ConsumeUserShare(r.Context(), fileUUID, claims.UserUUID, accessInfoFromRequest(r))
	if err != nil {
		sendShareError(w, err)
		return
	}

	resp := requestresponse.ConsumeShareResponse{}
	resp.Data.File = requestresponse.FileResponseFromModel(result.File, "")
	resp.Data.GetURL = result.GetURL

	w.WriteHeader(200)
	json.NewEncoder(w).Encode(resp)
}

// ListFileShares godoc
// @Summary Все доступы файла
// @Description Возвращает публичные ссылки и именные доступы файла. Активность каждого считается на момент запроса.
// @Tags Shares
// @Produce json
// @Param uuid path string true "UUID файла"
// @Param Authorization header string true "Bearer токен" default(Bearer <access_token>)
// @Success 200 {object} requestresponse.ListSharesResponse
// @Failure 401 {object} requestresponse.ErrorResponse
// @Failure 404 {object} requestresponse.ErrorResponse
// @Failure 500 {object} requestresponse.ErrorResponse
// @Router /api/files/{uuid}/shares [get]
// @Security BearerAuth
func (h *ShareHandler) ListFileShares(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	claims, ok := r.Context().Value(security.UserContextKey).(*security.Claims)
	if ok == false || claims == nil {
		sendErrorResponse(w, 401, "unauthorized")
		return
	}

	fileUUID := chi.URLParam(r, "uuid")

	linkShares, userShares, err := h.ShareService.ListFileShares(r.Context(), fileUUID, claims.UserUUID)
	if err != nil {
		sendShareError(w, err)
		return
	}

	now := time.Now()
	resp := requestresponse.ListSharesResponse{}
	resp.Data.LinkShares = make([]requestresponse.ShareResponse, 0, len(linkShares))
	for i := range linkShares {
		resp.Data.LinkShares = append(resp.Data.LinkShares, requestresponse.LinkShareResponseFromModel(&linkShares[i], now))
	}
	resp.Data.UserShares = make([]requestresponse.ShareResponse, 0, len(userShares))
	for i := range userShares {
		resp.Data.UserShares = append(resp.Data.UserShares, requestresponse.UserShareResponseFromModel(&userShares[i], now))
	}

	w.WriteHeader(200)
	json.NewEncoder(w).Encode(resp)
}

// ListSharedWithMe godoc
// @Summary Доступные мне файлы
// @Description Возвращает файлы, к которым текущему пользователю выдан активный именной доступ.
// @Tags Shares
// @Produce json
// @Param Authorization header string true "Bearer токен" default(Bearer <access_token>)
// @Success 200 {object} requestresponse.SharedWithMeResponse
// @Failure 401 {object} requestresponse.ErrorResponse
// @Failure 500 {object} requestresponse.ErrorResponse
// @Router /api/shared [get]
// @Security BearerAuth
func (h *ShareHandler) ListSharedWithMe(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	claims, ok := r.Context().Value(security.UserContextKey).(*security.Claims)
	if ok == false || claims == nil {
		sendErrorResponse(w, 401, "unauthorized")
		return
	}

	shares, err := h.ShareService.ListSharedWithMe(r.Context(), claims.UserUUID)
	if err != nil {
		sendShareError(w, err)
		return
	}

	resp := requestresponse.SharedWithMeResponse{}
	resp.Data.Shares = shares

	w.WriteHeader(200)
	json.NewEncoder(w).Encode(resp)
}

// RevokeLinkShare godoc
// @Summary Отзыв публичной ссылки
// @Description Деактивирует публичную ссылку. Доступен только владельцу файла.
// @Tags Shares
// @Produce json
// @Param share_uuid path string true "UUID доступа"
// @Param Authorization header string true "Bearer токен" default(Bearer <access_token>)
// @Success 200 {object} requestresponse.SuccessResponse
// @Failure 401 {object} requestresponse.ErrorResponse
// @Failure 404 {object} requestresponse.ErrorResponse
// @Failure 500 {object} requestresponse.ErrorResponse
// @Router /api/shares/link/{share_uuid} [delete]
// @Security BearerAuth
func (h *ShareHandler) RevokeLinkShare(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	claims, ok := r.Context().Value(security.UserContextKey).(*security.Claims)
	if ok == false || claims == nil {
		sendErrorResponse(w, 401, "unauthorized")
		return
	}

	shareUUID := chi.URLParam(r, "share_uuid")

	if err := h.ShareService.RevokeLinkShare(r.Context(), shareUUID, claims.UserUUID, accessInfoFromRequest(r)); err != nil {
		sendShareError(w, err)
		return
	}

	w.WriteHeader(200)
	json.NewEncoder(w).Encode(requestresponse.SuccessResponse{Message: "доступ отозван"})
}

// RevokeUserShare godoc
// @Summary Отзыв именного доступа
// @Description Деактивирует именной доступ. Доступен только владельцу файла.
// @Tags Shares
// @Produce json
// @Param share_uuid path string true "UUID доступа"
// @Param Authorization header string true "Bearer токен" default(Bearer <access_token>)
// @Success 200 {object} requestresponse.SuccessResponse
// @Failure 401 {object} requestresponse.ErrorResponse
// @Failure 404 {object} requestresponse.ErrorResponse
// @Failure 500 {object} requestresponse.ErrorResponse
// @Router /api/shares/user/{share_uuid} [delete]
// @Security BearerAuth
func (h *ShareHandler) RevokeUserShare(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	claims, ok := r.Context().Value(security.UserContextKey).(*security.Claims)
	if ok == false || claims == nil {
		sendErrorResponse(w, 401, "unauthorized")
		return
	}

	shareUUID := chi.URLParam(r, "share_uuid")

	if err := h.ShareService.RevokeUserShare(r.Context(), shareUUID, claims.UserUUID, accessInfoFromRequest(r)); err != nil {
		sendShareError(w, err)
		return
	}

	w.WriteHeader(200)
	json.NewEncoder(w).Encode(requestresponse.SuccessResponse{Message: "доступ отозван"})
}

// RevokeAllShares godoc
// @Summary Отзыв всех доступов файла
// @Description Одной транзакцией деактивирует все публичные ссылки и именные доступы файла. Возвращает счётчики отозванного.
// @Tags Shares
// @Produce json
// @Param uuid path string true "UUID файла"
// @Param Authorization header string true "Bearer токен" default(Bearer <access_token>)
// @Success 200 {object} requestresponse.RevokeAllResponse
// @Failure 401 {object} requestresponse.ErrorResponse
// @Failure 404 {object} requestresponse.ErrorResponse
// @Failure 500 {object} requestresponse.ErrorResponse
// @Router /api/files/{uuid}/shares [delete]
// @Security BearerAuth
func (h *ShareHandler) RevokeAllShares(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	claims, ok := r.Context().Value(security.UserContextKey).(*security.Claims)
	if ok == false || claims == nil {
		sendErrorResponse(w, 401, "unauthorized")
		return
	}

	fileUUID := chi.URLParam(r, "uuid")

	linkCount, userCount, err := h.ShareService.RevokeAllShares(r.Context(), fileUUID, claims.UserUUID, accessInfoFromRequest(r))
	if err != nil {
		sendShareError(w, err)
		return
	}

	resp := requestresponse.RevokeAllResponse{}
	resp.Response.LinkShares = linkCount
	resp.Response.UserShares = userCount

	w.WriteHeader(200)
	json.NewEncoder(w).Encode(resp)
}
