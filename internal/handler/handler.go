package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/GoArmGo/Pereval/internal/domain"
	"github.com/GoArmGo/Pereval/internal/usecase"
	"github.com/go-chi/chi/v5"
)

const (
	// maxBodyBytes ограничивает тело запроса: изображения приходят в base64
	maxBodyBytes = 64 << 20

	msgBadRequest     = "Bad Request: недостаточно данных"
	msgInternal       = "Внутренняя ошибка сервера"
	msgNotFound       = "Запись не найдена"
	msgSubmitted      = "Отправлено успешно"
	msgUpdated        = "Запись успешно обновлена"
	msgNothingToPatch = "Нет данных для обновления"
)

// Pinger проверка доступности хранилища для /healthz.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PerevalHandler обработчик HTTP-запросов для работы с заявками о перевалах.
type PerevalHandler struct {
	perevalUseCase usecase.PerevalUseCase
	pinger         Pinger
	logger         *slog.Logger
}

// NewPerevalHandler создаёт новый экземпляр PerevalHandler.
func NewPerevalHandler(uc usecase.PerevalUseCase, pinger Pinger, logger *slog.Logger) *PerevalHandler {
	return &PerevalHandler{
		perevalUseCase: uc,
		pinger:         pinger,
		logger:         logger,
	}
}

// submitResponse конверт ответа POST /submitData и ошибок чтения.
type submitResponse struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	ID      *int64 `json:"id"`
}

// updateResponse конверт ответа PATCH /submitData/{id}.
type updateResponse struct {
	State   int    `json:"state"`
	Message string `json:"message"`
	ID      int64  `json:"id,omitempty"`
}

// respondWithJSON отправляет JSON-ответ клиенту.
func respondWithJSON(w http.ResponseWriter, code int, payload any, logger *slog.Logger) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		logger.Error("failed to marshal JSON response", "error", err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err = w.Write(response); err != nil {
		logger.Error("failed to write HTTP response", "error", err)
	}
}

// respondWithError отправляет JSON-ответ с ошибкой.
func respondWithError(w http.ResponseWriter, code int, message string, logger *slog.Logger) {
	respondWithJSON(w, code, map[string]string{"error": message}, logger)
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(dst)
}

// validationMessage текст для клиента: ошибки формы и значений различаются.
func validationMessage(err error) string {
	var shape errShape
	if errors.As(err, &shape) {
		return msgBadRequest + ": " + shape.field
	}
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		return ve.Error()
	}
	return msgBadRequest
}

// Root отвечает, что сервис жив.
func (h *PerevalHandler) Root(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"message": "FSTR Pereval API is running"}, h.logger)
}

// Healthz проверяет доступность хранилища.
func (h *PerevalHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	if err := h.pinger.Ping(r.Context()); err != nil {
		h.logger.Error("storage health check failed", "error", err)
		respondWithJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"}, h.logger)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"}, h.logger)
}

// SubmitData принимает новую заявку о перевале.
func (h *PerevalHandler) SubmitData(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.logger.Warn("failed to decode submit request", "error", err)
		respondWithJSON(w, http.StatusBadRequest, submitResponse{Status: http.StatusBadRequest, Message: msgBadRequest}, h.logger)
		return
	}

	in, err := req.toInput()
	if err != nil {
		h.logger.Warn("submit request is incomplete", "error", err)
		respondWithJSON(w, http.StatusBadRequest, submitResponse{Status: http.StatusBadRequest, Message: validationMessage(err)}, h.logger)
		return
	}

	id, err := h.perevalUseCase.SubmitPereval(r.Context(), in)
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		h.logger.Warn("submit request rejected", "error", err)
		respondWithJSON(w, http.StatusBadRequest, submitResponse{Status: http.StatusBadRequest, Message: validationMessage(err)}, h.logger)
		return
	case err != nil:
		h.logger.Error("failed to submit pereval", "error", err)
		respondWithJSON(w, http.StatusInternalServerError, submitResponse{Status: http.StatusInternalServerError, Message: msgInternal}, h.logger)
		return
	}

	h.logger.Info("pereval submitted", "pereval_id", id)
	respondWithJSON(w, http.StatusOK, submitResponse{Status: http.StatusOK, Message: msgSubmitted, ID: &id}, h.logger)
}

// GetPereval возвращает полное представление перевала.
func (h *PerevalHandler) GetPereval(w http.ResponseWriter, r *http.Request) {
	id, ok := h.perevalID(r)
	if !ok {
		respondWithJSON(w, http.StatusBadRequest, submitResponse{Status: http.StatusBadRequest, Message: msgBadRequest}, h.logger)
		return
	}

	view, err := h.perevalUseCase.GetPereval(r.Context(), id)
	switch {
	case errors.Is(err, domain.ErrPerevalNotFound):
		respondWithJSON(w, http.StatusNotFound, submitResponse{Status: http.StatusNotFound, Message: msgNotFound, ID: &id}, h.logger)
		return
	case err != nil:
		h.logger.Error("failed to get pereval", "pereval_id", id, "error", err)
		respondWithJSON(w, http.StatusInternalServerError, submitResponse{Status: http.StatusInternalServerError, Message: msgInternal, ID: &id}, h.logger)
		return
	}

	respondWithJSON(w, http.StatusOK, view, h.logger)
}

// UpdatePereval частично обновляет заявку в статусе new.
func (h *PerevalHandler) UpdatePereval(w http.ResponseWriter, r *http.Request) {
	id, ok := h.perevalID(r)
	if !ok {
		respondWithJSON(w, http.StatusBadRequest, updateResponse{State: 0, Message: msgBadRequest}, h.logger)
		return
	}

	var req updateRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.logger.Warn("failed to decode update request", "pereval_id", id, "error", err)
		respondWithJSON(w, http.StatusBadRequest, updateResponse{State: 0, Message: msgBadRequest, ID: id}, h.logger)
		return
	}

	in, err := req.toInput()
	if err != nil {
		respondWithJSON(w, http.StatusBadRequest, updateResponse{State: 0, Message: validationMessage(err), ID: id}, h.logger)
		return
	}

	err = h.perevalUseCase.UpdatePereval(r.Context(), id, in)

	var ve *domain.ValidationError
	switch {
	case err == nil:
		respondWithJSON(w, http.StatusOK, updateResponse{State: 1, Message: msgUpdated, ID: id}, h.logger)
	case errors.As(err, &ve) && ve.Field == "body":
		respondWithJSON(w, http.StatusBadRequest, updateResponse{State: 0, Message: msgNothingToPatch, ID: id}, h.logger)
	case errors.Is(err, domain.ErrInvalidInput):
		respondWithJSON(w, http.StatusBadRequest, updateResponse{State: 0, Message: validationMessage(err), ID: id}, h.logger)
	case errors.Is(err, domain.ErrPerevalNotFound):
		respondWithJSON(w, http.StatusNotFound, updateResponse{State: 0, Message: msgNotFound, ID: id}, h.logger)
	case errors.Is(err, domain.ErrNotEditable):
		respondWithJSON(w, http.StatusConflict, updateResponse{State: 0, Message: err.Error(), ID: id}, h.logger)
	default:
		h.logger.Error("failed to update pereval", "pereval_id", id, "error", err)
		respondWithJSON(w, http.StatusInternalServerError, updateResponse{State: 0, Message: msgInternal, ID: id}, h.logger)
	}
}

// ListByEmail возвращает краткие представления заявок автора.
func (h *PerevalHandler) ListByEmail(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.URL.Query().Get("user_email"))
	if email == "" {
		h.logger.Warn("missing required parameter", "param", "user_email")
		respondWithError(w, http.StatusBadRequest, "Не указан user_email", h.logger)
		return
	}

	list, err := h.perevalUseCase.ListPerevalsByEmail(r.Context(), email)
	if err != nil {
		h.logger.Error("failed to list perevals by email", "email", email, "error", err)
		respondWithError(w, http.StatusInternalServerError, msgInternal, h.logger)
		return
	}

	respondWithJSON(w, http.StatusOK, list, h.logger)
}

func (h *PerevalHandler) perevalID(r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		h.logger.Warn("invalid pereval id", "id", raw)
		return 0, false
	}
	return id, true
}
