package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"video-training-service/internal/app"
	"video-training-service/internal/domain"
)

// APIHandler serves the account, catalog and report endpoints.
type APIHandler struct {
	accounts *app.AccountService
	catalog  *app.CatalogService
	reports  *app.ReportService
	log      *slog.Logger
}

func NewAPIHandler(accounts *app.AccountService, catalog *app.CatalogService, reports *app.ReportService, log *slog.Logger) *APIHandler {
	if log == nil {
		log = slog.Default()
	}
	return &APIHandler{accounts: accounts, catalog: catalog, reports: reports, log: log}
}

// Register mounts the endpoints on mux.
func (h *APIHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/accounts", h.register)
	mux.HandleFunc("POST /api/login", h.login)
	mux.HandleFunc("GET /api/videos", h.listVideos)
	mux.HandleFunc("POST /api/videos", h.createVideo)
	mux.HandleFunc("GET /api/videos/{id}", h.getVideo)
	mux.HandleFunc("GET /api/admin/videos", h.listVideosAdmin)
	mux.HandleFunc("GET /api/admin/videos/{id}", h.getVideoAdmin)
	mux.HandleFunc("POST /api/videos/{id}/questions", h.addQuestion)
	mux.HandleFunc("PUT /api/videos/{id}/questions/{index}", h.updateQuestion)
	mux.HandleFunc("DELETE /api/videos/{id}/questions/{index}", h.deleteQuestion)
	mux.HandleFunc("GET /api/users/{id}/results", h.userResults)
}

type registerRequest struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Credential string `json:"credential"`
}

type userResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type loginRequest struct {
	Email      string `json:"email"`
	Credential string `json:"credential"`
}

type videoRequest struct {
	Title    string `json:"title"`
	URL      string `json:"url"`
	FilePath string `json:"filePath"`
}

// learnerVideo is the catalog as learners see it: no expected answers.
type learnerVideo struct {
	ID        string             `json:"id"`
	Title     string             `json:"title"`
	Source    domain.VideoSource `json:"source"`
	Questions []learnerQuestion  `json:"questions"`
	CreatedAt time.Time          `json:"created_at"`
}

type learnerQuestion struct {
	ID   string `json:"id"`
	Text string `json:"question"`
}

func toLearnerVideo(v domain.Video) learnerVideo {
	out := learnerVideo{ID: v.ID, Title: v.Title, Source: v.Source, CreatedAt: v.CreatedAt, Questions: make([]learnerQuestion, 0, len(v.Questions))}
	for _, q := range v.Questions {
		out.Questions = append(out.Questions, learnerQuestion{ID: q.ID, Text: q.Text})
	}
	return out
}

type questionRequest struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

func (h *APIHandler) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !h.decode(w, r, &req) {
		return
	}
	user, err := h.accounts.Register(r.Context(), req.Name, req.Email, req.Credential)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, userResponse{ID: user.ID, Name: user.Name, Email: user.Email})
}

func (h *APIHandler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !h.decode(w, r, &req) {
		return
	}
	userID, err := h.accounts.Authenticate(r.Context(), req.Email, req.Credential)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"userId": userID})
}

func (h *APIHandler) listVideos(w http.ResponseWriter, r *http.Request) {
	videos, err := h.catalog.ListVideos(r.Context())
	if err != nil {
		h.fail(w, err)
		return
	}
	out := make([]learnerVideo, 0, len(videos))
	for _, v := range videos {
		out = append(out, toLearnerVideo(v))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *APIHandler) listVideosAdmin(w http.ResponseWriter, r *http.Request) {
	videos, err := h.catalog.ListVideos(r.Context())
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, videos)
}

func (h *APIHandler) createVideo(w http.ResponseWriter, r *http.Request) {
	var req videoRequest
	if !h.decode(w, r, &req) {
		return
	}
	id, err := h.catalog.CreateVideo(r.Context(), req.Title, domain.VideoSource{URL: req.URL, FilePath: req.FilePath})
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (h *APIHandler) getVideo(w http.ResponseWriter, r *http.Request) {
	video, err := h.catalog.GetVideo(r.Context(), r.PathValue("id"))
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toLearnerVideo(video))
}

func (h *APIHandler) getVideoAdmin(w http.ResponseWriter, r *http.Request) {
	video, err := h.catalog.GetVideo(r.Context(), r.PathValue("id"))
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, video)
}

func (h *APIHandler) addQuestion(w http.ResponseWriter, r *http.Request) {
	var req questionRequest
	if !h.decode(w, r, &req) {
		return
	}
	q, err := h.catalog.AddQuestion(r.Context(), r.PathValue("id"), req.Question, req.Answer)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, q)
}

// updateQuestion addresses the question by position, or by stable id when
// the path segment is not a number.
func (h *APIHandler) updateQuestion(w http.ResponseWriter, r *http.Request) {
	var req questionRequest
	if !h.decode(w, r, &req) {
		return
	}
	videoID, ref := r.PathValue("id"), r.PathValue("index")
	var err error
	if index, convErr := strconv.Atoi(ref); convErr == nil {
		err = h.catalog.UpdateQuestion(r.Context(), videoID, index, req.Question, req.Answer)
	} else {
		err = h.catalog.UpdateQuestionByID(r.Context(), videoID, ref, req.Question, req.Answer)
	}
	if err != nil {
		h.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *APIHandler) deleteQuestion(w http.ResponseWriter, r *http.Request) {
	videoID, ref := r.PathValue("id"), r.PathValue("index")
	var err error
	if index, convErr := strconv.Atoi(ref); convErr == nil {
		err = h.catalog.DeleteQuestion(r.Context(), videoID, index)
	} else {
		err = h.catalog.DeleteQuestionByID(r.Context(), videoID, ref)
	}
	if err != nil {
		h.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *APIHandler) userResults(w http.ResponseWriter, r *http.Request) {
	report, err := h.reports.UserReport(r.Context(), r.PathValue("id"))
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *APIHandler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, errorPayload{Message: "invalid json body"})
		return false
	}
	return true
}

func (h *APIHandler) fail(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.log.Error("api request failed", "err", err)
	}
	writeJSON(w, status, errorPayload{Message: err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrDuplicateEmail):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrEmptyAnswer):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrStorageUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
