package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/trickspot/backend/internal/api/middleware"
	"github.com/trickspot/backend/internal/domain"
	"github.com/trickspot/backend/internal/service"
)

type BattleHandler struct {
	battleService     *service.BattleService
	submissionService *service.SubmissionService
}

func NewBattleHandler(battleService *service.BattleService, submissionService *service.SubmissionService) *BattleHandler {
	return &BattleHandler{
		battleService:     battleService,
		submissionService: submissionService,
	}
}

type CreateBattleRequest struct {
	Title               string     `json:"title"`
	Description         string     `json:"description"`
	ReferenceVideoURL   string     `json:"referenceVideoUrl"`
	ReferenceVideoTitle string     `json:"referenceVideoTitle"`
	TimeLimitMinutes    int        `json:"timeLimitMinutes"`
	PrizePoints         int        `json:"prizePoints"`
	StartTime           *time.Time `json:"startTime"`
}

type SubmitVideoRequest struct {
	VideoURL string `json:"videoUrl"`
	Title    string `json:"title"`
}

type JudgeDecisionRequest struct {
	Approve       bool `json:"approve"`
	DeclareWinner bool `json:"declareWinner"`
}

type AddJudgeRequest struct {
	UserID string `json:"userId"`
}

// writeBattleError maps the battle domain errors onto HTTP statuses. Unknown
// errors become 500s without leaking internals.
func writeBattleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrBattleNotFound):
		http.Error(w, "Battle not found", http.StatusNotFound)
	case errors.Is(err, domain.ErrVideoNotFound):
		http.Error(w, "Video not found", http.StatusNotFound)
	case errors.Is(err, domain.ErrRegistrationClosed):
		http.Error(w, "Registration is closed", http.StatusConflict)
	case errors.Is(err, domain.ErrAlreadyJoined):
		http.Error(w, "Already joined", http.StatusConflict)
	case errors.Is(err, domain.ErrInsufficientParticipants):
		http.Error(w, "At least two participants are required", http.StatusConflict)
	case errors.Is(err, domain.ErrBattleNotActive):
		http.Error(w, "Battle is not active", http.StatusConflict)
	case errors.Is(err, domain.ErrNotOrganizer):
		http.Error(w, "Only the organizer may do this", http.StatusForbidden)
	case errors.Is(err, domain.ErrNotAJudge):
		http.Error(w, "Only a judge may do this", http.StatusForbidden)
	case errors.Is(err, domain.ErrNotAParticipant):
		http.Error(w, "Not a participant", http.StatusForbidden)
	case errors.Is(err, domain.ErrNotYourTurn):
		http.Error(w, "Not your turn", http.StatusConflict)
	case errors.Is(err, domain.ErrDeadlineExpired):
		http.Error(w, "Turn deadline has passed", http.StatusConflict)
	case errors.Is(err, domain.ErrDuplicateSubmission):
		http.Error(w, "A submission is already pending for this turn", http.StatusConflict)
	case errors.Is(err, domain.ErrAlreadyJudged):
		http.Error(w, "Video has already been judged", http.StatusConflict)
	default:
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (h *BattleHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req CreateBattleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.Title == "" || req.ReferenceVideoURL == "" {
		http.Error(w, "Title and reference video are required", http.StatusBadRequest)
		return
	}

	battle, err := h.battleService.CreateBattle(r.Context(), userID, service.CreateBattleInput{
		Title:               req.Title,
		Description:         req.Description,
		ReferenceVideoURL:   req.ReferenceVideoURL,
		ReferenceVideoTitle: req.ReferenceVideoTitle,
		TimeLimitMinutes:    req.TimeLimitMinutes,
		PrizePoints:         req.PrizePoints,
		StartTime:           req.StartTime,
	})
	if err != nil {
		http.Error(w, "Failed to create battle", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(battle)
}

func (h *BattleHandler) List(w http.ResponseWriter, r *http.Request) {
	var statuses []domain.BattleStatus
	for _, s := range r.URL.Query()["status"] {
		statuses = append(statuses, domain.BattleStatus(s))
	}

	limit, offset := paginationParams(r, 20)

	battles, err := h.battleService.ListBattles(r.Context(), statuses, limit, offset)
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(battles)
}

// Get resolves a battle by id or share slug.
func (h *BattleHandler) Get(w http.ResponseWriter, r *http.Request) {
	battle, err := h.battleService.GetBattle(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeBattleError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(battle)
}

func (h *BattleHandler) Participants(w http.ResponseWriter, r *http.Request) {
	battleID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Invalid battle id", http.StatusBadRequest)
		return
	}

	participants, err := h.battleService.ListParticipants(r.Context(), battleID)
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(participants)
}

func (h *BattleHandler) Judges(w http.ResponseWriter, r *http.Request) {
	battleID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Invalid battle id", http.StatusBadRequest)
		return
	}

	judges, err := h.battleService.ListJudges(r.Context(), battleID)
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(judges)
}

func (h *BattleHandler) Join(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	battleID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Invalid battle id", http.StatusBadRequest)
		return
	}

	participant, err := h.battleService.JoinBattle(r.Context(), battleID, userID)
	if err != nil {
		writeBattleError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(participant)
}

func (h *BattleHandler) Start(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	battleID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Invalid battle id", http.StatusBadRequest)
		return
	}

	battle, err := h.battleService.StartBattle(r.Context(), battleID, userID)
	if err != nil {
		writeBattleError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(battle)
}

func (h *BattleHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	battleID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Invalid battle id", http.StatusBadRequest)
		return
	}

	battle, err := h.battleService.CancelBattle(r.Context(), battleID, userID)
	if err != nil {
		writeBattleError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(battle)
}

func (h *BattleHandler) AddJudge(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	battleID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Invalid battle id", http.StatusBadRequest)
		return
	}

	var req AddJudgeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	judgeUserID, err := uuid.Parse(req.UserID)
	if err != nil {
		http.Error(w, "Invalid user id", http.StatusBadRequest)
		return
	}

	if err := h.battleService.AddJudge(r.Context(), battleID, userID, judgeUserID); err != nil {
		writeBattleError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]bool{"success": true})
}

func (h *BattleHandler) Submit(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	battleID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Invalid battle id", http.StatusBadRequest)
		return
	}

	var req SubmitVideoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.VideoURL == "" {
		http.Error(w, "videoUrl is required", http.StatusBadRequest)
		return
	}

	video, err := h.submissionService.SubmitVideo(r.Context(), battleID, userID, service.SubmitVideoInput{
		VideoURL: req.VideoURL,
		Title:    req.Title,
	})
	if err != nil {
		writeBattleError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(video)
}

func (h *BattleHandler) Judge(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	videoID, err := uuid.Parse(chi.URLParam(r, "videoId"))
	if err != nil {
		http.Error(w, "Invalid video id", http.StatusBadRequest)
		return
	}

	var req JudgeDecisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	video, err := h.submissionService.JudgeDecision(r.Context(), videoID, userID, service.JudgeDecisionInput{
		Approve:       req.Approve,
		DeclareWinner: req.DeclareWinner,
	})
	if err != nil {
		writeBattleError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(video)
}

func (h *BattleHandler) Videos(w http.ResponseWriter, r *http.Request) {
	battleID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Invalid battle id", http.StatusBadRequest)
		return
	}

	videos, err := h.submissionService.ListBattleVideos(r.Context(), battleID)
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(videos)
}

// paginationParams reads limit/offset query params with a per-endpoint
// default page size.
func paginationParams(r *http.Request, defaultLimit int) (int, int) {
	limit := defaultLimit
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 && v <= 100 {
		limit = v
	}
	offset := 0
	if v, err := strconv.Atoi(r.URL.Query().Get("offset")); err == nil && v > 0 {
		offset = v
	}
	return limit, offset
}
