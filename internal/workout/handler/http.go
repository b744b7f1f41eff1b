// Package handler exposes workout tracking endpoints over HTTP.
package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"senya-web-backend/internal/server/middleware"
	"senya-web-backend/internal/server/respond"
	"senya-web-backend/internal/workout/domain"
	"senya-web-backend/internal/workout/repository"
)

// WorkoutHandler serves the /workout endpoint group. Mounted behind the auth
// middleware; the context always carries the owner's user id.
type WorkoutHandler struct {
	repo repository.Repository
	log  *zap.Logger
}

// NewWorkoutHandler returns a WorkoutHandler backed by repo.
func NewWorkoutHandler(repo repository.Repository, log *zap.Logger) *WorkoutHandler {
	return &WorkoutHandler{repo: repo, log: log}
}

// Routes mounts the workout endpoints on r.
func (h *WorkoutHandler) Routes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{workoutID}", h.Get)
	r.Delete("/{workoutID}", h.Delete)
}

type exerciseRequest struct {
	Name           string          `json:"name"`
	RepsAndWeights json.RawMessage `json:"reps_and_weights"`
}

type workoutRequest struct {
	Date      string            `json:"date"`
	Duration  int               `json:"duration"`
	Exercises []exerciseRequest `json:"exercises"`
}

type exerciseResponse struct {
	ID             int64           `json:"id"`
	Name           string          `json:"name"`
	RepsAndWeights json.RawMessage `json:"reps_and_weights"`
}

type workoutResponse struct {
	ID        int64              `json:"id"`
	UserID    string             `json:"user_id"`
	Date      string             `json:"date"`
	Duration  int                `json:"duration"`
	Exercises []exerciseResponse `json:"exercises"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}

func workoutView(w *domain.Workout) workoutResponse {
	exercises := make([]exerciseResponse, 0, len(w.Exercises))
	for _, e := range w.Exercises {
		exercises = append(exercises, exerciseResponse{
			ID:             e.ID,
			Name:           e.Name,
			RepsAndWeights: e.RepsAndWeights,
		})
	}
	return workoutResponse{
		ID:        w.ID,
		UserID:    w.UserID,
		Date:      w.Date.Format("2006-01-02"),
		Duration:  w.Duration,
		Exercises: exercises,
		CreatedAt: w.CreatedAt,
		UpdatedAt: w.UpdatedAt,
	}
}

// Create records a workout with its exercises in one shot.
func (h *WorkoutHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())

	var req workoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Detail(w, http.StatusBadRequest, "invalid request body")
		return
	}

	date := time.Now().UTC()
	if req.Date != "" {
		parsed, err := time.Parse("2006-01-02", req.Date)
		if err != nil {
			respond.Detail(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
			return
		}
		date = parsed
	}

	now := time.Now().UTC()
	workout := &domain.Workout{
		UserID:    userID,
		Date:      date,
		Duration:  req.Duration,
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, e := range req.Exercises {
		workout.Exercises = append(workout.Exercises, domain.Exercise{
			UserID:         userID,
			Name:           e.Name,
			RepsAndWeights: e.RepsAndWeights,
		})
	}
	if err := workout.Validate(); err != nil {
		respond.Detail(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.repo.Create(r.Context(), workout); err != nil {
		h.log.Error("create workout failed", zap.String("user_id", userID), zap.Error(err))
		respond.Detail(w, http.StatusInternalServerError, "internal error")
		return
	}

	respond.JSON(w, http.StatusCreated, workoutView(workout))
}

// List returns the caller's workouts, newest first.
func (h *WorkoutHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())

	workouts, err := h.repo.ListByUser(r.Context(), userID)
	if err != nil {
		h.log.Error("list workouts failed", zap.String("user_id", userID), zap.Error(err))
		respond.Detail(w, http.StatusInternalServerError, "internal error")
		return
	}

	out := make([]workoutResponse, 0, len(workouts))
	for _, workout := range workouts {
		out = append(out, workoutView(workout))
	}
	respond.JSON(w, http.StatusOK, out)
}

// Get returns a single workout owned by the caller.
func (h *WorkoutHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())
	workoutID, ok := pathID(w, r)
	if !ok {
		return
	}

	workout, err := h.repo.GetByID(r.Context(), workoutID, userID)
	if err != nil {
		h.log.Error("workout lookup failed", zap.String("user_id", userID), zap.Error(err))
		respond.Detail(w, http.StatusInternalServerError, "internal error")
		return
	}
	if workout == nil {
		respond.Detail(w, http.StatusNotFound, "Workout not found")
		return
	}

	respond.JSON(w, http.StatusOK, workoutView(workout))
}

// Delete removes a workout and its exercises.
func (h *WorkoutHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())
	workoutID, ok := pathID(w, r)
	if !ok {
		return
	}

	workout, err := h.repo.GetByID(r.Context(), workoutID, userID)
	if err != nil {
		h.log.Error("workout lookup failed", zap.String("user_id", userID), zap.Error(err))
		respond.Detail(w, http.StatusInternalServerError, "internal error")
		return
	}
	if workout == nil {
		respond.Detail(w, http.StatusNotFound, "Workout not found")
		return
	}

	if err := h.repo.Delete(r.Context(), workoutID, userID); err != nil {
		h.log.Error("delete workout failed", zap.String("user_id", userID), zap.Error(err))
		respond.Detail(w, http.StatusInternalServerError, "internal error")
		return
	}

	respond.JSON(w, http.StatusOK, map[string]string{"message": "Workout deleted successfully"})
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "workoutID"), 10, 64)
	if err != nil {
		respond.Detail(w, http.StatusBadRequest, "invalid workout id")
		return 0, false
	}
	return id, true
}
