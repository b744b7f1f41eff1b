package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"senya-web-backend/internal/server/middleware"
	"senya-web-backend/internal/workout/domain"
)

type memWorkoutRepo struct {
	mu       sync.Mutex
	workouts map[int64]*domain.Workout
	nextID   int64
}

func newMemWorkoutRepo() *memWorkoutRepo {
	return &memWorkoutRepo{workouts: make(map[int64]*domain.Workout)}
}

func (m *memWorkoutRepo) Create(_ context.Context, w *domain.Workout) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	w.ID = m.nextID
	for i := range w.Exercises {
		w.Exercises[i].ID = int64(i + 1)
		w.Exercises[i].WorkoutID = w.ID
	}
	copied := *w
	m.workouts[w.ID] = &copied
	return nil
}

func (m *memWorkoutRepo) GetByID(_ context.Context, id int64, userID string) (*domain.Workout, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.workouts[id]
	if !ok || w.UserID != userID {
		return nil, nil
	}
	copied := *w
	return &copied, nil
}

func (m *memWorkoutRepo) ListByUser(_ context.Context, userID string) ([]*domain.Workout, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Workout
	for id := m.nextID; id >= 1; id-- {
		if w, ok := m.workouts[id]; ok && w.UserID == userID {
			copied := *w
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (m *memWorkoutRepo) Delete(_ context.Context, id int64, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.workouts[id]
	if ok && w.UserID == userID {
		delete(m.workouts, id)
	}
	return nil
}

func newWorkoutRouter(repo *memWorkoutRepo, userID string) http.Handler {
	h := NewWorkoutHandler(repo, zap.NewNop())
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(middleware.WithUserID(req.Context(), userID)))
		})
	})
	r.Route("/api/v1/workout", h.Routes)
	return r
}

func doJSON(t *testing.T, router http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf []byte
	if body != nil {
		var err error
		buf, err = json.Marshal(body)
		require.NoError(t, err)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(buf))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestCreateWorkout(t *testing.T) {
	repo := newMemWorkoutRepo()
	router := newWorkoutRouter(repo, "u1")

	rec := doJSON(t, router, http.MethodPost, "/api/v1/workout/", workoutRequest{
		Date:     "2026-08-30",
		Duration: 45,
		Exercises: []exerciseRequest{
			{Name: "bench press", RepsAndWeights: json.RawMessage(`{"reps":[[8],[8]],"weight":[[60],[62.5]]}`)},
			{Name: "row", RepsAndWeights: json.RawMessage(`{"reps":[[10]],"weight":[[40]]}`)},
		},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created workoutResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "2026-08-30", created.Date)
	assert.Equal(t, 45, created.Duration)
	require.Len(t, created.Exercises, 2)
	assert.Equal(t, "bench press", created.Exercises[0].Name)
}

func TestCreateWorkoutRejectsBadDate(t *testing.T) {
	repo := newMemWorkoutRepo()
	router := newWorkoutRouter(repo, "u1")

	rec := doJSON(t, router, http.MethodPost, "/api/v1/workout/", workoutRequest{Date: "30-08-2026"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateWorkoutRejectsUnnamedExercise(t *testing.T) {
	repo := newMemWorkoutRepo()
	router := newWorkoutRouter(repo, "u1")

	rec := doJSON(t, router, http.MethodPost, "/api/v1/workout/", workoutRequest{
		Exercises: []exerciseRequest{{Name: ""}},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListWorkouts(t *testing.T) {
	repo := newMemWorkoutRepo()
	router := newWorkoutRouter(repo, "u1")

	for _, date := range []string{"2026-08-28", "2026-08-30"} {
		rec := doJSON(t, router, http.MethodPost, "/api/v1/workout/", workoutRequest{Date: date})
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := doJSON(t, router, http.MethodGet, "/api/v1/workout/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var workouts []workoutResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &workouts))
	require.Len(t, workouts, 2)
	assert.Equal(t, "2026-08-30", workouts[0].Date)
}

func TestGetWorkoutOwnership(t *testing.T) {
	repo := newMemWorkoutRepo()
	owner := newWorkoutRouter(repo, "u1")
	stranger := newWorkoutRouter(repo, "u2")

	created := doJSON(t, owner, http.MethodPost, "/api/v1/workout/", workoutRequest{Date: "2026-08-30"})
	require.Equal(t, http.StatusCreated, created.Code)
	var workout workoutResponse
	require.NoError(t, json.Unmarshal(created.Body.Bytes(), &workout))
	path := "/api/v1/workout/" + strconv.FormatInt(workout.ID, 10)

	rec := doJSON(t, owner, http.MethodGet, path, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, stranger, http.MethodGet, path, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteWorkout(t *testing.T) {
	repo := newMemWorkoutRepo()
	router := newWorkoutRouter(repo, "u1")

	created := doJSON(t, router, http.MethodPost, "/api/v1/workout/", workoutRequest{Date: "2026-08-30"})
	require.Equal(t, http.StatusCreated, created.Code)
	var workout workoutResponse
	require.NoError(t, json.Unmarshal(created.Body.Bytes(), &workout))
	path := "/api/v1/workout/" + strconv.FormatInt(workout.ID, 10)

	rec := doJSON(t, router, http.MethodDelete, path, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodGet, path, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
