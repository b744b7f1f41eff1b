// seed inserts development sample data for local testing.
// Idempotent: skips inserts if the dev user (senya-dev) already exists.
package main

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"senya-web-backend/internal/config"
	"senya-web-backend/internal/db"
	identityservice "senya-web-backend/internal/identity/service"
	attemptrepo "senya-web-backend/internal/loginattempt/repository"
	notedomain "senya-web-backend/internal/note/domain"
	noterepo "senya-web-backend/internal/note/repository"
	"senya-web-backend/internal/security"
	userrepo "senya-web-backend/internal/user/repository"
	workoutdomain "senya-web-backend/internal/workout/domain"
	workoutrepo "senya-web-backend/internal/workout/repository"
)

const (
	devUsername = "senya-dev"
	devPassword = "password123"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	database, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer database.Close()

	ctx := context.Background()

	users := userrepo.NewPostgresRepository(database)
	notes := noterepo.NewPostgresRepository(database)
	attempts := attemptrepo.NewPostgresRepository(database)
	workouts := workoutrepo.NewPostgresRepository(database)

	existing, err := users.GetByUsername(ctx, devUsername)
	if err != nil {
		log.Fatalf("seed: user lookup: %v", err)
	}
	if existing != nil {
		log.Printf("seed: user %q already exists, nothing to do", devUsername)
		return
	}

	tokens := security.NewTokenProvider([]byte(cfg.JWTSecret), cfg.AccessTTL(), cfg.RefreshTTL())
	hasher := security.NewHasher(cfg.BcryptCost)
	auth := identityservice.NewAuthService(users, notes, attempts, hasher, tokens)

	user, err := auth.Register(ctx, devUsername, devPassword)
	if err != nil {
		log.Fatalf("seed: register: %v", err)
	}
	log.Printf("seed: created user %s (%s)", user.Username, user.ID)

	root, err := notes.GetRootFolder(ctx, user.ID)
	if err != nil || root == nil {
		log.Fatalf("seed: root folder lookup: %v", err)
	}

	now := time.Now().UTC()
	folder := &notedomain.Folder{
		UserID:    user.ID,
		Name:      "scratch",
		ParentID:  &root.ID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := notes.CreateFolder(ctx, folder); err != nil {
		log.Fatalf("seed: create folder: %v", err)
	}

	note := &notedomain.Note{
		UserID:    user.ID,
		Name:      "welcome",
		FolderID:  folder.ID,
		Content:   json.RawMessage(`{"blocks":[{"text":"Welcome to Senya."}]}`),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := notes.CreateNote(ctx, note); err != nil {
		log.Fatalf("seed: create note: %v", err)
	}

	workout := &workoutdomain.Workout{
		UserID:   user.ID,
		Date:     now,
		Duration: 45,
		Exercises: []workoutdomain.Exercise{
			{
				UserID:         user.ID,
				Name:           "bench press",
				RepsAndWeights: json.RawMessage(`{"reps":[[8],[8],[6]],"weight":[[60],[60],[62.5]]}`),
			},
			{
				UserID:         user.ID,
				Name:           "deadlift",
				RepsAndWeights: json.RawMessage(`{"reps":[[5],[5]],"weight":[[100],[105]]}`),
			},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := workouts.Create(ctx, workout); err != nil {
		log.Fatalf("seed: create workout: %v", err)
	}

	log.Println("seed: done")
}
