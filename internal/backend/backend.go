// Package backend opens the stores, queue and clients selected by
// configuration. Both the API and the worker binaries start from here.
package backend

import (
	"context"
	"fmt"
	"log"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	firebaseauth "firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"

	"checkin/internal/activity"
	"checkin/internal/cloudinary"
	"checkin/internal/config"
	"checkin/internal/imgbb"
	"checkin/internal/photo"
	"checkin/internal/queue"
	"checkin/internal/store"
	"checkin/internal/student"
)

// Set is everything a binary needs from the outside world.
type Set struct {
	Students student.Store
	Activity activity.Log
	Queue    queue.Queue
	Redis    *store.Redis
	DB       *store.DB
	Auth     *firebaseauth.Client

	firestore *firestore.Client
}

// Open connects to the configured backends. Callers must Close the set.
func Open(ctx context.Context, cfg config.App) (*Set, error) {
	s := &Set{Redis: store.NewRedis(cfg.RedisAddr)}

	switch cfg.StoreBackend {
	case "memory":
		s.Students = store.NewMemory()
	case "firestore":
		app, err := firebaseApp(ctx, cfg)
		if err != nil {
			return nil, err
		}
		if s.firestore, err = app.Firestore(ctx); err != nil {
			return nil, fmt.Errorf("firestore: %w", err)
		}
		s.Students = store.NewFirestore(s.firestore)
	case "postgres":
		db, err := store.NewDB(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("postgres: %w", err)
		}
		if err := db.Migrate(ctx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
		s.DB = db
		s.Students = store.NewStudents(db.Client)
		s.Activity = store.NewActivity(db.Client)
	default:
		return nil, fmt.Errorf("unknown STORE_BACKEND %q", cfg.StoreBackend)
	}

	if cfg.FirebaseAuth {
		app, err := firebaseApp(ctx, cfg)
		if err != nil {
			return nil, err
		}
		if s.Auth, err = app.Auth(ctx); err != nil {
			log.Printf("firebase auth unavailable: %v", err)
		}
	}

	if cfg.QueueBackend == "memory" {
		s.Queue = queue.NewInMemory(256)
	} else {
		s.Queue = queue.NewRedisQueue(s.Redis.Client, "")
	}
	if s.Activity == nil {
		s.Activity = sharedActivity(cfg, s.Redis)
	}
	return s, nil
}

// sharedActivity picks the feed for stores without their own activity
// table. With a redis queue the worker runs in another process, so the feed
// must live in redis too.
func sharedActivity(cfg config.App, r *store.Redis) activity.Log {
	if cfg.QueueBackend == "memory" {
		return store.NewMemoryActivity(activityCap)
	}
	return store.NewRedisActivity(r.Client, activityCap)
}

const activityCap = 500

// Photos builds the evidence photo sink for cfg.PhotoBackend.
func Photos(cfg config.App) student.PhotoSink {
	var host photo.Uploader
	switch cfg.PhotoBackend {
	case "cloudinary":
		if cfg.CloudinaryCloudName == "" || cfg.CloudinaryAPIKey == "" || cfg.CloudinaryAPISecret == "" {
			log.Println("Cloudinary not configured (CLOUDINARY_CLOUD_NAME / API_KEY / API_SECRET not set)")
			return photo.Disabled{}
		}
		host = cloudinary.New(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret, cfg.CloudinaryFolder)
	case "imgbb":
		if cfg.ImgBBAPIKey == "" {
			log.Println("ImgBB not configured (IMGBB_API_KEY not set)")
			return photo.Disabled{}
		}
		host = imgbb.New(cfg.ImgBBAPIKey)
	default:
		log.Printf("photo uploads disabled (PHOTO_BACKEND=%q)", cfg.PhotoBackend)
		return photo.Disabled{}
	}
	p := photo.NewPipeline(host)
	if cfg.PhotoMaxDimension > 0 {
		p.MaxDimension = cfg.PhotoMaxDimension
	}
	log.Printf("photo uploads via %s", cfg.PhotoBackend)
	return p
}

// Health reports reachability of the connected services.
func (s *Set) Health(ctx context.Context) map[string]bool {
	checks := map[string]bool{}
	if s.DB != nil {
		checks["db"] = s.DB.Healthy(ctx)
	}
	if _, ok := s.Queue.(*queue.RedisQueue); ok {
		checks["redis"] = s.Redis.Healthy(ctx)
	}
	return checks
}

// Close releases connections.
func (s *Set) Close() {
	if s.DB != nil {
		_ = s.DB.Close()
	}
	if s.firestore != nil {
		_ = s.firestore.Close()
	}
	if s.Redis != nil && s.Redis.Client != nil {
		_ = s.Redis.Client.Close()
	}
}

func firebaseApp(ctx context.Context, cfg config.App) (*firebase.App, error) {
	var opts []option.ClientOption
	if cfg.FirebaseCredsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.FirebaseCredsFile))
	}
	var fbCfg *firebase.Config
	if cfg.FirestoreProjectID != "" {
		fbCfg = &firebase.Config{ProjectID: cfg.FirestoreProjectID}
	}
	app, err := firebase.NewApp(ctx, fbCfg, opts...)
	if err != nil {
		return nil, fmt.Errorf("firebase: %w", err)
	}
	return app, nil
}
