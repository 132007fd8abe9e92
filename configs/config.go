package config

import (
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/cors"
	"github.com/gofrs/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/joho/godotenv"
)

var InstanceId string

// LoadEnv loads ./.env when present. Plain environment variables are enough
// to run, so a missing file is only reported.
func LoadEnv(service string) {
	log.Infof("%s service configuration and env variables loading started ...", service)
	err := godotenv.Load("./.env")
	if err != nil {
		log.Warnf("no .env file loaded: %s", err)
		return
	}

	log.Info(".env file loaded.")
}

func CreateUniqueInstance(service string) string {
	id, err := uuid.NewV4() // instance identifier
	if err != nil {
		log.Fatalf("error generating instanceId: %s", err)
	}
	InstanceId = id.String()
	log.Infof(service+" service with Instance ID: %s is ready", id)
	return id.String()
}

func GetInstanceId() string {
	return InstanceId
}

// CORS allows any origin. The check-in form is served from static hosting
// on domains this service does not know about.
func CORS() *cors.Cors {
	corsOptions := cors.New(cors.Options{
		AllowedOrigins:     []string{"*"},
		AllowedMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:     []string{"Content-Type", "Authorization"},
		OptionsPassthrough: true,
		MaxAge:             300, // Maximum value not ignored by any of major browsers
	})

	return corsOptions
}

// Logging sends logrus output to LOG_DIR/<service>.log (default .l_g). When
// the folder or file cannot be opened logs stay on stderr.
func Logging(service string) {
	logFolder := os.Getenv("LOG_DIR")
	if logFolder == "" {
		logFolder = ".l_g"
	}

	log.SetFormatter(&log.TextFormatter{})
	log.SetLevel(levelFromEnv())

	if err := os.MkdirAll(logFolder, 0755); err != nil {
		log.Warnf("unable to create folder for log %s", err)
		return
	}

	logFilePath := filepath.Join(logFolder, service+".log")

	file, err := os.OpenFile(logFilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		log.Warnf("failed to open log file, logging to stderr: %s", err)
		return
	}

	log.SetOutput(io.MultiWriter(os.Stderr, file))

	log.Infof("log to file started for service: %s", service)
}

func levelFromEnv() log.Level {
	lvl, err := log.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil {
		return log.InfoLevel
	}
	return lvl
}

func CustomLoggerMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				log.WithField("request_id", middleware.GetReqID(r.Context())).
					Infof("%s %s %s %d %s %s",
						r.Method,
						r.URL.Path,
						r.RemoteAddr,
						ww.Status(),
						http.StatusText(ww.Status()),
						time.Since(start),
					)
			}()

			next.ServeHTTP(ww, r)
		})
	}
}
