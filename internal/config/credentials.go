package config

import (
	"errors"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
)

// Credentials are secrets read from the process environment.
type Credentials struct {
	// GeminiAPIKey authenticates the Gemini REST backend.
	GeminiAPIKey string

	// GCPProject is the Google Cloud project used by the Vertex AI backend.
	GCPProject string
}

// LoadEnvFiles loads KEY=value pairs from the given dotenv files (".env"
// when none are given) into the environment. Variables already set are
// left alone and missing files are ignored.
func LoadEnvFiles(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return nil
}

// LoadCredentials reads credentials from the environment.
//
// The Gemini key comes from GEMINI_API_KEY, falling back to GOOGLE_API_KEY.
// The Vertex project comes from GCP_PROJECT_ID, falling back to
// GOOGLE_CLOUD_PROJECT.
func LoadCredentials() Credentials {
	return Credentials{
		GeminiAPIKey: firstEnv("GEMINI_API_KEY", "GOOGLE_API_KEY"),
		GCPProject:   firstEnv("GCP_PROJECT_ID", "GOOGLE_CLOUD_PROJECT"),
	}
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}
