package config

import (
	"github.com/kelseyhightower/envconfig"
)

// Config holds everything the server reads from the environment.
// DB_DSN and JWT_SECRET have no sane defaults and must be set.
type Config struct {
	Addr      string `envconfig:"ADDR" default:":8080"`
	DSN       string `envconfig:"DB_DSN" required:"true"`
	RedisAddr string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	JWTSecret string `envconfig:"JWT_SECRET" required:"true"`

	// MaxMessageBytes caps the body of a single chat message.
	MaxMessageBytes int `envconfig:"MAX_MESSAGE_BYTES" default:"2000"`

	// HistoryPageSize is the default page size for the history API.
	HistoryPageSize int `envconfig:"HISTORY_PAGE_SIZE" default:"50"`

	// UploadDir is where the blob store keeps objects on disk.
	UploadDir string `envconfig:"UPLOAD_DIR" default:"./uploads"`

	// PublicBaseURL is the externally reachable base of this server; the
	// blob store mints object URLs under it and the message pipeline uses
	// the same prefix to classify media messages.
	PublicBaseURL string `envconfig:"PUBLIC_BASE_URL" default:"http://localhost:8080"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
