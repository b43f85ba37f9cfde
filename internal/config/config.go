package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type AppConfig struct {
	Env            string   `yaml:"env" env:"APP_ENV" env-default:"development"`
	Port           string   `yaml:"port" env:"PORT" env-default:"3000"`
	Domain         string   `yaml:"domain" env:"DOMAIN"`
	PublicURL      string   `yaml:"public_url" env:"PUBLIC_URL" env-default:"http://localhost:3000"`
	JWTSecret      string   `yaml:"jwt_secret" env:"JWT_SECRET"`
	AllowedOrigins []string `yaml:"allowed_origins" env:"ALLOWED_ORIGINS" env-separator:","`
	StaticDir      string   `yaml:"static_dir" env:"STATIC_DIR" env-default:"static"`
	UploadMaxBytes int64    `yaml:"upload_max_bytes" env:"UPLOAD_MAX_BYTES" env-default:"10485760"`

	Database  DatabaseConfig  `yaml:"database"`
	Log       LogConfig       `yaml:"log"`
	Mail      MailConfig      `yaml:"mail"`
	AI        AIConfig        `yaml:"ai"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
}

type DatabaseConfig struct {
	Driver string `yaml:"driver" env:"DB_DRIVER" env-default:"postgres"`
	DSN    string `yaml:"dsn" env:"DATABASE_URL"`
}

type LogConfig struct {
	Level  string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
}

type MailConfig struct {
	Server        string `yaml:"server" env:"MAIL_SERVER" env-default:"smtp.gmail.com"`
	Port          int    `yaml:"port" env:"MAIL_PORT" env-default:"587"`
	UseTLS        bool   `yaml:"use_tls" env:"MAIL_USE_TLS" env-default:"true"`
	Username      string `yaml:"username" env:"MAIL_USERNAME"`
	Password      string `yaml:"password" env:"MAIL_PASSWORD"`
	DefaultSender string `yaml:"default_sender" env:"MAIL_DEFAULT_SENDER"`
}

type AIConfig struct {
	Provider       string `yaml:"provider" env:"AI_PROVIDER" env-default:"googleai"`
	GeminiAPIKey   string `yaml:"gemini_api_key" env:"GEMINI_API_KEY"`
	GeminiModel    string `yaml:"gemini_model" env:"GEMINI_MODEL" env-default:"gemini-1.5-flash"`
	OpenAIAPIKey   string `yaml:"openai_api_key" env:"OPENAI_API_KEY"`
	OpenAIModel    string `yaml:"openai_model" env:"OPENAI_MODEL" env-default:"gpt-4o-mini"`
	CaptionURL     string `yaml:"caption_url" env:"CAPTION_URL" env-default:"https://api-inference.huggingface.co/models/Salesforce/blip-image-captioning-base"`
	CaptionToken   string `yaml:"caption_token" env:"CAPTION_TOKEN"`
	GoogleAPIKey   string `yaml:"google_api_key" env:"GOOGLE_API_KEY"`
	TranslateURL   string `yaml:"translate_url" env:"TRANSLATE_URL" env-default:"https://translation.googleapis.com/language/translate/v2"`
	SpeechURL      string `yaml:"speech_url" env:"SPEECH_URL" env-default:"https://texttospeech.googleapis.com/v1/text:synthesize"`
	TimeoutSeconds int    `yaml:"timeout_seconds" env:"AI_TIMEOUT_SECONDS" env-default:"60"`
}

type SchedulerConfig struct {
	Enabled          bool   `yaml:"enabled" env:"SCHEDULER_ENABLED" env-default:"true"`
	ReminderSchedule string `yaml:"reminder_schedule" env:"SCHEDULER_REMINDER_SCHEDULE" env-default:"0 8 * * *"`
	PurgeSchedule    string `yaml:"purge_schedule" env:"SCHEDULER_PURGE_SCHEDULE" env-default:"@hourly"`
}

func (c *AppConfig) IsProduction() bool {
	return c != nil && c.Env == "production"
}

func (c *AppConfig) AITimeout() time.Duration {
	if c == nil || c.AI.TimeoutSeconds <= 0 {
		return 60 * time.Second
	}
	return time.Duration(c.AI.TimeoutSeconds) * time.Second
}

// Sender falls back to the SMTP username the same way the mail settings always have.
func (m MailConfig) Sender() string {
	if m.DefaultSender != "" {
		return m.DefaultSender
	}
	return m.Username
}

func (c *AppConfig) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET environment variable is not set")
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("DATABASE_URL environment variable is not set")
	}
	switch c.Database.Driver {
	case "postgres", "mysql", "sqlite":
	default:
		return fmt.Errorf("unsupported database driver: %s", c.Database.Driver)
	}
	return nil
}

// Load reads the YAML file at path when it exists, otherwise the environment alone.
func Load(path string) (*AppConfig, error) {
	var cfg AppConfig

	if path == "" {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("cannot read env: %w", err)
		}
		return &cfg, nil
	}

	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		var pe *os.PathError
		if errors.As(err, &pe) {
			if err := cleanenv.ReadEnv(&cfg); err != nil {
				return nil, fmt.Errorf("cannot read env: %w", err)
			}
			return &cfg, nil
		}
		return nil, fmt.Errorf("cannot read config %q: %w", path, err)
	}

	return &cfg, nil
}
