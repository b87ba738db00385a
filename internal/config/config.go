package config

import (
	"flag"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

type Config struct {
	Env     string        `yaml:"env" env:"ENV" env-default:"local"`
	HTTP    HTTPConfig    `yaml:"http"`
	Backend BackendConfig `yaml:"backend"`
	Auth    AuthConfig    `yaml:"auth"`
	Metrics MetricsConfig `yaml:"metrics"`
	Images  ImagesConfig  `yaml:"images"`
}

type HTTPConfig struct {
	Host string `yaml:"host" env:"HTTP_HOST"`
	Port string `yaml:"port" env:"HTTP_PORT" env-default:"8080"`
}

// BackendConfig описывает внешний backend API. Пустой BaseURL — допустимое
// состояние: операции сами отвечают "Backend API not configured".
type BackendConfig struct {
	BaseURL string `yaml:"base_url" env:"BACKEND_API_URL"`
	APIKey  string `yaml:"api_key" env:"BACKEND_API_KEY"`
}

type AuthConfig struct {
	AdminPasswordHash string        `yaml:"admin_password_hash" env:"ADMIN_PASSWORD_HASH"`
	SessionSecret     string        `yaml:"session_secret" env:"SESSION_SECRET" env-default:"photofolio-dev-secret"`
	TokenTTL          time.Duration `yaml:"token_ttl" env:"TOKEN_TTL" env-default:"12h"`
}

type MetricsConfig struct {
	Enabled  bool   `yaml:"enabled" env:"METRICS_ENABLED" env-default:"true"`
	Sink     string `yaml:"sink" env:"METRICS_SINK" env-default:"log"` // disabled | log | file
	FilePath string `yaml:"file_path" env:"METRICS_FILE_PATH" env-default:"./metrics.ndjson"`
}

type ImagesConfig struct {
	Source  string `yaml:"source" env:"IMAGE_SOURCE" env-default:"backend"` // backend | local
	BaseDir string `yaml:"base_dir" env:"UPLOAD_DIR" env-default:"./uploads"`
	BaseURL string `yaml:"base_url" env:"UPLOAD_BASE_URL" env-default:"/uploads"`
}

// MustLoad читает конфигурацию: .env (если есть), затем yaml-файл по
// --config/CONFIG_PATH, иначе только переменные окружения.
func MustLoad() *Config {
	// .env удобен локально; в проде переменные приходят из окружения
	_ = godotenv.Load()

	if path := fetchConfigPath(); path != "" {
		return MustLoadPath(path)
	}

	var cfg Config

	if err := cleanenv.ReadEnv(&cfg); err != nil {
		panic("cannot read config from environment: " + err.Error())
	}

	return &cfg
}

func MustLoadPath(configPath string) *Config {
	// check if file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		panic("config file does not exist: " + configPath)
	}

	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		panic("cannot read config: " + err.Error())
	}

	return &cfg
}

func fetchConfigPath() string {
	var res string

	// --config="path/to/config.yaml"
	flag.StringVar(&res, "config", "", "path to config file")
	flag.Parse()

	if res == "" {
		res = os.Getenv("CONFIG_PATH")
	}

	return res
}
