package core

import (
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// Auth modes
const (
	AuthModeMock   = "mock"
	AuthModeGoogle = "google"
)

// DevSecretKey is the signing secret used when none is configured outside PROD.
const DevSecretKey = "dev-secret-key-change-in-production"

var (
	errUnknownAuthMode   = errors.New("unknown auth mode")
	errMissingGoogleKeys = errors.New("google auth mode requires GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET")
	errInsecureSecret    = errors.New("SECRET_KEY must be set in production")
)

type Config struct {
	Debug            bool
	TestMode         bool
	AppName          string
	Env              string // DEV (local; default), TEST, QA, PROD
	Build            string
	SecretKey        string
	WorkDir          string
	FrontendBaseURL  string
	DefaultFromEmail mail.Address
	RollbarToken     string
	SendgridApiKey   string

	Auth struct {
		Mode          string
		CookieName    string
		SessionMaxAge time.Duration
		Google        struct {
			ClientID     string
			ClientSecret string
			RedirectURL  string
		}
	}

	Server struct {
		Host            string
		DebugHost       string
		ShutdownTimeout time.Duration
	}

	Database struct {
		Engine        string // postgres | inmem
		Host          string
		Port          string
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		DisableTLS    bool
	}

	Redis struct {
		Addr     string
		Password string
		DB       int
	}

	Uploads struct {
		Dir               string
		MaxSize           int64
		AllowedExtensions []string
	}

	Features struct {
		WaitlistStore     bool
		EarlyFounderBadge bool
	}
}

func (c *Config) IsProduction() bool { return c.Env == "PROD" }

func (c *Config) IsMockAuth() bool { return c.Auth.Mode == AuthModeMock }

func (c *Config) IsGoogleAuth() bool { return c.Auth.Mode == AuthModeGoogle }

func (c *Config) DatabaseAddress() string {
	if c.Database.Port == "" {
		return c.Database.Host
	}
	return c.Database.Host + ":" + c.Database.Port
}

// NewConfig loads the configuration from the environment, on top of `config/.env.<env>` when it exists.
func NewConfig() (*Config, error) {
	env := strings.ToUpper(os.Getenv("ENV"))
	if env == "" {
		env = "DEV"
	}

	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	setDefaults(v, env)

	wd := os.Getenv("WORK_DIR")
	if wd == "" {
		var err error
		if wd, err = os.Getwd(); err != nil {
			return nil, errors.Wrap(err, "getting working directory")
		}
	}

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(wd, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err = godotenv.Load(dotEnvPath); err != nil {
			return nil, errors.Wrapf(err, "loading %s", dotEnvPath)
		}
	} else if !os.IsNotExist(err) {
		return nil, errors.Wrapf(err, "stat %s", dotEnvPath)
	}
	v.AutomaticEnv()

	conf := &Config{
		Debug:           v.GetBool("debug"),
		TestMode:        env == "TEST",
		AppName:         v.GetString("app_name"),
		Env:             env,
		Build:           v.GetString("build"),
		SecretKey:       v.GetString("secret_key"),
		WorkDir:         wd,
		FrontendBaseURL: strings.TrimSuffix(v.GetString("frontend_base_url"), "/"),
		RollbarToken:    v.GetString("rollbar_token"),
		SendgridApiKey:  v.GetString("sendgrid_api_key"),
	}
	if conf.SecretKey == "" {
		conf.SecretKey = v.GetString("nextauth_secret")
	}

	from, err := mail.ParseAddress(v.GetString("default_from_email"))
	if err != nil {
		return nil, errors.Wrap(err, "parsing DEFAULT_FROM_EMAIL")
	}
	conf.DefaultFromEmail = *from

	conf.Auth.Mode = strings.ToLower(v.GetString("auth.mode"))
	conf.Auth.CookieName = v.GetString("auth.cookie_name")
	conf.Auth.SessionMaxAge = v.GetDuration("auth.session_max_age")
	conf.Auth.Google.ClientID = v.GetString("google.client_id")
	conf.Auth.Google.ClientSecret = v.GetString("google.client_secret")
	conf.Auth.Google.RedirectURL = v.GetString("google.redirect_url")

	conf.Server.Host = v.GetString("server.host")
	conf.Server.DebugHost = v.GetString("server.debug_host")
	conf.Server.ShutdownTimeout = v.GetDuration("server.shutdown_timeout")

	conf.Database.Engine = v.GetString("database.engine")
	conf.Database.Host = v.GetString("database.host")
	conf.Database.Port = v.GetString("database.port")
	conf.Database.Name = v.GetString("database.name")
	conf.Database.User = v.GetString("database.user")
	conf.Database.Password = v.GetString("database.password")
	conf.Database.AdminUser = v.GetString("database.admin_user")
	conf.Database.AdminPassword = v.GetString("database.admin_password")
	conf.Database.DisableTLS = v.GetBool("database.disable_tls")

	conf.Redis.Addr = v.GetString("redis.addr")
	conf.Redis.Password = v.GetString("redis.password")
	conf.Redis.DB = v.GetInt("redis.db")

	conf.Uploads.Dir = v.GetString("upload_dir")
	if !filepath.IsAbs(conf.Uploads.Dir) {
		conf.Uploads.Dir = filepath.Join(wd, conf.Uploads.Dir)
	}
	conf.Uploads.MaxSize = v.GetInt64("max_upload_size")
	for _, ext := range strings.Split(v.GetString("allowed_extensions"), ",") {
		if ext = CleanString(ext, true /* lower */); ext != "" {
			conf.Uploads.AllowedExtensions = append(conf.Uploads.AllowedExtensions, ext)
		}
	}

	conf.Features.WaitlistStore = v.GetBool("enable_waitlist_store")
	conf.Features.EarlyFounderBadge = v.GetBool("enable_early_founder_badge")

	if err = conf.validate(); err != nil {
		return nil, err
	}
	return conf, nil
}

func setDefaults(v *viper.Viper, env string) {
	v.SetDefault("debug", env != "PROD")
	v.SetDefault("app_name", "Studesq")
	v.SetDefault("build", "develop")
	v.SetDefault("frontend_base_url", "http://localhost:3000")
	v.SetDefault("default_from_email", "Studesq <noreply@studesq.com>")

	v.SetDefault("auth.mode", AuthModeMock)
	v.SetDefault("auth.cookie_name", "studesq_session")
	v.SetDefault("auth.session_max_age", 30*24*time.Hour)

	v.SetDefault("server.host", ":8000")
	v.SetDefault("server.debug_host", ":4000")
	v.SetDefault("server.shutdown_timeout", 5*time.Second)

	v.SetDefault("database.engine", "inmem")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.name", "studesq")

	v.SetDefault("upload_dir", "uploads")
	v.SetDefault("max_upload_size", 10*1024*1024)
	v.SetDefault("allowed_extensions", ".pdf,.jpg,.jpeg,.png")

	v.SetDefault("enable_waitlist_store", false)
	v.SetDefault("enable_early_founder_badge", true)
}

func (c *Config) validate() error {
	switch c.Auth.Mode {
	case AuthModeMock:
	case AuthModeGoogle:
		if c.Auth.Google.ClientID == "" || c.Auth.Google.ClientSecret == "" {
			return errMissingGoogleKeys
		}
	default:
		return errors.Wrap(errUnknownAuthMode, c.Auth.Mode)
	}

	if c.SecretKey == "" || c.SecretKey == DevSecretKey {
		if c.IsProduction() {
			return errInsecureSecret
		}
		c.SecretKey = DevSecretKey
	}
	return nil
}
