package core

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	Config struct {
		AppName      string `mapstructure:"appName"`
		Env          string `mapstructure:"env"`
		Debug        bool   `mapstructure:"debug"`
		TestMode     bool   `mapstructure:"testMode"`
		Build        string `mapstructure:"build"`
		SecretKey    string `mapstructure:"secretKey"`
		RollbarToken string `mapstructure:"rollbarToken"`
		DefaultPIN   string `mapstructure:"defaultPIN"`

		Server   ServerConfig   `mapstructure:"server"`
		Database DatabaseConfig `mapstructure:"database"`
		Storage  StorageConfig  `mapstructure:"storage"`
		Gemini   GeminiConfig   `mapstructure:"gemini"`
		Supabase SupabaseConfig `mapstructure:"supabase"`
	}

	ServerConfig struct {
		Host               string        `mapstructure:"host"`
		Address            string        `mapstructure:"address"`
		DebugHost          string        `mapstructure:"debugHost"`
		ReadTimeout        time.Duration `mapstructure:"readTimeout"`
		WriteTimeout       time.Duration `mapstructure:"writeTimeout"`
		ShutdownTimeout    time.Duration `mapstructure:"shutdownTimeout"`
		JWTExpirationDelta time.Duration `mapstructure:"jwtExpirationDelta"`
		DisableReqLogs     bool          `mapstructure:"disableReqLogs"`
	}

	DatabaseConfig struct {
		Engine        string `mapstructure:"engine"`
		Host          string `mapstructure:"host"`
		Port          int    `mapstructure:"port"`
		Name          string `mapstructure:"name"`
		User          string `mapstructure:"user"`
		Password      string `mapstructure:"password"`
		AdminUser     string `mapstructure:"adminUser"`
		AdminPassword string `mapstructure:"adminPassword"`
		DisableTLS    bool   `mapstructure:"disableTLS"`
	}

	StorageConfig struct {
		Driver    string `mapstructure:"driver"` // postgres | supabase | local
		LocalPath string `mapstructure:"localPath"`
	}

	GeminiConfig struct {
		BaseURL string        `mapstructure:"baseURL"`
		Model   string        `mapstructure:"model"`
		Timeout time.Duration `mapstructure:"timeout"`
	}

	SupabaseConfig struct {
		URL     string        `mapstructure:"url"`
		Key     string        `mapstructure:"key"`
		Timeout time.Duration `mapstructure:"timeout"`
	}
)

const (
	StorageDriverPostgres = "postgres"
	StorageDriverSupabase = "supabase"
	StorageDriverLocal    = "local"
)

func (dc DatabaseConfig) Address() string {
	return fmt.Sprintf("%s:%d", dc.Host, dc.Port)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("debug", true)
	v.SetDefault("testMode", false)
	v.SetDefault("appName", "Mwalimu")
	v.SetDefault("build", "develop")
	v.SetDefault("secretKey", "k2#7uv!x0wq&l9^mz4$re1@p8yt5)nb3%hd6+gj*c")
	v.SetDefault("rollbarToken", "")
	v.SetDefault("defaultPIN", "1234")

	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.address", ":8000")
	v.SetDefault("server.debugHost", ":4000")
	v.SetDefault("server.readTimeout", 5*time.Second)
	v.SetDefault("server.writeTimeout", 90*time.Second) // plan generation is slow
	v.SetDefault("server.shutdownTimeout", 5*time.Second)
	v.SetDefault("server.jwtExpirationDelta", 12*time.Hour)
	v.SetDefault("server.disableReqLogs", false)

	v.SetDefault("database.engine", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "mwalimu")
	v.SetDefault("database.user", "mwalimu")
	v.SetDefault("database.password", "")
	v.SetDefault("database.adminUser", "postgres")
	v.SetDefault("database.adminPassword", "")
	v.SetDefault("database.disableTLS", true)

	v.SetDefault("storage.driver", StorageDriverLocal)
	v.SetDefault("storage.localPath", filepath.Join("data", "store.json"))

	v.SetDefault("gemini.baseURL", "https://generativelanguage.googleapis.com/v1beta")
	v.SetDefault("gemini.model", "gemini-1.5-flash")
	v.SetDefault("gemini.timeout", 60*time.Second)

	v.SetDefault("supabase.url", "")
	v.SetDefault("supabase.key", "")
	v.SetDefault("supabase.timeout", 10*time.Second)
}

// NewConfig loads the configuration from defaults, the optional `config/.env.<env>` file and
// the environment. Environment variables are prefixed by the env name, e.g. DEV_SERVER_ADDRESS.
func NewConfig() *Config {
	v := viper.New()
	v.SetTypeByDefaultValue(true)
	setDefaults(v)

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, QA, PROD
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
	case "QA", "PROD":
		v.SetDefault("debug", false)
	}
	v.SetDefault("env", env)
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join("config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	conf := new(Config)
	if err := v.Unmarshal(conf); err != nil {
		log.Fatalf("config.Unmarshal: %v", err)
	}
	return conf
}
