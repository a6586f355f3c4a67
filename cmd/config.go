package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/upliftlab/affirmd/internal/config"
	"github.com/upliftlab/affirmd/types"
)

// GlobalAppConfig holds the global application configuration instance.
var GlobalAppConfig types.AppConfig

// validate is a single validator instance; it caches struct info.
var validate *validator.Validate

func init() {
	validate = validator.New()
}

func validateAppConfig(cfg *types.AppConfig) error {
	return validate.Struct(cfg)
}

// InitConfig reads in config file and ENV variables if set.
func InitConfig() {
	// Load .env file first if present; it's fine when it doesn't exist.
	_ = godotenv.Load()

	viper.SetEnvPrefix(config.EnvPrefix)
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	cfgFileFlag := viper.GetString("config")

	if cfgFileFlag != "" {
		viper.SetConfigFile(cfgFileFlag)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
		viper.AddConfigPath(".")
		viper.SetConfigName(config.ConfigName)
	}

	if err := viper.ReadInConfig(); err == nil {
		if viper.GetBool("verbose") {
			fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
		}
	} else {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			if cfgFileFlag != "" {
				fmt.Fprintln(os.Stderr, "Error: Specified config file not found:", cfgFileFlag)
			}
		} else {
			fmt.Fprintln(os.Stderr, "Error reading config file:", viper.ConfigFileUsed(), "-", err)
		}
	}

	viper.SetDefault("server.port", config.DefaultPort)
	viper.SetDefault("server.allowedOrigins", []string{})
	viper.SetDefault("store.path", config.DefaultStorePath)

	viper.SetDefault("llm.provider", config.DefaultProvider)
	viper.SetDefault("llm.modelName", "")
	viper.SetDefault("llm.apiKey", "")
	viper.SetDefault("llm.requestTimeoutSeconds", 60)

	viper.SetDefault("telemetry.enabled", false)
	viper.SetDefault("telemetry.apiKey", "")

	if err := viper.Unmarshal(&GlobalAppConfig); err != nil {
		fmt.Fprintf(os.Stderr, "Error unmarshaling config: %s\n", err)
		os.Exit(1)
	}

	if err := validateAppConfig(&GlobalAppConfig); err != nil {
		fmt.Fprintf(os.Stderr, "Configuration validation error: %s\n", err)
		os.Exit(1)
	}

	// Pick up config edits while the server runs; the next unmarshal error
	// only logs, it never tears down a running process.
	viper.OnConfigChange(func(e fsnotify.Event) {
		var updated types.AppConfig
		if err := viper.Unmarshal(&updated); err != nil {
			fmt.Fprintf(os.Stderr, "Ignoring config change %s: %s\n", e.Name, err)
			return
		}
		if err := validateAppConfig(&updated); err != nil {
			fmt.Fprintf(os.Stderr, "Ignoring invalid config change %s: %s\n", e.Name, err)
			return
		}
		GlobalAppConfig = updated
	})
	viper.WatchConfig()
}

// GetConfig returns a pointer to the global types.AppConfig instance.
func GetConfig() *types.AppConfig {
	return &GlobalAppConfig
}
