package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/pders01/intent/internal/approval"
	"github.com/pders01/intent/internal/debounce"
	"github.com/pders01/intent/internal/github"
	"github.com/pders01/intent/internal/ollama"
	"github.com/pders01/intent/internal/proposal"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every key when read from the environment
const EnvPrefix = "INTENT"

// githubEnv maps config keys onto the variables set by the Actions runner
var githubEnv = map[string]string{
	"github.token":      "GITHUB_TOKEN",
	"github.repository": "GITHUB_REPOSITORY",
	"github.api_url":    "GITHUB_API_URL",
	"github.event_path": "GITHUB_EVENT_PATH",
	"github.output":     "GITHUB_OUTPUT",
}

// Init registers defaults and environment bindings on v
func Init(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, env := range githubEnv {
		// BindEnv only fails without a key
		_ = v.BindEnv(key, "INTENT_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")), env)
	}

	v.SetDefault("debounce.delay", debounce.DefaultDelay)
	v.SetDefault("pairing.mode", string(approval.PairingSymlink))
	v.SetDefault("history.validate", true)
	v.SetDefault("history.dir", ".")
	v.SetDefault("commit.author_name", "")
	v.SetDefault("commit.author_email", "")
	v.SetDefault("github.api_url", github.DefaultAPIURL)
	v.SetDefault("ollama.url", ollama.DefaultURL)
	v.SetDefault("ollama.model", ollama.DefaultModel)
	v.SetDefault("propose.max_chars", proposal.DefaultMaxChars)
	v.SetDefault("log.debug", false)
}

// GetDebounceDelay returns how long a checkbox toggle must stay unchanged
func GetDebounceDelay() time.Duration {
	return viper.GetDuration("debounce.delay")
}

// GetPairingMode returns how the paired documentation file is maintained
func GetPairingMode() (approval.PairingMode, error) {
	mode := approval.PairingMode(strings.ToLower(viper.GetString("pairing.mode")))
	switch mode {
	case approval.PairingSymlink, approval.PairingCopy:
		return mode, nil
	}
	return "", fmt.Errorf("invalid pairing.mode %q: expected %s or %s", mode, approval.PairingSymlink, approval.PairingCopy)
}

// ShouldValidateHistory reports whether reverts check the local clone first
func ShouldValidateHistory() bool {
	return viper.GetBool("history.validate")
}

// GetHistoryDir returns the clone used for history validation
func GetHistoryDir() string {
	return viper.GetString("history.dir")
}

// GetCommitAuthor returns the identity used for commits, possibly empty
func GetCommitAuthor() (name, email string) {
	return viper.GetString("commit.author_name"), viper.GetString("commit.author_email")
}

// GetGitHubConfig returns the REST client settings
func GetGitHubConfig() github.Config {
	name, email := GetCommitAuthor()
	return github.Config{
		Token:       viper.GetString("github.token"),
		Repository:  viper.GetString("github.repository"),
		APIURL:      viper.GetString("github.api_url"),
		AuthorName:  name,
		AuthorEmail: email,
	}
}

// GetEventPath returns the webhook payload file
func GetEventPath() string {
	return viper.GetString("github.event_path")
}

// GetOutputPath returns the step output file, empty outside Actions
func GetOutputPath() string {
	return viper.GetString("github.output")
}

// GetOllamaURL returns the Ollama endpoint
func GetOllamaURL() string {
	return viper.GetString("ollama.url")
}

// GetOllamaModel returns the generation model
func GetOllamaModel() string {
	return viper.GetString("ollama.model")
}

// GetProposeMaxChars bounds the current content sent to the model
func GetProposeMaxChars() int {
	return viper.GetInt("propose.max_chars")
}

// IsDebug reports whether debug logging is enabled
func IsDebug() bool {
	return viper.GetBool("log.debug")
}
