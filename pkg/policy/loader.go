package policy

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/viper"
)

// FileName is the policy file searched for in the target's ancestry.
const FileName = ".archgate.toml"

// configType is the policy file format.
const configType = "toml"

// envPrefix is the environment variable prefix for policy overrides.
const envPrefix = "ARCHGATE"

// envKeySeparator is the nested key separator in environment variable names.
const envKeySeparator = "_"

// recognizedKeys are the policy keys the loader understands. Anything else in
// the file is reported as a warning, never a fatal error.
var recognizedKeys = map[string]struct{}{
	"max_cc":                {},
	"adf_threshold":         {},
	"ccr_threshold":         {},
	"project_max_cc":        {},
	"illegal_patterns":      {},
	"legacy_api_patterns":   {},
	"excluded_dirs":         {},
	"churn_window_days":     {},
	"churn_timeout_seconds": {},
	"churn_baseline":        {},
	"workers":               {},
}

// Discover walks upward from the target's directory looking for the policy
// file, stopping after a repository root (a directory containing .git) or at
// the filesystem root. Returns the empty string when no policy file exists.
func Discover(target string) (string, error) {
	info, err := os.Stat(target)
	if err != nil {
		return "", fmt.Errorf("stat target: %w", err)
	}

	dir := target
	if !info.IsDir() {
		dir = filepath.Dir(target)
	}

	dir, err = filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolve target directory: %w", err)
	}

	for {
		candidate := filepath.Join(dir, FileName)
		if fi, statErr := os.Stat(candidate); statErr == nil && fi.Mode().IsRegular() {
			return candidate, nil
		}

		if isRepositoryRoot(dir) {
			return "", nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}

		dir = parent
	}
}

// isRepositoryRoot reports whether dir contains a .git entry. Worktrees carry
// a .git file rather than a directory, so any entry counts.
func isRepositoryRoot(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ".git"))

	return err == nil
}

// Load resolves the effective policy for a run. If explicitPath is non-empty
// it is used as the policy file and must exist; otherwise the file is
// discovered by walking upward from the target. A missing discovered file is
// not an error; defaults apply. Malformed TOML and uncompilable patterns are
// fatal before any file is scanned.
func Load(explicitPath, target string, logger *slog.Logger) (*Policy, error) {
	if logger == nil {
		logger = slog.Default()
	}

	path := explicitPath

	if path == "" {
		discovered, err := Discover(target)
		if err != nil {
			return nil, err
		}

		path = discovered
	}

	viperCfg := viper.New()

	applyDefaults(viperCfg)

	viperCfg.SetConfigType(configType)
	viperCfg.SetEnvPrefix(envPrefix)
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", envKeySeparator))
	viperCfg.AutomaticEnv()

	if path != "" {
		viperCfg.SetConfigFile(path)

		readErr := viperCfg.ReadInConfig()
		if readErr != nil {
			return nil, fmt.Errorf("read policy %s: %w", path, readErr)
		}

		warnUnknownKeys(viperCfg, path, logger)
	}

	var pol Policy

	unmarshalErr := viperCfg.Unmarshal(&pol)
	if unmarshalErr != nil {
		return nil, fmt.Errorf("unmarshal policy: %w", unmarshalErr)
	}

	pol.Source = path

	validateErr := pol.Validate()
	if validateErr != nil {
		return nil, fmt.Errorf("validate policy: %w", validateErr)
	}

	return &pol, nil
}

func applyDefaults(viperCfg *viper.Viper) {
	viperCfg.SetDefault("max_cc", DefaultMaxCC)
	viperCfg.SetDefault("adf_threshold", DefaultADFThreshold)
	viperCfg.SetDefault("ccr_threshold", DefaultCCRThreshold)
	viperCfg.SetDefault("project_max_cc", DefaultProjectMaxCC)

	viperCfg.SetDefault("illegal_patterns", DefaultIllegalPatterns)
	viperCfg.SetDefault("legacy_api_patterns", DefaultLegacyAPIPatterns)
	viperCfg.SetDefault("excluded_dirs", DefaultExcludedDirs)

	viperCfg.SetDefault("churn_window_days", DefaultChurnWindowDays)
	viperCfg.SetDefault("churn_timeout_seconds", DefaultChurnTimeoutSeconds)
	viperCfg.SetDefault("churn_baseline", DefaultChurnBaseline)

	viperCfg.SetDefault("workers", 0)
}

// warnUnknownKeys logs any key present in the file that the loader does not
// recognize. Defaults only register recognized keys, so every extra key in
// AllKeys came from the file.
func warnUnknownKeys(viperCfg *viper.Viper, path string, logger *slog.Logger) {
	var unknown []string

	for _, key := range viperCfg.AllKeys() {
		if _, ok := recognizedKeys[key]; !ok {
			unknown = append(unknown, key)
		}
	}

	if len(unknown) == 0 {
		return
	}

	sort.Strings(unknown)
	logger.Warn("ignoring unknown policy keys", "file", path, "keys", unknown)
}
