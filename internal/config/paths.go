package config

import "path/filepath"

// DirName is the project-local hidden directory holding all dispatcher
// state: hook configuration, response cache, prompt overrides, history.
const DirName = ".hookwise"

// Dir returns the state directory for a project root.
func Dir(projectRoot string) string {
	return filepath.Join(projectRoot, DirName)
}

// SettingsPath returns the tool-level settings file path.
func SettingsPath(projectRoot string) string {
	return filepath.Join(Dir(projectRoot), "settings.yaml")
}

// HooksConfigPath returns the registry's hook configuration document path.
func HooksConfigPath(projectRoot string) string {
	return filepath.Join(Dir(projectRoot), "config.json")
}

// CacheDir returns the backend response cache directory.
func CacheDir(projectRoot string) string {
	return filepath.Join(Dir(projectRoot), "cache")
}

// PromptsDir returns the directory of user prompt-template overrides.
func PromptsDir(projectRoot string) string {
	return filepath.Join(Dir(projectRoot), "prompts")
}

// HistoryPath returns the invocation history database path.
func HistoryPath(projectRoot string) string {
	return filepath.Join(Dir(projectRoot), "history.db")
}

// LogsDir returns the directory for optional log files.
func LogsDir(projectRoot string) string {
	return filepath.Join(Dir(projectRoot), "logs")
}

// EnvPath returns the project-local .env file path.
func EnvPath(projectRoot string) string {
	return filepath.Join(Dir(projectRoot), ".env")
}
