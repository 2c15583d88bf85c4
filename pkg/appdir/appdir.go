package appdir

import (
	"fmt"
	"os"
	"path/filepath"
)

const appName = "assetctl"

// Dirs holds the managed directories of assetctl
type Dirs struct {
	StatePath   string
	SessionPath string
	ExportPath  string
	ConfigPath  string
}

// New resolves XDG-compliant paths
func New() (*Dirs, error) {
	statePath, stateErr := getStateRoot()
	configPath, configErr := getConfigPath()
	if stateErr != nil {
		return nil, fmt.Errorf("failed to determine state directory: %w", stateErr)
	}
	if configErr != nil {
		return nil, fmt.Errorf("failed to determine config path: %w", configErr)
	}

	return &Dirs{
		StatePath:   statePath,
		SessionPath: filepath.Join(statePath, "session"),
		ExportPath:  filepath.Join(statePath, "exports"),
		ConfigPath:  configPath,
	}, nil
}

// getStateRoot returns the state directory path.
// Follows the XDG Base Directory layout on Unix and uses AppData on Windows
func getStateRoot() (string, error) {
	if xdgState := os.Getenv("XDG_STATE_HOME"); xdgState != "" {
		return filepath.Join(xdgState, appName), nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	if appData := os.Getenv("APPDATA"); appData != "" {
		return filepath.Join(appData, appName), nil
	}

	// Fall back to ~/.local/state/assetctl
	return filepath.Join(homeDir, ".local", "state", appName), nil
}

func getConfigPath() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName, "config.yaml"), nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	if appData := os.Getenv("APPDATA"); appData != "" {
		return filepath.Join(appData, appName+"-config", "config.yaml"), nil
	}

	return filepath.Join(homeDir, ".config", appName, "config.yaml"), nil
}

// Initialize creates the directory structure if it doesn't exist
func (d *Dirs) Initialize() error {
	for _, dir := range []string{d.StatePath, d.SessionPath} {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// LogPath returns the default log file location
func (d *Dirs) LogPath() string {
	return filepath.Join(d.StatePath, appName+".log")
}

// ExportDir returns override when set, otherwise the managed export directory
func (d *Dirs) ExportDir(override string) string {
	if override != "" {
		return override
	}
	return d.ExportPath
}

// GetExportPath returns the full path for an exported file
func (d *Dirs) GetExportPath(override, filename string) string {
	return filepath.Join(d.ExportDir(override), filename)
}
