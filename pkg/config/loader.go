package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/adhocore/jsonc"
	"github.com/goccy/go-yaml"
)

// The extensions that are probed when the config path has none.
var validExtensions = []string{".yaml", ".yml", ".json", ".jsonc"}

// Loads and validates the configuration from the given path. A path without
// an extension is probed with the valid extensions.
func Load(configPath string) (*GluonConfig, error) {
	if configPath == "" {
		configPath = "gluon"
	}

	finalConfigPath := configPath
	if filepath.Ext(configPath) == "" {
		foundPath, err := searchConfigFile(configPath)
		if err != nil {
			return nil, err
		}
		if foundPath == "" {
			return nil, fmt.Errorf("no config file found for '%s'", configPath)
		}
		finalConfigPath = foundPath
	}

	content, err := os.ReadFile(finalConfigPath)
	if err != nil {
		return nil, fmt.Errorf("failed reading config '%s': %w", finalConfigPath, err)
	}

	// Decode the file
	config := &GluonConfig{}
	switch filepath.Ext(finalConfigPath) {
	case ".json", ".jsonc":
		// Allow comments in json configs, so convert it to plain json first
		strippedJson := jsonc.New().Strip(content)
		if err = json.Unmarshal(strippedJson, config); err != nil {
			return nil, fmt.Errorf("failed parsing config '%s': %w", finalConfigPath, err)
		}
	default:
		if err = yaml.Unmarshal(content, config); err != nil {
			return nil, fmt.Errorf("failed parsing config '%s': %w", finalConfigPath, err)
		}
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Checks that the config is complete enough to serve requests.
func (c *GluonConfig) Validate() error {
	if len(c.Applications) == 0 {
		return fmt.Errorf("no applications configured")
	}
	for appId, appConfig := range c.Applications {
		if appConfig.Repository == nil {
			return fmt.Errorf("repository configuration missing for application '%s'", appId)
		}
		if appConfig.Repository.Owner == "" {
			return fmt.Errorf("repository owner missing for application '%s'", appId)
		}
		if appConfig.Repository.Name == "" {
			return fmt.Errorf("repository name missing for application '%s'", appId)
		}
		// A private repository needs an own or a global token
		if appConfig.Private && appConfig.TokenExpanded() == "" && c.GitHub.TokenExpanded() == "" {
			return fmt.Errorf("no GitHub token available for private repository '%s'", appId)
		}
	}
	return nil
}

// Searches for a config file with a valid extension based on the given path.
func searchConfigFile(basePath string) (string, error) {
	for _, extension := range validExtensions {
		probePath := basePath + extension
		info, err := os.Stat(probePath)
		if err == nil && !info.IsDir() {
			return probePath, nil
		}
		if err != nil && !os.IsNotExist(err) {
			return "", err
		}
	}
	return "", nil
}
