package backend

import (
	"errors"
	"fmt"

	"salesdash/internal/config"
)

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, errors.New("app config is nil")
	}

	backendType := BackendType(appConfig.DataSource)
	if !backendType.IsValid() {
		return Config{}, fmt.Errorf("invalid data source in config %q: must be one of %v", appConfig.DataSource, GetBackendTypeStrings())
	}

	return Config{
		Type: backendType,

		DataFile:     appConfig.DataFile,
		CSVDelimiter: appConfig.Delimiter(),

		SQLiteDBPath: appConfig.SQLiteDBPath,

		GoogleSpreadsheetID:      appConfig.GoogleSpreadsheetID,
		GoogleSheetName:          appConfig.GoogleSheetName,
		GoogleSheetColumns:       appConfig.GoogleSheetColumns,
		GoogleServiceAccountJSON: appConfig.GoogleServiceAccountJSON,
		GoogleServiceAccountFile: appConfig.GoogleServiceAccountFile,

		CacheEnabled: appConfig.CacheEnabled,
		CacheTTL:     appConfig.CacheTTL,
	}, nil
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type %q: must be one of %v", c.Type, GetBackendTypeStrings())
	}

	switch c.Type {
	case CSVBackend:
		if c.DataFile == "" {
			return errors.New("data file is required for csv backend")
		}
	case SQLiteBackend:
		if c.SQLiteDBPath == "" {
			return errors.New("SQLite database path is required for sqlite backend")
		}
	case SheetsBackend:
		if c.GoogleSpreadsheetID == "" {
			return errors.New("Google Spreadsheet ID is required for sheets backend")
		}
		if c.GoogleServiceAccountJSON == "" && c.GoogleServiceAccountFile == "" {
			return errors.New("either GoogleServiceAccountJSON or GoogleServiceAccountFile must be provided for sheets backend")
		}
	case MemoryBackend:
		// An empty DataFile starts the store empty
	}

	if c.CacheEnabled && c.CacheTTL <= 0 {
		return errors.New("cache TTL must be positive when the cache is enabled")
	}

	return nil
}

// GetBackendTypes returns all valid backend types
func GetBackendTypes() []BackendType {
	return []BackendType{CSVBackend, SQLiteBackend, SheetsBackend, MemoryBackend}
}

// GetBackendTypeStrings returns all valid backend type strings
func GetBackendTypeStrings() []string {
	types := GetBackendTypes()
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = t.String()
	}
	return names
}
