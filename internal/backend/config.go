package backend

import (
	"backoffice/internal/config"
)

// Config holds what the factory needs to build an exporter.
type Config struct {
	Type Type

	// Google Sheets specific
	SpreadsheetID   string
	SheetName       string
	CredentialsFile string
	CredentialsJSON string
}

// ConfigFromAppConfig picks the export settings out of the process config.
func ConfigFromAppConfig(cfg *config.Config) Config {
	return Config{
		Type:            Type(cfg.ExportBackend),
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		SheetName:       cfg.GoogleSummarySheetName,
		CredentialsFile: cfg.GoogleServiceAccountFile,
		CredentialsJSON: cfg.GoogleServiceAccountJSON,
	}
}
