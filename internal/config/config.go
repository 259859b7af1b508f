// internal/config/config.go
package config

import "os"

// Config holds everything the catalog service reads from its environment.
type Config struct {
	Port                string
	BooksTable          string
	AWSRegion           string
	MeiliHost           string
	MeiliAPIKey         string
	SearchIndexTemplate string
	OTLPEndpoint        string
}

// Load reads the configuration from environment variables, with development
// defaults. SEARCH_INDEX_TEMPLATE receives the tenant id, giving each tenant
// its own search index.
func Load() *Config {
	return &Config{
		Port:                getEnv("PORT", "8080"),
		BooksTable:          getEnv("BOOKS_TABLE", "bookvault-books-dev"),
		AWSRegion:           getEnv("DYNAMODB_REGION", "us-east-1"),
		MeiliHost:           getEnv("MEILISEARCH_HOST", "http://localhost:7700"),
		MeiliAPIKey:         getEnv("MEILISEARCH_API_KEY", ""),
		SearchIndexTemplate: getEnv("SEARCH_INDEX_TEMPLATE", "books_%s"),
		OTLPEndpoint:        getEnv("OTLP_ENDPOINT", ""),
	}
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
