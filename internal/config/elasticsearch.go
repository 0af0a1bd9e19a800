package config

// ElasticsearchConfig holds connection settings for the event search index.
// An empty URL disables Elasticsearch and the service falls back to the
// Postgres proximity query.
type ElasticsearchConfig struct {
	URL        string
	Username   string
	Password   string
	Index      string
	MaxRetries int
}

// Enabled reports whether an Elasticsearch endpoint is configured.
func (c ElasticsearchConfig) Enabled() bool {
	return c.URL != ""
}
