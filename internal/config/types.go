package config

// Config holds all configuration for the application.
type Config struct {
	DBName   string `env:"DB_NAME" envDefault:"tonight.db"`
	Port     string `env:"PORT" envDefault:"8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	// Timezone used to resolve "today" when a booking omits its date.
	Timezone         string `env:"TIMEZONE" envDefault:"Asia/Tokyo"`
	MaxMatchAttempts int    `env:"MAX_MATCH_ATTEMPTS" envDefault:"3"`
	Turso            TursoConfig
	Slack            SlackConfig
	PubSub           PubSubConfig
	HTTP             HTTPConfig
}

type TursoConfig struct {
	PrimaryURL string `env:"TURSO_PRIMARY_URL"`
	AuthToken  string `env:"TURSO_AUTH_TOKEN"`
}

type SlackConfig struct {
	Token     string `env:"SLACK_BOT_TOKEN"`
	ChannelID string `env:"SLACK_CHANNEL_ID"`
}

type PubSubConfig struct {
	ProjectID     string `env:"GCP_PROJECT"`
	OutcomesTopic string `env:"PUBSUB_TOPIC_OUTCOMES" envDefault:"match-outcomes"`
}

type HTTPConfig struct {
	AllowedOrigins       []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`
	BookingRatePerSecond float64  `env:"BOOKING_RATE_PER_SECOND" envDefault:"1"`
	BookingBurst         int      `env:"BOOKING_BURST" envDefault:"5"`
}
