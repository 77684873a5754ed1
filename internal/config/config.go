package config // package config loads application configuration from environment variables

import (
	"log"     // log is used to report configuration errors and halt execution
	"os"      // os provides access to environment variables
	"time"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  Required values are enforced at load time, the
// rest fall back to defaults suitable for local development.
type Config struct {
	Env            string // application environment (e.g. "dev", "prod")
	Port           string // HTTP port to listen on
	DBUser         string // database username
	DBPass         string // database password (optional)
	DBHost         string // database host address
	DBPort         string // database port number
	DBName         string // database name
	JWTSecret      string // secret used to sign JWTs
	AccessTTLMin   int    // access token time-to-live in minutes
	RefreshTTLDays int    // refresh token time-to-live in days
	BcryptCost     int    // bcrypt cost for password hashing
	BaseURL        string // public URL used in email links
	ExportDir      string // directory where CSV exports are written

	AMQPURL        string        // broker URL; empty disables async job dispatch
	JobQueue       string        // queue name for background jobs
	JobResultTTL   time.Duration // how long job results stay queryable
	ReminderCron   string        // cron spec for daily reminders
	ReportCron     string        // cron spec for monthly reports
	WorkerEmbedded bool          // run the job consumer inside the API process
}

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.
func Load() Config {
	return Config{
		Env:            must("APP_ENV"),
		Port:           must("APP_PORT"),
		DBUser:         must("DB_USER"),
		DBPass:         os.Getenv("DB_PASS"), // empty allowed
		DBHost:         must("DB_HOST"),
		DBPort:         must("DB_PORT"),
		DBName:         must("DB_NAME"),
		JWTSecret:      must("JWT_SECRET"),
		AccessTTLMin:   envInt("ACCESS_TOKEN_TTL_MIN", 1440),
		RefreshTTLDays: envInt("REFRESH_TOKEN_TTL_DAYS", 30),
		BcryptCost:     envInt("BCRYPT_COST", 10),
		BaseURL:        envStr("APP_BASE_URL", "http://localhost:8080"),
		ExportDir:      envStr("EXPORT_DIR", "static/exports"),

		AMQPURL:        amqpURL(),
		JobQueue:       envStr("JOB_QUEUE", "parking.jobs"),
		JobResultTTL:   envDur("JOB_RESULT_TTL", time.Hour),
		ReminderCron:   envStr("DAILY_REMINDER_CRON", "0 18 * * *"),
		ReportCron:     envStr("MONTHLY_REPORT_CRON", "0 9 1 * *"),
		WorkerEmbedded: envBool("WORKER_EMBEDDED", false),
	}
}

// amqpURL accepts either RABBITMQ_URL or AMQP_URL.
func amqpURL() string {
	if v := os.Getenv("RABBITMQ_URL"); v != "" {
		return v
	}
	return os.Getenv("AMQP_URL")
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}
