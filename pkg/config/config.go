package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// URL returns the database connection string in URL form (for migrations).
func (c DatabaseConfig) URL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode)
}

// DSN returns the key/value connection string used by the GORM driver.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// JWTConfig holds token verification settings.
type JWTConfig struct {
	Secret string
}

// KafkaConfig holds broker addresses and the consumer group prefix.
type KafkaConfig struct {
	Brokers     []string
	GroupPrefix string
}

// SchedulerConfig holds cron specs for the background jobs.
type SchedulerConfig struct {
	ReconcileAvailability string
	ActivateDueBookings   string
	CompleteOverdue       string
}

// Load initializes a viper instance bound to environment variables with the
// given prefix (e.g. prefix "RENTAL" maps key "db.host" to RENTAL_DB_HOST).
func Load(prefix string) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(prefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("app.env", "development")
	v.SetDefault("service.port", ":8080")
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.password", "postgres")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("kafka.brokers", "localhost:9092")
	v.SetDefault("kafka.group_prefix", "drivenow-")
	v.SetDefault("scheduler.reconcile_availability", "0 */15 * * * *")
	v.SetDefault("scheduler.activate_due", "0 5 * * * *")
	v.SetDefault("scheduler.complete_overdue", "0 10 0 * * *")

	return v, nil
}

// GetAppEnv returns the application environment (development, staging, production).
func GetAppEnv(v *viper.Viper) string {
	return v.GetString("app.env")
}

// GetServicePort returns the HTTP listen address, normalized to ":port" form.
func GetServicePort(v *viper.Viper) string {
	port := v.GetString("service.port")
	if port != "" && !strings.HasPrefix(port, ":") {
		port = ":" + port
	}
	return port
}

// LoadDatabaseConfig reads the database settings.
func LoadDatabaseConfig(v *viper.Viper, dbName string) DatabaseConfig {
	name := v.GetString("db.name")
	if name == "" {
		name = dbName
	}
	return DatabaseConfig{
		Host:     v.GetString("db.host"),
		Port:     v.GetInt("db.port"),
		User:     v.GetString("db.user"),
		Password: v.GetString("db.password"),
		DBName:   name,
		SSLMode:  v.GetString("db.sslmode"),
	}
}

// LoadJWTConfig reads the JWT settings.
func LoadJWTConfig(v *viper.Viper) JWTConfig {
	return JWTConfig{
		Secret: v.GetString("jwt.secret"),
	}
}

// LoadKafkaConfig reads the Kafka settings.
func LoadKafkaConfig(v *viper.Viper) KafkaConfig {
	return KafkaConfig{
		Brokers:     strings.Split(v.GetString("kafka.brokers"), ","),
		GroupPrefix: v.GetString("kafka.group_prefix"),
	}
}

// LoadSchedulerConfig reads the cron specs for background jobs.
func LoadSchedulerConfig(v *viper.Viper) SchedulerConfig {
	return SchedulerConfig{
		ReconcileAvailability: v.GetString("scheduler.reconcile_availability"),
		ActivateDueBookings:   v.GetString("scheduler.activate_due"),
		CompleteOverdue:       v.GetString("scheduler.complete_overdue"),
	}
}
