// Package config handles configuration loading for teamup.
//
// # Overview
//
// Configuration is loaded from YAML files with environment variable expansion.
// Empty fields get defaults, then the result is validated.
//
// # Configuration File
//
// Default locations (in order):
//
//  1. Path from TEAMUP_CONFIG environment variable
//  2. $XDG_CONFIG_HOME/teamup/config.yaml
//  3. ~/.config/teamup/config.yaml
//
// # Environment Variable Expansion
//
// Configuration values can reference environment variables:
//
//	auth:
//	  jwt_secret: "${TEAMUP_JWT_SECRET}"
//
// Syntax: ${VAR_NAME}. Unset variables expand to the empty string.
//
// # Configuration Sections
//
// Server settings:
//
//	server:
//	  http_addr: "0.0.0.0:8080"
//	  shutdown_timeout: "5s"      # time.ParseDuration syntax
//
// Database:
//
//	database:
//	  driver: "sqlite"                    # sqlite, postgres, memory
//	  path: "/var/lib/teamup/teamup.db"   # sqlite
//	  dsn: "${TEAMUP_DATABASE_DSN}"       # postgres
//
// Authentication:
//
//	auth:
//	  jwt_secret: "${TEAMUP_JWT_SECRET}"  # at least 32 bytes
//	  bcrypt_cost: 10
//
// Logging:
//
//	logging:
//	  level: "info"   # debug, info, warn, error
//	  format: "text"  # text, json
//
// Metrics:
//
//	metrics:
//	  enabled: true
//	  path: "/metrics"
//
// # Usage
//
//	cfg, err := config.Load(config.Path())
//	if err != nil {
//	    return err
//	}
package config
