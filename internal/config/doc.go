// Package config handles configuration loading for fitlife-api.
//
// # Configuration File
//
// Lookup order:
//
//  1. --config flag
//  2. FITLIFE_CONFIG environment variable
//  3. $XDG_CONFIG_HOME/fitlife/config.yaml (or ~/.config/fitlife/config.yaml)
//
// When no file exists the built-in defaults are used. Files ending in .toml
// are decoded as TOML; anything else is YAML. A .env file beside the config
// is loaded first without overriding variables already in the environment.
//
// # Environment Variable Expansion
//
//	auth:
//	  jwt_secret: "${FITLIFE_JWT_SECRET}"
//
// FITLIFE_DB_PATH always overrides database.path. FITLIFE_JWT_SECRET fills
// auth.jwt_secret when the file leaves it empty.
//
// # Example
//
//	server:
//	  http_addr: "0.0.0.0:3000"
//	  grpc_addr: "127.0.0.1:50051"   # optional gRPC health endpoint
//
//	database:
//	  path: "/var/lib/fitlife/fitlife.db"
//
//	auth:
//	  jwt_secret: "${FITLIFE_JWT_SECRET}"   # at least 32 bytes
//	  token_ttl: "720h"
//	  reset_token_ttl: "1h"
//	  reset_cooldown: "1m"            # one reset email per address per minute
//	  bcrypt_cost: 10
//	  expose_reset_token: false
//
//	mail:
//	  provider: "ses"                 # log or ses
//	  from: "no-reply@fitlife.com"
//	  region: "eu-west-1"
//
//	seed:
//	  admin_email: "admin@fitlife.com"
//	  admin_password: "123456"
//	  sample_activities: true
//
//	logging:
//	  level: "info"                   # debug, info, warn, error
//	  format: "text"                  # text or json
//
// Durations use time.ParseDuration syntax.
package config
