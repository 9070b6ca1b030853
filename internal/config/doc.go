// Package config provides centralized configuration management for mlprep.
// It handles loading configuration from multiple sources, validation, and provides
// a type-safe API for accessing configuration values throughout the application.
//
// # Configuration Sources
//
// Configuration is layered, later sources overriding earlier ones:
//
//	1. Default values (Default)
//	2. YAML file (MLPREP_CONFIG, ./config.yaml or ./configs/config.yaml)
//	3. Environment variables (highest priority)
//
// # Environment Variables
//
// All environment variables follow the pattern MLPREP_<SECTION>_<FIELD>:
//
//	MLPREP_SERVER_PORT=8080
//	MLPREP_LOGGING_LEVEL=debug
//	MLPREP_PROJECTS_GAMING_TARGET_THRESHOLD_MILLION=2.5
//	MLPREP_PROJECTS_GOLD_RECOVERY_TARGET=rougher.output.recovery
//
// The random seed is not part of Config; see package seed for SEED handling.
package config
