// Package config handles YAML configuration loading with environment variable substitution.
//
// Configuration files support ${VAR} syntax for environment variable interpolation.
// Variables may come from the process environment or from a .env file loaded first.
// A base file can be overlaid with an environment file (base.yaml + production.yaml);
// keys in later files win.
package config
