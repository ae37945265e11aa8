package config

// Package config loads application configuration from a YAML file with
// environment variable overrides via cleanenv.
