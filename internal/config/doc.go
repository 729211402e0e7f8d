// Package config handles configuration loading, parsing, and validation
// from various sources (.env file, config file, environment variables). It
// provides type-safe access to server, generative-service and rendering
// settings while keeping configuration details separate from business logic.
package config
