// Package config loads typed configuration structs from environment
// variables, optionally seeded from a .env file during development.
package config
