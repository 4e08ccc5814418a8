// Package config loads application settings with viper and validates them
// with go-playground/validator.
//
// Values come from defaults, an optional YAML file and CURATOR_-prefixed
// environment variables, in increasing order of precedence.
package config
