// Package config loads typed configuration from the environment.
//
// Each package that needs settings declares a Config struct tagged for
// github.com/caarlos0/env and the binary loads it with Load or MustLoad:
//
//	var srv httpserver.Config
//	config.MustLoad(&srv)
//
// A .env file in the working directory is read once on first use through
// github.com/joho/godotenv. Parsed values are cached per type, so repeated
// loads are cheap and always return the same values. Tests call ResetCache
// after changing the environment.
package config
