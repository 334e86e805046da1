// Package config loads typed configuration from the environment.
//
// It wraps github.com/joho/godotenv, for optional .env files, and
// github.com/caarlos0/env/v11, for struct tag parsing. Every configuration type
// is parsed once per process and cached, so packages can call Load for their own
// section without coordinating:
//
//	var pgCfg pg.Config
//	var hubCfg stream.Config
//	config.MustLoad(&pgCfg)
//	config.MustLoad(&hubCfg)
//
// LoadEnv applies extra dotenv files explicitly (later files win) and ResetCache
// clears parsed values between tests.
package config
