// Package config loads typed configuration from environment variables.
//
// It wraps github.com/joho/godotenv (reading .env files) and
// github.com/caarlos0/env/v11 (parsing tagged structs). Each configuration
// type is parsed once per process and cached by type name; ForceReloadConfig
// and ResetCache exist for tests.
//
//	var pgCfg pg.Config
//	config.MustLoad(&pgCfg)
//
//	var stripeCfg subscription.StripeConfig
//	if err := config.Load(&stripeCfg); err != nil {
//		return err
//	}
//
// Errors are sentinels comparable with errors.Is: ErrParsingConfig,
// ErrConfigNotLoaded, ErrNilPointer and ErrLoadingEnvFile.
package config
