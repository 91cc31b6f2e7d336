package config

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// configCache stores one parsed copy per configuration type.
type configCache struct {
	mu     sync.RWMutex
	values map[string]any
	onces  map[string]*sync.Once
}

var (
	globalCache = &configCache{
		values: make(map[string]any),
		onces:  make(map[string]*sync.Once),
	}

	defaultEnvLoaded sync.Once
)

// Load parses environment variables into v according to its `env` struct tags.
//
// The default .env file is read on first use (a missing file is fine). Each
// configuration type is parsed once; later calls for the same type are served
// from the cache even if the process environment changed in between.
//
//	type StripeConfig struct {
//		SecretKey     string `env:"STRIPE_SECRET_KEY,required"`
//		WebhookSecret string `env:"STRIPE_WEBHOOK_SECRET,required"`
//	}
//
//	var cfg StripeConfig
//	if err := config.Load(&cfg); err != nil {
//		return err
//	}
func Load[T any](v *T) error {
	defaultEnvLoaded.Do(func() {
		_ = godotenv.Load()
	})
	if v == nil {
		return ErrNilPointer
	}

	typeName := getTypeName[T]()
	if loadCached(typeName, v) {
		return nil
	}

	globalCache.mu.Lock()
	once, exists := globalCache.onces[typeName]
	if !exists {
		once = new(sync.Once)
		globalCache.onces[typeName] = once
	}
	globalCache.mu.Unlock()

	var err error
	once.Do(func() {
		if parseErr := env.Parse(v); parseErr != nil {
			err = errors.Join(ErrParsingConfig, parseErr)
			// Allow a later call to retry once the environment is fixed.
			globalCache.mu.Lock()
			delete(globalCache.onces, typeName)
			globalCache.mu.Unlock()
			return
		}

		globalCache.mu.Lock()
		globalCache.values[typeName] = *v
		globalCache.mu.Unlock()
	})
	if err != nil {
		return err
	}

	if loadCached(typeName, v) {
		return nil
	}
	return ErrConfigNotLoaded
}

// MustLoad works like Load but panics if configuration loading fails.
func MustLoad[T any](v *T) {
	if err := Load(v); err != nil {
		panic(fmt.Sprintf("failed to load required configuration: %v", err))
	}
}

// ForceReloadConfig drops the cached copy of T and parses the environment again.
func ForceReloadConfig[T any](v *T) error {
	if v == nil {
		return ErrNilPointer
	}
	typeName := getTypeName[T]()

	globalCache.mu.Lock()
	delete(globalCache.values, typeName)
	delete(globalCache.onces, typeName)
	globalCache.mu.Unlock()

	return Load(v)
}

// ResetCache forgets every cached configuration. Intended for tests.
func ResetCache() {
	globalCache.mu.Lock()
	globalCache.values = make(map[string]any)
	globalCache.onces = make(map[string]*sync.Once)
	globalCache.mu.Unlock()
}

// LoadEnv reads the given .env files into the process environment.
// Later files override earlier ones. With no arguments the default .env is loaded.
func LoadEnv(paths ...string) error {
	if len(paths) == 0 {
		if err := godotenv.Overload(); err != nil {
			return errors.Join(ErrLoadingEnvFile, err)
		}
		return nil
	}
	for _, p := range paths {
		if err := godotenv.Overload(p); err != nil {
			return errors.Join(ErrLoadingEnvFile, fmt.Errorf("%s: %w", p, err))
		}
	}
	return nil
}

// MustLoadEnv works like LoadEnv but panics on failure.
func MustLoadEnv(paths ...string) {
	if err := LoadEnv(paths...); err != nil {
		panic(fmt.Sprintf("failed to load env files: %v", err))
	}
}

func loadCached[T any](typeName string, v *T) bool {
	globalCache.mu.RLock()
	defer globalCache.mu.RUnlock()
	cached, ok := globalCache.values[typeName]
	if !ok {
		return false
	}
	*v = cached.(T)
	return true
}

func getTypeName[T any]() string {
	t := reflect.TypeFor[T]()
	return t.PkgPath() + "." + t.String()
}
