package config

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

var (
	dotenvOnce sync.Once
	loaded     sync.Map // reflect.Type -> loaded value
)

// Load parses environment variables into cfg.
// The first call loads a .env file from the working directory if one exists.
// Each configuration type is parsed once; later calls receive the cached value.
func Load[T any](cfg *T) error {
	if cfg == nil {
		return fmt.Errorf("config: nil %s", reflect.TypeFor[T]())
	}

	dotenvOnce.Do(func() {
		// Missing .env is the normal case outside local development.
		_ = godotenv.Load()
	})

	key := reflect.TypeFor[T]()
	if v, ok := loaded.Load(key); ok {
		*cfg = v.(T)
		return nil
	}

	var parsed T
	if err := env.Parse(&parsed); err != nil {
		return fmt.Errorf("config: parse %s: %w", key, err)
	}

	actual, _ := loaded.LoadOrStore(key, parsed)
	*cfg = actual.(T)
	return nil
}

// MustLoad is like Load but panics on failure. Intended for program startup.
func MustLoad[T any](cfg *T) {
	if err := Load(cfg); err != nil {
		panic(err)
	}
}
