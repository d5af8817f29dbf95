// Package config fills settings structs from the process environment.
//
// Fields are declared with caarlos0/env struct tags. Before the first parse a .env
// file in the working directory is read, if present; variables already set in the
// environment win over it.
//
// The mediator settings are the main consumer:
//
//	var cfg mediator.Config
//	if err := config.Load(&cfg); err != nil {
//		return err
//	}
//	m := mediator.NewFromConfig(cfg)
//
// With a .env such as
//
//	MEDIATOR_AUTO_PRUNE=true
//	MEDIATOR_LOGGING=true
//	MEDIATOR_LOG_FORMAT=json
//
// the mediator drops collected subscribers on broadcast and logs JSON at Info level.
//
// A settings type is parsed once per process. Later Load calls for the same type copy
// the first result, so changes to the environment after startup are not seen. Each
// type keeps its own entry; MustLoad panics instead of returning the error and is
// meant for main.
package config
