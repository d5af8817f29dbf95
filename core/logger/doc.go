// Package logger provides structured logging utilities built on Go's standard slog package.
// It offers a small logger factory with environment presets and a set of attribute helpers
// shared by the mediator and its adapters.
//
// # Basic Usage
//
//	import "github.com/dmitrymomot/courier/core/logger"
//
//	// Development: text format, debug level, stdout
//	log := logger.New(logger.WithDevelopment("myapp"))
//
//	// Production: JSON format, info level, stdout
//	log := logger.New(logger.WithProduction("myapp"))
//
//	// Custom configuration
//	log := logger.New(
//		logger.WithLevel(slog.LevelWarn),
//		logger.WithJSONFormatter(),
//		logger.WithAttr(slog.String("service", "ui")),
//		logger.WithOutput(os.Stderr),
//	)
//
//	logger.SetAsDefault(log)
//
// # Attribute Helpers
//
// Helpers return an empty slog.Attr for nil or empty input, which slog drops, so they can
// be passed unconditionally:
//
//	log.Debug("broadcast",
//		logger.Message("user.updated"),
//		logger.Token(token),
//		logger.Count("delivered", n),
//		logger.Error(err), // nil-safe
//	)
//
// # Testing with Custom Output
//
//	var buf bytes.Buffer
//	log := logger.New(logger.WithJSONFormatter(), logger.WithOutput(&buf))
//	log.Info("Test message", logger.Component("test"))
//	assert.Contains(t, buf.String(), `"component":"test"`)
package logger
