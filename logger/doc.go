// Package logger provides structured logging backed by zerolog.
//
// A global logger is initialized once from config via Init; components
// obtain tagged child loggers with Get or WithComponent. Fields are passed
// as plain maps:
//
//	log := logger.Get("supervisor")
//	log.Info("job finished", logger.Fields("device", "cpu", "segments", 12))
package logger
