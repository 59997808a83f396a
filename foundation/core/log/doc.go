// Package log provides structured logging for the mBASIC front-end and
// its services.
//
// Package: log
// Title: mBASIC Structured Logging Framework
// Description: Structured logging with contextual fields, request IDs,
//              JSON/text/console/logfmt output and performance timers.
//              Integrates with the error package so that structured errors
//              are logged at a level matching their severity.
// Author: msto63
// Version: v0.2.0
// Created: 2025-01-24
// Modified: 2026-10-19
//
// Change History:
// - 2025-01-24 v0.1.0: Initial implementation with structured logging and error integration
// - 2026-10-19 v0.2.0: Reduced feature set for the mBASIC services
//
// Usage:
//
//	import mdwlog "github.com/msto63/mbasic/foundation/core/log"
//
//	logger := mdwlog.New().
//		WithLevel(mdwlog.LevelDebug).
//		WithFormat(mdwlog.FormatText).
//		WithField("component", "engine")
//
//	logger.Info("analysis finished", mdwlog.Fields{"tokens": 12})
//
//	timer := logger.StartTimer("analyze")
//	// ... lex and parse
//	timer.Stop()
package log
