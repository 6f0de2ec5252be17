// Package logging provides a process-wide structured logger for sigdb.
//
// The package wraps [github.com/rs/zerolog] and exposes a single global logger
// instance that is initialized once and then retrieved via GetLogger. All
// subsystems should obtain a logger through this package rather than
// constructing their own zerolog.Logger values, so that log level and output
// destination are controlled from a single place.
//
// # Initialisation
//
// Call Init (or InitDefault for sensible defaults) once at program startup:
//
//	if err := logging.Init(logging.Config{Level: logging.LevelDebug, Format: "json"}); err != nil {
//	    log.Fatal(err)
//	}
//
// InitDefault writes INFO-level console logs to stderr without a log file.
//
// # Retrieving the logger
//
//	logger := logging.GetLogger()
//	logger.Info().Str("relation", name).Msg("relation opened")
//
// If GetLogger is called before Init, a default stderr logger is created
// lazily (via sync.Once) so that packages that log during init are safe.
//
// # Context helpers
//
// Several helpers return child loggers pre-populated with structured fields:
//
//	log := logging.WithRelation(name)   // adds relation field
//	log := logging.WithComponent("query") // adds component field
//	log := logging.WithPage(pid)        // adds page_id field
package logging
