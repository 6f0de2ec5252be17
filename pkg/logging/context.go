package logging

import "github.com/rs/zerolog"

// WithRelation creates a logger with relation context.
// Use this for storage manager and query operations.
//
// Example:
//
//	log := logging.WithRelation("people")
//	log.Info().Msg("relation opened")
func WithRelation(name string) zerolog.Logger {
	return GetLogger().With().Str("relation", name).Logger()
}

// WithComponent creates a logger with component/subsystem context.
//
// Example:
//
//	log := logging.WithComponent("query")
//	log.Debug().Msg("candidate pages built")
func WithComponent(component string) zerolog.Logger {
	return GetLogger().With().Str("component", component).Logger()
}

// WithPage creates a logger with page context.
func WithPage(pageID uint32) zerolog.Logger {
	return GetLogger().With().Uint32("page_id", pageID).Logger()
}

