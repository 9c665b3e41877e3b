// Package config loads, normalizes, and validates moviecase configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, loads a .env file when present, and honours
// environment fallbacks such as TMDB_API_KEY and OMDB_API_KEY. User preferences
// live here too: they default from the [preferences] section and can be
// overridden by values persisted in the library database.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
