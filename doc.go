// Package marketcache provides the quote and fundamentals caching layer that
// sits between a portfolio dashboard and a rate-limited, intermittently failing
// market-data provider.
//
// The core functionalities include:
//   - Freshness Policy: a single place mapping each data class (live price,
//     fundamentals, search and news, charts, historical series) to the age a
//     cached answer may reach before it is refetched.
//   - Single-item and batch pipelines: serve fresh cache entries without
//     calling the provider, refetch stale or missing entries, write new values
//     in the background, and fall back to stale entries when the provider
//     fails.
//   - Historical series: date-ranged daily closes whose cache is trusted when
//     it is current as of today rather than by age.
//
// Callers always receive either a best-effort value, whose LastUpdated
// honestly tells its age, or an absence signal. Provider timeouts, provider
// errors and empty answers are never returned as errors.
//
// The Store and Upstream interfaces are implemented by the sqlstore and eodhd
// packages.
package marketcache
