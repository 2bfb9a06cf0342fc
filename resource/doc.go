// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package resource is the reference counted resource cache of the engine.
// Every asset kind (textures, geometry, skeletons and so on) gets its own
// Cache, but all of them live on a single Store which serialises access to
// the cache tables. A Cache deduplicates requests by Key, runs imports on
// worker goroutines and publishes the result back to the Store, evicting
// entries according to their CacheHint as simulated time advances through
// Store.Update. Changed source files are picked up by the hot reload sweep.
//
// Loading never blocks the caller: acquiring a resource returns a Handle
// in the Pending state, callers poll State or IsReady before touching the
// backend. Handles must be released exactly once.
package resource
