// Package mock provides test doubles for the ai interfaces.
//
// The default behaviors are deterministic so tests can assert on exact
// outcomes without external services: embeddings are derived from a hash of
// the input text, and answers describe their inputs. Behavior can be
// overridden per test via the exported function fields.
package mock
