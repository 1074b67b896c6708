// Package fhir provides an authenticated, rate-limited client for retrieving
// a subject's clinical records from a FHIR-shaped resource API.
//
// The package covers three concerns:
//
//   - TokenProvider: obtains and caches bearer tokens via the OAuth2
//     client-credentials grant with a signed JWT assertion (SMART Backend
//     Services style).
//   - Client: paginated, rate-limited retrieval of typed resource
//     collections for one subject, with transparent retry on HTTP 429.
//   - PatientBundle: the aggregated record set for one subject, assembled by
//     Client.FetchBundle and consumed by the ingestion pipeline.
//
// All outbound requests, including token exchanges, share one pacing
// limiter so the combined request rate stays under the remote API's limit.
package fhir
