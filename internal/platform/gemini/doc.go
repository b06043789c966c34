// Package gemini implements the intel provider interfaces using Google's
// Gemini API: resume parsing, candidate/job match scoring, and content
// generation. Calls are retried with exponential backoff for transient
// failures, and match scoring runs behind a circuit breaker so a globally
// unavailable provider aborts a batch instead of failing every item in turn.
package gemini
