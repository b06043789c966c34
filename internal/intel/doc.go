// Package intel defines the boundary between the application core and the
// external AI provider that parses resumes, scores candidate/job matches,
// and generates content. The execution engine depends only on these
// interfaces; the concrete Gemini-backed implementation lives in
// internal/platform/gemini, following the hexagonal architecture pattern.
package intel
