// Package services implements the driving port interfaces.
//
// The Coordinator runs the four-pass digest pipeline (structure, extract,
// synthesize, validate) and hands the result to a ChapterStore. JobRunner
// runs it in the background and records progress through a JobStore.
// ChapterService, IngestService and SettingsService cover the read side,
// uploads and configuration.
//
// Services depend on driven ports only and never import adapters.
package services
