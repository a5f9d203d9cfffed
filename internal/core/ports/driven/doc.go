// Package driven declares what the digest core needs from infrastructure.
//
// A run needs a Generator to produce structured JSON, a ChapterStore to
// persist finished analyses and a JobStore to hold job records and their
// progress logs. ConfigStore backs the settings service.
//
// PromptStore and TextExtractor are optional. Without a PromptStore the
// embedded templates are used; without a TextExtractor only raw text can
// be submitted.
//
// Packages here import domain and nothing else from internal/.
package driven
