// Package domain holds the chapter analysis graph and the job model.
//
// A digest run turns chapter text into a ChapterAnalysis: an outline of
// Sections, the Propositions extracted from each section and the
// KeyTakeaways synthesised from them. Jobs and their Events record the
// run's progress through the pipeline states.
//
// Validation of the graph's invariants lives here so that the pipeline,
// the stores and the transports all check the same rules. The package
// imports only the standard library.
package domain
