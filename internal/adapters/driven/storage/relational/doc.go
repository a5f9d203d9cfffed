// Package relational implements the chapter and job stores over database/sql.
//
// The schema is shared by every backend; a Dialect covers the differences
// in bind markers. Backend packages (sqlite, postgres) open the *sql.DB,
// register their driver and hand the connection to New.
//
// Chapters are stored in normalised form: one row per chapter plus
// sections, entities, keywords, propositions and key takeaways, with side
// tables for tags and the takeaway to proposition join. Every dependent
// row cascades from the chapter row. Save replaces a chapter by deleting
// and reinserting it inside one transaction.
package relational
