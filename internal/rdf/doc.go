// Package rdf provides the term, triple and dictionary types shared by the
// plan algebra, the statistics gatherer and the reference executor.
//
// This package contains no planning logic. Every other internal package
// imports rdf; rdf imports nothing internal.
//
// Key design constraints:
//   - Constants are opaque dictionary handles (ID). The optimizer never
//     decodes them; only the executor and explain output do.
//   - Variable names are normalised (leading ? or $ stripped, NFC) before
//     being used as lookup keys anywhere.
//   - Dictionary ids are dense and start at 1. ID 0 is never assigned and
//     is used as "unbound" in value rows.
package rdf
