// Package engine implements the embedded index engine behind a lexgo
// index: the on-disk storage environment, its transactions, the document
// and settings stores, and the native search primitive.
//
// # Architecture
//
// An Environment owns one directory and a fixed-size virtual address-space
// reservation negotiated by the caller. Committed state is an immutable
// snapshot; read transactions pin a snapshot pointer, write transactions
// serialize behind a single-writer lock and publish a new snapshot on
// commit. A commit persists the snapshot to the environment directory as a
// zstd-compressed file bounded by the reservation size.
//
// Mutations go through builders (BatchBuilder + IndexDocuments,
// DeleteDocuments, ClearDocuments, SettingsBuilder) so that multiple steps
// compose inside one write transaction. Document indexing reports a
// two-stage result: the outer error covers batch mechanics, the inner
// user-data error covers malformed documents (missing or inconsistent
// primary keys). Both must be checked.
//
// Reads go through ReadTxn: the external-identifier map, the field-name
// dictionary, raw record access and full iteration. Search is constructed
// against a ReadTxn and returns internal document identifiers only;
// callers reconstruct documents with the same transaction for snapshot
// consistency.
package engine
