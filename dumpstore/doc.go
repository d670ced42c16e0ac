// Package dumpstore abstracts storage for index dumps.
//
// A Store holds opaque dump blobs under flat names. Implementations cover
// the local filesystem (with optional IO throttling), memory (testing),
// S3 and MinIO object storage, and a replicated composite that mirrors
// every dump across several stores.
package dumpstore
