// Package s3 implements dumpstore.Store for Amazon S3, plus a DynamoDB
// pointer store that tracks the latest dump per index with atomic,
// conditional commits.
package s3
