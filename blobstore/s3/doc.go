// Package s3 provides a blobstore.Store backed by Amazon S3.
//
// Uploads go through the AWS transfer manager, so large snapshots are
// split into multipart uploads transparently.
package s3
