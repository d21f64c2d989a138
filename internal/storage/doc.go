// Package storage publishes finished karaoke videos to an S3-compatible
// object store such as MinIO.
package storage
