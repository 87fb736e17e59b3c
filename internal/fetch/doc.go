// Package fetch downloads and unpacks packaged PostgreSQL server binaries.
//
// Artifacts are the zonky.io embedded-postgres binary archives published to a
// Maven repository: an outer zip (jar) holding a single xz-compressed tar
// with the server's bin/, lib/, and share/ trees. Spec identifies one
// artifact by operating system, architecture, and version; HTTPFetcher
// retrieves its bytes and Unpack extracts a persisted archive into the
// binaries cache directory.
package fetch
