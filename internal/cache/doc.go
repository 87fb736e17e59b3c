// Package cache manages the on-disk cache of PostgreSQL server binaries.
//
// Binaries are cached per (operating system, architecture, version) under the
// platform cache root so that every embedded server instance on a host shares
// one download. An in-process acquisition registry guarantees that at most one
// instance per cache location downloads and unpacks the archive; concurrent
// instances wait for the acquirer instead of racing on the download. A file
// lock extends the same guarantee across processes sharing the cache root.
package cache
