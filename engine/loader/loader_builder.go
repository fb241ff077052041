package loader

import "github.com/Carmen-Shannon/oxy-pointcloud/engine/pointcloud"

// LoaderBuilderOption is a functional option for configuring a Loader via NewLoader.
type LoaderBuilderOption func(*loader)

// WithChunkRecords sets how many records are decoded per read. Values <= 0 keep the default (4096).
//
// Parameters:
//   - n: records per chunk
//
// Returns:
//   - LoaderBuilderOption: a function that applies the chunk size to a loader
func WithChunkRecords(n int) LoaderBuilderOption {
	return func(l *loader) {
		l.chunkRecords = n
	}
}

// WithCache enables or disables caching of loaded clouds. Caching is on by default.
//
// Parameters:
//   - enabled: false to keep nothing after Load returns
//
// Returns:
//   - LoaderBuilderOption: a function that applies the cache option to a loader
func WithCache(enabled bool) LoaderBuilderOption {
	return func(l *loader) {
		l.cacheEnabled = enabled
	}
}

// WithCloud is an option builder that pre-populates the cache with a cloud.
//
// Parameters:
//   - key: the cache key for the cloud
//   - cloud: the cloud to cache
//
// Returns:
//   - LoaderBuilderOption: a function that applies the cloud option to a loader
func WithCloud(key string, cloud *pointcloud.PointCloud) LoaderBuilderOption {
	return func(l *loader) {
		l.cloudCache[key] = cloud
	}
}
