package loader

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/Carmen-Shannon/oxy-pointcloud/engine/pointcloud"
	"github.com/golang/glog"
)

// LoaderBackendType identifies the point cloud file format backend to use.
type LoaderBackendType int

const (
	// BackendTypePLY selects the binary little-endian PLY backend.
	BackendTypePLY LoaderBackendType = iota
)

// loader is the implementation of the Loader interface.
type loader struct {
	mu sync.RWMutex

	backendType  LoaderBackendType
	backend      loaderBackend
	chunkRecords int

	cacheEnabled bool
	cloudCache   map[string]*pointcloud.PointCloud
}

// Loader defines the public-facing interface for reading, writing and caching point clouds.
// It abstracts the file format behind a backend and keeps the most recent cloud loaded from each path.
type Loader interface {
	// Load reads a point cloud file and caches the result by path, replacing any earlier entry.
	// On failure nothing is cached and no cloud is returned.
	//
	// Parameters:
	//   - path: the file path to read
	//
	// Returns:
	//   - *pointcloud.PointCloud: the decoded cloud
	//   - error: ErrMalformedHeader, ErrTruncatedData or an *IOError
	Load(path string) (*pointcloud.PointCloud, error)

	// LoadReader reads a point cloud from a stream. The size of the stream is unknown, so a
	// truncated body is only detected once the reader runs dry.
	//
	// Parameters:
	//   - name: the name recorded on the cloud and used as cache key
	//   - r: the reader providing file bytes
	//
	// Returns:
	//   - *pointcloud.PointCloud: the decoded cloud
	//   - error: ErrMalformedHeader, ErrTruncatedData or an *IOError
	LoadReader(name string, r io.Reader) (*pointcloud.PointCloud, error)

	// ReadHeader parses only the header of a file.
	//
	// Parameters:
	//   - path: the file path to read
	//
	// Returns:
	//   - Header: the parsed header
	//   - error: ErrMalformedHeader or an *IOError
	ReadHeader(path string) (Header, error)

	// Save writes cloud to path. The file is written to a temporary sibling and renamed into
	// place, so a failed save never leaves a partial file at path.
	//
	// Parameters:
	//   - cloud: the cloud to write
	//   - path: the destination file
	//
	// Returns:
	//   - error: an *IOError if any step fails
	Save(cloud *pointcloud.PointCloud, path string) error

	// Write encodes cloud to w.
	//
	// Parameters:
	//   - cloud: the cloud to write
	//   - w: the destination
	//
	// Returns:
	//   - error: an *IOError if writing fails
	Write(cloud *pointcloud.PointCloud, w io.Writer) error

	// Get retrieves a cached cloud by path or stream name. Returns nil if not found.
	Get(name string) *pointcloud.PointCloud

	// Clouds returns a copy of the cache.
	Clouds() map[string]*pointcloud.PointCloud

	// Evict drops a cached cloud.
	Evict(name string)

	// BackendType reports the format backend in use.
	BackendType() LoaderBackendType
}

var _ Loader = &loader{}

// NewLoader creates a new Loader instance with the specified backend type and options applied.
//
// Parameters:
//   - backendType: the type of loader backend to use (e.g., BackendTypePLY)
//   - options: a variadic list of LoaderBuilderOption functions to configure the Loader
//
// Returns:
//   - Loader: a new instance of Loader configured with the provided backend and options
func NewLoader(backendType LoaderBackendType, options ...LoaderBuilderOption) Loader {
	l := &loader{
		backendType:  backendType,
		cacheEnabled: true,
		cloudCache:   make(map[string]*pointcloud.PointCloud),
	}

	for _, option := range options {
		option(l)
	}

	switch backendType {
	case BackendTypePLY:
		fallthrough
	default:
		l.backend = newPLYLoaderBackend(l.chunkRecords)
	}

	return l
}

func (l *loader) BackendType() LoaderBackendType {
	return l.backendType
}

func (l *loader) Load(path string) (*pointcloud.PointCloud, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &IOError{Op: "open", Path: path, Err: err}
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return nil, &IOError{Op: "stat", Path: path, Err: err}
	}

	cloud, err := l.backend.Decode(path, f, st.Size())
	if err != nil {
		glog.Warningf("[Loader] failed to load %s: %v", path, err)
		return nil, err
	}
	glog.V(1).Infof("[Loader] loaded %s: %d points", path, cloud.Count())

	l.store(path, cloud)
	return cloud, nil
}

func (l *loader) LoadReader(name string, r io.Reader) (*pointcloud.PointCloud, error) {
	cloud, err := l.backend.Decode(name, r, -1)
	if err != nil {
		return nil, err
	}
	l.store(name, cloud)
	return cloud, nil
}

func (l *loader) ReadHeader(path string) (Header, error) {
	f, err := os.Open(path)
	if err != nil {
		return Header{}, &IOError{Op: "open", Path: path, Err: err}
	}
	defer f.Close()
	return l.backend.ReadHeader(path, f)
}

func (l *loader) Save(cloud *pointcloud.PointCloud, path string) (err error) {
	if cloud == nil {
		return &IOError{Op: "write", Path: path, Err: errors.New("nil point cloud")}
	}
	mode := os.FileMode(0o644)
	if fi, statErr := os.Stat(path); statErr == nil {
		mode = fi.Mode().Perm()
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return &IOError{Op: "open", Path: path, Err: err}
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if err = l.backend.Encode(path, cloud, tmp); err != nil {
		return err
	}
	if err = tmp.Chmod(mode); err != nil {
		return &IOError{Op: "chmod", Path: path, Err: err}
	}
	if err = tmp.Sync(); err != nil {
		return &IOError{Op: "sync", Path: path, Err: err}
	}
	if err = tmp.Close(); err != nil {
		return &IOError{Op: "close", Path: path, Err: err}
	}
	if err = os.Rename(tmpName, path); err != nil {
		return &IOError{Op: "rename", Path: path, Err: err}
	}

	glog.V(1).Infof("[Loader] saved %s: %d points", path, cloud.Count())
	return nil
}

func (l *loader) Write(cloud *pointcloud.PointCloud, w io.Writer) error {
	if cloud == nil {
		return &IOError{Op: "write", Path: "<nil cloud>", Err: errors.New("nil point cloud")}
	}
	return l.backend.Encode(cloud.Name, cloud, w)
}

func (l *loader) Get(name string) *pointcloud.PointCloud {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.cloudCache[name]
}

func (l *loader) Clouds() map[string]*pointcloud.PointCloud {
	l.mu.RLock()
	defer l.mu.RUnlock()
	cp := make(map[string]*pointcloud.PointCloud, len(l.cloudCache))
	for k, v := range l.cloudCache {
		cp[k] = v
	}
	return cp
}

func (l *loader) Evict(name string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.cloudCache, name)
}

func (l *loader) store(name string, cloud *pointcloud.PointCloud) {
	if !l.cacheEnabled {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cloudCache[name] = cloud
}
