package shader

import (
	"embed"
	"fmt"
)

//go:embed assets/*.wgsl
var assets embed.FS

// PointCommonSource holds the vertex output struct and the footprint helpers shared by both
// point storage variants. Shaders pull it in with "#include point_common".
//
//go:embed assets/point_common.wgsl
var PointCommonSource string

var builtinIncludes = map[string]string{
	"point_common": PointCommonSource,
}

// Asset returns the embedded WGSL file with the given name.
//
// Parameters:
//   - name: the file name within assets/
//
// Returns:
//   - string: the file contents
//   - error: an error if no such asset exists
func Asset(name string) (string, error) {
	data, err := assets.ReadFile("assets/" + name)
	if err != nil {
		return "", fmt.Errorf("shader asset %q: %w", name, err)
	}
	return string(data), nil
}
