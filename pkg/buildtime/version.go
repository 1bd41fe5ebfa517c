package buildtime

// Set with -ldflags, for example
//
//	-X github.com/youwol/backends/pkg/buildtime.version=1.2.0
//	-X github.com/youwol/backends/pkg/buildtime.revision=$(git rev-parse --short HEAD)
var (
	version  = "dev"
	revision = "unknown"
)

func Version() string {
	return version
}

func Revision() string {
	return revision
}

func VersionString() string {
	return version + " (commit: " + revision + ")"
}
