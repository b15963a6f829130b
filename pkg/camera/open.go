package camera

import "fmt"

// Source kinds accepted by Open.
const (
	KindDevice = "device"
	KindDir    = "dir"
)

// Open creates the source of the given kind.
func Open(kind string, cfg Config) (Source, error) {
	switch kind {
	case "", KindDevice:
		return OpenDevice(cfg)
	case KindDir:
		if cfg.Dir == "" {
			return nil, fmt.Errorf("camera: dir source needs a directory")
		}
		return OpenDir(cfg.Dir, cfg.Loop)
	default:
		return nil, fmt.Errorf("camera: unknown source %q", kind)
	}
}
