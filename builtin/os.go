package builtin

import (
	"math"
	"os"
	"runtime"

	"github.com/ckl-lang/ckl/value"
)

// osBuiltins binds OS/runtime constants directly rather than as
// callables: PI/E, path/line/field separators, and host platform info.
func osBuiltins() []entry {
	return []entry{
		{Name: "PI", Value: value.NewDecimal(math.Pi)},
		{Name: "E", Value: value.NewDecimal(math.E)},
		{Name: "PS", Value: value.NewString(string(os.PathSeparator))},
		{Name: "LS", Value: value.NewString(lineSeparator())},
		{Name: "FS", Value: value.NewString(string(os.PathListSeparator))},
		{Name: "OS_NAME", Value: value.NewString(osName())},
		{Name: "OS_VERSION", Value: value.NewString(osVersion())},
		{Name: "OS_ARCH", Value: value.NewString(osArch())},
	}
}

func lineSeparator() string {
	if runtime.GOOS == "windows" {
		return "\r\n"
	}
	return "\n"
}

func osName() string {
	switch runtime.GOOS {
	case "linux":
		return "Linux"
	case "darwin":
		return "Darwin"
	case "windows":
		return "Windows"
	default:
		return "Unknown"
	}
}

// osVersion has no portable Go stdlib equivalent to Python's
// platform.release(); runtime.GOOS is the best cross-platform fallback
// short of shelling out to `uname -r`.
func osVersion() string {
	if v, ok := os.LookupEnv("CKL_OS_VERSION"); ok {
		return v
	}
	return runtime.GOOS
}

func osArch() string {
	switch runtime.GOARCH {
	case "amd64":
		return "amd64"
	case "386":
		return "x86"
	default:
		return "Unknown"
	}
}
