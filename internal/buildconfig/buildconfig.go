package buildconfig

import "fmt"

// Set via -ldflags "-X github.com/Harshitk-cp/factstore/internal/buildconfig.version=..."
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

type Info struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
}

func Version() string {
	return version
}

func Get() Info {
	return Info{Version: version, Commit: commit, Date: date}
}

func (i Info) String() string {
	return fmt.Sprintf("%s (commit %s, built %s)", i.Version, i.Commit, i.Date)
}
