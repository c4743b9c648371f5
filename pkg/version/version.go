package version

import (
	"encoding/json"
	"runtime/debug"
)

type Info struct {
	Commit    string `json:"commit"`
	Time      string `json:"time"`
	Modified  bool   `json:"modified,omitempty"`
	GoVersion string `json:"goVersion"`
}

// Current is read from the vcs settings stamped in by go build.
var Current = read()

func read() Info {
	v := Info{}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return v
	}
	v.GoVersion = info.GoVersion
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			v.Commit = setting.Value
		case "vcs.time":
			v.Time = setting.Value
		case "vcs.modified":
			v.Modified = setting.Value == "true"
		}
	}
	return v
}

func (i Info) String() string {
	b, err := json.Marshal(i)
	if err != nil {
		return "{}"
	}
	return string(b)
}
