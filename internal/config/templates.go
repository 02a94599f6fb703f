package config

import (
	"fmt"
	"os"
	"strings"
)

func Template(kind string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "upstream":
		return upstreamTemplate, nil
	case "downstream":
		return downstreamTemplate, nil
	default:
		return "", fmt.Errorf("unknown config kind: %s", kind)
	}
}

func WriteTemplate(path, kind string, overwrite bool) error {
	template, err := Template(kind)
	if err != nil {
		return err
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(template), 0o600)
}

const upstreamTemplate = `name = "pool-upstream"

# flags lists the features this upstream requires of its peers:
# requires_standard_job, requires_version_rolling, requires_work_selection
[[protocols]]
name = "mining"
min_version = 2
max_version = 2
flags = ["requires_version_rolling"]

[[protocols]]
name = "job-declaration"
min_version = 2
max_version = 2
flags = []
`

const downstreamTemplate = `protocol = "mining"
min_version = 2
max_version = 2
flags = ["requires_version_rolling"]
endpoint_host = "0.0.0.0"
endpoint_port = 3336

[device]
vendor = "Bitmain"
hardware_version = "901"
firmware = "abcX"
device_id = "89a1-9412"
`
