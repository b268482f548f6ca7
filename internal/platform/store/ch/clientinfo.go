package ch

import (
	"os"
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/ClickHouse/clickhouse-go/v2"
)

// BuildClientInfo returns a ClientInfo describing this process, visible in
// system.query_log so snapshot inserts can be traced to a monitor host
func BuildClientInfo(role, version string) clickhouse.ClientInfo {
	host, _ := os.Hostname()

	type kv = struct{ Name, Version string }

	products := []kv{{Name: "rollcall", Version: orUnknown(version)}}
	if r := strings.TrimSpace(role); r != "" {
		products = append(products, kv{Name: "role", Version: r})
	}
	products = append(products,
		kv{Name: "go", Version: runtime.Version()},
		kv{Name: "commit", Version: vcsShortSHA()},
		kv{Name: "host", Version: orUnknown(host)},
	)
	return clickhouse.ClientInfo{Products: products}
}

func vcsShortSHA() string {
	if bi, ok := debug.ReadBuildInfo(); ok && bi != nil {
		for _, s := range bi.Settings {
			if s.Key == "vcs.revision" && len(s.Value) >= 7 {
				return s.Value[:7]
			}
		}
	}
	return "unknown"
}

func orUnknown(s string) string {
	if s = strings.TrimSpace(s); s == "" {
		return "unknown"
	}
	return s
}
