package ch

import (
	"os"
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/ClickHouse/clickhouse-go/v2"
)

// BuildClientInfo returns a ClientInfo describing this process and role so
// system.query_log can tell merge runs apart; role examples: "vqa-merge", "vqa-verify"
func BuildClientInfo(role, tag string) clickhouse.ClientInfo {
	host, _ := os.Hostname()

	type kv = struct{ Name, Version string }

	products := []kv{
		{Name: "vqamerge", Version: strings.TrimSpace(tag)},
		{Name: "role", Version: strings.TrimSpace(role)},
		{Name: "go", Version: runtime.Version()},
		{Name: "commit", Version: vcsShortSHA()},
		{Name: "host", Version: strings.TrimSpace(host)},
	}

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
