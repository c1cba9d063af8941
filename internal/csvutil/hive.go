// Package csvutil provides CSV round-trip helpers built on encoding/csv
// plus hive-style partition path encode/decode.
package csvutil

import (
	"fmt"
	"strings"
)

// HivePath encodes an ordered list of partition key/value pairs followed by
// a file name into a hive-style blob key: "k1=v1/k2=v2/.../file".
func HivePath(pairs [][2]string, file string) string {
	var b strings.Builder
	for _, kv := range pairs {
		fmt.Fprintf(&b, "%s=%s/", kv[0], kv[1])
	}
	b.WriteString(file)
	return b.String()
}

// ParseHivePath decodes a hive-style key back into its ordered partition
// key/value pairs and trailing file name. It is the inverse of HivePath:
// ParseHivePath(HivePath(pairs, file)) == (pairs, file) for any valid input.
func ParseHivePath(key string) (pairs [][2]string, file string, err error) {
	segments := strings.Split(key, "/")
	if len(segments) == 0 {
		return nil, "", fmt.Errorf("empty hive path")
	}
	file = segments[len(segments)-1]
	for _, seg := range segments[:len(segments)-1] {
		kv := strings.SplitN(seg, "=", 2)
		if len(kv) != 2 {
			return nil, "", fmt.Errorf("invalid hive partition segment %q", seg)
		}
		pairs = append(pairs, [2]string{kv[0], kv[1]})
	}
	return pairs, file, nil
}

// PartitionValue returns the value of the named partition key within pairs,
// or ("", false) if absent.
func PartitionValue(pairs [][2]string, key string) (string, bool) {
	for _, kv := range pairs {
		if kv[0] == key {
			return kv[1], true
		}
	}
	return "", false
}
