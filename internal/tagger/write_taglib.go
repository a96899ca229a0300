// file: internal/tagger/write_taglib.go
// version: 1.0.0
// guid: c81e4f27-9b3a-4d6e-8f12-5a0b7d3e6c94

package tagger

import (
	"fmt"

	"go.senan.xyz/taglib"
)

// writeTaglib writes through TagLib's property map. Without the Clear option
// TagLib only replaces the keys present in the map.
func writeTaglib(path string, fields []Field) error {
	props := make(map[string][]string, len(fields))
	for _, f := range fields {
		props[f.Name] = []string{f.Value}
	}
	if err := taglib.WriteTags(path, props, 0); err != nil {
		return fmt.Errorf("taglib write: %w", err)
	}
	return nil
}
