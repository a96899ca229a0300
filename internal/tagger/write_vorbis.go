// file: internal/tagger/write_vorbis.go
// version: 1.0.0
// guid: 6a2d8c31-3e9f-4b05-a1c4-7e58d0b9f2a6

package tagger

import (
	"fmt"
	"strings"

	"github.com/go-flac/flacvorbis"
	"github.com/go-flac/go-flac"
)

// writeVorbis updates the Vorbis comment block of a FLAC file. Comments for
// the written keys are replaced; every other comment is kept.
func writeVorbis(path string, fields []Field) error {
	f, err := flac.ParseFile(path)
	if err != nil {
		return fmt.Errorf("parse file: %w", err)
	}

	cmtIdx := -1
	var cmts *flacvorbis.MetaDataBlockVorbisComment
	for i, meta := range f.Meta {
		if meta.Type == flac.VorbisComment {
			cmts, err = flacvorbis.ParseFromMetaDataBlock(*meta)
			if err != nil {
				return fmt.Errorf("parse vorbis comment: %w", err)
			}
			cmtIdx = i
			break
		}
	}
	if cmts == nil {
		cmts = flacvorbis.New()
	}

	cmts.Comments = replaceComments(cmts.Comments, fields)

	block := cmts.Marshal()
	if cmtIdx >= 0 {
		f.Meta[cmtIdx] = &block
	} else {
		f.Meta = append(f.Meta, &block)
	}

	if err := f.Save(path); err != nil {
		return fmt.Errorf("save file: %w", err)
	}
	return nil
}

// replaceComments drops KEY=value entries whose key is being written, then
// appends the new values. Keys compare case-insensitively.
func replaceComments(existing []string, fields []Field) []string {
	written := make(map[string]bool, len(fields))
	for _, f := range fields {
		written[strings.ToUpper(f.Name)] = true
	}

	out := make([]string, 0, len(existing)+len(fields))
	for _, c := range existing {
		key, _, _ := strings.Cut(c, "=")
		if written[strings.ToUpper(key)] {
			continue
		}
		out = append(out, c)
	}
	for _, f := range fields {
		out = append(out, f.Name+"="+f.Value)
	}
	return out
}
