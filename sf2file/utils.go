package sf2file

import (
	"bytes"
)

// convertCstring converts a zero-terminated byte field, keeping everything
// when no terminator is present.
func convertCstring(data []byte) string {
	i := bytes.IndexByte(data, 0)
	if i == -1 {
		return string(data)
	}
	return string(data[:i])
}

// convertName converts a 20-byte record name field. The format caps names
// at 19 characters plus the terminator; some authoring tools fail to write
// the terminator, so the final byte is ignored either way.
func convertName(data []byte) string {
	return convertCstring(data[:19])
}
