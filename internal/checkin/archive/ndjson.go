package archive

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path"
	"strconv"
	"strings"

	"github.com/BrandonDHaskell/checkin/internal/checkin/types"
)

// EncodeNDJSON writes one JSON object per line.
func EncodeNDJSON(events []types.AccessEvent) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, ev := range events {
		if err := enc.Encode(ev); err != nil {
			return nil, fmt.Errorf("encode seq %d: %w", ev.Sequence, err)
		}
	}
	return buf.Bytes(), nil
}

// ObjectKey names a page by its sequence range.  Zero padding keeps
// lexical and numeric order the same.
func ObjectKey(prefix string, first, last int64) string {
	return path.Join(prefix, fmt.Sprintf("%020d-%020d.ndjson", first, last))
}

// LastSequence extracts the upper bound from a key built by ObjectKey.
func LastSequence(key string) (int64, bool) {
	base := strings.TrimSuffix(path.Base(key), ".ndjson")
	_, last, ok := strings.Cut(base, "-")
	if !ok || len(last) != 20 {
		return 0, false
	}
	n, err := strconv.ParseInt(last, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
