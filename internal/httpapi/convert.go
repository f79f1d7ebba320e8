package httpapi

import (
	"errors"
	"net/url"
	"strconv"
	"strings"

	"github.com/BrandonDHaskell/checkin/internal/checkin/store"
)

// eventQueryFromURL parses ?after=&identifier=&limit=.  Limits above the
// maximum are clamped by the store.
func eventQueryFromURL(v url.Values) (store.EventQuery, error) {
	var q store.EventQuery

	if s := strings.TrimSpace(v.Get("after")); s != "" {
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil || n < 0 {
			return store.EventQuery{}, errors.New("after must be a non-negative integer")
		}
		q.AfterSequence = n
	}
	if s := strings.TrimSpace(v.Get("limit")); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			return store.EventQuery{}, errors.New("limit must be a positive integer")
		}
		q.Limit = n
	}
	q.Identifier = v.Get("identifier")

	return q, nil
}
