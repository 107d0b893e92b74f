package cache

import (
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Keys builds namespaced cache keys.
type Keys struct{ Prefix string }

func (k Keys) PostViews(postID int64) string {
	return k.Prefix + "post:views:" + strconv.FormatInt(postID, 10)
}

// PostViewsPattern matches every key produced by PostViews.
func (k Keys) PostViewsPattern() string { return k.Prefix + "post:views:*" }

// PostIDFromViews extracts the post id from a PostViews key.
func (k Keys) PostIDFromViews(key string) (int64, bool) {
	raw, ok := strings.CutPrefix(key, k.Prefix+"post:views:")
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func (k Keys) Followers(authorID uuid.UUID) string {
	return k.Prefix + "author:followers:" + authorID.String()
}
