package cache

import (
	"fmt"
	"time"
)

// TTLs per key class. Post pages churn fast, profiles change rarely.
const (
	PostTTL     = 2 * time.Minute
	PostListTTL = 30 * time.Second
	ProfileTTL  = 5 * time.Minute
)

// PostKey is the cache key for a single post with its author.
func PostKey(postID uint) string {
	return fmt.Sprintf("post:%d", postID)
}

// PostListKey is the cache key for a page of the public feed.
func PostListKey(page, perPage int) string {
	return fmt.Sprintf("posts:page:%d:%d", page, perPage)
}

// PostListPattern matches every cached feed page.
func PostListPattern() string {
	return "posts:page:*"
}

// AuthorPostsKey is the cache key for a page of one author's posts.
func AuthorPostsKey(username string, page, perPage int) string {
	return fmt.Sprintf("posts:author:%s:%d:%d", username, page, perPage)
}

// AuthorPostsPattern matches every cached page of the author's posts.
func AuthorPostsPattern(username string) string {
	return fmt.Sprintf("posts:author:%s:*", username)
}

// ProfileKey is the cache key for a user's profile.
func ProfileKey(userID uint) string {
	return fmt.Sprintf("profile:%d", userID)
}
