// Package shard assigns group chats across co-running bot instances.
//
// Each instance is started with a zero-based index and the total number of
// live instances. A non-private chat is owned by exactly one instance; the
// assignment is recomputed per message so a changed token list takes effect
// without restarts.
package shard

// Owns reports whether the instance at index owns the given chat. With a
// single instance (or a non-positive total) every chat is owned.
func Owns(chatID int64, total, index int) bool {
	if total <= 1 {
		return true
	}
	h := chatID
	if h < 0 {
		h = -h
	}
	return int(h%int64(total)) == index
}
