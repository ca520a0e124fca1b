package services

import (
	"fmt"
	"sync"
	"time"
)

const commentNamePrefix = "comment_"

// commentNamer hands out comment_{millis} names. Names never repeat within
// the process, even when two comments arrive in the same millisecond.
type commentNamer struct {
	mu   sync.Mutex
	last int64
	now  func() time.Time
}

var defaultCommentNamer = &commentNamer{now: time.Now}

func (n *commentNamer) next() string {
	n.mu.Lock()
	defer n.mu.Unlock()

	ms := n.now().UnixMilli()
	if ms <= n.last {
		ms = n.last + 1
	}
	n.last = ms
	return fmt.Sprintf("%s%d", commentNamePrefix, ms)
}
