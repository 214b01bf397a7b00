package mailbox

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// newMessageID builds a message id of the form
// <unixMillis>::<recipientDid>::<uuid>. The millisecond prefix keeps ids
// ordered by arrival per recipient; the uuid suffix makes two submissions
// inside the same millisecond unable to collide.
func newMessageID(now time.Time, recipientDID string) string {
	return fmt.Sprintf("%d::%s::%s", now.UnixMilli(), recipientDID, uuid.NewString())
}
