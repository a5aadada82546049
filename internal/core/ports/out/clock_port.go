package out

import "time"

type ClockPort interface {
	Now() time.Time
}
