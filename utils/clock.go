package utils

import "time"

// Clock tách "now" ra khỏi logic để scheduler test được với mốc thời gian bất kỳ.
type Clock interface {
	Now() time.Time
}

type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

// FixedClock dùng trong test: Now trả về đúng mốc được gán.
type FixedClock struct {
	T time.Time
}

func (f FixedClock) Now() time.Time { return f.T }
