package emitter

import (
	"fmt"

	tarm "github.com/tarm/serial"
	gobug "go.bug.st/serial"
)

// StopBits is the stop bit count as written in configuration (1, 1.5 or 2).
type StopBits float64

const (
	// StopBits1 represents 1 stop bit
	StopBits1 StopBits = 1
	// StopBits1Half represents 1.5 stop bits
	StopBits1Half StopBits = 1.5
	// StopBits2 represents 2 stop bits
	StopBits2 StopBits = 2
)

func (sb StopBits) Valid() bool {
	return sb == StopBits1 || sb == StopBits1Half || sb == StopBits2
}

func (sb StopBits) Bugst() gobug.StopBits {
	switch sb {
	case StopBits1Half:
		return gobug.OnePointFiveStopBits
	case StopBits2:
		return gobug.TwoStopBits
	default:
		return gobug.OneStopBit
	}
}

func (sb StopBits) Tarm() tarm.StopBits {
	switch sb {
	case StopBits1Half:
		return tarm.Stop1Half
	case StopBits2:
		return tarm.Stop2
	default:
		return tarm.Stop1
	}
}

func (sb StopBits) String() string {
	return fmt.Sprintf("%g", float64(sb))
}
