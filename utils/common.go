package utils

import (
	"fmt"
	"time"
)

// TimeTrack logs the time elapsed since start. Meant to be deferred at
// the top of the measured function.
func TimeTrack(start time.Time, name string) {
	fmt.Printf("%s took %s\n", name, time.Since(start))
}

// VerbosePrint is fmt.Printf gated behind the -verbose flag.
func VerbosePrint(format string, a ...interface{}) (n int, err error) {
	if Opts().Verbose() {
		return fmt.Printf(format, a...)
	}
	return 0, nil
}
