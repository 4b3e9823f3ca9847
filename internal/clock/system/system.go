// Package system provides the wall-clock implementation of crawler.Clock.
package system

import "time"

// Clock reads the system wall clock.
type Clock struct{}

// Now returns the current time.
func (Clock) Now() time.Time {
	return time.Now()
}
