package safe

import (
	"sparrow/logger"
)

// Go starts a goroutine that recovers from panic, so a panicking
// background task cannot take the process down with it.
func Go(f func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Errorf("[safe.Go] panic recovered: %v", r)
			}
		}()
		f()
	}()
}
