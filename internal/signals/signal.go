package signals

import (
	"os"
	"os/signal"
	"syscall"
)

// SetupSignalHandler returns a channel closed on the first SIGTERM or SIGINT.
// A second signal exits the process right away.
func SetupSignalHandler() <-chan struct{} {
	stop := make(chan struct{})
	terminate := make(chan os.Signal, 2)
	signal.Notify(terminate, syscall.SIGTERM, os.Interrupt)

	go func() {
		<-terminate
		close(stop)
		<-terminate
		os.Exit(1)
	}()

	return stop
}
