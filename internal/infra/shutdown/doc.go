// Package shutdown runs cleanup hooks when the process is asked to stop.
//
// The interactive shell registers hooks (close the credential store, flush
// the metrics textfile) and then either waits for SIGINT/SIGTERM or runs
// the hooks itself when the user exits normally:
//
//	h := shutdown.NewHandler(5 * time.Second)
//	h.OnShutdown(closeStore)
//	go h.Wait(ctx)
//	...
//	h.Run()
package shutdown
