// Package shutdown coordinates graceful termination of toptube-server.
//
// A Handler waits for SIGINT, SIGTERM, a programmatic Trigger or the
// cancellation of a parent context, then runs the registered hooks in
// reverse registration order under a shared deadline:
//
//	h := shutdown.NewHandler(15 * time.Second)
//	h.OnShutdown("storage", engine.Close)
//	h.OnShutdown("http", srv.Shutdown)
//	if err := h.Wait(ctx); err != nil {
//		log.Error("shutdown", "error", err)
//	}
package shutdown
