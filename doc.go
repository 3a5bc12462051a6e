// Package gorawrstash assembles an in-process binary cache, its gRPC service
// surface, and a middleware stack into a single composable server.
//
// The cache itself lives in the engine package and can be embedded without
// any of the server machinery:
//
//	c := engine.New()
//	defer c.Close()
//	c.Set("greeting", []byte("rawr"), time.Minute)
//
// NewServer wires the engine behind the rawr.Stash gRPC service alongside
// health checking, Prometheus metrics, and the configured interceptors:
//
//	srv := gorawrstash.NewServer(
//		gorawrstash.WithRecovery(),
//		gorawrstash.WithRateLimitGlobal(500, 100),
//		gorawrstash.WithMetrics(prometheus.NewRegistry()),
//	)
//	lis, _ := net.Listen("tcp", ":7420")
//	srv.Serve(lis)
package gorawrstash
