// Package router assembles the full routing stack from a configuration:
// credential pool, rotation strategy, compressor, provider invoker, usage
// collector, and the optional journal, metrics, and tracing sinks.
//
// Router is the programmatic entry point. The HTTP layer in pkg/server and
// the CLI in cmd/ganymede are thin wrappers over it:
//
//	cfg, err := config.LoadConfig("ganymede.yaml")
//	if err != nil {
//		log.Fatal(err)
//	}
//	rt, err := router.New(cfg, router.Options{})
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer rt.Close(context.Background())
//
//	result := rt.Route(ctx, &dispatch.Request{
//		Provider: "openai",
//		Model:    "gpt-4",
//		Messages: messages,
//	})
//
// Route never returns an error; inspect Result.Success and Result.Error.
package router
