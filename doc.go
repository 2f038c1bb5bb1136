// Package edt provides an event-driven task runtime.
//
// Work is expressed as tasks: Go functions bound to a parameter vector and a
// fixed number of dependency slots. A task becomes runnable once every slot
// is satisfied, is handed to a work-stealing scheduler and runs on one of a
// fixed pool of worker goroutines. Task parameters and data blocks live in a
// first-fit pool allocator carved out of a tagged memory arena.
//
// End-users typically interact with the runtime through the Runtime facade:
//
//	rt, _ := edt.New(edt.WithConfig(cfg))
//	_ = rt.Start(ctx)
//	tmpl, _ := rt.CreateTemplate("hello", hello, 0, 0)
//	_, _ = rt.CreateTask(ctx, tmpl)
//	_ = rt.Wait(ctx, time.Minute)
//	_ = rt.Shutdown(ctx)
//
// Inside a task, policy.FromContext returns the domain to create further
// tasks with.
package edt
