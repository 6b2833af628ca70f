// Package cotask is a cooperative task-execution framework.  It runs long,
// potentially expensive computations without monopolising the host, exposes
// their live progress as a tree, and supports reason-carrying, cooperative
// cancellation.
//
// A computation is described once as a Task and executed through the driver:
//
//	task := execution.NewTask("import", func(ctx *execution.Context) (int, error) {
//		...
//	})
//	result, err := cotask.Run(context.Background(), task,
//		cotask.WithObserver(func(p *progress.Progress) {
//			fmt.Println(p.Snapshot().Message)
//		}))
//
// Inside the computation the execution context is the only channel back to
// the framework: ctx.Update reports progress and passes a checkpoint,
// execution.RunChild spawns nested tasks that compose into the progress
// tree, and scheduler.ChunkedSubtask turns a long loop into bounded chunks
// with a checkpoint between each.  Cancellation is cooperative: an observer
// calls RequestAbort and the run terminates at the computation's next
// checkpoint with an Aborted error, never by interrupting arbitrary code.
package cotask
