// Package state provides thread-safe upload progress tracking for the viswiz
// CLI.
//
// # Overview
//
// The Store is the coordination point between the upload workers, which
// report progress through viswiz.ProgressFunc, and the renderer that draws a
// progress bar or prints percentage lines.
//
//	Producer (uploads):            Consumer (renderer):
//	store.Start(total)             snap := store.Snapshot()
//	store.Advance(done, total)     draw(snap.Percent(), snap.Remaining(now))
//	store.Finish(err)
//
// # Concurrency Model
//
// Writers take the write lock; Snapshot takes the read lock and returns a
// copy, so renderers never observe a torn update. The error is re-wrapped on
// every Snapshot and still matches errors.Is.
//
// Advance ignores updates that would move progress backwards.
//
// # Testing Considerations
//
// The zero Store is ready to use. Set Store.Now to control the clock when
// asserting on Elapsed and Remaining.
package state
