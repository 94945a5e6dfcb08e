// Package watcher streams debounced file system events for a workspace.
//
// Events come from fsnotify, are filtered against the workspace ignore files
// (.gitignore, .rooignore) and coalesced per path inside a short window so an
// editor's save storm becomes one event.
//
//	w, err := watcher.New(watcher.DefaultOptions())
//	if err != nil {
//	    return err
//	}
//	defer w.Stop()
//
//	go func() { _ = w.Start(ctx, root) }()
//	for batch := range w.Events() {
//	    for _, ev := range batch {
//	        // ev.Operation is OpCreate, OpModify, OpDelete or OpIgnoreChange
//	    }
//	}
package watcher
