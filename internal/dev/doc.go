// Package dev provides the development server.
//
// The server answers every GET under the project root by reading the file,
// running it through the transform pipeline and writing the result, so the
// browser loads native ES modules straight from source. Alongside it run:
//
//   - Watcher: fsnotify on the project root, settled into change, add and
//     unlink events
//   - Dispatcher: turns each change into an update or full-reload message
//   - Channel: the WebSocket every open page connects to
//   - Optimizer: pre-bundles bare imports once at startup
//
// An errgroup supervises them; the first failure or a cancelled context
// stops all of them.
//
// # Usage
//
//	srv, err := dev.NewServer(dev.ServerOptions{Config: cfg, Logger: logger})
//	if err != nil {
//	    return err
//	}
//	return srv.Start(ctx)
//
// # Routes
//
//	/@myvite/ws        update channel
//	/@myvite/metrics   Prometheus metrics
//	/@myvite/client.js browser runtime
//	server.proxy keys  reverse-proxied upstreams
//	/*                 transformed project files, then public/
//
// Setting server.hmr to false in the config turns every change into a full
// reload.
package dev
