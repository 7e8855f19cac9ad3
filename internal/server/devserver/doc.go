// Package devserver serves the project root during development.
//
// Plugins customize the server through the plugin.Server surface: they add
// middleware, choose the opening path and register directories to watch.
// Static files are served with http.ServeContent so that paths ending in
// index.html are never canonicalised by a redirect, which would undo the
// rewrites performed by the multipage middleware.
package devserver
