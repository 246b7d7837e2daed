// Package hmr implements the server side of hot module replacement.
//
// A Registry records which URL each served file was delivered under. A
// Classifier fingerprints the compiled parts of component files so that a
// save can be narrowed to the parts that actually changed. The Dispatcher
// turns filesystem change events into update messages, and the Channel
// delivers them to every connected browser.
//
// Decisions for a change event, in priority order:
//
//  1. The file was never served: full reload.
//  2. Stylesheet: update its registered URL.
//  3. Component: update the script URL when script or template changed,
//     the style variant URL when only style changed, nothing otherwise.
//  4. Anything else: full reload.
package hmr
