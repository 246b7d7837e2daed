// Package clientdist embeds the browser HMR runtime.
package clientdist

import _ "embed"

// RuntimeJS is the HMR state machine. It declares createHMRRuntime and has
// no browser dependencies of its own.
//
//go:embed runtime.js
var RuntimeJS []byte

// ClientJS is the browser entry that connects the runtime to the page.
//
//go:embed client.js
var ClientJS []byte

// ClientModule returns the module served at "/@myvite/client.js".
func ClientModule() []byte {
	out := make([]byte, 0, len(RuntimeJS)+len(ClientJS)+1)
	out = append(out, RuntimeJS...)
	out = append(out, '\n')
	out = append(out, ClientJS...)
	return out
}
