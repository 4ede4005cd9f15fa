/*
Package function exposes the record store and command channel to callers of a
Tarmac WebAssembly function.

Handle takes a JSON request naming an operation and returns a JSON response:

	{"op":"set","id":"session","value":{"year":"2017"}}
	{"ok":true}

	{"op":"get","id":"session"}
	{"ok":true,"found":true,"record":{"year":"2017"}}

	{"op":"fire","command":"reload"}
	{"ok":true}

Supported operations are get, set, del, omit, has, count, ids, remove,
remove_all and fire. Failed operations answer with "ok":false and an error
message.
*/
package function
