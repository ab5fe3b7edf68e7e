// Package compose invokes an external docker-compose-compatible CLI as
// a subprocess, the same way the platform's original implementation
// did: a base service spec plus zero or more overlays are deep-merged
// in process into one document, each document handed to the CLI is
// rendered to its own anonymous pipe, and the compose CLI is invoked
// with one --file /proc/self/fd/N flag per rendered document so no
// plaintext spec ever touches a named file on disk.
package compose
