// Package runtime starts a package's entry file in a child process. The
// launcher is chosen from the entry's extension. JavaScript entries are
// loaded by a fixed node program that calls the module's exported function
// with the invocation; anything else is executed directly and receives
// `run <descriptor>` on its command line.
package runtime
