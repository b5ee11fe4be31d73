// Package cli implements blogctl, the command-line admin client for the blog.
//
// Every subcommand is built by a NewXxxCommand constructor and shares one
// App, created in the root command's PersistentPreRunE from the resolved
// configuration. Read commands (list, show) refresh the local SQLite cache
// and fall back to it when the server cannot be reached; write commands
// always go to the server and require a prior login.
package cli
