/*
Package runner drives an interactive conversation over pluggable I/O.

A Runner reads a line from its IOHandler, hands it to a Responder and
writes the answer back, until the input ends or the user types exit.
TextHandler serves terminals and pipes; JSONHandler speaks JSON lines for
scripted clients. The package also owns input sanitization, which every
entry point applies before a message reaches the router.

# Usage

	r := runner.New(responder,
		runner.WithSessionID("cli"),
		runner.WithHandler(runner.NewTextHandler(os.Stdin, os.Stdout)),
	)

	if err := r.Run(ctx); err != nil {
		log.Fatal(err)
	}
*/
package runner
