// Command platekit finds license plates in images and reads their text.
//
//	platekit detect car.jpg
//	platekit detect --preset conservative --out results/ --report report.html *.jpg
package main

import (
	"context"
	"os"
	"os/signal"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
