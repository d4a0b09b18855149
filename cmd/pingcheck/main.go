// Command pingcheck dials a remote address and exits 0 if it answers a
// ping correctly, non-zero otherwise.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/gorevive/gorevive/pingclient"
)

func main() {
	addr := flag.String("addr", "127.0.0.1", "remote address to ping")
	port := flag.Int("port", 7, "remote port to ping")
	flag.Parse()

	svc := pingclient.NewService(*addr, *port)
	if err := svc.CheckRemoteIsAlive(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
