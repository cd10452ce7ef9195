package main

import (
	"flag"
	"fmt"
	"os"

	"hoaportal/pkg/logger"
	"hoaportal/pkg/store"
)

// Dumps store keys under a prefix for debugging. Run against a stopped
// server; pebble takes an exclusive lock on the database directory.
func main() {
	var (
		dbPath = flag.String("db", "./.database", "store path")
		prefix = flag.String("prefix", "", "key prefix to list (e.g. owner:, session:, account:)")
		values = flag.Bool("values", false, "print values as well as keys")
	)
	flag.Parse()
	logger.Init("warn")

	if err := store.Open(*dbPath); err != nil {
		fmt.Fprintf(os.Stderr, "failed to open store at %s: %v\n", *dbPath, err)
		os.Exit(1)
	}
	defer store.Close()

	keys, err := store.ListKeys(*prefix)
	if err != nil {
		fmt.Fprintf(os.Stderr, "list failed: %v\n", err)
		os.Exit(1)
	}
	for _, k := range keys {
		if !*values {
			fmt.Println(k)
			continue
		}
		v, err := store.GetKey(k)
		if err != nil {
			fmt.Printf("%s\t<unreadable: %v>\n", k, err)
			continue
		}
		fmt.Printf("%s\t%s\n", k, v)
	}
	fmt.Fprintf(os.Stderr, "%d keys\n", len(keys))
}
