// Command tinydb is an interactive shell over the storage and SQL
// layers: it reads one statement per line, lexes and parses it, and
// executes it against a single open database file.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"

	"tinydb/internal/config"
	"tinydb/internal/dberr"
	"tinydb/internal/engine"
	"tinydb/internal/log"
	"tinydb/internal/sql/executor"
	"tinydb/internal/sql/parser"
	"tinydb/internal/storage"
)

var (
	version = "0.1.0"
)

func main() {
	var (
		configFile = flag.String("config", "", "Path to configuration file")
		dataDir    = flag.String("data", ".", "Data directory")
		logLevel   = flag.String("log-level", "warn", "Log level (debug, info, warn, error)")
	)
	flag.Parse()

	var cfg *config.Config
	if *configFile != "" {
		var err error
		cfg, err = config.LoadFromFile(*configFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to load config file: %v\n", err)
			os.Exit(1)
		}
	} else {
		cfg = config.DefaultConfig()
	}
	cfg.LoadFromFlags(*dataDir, *logLevel)

	if dbFile := flag.Arg(0); dbFile != "" {
		cfg.Storage.DatabaseFile = dbFile
	}

	log.SetDefault(log.NewTextLogger(log.ParseLevel(cfg.LogLevel)))

	eng, initErr := openEngine(cfg)
	if initErr != nil {
		fmt.Fprintf(os.Stderr, "tinydb: %v\n", initErr)
		os.Exit(1)
	}
	defer eng.Close()

	fmt.Printf("tinydb %s (%s)\n", version, cfg.GetDatabasePath())
	fmt.Println(`type "help" for the statement grammar, "quit" to exit`)
	runREPL(eng)
}

// openEngine opens the engine under a panic/recover boundary: a
// fatalIOError from the disk layer becomes an ordinary error here
// instead of crashing the process, but any other panic (a genuine
// bug) keeps propagating.
func openEngine(cfg *config.Config) (eng *engine.Engine, err error) {
	defer func() {
		if r := recover(); r != nil {
			if ioErr, ok := storage.AsFatalIOError(r); ok {
				err = fmt.Errorf("fatal disk error during startup: %w", ioErr)
				return
			}
			panic(r)
		}
	}()
	return engine.Open(cfg)
}

func runREPL(eng *engine.Engine) {
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("tinydb> ")
		if !scanner.Scan() {
			fmt.Println()
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		switch strings.ToLower(strings.TrimSuffix(line, ";")) {
		case "quit", "exit":
			return
		case "help":
			printHelp()
			continue
		}

		if !execLine(eng, line) {
			// a fatalIOError surfaced from the storage layer; the
			// database file may now be unusable, so stop the shell
			// rather than keep issuing statements against it.
			os.Exit(1)
		}
	}
}

// execLine runs one statement under the same panic/recover boundary as
// startup. It returns false if a fatal disk error occurred.
func execLine(eng *engine.Engine, line string) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			if ioErr, ok2 := storage.AsFatalIOError(r); ok2 {
				fmt.Fprintf(os.Stderr, "tinydb: fatal disk error: %v\n", ioErr)
				ok = false
				return
			}
			panic(r)
		}
	}()

	stmt, err := parser.New(line).Parse()
	if err != nil {
		printError(err)
		return true
	}

	result, err := eng.Executor.Execute(stmt)
	if err != nil {
		printError(err)
		return true
	}
	printResult(result)
	return true
}

func printResult(r *executor.Result) {
	if r.Columns == nil {
		fmt.Printf("OK (%d row(s) affected)\n", r.RowsAffected)
		return
	}
	fmt.Println(strings.Join(r.Columns, "\t"))
	for _, row := range r.Rows {
		fmt.Println(strings.Join(row, "\t"))
	}
	fmt.Printf("(%d row(s))\n", len(r.Rows))
}

func printError(err error) {
	if dbErr, ok := err.(*dberr.Error); ok {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", dbErr.Error())
		return
	}
	fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
}

func printHelp() {
	fmt.Println(`statements:
  CREATE TABLE name (col TYPE [NOT NULL], ...)
  INSERT INTO name VALUES (literal, ...)
  SELECT * FROM name [WHERE col = literal]
  DELETE FROM name [WHERE col = literal]
  UPDATE name SET col = literal [WHERE col = literal]

types: INTEGER, VARCHAR(n)
shell commands: help, quit, exit`)
}
