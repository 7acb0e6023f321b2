// annotserver answers identifier lookups over HTTP from an annotation file,
// a lazily read annotation file, or a snapshot stored in SQLite.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"

	"github.com/carbocation/exprannot/annotation"
	"github.com/carbocation/exprannot/ramcsv"
	"github.com/carbocation/exprannot/translator"
	"github.com/carbocation/pfx"
	"github.com/jmoiron/sqlx"

	_ "github.com/carbocation/exprannot/compileinfoprint"
	_ "modernc.org/sqlite" // pure go sqlite driver
)

var global *Global

type options struct {
	cfg    translator.Config
	fields string
	lazy   bool

	sqlite       string
	snapshot     string
	saveSnapshot string
}

func main() {
	errors := make(chan error, 1)
	sig := make(chan os.Signal, 1)
	signal.Notify(sig,
		os.Interrupt,
		syscall.SIGTERM,
		syscall.SIGUSR1,
	)

	var o options
	flag.StringVar(&o.cfg.Annotation, "annotation", "", "Delimited annotation file: identifier column, then annotation columns. May be gs:// or s3://.")
	flag.BoolVar(&o.cfg.Options.Header, "header", true, "The annotation file's first row names its columns.")
	flag.BoolVar(&o.cfg.Options.Trim, "trim", false, "Trim whitespace around annotation cells.")
	flag.StringVar(&o.cfg.Options.Charset, "charset", "", "Encoding of the annotation file, e.g. latin1. Default is UTF-8.")
	flag.StringVar(&o.cfg.DefaultField, "default-field", "", "Default annotation field. Default is the first annotation column.")
	flag.StringVar(&o.cfg.Join, "join", "", "Second annotation file, keyed by the values of -join-field.")
	flag.StringVar(&o.cfg.JoinField, "join-field", "", "Field of -annotation whose values are the identifiers of -join.")
	flag.BoolVar(&o.cfg.JoinOptions.Header, "join-header", true, "The -join file's first row names its columns.")
	flag.BoolVar(&o.cfg.Fallback, "fallback", false, "When a join finds nothing, answer with the primary annotation instead.")
	flag.StringVar(&o.cfg.Fasta, "fasta", "", "FASTA file of probe sequences.")
	flag.BoolVar(&o.cfg.Links, "links", false, "Add URL fields for well-known database identifiers.")
	flag.StringVar(&o.cfg.IdentifierField, "identifier-field", "", "If set, add a field with this name holding the identifier itself.")
	flag.StringVar(&o.fields, "fields", "", "Comma-delimited fields to serve. Default is all.")
	flag.BoolVar(&o.lazy, "lazy", false, "Index the annotation file instead of loading it. The file must be local or gs:// and uncompressed.")
	flag.StringVar(&o.sqlite, "sqlite", "", "SQLite database holding annotation snapshots.")
	flag.StringVar(&o.snapshot, "snapshot", "", "Serve the snapshot of this name from -sqlite instead of reading -annotation.")
	flag.StringVar(&o.saveSnapshot, "save-snapshot", "", "Store the built translator in -sqlite under this name before serving.")
	port := flag.Int("port", 9020, "Port for HTTP server")
	flag.Parse()

	if o.cfg.Annotation == "" && o.cfg.Fasta == "" && o.snapshot == "" {
		flag.PrintDefaults()
		return
	}
	o.cfg.Select = splitList(o.fields)

	logger := log.New(os.Stderr, log.Prefix(), log.Ldate|log.Ltime)
	o.cfg.Options.Logger = logger

	src, err := load(context.Background(), o)
	if err != nil {
		log.Fatalln(pfx.Err(err))
	}
	defer src.close()

	global = NewGlobal(src.translator, logger)
	if src.lazy != nil {
		global.reads = src.lazy
	}
	global.log.Println("Launching", global.Site, "with fields", src.translator.Fields())

	go func() {
		global.log.Println("Starting HTTP server on port", *port)
		if err := http.ListenAndServe(fmt.Sprintf(`:%d`, *port), router(global)); err != nil {
			errors <- err
			global.log.Println(err)
			sig <- syscall.SIGTERM
			return
		}
	}()

Outer:
	for {
		select {
		case sigl := <-sig:
			if sigl == syscall.SIGUSR1 {
				SigStatus()
				continue
			}

			// By default, exit
			global.log.Printf("\nExit: %s\n", sigl.String())

			break Outer

		case err := <-errors:
			if err == nil {
				global.log.Println("Finished")
				break Outer
			}

			// Return a status code indicating failure
			global.log.Println("Exiting due to error", err)
			os.Exit(1)
		}
	}
}

type source struct {
	translator *translator.Translator

	// lazy is the indexed annotation file behind translator, if any.
	lazy *ramcsv.Table

	// close releases whatever the source holds open.
	close func()
}

// load builds the translator described by o.
func load(ctx context.Context, o options) (*source, error) {
	closers := []func() error{}
	closeAll := func() {
		for _, c := range closers {
			c()
		}
	}

	if o.lazy && o.cfg.Options.Charset != "" {
		return nil, fmt.Errorf("-lazy reads UTF-8 only and cannot be combined with -charset")
	}

	var db *sqlx.DB
	if o.sqlite != "" {
		var err error
		if db, err = sqlx.Connect("sqlite", o.sqlite); err != nil {
			return nil, err
		}
		closers = append(closers, db.Close)
	} else if o.snapshot != "" || o.saveSnapshot != "" {
		return nil, fmt.Errorf("-snapshot and -save-snapshot need -sqlite")
	}

	var lazy *ramcsv.Table
	cfg := o.cfg
	switch {
	case o.snapshot != "":
		src, err := annotation.LoadSQLite(ctx, db, o.snapshot)
		if err != nil {
			closeAll()
			return nil, err
		}
		logf(cfg, "Loaded snapshot %s with %d identifiers", o.snapshot, src.Len())
		cfg.Source, cfg.Annotation = src, ""

	case o.lazy && cfg.Annotation != "":
		tab, err := ramcsv.Open(ctx, cfg.Annotation, ramcsv.Options{
			Header: cfg.Options.Header,
			Trim:   cfg.Options.Trim,
		})
		if err != nil {
			closeAll()
			return nil, err
		}
		closers = append(closers, tab.Close)
		lazy = tab
		logf(cfg, "Indexed %d identifiers in %s", tab.Len(), cfg.Annotation)
		cfg.Source, cfg.Annotation = tab, ""
	}

	t, err := translator.Build(ctx, cfg)
	if err != nil {
		closeAll()
		return nil, err
	}

	if o.saveSnapshot != "" {
		src, err := translator.Snapshot(t, nil)
		if err == nil {
			err = annotation.SaveSQLite(ctx, db, o.saveSnapshot, src)
		}
		if err != nil {
			closeAll()
			return nil, err
		}
		logf(cfg, "Saved snapshot %s with %d identifiers", o.saveSnapshot, src.Len())
	}

	return &source{translator: t, lazy: lazy, close: closeAll}, nil
}

func logf(cfg translator.Config, format string, args ...interface{}) {
	if cfg.Options.Logger != nil {
		cfg.Options.Logger.Printf(format+"\n", args...)
	}
}

func splitList(s string) []string {
	var out []string
	for _, v := range strings.Split(s, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func SigStatus() {
	global.log.Println("There are", runtime.NumGoroutine(), "goroutines running")
}
