// Seed program: fills a store with generated records, reads every one back
// with concurrent readers and checks the tree.
// Run: go run ./cmd/seed -file seed.db -n 100000 -workers 8 -optimize
// Then inspect: go run ./cmd/inspect_db -levels 2 seed.db
package main

import (
	"bytes"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"time"

	bstar "BStarDB/bstartree"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	file := flag.String("file", "seed.db", "store file, replaced if it exists")
	n := flag.Int("n", 10000, "number of records")
	fanout := flag.Int("fanout", bstar.DefaultFanout, "max records per node")
	pageSize := flag.Int("pagesize", bstar.DefaultPageSize, "node page size in bytes")
	cache := flag.Int("cache", 1024, "max live nodes, 0 for unbounded")
	valueSize := flag.Int("valuesize", 32, "value size in bytes")
	workers := flag.Int("workers", 4, "concurrent readers during verification")
	optimize := flag.Bool("optimize", false, "compact the store after loading")
	seed := flag.Int64("seed", 1, "insertion order seed")
	verbose := flag.Bool("v", false, "log store events to stderr")
	flag.Parse()

	logger := zap.NewNop()
	if *verbose {
		var err error
		if logger, err = zap.NewDevelopment(); err != nil {
			fmt.Fprintf(os.Stderr, "logger: %v\n", err)
			os.Exit(1)
		}
	}
	defer logger.Sync()

	if err := run(logger, *file, *n, *fanout, *pageSize, *cache, *valueSize, *workers, *optimize, *seed); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %+v\n", err)
		os.Exit(1)
	}
}

func key(i int) []byte {
	return []byte(fmt.Sprintf("key%09d", i))
}

func value(i, size int) []byte {
	v := bytes.Repeat([]byte{byte('a' + i%26)}, size)
	copy(v, fmt.Sprintf("%d:", i))
	return v
}

func run(logger *zap.Logger, file string, n, fanout, pageSize, cache, valueSize, workers int, optimize bool, seed int64) error {
	if err := os.Remove(file); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "remove %s", file)
	}

	tree := bstar.NewBStarTree(file, nil)
	tree.SetLogger(logger)
	if err := tree.SetFanout(fanout); err != nil {
		return err
	}
	if err := tree.SetPageSize(pageSize); err != nil {
		return err
	}
	tree.SetCacheSize(cache)
	if err := tree.SetThreadSafe(true); err != nil {
		return err
	}
	if err := tree.Open(); err != nil {
		return err
	}
	defer tree.Close()

	start := time.Now()
	for _, i := range rand.New(rand.NewSource(seed)).Perm(n) {
		ok, err := tree.Insert(key(i), value(i, valueSize))
		if err != nil {
			return errors.Wrapf(err, "insert record %d", i)
		}
		if !ok {
			return errors.Newf("record %d already present", i)
		}
	}
	if err := tree.Commit(); err != nil {
		return err
	}
	fmt.Printf("inserted %d records in %v\n", n, time.Since(start).Round(time.Millisecond))

	if optimize {
		start = time.Now()
		before := tree.Header().EstimatedFileSize()
		if err := tree.Optimize(); err != nil {
			return err
		}
		fmt.Printf("optimized in %v: %d -> %d bytes\n",
			time.Since(start).Round(time.Millisecond), before, tree.Header().EstimatedFileSize())
	}

	start = time.Now()
	g := errgroup.Group{}
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			for i := w; i < n; i += workers {
				got, ok, err := tree.Find(key(i))
				if err != nil {
					return errors.Wrapf(err, "find record %d", i)
				}
				if !ok {
					return errors.Newf("record %d missing", i)
				}
				if !bytes.Equal(got, value(i, valueSize)) {
					return errors.Newf("record %d has the wrong value", i)
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	fmt.Printf("read back %d records with %d workers in %v\n", n, workers, time.Since(start).Round(time.Millisecond))

	if err := tree.Verify(); err != nil {
		return err
	}
	s, err := tree.Stats()
	if err != nil {
		return err
	}
	fmt.Printf("verified: %d items, %d node pages, %d overflow pages, %d bytes\n",
		s.ItemCount, s.NodePages, s.OverflowPages, s.FileSize)
	return nil
}
