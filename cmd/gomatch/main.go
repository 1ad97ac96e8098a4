package main

import (
	"context"
	"flag"
	"os"

	"github.com/plan-systems/klog"

	"github.com/gomatch-systems/gomatch/gomatch"
	"github.com/gomatch-systems/gomatch/libmatch"
	"github.com/gomatch-systems/gomatch/libmatch/catalog"
)

func main() {

	queryExpr := flag.String("query", "", "query graph expr, e.g. \"1>2,2>3,3>1\"")
	dataExpr := flag.String("data", "", "data graph expr")
	maxMatches := flag.Int64("max-matches", 0, "output buffer capacity in matches (0 denotes default)")
	numWorkers := flag.Int("workers", 0, "parallel workers per pass (0 denotes GOMAXPROCS)")
	dbPath := flag.String("db", "", "if set, record matches into the catalog at this path")

	fset := flag.NewFlagSet("", flag.ContinueOnError)
	klog.InitFlags(fset)
	fset.Set("logtostderr", "true")
	fset.Set("v", "2")
	klog.SetFormatter(&klog.FmtConstWidth{
		FileNameCharWidth: 16,
		UseColor:          true,
	})

	flag.Parse()
	defer klog.Flush()

	if *queryExpr == "" || *dataExpr == "" {
		klog.Errorf("both -query and -data are required")
		os.Exit(1)
	}

	Q := libmatch.NewGraph(nil)
	if err := Q.InitFromString(*queryExpr); err != nil {
		klog.Fatalf("bad query expr: %v", err)
	}
	G := libmatch.NewGraph(nil)
	if err := G.InitFromString(*dataExpr); err != nil {
		klog.Fatalf("bad data expr: %v", err)
	}

	mask := libmatch.ComputeBitmask(Q, G)

	opts := libmatch.DefaultSliceOpts
	opts.NumWorkers = *numWorkers
	if *maxMatches > 0 {
		opts.MaxMatches = *maxMatches
	}

	slice, err := libmatch.NewSlice(Q, G, mask, opts)
	if err != nil {
		klog.Fatalf("setup failed: %v", err)
	}
	defer slice.Reclaim()

	err = slice.Run(context.Background())
	if err == gomatch.ErrResultTruncated {
		klog.Warningf("match buffer overflow; raise -max-matches to see all matches")
	} else if err != nil {
		klog.Fatalf("run failed: %v", err)
	}

	slice.ReportMatches()

	stream := slice.Stream().Print(os.Stdout, "match")

	if *dbPath != "" {
		ctx := gomatch.NewCatalogContext()
		cat, err := catalog.OpenCatalog(ctx, gomatch.CatalogOpts{DbPathName: *dbPath})
		if err != nil {
			klog.Fatalf("open catalog: %v", err)
		}
		var sigBuf [192]byte
		added := stream.AddTo(cat, Q.QuerySig(sigBuf[:0])).PullAll()
		klog.Infof("recorded %d new matches", added)
		ctx.Close()
		<-ctx.Done()
	} else {
		stream.PullAll()
	}
}
