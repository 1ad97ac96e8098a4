package catalog

import (
	"runtime"

	"github.com/dgraph-io/badger/v3"
	"github.com/pkg/errors"

	"github.com/gomatch-systems/gomatch/gomatch"
)

/***

Catalog database format:

	gCatalogStateKey => CatalogState

	QuerySig, NUL, NUL                  (per-query header entry)
		QuerySig, NUL, NUL, TupleLSM => nil
		...
	...

QuerySig leads with the query edge count and never contains a NUL byte, so the
double-NUL suffix unambiguously ends the signature.  This layout allows to:
	1) enumerate all matches for a given query in insertion-key order
	2) check if a given match has been recorded
	3) range-scan by query edge count (the leading signature byte)

***/

var (
	gCatalogStateKey = []byte{0x00, 0x00, 0x01}
)

// catalog is a db wrapper for a subgraph match catalog
type catalog struct {
	ctx        gomatch.CatalogContext
	readOnly   bool
	stateDirty bool
	state      gomatch.CatalogState
	db         *badger.DB
}

func OpenCatalog(ctx gomatch.CatalogContext, opts gomatch.CatalogOpts) (gomatch.Catalog, error) {
	cat := &catalog{
		ctx:      ctx,
		readOnly: opts.ReadOnly,
	}

	dbOpts := badger.DefaultOptions(opts.DbPathName)
	dbOpts.ReadOnly = opts.ReadOnly
	dbOpts.DetectConflicts = false // not needed so disable for performance
	dbOpts.Logger = nil
	dbOpts.MetricsEnabled = false

	// Badger for windows currently does not support read-only mode
	if runtime.GOOS == "windows" {
		dbOpts.ReadOnly = false
	}

	if len(opts.DbPathName) == 0 {
		if opts.ReadOnly {
			return nil, errors.Wrap(gomatch.ErrBadCatalogParam, "DbPathName must be specified for read-only catalog")
		}
		dbOpts.InMemory = true
	}

	var err error
	cat.db, err = badger.Open(dbOpts)
	if err != nil {
		return nil, err
	}

	// Once the db is open, the catalog ctx is blocked until the catalog closes
	ctx.AttachCatalog(cat)

	err = cat.loadState()
	if err == badger.ErrKeyNotFound {
		err = nil
		cat.stateDirty = true
		cat.state.MajorVers = 2024
		cat.state.MinorVers = 1
		cat.state.NumMatches = make([]uint64, gomatch.MaxQueryEdges+1)
	}

	if err == nil && (cat.state.MajorVers != 2024 || cat.state.MinorVers != 1) {
		err = errors.New("catalog version is incompatible")
	}

	if err != nil {
		cat.Close()
		return nil, err
	}

	return cat, nil
}

func (cat *catalog) loadState() error {
	return cat.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(gCatalogStateKey)
		if err == nil {
			item.Value(func(val []byte) error {
				return cat.state.Unmarshal(val)
			})
		}
		return err
	})
}

func (cat *catalog) flushState() {
	if cat.stateDirty {
		err := cat.db.Update(func(txn *badger.Txn) error {
			return txn.Set(gCatalogStateKey, cat.state.Marshal(nil))
		})
		if err != nil {
			panic(err)
		}
		cat.stateDirty = false
	}
}

func (cat *catalog) Close() error {
	if !cat.readOnly {
		cat.flushState()
	}
	if cat.db != nil {
		cat.db.Close()
		cat.db = nil
		cat.ctx.DetachCatalog(cat)
		cat.ctx = nil
	}
	return nil
}

func (cat *catalog) IsReadOnly() bool {
	return cat.readOnly
}

func (cat *catalog) NumMatches(forEdgeCount byte) int64 {
	if forEdgeCount == 0 || int(forEdgeCount) >= len(cat.state.NumMatches) {
		return 0
	}
	return int64(cat.state.NumMatches[forEdgeCount])
}

func formSigKey(key []byte, sig gomatch.QuerySig) []byte {
	key = append(key, sig...)
	key = append(key, 0, 0)
	return key
}

// TryAddMatch records the given match tuple under its query signature.
//
// If true is returned, the match was not present and was added.
func (cat *catalog) TryAddMatch(sig gomatch.QuerySig, m gomatch.Tuple) bool {
	if cat.readOnly || len(sig) == 0 {
		return false
	}

	var keyBuf [192]byte
	sigKey := formSigKey(keyBuf[:0], sig)
	matchKey := m.AppendTupleLSM(sigKey)
	matchKey = matchKey[:len(matchKey):len(matchKey)]
	sigKey = matchKey[:len(sigKey)]

	txn := cat.db.NewTransaction(true)
	defer txn.Discard()

	isNewSig := false
	isNewMatch := false
	_, err := txn.Get(sigKey)
	if err == badger.ErrKeyNotFound {
		isNewSig = true
		isNewMatch = true
	} else {
		_, err = txn.Get(matchKey)
		if err == badger.ErrKeyNotFound {
			isNewMatch = true
		}
	}

	if !isNewMatch {
		return false
	}

	if isNewSig {
		if err = txn.Set(sigKey, nil); err != nil {
			panic(err)
		}
	}
	if err = txn.Set(matchKey, nil); err != nil {
		panic(err)
	}
	if err = txn.Commit(); err != nil {
		panic(err)
	}

	Nq := sig[0]
	cat.state.NumMatches[Nq]++
	cat.stateDirty = true

	return true
}

// Select will call onHit() with all stored matches meeting the given search criteria.
//
// Enumeration stops when there are no more matches.
func (cat *catalog) Select(sel gomatch.MatchSelector, onHit gomatch.OnMatchHit) {
	if len(sel.Sig) > 0 {
		cat.selectBySig(&sel, onHit)
	} else {
		cat.selectAll(&sel, onHit)
	}
}

func pushTuple(lsm []byte, maxEdges int, onHit gomatch.OnMatchHit) {
	var m gomatch.Tuple
	if err := m.InitFromTupleLSM(lsm, maxEdges); err != nil {
		panic(err)
	}
	onHit <- m
}

func (cat *catalog) selectBySig(sel *gomatch.MatchSelector, onHit gomatch.OnMatchHit) {
	var keyBuf [192]byte
	sigKey := formSigKey(keyBuf[:0], sel.Sig)

	txn := cat.db.NewTransaction(false)
	defer txn.Discard()

	it := txn.NewIterator(badger.IteratorOptions{
		PrefetchValues: false,
		Prefix:         sigKey,
	})
	defer it.Close()

	Nq := int(sel.Sig[0])

	for it.Rewind(); it.Valid(); it.Next() {
		curKey := it.Item().Key()
		if len(curKey) == len(sigKey) {
			continue // per-query header entry
		}
		pushTuple(curKey[len(sigKey):], Nq, onHit)
	}
}

func (cat *catalog) selectAll(sel *gomatch.MatchSelector, onHit gomatch.OnMatchHit) {
	minKey := [1]byte{sel.MinEdgeCount}
	if minKey[0] < 1 {
		minKey[0] = 1
	}

	txn := cat.db.NewTransaction(false)
	defer txn.Discard()

	it := txn.NewIterator(badger.IteratorOptions{
		PrefetchValues: false,
	})
	defer it.Close()

	for it.Seek(minKey[:]); it.Valid(); it.Next() {
		curKey := it.Item().Key()

		// Stop when the edge count is over the max
		Nq := curKey[0]
		if sel.MaxEdgeCount > 0 && Nq > sel.MaxEdgeCount {
			break
		}

		// The signature never contains a NUL, so the first NUL starts the separator.
		sigEnd := -1
		for i, b := range curKey {
			if b == 0 {
				sigEnd = i
				break
			}
		}
		if sigEnd < 0 || sigEnd+2 > len(curKey) {
			panic("what is this entry?")
		}
		if sigEnd+2 == len(curKey) {
			continue // per-query header entry
		}

		pushTuple(curKey[sigEnd+2:], int(Nq), onHit)
	}
}
