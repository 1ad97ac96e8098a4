package libmatch

import (
	"github.com/dgraph-io/badger/v3"

	"github.com/gomatch-systems/gomatch/gomatch"
)

// TupleSet is an ephemeral MatchAdder: it remembers which tuples it has seen
// without persisting anything.  Feed one to MatchStream.AddTo for on-the-fly
// dedupe of streams too large to buffer.
type TupleSet interface {
	gomatch.MatchAdder

	// Close removes all previously added items from this set.
	//
	// If you make subsequent calls to TryAddMatch(), call Close() when you're done.
	Close()
}

func NewTupleSet() TupleSet {
	return &tupleSet{}
}

type tupleSet struct {
	lsmSet
}

// TryAddMatch adds the given tuple under the given query signature if it is
// not already present, returning whether it was added.
func (ts *tupleSet) TryAddMatch(sig gomatch.QuerySig, m gomatch.Tuple) bool {
	var buf gomatch.TupleLSMBuf
	key := append(buf[:0], sig...)
	key = m.AppendTupleLSM(key)
	return ts.tryAdd(key)
}

type lsmSet struct {
	db *badger.DB
}

func (set *lsmSet) autoOpen() {
	if set.db == nil {
		dbOpts := badger.DefaultOptions("").WithInMemory(true)
		dbOpts.Logger = nil
		dbOpts.MetricsEnabled = false

		var err error
		set.db, err = badger.Open(dbOpts)
		if err != nil {
			panic(err)
		}
	}
}

func (set *lsmSet) tryAdd(key []byte) bool {
	set.autoOpen()

	txn := set.db.NewTransaction(true)
	defer txn.Commit()

	added := false
	_, err := txn.Get(key)
	if err == nil {
		// no-op since the key is already in the db
	} else if err == badger.ErrKeyNotFound {
		err = txn.Set(key, nil)
		added = true
	}

	if err != nil {
		panic(err)
	}

	return added
}

func (set *lsmSet) Close() {
	if set.db != nil {
		set.db.Close()
		set.db = nil
	}
}
