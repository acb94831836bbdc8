package badger

import "strconv"

// Key prefixes for different data types
const (
	judgmentPrefix = "jdg:"
	ledgerPrefix   = "ldg:"
)

// makeJudgmentKey generates a key for a judgment by source.
func makeJudgmentKey(source string) []byte {
	return []byte(judgmentPrefix + source)
}

// makeLedgerCollectionPrefix generates the prefix shared by all ledger
// entries of a collection.
// The name is length-prefixed so one collection's prefix never covers
// another's.
// Format: prefix:len:collection:
func makeLedgerCollectionPrefix(collection string) []byte {
	return []byte(ledgerPrefix + strconv.Itoa(len(collection)) + ":" + collection + ":")
}

// makeLedgerKey generates a key for a ledger entry.
// Format: prefix:len:collection:fingerprint
func makeLedgerKey(collection, fingerprint string) []byte {
	return append(makeLedgerCollectionPrefix(collection), fingerprint...)
}
