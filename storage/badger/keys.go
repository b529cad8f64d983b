package badger

import "fmt"

// Key prefixes for the per-collection key spaces. Document records, the
// content-hash index, and the ticket-key index each live under their own
// prefix so prefix scans never cross kinds.
const (
	documentPrefix    = "doc"
	hashIndexPrefix   = "hash"
	ticketIndexPrefix = "tkt"
	collectionPrefix  = "coll"
)

// makeDocumentKey generates the primary record key for a document.
func makeDocumentKey(collection, id string) []byte {
	return []byte(fmt.Sprintf("%s:%s:%s", documentPrefix, collection, id))
}

// makeDocumentScanPrefix generates the prefix covering every document in a
// collection.
func makeDocumentScanPrefix(collection string) []byte {
	return []byte(fmt.Sprintf("%s:%s:", documentPrefix, collection))
}

// makeHashKey generates the content-hash index key. The value is the
// document ID carrying that hash.
func makeHashKey(collection, hash string) []byte {
	return []byte(fmt.Sprintf("%s:%s:%s", hashIndexPrefix, collection, hash))
}

func makeHashScanPrefix(collection string) []byte {
	return []byte(fmt.Sprintf("%s:%s:", hashIndexPrefix, collection))
}

// makeTicketKey generates the ticket-key index key. The value is the
// document ID whose metadata records that ticket.
func makeTicketKey(collection, ticket string) []byte {
	return []byte(fmt.Sprintf("%s:%s:%s", ticketIndexPrefix, collection, ticket))
}

func makeTicketScanPrefix(collection string) []byte {
	return []byte(fmt.Sprintf("%s:%s:", ticketIndexPrefix, collection))
}

// makeCollectionKey generates the collection marker key. The value records
// the embedding dimension of the collection's vectors.
func makeCollectionKey(collection string) []byte {
	return []byte(fmt.Sprintf("%s:%s", collectionPrefix, collection))
}

func collectionScanPrefix() []byte {
	return []byte(collectionPrefix + ":")
}
