package store

// Key prefixes. Records live under "<prefix><id>"; unique index entries
// live under "<prefix>idx:<index name>:<value>" and hold the record's ID.
const (
	userPrefix   = "user:"
	authorPrefix = "author:"
	bookPrefix   = "book:"
)

// recordKey builds the primary key for a record.
func recordKey(prefix, id string) []byte {
	buf := make([]byte, 0, len(prefix)+len(id))
	buf = append(buf, prefix...)
	buf = append(buf, id...)
	return buf
}

// indexKey builds the key of a unique index entry.
func indexKey(prefix, indexName, value string) []byte {
	buf := make([]byte, 0, len(prefix)+4+len(indexName)+1+len(value))
	buf = append(buf, prefix...)
	buf = append(buf, "idx:"...)
	buf = append(buf, indexName...)
	buf = append(buf, ':')
	buf = append(buf, value...)
	return buf
}
