package eventlog

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/util"

	"healthchain/pkg/domain"
)

// LevelDBStore persists the event history in an embedded LevelDB database,
// giving the log write-ahead durability across restarts.
//
// Key layout:
//
//	e/<8-byte big-endian logIndex>            -> JSON event
//	i/<identity>/<8-byte big-endian logIndex> -> empty (identity index)
//
// Big-endian indices keep lexicographic key order equal to log order, so both
// the history and each identity's slice iterate in append order. Identities
// may themselves contain '/', so they are percent-escaped in index keys; one
// identity's prefix scan can then never leak into another's.
type LevelDBStore struct {
	mu   sync.Mutex
	db   *leveldb.DB
	next uint64
}

// OpenLevelDB opens (or creates) the event database at path and restores the
// next log index from the highest stored key.
func OpenLevelDB(path string) (*LevelDBStore, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("open event db: %w", err)
	}

	store := &LevelDBStore{db: db}
	iter := db.NewIterator(util.BytesPrefix([]byte("e/")), nil)
	if iter.Last() {
		store.next = binary.BigEndian.Uint64(iter.Key()[2:]) + 1
	}
	iter.Release()
	if err := iter.Error(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("recover event db: %w", err)
	}
	return store, nil
}

func (s *LevelDBStore) Append(_ context.Context, event *Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	event.LogIndex = s.next
	raw, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	batch := new(leveldb.Batch)
	batch.Put(eventKey(event.LogIndex), raw)
	batch.Put(indexKey(event.Actor, event.LogIndex), nil)
	if !event.Subject.IsZero() && event.Subject != event.Actor {
		batch.Put(indexKey(event.Subject, event.LogIndex), nil)
	}
	// Single batch write is the commit point; a crash loses either the whole
	// event or nothing.
	if err := s.db.Write(batch, nil); err != nil {
		return fmt.Errorf("append event: %w", err)
	}
	s.next++
	return nil
}

func (s *LevelDBStore) ListByIdentity(_ context.Context, identity domain.Identity) ([]Event, error) {
	prefix := append([]byte("i/"+escapeIdentity(identity)), '/')
	iter := s.db.NewIterator(util.BytesPrefix(prefix), nil)
	defer iter.Release()

	var out []Event
	for iter.Next() {
		logIndex := binary.BigEndian.Uint64(iter.Key()[len(prefix):])
		raw, err := s.db.Get(eventKey(logIndex), nil)
		if err != nil {
			return nil, fmt.Errorf("load event %d: %w", logIndex, err)
		}
		var event Event
		if err := json.Unmarshal(raw, &event); err != nil {
			return nil, fmt.Errorf("decode event %d: %w", logIndex, err)
		}
		out = append(out, event)
	}
	if err := iter.Error(); err != nil {
		return nil, fmt.Errorf("scan identity index: %w", err)
	}
	return out, nil
}

// Close flushes and closes the underlying database.
func (s *LevelDBStore) Close() error {
	return s.db.Close()
}

func eventKey(logIndex uint64) []byte {
	key := make([]byte, 2+8)
	copy(key, "e/")
	binary.BigEndian.PutUint64(key[2:], logIndex)
	return key
}

func indexKey(identity domain.Identity, logIndex uint64) []byte {
	prefix := "i/" + escapeIdentity(identity) + "/"
	key := make([]byte, len(prefix)+8)
	copy(key, prefix)
	binary.BigEndian.PutUint64(key[len(prefix):], logIndex)
	return key
}

// escapeIdentity makes an identity safe for use as a key segment. '%' escapes
// first so the mapping is injective.
func escapeIdentity(identity domain.Identity) string {
	s := strings.ReplaceAll(identity.String(), "%", "%25")
	return strings.ReplaceAll(s, "/", "%2F")
}
