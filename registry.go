package gokafka

import (
	"math/rand"
	"sync"
)

// BrokerEntry is one known broker, keyed by its ServerKey in the
// registry. It is created at bootstrap or at metadata-refresh time and
// never evicted — only its NodeID is cleared when a broker disappears
// from a metadata response (spec.md §3 "BrokerEntry").
type BrokerEntry struct {
	mu sync.Mutex

	Host   string
	Port   int
	NodeID int32 // 0 with hasNodeID == false means "unknown"

	hasNodeID   bool
	conn        *endpoint
	lastErr     *Error
	apiVersions map[int16]int16 // api_key -> negotiated max usable version
}

func (b *BrokerEntry) serverKey() string { return formatServerKey(b.Host, b.Port) }

// apiVersion returns the negotiated version for apiKey, and whether a
// negotiation has happened at all (false means "call ApiVersions first").
// An api key missing from a negotiated map yields version 0. The caller
// must already hold b.mu (the dispatcher holds it for the whole round
// trip), so this does not lock.
func (b *BrokerEntry) apiVersion(apiKey int16) (int16, bool) {
	if b.apiVersions == nil {
		return 0, false
	}
	return b.apiVersions[apiKey], true
}

// setAPIVersions stores a negotiated map; like apiVersion, the caller
// must already hold b.mu.
func (b *BrokerEntry) setAPIVersions(versions map[int16]int16) {
	b.apiVersions = versions
}

// registry tracks every known broker by ServerKey. Operations are safe
// for concurrent use; callers serialize access to an individual
// BrokerEntry's connection themselves by holding that entry's mutex for
// the duration of one dispatch round trip (spec.md §3 invariant).
type registry struct {
	mu      sync.RWMutex
	brokers map[string]*BrokerEntry
}

func newRegistry(bootstrap []string) (*registry, *Error) {
	r := &registry{brokers: make(map[string]*BrokerEntry)}
	for _, addr := range bootstrap {
		host, port, err := splitHostPort(addr)
		if err != nil {
			return nil, err
		}
		r.insertOrUpdate(-1, false, host, port)
	}
	return r, nil
}

// insertOrUpdate creates a BrokerEntry for (host, port) if absent, and
// records its node id when hasNodeID is true.
func (r *registry) insertOrUpdate(nodeID int32, hasNodeID bool, host string, port int) *BrokerEntry {
	key := formatServerKey(host, port)
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.brokers[key]
	if !ok {
		b = &BrokerEntry{Host: host, Port: port}
		r.brokers[key] = b
	}
	if hasNodeID {
		b.mu.Lock()
		b.NodeID = nodeID
		b.hasNodeID = true
		b.mu.Unlock()
	}
	return b
}

func (r *registry) byServerKey(key string) (*BrokerEntry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.brokers[key]
	return b, ok
}

func (r *registry) byNodeID(nodeID int32) (*BrokerEntry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, b := range r.brokers {
		b.mu.Lock()
		match := b.hasNodeID && b.NodeID == nodeID
		b.mu.Unlock()
		if match {
			return b, true
		}
	}
	return nil, false
}

// clearNodeIDs nulls every broker's node id ahead of applying a fresh
// metadata response (spec.md §4.3: "nulls all prior node_ids, then writes
// the new node_id for each broker advertised").
func (r *registry) clearNodeIDs() {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, b := range r.brokers {
		b.mu.Lock()
		b.hasNodeID = false
		b.mu.Unlock()
	}
}

// iterateForMetadata returns ServerKeys ordered to maximize the chance of
// a quick metadata response: brokers with a known node id and an open
// connection first, then known-node-id-without-connection, then
// node-id-unknown — each class shuffled independently (spec.md §4.3
// "iterate_for_metadata").
func (r *registry) iterateForMetadata() []string {
	r.mu.RLock()
	var withConn, withNodeID, bootstrapOnly []string
	for key, b := range r.brokers {
		b.mu.Lock()
		switch {
		case b.hasNodeID && b.conn != nil:
			withConn = append(withConn, key)
		case b.hasNodeID:
			withNodeID = append(withNodeID, key)
		default:
			bootstrapOnly = append(bootstrapOnly, key)
		}
		b.mu.Unlock()
	}
	r.mu.RUnlock()

	shuffle(withConn)
	shuffle(withNodeID)
	shuffle(bootstrapOnly)

	out := make([]string, 0, len(withConn)+len(withNodeID)+len(bootstrapOnly))
	out = append(out, withConn...)
	out = append(out, withNodeID...)
	out = append(out, bootstrapOnly...)
	return out
}

func shuffle(keys []string) {
	rand.Shuffle(len(keys), func(i, j int) { keys[i], keys[j] = keys[j], keys[i] })
}
