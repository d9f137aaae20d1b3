package gokafka

import "sync"

// partitionInfo is the cached view of one topic/partition (spec.md §3
// "MetadataSnapshot").
type partitionInfo struct {
	Leader   int32
	Replicas []int32
	ISR      []int32
}

// metadataCache holds the cluster's topic/partition/leader view plus the
// group-coordinator lookup table. Refresh merges new entries into the
// existing maps rather than clearing them first, so topics not present in
// a given refresh's response keep their last-known data (spec.md §3:
// "merged into the existing map (never cleared)").
type metadataCache struct {
	mu           sync.RWMutex
	topics       map[string]map[int32]partitionInfo
	leaderToKey  map[int32]string // NodeID -> ServerKey
	coordinators map[string]string // GroupID -> ServerKey
}

func newMetadataCache() *metadataCache {
	return &metadataCache{
		topics:       make(map[string]map[int32]partitionInfo),
		leaderToKey:  make(map[int32]string),
		coordinators: make(map[string]string),
	}
}

// snapshot returns a deep copy of one topic's partitions (or of every
// topic if name is empty), satisfying spec.md §4.4's "get(topic?) returns
// a deep copy (callers must not see mutable state)".
func (c *metadataCache) snapshot(topic string) map[string]map[int32]partitionInfo {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[string]map[int32]partitionInfo)
	for name, parts := range c.topics {
		if topic != "" && name != topic {
			continue
		}
		cp := make(map[int32]partitionInfo, len(parts))
		for p, info := range parts {
			replicas := append([]int32(nil), info.Replicas...)
			isr := append([]int32(nil), info.ISR...)
			cp[p] = partitionInfo{Leader: info.Leader, Replicas: replicas, ISR: isr}
		}
		out[name] = cp
	}
	return out
}

// leaderFor resolves a topic/partition to the ServerKey of its current
// leader, or ok=false if unknown (caller should trigger a refresh).
func (c *metadataCache) leaderFor(topic string, partition int32) (serverKey string, ok bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	parts, ok := c.topics[topic]
	if !ok {
		return "", false
	}
	info, ok := parts[partition]
	if !ok {
		return "", false
	}
	key, ok := c.leaderToKey[info.Leader]
	return key, ok
}

// merge applies one MetadataResponse's topics, and updates the
// leader->ServerKey map using reg to resolve each broker's NodeID.
func (c *metadataCache) merge(resp *MetadataResponse, reg *registry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	reg.clearNodeIDs()
	for _, b := range resp.Brokers {
		c.leaderToKey[b.NodeID] = formatServerKey(b.Host, int(b.Port))
		reg.insertOrUpdate(b.NodeID, true, b.Host, int(b.Port))
	}
	for _, t := range resp.Topics {
		if t.ErrorCode != ErrNone {
			continue // retry path already decided this is fatal or will be retried
		}
		parts := c.topics[t.Name]
		if parts == nil {
			parts = make(map[int32]partitionInfo)
			c.topics[t.Name] = parts
		}
		for _, p := range t.Partitions {
			if p.ErrorCode != ErrNone && p.ErrorCode != ErrReplicaNotAvailable {
				continue
			}
			parts[p.Partition] = partitionInfo{
				Leader:   p.Leader,
				Replicas: append([]int32(nil), p.Replicas...),
				ISR:      append([]int32(nil), p.ISR...),
			}
		}
	}
}

// coordinator returns the cached ServerKey for a group, or ok=false if it
// has never been looked up (or was invalidated).
func (c *metadataCache) coordinator(groupID string) (serverKey string, ok bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	key, ok := c.coordinators[groupID]
	return key, ok
}

func (c *metadataCache) setCoordinator(groupID, serverKey string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.coordinators[groupID] = serverKey
}

// invalidateCoordinator drops a stale coordinator mapping, forcing the
// next lookup to re-run FindCoordinator. Called on
// ERROR_NOT_COORDINATOR_FOR_GROUP / ERROR_GROUP_COORDINATOR_NOT_AVAILABLE
// (spec.md §4.4 "coordinator(group_id)").
func (c *metadataCache) invalidateCoordinator(groupID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.coordinators, groupID)
}
