package gokafka

import "context"

// Client is the facade over the broker registry, metadata cache and
// dispatcher — the thin C7 layer spec.md §2 describes as "included only
// because it defines the request-shaping contract the codec and
// connection manager expose". Producer and Consumer are built on top of
// it; nothing stops a caller from using Client directly for Metadata,
// OffsetCommit, OffsetFetch or FindCoordinator calls.
type Client struct {
	cfg   *Config
	reg   *registry
	cache *metadataCache
	disp  *dispatcher
	log   Logger
}

// NewClient validates cfg, resolves its bootstrap servers into the
// registry, and returns a ready-to-use Client. It does not connect to any
// broker or fetch metadata eagerly — the first call does that as part of
// its normal retry loop.
func NewClient(cfg *Config, log Logger) (*Client, *Error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	bootstrap, err := cfg.bootstrapServers()
	if err != nil {
		return nil, err
	}
	reg, err := newRegistry(bootstrap)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = discardLogger{}
	}
	cache := newMetadataCache()
	return &Client{
		cfg:   cfg,
		reg:   reg,
		cache: cache,
		disp:  newDispatcher(cfg, reg, cache, log),
		log:   log,
	}, nil
}

// RefreshMetadata implements spec.md §4.4 "update(topic?)": it walks the
// registry in iterate_for_metadata order, sends MetadataRequest to the
// first broker that accepts connect/send/receive, and merges the result.
// An empty broker list in the response is fatal unless AutoCreateTopics
// is set, in which case the caller's own retrying dispatch (via
// metadataRefresher) is expected to try again.
func (c *Client) RefreshMetadata(ctx context.Context, topic string) *Error {
	req := &MetadataRequest{}
	if topic != "" {
		req.Topics = []string{topic}
	}

	var lastErr *Error = ErrNoConnection
	for _, key := range c.reg.iterateForMetadata() {
		broker, ok := c.reg.byServerKey(key)
		if !ok {
			continue
		}
		broker.mu.Lock()
		if err := c.disp.ensureConnected(ctx, broker); err != nil {
			broker.mu.Unlock()
			lastErr = err
			continue
		}
		version, err := c.disp.negotiatedVersion(ctx, broker, apiKeyMetadata)
		if err != nil {
			broker.mu.Unlock()
			lastErr = err
			continue
		}
		corrID := c.disp.nextCorrelationID()
		encoded, err := encodeRequest(req, version, corrID, c.cfg.ClientID)
		if err != nil {
			broker.mu.Unlock()
			return err
		}
		if err := broker.conn.send(encoded, c.cfg.Timeout()); err != nil {
			broker.mu.Unlock()
			lastErr = err
			continue
		}
		raw, err := broker.conn.receive(c.cfg.Timeout())
		broker.mu.Unlock()
		if err != nil {
			lastErr = err
			continue
		}

		resp := &MetadataResponse{}
		if err := decodeResponse(raw, corrID, version, resp); err != nil {
			return err
		}
		if len(resp.Brokers) == 0 {
			if !c.cfg.AutoCreateTopics {
				return newClusterError(ErrUnknownTopicOrPartition)
			}
			lastErr = newClusterError(ErrLeaderNotAvailable)
			continue
		}
		if fe := resp.firstError(); fe != ErrNone {
			if !isRetriableCode(fe) {
				return newClusterError(fe)
			}
			lastErr = newClusterError(fe)
			continue
		}
		c.cache.merge(resp, c.reg)
		return nil
	}
	return lastErr
}

// refresher adapts RefreshMetadata to the metadataRefresher signature the
// dispatcher calls between retries.
func (c *Client) refresher() metadataRefresher { return c.RefreshMetadata }

// coordinatorRefresher adapts coordinator invalidation+rediscovery to the
// metadataRefresher signature, for coordinator-targeted requests
// (CommitOffset/FetchCommittedOffset). Without this, a dispatch retry on
// ERROR_NOT_COORDINATOR_FOR_GROUP/ERROR_GROUP_COORDINATOR_NOT_AVAILABLE
// would keep hitting the same stale cached coordinator for every attempt
// (spec.md §4.4 "coordinator(group_id): ... refresh on
// ERROR_NOT_COORDINATOR_FOR_GROUP or ERROR_GROUP_COORDINATOR_NOT_AVAILABLE").
func (c *Client) coordinatorRefresher(groupID string) metadataRefresher {
	return func(ctx context.Context, _ string) *Error {
		c.InvalidateCoordinator(groupID)
		_, err := c.Coordinator(ctx, groupID)
		return err
	}
}

// ensureLeader resolves topic/partition's leader, refreshing metadata
// once if it is not yet known.
func (c *Client) ensureLeader(ctx context.Context, topic string, partition int32) *Error {
	if _, ok := c.cache.leaderFor(topic, partition); ok {
		return nil
	}
	return c.RefreshMetadata(ctx, topic)
}

// Coordinator resolves group_id's offset-management coordinator,
// querying FindCoordinator against any reachable broker if not cached
// (spec.md §4.4 "coordinator(group_id)").
func (c *Client) Coordinator(ctx context.Context, groupID string) (string, *Error) {
	if key, ok := c.cache.coordinator(groupID); ok {
		return key, nil
	}

	req := &FindCoordinatorRequest{GroupID: groupID}
	var lastErr *Error = ErrNoConnection
	for _, key := range c.reg.iterateForMetadata() {
		broker, ok := c.reg.byServerKey(key)
		if !ok {
			continue
		}
		broker.mu.Lock()
		if err := c.disp.ensureConnected(ctx, broker); err != nil {
			broker.mu.Unlock()
			lastErr = err
			continue
		}
		version, err := c.disp.negotiatedVersion(ctx, broker, apiKeyFindCoordinator)
		if err != nil {
			broker.mu.Unlock()
			lastErr = err
			continue
		}
		corrID := c.disp.nextCorrelationID()
		encoded, err := encodeRequest(req, version, corrID, c.cfg.ClientID)
		if err != nil {
			broker.mu.Unlock()
			return "", err
		}
		if err := broker.conn.send(encoded, c.cfg.Timeout()); err != nil {
			broker.mu.Unlock()
			lastErr = err
			continue
		}
		raw, err := broker.conn.receive(c.cfg.Timeout())
		broker.mu.Unlock()
		if err != nil {
			lastErr = err
			continue
		}
		resp := &FindCoordinatorResponse{}
		if err := decodeResponse(raw, corrID, version, resp); err != nil {
			return "", err
		}
		if resp.ErrorCode != ErrNone {
			lastErr = newClusterError(resp.ErrorCode)
			continue
		}
		serverKey := formatServerKey(resp.Host, int(resp.Port))
		c.reg.insertOrUpdate(resp.NodeID, true, resp.Host, int(resp.Port))
		c.cache.setCoordinator(groupID, serverKey)
		return serverKey, nil
	}
	return "", lastErr
}

// InvalidateCoordinator forces the next Coordinator call to re-run
// FindCoordinator, per spec.md §4.4's refresh-on-error rule.
func (c *Client) InvalidateCoordinator(groupID string) {
	c.cache.invalidateCoordinator(groupID)
}

// Authenticate performs SaslHandshake followed by a PLAIN credentials
// exchange against the first reachable bootstrap broker (spec.md §4.1
// "SaslHandshake + PLAIN"). This client only ever requests the PLAIN
// mechanism (Non-goals: "SASL mechanisms beyond PLAIN").
func (c *Client) Authenticate(ctx context.Context, username, password string) *Error {
	req := &SaslHandshakeRequest{Mechanism: SaslMechanismPlain}
	resp := &SaslHandshakeResponse{}

	var lastErr *Error = ErrNoConnection
	for _, key := range c.reg.iterateForMetadata() {
		broker, ok := c.reg.byServerKey(key)
		if !ok {
			continue
		}
		broker.mu.Lock()
		if err := c.disp.ensureConnected(ctx, broker); err != nil {
			broker.mu.Unlock()
			lastErr = err
			continue
		}
		corrID := c.disp.nextCorrelationID()
		encoded, err := encodeRequest(req, 0, corrID, c.cfg.ClientID)
		if err != nil {
			broker.mu.Unlock()
			return err
		}
		if err := broker.conn.send(encoded, c.cfg.Timeout()); err != nil {
			broker.mu.Unlock()
			lastErr = err
			continue
		}
		raw, err := broker.conn.receive(c.cfg.Timeout())
		if err != nil {
			broker.mu.Unlock()
			lastErr = err
			continue
		}
		if err := decodeResponse(raw, corrID, 0, resp); err != nil {
			broker.mu.Unlock()
			return err
		}
		if resp.ErrorCode != ErrNone {
			broker.mu.Unlock()
			return newClusterError(resp.ErrorCode)
		}

		frame := encodeSaslPlainFrame(username, password)
		if err := broker.conn.send(frame, c.cfg.Timeout()); err != nil {
			broker.mu.Unlock()
			return err
		}
		_, err = broker.conn.receive(c.cfg.Timeout())
		broker.mu.Unlock()
		return err
	}
	return lastErr
}

// NonfatalErrors returns every currently-buffered non-fatal error record,
// oldest first (spec.md §7 "nonfatal_errors").
func (c *Client) NonfatalErrors() []NonfatalError { return c.disp.nonfatal.snapshot() }

// ClearNonfatals empties the non-fatal ring (spec.md §7 "clear_nonfatals").
func (c *Client) ClearNonfatals() { c.disp.nonfatal.clear() }

// Metadata returns a deep copy of the cached partition layout for topic
// (or every topic if topic is ""), refreshing first if nothing is cached
// yet for it.
func (c *Client) Metadata(ctx context.Context, topic string) (map[string]map[int32]partitionInfo, *Error) {
	if snap := c.cache.snapshot(topic); len(snap) > 0 {
		return snap, nil
	}
	if err := c.RefreshMetadata(ctx, topic); err != nil {
		return nil, err
	}
	return c.cache.snapshot(topic), nil
}
