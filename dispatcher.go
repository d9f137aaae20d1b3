package gokafka

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"
)

// targetKind selects how the dispatcher resolves a request's broker.
type targetKind int

const (
	targetLeader targetKind = iota
	targetCoordinator
)

// target names the broker a request must reach.
type target struct {
	kind      targetKind
	topic     string
	partition int32
	groupID   string
}

func leaderTarget(topic string, partition int32) target {
	return target{kind: targetLeader, topic: topic, partition: partition}
}

func coordinatorTarget(groupID string) target {
	return target{kind: targetCoordinator, groupID: groupID}
}

// describe renders tgt for log messages.
func (t target) describe() string {
	if t.kind == targetCoordinator {
		return fmt.Sprintf("coordinator(group=%s)", t.groupID)
	}
	return fmt.Sprintf("leader(%s/%d)", t.topic, t.partition)
}

// dispatcher implements spec.md §4.5's per-request attempt loop: resolve
// target broker, connect, negotiate api version, encode, send, receive,
// decode, classify the embedded error, retry or surface.
type dispatcher struct {
	cfg      *Config
	reg      *registry
	cache    *metadataCache
	policy   *retryPolicy
	log      Logger
	nonfatal *nonfatalRing
	corrID   int32
}

func newDispatcher(cfg *Config, reg *registry, cache *metadataCache, log Logger) *dispatcher {
	return &dispatcher{
		cfg:      cfg,
		reg:      reg,
		cache:    cache,
		policy:   newRetryPolicy(cfg),
		log:      log,
		nonfatal: newNonfatalRing(cfg.MaxLoggedErrors),
	}
}

func (d *dispatcher) nextCorrelationID() int32 {
	return atomic.AddInt32(&d.corrID, 1)
}

// metadataRefresher is the refresh hook the dispatcher calls between retries;
// Client wires the real implementation in via metadataRefresher to avoid
// an import cycle between dispatcher.go and client.go's higher-level
// refresh orchestration (both live in this package, so this is really
// just keeping the two concerns in separate files).
type metadataRefresher func(ctx context.Context, topic string) *Error

// dispatch runs one request to completion using a
// github.com/eapache/go-resiliency/retrier-driven attempt loop: each
// attempt is one work closure; errorClassifier (retry.go) decides from
// the returned *Error's Retriable bit whether the retrier sleeps and
// tries again or stops. apiKey, produceAcks and isProduce let it apply
// the Produce-specific fatal/fire-and-forget rules from spec.md §4.5
// without every call site re-deriving them from the request value.
func (d *dispatcher) dispatch(
	ctx context.Context,
	tgt target,
	apiKey int16,
	req Request,
	resp Response,
	isProduce bool,
	produceAcks RequiredAcks,
	refresh metadataRefresher,
) *Error {
	start := time.Now()
	lastErr := newClusterError(ErrUnknownTopicOrPartition)
	succeeded := false

	work := func() error {
		serverKey, ok := d.resolveTarget(tgt)
		if !ok {
			lastErr = ErrNoConnection
			d.log.Debugf("dispatch: %s has no known broker yet, refreshing", tgt.describe())
			d.nonfatal.record(lastErr, "")
			if refresh != nil {
				_ = refresh(ctx, tgt.topic)
			}
			return lastErr
		}

		broker, ok := d.reg.byServerKey(serverKey)
		if !ok {
			host, port, perr := splitHostPort(serverKey)
			if perr != nil {
				lastErr = perr
				return fatal(lastErr)
			}
			broker = d.reg.insertOrUpdate(0, false, host, port)
		}

		broker.mu.Lock()
		if err := d.ensureConnected(ctx, broker); err != nil {
			broker.mu.Unlock()
			lastErr = err
			d.log.Warnf("dispatch: connect to %s failed: %s", serverKey, err)
			d.nonfatal.record(lastErr, serverKey)
			return lastErr
		}

		version, verErr := d.negotiatedVersion(ctx, broker, apiKey)
		if verErr != nil {
			broker.mu.Unlock()
			lastErr = verErr
			return fatal(lastErr)
		}

		corrID := d.nextCorrelationID()
		encoded, encErr := encodeRequest(req, version, corrID, d.cfg.ClientID)
		if encErr != nil {
			broker.mu.Unlock()
			lastErr = encErr
			return fatal(lastErr)
		}

		if sendErr := broker.conn.send(encoded, d.cfg.Timeout()); sendErr != nil {
			broker.mu.Unlock()
			d.log.Warnf("dispatch: send to %s failed: %s", serverKey, sendErr)
			d.nonfatal.record(sendErr, serverKey)
			if isProduce && sendErr != ErrCannotBind && sendErr != ErrNoConnection {
				lastErr = wrapError(ErrSendNoAck, sendErr)
				d.log.Errorf("dispatch: produce to %s left unacknowledged: %s", serverKey, sendErr)
				return fatal(lastErr)
			}
			lastErr = sendErr
			return lastErr
		}

		if isProduce && produceAcks == AcksNone {
			broker.mu.Unlock()
			succeeded = true
			return nil
		}

		raw, recvErr := broker.conn.receive(d.cfg.Timeout())
		broker.mu.Unlock()
		if recvErr != nil {
			if isProduce {
				lastErr = wrapError(ErrSendNoAck, recvErr)
				d.log.Errorf("dispatch: produce to %s left unacknowledged: %s", serverKey, recvErr)
				return fatal(lastErr)
			}
			d.log.Warnf("dispatch: receive from %s failed: %s", serverKey, recvErr)
			d.nonfatal.record(recvErr, serverKey)
			lastErr = recvErr
			return lastErr
		}

		if decErr := decodeResponse(raw, corrID, version, resp); decErr != nil {
			lastErr = decErr
			return fatal(lastErr)
		}

		partErr := ErrNone
		if fe, ok := resp.(firstPartitionError); ok {
			partErr = fe.firstError()
		}
		if partErr == ErrNone {
			succeeded = true
			return nil
		}
		if isProduce && partErr == ErrRequestTimedOut {
			lastErr = wrapError(ErrSendNoAck, newClusterError(partErr))
			return fatal(lastErr)
		}

		clusterErr := newClusterError(partErr).WithContext(serverKey, tgt.topic, tgt.partition)
		lastErr = clusterErr
		if !clusterErr.Retriable {
			return fatal(lastErr)
		}
		d.log.Warnf("dispatch: %s on %s returned retriable %s, refreshing metadata", apiName(apiKey), serverKey, clusterErr.Message)
		d.nonfatal.record(clusterErr, serverKey)
		retryCounter.WithLabelValues(apiName(apiKey), clusterErrorMessages[partErr]).Inc()
		if refresh != nil {
			_ = refresh(ctx, tgt.topic)
		}
		return clusterErr
	}

	if err := d.policy.newRetrier().Run(work); err != nil && !succeeded {
		return lastErr
	}
	requestLatencyHisto.WithLabelValues(apiName(apiKey)).Observe(time.Since(start).Seconds())
	return nil
}

// fatal marks err as non-retriable so errorClassifier stops the retrier
// immediately, for errors that are always fatal regardless of code
// (argument errors, mismatched correlation ids, SEND_NO_ACK escalation).
func fatal(err *Error) *Error {
	cp := *err
	cp.Retriable = false
	return &cp
}

func (d *dispatcher) resolveTarget(tgt target) (string, bool) {
	switch tgt.kind {
	case targetLeader:
		return d.cache.leaderFor(tgt.topic, tgt.partition)
	case targetCoordinator:
		return d.cache.coordinator(tgt.groupID)
	default:
		return "", false
	}
}

// ensureConnected dials broker if it has no live connection.
func (d *dispatcher) ensureConnected(ctx context.Context, broker *BrokerEntry) *Error {
	if broker.conn == nil {
		broker.conn = newEndpoint(broker.Host, broker.Port)
	}
	return broker.conn.connect(ctx, d.cfg.Timeout(), d.cfg.network())
}

// negotiatedVersion returns broker's usable version for apiKey, querying
// ApiVersions on first use unless Config.DontLoadAPIVersions is set. A
// broker that doesn't understand ApiVersions (pre-0.10) is caught
// non-fatally, left with an empty map, and every api_key then falls back
// to compile-time default version 0 (spec.md §4.1 "ApiVersions").
func (d *dispatcher) negotiatedVersion(ctx context.Context, broker *BrokerEntry, apiKey int16) (int16, *Error) {
	if v, ok := broker.apiVersion(apiKey); ok {
		if v < 0 {
			return 0, ErrUnsupportedVersion
		}
		return v, nil
	}
	if d.cfg.DontLoadAPIVersions {
		return 0, nil
	}

	req := &ApiVersionsRequest{}
	resp := &ApiVersionsResponse{}
	corrID := d.nextCorrelationID()
	encoded, err := encodeRequest(req, 0, corrID, d.cfg.ClientID)
	if err != nil {
		return 0, err
	}
	if err := broker.conn.send(encoded, d.cfg.Timeout()); err != nil {
		broker.setAPIVersions(map[int16]int16{})
		return 0, nil
	}
	raw, err := broker.conn.receive(d.cfg.Timeout())
	if err != nil {
		broker.setAPIVersions(map[int16]int16{})
		return 0, nil
	}
	if err := decodeResponse(raw, corrID, 0, resp); err != nil || resp.ErrorCode != ErrNone {
		broker.setAPIVersions(map[int16]int16{})
		return 0, nil
	}

	versions := make(map[int16]int16, len(resp.APIVersions))
	for _, v := range resp.APIVersions {
		max := v.MaxVersion
		if m := clientMaxVersion(v.APIKey); m < max {
			max = m
		}
		if max < v.MinVersion {
			max = -1
		}
		versions[v.APIKey] = max
	}
	broker.setAPIVersions(versions)

	v, ok := versions[apiKey]
	if !ok {
		return 0, nil
	}
	if v < 0 {
		return 0, ErrUnsupportedVersion
	}
	return v, nil
}

// clientMaxVersion is the highest version this codec implements for
// apiKey (spec.md §6 "Version matrix implemented").
func clientMaxVersion(apiKey int16) int16 {
	switch apiKey {
	case apiKeyProduce:
		return 2
	case apiKeyFetch:
		return 3
	case apiKeyOffset:
		return 1
	case apiKeyMetadata:
		return 0
	case apiKeyOffsetCommit:
		return 1
	case apiKeyOffsetFetch:
		return 1
	case apiKeyFindCoordinator:
		return 1
	case apiKeySaslHandshake:
		return 0
	case apiKeyApiVersions:
		return 0
	default:
		return 0
	}
}

func apiName(apiKey int16) string {
	switch apiKey {
	case apiKeyProduce:
		return "produce"
	case apiKeyFetch:
		return "fetch"
	case apiKeyOffset:
		return "offset"
	case apiKeyMetadata:
		return "metadata"
	case apiKeyOffsetCommit:
		return "offset_commit"
	case apiKeyOffsetFetch:
		return "offset_fetch"
	case apiKeyFindCoordinator:
		return "find_coordinator"
	case apiKeySaslHandshake:
		return "sasl_handshake"
	case apiKeyApiVersions:
		return "api_versions"
	default:
		return "unknown"
	}
}
