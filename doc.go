// Copyright 2015-2018 trivago GmbH
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package gokafka is a client library for the Apache Kafka 0.8-0.10 wire
// protocol. It maintains a stable view of a cluster (broker registry,
// partition leaders, group coordinators) while translating
// Produce/Fetch/Offset/Metadata/OffsetCommit/OffsetFetch/FindCoordinator/
// ApiVersions/SaslHandshake calls into the correct frames sent to the
// correct broker, with metadata discovery, leader tracking, bounded retry
// on transient errors, and idempotent failure reporting.
//
// The package purposefully stays at the level of a single (topic,
// partition) request per call; fanning out across partitions is the
// caller's job. Consumer-group membership, transactions, message-format
// v2, and TLS transport are out of scope - see Client and Config for the
// supported surface.
package gokafka
