// SPDX-License-Identifier: Apache-2.0

// Package api defines the narrow interfaces the driver model core uses
// to talk to its external collaborators: the hardware description tree
// (HDT) subsystem and the event-notification subsystem. Concrete
// drivers never live here — the core only ever calls through their
// hook function types, declared in dmtypes.
package api

import "github.com/sirupsen/logrus"

var dmLogger = logrus.FieldLogger(logrus.New())

// SetLogger replaces the package logger. Callers embedding the driver
// model into a larger bootloader image use this to route bring-up logs
// into their own sink.
func SetLogger(logger logrus.FieldLogger) {
	dmLogger = logger
}

// Logger returns the driver-model subsystem's logger entry.
func Logger() *logrus.Entry {
	return dmLogger.WithField("subsystem", "dm")
}

// Node is an opaque handle into the hardware description tree. The
// core never interprets it; it is passed back to HDTCursor verbatim.
type Node interface{}

// HDTCursor is the read-only view the core requires from the HDT
// subsystem (spec.md §6). The HDT parser itself is out of scope; an
// implementation is provided by the platform or, for tests and the
// demo CLI, by package hdtfake.
type HDTCursor interface {
	RootNode() Node
	FirstSubnode(n Node) Node
	NextSubnode(n Node) Node
	IsValid(n Node) bool
	IsEnabled(n Node) bool
	PreReloc(n Node) bool
	GetName(n Node) string
	// GetProperty returns the raw bytes of a named property and its
	// length. A missing property returns (nil, 0, false).
	GetProperty(n Node, name string) (data []byte, length int, ok bool)
	// Path resolves a well-known path (e.g. "/chosen") to a node, or
	// reports it missing.
	Path(path string) (Node, bool)
}

// EventNotifier is the external event subsystem the root lifecycle
// notifies once bring-up completes (spec.md §6 "Event hook").
type EventNotifier interface {
	NotifyPreReloc() error
	NotifyPostReloc() error
}

// NopEventNotifier is a no-op EventNotifier, used when the embedding
// platform has no event subsystem wired up yet.
type NopEventNotifier struct{}

func (NopEventNotifier) NotifyPreReloc() error  { return nil }
func (NopEventNotifier) NotifyPostReloc() error { return nil }
