// Package events delivers kernel events outside the kernel manager.
//
// NATSPublisher forwards each event as JSON to "<subject>.<type>", Hub fans
// events out to in-process subscribers such as WebSocket streams, and Multi
// combines publishers. All of them satisfy kernel.Publisher.
package events
