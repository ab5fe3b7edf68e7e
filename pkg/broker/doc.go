// Package broker wraps an MQTT client (mosquitto-compatible) used both
// as the general pub/sub facade for workload samples and as the
// transport the ACL reconciler uses to drive the broker's
// dynamic-security plugin.
package broker
