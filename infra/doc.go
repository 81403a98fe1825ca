// Package infra holds the adapters behind core interfaces: the zerolog
// logger, the Prometheus and InfluxDB sinks, the Paho schedule publisher
// and the SQLite run log.
package infra
